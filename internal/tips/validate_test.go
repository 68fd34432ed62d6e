package tips

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidate(t *testing.T) {
	good := Candidate{Category: "Sleep", Source: "Dr. X", Title: "Cold shower", Content: "Take a 2-minute cold shower each morning."}

	tests := []struct {
		name    string
		in      Candidate
		wantErr bool
	}{
		{"accepted", good, false},
		{"unknown category", Candidate{Category: "Wellness", Source: "a", Title: "b", Content: "c"}, true},
		{"lowercase category", Candidate{Category: "sleep", Source: "a", Title: "b", Content: "c"}, true},
		{"empty category", Candidate{Source: "a", Title: "b", Content: "c"}, true},
		{"empty title", Candidate{Category: "Focus", Source: "a", Content: "c"}, true},
		{"empty content", Candidate{Category: "Focus", Source: "a", Title: "b"}, true},
		{"empty source", Candidate{Category: "Focus", Title: "b", Content: "c"}, true},
		{"two-word category", Candidate{Category: "Digital Detox", Source: "a", Title: "b", Content: "c"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip, err := Validate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected rejection, got %+v", tip)
				}
				if !errors.Is(err, ErrRejected) {
					t.Errorf("error %v does not wrap ErrRejected", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tip.ID != 0 {
				t.Errorf("validated tip should have no id, got %d", tip.ID)
			}
			if string(tip.Category) != tt.in.Category || tip.Title != tt.in.Title || tip.Source != tt.in.Source {
				t.Errorf("fields changed: %+v", tip)
			}
		})
	}
}

func TestValidateTruncatesContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		truncated bool
	}{
		{"exactly 280", strings.Repeat("a", 280), false},
		{"281", strings.Repeat("a", 281), true},
		{"long", strings.Repeat("b", 1000), true},
		{"multibyte", strings.Repeat("é", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip, err := Validate(Candidate{Category: "Health", Source: "s", Title: "t", Content: tt.content})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.truncated {
				if tip.Content != tt.content {
					t.Error("content should be unchanged")
				}
				return
			}
			if n := utf8.RuneCountInString(tip.Content); n != MaxContentRunes {
				t.Errorf("content length = %d, want %d", n, MaxContentRunes)
			}
			if !strings.HasSuffix(tip.Content, "...") {
				t.Errorf("truncated content should end with ellipsis: %q", tip.Content)
			}
			if want := string([]rune(tt.content)[:277]); !strings.HasPrefix(tip.Content, want) {
				t.Error("truncated content should keep the first 277 characters")
			}
		})
	}
}

func TestValidateKeepsWhitespace(t *testing.T) {
	tip, err := Validate(Candidate{Category: "Focus", Source: " s ", Title: "  Deep Work ", Content: "Block 90 minutes. "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip.Title != "  Deep Work " || tip.Source != " s " || tip.Content != "Block 90 minutes. " {
		t.Errorf("validator must not normalize text: %+v", tip)
	}
}

func TestParseCategory(t *testing.T) {
	if len(Categories()) != 11 {
		t.Fatalf("expected 11 categories, got %d", len(Categories()))
	}
	for _, c := range Categories() {
		got, ok := ParseCategory(string(c))
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, ok)
		}
		if c.Style().Bg == "" || c.Style().Text == "" {
			t.Errorf("category %q has no style", c)
		}
	}
	if _, ok := ParseCategory("Wellness"); ok {
		t.Error("Wellness should not parse")
	}
}

func TestCandidateFromMap(t *testing.T) {
	c := CandidateFromMap(map[string]any{
		"category": "Sleep",
		"source":   42.0,
		"title":    "Dim lights",
	})
	if c.Category != "Sleep" || c.Title != "Dim lights" {
		t.Errorf("unexpected candidate %+v", c)
	}
	if c.Source != "" || c.Content != "" {
		t.Errorf("non-string and missing fields should be empty: %+v", c)
	}
}
