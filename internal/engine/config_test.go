package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeChannels(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChannels(t *testing.T) {
	path := writeChannels(t, `channels:
  - id: UC1
    name: First
  - id: UC2
`)
	got, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "UC1" || got[1].ID != "UC2" {
		t.Fatalf("unexpected channels %+v", got)
	}
	if got[1].Name != "UC2" {
		t.Errorf("missing name should default to id, got %q", got[1].Name)
	}
}

func TestLoadChannelsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "channels: []\n"},
		{"missing id", "channels:\n  - name: x\n"},
		{"duplicate id", "channels:\n  - id: a\n  - id: a\n"},
		{"bad yaml", "channels: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadChannels(writeChannels(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := LoadChannels(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt")
	t.Setenv("LLM_API_KEY", "")
	os.Unsetenv("LLM_API_KEY")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHANNELS_FILE", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.LLMAPIKey != "sk-test" {
		t.Errorf("OPENAI_API_KEY should be accepted, got %q", c.LLMAPIKey)
	}
	if c.Lookback != 24*time.Hour || c.TipsPerVideo != 3 || c.MaxTranscriptChars != 80_000 || c.DiscoveryPageSize != 5 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if len(c.Channels) != len(DefaultChannels) {
		t.Errorf("expected default channels, got %d", len(c.Channels))
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	c := &Config{MaxTranscriptChars: 1, TipsPerVideo: 1, DiscoveryPageSize: 1}
	err := c.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	c.YouTubeAPIKey = "yt"
	if err := c.Validate(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("LLM key still missing, got %v", err)
	}

	c.LLMAPIKey = "llm"
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
