package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go-kit/strutil"
)

// CleanText strips markup from a caption fragment and decodes HTML entities,
// collapsing runs of whitespace.
func CleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// The suffix counts toward limit. Safe for UTF-8.
func TruncateRunes(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(suffix)
	if keep <= 0 {
		return suffix
	}
	return strutil.TruncateWith(s, keep, "") + suffix
}

// HeadRunes returns the first n runes of s and whether anything was cut.
func HeadRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	return strutil.TruncateWith(s, n, ""), true
}
