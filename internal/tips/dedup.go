package tips

import "strings"

// normText is the comparison form used for duplicate detection.
func normText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsDuplicate reports whether t's title or content matches any existing tip,
// ignoring case and surrounding whitespace. Either match is enough.
func IsDuplicate(t Tip, existing []Tip) bool {
	title := normText(t.Title)
	content := normText(t.Content)
	for _, e := range existing {
		if normText(e.Title) == title || normText(e.Content) == content {
			return true
		}
	}
	return false
}
