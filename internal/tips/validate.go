package tips

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/anatolykoptev/go-kit/strutil"
)

// MaxContentRunes is the hard cap on tip content length.
const MaxContentRunes = 280

const ellipsis = "..."

// ErrRejected marks a candidate that failed validation.
var ErrRejected = errors.New("tip rejected")

// Validate checks a candidate against the schema and returns the accepted tip
// (id unset). Over-long content is truncated to MaxContentRunes, ending in "...".
func Validate(c Candidate) (Tip, error) {
	cat, ok := ParseCategory(c.Category)
	if !ok {
		return Tip{}, fmt.Errorf("%w: bad category %q", ErrRejected, c.Category)
	}
	switch {
	case c.Title == "":
		return Tip{}, fmt.Errorf("%w: empty title", ErrRejected)
	case c.Content == "":
		return Tip{}, fmt.Errorf("%w: empty content", ErrRejected)
	case c.Source == "":
		return Tip{}, fmt.Errorf("%w: empty source", ErrRejected)
	}
	return Tip{
		Category: cat,
		Source:   c.Source,
		Title:    c.Title,
		Content:  truncateContent(c.Content),
	}, nil
}

func truncateContent(s string) string {
	if utf8.RuneCountInString(s) <= MaxContentRunes {
		return s
	}
	return strutil.TruncateWith(s, MaxContentRunes-utf8.RuneCountInString(ellipsis), "") + ellipsis
}
