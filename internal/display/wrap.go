package display

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the column limit for outbound text. Classic clients
// assume an 80 column terminal.
const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth. ANSI escape sequences survive
// the wrapping untouched.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Capitalize uppercases the first byte of s. Enemy names are stored
// lowercase ("a wild boar") and need this at sentence starts.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
