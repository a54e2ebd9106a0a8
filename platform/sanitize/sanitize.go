// Package sanitize cleans user-provided text before it reaches a model prompt.
package sanitize

import (
	"strings"
	"unicode"
)

// Text removes control characters other than newline and tab and trims
// surrounding whitespace.
func Text(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}
