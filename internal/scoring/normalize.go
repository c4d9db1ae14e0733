package scoring

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical comparison form of s: lower case, letters
// and digits only, words separated by a single space, no leading or trailing
// whitespace. Two strings with equal normalized forms count as an exact hit.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
