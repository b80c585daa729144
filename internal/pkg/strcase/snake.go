// Package strcase holds the one string conversion the module needs: turning
// Go field names into the snake_case keys used in validation errors.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake lowercases s and inserts underscores at word boundaries.
// Initialisms stay whole: "userID" becomes "user_id" and "HTTPServer"
// becomes "http_server".
func ToLowerSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			// A boundary is either lower/digit followed by upper, or the
			// last letter of an acronym before a normal word.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
