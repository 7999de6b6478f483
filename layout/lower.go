package layout

import (
	"strings"
	"unicode"
)

// ToLower lower-cases r. Cyrillic letters are mapped explicitly so the result
// does not depend on the host's case tables; everything else goes through
// unicode.ToLower.
func ToLower(r rune) rune {
	switch {
	case (r >= 'а' && r <= 'я') || r == 'ё':
		return r
	case r >= 'А' && r <= 'Я':
		return r + ('а' - 'А')
	case r == 'Ё':
		return 'ё'
	default:
		return unicode.ToLower(r)
	}
}

// ToLowerString applies ToLower to every rune of s.
func ToLowerString(s string) string {
	return strings.Map(ToLower, s)
}
