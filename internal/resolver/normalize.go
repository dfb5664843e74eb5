package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize turns a raw name into its index key: surrounding whitespace is
// trimmed, every rune is lower-cased and internal whitespace runs collapse to
// a single ASCII space. Already-normal input is returned as is, so lookups of
// well-formed queries do not allocate.
func Normalize(s string) string {
	if isNormal(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isNormal(s string) bool {
	prevSpace := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			return isNormalUnicode(s)
		}
		switch {
		case 'A' <= c && c <= 'Z':
			return false
		case c == ' ':
			if prevSpace {
				return false
			}
			prevSpace = true
		case c == '\t', c == '\n', c == '\v', c == '\f', c == '\r':
			return false
		default:
			prevSpace = false
		}
	}
	return len(s) == 0 || !prevSpace
}

func isNormalUnicode(s string) bool {
	prevSpace := true
	for _, r := range s {
		if r == utf8.RuneError {
			// Invalid bytes are rewritten as U+FFFD.
			return false
		}
		if unicode.IsSpace(r) {
			if r != ' ' || prevSpace {
				return false
			}
			prevSpace = true
			continue
		}
		if unicode.ToLower(r) != r {
			return false
		}
		prevSpace = false
	}
	return len(s) == 0 || !prevSpace
}
