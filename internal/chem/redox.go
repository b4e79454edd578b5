package chem

import (
	"strings"
	"unicode"
)

// IsRedox reports whether formula is built only from element, oxygen and
// hydrogen, so that it may take part in redox equilibria for element.
// Fe+2, CrO4-2 and H2PO4- are redox for Fe, Cr and P; CN- is not redox for C.
//
// The formula must contain the element symbol. A leading "*" or "@" and one
// phase suffix are ignored, as are digits, charges, separators and brackets.
// The element symbol is matched case-sensitively.
func IsRedox(element, formula string) bool {
	element = strings.TrimSpace(element)
	if element == "" || !strings.Contains(formula, element) {
		return false
	}
	s := clean(formula)
	if len(s) >= 2 && (s[0] == '*' || s[0] == '@') {
		s = s[1:]
	}
	s = stripPhase(s)

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return -1
		case strings.ContainsRune("+-.;,()[]{}", r):
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	for strings.Contains(s, element) {
		s = strings.ReplaceAll(s, element, "")
	}
	s = strings.ReplaceAll(s, "O", "")
	s = strings.ReplaceAll(s, "H", "")
	return s == ""
}
