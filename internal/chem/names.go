package chem

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	unicodeMinus = '\u2212'
	enDash       = '\u2013'
)

// clean applies the formatting-only rewrites shared by all name rules:
// NFKC compatibility folding, Unicode minus and en dash to '-', and removal
// of whitespace. Case is preserved.
func clean(name string) string {
	name = norm.NFKC.String(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == unicodeMinus || r == enDash:
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize returns the comparison key of a species name.
//
// Two names that differ only by case, whitespace, Unicode compatibility
// forms or the spelling of the trailing charge ("++" and "+2", "-1" and "-")
// normalize to the same key.
func Normalize(name string) string {
	return canonicalCharge(strings.ToUpper(clean(name)))
}

// NameEqual reports whether two species names denote the same species.
// An empty name never equals anything.
func NameEqual(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// canonicalCharge rewrites a trailing charge to the sign-then-magnitude
// form, dropping a magnitude of one.
func canonicalCharge(s string) string {
	if s == "" {
		return s
	}
	last := s[len(s)-1]
	if last == '+' || last == '-' {
		run := 0
		for i := len(s) - 1; i >= 0 && s[i] == last; i-- {
			run++
		}
		// A lone sign is already canonical; "e-" stays "E-".
		if run == 1 || run == len(s) {
			return s
		}
		return s[:len(s)-run] + string(last) + strconv.Itoa(run)
	}
	if len(s) > 2 && (strings.HasSuffix(s, "+1") || strings.HasSuffix(s, "-1")) {
		return s[:len(s)-1]
	}
	return s
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsWater reports whether name is water.
func IsWater(name string) bool {
	return Normalize(name) == "H2O"
}

// IsProton reports whether name is the proton, including the "H +" spelling.
func IsProton(name string) bool {
	return Normalize(name) == "H+"
}

// IsElectron reports whether name is the electron.
func IsElectron(name string) bool {
	return Normalize(name) == "E-"
}

// Charge returns the electric charge carried by a formula.
// The charge is read from the end of the formula after any phase suffix is
// removed: "Fe+3", "Fe+++" and "SO4-2" carry +3, +3 and -2; "H2PO4-" carries -1.
// A formula without a trailing charge is neutral. The second result is false
// for an empty formula.
func Charge(formula string) (float64, bool) {
	s := stripPhase(clean(formula))
	if s == "" {
		return 0, false
	}
	last := s[len(s)-1]
	if last == '+' || last == '-' {
		run := 0
		for i := len(s) - 1; i >= 0 && s[i] == last; i-- {
			run++
		}
		return signOf(last) * float64(run), true
	}
	// Sign followed by digits: "Fe+2".
	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	if i < len(s) && i > 0 && (s[i-1] == '+' || s[i-1] == '-') {
		n, err := strconv.Atoi(s[i:])
		if err != nil {
			return 0, true
		}
		return signOf(s[i-1]) * float64(n), true
	}
	return 0, true
}

func signOf(c byte) float64 {
	if c == '-' {
		return -1
	}
	return 1
}
