package chem

import "strings"

// Phase suffixes recognised at the end of a species name.
var (
	solidSuffixes = []string{"(s)", "(c)", "(cr)", "(am)", "(a)", "(vit)", "(l)"}
	phaseSuffixes = []string{"(s)", "(c)", "(l)", "(g)", "(cr)", "(am)", "(aq)", "(vit)"}
)

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// stripPhase removes one trailing phase suffix. A name consisting only of
// a suffix is left alone.
func stripPhase(s string) string {
	for _, suf := range phaseSuffixes {
		if len(s) > len(suf) && hasSuffixFold(s, suf) {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}

// IsSolid reports whether the name denotes a pure condensed phase
// (solid or liquid), which the result set keeps after all soluble species.
func IsSolid(name string) bool {
	s := clean(name)
	for _, suf := range solidSuffixes {
		if len(s) > len(suf) && hasSuffixFold(s, suf) {
			return true
		}
	}
	return false
}

// IsCrSolid reports whether the name ends in "(cr)".
func IsCrSolid(name string) bool {
	s := clean(name)
	return len(s) > 4 && hasSuffixFold(s, "(cr)")
}

// IsCSolid reports whether the name ends in "(c)".
func IsCSolid(name string) bool {
	s := clean(name)
	return len(s) > 3 && hasSuffixFold(s, "(c)")
}

// IsCrOrCSolid reports whether the name ends in "(cr)" or "(c)".
func IsCrOrCSolid(name string) bool {
	return IsCrSolid(name) || IsCSolid(name)
}
