package search

import (
	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// Candidate is a component that may be discovered as a redox product,
// with the element it was found under.
type Candidate struct {
	Name    string
	Element string
}

// CandidateLists is the output of ResolveCandidates.
type CandidateLists struct {
	// Candidates share an element with a selected component and may become
	// new components when found as reaction products. Catalogue order.
	Candidates []Candidate
	// Excluded are never discovered: siblings suppressed by a redox flag
	// and the user's excluded couples.
	Excluded []string
}

// Candidate returns the candidate named name.
func (c CandidateLists) Candidate(name string) (Candidate, bool) {
	for _, cand := range c.Candidates {
		if chem.NameEqual(cand.Name, name) {
			return cand, true
		}
	}
	return Candidate{}, false
}

// IsExcluded reports whether name is excluded from redox discovery.
func (c CandidateLists) IsExcluded(name string) bool {
	return containsName(c.Excluded, name)
}

// CandidateNames returns the candidate names in order.
func (c CandidateLists) CandidateNames() []string {
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Name
	}
	return out
}

// ResolveCandidates computes the redox candidate and excluded lists for a
// selection.
//
// For every selected component found in the catalogue, every other
// catalogue entry of the same element becomes a candidate, or is excluded
// when the element's redox flag is off. Excluded couples named by the user
// are moved from the candidates to the excluded list. Both lists are
// deduplicated by name equality and keep catalogue order.
//
// ResolveCandidates has no side effects and is computed once per search,
// from the original selection only.
func ResolveCandidates(original []string, catalogue ir.Catalogue, flags RedoxFlags, excludedCouples []string) CandidateLists {
	var out CandidateLists
	for _, sel := range original {
		for k0, entry := range catalogue {
			if !chem.NameEqual(entry.Formula, sel) {
				continue
			}
			el := entry.Element
			for k1, sib := range catalogue {
				if k1 == k0 || sib.Element != el {
					continue
				}
				if flags.allows(el) {
					if _, ok := out.Candidate(sib.Formula); !ok {
						out.Candidates = append(out.Candidates, Candidate{Name: sib.Formula, Element: el})
					}
				} else if !containsName(out.Excluded, sib.Formula) {
					out.Excluded = append(out.Excluded, sib.Formula)
				}
			}
		}
	}

	for _, x := range excludedCouples {
		if !containsName(out.Excluded, x) {
			out.Excluded = append(out.Excluded, x)
		}
	}
	kept := out.Candidates[:0]
	for _, cand := range out.Candidates {
		if !containsName(out.Excluded, cand.Name) {
			kept = append(kept, cand)
		}
	}
	out.Candidates = kept
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if chem.NameEqual(n, name) {
			return true
		}
	}
	return false
}
