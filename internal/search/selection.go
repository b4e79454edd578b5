package search

import (
	"math"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// Selection is the set of components a search currently accepts: the
// user's original selection plus the redox components discovered so far.
// Each discovered component keeps the record that defines it.
type Selection struct {
	original   []string
	discovered []ir.Record
}

// NewSelection starts a selection from the user's components. Duplicates
// under name equality are dropped.
func NewSelection(components []string) *Selection {
	s := &Selection{}
	for _, c := range components {
		if !s.Has(c) {
			s.original = append(s.original, c)
		}
	}
	return s
}

// Original returns the user's components in selection order.
func (s *Selection) Original() []string {
	out := make([]string, len(s.original))
	copy(out, s.original)
	return out
}

// Discovered returns the defining records of discovered components in
// discovery order.
func (s *Selection) Discovered() []ir.Record {
	out := make([]ir.Record, len(s.discovered))
	copy(out, s.discovered)
	return out
}

// All returns every selected component name, original ones first.
func (s *Selection) All() []string {
	out := s.Original()
	for _, d := range s.discovered {
		out = append(out, d.Name)
	}
	return out
}

// Len returns the number of selected components.
func (s *Selection) Len() int {
	return len(s.original) + len(s.discovered)
}

// Has reports whether name is selected, originally or by discovery.
func (s *Selection) Has(name string) bool {
	return s.IsOriginal(name) || s.IsDiscovered(name)
}

// IsOriginal reports whether the user selected name.
func (s *Selection) IsOriginal(name string) bool {
	for _, c := range s.original {
		if chem.NameEqual(c, name) {
			return true
		}
	}
	return false
}

// IsDiscovered reports whether name was discovered during the search.
func (s *Selection) IsDiscovered(name string) bool {
	return s.discoveredIndex(name) >= 0
}

func (s *Selection) discoveredIndex(name string) int {
	for i, d := range s.discovered {
		if chem.NameEqual(d.Name, name) {
			return i
		}
	}
	return -1
}

// Discover adds rec.Name as a discovered component defined by rec.
// It returns false if the name is already selected.
func (s *Selection) Discover(rec ir.Record) bool {
	if s.Has(rec.Name) {
		return false
	}
	s.discovered = append(s.discovered, rec)
	return true
}

// Retract removes a discovered component. Original components are never
// retracted. It returns false if name was not discovered.
func (s *Selection) Retract(name string) bool {
	i := s.discoveredIndex(name)
	if i < 0 {
		return false
	}
	s.discovered = append(s.discovered[:i], s.discovered[i+1:]...)
	return true
}

// Refresh replaces the definition of a discovered component by rec when
// both have the same name and stoichiometry, so a later database's
// constants win. It reports whether a definition was replaced.
func (s *Selection) Refresh(rec ir.Record) bool {
	i := s.discoveredIndex(rec.Name)
	if i < 0 || !sameStoichiometry(s.discovered[i], rec) {
		return false
	}
	s.discovered[i] = rec
	return true
}

const coefTolerance = 1e-3

// negligible reports whether a coefficient is treated as zero.
func negligible(v float64) bool {
	return math.Abs(v) <= coefTolerance
}

// sameStoichiometry reports whether a and b have equal names and the same
// components with the same coefficients, in any slot order.
func sameStoichiometry(a, b ir.Record) bool {
	if !chem.NameEqual(a.Name, b.Name) {
		return false
	}
	ca, cb := a.Components(), b.Components()
	if len(ca) != len(cb) {
		return false
	}
	for _, x := range ca {
		found := false
		for _, y := range cb {
			if chem.NameEqual(x.Name, y.Name) {
				found = math.Abs(x.Coef-y.Coef) <= coefTolerance
				break
			}
		}
		if !found {
			return false
		}
	}
	return negligible(a.Proton - b.Proton)
}
