package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// WarningKind categorizes a consistency warning.
type WarningKind string

const (
	// WarnRedoxPair: two selected components are redox forms of one element.
	WarnRedoxPair WarningKind = "redox_pair"
	// WarnRecordCheck: a text database record failed a consistency check.
	WarnRecordCheck WarningKind = "record_check"
)

// Warning is a user-decidable problem. The Confirmer decides whether the
// search continues.
type Warning struct {
	Kind    WarningKind
	Message string
	// Names are the species involved.
	Names []string
	// File and Ordinal locate a record check.
	File    string
	Ordinal int
	// Proceed records the Confirmer's decision.
	Proceed bool
}

// CheckConsistency warns when the user selected two components that are
// redox forms of the same element, e.g. Fe+2 and Fe+3, or SO4-2 and HS-.
//
// Each such pair raises one confirmation. When redox.Ask is off, or "e-" is
// selected, a pair is only reported if the element's redox flag permits
// discovery. The check never removes components; it returns false as soon
// as the confirmer cancels.
func CheckConsistency(ctx context.Context, original []string, catalogue ir.Catalogue, flags RedoxFlags, confirmer Confirmer) (bool, []Warning) {
	redox := containsName(original, "e-")
	var warnings []Warning
	for i, sel := range original {
		for _, entry := range catalogue {
			if !chem.NameEqual(entry.Formula, sel) {
				continue
			}
			el := entry.Element
			if !chem.IsRedox(el, sel) {
				break
			}
			if (!flags.Ask || redox) && !flags.allows(el) {
				break
			}
			for _, sib := range catalogue {
				if sib.Element != el || chem.NameEqual(sib.Formula, sel) || !chem.IsRedox(el, sib.Formula) {
					continue
				}
				if !containsName(original[i:], sib.Formula) {
					continue
				}
				w := Warning{
					Kind:    WarnRedoxPair,
					Message: redoxPairMessage(sel, sib.Formula, redox),
					Names:   []string{sel, sib.Formula},
				}
				w.Proceed = confirmer.Confirm(ctx, w.Message)
				warnings = append(warnings, w)
				if !w.Proceed {
					return false, warnings
				}
			}
		}
	}
	return true, warnings
}

func redoxPairMessage(a, b string, redox bool) string {
	var m strings.Builder
	fmt.Fprintf(&m, "Warning!\nYou selected two components for the same element: %q and %q\n", a, b)
	m.WriteString("They are probably related by redox reactions.\n")
	if redox {
		m.WriteString("You should remove one of these components.")
	} else {
		fmt.Fprintf(&m, "You should instead select \"e-\" as a component, and remove either %q or %q.", a, b)
	}
	m.WriteString("\nThe calculations will then determine their respective concentrations.\n\n")
	m.WriteString("Are you sure that you want to continue ?")
	return m.String()
}

// checkRecord lists the problems of a record read from a text database:
// components unknown to the catalogue, and a charge imbalance between the
// product and its components.
func checkRecord(rec ir.Record, catalogue ir.Catalogue) []string {
	var problems []string
	for _, s := range rec.Slots {
		if s.IsEmpty() {
			continue
		}
		if !catalogueHas(catalogue, s.Name) {
			problems = append(problems, fmt.Sprintf("Component %q in complex %q not found in the element files.", s.Name, rec.Name))
		}
	}

	want, ok := chem.Charge(rec.Name)
	if !ok {
		return problems
	}
	var got float64
	protonSlot := false
	for _, s := range rec.Slots {
		if s.IsEmpty() {
			continue
		}
		if chem.IsProton(s.Name) {
			protonSlot = true
		}
		q, _ := chem.Charge(s.Name)
		got += s.Coef * q
	}
	if !protonSlot {
		got += rec.Proton
	}
	if math.Abs(got-want) > coefTolerance {
		problems = append(problems, fmt.Sprintf("Charge imbalance in complex %q: product charge %g, components give %g.", rec.Name, want, got))
	}
	return problems
}

func catalogueHas(catalogue ir.Catalogue, formula string) bool {
	if chem.IsWater(formula) || chem.IsElectron(formula) || chem.IsProton(formula) {
		return true
	}
	for _, entry := range catalogue {
		if chem.NameEqual(entry.Formula, formula) {
			return true
		}
	}
	return false
}
