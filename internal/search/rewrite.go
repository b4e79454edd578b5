package search

import (
	"fmt"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// Rewrite expresses every record in terms of non-discovered components.
//
// While a record has a slot naming a discovered component D with
// coefficient n1, that slot is replaced by n1 times D's defining reaction:
// logK grows by n1·logK(D), deltaH and deltaCp likewise when both sides
// know them, and each of D's components is merged into the record's slots.
// Protons are tracked both in their slot and in the record's Proton field.
//
// The input records are not modified. Rewrite fails with an
// ErrInternalInvariant *Error when a component finds no free slot, or when
// a record needs more than DefaultMaxSubstitutions substitutions.
func Rewrite(records []ir.Record, discovered []ir.Record) ([]ir.Record, error) {
	out := make([]ir.Record, len(records))
	for i, rec := range records {
		rw, _, err := rewriteRecord(rec.Clone(), discovered, DefaultMaxSubstitutions)
		if err != nil {
			return nil, err
		}
		out[i] = rw
	}
	return out, nil
}

// rewriteRecord substitutes discovered components in rec until none is
// left. It returns the rewritten record and the number of substitutions.
func rewriteRecord(rec ir.Record, discovered []ir.Record, limit int) (ir.Record, int, error) {
	quota := NewQuotaEnforcer(limit)
	for {
		slot, def := firstDiscoveredSlot(rec, discovered)
		if slot < 0 {
			return rec, quota.Current(), nil
		}
		if err := quota.Check("rewrite of " + rec.Name); err != nil {
			return rec, quota.Current(), &Error{
				Kind:    ErrInternalInvariant,
				Message: "substitution does not terminate",
				Names:   []string{rec.Name, rec.Slots[slot].Name},
				Err:     err,
			}
		}
		if err := substitute(&rec, slot, def); err != nil {
			return rec, quota.Current(), err
		}
	}
}

func firstDiscoveredSlot(rec ir.Record, discovered []ir.Record) (int, ir.Record) {
	for i, s := range rec.Slots {
		if s.IsEmpty() {
			continue
		}
		for _, d := range discovered {
			if chem.NameEqual(d.Name, s.Name) {
				return i, d
			}
		}
	}
	return -1, ir.Record{}
}

// substitute replaces slot of rec by its coefficient times def.
func substitute(rec *ir.Record, slot int, def ir.Record) error {
	target := rec.Slots[slot].Name
	n1 := rec.Slots[slot].Coef
	np := rec.Proton

	rec.LogK += n1 * def.LogK
	if h, ok := rec.DeltaH.Get(); ok {
		if dh, ok := def.DeltaH.Get(); ok {
			rec.DeltaH = ir.Some(h + n1*dh)
		}
	}
	if cp, ok := rec.DeltaCp.Get(); ok {
		if dcp, ok := def.DeltaCp.Get(); ok {
			rec.DeltaCp = ir.Some(cp + n1*dcp)
		}
	}
	rec.Slots[slot] = ir.Slot{}

	hPresent := false
	for _, c := range def.Components() {
		inc := n1 * c.Coef
		proton := chem.IsProton(c.Name)
		idx := slotOf(*rec, c.Name)
		switch {
		case idx >= 0:
			rec.Slots[idx].Coef += inc
		case proton:
			if e := rec.EmptySlot(); e >= 0 {
				rec.Slots[e] = ir.Slot{Name: c.Name, Coef: np + inc}
			}
		default:
			e := rec.EmptySlot()
			if e < 0 {
				return &Error{
					Kind:    ErrInternalInvariant,
					Message: fmt.Sprintf("no free slot in %q for %q while substituting %q", rec.Name, c.Name, target),
					Names:   []string{rec.Name, target, c.Name},
				}
			}
			rec.Slots[e] = ir.Slot{Name: c.Name, Coef: inc}
		}
		if proton {
			hPresent = true
			rec.Proton = np + inc
		}
	}

	if !hPresent && !negligible(def.Proton) {
		inc := n1 * def.Proton
		rec.Proton += inc
		if idx := protonSlot(*rec); idx >= 0 {
			rec.Slots[idx].Coef += inc
		} else if e := rec.EmptySlot(); e >= 0 {
			rec.Slots[e] = ir.Slot{Name: "H+", Coef: rec.Proton}
		}
	}
	return nil
}

func slotOf(rec ir.Record, name string) int {
	for i, s := range rec.Slots {
		if !s.IsEmpty() && chem.NameEqual(s.Name, name) {
			return i
		}
	}
	return -1
}

func protonSlot(rec ir.Record) int {
	for i, s := range rec.Slots {
		if !s.IsEmpty() && chem.IsProton(s.Name) {
			return i
		}
	}
	return -1
}
