package testutil

import (
	"fmt"
	"math"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// Rec builds a record from alternating component names and coefficients:
//
//	Rec("FeOH+", -9.5, "Fe+2", 1, "H2O", 1, "H+", -1)
//
// The proton count is taken from an H+ component, as in text databases.
// Panics on malformed arguments; use only in tests.
func Rec(name string, logK float64, comps ...any) ir.Record {
	if len(comps)%2 != 0 {
		panic(fmt.Sprintf("Rec(%q): odd number of component arguments", name))
	}
	if len(comps)/2 > ir.NDim {
		panic(fmt.Sprintf("Rec(%q): more than %d components", name, ir.NDim))
	}
	rec := ir.Record{Name: name, LogK: logK}
	for i := 0; i < len(comps); i += 2 {
		c, ok := comps[i].(string)
		if !ok {
			panic(fmt.Sprintf("Rec(%q): component %d is %T, want string", name, i/2+1, comps[i]))
		}
		coef := toFloat(comps[i+1])
		rec.Slots[i/2] = ir.Slot{Name: c, Coef: coef}
		if chem.IsProton(c) {
			rec.Proton = coef
		}
	}
	return rec
}

// WithThermo sets deltaH and deltaCp on rec. NaN leaves a value unset.
func WithThermo(rec ir.Record, deltaH, deltaCp float64) ir.Record {
	if !math.IsNaN(deltaH) {
		rec.DeltaH = ir.Some(deltaH)
	}
	if !math.IsNaN(deltaCp) {
		rec.DeltaCp = ir.Some(deltaCp)
	}
	return rec
}

// Withdraw builds a withdrawal record for name.
func Withdraw(name string) ir.Record {
	return ir.Record{Name: ir.WithdrawalSigil + name}
}

// Names returns the names of records in order.
func Names(recs []ir.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

// IronCatalogue is a small catalogue covering the iron examples.
func IronCatalogue() ir.Catalogue {
	return ir.Catalogue{
		{Element: "Fe", Formula: "Fe+2", Name: "iron(II)"},
		{Element: "Fe", Formula: "Fe+3", Name: "iron(III)"},
		{Element: "H", Formula: "H+", Name: "proton"},
		{Element: "e", Formula: "e-", Name: "electron"},
		{Element: "Cl", Formula: "Cl-", Name: "chloride"},
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		panic(fmt.Sprintf("coefficient %v is %T, want number", v, v))
	}
}
