package search

import (
	"fmt"
	"strings"

	"github.com/roach88/dbsearch/internal/ir"
)

// SolidMode selects which solid classes are dropped from the result.
type SolidMode int

const (
	IncludeAllSolids SolidMode = iota
	ExcludeCrSolids
	ExcludeCSolids
	ExcludeCrAndCSolids
)

var solidModeNames = []string{"include-all", "exclude-cr", "exclude-c", "exclude-both"}

func (m SolidMode) String() string {
	if m < 0 || int(m) >= len(solidModeNames) {
		return fmt.Sprintf("SolidMode(%d)", int(m))
	}
	return solidModeNames[m]
}

// Valid reports whether m is one of the four modes.
func (m SolidMode) Valid() bool {
	return m >= IncludeAllSolids && m <= ExcludeCrAndCSolids
}

// ParseSolidMode parses the string form of a SolidMode.
// The empty string means IncludeAllSolids.
func ParseSolidMode(s string) (SolidMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return IncludeAllSolids, nil
	}
	for i, name := range solidModeNames {
		if s == name {
			return SolidMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown solid mode %q (want one of %s)", s, strings.Join(solidModeNames, ", "))
}

// annotation is the user-visible note attached to a dropped solid.
func (m SolidMode) annotation() string {
	switch m {
	case ExcludeCrSolids:
		return "(cr) solids excluded!"
	case ExcludeCSolids:
		return "(c) solids excluded!"
	case ExcludeCrAndCSolids:
		return "(cr) & (c) solids excluded!"
	}
	return ""
}

// RedoxFlags control redox discovery for nitrogen, sulphur and phosphorus.
// A false flag keeps the other components of that element out of the
// candidate list, so e.g. NO3- is never discovered from NH4+.
type RedoxFlags struct {
	Nitrogen   bool
	Sulphur    bool
	Phosphorus bool
	// Ask makes the flags apply to the selection warnings only when "e-" is
	// selected.
	Ask bool
}

// allows reports whether redox discovery is permitted for element.
func (f RedoxFlags) allows(element string) bool {
	switch element {
	case "N":
		return f.Nitrogen
	case "S":
		return f.Sulphur
	case "P":
		return f.Phosphorus
	}
	return true
}

// Options configure one search.
type Options struct {
	// Components are the user-selected component formulas, e.g. Fe+2, H+, e-.
	Components []string
	// Databases are read in order; later databases override earlier ones.
	Databases []string
	// Catalogue lists every component known to the databases.
	Catalogue ir.Catalogue
	Redox     RedoxFlags
	Solids    SolidMode
	// ExcludedCouples are components never to be discovered as redox
	// products, e.g. SO4-2 when only HS- should be considered.
	ExcludedCouples []string
	// MaxPasses bounds the number of scanning passes. Zero means the
	// catalogue size plus one, which no terminating search can exceed.
	MaxPasses int
}

// Validate checks the options and returns a configuration *Error.
func (o Options) Validate() error {
	if len(o.Components) == 0 {
		return configError("no components selected")
	}
	for i, c := range o.Components {
		if strings.TrimSpace(c) == "" {
			return configError("component %d is empty", i+1)
		}
	}
	if len(o.Databases) == 0 {
		return configError("no databases given")
	}
	for i, db := range o.Databases {
		if strings.TrimSpace(db) == "" {
			return configError("database %d has an empty name", i+1)
		}
	}
	if !o.Solids.Valid() {
		return configError("invalid solid mode %d", int(o.Solids))
	}
	if o.MaxPasses < 0 {
		return configError("max passes must not be negative, got %d", o.MaxPasses)
	}
	return nil
}

func (o Options) passLimit() int {
	if o.MaxPasses > 0 {
		return o.MaxPasses
	}
	return len(o.Catalogue) + 1
}
