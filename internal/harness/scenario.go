package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
)

// Scenario defines a search scenario: the inputs of one search and the
// assertions its result must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Components are the selected component formulas.
	Components []string `yaml:"components"`

	// Catalogue lists every component known to the databases.
	Catalogue ir.Catalogue `yaml:"catalogue"`

	Redox RedoxSpec `yaml:"redox,omitempty"`

	// Solids is a solid mode name, e.g. "exclude-cr". Empty includes all.
	Solids string `yaml:"solids,omitempty"`

	ExcludedCouples []string `yaml:"excluded_couples,omitempty"`

	MaxPasses int `yaml:"max_passes,omitempty"`

	// Databases are read in order.
	Databases []DatabaseSpec `yaml:"databases"`

	// Confirm scripts the answers to confirmation prompts. Prompts beyond
	// the script are accepted.
	Confirm []bool `yaml:"confirm,omitempty"`

	// ExpectError is the expected search error kind, e.g. "CANCELLED".
	// Empty means the search must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the search result.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is the fixed run ID. Default: "scenario-run".
	RunID string `yaml:"run_id,omitempty"`
}

// RedoxSpec mirrors search.RedoxFlags.
type RedoxSpec struct {
	Nitrogen   bool `yaml:"nitrogen,omitempty"`
	Sulphur    bool `yaml:"sulphur,omitempty"`
	Phosphorus bool `yaml:"phosphorus,omitempty"`
	Ask        bool `yaml:"ask,omitempty"`
}

// DatabaseSpec is an inline database.
type DatabaseSpec struct {
	Name string `yaml:"name"`

	// Text makes the source report the text encoding, which enables the
	// first-pass record checks.
	Text bool `yaml:"text,omitempty"`

	Records []RecordSpec `yaml:"records"`
}

// RecordSpec is an inline reaction record.
type RecordSpec struct {
	Name       string          `yaml:"name"`
	LogK       float64         `yaml:"logk"`
	DeltaH     *float64        `yaml:"delta_h,omitempty"`
	DeltaCp    *float64        `yaml:"delta_cp,omitempty"`
	Components []ComponentSpec `yaml:"components,omitempty"`
}

// ComponentSpec is one (component, coefficient) pair.
type ComponentSpec struct {
	C string  `yaml:"c"`
	N float64 `yaml:"n"`
}

// Assertion validates the search result.
type Assertion struct {
	// Type specifies the assertion type; see the Assert constants.
	Type string `yaml:"type"`

	// Names are the record or component names (result_contains,
	// result_excludes, discovered).
	Names []string `yaml:"names,omitempty"`

	// Name is the record checked by logk and slot.
	Name string `yaml:"name,omitempty"`

	// Component is the slot checked by slot.
	Component string `yaml:"component,omitempty"`

	// Value is the expected logK (logk) or coefficient (slot).
	Value float64 `yaml:"value,omitempty"`

	// Tolerance bounds |actual - Value|. Default: 1e-6.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Count is the expected number of passes (passes).
	Count int `yaml:"count,omitempty"`

	// Soluble and Solids are the expected record counts (counts).
	Soluble *int `yaml:"soluble,omitempty"`
	Solids  *int `yaml:"solids,omitempty"`
}

// Assertion type constants.
const (
	AssertResultContains = "result_contains"
	AssertResultExcludes = "result_excludes"
	AssertDiscovered     = "discovered"
	AssertPasses         = "passes"
	AssertCounts         = "counts"
	AssertLogK           = "logk"
	AssertSlot           = "slot"
)

// DefaultRunID is the run ID of scenarios that do not set one.
const DefaultRunID = "scenario-run"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Unknown fields are rejected so that typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Options converts the scenario inputs to search options.
func (s *Scenario) Options() (search.Options, error) {
	mode, err := search.ParseSolidMode(s.Solids)
	if err != nil {
		return search.Options{}, err
	}
	dbs := make([]string, len(s.Databases))
	for i, db := range s.Databases {
		dbs[i] = db.Name
	}
	return search.Options{
		Components: s.Components,
		Databases:  dbs,
		Catalogue:  s.Catalogue,
		Redox: search.RedoxFlags{
			Nitrogen:   s.Redox.Nitrogen,
			Sulphur:    s.Redox.Sulphur,
			Phosphorus: s.Redox.Phosphorus,
			Ask:        s.Redox.Ask,
		},
		Solids:          mode,
		ExcludedCouples: s.ExcludedCouples,
		MaxPasses:       s.MaxPasses,
	}, nil
}

// Record builds the record. The proton count is taken from an
// H+ component.
func (r RecordSpec) Record() ir.Record {
	rec := ir.Record{Name: r.Name, LogK: r.LogK}
	if r.DeltaH != nil {
		rec.DeltaH = ir.Some(*r.DeltaH)
	}
	if r.DeltaCp != nil {
		rec.DeltaCp = ir.Some(*r.DeltaCp)
	}
	for i, c := range r.Components {
		rec.Slots[i] = ir.Slot{Name: c.C, Coef: c.N}
		if chem.IsProton(c.C) {
			rec.Proton = c.N
		}
	}
	return rec
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Components) == 0 {
		return fmt.Errorf("components list is required and must be non-empty")
	}
	if len(s.Catalogue) == 0 {
		return fmt.Errorf("catalogue is required and must be non-empty")
	}
	if len(s.Databases) == 0 {
		return fmt.Errorf("databases list is required and must be non-empty")
	}
	if _, err := search.ParseSolidMode(s.Solids); err != nil {
		return fmt.Errorf("solids: %w", err)
	}
	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	seen := make(map[string]bool)
	for i, db := range s.Databases {
		if strings.TrimSpace(db.Name) == "" {
			return fmt.Errorf("databases[%d]: name is required", i)
		}
		if seen[db.Name] {
			return fmt.Errorf("databases[%d]: duplicate name %q", i, db.Name)
		}
		seen[db.Name] = true
		for j, rec := range db.Records {
			if rec.Name == "" {
				return fmt.Errorf("databases[%d].records[%d]: name is required", i, j)
			}
			if len(rec.Components) > ir.NDim {
				return fmt.Errorf("databases[%d].records[%d]: more than %d components", i, j, ir.NDim)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertResultContains, AssertResultExcludes:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for %s", index, a.Type)
		}
	case AssertDiscovered:
		// An empty list asserts that nothing was discovered.
	case AssertPasses:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for passes", index)
		}
	case AssertCounts:
		if a.Soluble == nil && a.Solids == nil {
			return fmt.Errorf("assertions[%d]: soluble or solids is required for counts", index)
		}
	case AssertLogK:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for logk", index)
		}
	case AssertSlot:
		if a.Name == "" || a.Component == "" {
			return fmt.Errorf("assertions[%d]: name and component are required for slot", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}
	return nil
}
