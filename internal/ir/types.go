package ir

import (
	"encoding/json"
	"math"
	"strings"
)

// NDim is the number of component slots carried by every record.
const NDim = 7

// WithdrawalSigil prefixes the name of a record that withdraws an earlier
// record of the same name from the result set.
const WithdrawalSigil = "@"

// Slot is one (component, coefficient) pair of a reaction.
// The zero Slot is empty.
type Slot struct {
	Name string  `json:"name"`
	Coef float64 `json:"coef"`
}

// IsEmpty reports whether the slot carries no component.
func (s Slot) IsEmpty() bool {
	return strings.TrimSpace(s.Name) == ""
}

// Optional is a thermodynamic value that may be absent.
// A NaN value is treated as absent.
type Optional struct {
	Value float64
	Set   bool
}

// Some returns a present Optional holding v.
func Some(v float64) Optional {
	return Optional{Value: v, Set: true}
}

// None returns an absent Optional.
func None() Optional {
	return Optional{}
}

// Valid reports whether the value is present and not NaN.
func (o Optional) Valid() bool {
	return o.Set && !math.IsNaN(o.Value)
}

// Get returns the value and whether it is valid.
func (o Optional) Get() (float64, bool) {
	if !o.Valid() {
		return 0, false
	}
	return o.Value, true
}

// MarshalJSON encodes an absent value as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null as absent.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Record is one formation reaction from a reaction database.
//
// The reaction forms Name from the components in Slots; LogK is the log10
// equilibrium constant. Proton is the number of H+ consumed, kept separately
// from the slots by some database encodings.
type Record struct {
	Name      string     `json:"name"`
	Slots     [NDim]Slot `json:"slots"`
	LogK      float64    `json:"log_k"`
	DeltaH    Optional   `json:"delta_h"`
	DeltaCp   Optional   `json:"delta_cp"`
	Proton    float64    `json:"proton"`
	Reference string     `json:"reference,omitempty"`
}

// IsWithdrawal reports whether the record withdraws an earlier definition.
func (r Record) IsWithdrawal() bool {
	return strings.HasPrefix(strings.TrimSpace(r.Name), WithdrawalSigil)
}

// WithdrawalTarget returns the name with the withdrawal sigil removed.
// For ordinary records it returns the name unchanged.
func (r Record) WithdrawalTarget() string {
	name := strings.TrimSpace(r.Name)
	return strings.TrimSpace(strings.TrimPrefix(name, WithdrawalSigil))
}

// Clone returns a copy of the record. Records contain no reference types,
// so this is a plain value copy.
func (r Record) Clone() Record {
	return r
}

// Components returns the non-empty slots in slot order.
func (r Record) Components() []Slot {
	out := make([]Slot, 0, NDim)
	for _, s := range r.Slots {
		if !s.IsEmpty() {
			out = append(out, s)
		}
	}
	return out
}

// EmptySlot returns the index of the first empty slot, or -1 if all slots
// are occupied.
func (r Record) EmptySlot() int {
	for i, s := range r.Slots {
		if s.IsEmpty() {
			return i
		}
	}
	return -1
}

// CatalogueEntry is one component known to the chemical catalogue.
// Element is the chemical element the component carries and Formula its
// formula, e.g. {Element: "Fe", Formula: "Fe+3"}.
type CatalogueEntry struct {
	Element string `json:"element" yaml:"element"`
	Formula string `json:"formula" yaml:"formula"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Catalogue is the ordered list of known components. Order is preserved;
// lookups are linear scans.
type Catalogue []CatalogueEntry
