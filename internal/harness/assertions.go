package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
)

// DefaultTolerance bounds numeric assertions that set no tolerance.
const DefaultTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes the result names to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Records  []string // Result record names for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nResult records:\n")
	for i, name := range e.Records {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, name)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against res and returns the
// failure messages.
func EvaluateAssertions(res *search.Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(res, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(res *search.Result, a Assertion) error {
	switch a.Type {
	case AssertResultContains:
		return assertResultContains(res, a)
	case AssertResultExcludes:
		return assertResultExcludes(res, a)
	case AssertDiscovered:
		return assertDiscovered(res, a)
	case AssertPasses:
		return assertPasses(res, a)
	case AssertCounts:
		return assertCounts(res, a)
	case AssertLogK:
		return assertLogK(res, a)
	case AssertSlot:
		return assertSlot(res, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func recordNames(res *search.Result) []string {
	out := make([]string, len(res.Records))
	for i, r := range res.Records {
		out[i] = r.Name
	}
	return out
}

func findRecord(res *search.Result, name string) (ir.Record, bool) {
	for _, r := range res.Records {
		if r.Name == name {
			return r, true
		}
	}
	return ir.Record{}, false
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultTolerance
}

// assertResultContains checks that every named record is in the result.
func assertResultContains(res *search.Result, a Assertion) error {
	names := recordNames(res)
	var missing []string
	for _, n := range a.Names {
		if !slices.Contains(names, n) {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultContains,
		Expected: fmt.Sprintf("records %v", a.Names),
		Actual:   fmt.Sprintf("missing %v", missing),
		Records:  names,
	}
}

// assertResultExcludes checks that no named record is in the result.
func assertResultExcludes(res *search.Result, a Assertion) error {
	names := recordNames(res)
	var present []string
	for _, n := range a.Names {
		if slices.Contains(names, n) {
			present = append(present, n)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultExcludes,
		Expected: fmt.Sprintf("no records %v", a.Names),
		Actual:   fmt.Sprintf("present %v", present),
		Records:  names,
	}
}

// assertDiscovered checks the discovered components and their order.
func assertDiscovered(res *search.Result, a Assertion) error {
	got := res.DiscoveredNames()
	if slices.Equal(got, a.Names) || (len(got) == 0 && len(a.Names) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDiscovered,
		Expected: fmt.Sprintf("discovered %v", a.Names),
		Actual:   fmt.Sprintf("discovered %v", got),
		Records:  recordNames(res),
	}
}

func assertPasses(res *search.Result, a Assertion) error {
	if res.Passes == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPasses,
		Expected: fmt.Sprintf("%d passes", a.Count),
		Actual:   fmt.Sprintf("%d passes", res.Passes),
		Records:  recordNames(res),
	}
}

func assertCounts(res *search.Result, a Assertion) error {
	if (a.Soluble == nil || *a.Soluble == res.NX) && (a.Solids == nil || *a.Solids == res.NF) {
		return nil
	}
	expected := make([]string, 0, 2)
	if a.Soluble != nil {
		expected = append(expected, fmt.Sprintf("%d soluble", *a.Soluble))
	}
	if a.Solids != nil {
		expected = append(expected, fmt.Sprintf("%d solid", *a.Solids))
	}
	return &AssertionError{
		Type:     AssertCounts,
		Expected: strings.Join(expected, ", "),
		Actual:   fmt.Sprintf("%d soluble, %d solid", res.NX, res.NF),
		Records:  recordNames(res),
	}
}

func assertLogK(res *search.Result, a Assertion) error {
	rec, ok := findRecord(res, a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertLogK,
			Expected: fmt.Sprintf("record %s with logK %g", a.Name, a.Value),
			Actual:   "record not in result",
			Records:  recordNames(res),
		}
	}
	if math.Abs(rec.LogK-a.Value) <= tolerance(a) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogK,
		Expected: fmt.Sprintf("%s logK %g", a.Name, a.Value),
		Actual:   fmt.Sprintf("%s logK %g", a.Name, rec.LogK),
		Records:  recordNames(res),
	}
}

// assertSlot checks the summed coefficient of one component. A zero value
// asserts that the component is absent.
func assertSlot(res *search.Result, a Assertion) error {
	rec, ok := findRecord(res, a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertSlot,
			Expected: fmt.Sprintf("record %s with %g %s", a.Name, a.Value, a.Component),
			Actual:   "record not in result",
			Records:  recordNames(res),
		}
	}
	var got float64
	for _, s := range rec.Components() {
		if s.Name == a.Component {
			got += s.Coef
		}
	}
	if math.Abs(got-a.Value) <= tolerance(a) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSlot,
		Expected: fmt.Sprintf("%s has %g %s", a.Name, a.Value, a.Component),
		Actual:   fmt.Sprintf("%s has %g %s", a.Name, got, a.Component),
		Records:  recordNames(res),
	}
}
