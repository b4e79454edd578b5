package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a trace as one line per event:
//
//	record_accepted pass=1 file=main.db ordinal=1 name=Fe+3
//
// Zero fields are omitted and messages are quoted.
func RenderTrace(scenarioName string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	for _, ev := range trace {
		b.WriteString(ev.Kind)
		if ev.Pass != 0 {
			fmt.Fprintf(&b, " pass=%d", ev.Pass)
		}
		if ev.File != "" {
			fmt.Fprintf(&b, " file=%s", ev.File)
		}
		if ev.Ordinal != 0 {
			fmt.Fprintf(&b, " ordinal=%d", ev.Ordinal)
		}
		if ev.Name != "" {
			fmt.Fprintf(&b, " name=%s", ev.Name)
		}
		if ev.Message != "" {
			fmt.Fprintf(&b, " message=%q", ev.Message)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be run.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderTrace(scenarioName, result.Trace))
}
