package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"iron_redox", "iron_nonredox"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRenderTrace(t *testing.T) {
	got := RenderTrace("demo", []TraceEvent{
		{Kind: "pass_started", Pass: 1, Message: "Fe+2, H+"},
		{Kind: "record_accepted", Pass: 1, File: "main.db", Ordinal: 3, Name: "FeOH+"},
		{Kind: "search_finished"},
	})

	want := "scenario: demo\n" +
		"pass_started pass=1 message=\"Fe+2, H+\"\n" +
		"record_accepted pass=1 file=main.db ordinal=3 name=FeOH+\n" +
		"search_finished\n"
	assert.Equal(t, want, string(got))
}

func TestRenderTrace_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "iron_redox")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, RenderTrace(s.Name, first.Trace), RenderTrace(s.Name, second.Trace))
}
