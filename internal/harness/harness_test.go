package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_TestdataScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_IronRedoxResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "iron_redox"))
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Search)

	assert.Equal(t, DefaultRunID, result.Search.RunID)
	assert.Equal(t, "search_finished", result.Trace[len(result.Trace)-1].Kind)
	for _, ev := range result.Trace {
		assert.NotEqual(t, "progress", ev.Kind, "progress events are not traced")
	}
}

func TestRun_FailingAssertion(t *testing.T) {
	s := loadTestScenario(t, "iron_redox")
	s.Assertions = []Assertion{{Type: AssertPasses, Count: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2 passes")
}

func TestRun_ExpectedError(t *testing.T) {
	s := loadTestScenario(t, "declined_warning")
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.Search)
	assert.Error(t, result.Err)

	s.ExpectError = "MALFORMED_RECORD"
	result, err = Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error MALFORMED_RECORD, got CANCELLED")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := loadTestScenario(t, "declined_warning")
	s.ExpectError = ""

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "search failed")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := loadTestScenario(t, "iron_nonredox")
	s.ExpectError = "CANCELLED"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "search succeeded")
}

func TestRun_InvalidOptions(t *testing.T) {
	s := loadTestScenario(t, "iron_nonredox")
	s.Solids = "sometimes"

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario iron_nonredox")
}
