package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/harness"
)

const passingScenario = `name: iron_basic
components: [Fe+2, H+]
catalogue:
  - { element: Fe, formula: Fe+2 }
  - { element: H, formula: H+ }
databases:
  - name: main.db
    records:
      - name: FeOH+
        logk: -9.5
        components: [{ c: Fe+2, n: 1 }, { c: H2O, n: 1 }, { c: H+, n: -1 }]
assertions:
  - type: result_contains
    names: [FeOH+]
  - type: passes
    count: 1
`

const failingScenario = `name: iron_wrong
components: [Fe+2, H+]
catalogue:
  - { element: Fe, formula: Fe+2 }
  - { element: H, formula: H+ }
databases:
  - name: main.db
    records:
      - name: FeOH+
        logk: -9.5
        components: [{ c: Fe+2, n: 1 }, { c: H2O, n: 1 }, { c: H+, n: -1 }]
assertions:
  - type: result_excludes
    names: [FeOH+]
`

// scenarioDir writes the named scenarios into a new directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scenarios {
		writeFile(t, dir, name, content)
	}
	return dir
}

// ============================================================================
// Arguments
// ============================================================================

func TestTestCommand_MissingArgs(t *testing.T) {
	_, _, err := executeCommand(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_NonExistentDir(t *testing.T) {
	_, _, err := executeCommand(t, "", "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := executeCommand(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")

	stdout, _, err = executeCommand(t, "", "--format", "json", "test", dir)
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

// ============================================================================
// Running scenarios
// ============================================================================

func TestTestCommand_Passing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"iron_basic.yaml": passingScenario})

	stdout, _, err := executeCommand(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ iron_basic")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommand_FailingAssertion(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"iron_basic.yaml": passingScenario,
		"iron_wrong.yaml": failingScenario,
	})

	stdout, _, err := executeCommand(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ iron_wrong")
	assert.Contains(t, stdout, "result_excludes")
	assert.Contains(t, stdout, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_FailingJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"iron_wrong.yaml": failingScenario})

	stdout, _, err := executeCommand(t, "", "--format", "json", "test", dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommand_InvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\n"})

	stdout, _, err := executeCommand(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"iron_basic.yaml": passingScenario,
		"iron_wrong.yaml": failingScenario,
	})

	stdout, _, err := executeCommand(t, "", "test", dir, "--filter", "*_basic")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, stdout, "iron_wrong")
}

// ============================================================================
// Golden traces
// ============================================================================

func TestTestCommand_UpdateWritesGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"iron_basic.yaml": passingScenario})

	_, _, err := executeCommand(t, "", "test", dir, "--update")
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "iron_basic.golden"))
	require.NoError(t, err)

	scenario, err := harness.ParseScenario([]byte(passingScenario))
	require.NoError(t, err)
	result, err := harness.Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, string(harness.RenderTrace(scenario.Name, result.Trace)), string(golden))

	// The golden file now gates the next run.
	_, _, err = executeCommand(t, "", "test", dir)
	require.NoError(t, err)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"iron_basic.yaml": passingScenario})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "iron_basic.golden", "scenario: iron_basic\n")

	stdout, _, err := executeCommand(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestFindScenarioFiles_SkipsGoldenDir(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"a.yaml": passingScenario, "notes.txt": "x"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "b.yaml", passingScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, files)
}
