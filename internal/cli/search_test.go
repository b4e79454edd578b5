package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchResponse struct {
	Status string       `json:"status"`
	Data   SearchOutput `json:"data"`
	Error  *CLIError    `json:"error"`
}

func recordNames(recs []RecordOutput) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

// ============================================================================
// Successful searches
// ============================================================================

func TestSearchCommand_RedoxText(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")

	stdout, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes")
	require.NoError(t, err)

	assert.Contains(t, stdout, "(2 passes)")
	assert.Contains(t, stdout, "Components: Fe+2, e-, H+")
	assert.Contains(t, stdout, "Discovered: Fe+3")
	assert.Contains(t, stdout, "Soluble species (3):")
	assert.Contains(t, stdout, "Solids (0):")
	assert.Contains(t, stdout, "-15.210")
	assert.Contains(t, stdout, "Fe+2 + H2O - H+ - e-")
}

func TestSearchCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")

	stdout, _, err := executeCommand(t, "", "--format", "json", "search", "--config", cfg, "--yes")
	require.NoError(t, err)

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, 2, resp.Data.Passes)
	assert.Equal(t, []string{"Fe+3"}, resp.Data.Discovered)
	assert.Equal(t, []string{"Fe+3", "FeOH+", "FeOH+2"}, recordNames(resp.Data.Soluble))
	assert.Empty(t, resp.Data.Solids)
	assert.InDelta(t, -15.21, resp.Data.Soluble[2].LogK, 1e-9)
}

func TestSearchCommand_NonInteractiveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, Fe+3, H+]", "non_interactive: true\n")

	stdout, stderr, err := executeCommand(t, "", "search", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Continue?")
	assert.Contains(t, stderr, "proceeding past warning")
	assert.Contains(t, stdout, "Warning (redox_pair, accepted)")
	assert.Contains(t, stdout, "Soluble species (2):")
}

// ============================================================================
// Confirmation prompts
// ============================================================================

func TestSearchCommand_PromptDeclined(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, Fe+3, H+]", "")

	stdout, stderr, err := executeCommand(t, "n\n", "search", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCancelled, GetExitCode(err))
	assert.Contains(t, stderr, "Continue? [y/N]")
	assert.Contains(t, stdout, "Error [CANCELLED]")
}

func TestSearchCommand_PromptAccepted(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, Fe+3, H+]", "")

	stdout, stderr, err := executeCommand(t, "yes\n", "search", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Continue? [y/N]")
	assert.Contains(t, stdout, "FeOH+2")
}

// ============================================================================
// Failures
// ============================================================================

func TestSearchCommand_MissingConfig(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "search", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E201]")
}

func TestSearchCommand_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[]", "")

	stdout, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E203]")
}

func TestSearchCommand_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "search.yaml", "components: [Fe+2, H+]\ndatabases: [missing.dat]\n"+ironElements)

	stdout, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "SOURCE_UNAVAILABLE")
}

func TestSearchCommand_MalformedDatabase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.dat", "FeOH+, not-a-number, -, -, 1, Fe+2, 1\n")
	cfg := writeFile(t, dir, "search.yaml", "components: [Fe+2, H+]\ndatabases: [bad.dat]\n"+ironElements)

	stdout, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "MALFORMED_RECORD")
}

func TestSearchCommand_RequiresConfigFlag(t *testing.T) {
	_, _, err := executeCommand(t, "", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

// ============================================================================
// Side outputs
// ============================================================================

func TestSearchCommand_StoreAndShow(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")
	storePath := filepath.Join(dir, "runs.sqlite")

	stdout, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "as run 1")

	stdout, _, err = executeCommand(t, "", "show", "--store", storePath, "--verify")
	require.NoError(t, err)
	assert.Contains(t, stdout, "#1, 2 passes")
	assert.Contains(t, stdout, "Discovered: Fe+3")
	assert.Contains(t, stdout, "✓ Run verified")
}

func TestSearchCommand_StoreFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, H+]", "store: runs.sqlite\n")

	_, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "runs.sqlite"))
	assert.NoError(t, err, "the store path is relative to the configuration")
}

func TestSearchCommand_Metrics(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")
	promPath := filepath.Join(dir, "dbsearch.prom")

	_, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes", "--metrics", promPath)
	require.NoError(t, err)

	data, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dbsearch_search_runs_total{status="ok"} 1`)
	assert.Contains(t, string(data), "dbsearch_search_components_discovered_total 1")
}

func TestSearchCommand_Progress(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")

	_, stderr, err := executeCommand(t, "", "search", "--config", cfg, "--yes", "--progress")
	require.NoError(t, err)
	assert.Contains(t, stderr, "pass 1: reading")
	assert.Contains(t, stderr, "iron.dat")
	assert.Contains(t, stderr, "pass 1: discovered Fe+3")
}
