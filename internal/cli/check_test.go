package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "solids: exclude-cr\n")

	stdout, _, err := executeCommand(t, "", "check", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Catalogue: 4 entries")
	assert.Contains(t, stdout, "Solids: exclude-cr")
	assert.Contains(t, stdout, "iron.dat (text,")
	assert.Contains(t, stdout, "✓ Configuration valid")
}

func TestCheckCommand_ReportsWarningsWithoutAsking(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, Fe+3, H+]", "")

	stdout, stderr, err := executeCommand(t, "", "check", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Continue?")
	assert.Contains(t, stdout, "Warning (redox_pair)")
}

func TestCheckCommand_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "search.yaml", "components: [Fe+2]\ndatabases: [missing.dat]\n"+ironElements)

	stdout, _, err := executeCommand(t, "", "check", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "missing.dat (missing)")
	assert.NotContains(t, stdout, "Configuration valid")
}

func TestCheckCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg := writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")

	stdout, _, err := executeCommand(t, "", "--format", "json", "check", "--config", cfg)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Databases, 1)
	assert.True(t, resp.Data.Databases[0].Exists)
	assert.Equal(t, "text", resp.Data.Databases[0].Encoding)
	assert.Equal(t, int64(len(ironDatabase)), resp.Data.Databases[0].Size)
	assert.Positive(t, resp.Data.Databases[0].Records)
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "search.yaml", "components: [Fe+2]\ndatabases: [a.dat]\nsolids: sometimes\n"+ironElements)

	stdout, _, err := executeCommand(t, "", "check", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E20")
}
