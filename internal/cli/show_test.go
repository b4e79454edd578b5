package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/store"
)

// searchIntoStore runs two searches into a new store and returns its path.
func searchIntoStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "runs.sqlite")

	cfg := writeIronConfig(t, dir, "[Fe+2, H+]", "")
	_, _, err := executeCommand(t, "", "search", "--config", cfg, "--yes", "--store", storePath)
	require.NoError(t, err)

	cfg = writeIronConfig(t, dir, "[Fe+2, e-, H+]", "")
	_, _, err = executeCommand(t, "", "search", "--config", cfg, "--yes", "--store", storePath)
	require.NoError(t, err)
	return storePath
}

func TestShowCommand_List(t *testing.T) {
	storePath := searchIntoStore(t)

	stdout, _, err := executeCommand(t, "", "show", "--store", storePath, "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "  1  ")
	assert.Contains(t, stdout, "  2  ")
	assert.Contains(t, stdout, "[Fe+2, e-, H+, Fe+3]")
}

func TestShowCommand_ByRunID(t *testing.T) {
	storePath := searchIntoStore(t)

	st, err := store.Open(storePath)
	require.NoError(t, err)
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, runs, 2)

	stdout, _, err := executeCommand(t, "", "--format", "json", "show", "--store", storePath, "--run", runs[0].ID)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ShowOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, runs[0].ID, resp.Data.RunID)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.Equal(t, 1, resp.Data.Passes)
	assert.Equal(t, []string{"Fe+2", "H+"}, resp.Data.Components)
	require.Len(t, resp.Data.Soluble, 1)
	assert.Equal(t, "FeOH+", resp.Data.Soluble[0].Name)
	assert.Empty(t, resp.Data.Discovered)
}

func TestShowCommand_Latest(t *testing.T) {
	storePath := searchIntoStore(t)

	stdout, _, err := executeCommand(t, "", "show", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "#2, 2 passes")
	assert.Contains(t, stdout, "Result hash: ")
}

func TestShowCommand_UnknownRun(t *testing.T) {
	storePath := searchIntoStore(t)

	stdout, _, err := executeCommand(t, "", "show", "--store", storePath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E302]")
}

func TestShowCommand_EmptyStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "runs.sqlite")
	st, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := executeCommand(t, "", "show", "--store", storePath, "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs stored.")

	_, _, err = executeCommand(t, "", "show", "--store", storePath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowCommand_MissingStore(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "show", "--store", filepath.Join(t.TempDir(), "nope.sqlite"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "store not found")
}

func TestShowCommand_VerifyDetectsTampering(t *testing.T) {
	storePath := searchIntoStore(t)

	st, err := store.Open(storePath)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE results SET record = replace(record, '-9.5', '-9.4') WHERE name = 'FeOH+'`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := executeCommand(t, "", "show", "--store", storePath, "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E303]")
}
