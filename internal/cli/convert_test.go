package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/ir"
)

func readAll(t *testing.T, path string) []ir.Record {
	t.Helper()
	src, err := dbfile.Open(path)
	require.NoError(t, err)
	defer src.Close()

	var out []ir.Record
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestConvertCommand_TextToBinaryAndBack(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "iron.dat", ironDatabase)
	binary := filepath.Join(dir, "iron.db")
	back := filepath.Join(dir, "iron.txt")

	stdout, _, err := executeCommand(t, "", "convert", text, binary)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Converted 3 records")
	assert.Contains(t, stdout, "(text) -> "+binary+" (binary")

	_, _, err = executeCommand(t, "", "convert", binary, back)
	require.NoError(t, err)

	assert.Equal(t, readAll(t, text), readAll(t, back))
}

func TestConvertCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "iron.dat", ironDatabase)
	binary := filepath.Join(dir, "iron.db")

	stdout, _, err := executeCommand(t, "", "--format", "json", "convert", text, binary)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ConvertOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 3, resp.Data.Records)
	assert.Equal(t, "binary", resp.Data.OutputEncoding)
	assert.Positive(t, resp.Data.Size)
}

func TestConvertCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, _, err := executeCommand(t, "", "convert", filepath.Join(dir, "nope.dat"), filepath.Join(dir, "out.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConvertCommand_MalformedInputLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.dat", ironDatabase+"Broken, x, -, -, 0\n")
	out := filepath.Join(dir, "out.db")

	stdout, _, err := executeCommand(t, "", "convert", bad, out)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E401]")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertCommand_Args(t *testing.T) {
	_, _, err := executeCommand(t, "", "convert", "only-one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}
