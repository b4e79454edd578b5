package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ironDatabase is a text database with one redox couple.
const ironDatabase = "Fe+3, -13.02, -, -, 2, Fe+2, 1, e-, -1\n" +
	"FeOH+2, -2.19, -, -, 3, Fe+3, 1, H2O, 1, H+, -1\n" +
	"FeOH+, -9.5, 42.7, -, 3, Fe+2, 1, H2O, 1, H+, -1\n"

const ironElements = `elements:
  - { element: Fe, formula: Fe+2 }
  - { element: Fe, formula: Fe+3 }
  - { element: H, formula: H+ }
  - { element: e, formula: e- }
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeIronConfig writes iron.dat and a configuration selecting components.
// It returns the configuration path.
func writeIronConfig(t *testing.T, dir string, components string, extra string) string {
	t.Helper()
	writeFile(t, dir, "iron.dat", ironDatabase)
	return writeFile(t, dir, "search.yaml",
		"components: "+components+"\n"+
			"databases: [iron.dat]\n"+
			ironElements+extra)
}

// executeCommand runs the root command with args and stdin.
func executeCommand(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
