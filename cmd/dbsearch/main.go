// Command dbsearch searches reaction databases for every species that can
// be formed from a set of chemical components.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dbsearch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dbsearch: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
