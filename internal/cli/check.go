package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/dbsearch/internal/config"
	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/search"
)

// DatabaseInfo describes one configured database.
type DatabaseInfo struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	// Records is estimated from the size without reading the file.
	Records int `json:"estimated_records"`
}

// CheckOutput is the result of the check command.
type CheckOutput struct {
	Valid      bool            `json:"valid"`
	Components []string        `json:"components"`
	Catalogue  int             `json:"catalogue_entries"`
	Solids     string          `json:"solids"`
	Databases  []DatabaseInfo  `json:"databases"`
	Warnings   []WarningOutput `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration without searching",
		Long: `Validate a search configuration and its catalogue, check that every
database exists, and report the redox pair warnings the selection would
raise. Nothing is asked and no database is read.

Exit codes:
  0 - Configuration valid
  1 - A database is missing
  2 - Invalid configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, configPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to search configuration (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCheck(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid configuration", err)
	}
	searchOpts, err := cfg.Options()
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid configuration", err)
	}

	out := CheckOutput{
		Valid:      true,
		Components: searchOpts.Components,
		Catalogue:  len(searchOpts.Catalogue),
		Solids:     searchOpts.Solids.String(),
	}

	var missing []string
	for _, path := range searchOpts.Databases {
		info := DatabaseInfo{Path: path, Encoding: dbfile.EncodingFor(path).String()}
		if st, err := os.Stat(path); err == nil {
			info.Exists = true
			info.Size = st.Size()
			info.Records = dbfile.EstimateRecords(st.Size(), dbfile.EncodingFor(path))
		} else {
			missing = append(missing, path)
		}
		out.Databases = append(out.Databases, info)
	}

	// Report every warning; the check never stops at one.
	_, warnings := search.CheckConsistency(context.Background(), searchOpts.Components,
		searchOpts.Catalogue, searchOpts.Redox, search.AutoConfirm{})
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, WarningOutput{Kind: string(w.Kind), Message: w.Message, Names: w.Names, Proceed: true})
	}

	if len(missing) > 0 {
		out.Valid = false
		if opts.Format == "json" {
			if err := formatter.Error(ErrCodeGeneric, "missing databases: "+strings.Join(missing, ", "), out); err != nil {
				return err
			}
		} else {
			printCheckText(formatter, out)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d database(s) missing", len(missing)))
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	printCheckText(formatter, out)
	return nil
}

func printCheckText(f *OutputFormatter, out CheckOutput) {
	w := f.Writer
	fmt.Fprintf(w, "Components: %s\n", strings.Join(out.Components, ", "))
	fmt.Fprintf(w, "Catalogue: %d entries\n", out.Catalogue)
	fmt.Fprintf(w, "Solids: %s\n", out.Solids)
	fmt.Fprintln(w, "Databases:")
	for _, db := range out.Databases {
		if !db.Exists {
			fmt.Fprintf(w, "  ✗ %s (missing)\n", db.Path)
			continue
		}
		fmt.Fprintf(w, "  ✓ %s (%s, %s, ~%s records)\n",
			db.Path, db.Encoding, humanize.Bytes(uint64(db.Size)), humanize.Comma(int64(db.Records)))
	}
	for _, warn := range out.Warnings {
		fmt.Fprintf(w, "Warning (%s): %s\n", warn.Kind, firstLine(warn.Message))
	}
	if out.Valid {
		fmt.Fprintln(w, "✓ Configuration valid")
	}
}
