package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsearch/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Store  string
	RunID  string
	List   bool
	Verify bool
}

// ShowOutput is a stored run as printed by the show command.
type ShowOutput struct {
	RunID      string         `json:"run_id"`
	Seq        int64          `json:"seq"`
	Components []string       `json:"components"`
	Databases  []string       `json:"databases"`
	Solids     string         `json:"solids"`
	Passes     int            `json:"passes"`
	Discovered []string       `json:"discovered"`
	Soluble    []RecordOutput `json:"soluble"`
	SolidRecs  []RecordOutput `json:"solid_records"`
	ResultHash string         `json:"result_hash"`
	Verified   bool           `json:"verified,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show runs saved by search",
		Long: `Show a run saved by "dbsearch search --store". Without --run the latest
run is shown. --verify recomputes the record hashes of the run.

Exit codes:
  0 - Run shown
  1 - Run failed verification
  2 - Store or run not found

Examples:
  dbsearch show --store runs.sqlite
  dbsearch show --store runs.sqlite --list
  dbsearch show --store runs.sqlite --run 0190a3c4-... --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "path to the run store (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID (default: latest run)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list every stored run")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify the run's record hashes")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	// Opening a missing path would create an empty store.
	if _, err := os.Stat(opts.Store); err != nil {
		if outErr := formatter.Error(ErrCodeStore, fmt.Sprintf("store not found: %s", opts.Store), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "store not found", err)
	}
	st, err := store.Open(opts.Store, store.WithLogger(logger))
	if err != nil {
		return storeFailure(formatter, ExitCommandError, "cannot open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.List {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return storeFailure(formatter, ExitFailure, "cannot list runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs stored.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(formatter.Writer, "%3d  %s  %d passes  %d soluble  %d solid  [%s]\n",
				r.Seq, r.ID, r.Passes, r.NX, r.NF, strings.Join(r.Components, ", "))
		}
		return nil
	}

	var run store.Run
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if err != nil {
		return storeFailure(formatter, ExitCommandError, "cannot read run", err)
	}

	out := ShowOutput{
		RunID:      run.ID,
		Seq:        run.Seq,
		Components: run.Components,
		Databases:  run.Databases,
		Solids:     run.Solids,
		Passes:     run.Passes,
		Soluble:    recordOutputs(run.Soluble()),
		SolidRecs:  recordOutputs(run.Solids()),
		ResultHash: run.ResultHash,
	}
	out.Discovered = make([]string, len(run.Discovered))
	for i, d := range run.Discovered {
		out.Discovered[i] = d.Name
	}

	if opts.Verify {
		if err := st.VerifyRun(ctx, run.ID); err != nil {
			return storeFailure(formatter, ExitFailure, "verification failed", err)
		}
		out.Verified = true
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	printShowText(formatter, out)
	return nil
}

// storeFailure reports a store error with the code matching its cause.
func storeFailure(f *OutputFormatter, exitCode int, message string, err error) error {
	code := ErrCodeStore
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = ErrCodeRunNotFound
	case store.IsIntegrityError(err):
		code = ErrCodeIntegrity
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode, message, err)
}

func printShowText(f *OutputFormatter, out ShowOutput) {
	w := f.Writer
	fmt.Fprintf(w, "Run %s (#%d, %d %s)\n", out.RunID, out.Seq, out.Passes, plural(out.Passes, "pass", "passes"))
	fmt.Fprintf(w, "Components: %s\n", strings.Join(out.Components, ", "))
	fmt.Fprintf(w, "Databases: %s\n", strings.Join(out.Databases, ", "))
	fmt.Fprintf(w, "Solids: %s\n", out.Solids)
	if len(out.Discovered) > 0 {
		fmt.Fprintf(w, "Discovered: %s\n", strings.Join(out.Discovered, ", "))
	}
	printRecords(f, "Soluble species", out.Soluble)
	printRecords(f, "Solids", out.SolidRecs)
	fmt.Fprintf(w, "Result hash: %s\n", out.ResultHash)
	if out.Verified {
		fmt.Fprintln(w, "✓ Run verified")
	}
}
