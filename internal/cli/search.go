package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/dbsearch/internal/config"
	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/metrics"
	"github.com/roach88/dbsearch/internal/search"
	"github.com/roach88/dbsearch/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Config   string
	Store    string
	Yes      bool
	Progress bool
	Metrics  string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to search.UUIDv7Generator.
	RunIDs search.RunIDGenerator
}

// RecordOutput is one record of a search result.
type RecordOutput struct {
	Name     string  `json:"name"`
	LogK     float64 `json:"log_k"`
	Reaction string  `json:"reaction"`
}

// WarningOutput is one warning raised during a search.
type WarningOutput struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Names   []string `json:"names,omitempty"`
	Proceed bool     `json:"proceed"`
}

// SearchOutput is the result of the search command.
type SearchOutput struct {
	RunID          string          `json:"run_id"`
	Passes         int             `json:"passes"`
	Components     []string        `json:"components"`
	Discovered     []string        `json:"discovered"`
	Soluble        []RecordOutput  `json:"soluble"`
	Solids         []RecordOutput  `json:"solids"`
	ExcludedSolids []string        `json:"excluded_solids,omitempty"`
	Warnings       []WarningOutput `json:"warnings,omitempty"`
	StoredSeq      int64           `json:"stored_seq,omitempty"`
	Store          string          `json:"store,omitempty"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the databases for species formed by the components",
		Long: `Search the configured databases for every species whose reaction uses
only the selected components. When e- is selected, redox products of the
selected components are added as components until nothing new is found,
and every record is rewritten in terms of the original components.

Warnings are confirmed on stdin unless --yes is given or the configuration
sets non_interactive.

Exit codes:
  0 - Search completed
  1 - Malformed database record or internal failure
  2 - Invalid configuration or unreadable database
  3 - Search cancelled

Examples:
  dbsearch search --config iron.yaml
  dbsearch search --config iron.yaml --store runs.sqlite --yes
  dbsearch search --config iron.yaml --format json --metrics dbsearch.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to search configuration (required)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite file to save the run to (overrides the configuration)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "proceed past every warning without asking")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "print progress to stderr")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write Prometheus metrics to this textfile")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid configuration", err)
	}
	searchOpts, err := cfg.Options()
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid configuration", err)
	}
	formatter.VerboseLog("Loaded %s: %d components, %d databases, %d catalogue entries",
		opts.Config, len(searchOpts.Components), len(searchOpts.Databases), len(searchOpts.Catalogue))

	var confirmer search.Confirmer = NewPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	if opts.Yes || cfg.NonInteractive {
		confirmer = autoConfirmer(logger)
	}

	var sinks search.MultiSink
	if opts.Progress {
		sinks = append(sinks, newProgressSink(cmd.ErrOrStderr()))
	}
	var reg *prometheus.Registry
	var m *metrics.Metrics
	if opts.Metrics != "" {
		reg = prometheus.NewRegistry()
		if m, err = metrics.New(reg); err != nil {
			return fail(formatter, ExitFailure, "cannot register metrics", err)
		}
		sinks = append(sinks, m)
	}

	engineOpts := []search.EngineOption{
		search.WithConfirmer(confirmer),
		search.WithSink(sinks),
		search.WithLogger(logger),
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, search.WithRunIDGenerator(opts.RunIDs))
	}
	eng := search.New(engineOpts...)

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	start := time.Now()
	res, searchErr := eng.Search(ctx, searchOpts)
	if m != nil {
		m.ObserveSearch(res, searchErr, time.Since(start))
		if err := metrics.WriteTextfile(opts.Metrics, reg); err != nil {
			logger.Error("cannot write metrics", "path", opts.Metrics, "error", err)
		}
	}
	if searchErr != nil {
		return fail(formatter, searchExitCode(searchErr), "search failed", searchErr)
	}
	formatter.VerboseLog("Search finished in %s", time.Since(start).Round(time.Millisecond))

	out := newSearchOutput(res)

	storePath := opts.Store
	if storePath == "" {
		storePath = cfg.Store
	}
	if storePath != "" {
		saved, err := saveRun(ctx, storePath, logger, store.FromResult(res, searchOpts))
		if err != nil {
			return fail(formatter, ExitFailure, "cannot save run", err)
		}
		out.Store = storePath
		out.StoredSeq = saved.Seq
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	printSearchText(formatter, out)
	return nil
}

// autoConfirmer proceeds past every warning and logs it.
func autoConfirmer(logger *slog.Logger) search.Confirmer {
	return search.ConfirmFunc(func(_ context.Context, message string) bool {
		logger.Warn("proceeding past warning", "warning", firstLine(message))
		return true
	})
}

// signalContext returns the command context, cancelled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, cancelling search", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

func saveRun(ctx context.Context, path string, logger *slog.Logger, run store.Run) (store.Run, error) {
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()
	return st.SaveRun(ctx, run)
}

func newSearchOutput(res *search.Result) SearchOutput {
	out := SearchOutput{
		RunID:          res.RunID,
		Passes:         res.Passes,
		Components:     res.Original,
		Discovered:     res.DiscoveredNames(),
		Soluble:        recordOutputs(res.Soluble()),
		Solids:         recordOutputs(res.Solids()),
		ExcludedSolids: res.ExcludedSolids,
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, WarningOutput{
			Kind:    string(w.Kind),
			Message: w.Message,
			Names:   w.Names,
			Proceed: w.Proceed,
		})
	}
	return out
}

func recordOutputs(recs []ir.Record) []RecordOutput {
	out := make([]RecordOutput, len(recs))
	for i, r := range recs {
		out[i] = RecordOutput{Name: r.Name, LogK: r.LogK, Reaction: formatReaction(r)}
	}
	return out
}

// formatReaction renders the components of rec, e.g. "Fe+2 + H2O - H+".
func formatReaction(rec ir.Record) string {
	var b strings.Builder
	for i, s := range rec.Components() {
		coef := s.Coef
		switch {
		case i == 0 && coef < 0:
			b.WriteString("-")
			coef = -coef
		case i > 0 && coef < 0:
			b.WriteString(" - ")
			coef = -coef
		case i > 0:
			b.WriteString(" + ")
		}
		if coef != 1 {
			fmt.Fprintf(&b, "%g ", coef)
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

func printSearchText(f *OutputFormatter, out SearchOutput) {
	w := f.Writer
	fmt.Fprintf(w, "Run %s (%d %s)\n", out.RunID, out.Passes, plural(out.Passes, "pass", "passes"))
	fmt.Fprintf(w, "Components: %s\n", strings.Join(out.Components, ", "))
	if len(out.Discovered) > 0 {
		fmt.Fprintf(w, "Discovered: %s\n", strings.Join(out.Discovered, ", "))
	}

	printRecords(f, "Soluble species", out.Soluble)
	printRecords(f, "Solids", out.Solids)

	if len(out.ExcludedSolids) > 0 {
		fmt.Fprintf(w, "Excluded solids: %s\n", strings.Join(out.ExcludedSolids, ", "))
	}
	for _, warn := range out.Warnings {
		decision := "declined"
		if warn.Proceed {
			decision = "accepted"
		}
		fmt.Fprintf(w, "Warning (%s, %s): %s\n", warn.Kind, decision, firstLine(warn.Message))
	}
	if out.Store != "" {
		fmt.Fprintf(w, "Saved to %s as run %d\n", out.Store, out.StoredSeq)
	}
}

func printRecords(f *OutputFormatter, title string, recs []RecordOutput) {
	fmt.Fprintf(f.Writer, "%s (%s):\n", title, humanize.Comma(int64(len(recs))))
	for _, r := range recs {
		fmt.Fprintf(f.Writer, "  %-24s logK %8.3f  %s\n", r.Name, r.LogK, r.Reaction)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
