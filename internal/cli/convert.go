package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/dbsearch/internal/dbfile"
)

// ConvertOutput is the result of the convert command.
type ConvertOutput struct {
	Input          string `json:"input"`
	InputEncoding  string `json:"input_encoding"`
	Output         string `json:"output"`
	OutputEncoding string `json:"output_encoding"`
	Records        int    `json:"records"`
	Size           int64  `json:"size"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a database between the text and binary encodings",
		Long: `Convert a reaction database between encodings. File names ending in
"db" are binary, everything else is text.

Examples:
  dbsearch convert main.dat main.db
  dbsearch convert main.db main.txt`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runConvert(opts *RootOptions, input, output string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := dbfile.Open(input)
	if err != nil {
		if err := formatter.Error(ErrCodeConvert, err.Error(), nil); err != nil {
			return err
		}
		return WrapExitError(ExitCommandError, "cannot open input", err)
	}
	defer src.Close()

	n, err := dbfile.Convert(src, output)
	if err != nil {
		// Remove the partial output.
		_ = os.Remove(output)
		if err := formatter.Error(ErrCodeConvert, err.Error(), nil); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "conversion failed", err)
	}

	out := ConvertOutput{
		Input:          input,
		InputEncoding:  src.Encoding().String(),
		Output:         output,
		OutputEncoding: dbfile.EncodingFor(output).String(),
		Records:        n,
	}
	if st, err := os.Stat(output); err == nil {
		out.Size = st.Size()
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	return formatter.Success(fmt.Sprintf("Converted %s records: %s (%s) -> %s (%s, %s)",
		humanize.Comma(int64(n)), out.Input, out.InputEncoding, out.Output, out.OutputEncoding,
		humanize.Bytes(uint64(out.Size))))
}
