package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"objcmeta/internal/export"
	"objcmeta/internal/extract"
)

var (
	extractOutput   string
	extractFormat   string
	extractProvider string
	extractNoCache  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <header> [-- compiler args]",
	Short: "Extract declaration metadata from a header",
	Long: `Parse a header and write its declaration metadata.

Arguments after -- are passed to the parser (-I, -D, -U, -m32). Snapshot
files (.yaml, .json) recorded by dump-ast or a clang-backed tool are read
with the snapshot provider.

Examples:
  objcmeta extract include/api.h
  objcmeta extract include/api.h -o api.yaml
  objcmeta extract include/api.h --format text -- -Iinclude -DNDEBUG
  objcmeta extract Foundation.snapshot.yaml --format scip -o index.scip`,
	Args: headerArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (default: config output.path or stdout)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "", "Output format: json, yaml, toml, scip, text")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "Header provider: auto, cheader, snapshot")
	extractCmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "Bypass the extraction cache")
	rootCmd.AddCommand(extractCmd)
}

// headerArgs requires exactly one header before an optional "--".
func headerArgs(cmd *cobra.Command, args []string) error {
	positional := args
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional = args[:dash]
	}
	switch len(positional) {
	case 0:
		return fmt.Errorf("missing header argument")
	case 1:
		return nil
	}
	return fmt.Errorf("expected one header, got %d", len(positional))
}

// splitHeaderArgs returns the header and the parser arguments after "--".
func splitHeaderArgs(cmd *cobra.Command, args []string) (string, []string) {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		return args[0], args[dash:]
	}
	return args[0], nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	header, parserArgs := splitHeaderArgs(cmd, args)

	root, err := projectRoot()
	if err != nil {
		return err
	}

	output := extractOutput
	if !cmd.Flags().Changed("output") {
		output = cfg.Output.Path
	}
	format, err := outputFormat(extractFormat, output, cfg.Output.Format)
	if err != nil {
		return err
	}
	provider := extractProvider
	if provider == "" {
		provider = cfg.Parser.Provider
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	factory := newExtractorFactory(root, cfg, logger)
	defer factory.Close()

	res, err := extractOne(ctx, factory, extractJob{
		Header:   header,
		Args:     parserArgs,
		Provider: provider,
		Output:   output,
		Format:   format,
	}, root, extractNoCache, cmd.OutOrStdout())
	if err != nil {
		printFixes(cmd.ErrOrStderr(), err, header)
		return err
	}

	// The summary goes to stderr so stdout carries only the document.
	if !quiet {
		printSummary(cmd.ErrOrStderr(), header, output, res)
	}
	return nil
}

type extractJob struct {
	Header   string
	Args     []string
	Provider string
	Output   string
	Format   export.Format
}

// extractOne runs one job and writes its document. Configured parser
// arguments precede the job's own.
func extractOne(ctx context.Context, factory *extractorFactory, job extractJob, root string, noCache bool, stdout io.Writer) (*extract.Result, error) {
	e, err := factory.get(job.Provider, job.Header)
	if err != nil {
		return nil, err
	}
	res, err := e.Extract(ctx, extract.Request{
		Header:  job.Header,
		Args:    append(append([]string(nil), factory.parser.Args...), job.Args...),
		NoCache: noCache,
	})
	if err != nil {
		return nil, err
	}
	opts := export.Options{ProjectRoot: root, Header: job.Header}
	if err := writeDocument(res.Document, job.Format, job.Output, opts, stdout); err != nil {
		return nil, err
	}
	return res, nil
}

func printSummary(w io.Writer, header, output string, res *extract.Result) {
	source := "parsed"
	if res.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "%s: %d records (%s) from %d files, %s in %s\n",
		header, res.Stats.Total(), export.Summary(res.Stats), len(res.Files),
		source, res.Duration.Round(time.Millisecond))
	if output != "" && output != "-" {
		fmt.Fprintf(w, "Wrote %s\n", output)
	}
}
