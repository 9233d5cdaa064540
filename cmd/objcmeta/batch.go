package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"objcmeta/internal/errors"
	"objcmeta/internal/manifest"
)

var (
	batchInit    bool
	batchJobs    int
	batchNoCache bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [manifest]",
	Short: "Extract every header listed in a manifest",
	Long: `Extract the headers listed in a TOML manifest (default: headers.toml).

Relative paths in the manifest resolve against the manifest's directory.
A failing header does not stop the others; the command exits non-zero
when any header failed.

Examples:
  objcmeta batch --init            # write an example headers.toml
  objcmeta batch
  objcmeta batch sdk/headers.toml --jobs 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchInit, "init", false, "Write an example manifest instead of running one")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Headers to extract in parallel")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "Bypass the extraction cache")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	path := manifest.DefaultName
	if len(args) == 1 {
		path = args[0]
	}

	if batchInit {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := manifest.Example().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	}

	m, err := manifest.Load(path)
	if err != nil {
		printFixes(cmd.ErrOrStderr(), err, path)
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	factory := newExtractorFactory(root, cfg, logger)
	defer factory.Close()

	report, err := runJobs(ctx, factory, m.Jobs(), root, batchNoCache, batchJobs)
	if err != nil {
		return err
	}
	for _, r := range report {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.Name, r.Err)
			continue
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "ok   %s -> %s (%d records)\n", r.Name, r.Output, r.Records)
		}
	}

	if failed := countFailed(report); failed > 0 {
		return fmt.Errorf("%d of %d headers failed", failed, len(report))
	}
	return nil
}

type jobReport struct {
	Name     string
	Output   string
	Records  int
	Cached   bool
	Duration time.Duration
	Err      error
}

// runJobs extracts every job with up to parallel workers. Per-job failures
// are reported, not returned; the error is non-nil only when ctx ends.
func runJobs(ctx context.Context, factory *extractorFactory, jobs []manifest.Job, root string, noCache bool, parallel int) ([]jobReport, error) {
	report := make([]jobReport, len(jobs))
	for i, job := range jobs {
		report[i] = jobReport{Name: job.Name, Output: job.Output}
	}

	// Providers are resolved up front so workers only read the factory.
	for i, job := range jobs {
		if _, err := factory.get(job.Provider, job.Header); err != nil {
			report[i].Err = err
		}
	}

	if parallel < 1 {
		parallel = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	var mu sync.Mutex
	for i, job := range jobs {
		if report[i].Err != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := extractOne(gctx, factory, extractJob{
				Header:   job.Header,
				Args:     job.Args,
				Provider: job.Provider,
				Output:   job.Output,
				Format:   job.Format,
			}, root, noCache, nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report[i].Err = err
				factory.log.Warn("Batch header failed", "name", job.Name, "code", string(errors.CodeOf(err)))
				return nil
			}
			report[i].Records = res.Stats.Total()
			report[i].Cached = res.Cached
			report[i].Duration = res.Duration
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func countFailed(report []jobReport) int {
	n := 0
	for _, r := range report {
		if r.Err != nil {
			n++
		}
	}
	return n
}
