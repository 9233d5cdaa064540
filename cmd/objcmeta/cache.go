package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"objcmeta/internal/storage"
)

var cacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the extraction cache",
	Long:  "Inspect and maintain the extraction cache stored in .objcmeta/cache.db",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and entry counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(cache *storage.DocumentCache) error {
			stats, err := cache.Stats()
			if err != nil {
				return err
			}
			return printCacheStats(cmd.OutOrStdout(), stats, cacheJSON)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(cache *storage.DocumentCache) error {
			n, err := cache.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached documents\n", n)
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired and out-of-date cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(cache *storage.DocumentCache) error {
			n, err := cache.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cache entries\n", n)
			return nil
		})
	},
}

func init() {
	cacheStatsCmd.Flags().BoolVar(&cacheJSON, "json", false, "Print stats as JSON")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withCache opens the project cache for fn, regardless of cache.enabled.
func withCache(cmd *cobra.Command, fn func(*storage.DocumentCache) error) error {
	cmd.SilenceUsage = true
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cache, err := openCacheStrict(root, logger)
	if err != nil {
		printFixes(cmd.ErrOrStderr(), err, "")
		return err
	}
	defer cache.Close()
	return fn(cache)
}

func printCacheStats(w io.Writer, stats storage.CacheStats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(w, "Cache:       %s\n", stats.Path)
	fmt.Fprintf(w, "Documents:   %d (%d expired)\n", stats.Documents, stats.Expired)
	fmt.Fprintf(w, "Files:       %d\n", stats.Files)
	fmt.Fprintf(w, "Failures:    %d\n", stats.Failures)
	fmt.Fprintf(w, "Size:        %s compressed, %s raw", humanize.IBytes(uint64(stats.CompressedBytes)), humanize.IBytes(uint64(stats.UncompressedBytes)))
	if stats.UncompressedBytes > 0 {
		fmt.Fprintf(w, " (%.0f%%)", 100*float64(stats.CompressedBytes)/float64(stats.UncompressedBytes))
	}
	fmt.Fprintln(w)
	return nil
}
