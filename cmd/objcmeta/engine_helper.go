package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"objcmeta/internal/clang"
	"objcmeta/internal/clang/cheader"
	"objcmeta/internal/clang/snapshot"
	"objcmeta/internal/config"
	"objcmeta/internal/errors"
	"objcmeta/internal/export"
	"objcmeta/internal/extract"
	"objcmeta/internal/metadata"
	"objcmeta/internal/storage"
)

// resolveProvider maps "auto" to a concrete provider for header: snapshot
// files (.yaml, .yml, .json) go to the snapshot provider, everything else to
// cheader.
func resolveProvider(name, header string) string {
	if name != "" && name != "auto" {
		return name
	}
	switch strings.ToLower(filepath.Ext(header)) {
	case ".yaml", ".yml", ".json":
		return snapshot.ProviderName
	}
	return cheader.ProviderName
}

// newProvider builds the named provider configured from parser.
func newProvider(name string, parser config.ParserConfig, log *slog.Logger) (clang.Provider, error) {
	switch name {
	case snapshot.ProviderName:
		return snapshot.NewProvider(log), nil
	case cheader.ProviderName:
		if !cheader.IsAvailable() {
			return nil, errors.Newf(errors.ProviderUnavailable,
				"the %s provider needs a cgo build; use a snapshot for this header", cheader.ProviderName)
		}
		return cheader.NewProvider(parserOptions(parser), log), nil
	}
	return nil, errors.Newf(errors.ProviderUnavailable, "unknown provider %q", name)
}

func parserOptions(parser config.ParserConfig) cheader.Options {
	opts := cheader.DefaultOptions()
	opts.IncludeDirs = append(opts.IncludeDirs, parser.IncludeDirs...)
	if parser.DataModel != "" {
		opts.DataModel = cheader.DataModel(parser.DataModel)
	}
	opts.FollowIncludes = parser.FollowIncludes
	return opts
}

// parserSettings describes the configured options that change cheader
// output, for the cache key.
func parserSettings(name string, parser config.ParserConfig) []string {
	if name != cheader.ProviderName {
		return nil
	}
	opts := parserOptions(parser)
	return []string{
		"includeDirs=" + strings.Join(opts.IncludeDirs, string(filepath.ListSeparator)),
		"dataModel=" + string(opts.DataModel),
		fmt.Sprintf("followIncludes=%t", opts.FollowIncludes),
	}
}

// openCache opens the extraction cache under root. It returns nil when the
// cache is disabled or cannot be opened; extraction then runs uncached.
func openCache(root string, c config.CacheConfig, log *slog.Logger) *storage.DocumentCache {
	if !c.Enabled {
		return nil
	}
	cache, err := openCacheStrict(root, log)
	if err != nil {
		log.Warn("Extraction cache unavailable", "error", err.Error())
		return nil
	}
	return cache
}

func openCacheStrict(root string, log *slog.Logger) (*storage.DocumentCache, error) {
	db, err := storage.Open(root, log)
	if err != nil {
		return nil, errors.New(errors.CacheUnavailable, "failed to open extraction cache", err)
	}
	cache, err := storage.NewDocumentCache(db)
	if err != nil {
		_ = db.Close()
		return nil, errors.New(errors.CacheUnavailable, "failed to open extraction cache", err)
	}
	return cache, nil
}

// extractorFactory builds one extractor per provider and shares the cache.
type extractorFactory struct {
	parser     config.ParserConfig
	cache      *storage.DocumentCache
	ttl        time.Duration
	log        *slog.Logger
	extractors map[string]*extract.Extractor
}

func newExtractorFactory(root string, c *config.Config, log *slog.Logger) *extractorFactory {
	return &extractorFactory{
		parser:     c.Parser,
		cache:      openCache(root, c.Cache, log),
		ttl:        time.Duration(c.Cache.TTLSeconds) * time.Second,
		log:        log,
		extractors: map[string]*extract.Extractor{},
	}
}

// get returns the extractor for the provider resolved from name and header.
func (f *extractorFactory) get(name, header string) (*extract.Extractor, error) {
	name = resolveProvider(name, header)
	if e, ok := f.extractors[name]; ok {
		return e, nil
	}
	provider, err := newProvider(name, f.parser, f.log)
	if err != nil {
		return nil, err
	}
	opts := []extract.Option{
		extract.WithLogger(f.log),
		extract.WithSettings(parserSettings(name, f.parser)...),
	}
	if f.cache != nil {
		opts = append(opts, extract.WithCache(f.cache, f.ttl))
	}
	e := extract.New(provider, opts...)
	f.extractors[name] = e
	return e, nil
}

func (f *extractorFactory) Close() error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Close()
}

// writeDocument writes doc to path, or to stdout when path is empty or "-".
func writeDocument(doc *metadata.Document, format export.Format, path string, opts export.Options, stdout io.Writer) error {
	if path == "" || path == "-" {
		return export.WriteWithOptions(doc, format, stdout, opts)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteWithOptions(doc, format, f, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// outputFormat picks the format: explicit flag, then the output extension,
// then the configured default.
func outputFormat(flag, output, configured string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if output != "" && output != "-" && filepath.Ext(output) != "" {
		return export.FormatFromPath(output), nil
	}
	return export.ParseFormat(configured)
}

// printFixes writes the suggested fixes carried by err, substituting header.
func printFixes(w io.Writer, err error, header string) {
	me, ok := errors.As(err)
	if !ok || len(me.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(w, "Suggested fixes:")
	for _, fix := range me.SuggestedFixes {
		action := fix.Command
		if action == "" {
			action = fix.Path
		}
		action = strings.ReplaceAll(action, "${header}", header)
		fmt.Fprintf(w, "  - %s: %s\n", fix.Description, action)
	}
}

func headerNotFound(header string, cause error) error {
	return errors.New(errors.HeaderNotFound, "header not found: "+header, cause).
		WithDetails(map[string]string{"header": header})
}
