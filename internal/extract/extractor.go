// Package extract runs a clang provider over a header and assembles the
// resulting metadata document, consulting the extraction cache when one is
// configured.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"objcmeta/internal/clang"
	"objcmeta/internal/errors"
	"objcmeta/internal/metadata"
	"objcmeta/internal/storage"
)

// Request describes one extraction.
type Request struct {
	Header  string
	Args    []string
	NoCache bool
}

// Result is the outcome of one extraction.
type Result struct {
	Document *metadata.Document
	RunID    string
	Cached   bool
	Files    []string
	Duration time.Duration
	Stats    metadata.Stats
}

// Extractor turns headers into metadata documents.
type Extractor struct {
	provider clang.Provider
	cache    *storage.DocumentCache
	cacheTTL time.Duration
	settings []string
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache enables the extraction cache. A ttl of zero keeps entries until
// their input files change.
func WithCache(cache *storage.DocumentCache, ttl time.Duration) Option {
	return func(e *Extractor) {
		e.cache = cache
		e.cacheTTL = ttl
	}
}

// WithSettings adds provider settings that are not part of the request
// arguments (include dirs, data model) to the cache key.
func WithSettings(settings ...string) Option {
	return func(e *Extractor) {
		e.settings = append(e.settings, settings...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an extractor for provider.
func New(provider clang.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the provider the extractor parses with.
func (e *Extractor) Provider() clang.Provider {
	return e.provider
}

// Extract parses req.Header and builds its document. The translation unit is
// released before Extract returns on every path.
func (e *Extractor) Extract(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	providerName := e.provider.Name()

	ctx, span := startExtractSpan(ctx, providerName, req.Header)
	defer func() {
		setExtractSpanResult(span, res, err)
		span.End()
		recordExtraction(ctx, providerName, outcome(res, err), time.Since(start))
	}()

	info, statErr := os.Stat(req.Header)
	if statErr != nil || info.IsDir() {
		return nil, errors.New(errors.HeaderNotFound, fmt.Sprintf("header not found: %s", req.Header), statErr).
			WithDetails(map[string]string{"header": req.Header})
	}

	key := storage.Key(providerName, req.Header, append(append([]string(nil), e.settings...), req.Args...))
	useCache := e.cache != nil && !req.NoCache

	if useCache {
		if res, err := e.lookup(ctx, key, req, start); res != nil || err != nil {
			return res, err
		}
	}

	tu, err := e.provider.Parse(ctx, req.Header, req.Args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		err = parseError(req.Header, err)
		if useCache {
			e.rememberFailure(key, req.Header, err)
		}
		return nil, err
	}
	defer tu.Close()

	doc := metadata.NewAssembler(e.logger).Generate(tu.Cursor())
	res = &Result{
		Document: doc,
		RunID:    uuid.New().String(),
		Files:    tu.Files(),
		Stats:    doc.Stats(),
	}

	if useCache {
		e.store(key, req, res)
	}

	res.Duration = time.Since(start)
	recordRecords(ctx, res.Stats)
	e.logger.Info("Extracted header",
		"header", req.Header,
		"provider", providerName,
		"records", res.Stats.Total(),
		"files", len(res.Files),
		"run_id", res.RunID,
		"duration", res.Duration,
	)
	return res, nil
}

// lookup serves req from the cache. It returns a nil result and error on a
// miss. Cache read failures degrade to a miss.
func (e *Extractor) lookup(ctx context.Context, key string, req Request, start time.Time) (*Result, error) {
	if sum, err := storage.Checksum(req.Header); err == nil {
		failure, err := e.cache.CheckFailure(key, sum)
		if err != nil {
			e.logger.Warn("Failure cache lookup failed", "header", req.Header, "error", err.Error())
		} else if failure != nil {
			return nil, errors.New(failure.Code, failure.Message, nil).
				WithDetails(map[string]interface{}{"header": req.Header, "cached": true})
		}
	}

	entry, found, err := e.cache.Get(key)
	if err != nil {
		e.logger.Warn("Cache lookup failed", "header", req.Header, "error", err.Error())
		recordCacheLookup(ctx, false)
		return nil, nil
	}
	if !found {
		recordCacheLookup(ctx, false)
		return nil, nil
	}

	doc := metadata.NewDocument()
	if err := json.Unmarshal(entry.Document, doc); err != nil {
		e.logger.Warn("Dropping undecodable cache entry", "header", req.Header, "error", err.Error())
		_ = e.cache.Delete(key)
		recordCacheLookup(ctx, false)
		return nil, nil
	}
	recordCacheLookup(ctx, true)

	files := make([]string, len(entry.Files))
	for i, f := range entry.Files {
		files[i] = f.Path
	}
	res := &Result{
		Document: doc,
		RunID:    entry.RunID,
		Cached:   true,
		Files:    files,
		Duration: time.Since(start),
		Stats:    doc.Stats(),
	}
	e.logger.Info("Extracted header",
		"header", req.Header,
		"provider", e.provider.Name(),
		"records", res.Stats.Total(),
		"run_id", res.RunID,
		"cached", true,
	)
	return res, nil
}

// store writes res to the cache. Failures are logged and otherwise ignored.
func (e *Extractor) store(key string, req Request, res *Result) {
	files, err := storage.Checksums(res.Files)
	if err != nil {
		e.logger.Debug("Not caching extraction", "header", req.Header, "reason", err.Error())
		return
	}
	data, err := json.Marshal(res.Document)
	if err != nil {
		e.logger.Warn("Failed to encode document for cache", "header", req.Header, "error", err.Error())
		return
	}
	entry := &storage.DocumentEntry{
		Key:      key,
		Header:   req.Header,
		Provider: e.provider.Name(),
		Args:     req.Args,
		RunID:    res.RunID,
		Document: data,
		Files:    files,
	}
	if err := e.cache.Put(entry, e.cacheTTL); err != nil {
		e.logger.Warn("Failed to store cache entry", "header", req.Header, "error", err.Error())
		return
	}
	_ = e.cache.ClearFailure(key)
}

func (e *Extractor) rememberFailure(key, header string, err error) {
	sum, sumErr := storage.Checksum(header)
	if sumErr != nil {
		return
	}
	if recErr := e.cache.RecordFailure(key, errors.CodeOf(err), err.Error(), sum); recErr != nil {
		e.logger.Warn("Failed to record failure", "header", header, "error", recErr.Error())
	}
}

// parseError keeps coded provider errors and wraps everything else as
// PARSE_FAILED.
func parseError(header string, err error) error {
	if errors.CodeOf(err) != errors.InternalError {
		return err
	}
	return errors.New(errors.ParseFailed, fmt.Sprintf("failed to parse %s", header), err)
}

func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		return string(errors.CodeOf(err))
	case res.Cached:
		return "cached"
	default:
		return "parsed"
	}
}
