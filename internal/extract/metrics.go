package extract

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"objcmeta/internal/metadata"
)

var (
	tracer = otel.Tracer("objcmeta.extract")
	meter  = otel.Meter("objcmeta.extract")
)

var (
	extractTotal    metric.Int64Counter
	extractDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	recordsTotal    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		extractTotal, err = meter.Int64Counter(
			"objcmeta_extract_total",
			metric.WithDescription("Total number of header extractions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		extractDuration, err = meter.Float64Histogram(
			"objcmeta_extract_duration_seconds",
			metric.WithDescription("Duration of header extractions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHits, err = meter.Int64Counter(
			"objcmeta_cache_hits_total",
			metric.WithDescription("Total number of extraction cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"objcmeta_cache_misses_total",
			metric.WithDescription("Total number of extraction cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsTotal, err = meter.Int64Counter(
			"objcmeta_records_total",
			metric.WithDescription("Total number of extracted records by list"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordExtraction records the outcome and duration of one extraction.
func recordExtraction(ctx context.Context, provider, outcome string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	extractTotal.Add(ctx, 1, attrs)
	extractDuration.Record(ctx, duration.Seconds(), attrs)
}

func recordCacheLookup(ctx context.Context, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}
	if hit {
		cacheHits.Add(ctx, 1)
	} else {
		cacheMisses.Add(ctx, 1)
	}
}

func recordRecords(ctx context.Context, stats metadata.Stats) {
	if err := initMetrics(); err != nil {
		return
	}
	counts := map[string]int{
		"variables":  stats.Variables,
		"enums":      stats.Enums,
		"structs":    stats.Structs,
		"functions":  stats.Functions,
		"interfaces": stats.Interfaces,
		"categories": stats.Categories,
		"protocols":  stats.Protocols,
	}
	for list, n := range counts {
		if n > 0 {
			recordsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("list", list)))
		}
	}
}

// startExtractSpan creates a span for one extraction.
func startExtractSpan(ctx context.Context, provider, header string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Extractor.Extract",
		trace.WithAttributes(
			attribute.String("extract.provider", provider),
			attribute.String("extract.header", header),
		),
	)
}

// setExtractSpanResult sets the result attributes on an extraction span.
func setExtractSpanResult(span trace.Span, res *Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	stats := res.Stats
	span.SetAttributes(
		attribute.Bool("extract.cached", res.Cached),
		attribute.String("extract.run_id", res.RunID),
		attribute.Int("extract.files", len(res.Files)),
		attribute.Int("extract.records", stats.Total()),
	)
}
