package rewrite

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter. Without an installed SDK both are no-ops.
var (
	tracer = otel.Tracer("irx.rewrite")
	meter  = otel.Meter("irx.rewrite")
)

var (
	applyDuration   metric.Float64Histogram
	rewritesApplied metric.Int64Counter
	opsErased       metric.Int64Counter
	nonConvergence  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		applyDuration, err = meter.Float64Histogram(
			"rewrite_apply_duration_seconds",
			metric.WithDescription("Duration of a fixpoint rewrite run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rewritesApplied, err = meter.Int64Counter(
			"rewrite_patterns_applied_total",
			metric.WithDescription("Pattern rewrites applied, by pattern"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		opsErased, err = meter.Int64Counter(
			"rewrite_ops_erased_total",
			metric.WithDescription("Trivially dead operations erased by the driver"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nonConvergence, err = meter.Int64Counter(
			"rewrite_nonconvergence_total",
			metric.WithDescription("Runs stopped by the rewrite quota"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startApplySpan opens the span covering one Apply call.
func startApplySpan(ctx context.Context, runID, rootName string, patterns int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "rewrite.Driver.Apply",
		trace.WithAttributes(
			attribute.String("rewrite.run_id", runID),
			attribute.String("rewrite.root", rootName),
			attribute.Int("rewrite.patterns", patterns),
		),
	)
}

// finishApplySpan records the run outcome on span.
func finishApplySpan(span trace.Span, res Result, err error) {
	span.SetAttributes(
		attribute.Int("rewrite.rewrites", res.Rewrites),
		attribute.Int("rewrite.erased", res.Erased),
		attribute.Int("rewrite.visits", res.Visits),
		attribute.Bool("rewrite.changed", res.Changed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func recordRewrite(ctx context.Context, pattern string) {
	if err := initMetrics(); err != nil {
		return
	}
	rewritesApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", pattern)))
}

func recordErase(ctx context.Context, opName string) {
	if err := initMetrics(); err != nil {
		return
	}
	opsErased.Add(ctx, 1, metric.WithAttributes(attribute.String("op", opName)))
}

func recordApply(ctx context.Context, d time.Duration, err error) {
	if initMetrics() != nil {
		return
	}
	applyDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("success", err == nil)))
	if IsNonConvergence(err) {
		nonConvergence.Add(ctx, 1)
	}
}
