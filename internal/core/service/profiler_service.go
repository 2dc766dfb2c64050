package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/halvard/colprofiler/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ProfileService runs the column-set profiler against a port.RowSource,
// bridging it into domain.Run and recording telemetry around the call.
type ProfileService struct {
	source port.RowSource
	logger *slog.Logger
	tracer trace.Tracer
	inst   port.Instrumentation
	sinks  []func(domain.TraceEvent)
}

// NewProfileService builds a ProfileService. Any sinks are additional
// trace observers (e.g. an NDJSON file writer) invoked alongside the
// built-in logger/metrics hook on every pass.
func NewProfileService(source port.RowSource, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation, sinks ...func(domain.TraceEvent)) *ProfileService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &ProfileService{
		source: source,
		logger: logger,
		tracer: tracer,
		inst:   inst,
		sinks:  sinks,
	}
}

// Profile discovers the source's schema and runs domain.Run over it,
// applying opts verbatim. A domain.WithTrace hook is installed that feeds
// the run's per-pass counters into telemetry and the debug log.
func (s *ProfileService) Profile(ctx context.Context, opts ...domain.Option) (*domain.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "ProfileService.Profile")
	defer span.End()

	columns, err := s.source.Columns(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementRunErrors(ctx)
		return nil, fmt.Errorf("resolving columns: %w", err)
	}
	span.SetAttributes(attribute.Int("profiler.column_count", len(columns)))

	passStart := time.Now()
	traced := append([]domain.Option{domain.WithTrace(func(ev domain.TraceEvent) {
		elapsed := time.Since(passStart)
		passStart = time.Now()
		s.inst.IncrementPassCount(ctx)
		s.inst.RecordPassDuration(ctx, float64(elapsed.Milliseconds()))
		s.logger.DebugContext(ctx, "profiler pass complete",
			slog.Int("pass", ev.Pass),
			slog.Int("batch_size", ev.BatchSize),
			slog.Int("distribution_count", ev.DistributionCount),
		)
		for _, sink := range s.sinks {
			sink(ev)
		}
	})}, opts...)

	profile, err := s.runProfile(ctx, columns, traced)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementRunErrors(ctx)
		return nil, err
	}

	s.inst.RecordRowsScanned(ctx, int64(profile.RowCount))
	s.inst.RecordDistributionCount(ctx, int64(len(profile.Distributions)))
	s.inst.RecordFunctionalDependencyCount(ctx, int64(len(profile.FunctionalDependencies)))
	span.SetAttributes(
		attribute.Int("profiler.row_count", profile.RowCount),
		attribute.Int("profiler.distribution_count", len(profile.Distributions)),
		attribute.Int("profiler.functional_dependency_count", len(profile.FunctionalDependencies)),
	)

	return profile, nil
}

// runProfile opens a fresh domain.RowStream and delegates to domain.Run. It
// is a separate method so that Profile's tracing/telemetry wrapping stays
// uncluttered by the ctx-to-stream plumbing.
func (s *ProfileService) runProfile(ctx context.Context, columns []domain.Column, opts []domain.Option) (*domain.Profile, error) {
	stream, err := s.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening row source: %w", err)
	}
	return domain.Run(stream, columns, opts...)
}
