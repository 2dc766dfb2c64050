package port

import "context"

// Instrumentation records profiler-run metrics.
type Instrumentation interface {
	RecordPassDuration(ctx context.Context, ms float64)
	IncrementPassCount(ctx context.Context)
	IncrementRunErrors(ctx context.Context)
	RecordRowsScanned(ctx context.Context, n int64)
	RecordDistributionCount(ctx context.Context, n int64)
	RecordFunctionalDependencyCount(ctx context.Context, n int64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordPassDuration(context.Context, float64)            {}
func (NoopInstrumentation) IncrementPassCount(context.Context)                     {}
func (NoopInstrumentation) IncrementRunErrors(context.Context)                     {}
func (NoopInstrumentation) RecordRowsScanned(context.Context, int64)               {}
func (NoopInstrumentation) RecordDistributionCount(context.Context, int64)         {}
func (NoopInstrumentation) RecordFunctionalDependencyCount(context.Context, int64) {}
