package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/halvard/colprofiler"

// Instruments holds pre-created OTel metric instruments for a profiler run.
type Instruments struct {
	PassCount                 metric.Int64Counter
	PassDuration              metric.Float64Histogram
	RunErrors                 metric.Int64Counter
	RowsScanned               metric.Int64Counter
	DistributionCount         metric.Int64Histogram
	FunctionalDependencyCount metric.Int64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
// Returns nil-safe instruments: if creation fails, noop instruments are used.
func NewInstruments() *Instruments {
	meter := otel.Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	meter := noop.NewMeterProvider().Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	passCount, _ := meter.Int64Counter("colprofiler.profiler.pass.count",
		metric.WithDescription("Total number of profiler passes executed"),
	)
	passDuration, _ := meter.Float64Histogram("colprofiler.profiler.pass.duration",
		metric.WithDescription("Profiler pass duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	runErrors, _ := meter.Int64Counter("colprofiler.profiler.run.errors",
		metric.WithDescription("Total number of profiler runs that failed"),
	)
	rowsScanned, _ := meter.Int64Counter("colprofiler.profiler.rows.scanned",
		metric.WithDescription("Total number of table rows profiled, counted once per successful run"),
	)
	distributionCount, _ := meter.Int64Histogram("colprofiler.profiler.distributions",
		metric.WithDescription("Number of minimal interesting distributions found per run"),
	)
	fdCount, _ := meter.Int64Histogram("colprofiler.profiler.functional_dependencies",
		metric.WithDescription("Number of functional dependencies found per run"),
	)

	return &Instruments{
		PassCount:                 passCount,
		PassDuration:              passDuration,
		RunErrors:                 runErrors,
		RowsScanned:               rowsScanned,
		DistributionCount:         distributionCount,
		FunctionalDependencyCount: fdCount,
	}
}

func (i *Instruments) RecordPassDuration(ctx context.Context, ms float64) {
	i.PassDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementPassCount(ctx context.Context) {
	i.PassCount.Add(ctx, 1)
}

func (i *Instruments) IncrementRunErrors(ctx context.Context) {
	i.RunErrors.Add(ctx, 1)
}

func (i *Instruments) RecordRowsScanned(ctx context.Context, n int64) {
	i.RowsScanned.Add(ctx, n)
}

func (i *Instruments) RecordDistributionCount(ctx context.Context, n int64) {
	i.DistributionCount.Record(ctx, n)
}

func (i *Instruments) RecordFunctionalDependencyCount(ctx context.Context, n int64) {
	i.FunctionalDependencyCount.Record(ctx, n)
}
