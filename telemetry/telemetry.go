// Package telemetry provides hierarchical timing collection for operations.
//
// Collectors travel through a context so that instrumented code does not
// change signature when telemetry is disabled:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.FromContext(ctx).Start("load")
//	scan := timer.Child("scan main.src")
//	// ... work ...
//	scan.End()
//	timer.End()
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/hstr/output"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector collects timings.
type Collector interface {
	// Start begins timing an operation. The first operation started becomes
	// the root of the report; later ones are attached to it.
	Start(name string) Timer

	// Report writes the collected timings to w. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation. Child and End may be called from
// different goroutines.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext extracts the collector from ctx, or a no-op collector when
// none is present.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}
