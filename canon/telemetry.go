package canon

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wippyai/wasm-rpc/errors"
)

var tracer = otel.Tracer("github.com/wippyai/wasm-rpc/canon")
var meter = otel.Meter("github.com/wippyai/wasm-rpc/canon")

// errorKind is the attribute key recording the error kind of a failed lift.
const errorKind = "error.kind"

var (
	// lowerBytes measures the linear memory allocated by a single Lower,
	// including the node array and every nested list and string.
	lowerBytes metric.Int64Histogram
	// liftFailures counts rejected Lift calls.
	//
	// Each record is associated with the errorKind.
	liftFailures metric.Int64Counter
)

func init() {
	var err error
	lowerBytes, err = meter.Int64Histogram(
		"canon.lower.bytes",
		metric.WithDescription("Linear memory allocated to lower one wit-value."),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic("canon: failed to init 'canon.lower.bytes' instrument")
	}

	liftFailures, err = meter.Int64Counter(
		"canon.lift.failures",
		metric.WithDescription("The number of wit-value lifts rejected as malformed."),
	)
	if err != nil {
		panic("canon: failed to init 'canon.lift.failures' instrument")
	}
}

func measureLower(ctx context.Context, bytes uint32) {
	lowerBytes.Record(ctx, int64(bytes))
}

func measureLiftFailure(ctx context.Context, err error) {
	kind := "unknown"
	if e, ok := err.(*errors.Error); ok {
		kind = string(e.Kind)
	}
	attrs := attribute.NewSet(attribute.String(errorKind, kind))
	liftFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
}
