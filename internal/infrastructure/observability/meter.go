package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "companion-api"

type turnInstruments struct {
	duration metric.Float64Histogram
	tools    metric.Int64Histogram
}

var (
	instrumentsOnce sync.Once
	instruments     turnInstruments
)

// loadInstruments resolves against the global meter provider. Before Setup
// installs one the global delegate forwards once it does.
func loadInstruments() turnInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)

		duration, err := meter.Float64Histogram(
			"companion_turn_duration_seconds",
			metric.WithDescription("Turn duration from authentication to composed reply"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
		tools, err := meter.Int64Histogram(
			"companion_turn_tool_calls",
			metric.WithDescription("Tool calls requested by the model per turn"),
		)
		if err != nil {
			otel.Handle(err)
		}
		instruments = turnInstruments{duration: duration, tools: tools}
	})
	return instruments
}

// RecordTurnDuration exports a finished turn over OTLP.
func RecordTurnDuration(ctx context.Context, outcome string, seconds float64, toolCalls int) {
	inst := loadInstruments()
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if inst.duration != nil {
		inst.duration.Record(ctx, seconds, attrs)
	}
	if inst.tools != nil {
		inst.tools.Record(ctx, int64(toolCalls), attrs)
	}
}
