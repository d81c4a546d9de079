// SPDX-License-Identifier: MIT

package pwrstat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gowrstat/gowrstat/internal/telemetry"
)

// attrReachable marks poll spans with the reachability outcome.
const attrReachable = "gowrstat.monitor.reachable"

// observeMonitorEvent records a monitor event on the global meter and the
// active span. Providers are looked up at call time so telemetry
// installed after the monitor starts is still picked up.
func observeMonitorEvent(ctx context.Context, ev Event) {
	kind := ev.Metadata.EventType()
	meter := otel.GetMeterProvider().Meter("gowrstat.monitor")
	events, _ := meter.Int64Counter("gowrstat_monitor_otel_events",
		metric.WithDescription("Monitor events by type"))
	events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", kind)))

	var field string
	if vc, ok := ev.Metadata.(ValueChanged); ok {
		field = vc.FieldName
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.EventAttributes(kind, field)...)
}

// startPollSpan opens a span around one monitor poll.
func startPollSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := telemetry.Tracer("gowrstat.monitor")
	return tracer.Start(ctx, "gowrstat.monitor.poll")
}
