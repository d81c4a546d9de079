// SPDX-License-Identifier: MIT

package telemetry

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Command attributes
	CommandKey         = "pwrstat.command"
	CommandExitCodeKey = "pwrstat.exit_code"
	CommandDurationKey = "pwrstat.duration_ms"
	CommandSudoKey     = "pwrstat.sudo"

	// Monitor attributes
	MonitorEventKey = "monitor.event_type"
	MonitorFieldKey = "monitor.field"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CommandAttributes creates span attributes for one pwrstat invocation.
func CommandAttributes(command string, exitCode int, duration time.Duration) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CommandKey, command),
		attribute.Int(CommandExitCodeKey, exitCode),
		attribute.Int64(CommandDurationKey, duration.Milliseconds()),
	}
}

// EventAttributes creates span attributes for a monitor event.
func EventAttributes(eventType, field string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(MonitorEventKey, eventType),
	}
	if field != "" {
		attrs = append(attrs, attribute.String(MonitorFieldKey, field))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
