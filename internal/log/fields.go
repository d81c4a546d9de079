// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldExitCode  = "exit_code"
	FieldDuration  = "duration_ms"

	// State fields
	FieldReachable = "reachable"
	FieldField     = "field"
	FieldOldValue  = "old_value"
	FieldNewValue  = "new_value"

	// Path fields
	FieldPath = "path"
)
