// SPDX-License-Identifier: MIT

package pwrstat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.

	// ErrMissingBinary reports that the pwrstat executable does not exist
	// at the configured path. Raised at reader construction, never later.
	ErrMissingBinary = errors.New("pwrstat: binary not found")

	// ErrNotReady reports that an operation cannot run in the current
	// state, e.g. starting a self-test while one is already in progress.
	ErrNotReady = errors.New("pwrstat: not ready")

	// ErrUnreachable reports that the daemon has lost communication with
	// the UPS. Errors carrying it also match ErrNotReady.
	ErrUnreachable = errors.New("pwrstat: ups unreachable")

	// ErrCommandFailed reports a pwrstat invocation that exited non-zero
	// or produced output the operation's contract rejects.
	ErrCommandFailed = errors.New("pwrstat: command failed")

	// ErrSetupFailed reports a configuration command that was not
	// acknowledged with a success message. Errors carrying it also match
	// ErrCommandFailed.
	ErrSetupFailed = errors.New("pwrstat: setup failed")

	// ErrTimeout reports a bounded wait that elapsed, e.g. polling for a
	// self-test result.
	ErrTimeout = errors.New("pwrstat: timed out")

	// ErrParse reports pwrstat output that did not match the expected
	// shape.
	ErrParse = errors.New("pwrstat: unparsable output")
)

// ErrUnreachable refines ErrNotReady, and ErrSetupFailed refines
// ErrCommandFailed. The error types below encode that, so one errors.Is
// walk sees the whole chain.

type unreachableError struct{ msg string }

func (e *unreachableError) Error() string { return e.msg }

func (e *unreachableError) Is(target error) bool {
	return target == ErrUnreachable || target == ErrNotReady
}

// NewUnreachableError returns an error matching both ErrUnreachable and
// ErrNotReady.
func NewUnreachableError(msg string) error {
	if msg == "" {
		msg = ErrUnreachable.Error()
	}
	return &unreachableError{msg: msg}
}

// CommandError is a rich error type wrapping ErrCommandFailed with the
// invocation context.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
	Err      error // nested lower-level error (e.g. *exec.ExitError)
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("pwrstat: command %q failed", strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (rc=%d)", msg, e.ExitCode)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Output)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// SetupError is returned when a configure/set operation ran but pwrstat
// did not answer with its success acknowledgment. It matches both
// ErrSetupFailed and ErrCommandFailed.
type SetupError struct {
	Args   []string
	Output string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("pwrstat: setup %q failed, full output: %s", strings.Join(e.Args, " "), e.Output)
}

func (e *SetupError) Is(target error) bool {
	return target == ErrSetupFailed || target == ErrCommandFailed
}

// ParseError is returned when pwrstat output does not match the shape an
// operation expects. It carries the offending value.
type ParseError struct {
	What  string // what was being parsed ("volts", "test result", ...)
	Value string // the raw value that did not parse
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pwrstat: could not parse %s from %q", e.What, e.Value)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
