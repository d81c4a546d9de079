// SPDX-License-Identifier: MIT

package pwrstat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/metrics"
	"github.com/gowrstat/gowrstat/internal/procgroup"
	"github.com/gowrstat/gowrstat/internal/ratelimit"
	"github.com/gowrstat/gowrstat/internal/telemetry"
)

// DefaultBinaryPath is where CyberPower's PowerPanel package installs the
// pwrstat binary.
const DefaultBinaryPath = "/usr/sbin/pwrstat"

// Reader runs a pwrstat invocation and returns its merged output. It is
// the seam between the client and the actual binary.
type Reader interface {
	Read(ctx context.Context, args ...string) (string, error)
}

// ExecOptions configures an ExecReader.
type ExecOptions struct {
	// BinaryPath is the pwrstat executable (DefaultBinaryPath if empty).
	BinaryPath string
	// UseSudo prefixes every invocation with sudo. pwrstat talks to
	// pwrstatd over a root-owned socket, so non-root callers need it.
	UseSudo bool
	// Timeout bounds each invocation. Zero means no deadline beyond the
	// caller's ctx.
	Timeout time.Duration
	// Limiter throttles invocations when set.
	Limiter *ratelimit.Limiter
	// Logger defaults to the pwrstat.reader component logger.
	Logger *zerolog.Logger
}

// ExecReader invokes the pwrstat binary.
type ExecReader struct {
	binary  string
	sudo    bool
	timeout time.Duration
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

var _ Reader = (*ExecReader)(nil)

// NewExecReader validates that the binary exists and returns a reader for
// it. A missing binary is reported immediately, not at first use.
func NewExecReader(opts ExecOptions) (*ExecReader, error) {
	binary := opts.BinaryPath
	if binary == "" {
		binary = DefaultBinaryPath
	}
	info, err := os.Stat(binary)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("pwrstat is not installed at %q: %w", binary, ErrMissingBinary)
	}
	logger := log.WithComponent("pwrstat.reader")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &ExecReader{
		binary:  binary,
		sudo:    opts.UseSudo,
		timeout: opts.Timeout,
		limiter: opts.Limiter,
		logger:  logger,
	}, nil
}

// Read runs `[sudo] pwrstat <args...>` and returns the trimmed stdout
// followed by the trimmed stderr. A non-zero exit is a *CommandError; a
// hit deadline maps to ErrTimeout.
func (r *ExecReader) Read(ctx context.Context, args ...string) (string, error) {
	command := commandLabel(args)

	tracer := telemetry.Tracer("gowrstat.pwrstat")
	ctx, span := tracer.Start(ctx, "gowrstat.pwrstat.exec", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(telemetry.CommandKey, command),
		attribute.Bool(telemetry.CommandSudoKey, r.sudo),
	)
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("waiting for command slot: %w", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	name := r.binary
	argv := args
	if r.sudo {
		name = "sudo"
		argv = append([]string{r.binary}, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A hit deadline must take pwrstat down with sudo, not just sudo.
	procgroup.Set(cmd)
	cmd.Cancel = func() error { return procgroup.Kill(cmd) }

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	metrics.ObserveCommand(command, elapsed.Seconds())

	output := strings.TrimSpace(stdout.String()) + strings.TrimSpace(stderr.String())

	if runErr != nil {
		metrics.IncCommandFailure(command)
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.RecordError(ctxErr)
			span.SetStatus(codes.Error, "deadline exceeded")
			r.logger.Warn().
				Str(log.FieldCommand, command).
				Dur(log.FieldDuration, elapsed).
				Msg("pwrstat invocation hit its deadline")
			return "", fmt.Errorf("pwrstat %s after %s: %w", command, elapsed.Round(time.Millisecond), ErrTimeout)
		}
		cmdErr := &CommandError{Args: args, Output: output, Err: runErr}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		span.SetAttributes(telemetry.CommandAttributes(command, cmdErr.ExitCode, elapsed)...)
		span.SetAttributes(telemetry.ErrorAttributes(cmdErr, "command_failed")...)
		span.RecordError(cmdErr)
		span.SetStatus(codes.Error, "non-zero exit")
		r.logger.Error().
			Str(log.FieldCommand, command).
			Int(log.FieldExitCode, cmdErr.ExitCode).
			Dur(log.FieldDuration, elapsed).
			Msg("pwrstat invocation failed")
		return "", cmdErr
	}

	span.SetAttributes(telemetry.CommandAttributes(command, 0, elapsed)...)
	span.SetStatus(codes.Ok, "")
	r.logger.Debug().
		Str(log.FieldCommand, command).
		Dur(log.FieldDuration, elapsed).
		Msg("pwrstat invocation completed")
	return output, nil
}

// commandLabel is the metric/log label for an invocation: the first
// argument without its dash ("-status" -> "status").
func commandLabel(args []string) string {
	if len(args) == 0 {
		return "none"
	}
	return strings.TrimPrefix(args[0], "-")
}
