// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

// Canonical header and JSON key for request correlation. Must stay
// consistent across middleware, the problem writer and tests.
const (
	HeaderRequestID  = "X-Request-ID"
	jsonKeyRequestID = "requestId"
)

// APIError pairs a stable machine-readable code with a human label.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Common API error definitions.
var (
	ErrUnauthorized = &APIError{
		Code:    "UNAUTHORIZED",
		Message: "Authentication required",
	}
	ErrUPSUnreachable = &APIError{
		Code:    "UPS_UNREACHABLE",
		Message: "Lost communication with the UPS",
	}
	ErrUPSNotReady = &APIError{
		Code:    "UPS_NOT_READY",
		Message: "The UPS cannot perform this operation right now",
	}
	ErrCommandTimeout = &APIError{
		Code:    "COMMAND_TIMEOUT",
		Message: "pwrstat did not answer in time",
	}
	ErrCommandFailed = &APIError{
		Code:    "COMMAND_FAILED",
		Message: "pwrstat rejected the command",
	}
	ErrOutputUnparsable = &APIError{
		Code:    "OUTPUT_UNPARSABLE",
		Message: "pwrstat produced output this daemon cannot parse",
	}
	ErrPwrstatMissing = &APIError{
		Code:    "PWRSTAT_MISSING",
		Message: "The pwrstat binary is not installed",
	}
	ErrInvalidInput = &APIError{
		Code:    "INVALID_INPUT",
		Message: "Invalid input parameters",
	}
	ErrJournalDisabled = &APIError{
		Code:    "JOURNAL_DISABLED",
		Message: "The event journal is not enabled",
	}
	ErrRateLimitExceeded = &APIError{
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "Rate limit exceeded - too many requests",
	}
	ErrInternalServer = &APIError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "An internal error occurred",
	}
)

// writeJSON writes a JSON response with the given status code. If
// encoding fails the headers are already sent, so the error is only
// logged.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.Base()
		logger.Error().Err(err).Int("status", code).
			Msg("failed to encode JSON response")
	}
}

// writeProblem writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: prefixed lowercase code ("error/ups_unreachable")
//   - title: human-readable short label (APIError.Message)
//   - code: stable machine-readable short code (APIError.Code)
//   - detail: optional explanation of the specific failure
func writeProblem(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":           "error/" + strings.ToLower(apiErr.Code),
		"title":          apiErr.Message,
		"status":         status,
		"code":           apiErr.Code,
		jsonKeyRequestID: reqID,
	}
	if detail != "" {
		res["detail"] = detail
	}
	if p := r.URL.EscapedPath(); p != "" {
		res["instance"] = p
	}

	w.Header().Set(HeaderRequestID, reqID)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.Base()
		logger.Error().Err(err).Str("code", apiErr.Code).Int("status", status).
			Msg("failed to encode problem response")
	}
}

// respondPwrstatError maps the pwrstat error taxonomy onto HTTP statuses.
// Unreachable is checked before not-ready: unreachable errors match both.
func respondPwrstatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pwrstat.ErrUnreachable):
		writeProblem(w, r, http.StatusServiceUnavailable, ErrUPSUnreachable, "")
	case errors.Is(err, pwrstat.ErrNotReady):
		writeProblem(w, r, http.StatusConflict, ErrUPSNotReady, "")
	case errors.Is(err, pwrstat.ErrTimeout):
		writeProblem(w, r, http.StatusGatewayTimeout, ErrCommandTimeout, "")
	case errors.Is(err, pwrstat.ErrParse):
		writeProblem(w, r, http.StatusBadGateway, ErrOutputUnparsable, "")
	case errors.Is(err, pwrstat.ErrMissingBinary):
		writeProblem(w, r, http.StatusServiceUnavailable, ErrPwrstatMissing, "")
	case errors.Is(err, pwrstat.ErrCommandFailed):
		writeProblem(w, r, http.StatusBadGateway, ErrCommandFailed, "")
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Str(log.FieldEvent, "api.unexpected_error").
			Msg("unhandled error in request handler")
		writeProblem(w, r, http.StatusInternalServerError, ErrInternalServer, "")
	}
}
