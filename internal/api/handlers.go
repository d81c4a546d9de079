// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gowrstat/gowrstat/internal/cache"
	"github.com/gowrstat/gowrstat/internal/log"
)

// Bounds for the events listing.
const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

func (s *Server) handleUPSStatus(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, cache.KeyStatus, func(ctx context.Context) (any, error) {
		return s.deps.Client.Status(ctx)
	})
}

func (s *Server) handleUPSProperties(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, cache.KeyProperties, func(ctx context.Context) (any, error) {
		return s.deps.Client.Properties(ctx)
	})
}

func (s *Server) handleDaemonConfiguration(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, cache.KeyConfiguration, func(ctx context.Context) (any, error) {
		return s.deps.Client.DaemonConfiguration(ctx)
	})
}

// serveCached answers from the cache when the key is fresh, otherwise
// shells out through fetch and stores the rendered payload. Bytes are
// cached, not structs, so hits skip marshaling too.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, fetch func(context.Context) (any, error)) {
	ctx := r.Context()

	if payload, ok := s.deps.Cache.Get(ctx, key); ok {
		writeRawJSON(w, http.StatusOK, payload)
		return
	}

	v, err := fetch(ctx)
	if err != nil {
		respondPwrstatError(w, r, err)
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "api")
		logger.Error().Err(err).
			Str("cache_key", key).
			Msg("failed to marshal response payload")
		writeProblem(w, r, http.StatusInternalServerError, ErrInternalServer, "")
		return
	}

	s.deps.Cache.Set(ctx, key, payload, s.deps.Config.Get().Cache.TTL)
	writeRawJSON(w, http.StatusOK, payload)
}

func writeRawJSON(w http.ResponseWriter, code int, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(payload)
}

// handleEvents lists the most recent journaled monitor events, newest
// first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, ErrJournalDisabled, "")
		return
	}

	limit := defaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeProblem(w, r, http.StatusBadRequest, ErrInvalidInput,
				"limit must be a positive integer")
			return
		}
		if n > maxEventsLimit {
			n = maxEventsLimit
		}
		limit = n
	}

	entries, err := s.deps.Journal.Recent(r.Context(), limit)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Msg("failed to read event journal")
		writeProblem(w, r, http.StatusInternalServerError, ErrInternalServer, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": entries,
		"count":  len(entries),
	})
}
