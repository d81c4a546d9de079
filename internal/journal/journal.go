// SPDX-License-Identifier: MIT

// Package journal persists monitor events to SQLite so that power
// incidents survive daemon restarts and can be queried over the API.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go driver

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/metrics"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

const (
	busyTimeout  = 5 * time.Second
	maxOpenConns = 10

	schemaVersion = 1
)

// Entry is one journaled event row. Previous and New hold what changed:
// the old and new field values for a value change, the last-known and
// current status snapshots for a reachability change.
type Entry struct {
	ID        string          `json:"id"`
	Time      time.Time       `json:"time"`
	Kind      string          `json:"kind"`
	Field     string          `json:"field,omitempty"`
	Previous  json.RawMessage `json:"previous,omitempty"`
	New       json.RawMessage `json:"new,omitempty"`
	Reachable *bool           `json:"reachable,omitempty"`
}

// Store is an append-mostly event journal on a single SQLite file.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the journal database and bootstraps the
// schema. An existing file that fails a quick integrity check is moved
// aside and replaced with a fresh one: losing history must never keep the
// daemon from starting.
func Open(path string) (*Store, error) {
	logger := log.WithComponent("journal")

	if moved, err := quarantineIfCorrupt(path, logger); err != nil {
		return nil, err
	} else if moved != "" {
		logger.Error().
			Str(log.FieldPath, path).
			Str("moved_to", moved).
			Msg("journal failed integrity check, starting fresh")
	}

	// The _pragma DSN form applies to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open failed: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping failed: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.bootstrap(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().Str(log.FieldPath, path).Msg("journal opened")
	return s, nil
}

func (s *Store) bootstrap() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("journal: read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	const schema = `
CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	ts        INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	field     TEXT,
	previous  TEXT,
	"new"     TEXT,
	reachable INTEGER
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("journal: create schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("journal: set schema version: %w", err)
	}
	return nil
}

// Append writes one monitor event. Failures are returned but callers are
// expected to log and carry on; journaling must not stall monitoring.
func (s *Store) Append(ctx context.Context, ev pwrstat.Event) error {
	err := s.append(ctx, ev)
	if err != nil {
		metrics.IncJournalAppendFailure()
	}
	return err
}

func (s *Store) append(ctx context.Context, ev pwrstat.Event) error {
	id := uuid.NewString()
	ts := time.Now().Unix()

	switch md := ev.Metadata.(type) {
	case pwrstat.ValueChanged:
		previous, err := json.Marshal(md.PreviousValue)
		if err != nil {
			return fmt.Errorf("journal: encode previous value: %w", err)
		}
		current, err := json.Marshal(md.NewValue)
		if err != nil {
			return fmt.Errorf("journal: encode new value: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO events (id, ts, kind, field, previous, "new") VALUES (?, ?, ?, ?, ?, ?)`,
			id, ts, pwrstat.EventTypeValueChanged, md.FieldName, string(previous), string(current))
		if err != nil {
			return fmt.Errorf("journal: insert value change: %w", err)
		}
		return nil

	case pwrstat.ReachabilityChanged:
		previous, err := marshalNullable(ev.PreviousState)
		if err != nil {
			return fmt.Errorf("journal: encode previous state: %w", err)
		}
		current, err := marshalNullable(ev.NewState)
		if err != nil {
			return fmt.Errorf("journal: encode new state: %w", err)
		}
		reachable := 0
		if md.Reachable {
			reachable = 1
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO events (id, ts, kind, previous, "new", reachable) VALUES (?, ?, ?, ?, ?, ?)`,
			id, ts, pwrstat.EventTypeReachabilityChanged, previous, current, reachable)
		if err != nil {
			return fmt.Errorf("journal: insert reachability change: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("journal: unknown event metadata %T", ev.Metadata)
	}
}

func marshalNullable(status *pwrstat.UPSStatus) (sql.NullString, error) {
	if status == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(status)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	// rowid breaks ties for events journaled within the same second.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, field, previous, "new", reachable FROM events ORDER BY ts DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			ts        int64
			field     sql.NullString
			previous  sql.NullString
			current   sql.NullString
			reachable sql.NullInt64
		)
		if err := rows.Scan(&entry.ID, &ts, &entry.Kind, &field, &previous, &current, &reachable); err != nil {
			return nil, fmt.Errorf("journal: scan row: %w", err)
		}
		entry.Time = time.Unix(ts, 0).UTC()
		if field.Valid {
			entry.Field = field.String
		}
		if previous.Valid {
			entry.Previous = json.RawMessage(previous.String)
		}
		if current.Valid {
			entry.New = json.RawMessage(current.String)
		}
		if reachable.Valid {
			v := reachable.Int64 == 1
			entry.Reachable = &v
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate rows: %w", err)
	}
	return entries, nil
}

// Prune deletes events older than olderThan and reports how many went.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("journal: prune count: %w", err)
	}
	if pruned > 0 {
		metrics.AddJournalPruned(pruned)
	}
	return pruned, nil
}

// RunPruner deletes expired events every interval until ctx is done.
func (s *Store) RunPruner(ctx context.Context, interval, retention time.Duration) {
	s.logger.Info().
		Dur("interval", interval).
		Dur("retention", retention).
		Msg("journal pruner started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("journal pruner stopped")
			return
		case <-ticker.C:
			pruned, err := s.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error().Err(err).Msg("journal prune failed")
				continue
			}
			if pruned > 0 {
				s.logger.Info().Int64("events", pruned).Msg("journal pruned")
			}
		}
	}
}

// Ping verifies the database answers queries; used by the health checker.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("journal: ping: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
