// SPDX-License-Identifier: MIT

package journal

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// VerifyIntegrity checks the journal file for structural corruption.
// Mode is "quick" (PRAGMA quick_check) or "full" (PRAGMA integrity_check).
// It returns the diagnostic rows when corruption is found, nil when
// healthy.
func VerifyIntegrity(path, mode string) ([]string, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open for verification: %w", err)
	}
	defer db.Close()

	pragma := "PRAGMA quick_check;"
	if mode == "full" {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := db.Query(pragma)
	if err != nil {
		return nil, fmt.Errorf("journal: integrity pragma failed: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("journal: scan integrity result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate integrity results: %w", err)
	}

	// Healthy is exactly one row saying "ok".
	if len(results) == 1 && strings.EqualFold(results[0], "ok") {
		return nil, nil
	}
	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}
	return results, nil
}

// quarantineIfCorrupt moves a corrupt journal file out of the way and
// returns the new location, or "" when the file is absent or healthy.
func quarantineIfCorrupt(path string, logger zerolog.Logger) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("journal: stat %s: %w", path, err)
	}

	issues, err := VerifyIntegrity(path, "quick")
	if err != nil {
		// A file that cannot even be read as SQLite counts as corrupt.
		logger.Warn().Err(err).Msg("journal unreadable")
		issues = []string{err.Error()}
	}
	if issues == nil {
		return "", nil
	}

	logger.Warn().Strs("issues", issues).Msg("journal integrity check failed")

	moved := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.Rename(path, moved); err != nil {
		return "", fmt.Errorf("journal: quarantine corrupt file: %w", err)
	}
	// WAL sidecars belong to the damaged file.
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return moved, nil
}
