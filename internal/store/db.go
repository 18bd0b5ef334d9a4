// Package store provides the append-only audit log spec.md §8 describes:
// every concept/link mutation and every cultivation event is recorded to
// a durable SQLite-backed log, kept entirely separate from the in-memory
// concept/link index itself (internal/kb), which spec.md §4.B is explicit
// stays in-memory for the lifetime of the process. Grounded on the
// teacher's internal/infra/sqlite package (db.go for the connection
// factory, migrate.go for the embed.FS migration runner) — both carried
// over nearly verbatim since the connection/migration concerns are
// identical, only the schema and the table this package writes to differ.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open connects to (creating if absent) a SQLite database at path,
// configured for a single-process append-heavy writer: WAL journalling so
// the live event stream never blocks on a slow audit-log read, a busy
// timeout rather than an immediate SQLITE_BUSY, and NORMAL synchronous
// since the audit log is a best-effort record, not the system of record
// the in-memory graph is.
//
// Use ":memory:" for tests; an in-memory database never persists across
// process restarts, which is fine for exercising the schema but not for
// production use.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("store.Open: parent directory %q does not exist", dir)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open %q: %w", path, err)
	}

	// The audit log is append-only from a single orchestrator goroutine at
	// a time (cultivate.Orchestrator already serialises writers), so one
	// connection is enough; a pool only adds idle-connection overhead.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: ping %q: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: migrate: %w", err)
	}
	return db, nil
}
