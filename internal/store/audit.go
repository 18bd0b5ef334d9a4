package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/epistemicgarden/cultivator/internal/event"
)

// AuditLog persists a durable copy of every event the bus publishes,
// independent of any live subscriber — so a crash between cultivation
// cycles loses nothing a subscriber would otherwise have seen, matching
// spec.md §8's "the event stream is also the audit trail" framing.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog wraps an already-opened, already-migrated database handle.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record inserts one event as a JSON-encoded row. Payload must be
// JSON-marshalable; every payload type in internal/event is a plain
// struct of primitives, so this never fails in practice.
func (a *AuditLog) Record(ctx context.Context, jobID string, kind event.Kind, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: marshal payload for %s: %w", kind, err)
	}
	_, err = a.db.ExecContext(ctx,
		"INSERT INTO audit_events (job_id, kind, payload) VALUES (?, ?, ?)",
		jobID, string(kind), string(encoded))
	if err != nil {
		return fmt.Errorf("store: record %s: %w", kind, err)
	}
	return nil
}

// Follow subscribes to bus and records every event it publishes until ctx
// is cancelled or bus.Unsubscribe(ch) is called elsewhere. It is meant to
// run in its own goroutine for the lifetime of the server, the way the
// teacher's eventbus consumers are started once at wiring time and run
// until shutdown.
func (a *AuditLog) Follow(ctx context.Context, bus event.Bus) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			jobID := jobIDFromPayload(evt.Payload)
			if err := a.Record(ctx, jobID, evt.Kind, evt.Payload); err != nil {
				// Best-effort: a dropped audit row must never take down
				// the cultivation cycle that produced it.
				continue
			}
		}
	}
}

// jobIDFromPayload extracts the JobID field every event.* payload struct
// carries except QuestionGenerated, which has none — recorded under "".
func jobIDFromPayload(payload any) string {
	switch p := payload.(type) {
	case event.Started:
		return p.JobID
	case event.ChunkStarted:
		return p.JobID
	case event.ConceptCreated:
		return p.JobID
	case event.ConceptReinforced:
		return p.JobID
	case event.LinkCreated:
		return p.JobID
	case event.ChunkCompleted:
		return p.JobID
	case event.Completed:
		return p.JobID
	case event.Error:
		return p.JobID
	default:
		return ""
	}
}

// SaveSnapshot stores a named, timestamped copy of a kb.Store.Snapshot()
// blob for later Restore, independent of the live process's in-memory
// state — the only durability the in-memory concept/link index gets.
func (a *AuditLog) SaveSnapshot(ctx context.Context, label string, data []byte) (int64, error) {
	res, err := a.db.ExecContext(ctx, "INSERT INTO snapshots (label, data) VALUES (?, ?)", label, data)
	if err != nil {
		return 0, fmt.Errorf("store: save snapshot %q: %w", label, err)
	}
	return res.LastInsertId()
}

// LoadSnapshot returns the most recently saved snapshot blob for label, or
// sql.ErrNoRows if none exists.
func (a *AuditLog) LoadSnapshot(ctx context.Context, label string) ([]byte, error) {
	var data []byte
	row := a.db.QueryRowContext(ctx,
		"SELECT data FROM snapshots WHERE label = ? ORDER BY id DESC LIMIT 1", label)
	if err := row.Scan(&data); err != nil {
		return nil, fmt.Errorf("store: load snapshot %q: %w", label, err)
	}
	return data, nil
}
