package store

import (
	"context"
	"testing"
	"time"

	"github.com/epistemicgarden/cultivator/internal/event"
)

func newTestAuditLog(t *testing.T) *AuditLog {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuditLog(db)
}

func TestAuditLog_RecordAndCount(t *testing.T) {
	log := newTestAuditLog(t)
	ctx := context.Background()

	if err := log.Record(ctx, "job-1", event.KindStarted, event.Started{JobID: "job-1", Source: "text"}); err != nil {
		t.Fatal(err)
	}

	var count int
	row := log.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events WHERE job_id = ?", "job-1")
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 audit row, got %d", count)
	}
}

func TestAuditLog_Follow_RecordsPublishedEvents(t *testing.T) {
	log := newTestAuditLog(t)
	bus := event.New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		log.Follow(ctx, bus)
		close(done)
	}()

	bus.Publish(event.KindStarted, event.Started{JobID: "job-2", Source: "pdf"})
	bus.Publish(event.KindCompleted, event.Completed{JobID: "job-2", ConceptsTotal: 3})

	deadline := time.Now().Add(time.Second)
	for {
		var count int
		row := log.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM audit_events WHERE job_id = ?", "job-2")
		if err := row.Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for audit rows, got %d", count)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}

func TestAuditLog_SaveAndLoadSnapshot(t *testing.T) {
	log := newTestAuditLog(t)
	ctx := context.Background()

	if _, err := log.SaveSnapshot(ctx, "latest", []byte(`{"version":1}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := log.SaveSnapshot(ctx, "latest", []byte(`{"version":2}`)); err != nil {
		t.Fatal(err)
	}

	data, err := log.LoadSnapshot(ctx, "latest")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":2}` {
		t.Errorf("expected the most recently saved snapshot, got %q", data)
	}
}

func TestAuditLog_LoadSnapshot_MissingLabelReturnsError(t *testing.T) {
	log := newTestAuditLog(t)
	if _, err := log.LoadSnapshot(context.Background(), "absent"); err == nil {
		t.Error("expected an error for a missing snapshot label")
	}
}
