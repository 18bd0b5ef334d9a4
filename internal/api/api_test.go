package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/epistemicgarden/cultivator/internal/cultivate"
	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/infer"
	"github.com/epistemicgarden/cultivator/internal/ingest"
	"github.com/epistemicgarden/cultivator/internal/kb"
)

func newTestHandler() *Handler {
	store := kb.NewStore(kb.Config{EmbeddingDim: 64})
	bus := event.New()
	embedder := embed.NewLocalEmbedder(64)
	o := cultivate.New(store, embedder, bus, cultivate.Config{
		InferConfig:   infer.Config{MaxDerivationsPerCycle: 10},
		GerminateTopN: 5,
	})
	pipeline := ingest.NewPipeline(ingest.PlainTextExtractor{}, o, bus, 500)
	return NewHandler(store, pipeline, embedder, bus, nil)
}

func TestIngestText_CreatesConceptsAndReturnsSummary(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	body, _ := json.Marshal(ingestTextRequest{Text: "A cat is an animal."})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/text", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp ingestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ConceptsTotal == 0 {
		t.Error("expected at least one concept created")
	}
}

func TestIngestText_RejectsEmptyText(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	body, _ := json.Marshal(ingestTextRequest{Text: ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/text", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQuery_ReturnsSeededConcept(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	ingestBody, _ := json.Marshal(ingestTextRequest{Text: "A cat is an animal."})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/text", bytes.NewReader(ingestBody))
	r.ServeHTTP(httptest.NewRecorder(), req)

	queryBody, _ := json.Marshal(queryRequest{Text: "cat", K: 5})
	qreq := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(queryBody))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, qreq)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatus_ReportsCounts(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Ready {
		t.Error("expected ready=true")
	}
}

func TestSnapshotAndRestore_RoundTrip(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	ingestBody, _ := json.Marshal(ingestTextRequest{Text: "A cat is an animal."})
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/text", bytes.NewReader(ingestBody))
	r.ServeHTTP(httptest.NewRecorder(), req)

	snapReq := httptest.NewRequest(http.MethodPost, "/v1/snapshot", nil)
	snapW := httptest.NewRecorder()
	r.ServeHTTP(snapW, snapReq)
	if snapW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", snapW.Code)
	}

	freshStore := kb.NewStore(kb.Config{EmbeddingDim: 64})
	h.store = freshStore
	concepts, _ := freshStore.Len()
	if concepts != 0 {
		t.Fatal("expected a fresh store to start empty")
	}

	restoreReq := httptest.NewRequest(http.MethodPost, "/v1/restore", bytes.NewReader(snapW.Body.Bytes()))
	restoreW := httptest.NewRecorder()
	r.ServeHTTP(restoreW, restoreReq)
	if restoreW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", restoreW.Code, restoreW.Body.String())
	}

	concepts, _ = freshStore.Len()
	if concepts == 0 {
		t.Error("expected restore to repopulate the store")
	}
}

func TestSubscribeEvents_StreamsIngestEvents(t *testing.T) {
	h := newTestHandler()
	r := NewRouter(h)

	ctx, cancel := context.WithCancel(context.Background())
	sseReq := httptest.NewRequest(http.MethodGet, "/v1/events", nil).WithContext(ctx)
	sseW := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(sseW, sseReq)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	ingestBody, _ := json.Marshal(ingestTextRequest{Text: "A cat is an animal."})
	ingestReq := httptest.NewRequest(http.MethodPost, "/v1/ingest/text", bytes.NewReader(ingestBody))
	r.ServeHTTP(httptest.NewRecorder(), ingestReq)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(sseW.Body.String(), "event: started") {
		t.Errorf("expected SSE stream to contain a started event, got %q", sseW.Body.String())
	}
}
