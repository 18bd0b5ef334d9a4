// Package api exposes the knowledge core over HTTP: spec.md §6 names
// ingest_text, ingest_pdf, query, subscribe_events, snapshot, restore, and
// status as the surface a caller drives the cultivator through. Grounded
// on the teacher's internal/api/routes.go (chi.Mux wiring, one handler
// struct per concern) and internal/api/handlers/copilot_chat.go (the
// bufio.Writer + http.Flusher SSE pattern reused here for subscribe_events).
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/epistemicgarden/cultivator/internal/cultivate"
	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/ingest"
	"github.com/epistemicgarden/cultivator/internal/kb"
	auditstore "github.com/epistemicgarden/cultivator/internal/store"
)

// Handler holds every collaborator the HTTP surface drives. It is
// constructed once at wiring time in cmd/cultivator and handed to
// NewRouter, the way the teacher wires its domain services once inside
// NewRouter's /api/v1 route closure.
type Handler struct {
	store     *kb.Store
	pipeline  *ingest.Pipeline
	embedder  embed.Embedder
	bus       event.Bus
	audit     *auditstore.AuditLog
	startedAt time.Time
}

// NewHandler wires a Handler over its collaborators. audit may be nil if
// the server was started without a durable audit log configured.
func NewHandler(store *kb.Store, pipeline *ingest.Pipeline, embedder embed.Embedder, bus event.Bus, audit *auditstore.AuditLog) *Handler {
	return &Handler{store: store, pipeline: pipeline, embedder: embedder, bus: bus, audit: audit, startedAt: time.Now()}
}

// NewRouter builds the chi.Mux exposing h's endpoints, with the same
// global middleware stack (request ID, real IP, structured request
// logging, panic recovery) the teacher's NewRouter installs.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", h.Status)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest/text", h.IngestText)
		r.Post("/ingest/pdf", h.IngestPDF)
		r.Post("/query", h.Query)
		r.Get("/events", h.SubscribeEvents)
		r.Post("/snapshot", h.Snapshot)
		r.Post("/restore", h.Restore)
	})
	return r
}

type ingestTextRequest struct {
	Text string `json:"text"`
}

type ingestResponse struct {
	JobID         string `json:"job_id"`
	ChunkCount    int    `json:"chunk_count"`
	ChunksFailed  int    `json:"chunks_failed"`
	ConceptsTotal int    `json:"concepts_total"`
	LinksTotal    int    `json:"links_total"`
	DurationMS    int64  `json:"duration_ms"`
}

// IngestText handles POST /v1/ingest/text — spec.md §6 `ingest_text`.
func (h *Handler) IngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	jobID := uuid.New().String()
	summary, err := h.pipeline.IngestText(r.Context(), jobID, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingest failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, ingestSummaryToResponse(summary))
}

// IngestPDF handles POST /v1/ingest/pdf — spec.md §6 `ingest_pdf`. The
// request body is the raw PDF bytes (or already-extracted text when the
// configured Extractor is ingest.PlainTextExtractor), matching the
// teacher's preference for a raw-body upload over multipart for
// single-file endpoints.
func (h *Handler) IngestPDF(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.New().String()
	summary, err := h.pipeline.IngestPDF(r.Context(), jobID, r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingest failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, ingestSummaryToResponse(summary))
}

func ingestSummaryToResponse(s ingest.Summary) ingestResponse {
	return ingestResponse{
		JobID:         s.JobID,
		ChunkCount:    s.ChunkCount,
		ChunksFailed:  s.ChunksFailed,
		ConceptsTotal: s.ConceptsTotal,
		LinksTotal:    s.LinksTotal,
		DurationMS:    s.Duration.Milliseconds(),
	}
}

type queryRequest struct {
	Text string `json:"text"`
	K    int    `json:"k"`
}

type queryResultConcept struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Frequency    float64 `json:"frequency"`
	Confidence   float64 `json:"confidence"`
	Expectation  float64 `json:"expectation"`
	MentionCount int64   `json:"mention_count"`
	State        string  `json:"state"`
}

// Query handles POST /v1/query — spec.md §6 `query`: embed the request
// text and recall every concept whose embedding meets the configured
// query threshold, ranked by similarity and capped at k.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.K <= 0 {
		req.K = 10
	}

	vec, err := h.embedder.Embed(r.Context(), req.Text, embed.ModeQuery)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "embed failed: "+err.Error())
		return
	}

	concepts := h.store.QueryByEmbedding(vec, req.K)
	out := make([]queryResultConcept, len(concepts))
	for i, c := range concepts {
		out[i] = queryResultConcept{
			ID:           c.ID,
			Label:        c.DisplayLabel,
			Frequency:    c.Truth.Frequency(),
			Confidence:   c.Truth.Confidence(),
			Expectation:  c.Truth.Expectation(),
			MentionCount: c.MentionCount,
			State:        string(c.State),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

type statusResponse struct {
	Ready       bool  `json:"ready"`
	ModelLoaded bool  `json:"model_loaded"`
	KBConcepts  int   `json:"kb_concepts"`
	KBLinks     int   `json:"kb_links"`
	UptimeMS    int64 `json:"uptime_ms"`
}

// Status handles GET /status — spec.md §10's health surface: kb_concepts,
// kb_links, uptime, model_loaded, and ready.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	concepts, links := h.store.Len()
	modelLoaded := true
	if hc, ok := h.embedder.(interface{ HealthCheck(context.Context) error }); ok {
		modelLoaded = hc.HealthCheck(r.Context()) == nil
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Ready:       true,
		ModelLoaded: modelLoaded,
		KBConcepts:  concepts,
		KBLinks:     links,
		UptimeMS:    time.Since(h.startedAt).Milliseconds(),
	})
}
