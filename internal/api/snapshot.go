package api

import (
	"io"
	"net/http"
)

// Snapshot handles POST /v1/snapshot — spec.md §6 `snapshot()`: returns the
// full serialised concept/link graph as the response body. If an audit log
// is configured the same bytes are also persisted under the "latest"
// label, so a restart can recover via Restore without the caller having
// kept a copy.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "snapshot failed: "+err.Error())
		return
	}
	if h.audit != nil {
		if _, saveErr := h.audit.SaveSnapshot(r.Context(), "latest", data); saveErr != nil {
			writeError(w, http.StatusInternalServerError, "snapshot persist failed: "+saveErr.Error())
			return
		}
	}
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Restore handles POST /v1/restore — spec.md §6 `restore(bytes)`: the
// request body is a snapshot produced by Snapshot, and replaces the
// store's entire state. An empty body falls back to the most recently
// saved "latest" snapshot in the audit log, if one is configured — the
// recovery path a fresh process takes on startup.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(data) == 0 {
		if h.audit == nil {
			writeError(w, http.StatusBadRequest, "snapshot body is required")
			return
		}
		data, err = h.audit.LoadSnapshot(r.Context(), "latest")
		if err != nil {
			writeError(w, http.StatusNotFound, "no saved snapshot to restore")
			return
		}
	}

	if err := h.store.Restore(data); err != nil {
		writeError(w, http.StatusBadRequest, "restore failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
