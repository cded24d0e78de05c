package handler

import (
	"net/http"
	"strings"
)

// GetArtifact returns one artifact with its full content.
func (h *Handlers) GetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := h.artifacts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListArtifacts returns a user's saved artifacts, newest first. Bodies
// offloaded to object storage come back as metadata plus the preview;
// the full content is fetched per artifact.
func (h *Handlers) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "user_id is required"})
		return
	}
	list, err := h.artifacts.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": list})
}

// DeleteArtifact removes an artifact and any offloaded object.
func (h *Handlers) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	if err := h.artifacts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
