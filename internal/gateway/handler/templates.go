package handler

import "net/http"

// ListTemplates returns the full template catalog.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": cat.List()})
}
