package handler

import (
	"net/http"

	"autocontent/internal/gateway/middleware"
)

// Routes builds the full API mux wrapped in CORS.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/templates", h.ListTemplates)

	mux.HandleFunc("POST /api/runs", h.StartRun)
	mux.HandleFunc("GET /api/runs/{id}", h.RunState)
	mux.HandleFunc("POST /api/runs/{id}/submit", h.SubmitStep)
	mux.HandleFunc("POST /api/runs/{id}/back", h.StepBack)
	mux.HandleFunc("POST /api/runs/{id}/images", h.AppendImage)
	mux.HandleFunc("POST /api/runs/{id}/refine", h.Refine)
	mux.HandleFunc("GET /api/runs/{id}/chat", h.RefinementChat)

	mux.HandleFunc("GET /api/artifacts", h.ListArtifacts)
	mux.HandleFunc("GET /api/artifacts/{id}", h.GetArtifact)
	mux.HandleFunc("DELETE /api/artifacts/{id}", h.DeleteArtifact)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return middleware.CORS(mux)
}
