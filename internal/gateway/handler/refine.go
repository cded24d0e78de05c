package handler

import (
	"context"
	"net/http"
	"strings"
)

type refineRequest struct {
	Instruction string `json:"instruction"`
}

type refineResponse struct {
	RunID   string `json:"run_id"`
	Content string `json:"content"`
}

// Refine applies one refinement instruction to a finished run's
// artifact over plain HTTP, for clients that do not hold the chat
// socket open.
func (h *Handlers) Refine(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errRunNotFound)
		return
	}
	if run.Artifact == nil {
		writeJSON(w, http.StatusConflict, errorBody{Code: "no_artifact", Message: "run has not produced an artifact yet"})
		return
	}
	var req refineRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "instruction is required"})
		return
	}
	if !run.begin() {
		writeError(w, errRunBusy)
		return
	}
	defer run.end()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	out, err := h.pipeline.Refine(ctx, run.User, run.Template, run.Artifact, instruction, &run.Transcript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refineResponse{RunID: run.ID, Content: out.Content})
}
