package handler

import (
	"context"
	"net/http"
	"strings"

	"autocontent/internal/llm"
	"autocontent/internal/template"
	"autocontent/internal/usersession"
	"autocontent/internal/wizard"
)

type startRunRequest struct {
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`
}

type stepView struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Step     template.Step `json:"step"`
	Prefill  *wizard.Answer `json:"prefill,omitempty"`
	Finished bool          `json:"finished"`
}

type runResponse struct {
	RunID     string        `json:"run_id"`
	State     *stepView     `json:"state,omitempty"`
	Artifact  any           `json:"artifact,omitempty"`
	Outcome   llm.Status    `json:"outcome,omitempty"`
	Credits   int           `json:"credits"`
	Unlimited bool          `json:"unlimited"`
}

// StartRun creates an account session and a wizard session for the
// requested template. Tier-locked templates are refused up front.
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.TemplateID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "user_id and template_id are required"})
		return
	}

	cat, err := h.catalog()
	if err != nil {
		writeError(w, err)
		return
	}
	tpl, ok := cat.Get(req.TemplateID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "template not found"})
		return
	}

	user := usersession.New(h.profiles)
	if err := user.Init(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.pipeline.Authorize(user, tpl); err != nil {
		user.Teardown()
		writeError(w, err)
		return
	}

	sess, err := wizard.NewSession(tpl, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	run := &Run{Template: tpl, Wizard: sess, User: user}
	h.runs.Add(run)
	writeJSON(w, http.StatusCreated, h.runView(run))
}

// RunState reports the current step (with any prefill) or the produced
// artifact for a finished run.
func (h *Handlers) RunState(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errRunNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.runView(run))
}

type submitRequest struct {
	Answer wizard.Answer `json:"answer"`
}

// SubmitStep validates and records the answer for the current step.
// Submitting the last step triggers the generation pipeline; the run
// refuses concurrent submissions while that is in flight. A failed
// generation leaves the run completed but artifact-less with the
// answers intact, and submitting again retries the generation.
func (h *Handlers) SubmitStep(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errRunNotFound)
		return
	}
	if !run.begin() {
		writeError(w, errRunBusy)
		return
	}
	defer run.end()

	if !run.Wizard.Completed() {
		var req submitRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "invalid JSON body"})
			return
		}
		if err := run.Wizard.Submit(req.Answer); err != nil {
			writeError(w, err)
			return
		}
		if !run.Wizard.Completed() {
			writeJSON(w, http.StatusOK, h.runView(run))
			return
		}
	} else if run.Artifact != nil {
		writeJSON(w, http.StatusOK, h.runView(run))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	a, out, err := h.pipeline.Generate(ctx, run.User, run.Template, run.Wizard.Answers())
	if err != nil {
		writeError(w, err)
		return
	}
	run.Artifact = a
	resp := h.runView(run)
	resp.Outcome = out.Status
	writeJSON(w, http.StatusOK, resp)
}

// StepBack moves the wizard to the previous step; on the first step
// the run is discarded, mirroring the UI navigating away.
func (h *Handlers) StepBack(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errRunNotFound)
		return
	}
	if exited := run.Wizard.Back(); exited {
		run.User.Teardown()
		h.runs.Remove(run.ID)
		writeJSON(w, http.StatusOK, map[string]any{"exited": true})
		return
	}
	writeJSON(w, http.StatusOK, h.runView(run))
}

type appendImageRequest struct {
	Payload string `json:"payload"`
}

// AppendImage adds one upload to the current multi-image step.
func (h *Handlers) AppendImage(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errRunNotFound)
		return
	}
	var req appendImageRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if err := run.Wizard.AppendImage(req.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.runView(run))
}

func (h *Handlers) runView(run *Run) runResponse {
	prof := run.User.Profile()
	resp := runResponse{
		RunID:     run.ID,
		Credits:   prof.Credits,
		Unlimited: prof.Unlimited(),
	}
	if run.Wizard.Completed() {
		resp.State = &stepView{
			Index:    run.Wizard.Len(),
			Total:    run.Wizard.Len(),
			Finished: true,
		}
		resp.Artifact = run.Artifact
		return resp
	}
	sv := &stepView{
		Index: run.Wizard.Index(),
		Total: run.Wizard.Len(),
		Step:  run.Wizard.Current(),
	}
	if pre, ok := run.Wizard.Prefill(); ok {
		sv.Prefill = &pre
	}
	resp.State = sv
	return resp
}
