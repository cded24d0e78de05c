// Package handler exposes the generation pipeline over plain JSON
// endpoints plus a websocket for the refinement chat. The handlers own
// no business logic; they translate HTTP into pipeline calls.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"autocontent/internal/artifact"
	"autocontent/internal/entitlement"
	"autocontent/internal/pipeline"
	"autocontent/internal/profile"
	"autocontent/internal/template"
	"autocontent/internal/wizard"
)

// Handlers bundles the dependencies shared by all endpoints.
type Handlers struct {
	registry    *template.Registry
	catalogPath string
	pipeline    *pipeline.Service
	profiles    profile.Store
	artifacts   artifact.Store
	runs        *RunStore
	timeout     time.Duration
}

func New(registry *template.Registry, catalogPath string, pipe *pipeline.Service, profiles profile.Store, artifacts artifact.Store, timeout time.Duration) *Handlers {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Handlers{
		registry:    registry,
		catalogPath: catalogPath,
		pipeline:    pipe,
		profiles:    profiles,
		artifacts:   artifacts,
		runs:        NewRunStore(),
		timeout:     timeout,
	}
}

func (h *Handlers) catalog() (*template.Catalog, error) {
	return h.registry.Resolve(h.catalogPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: write response: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps pipeline errors onto HTTP statuses with stable
// machine-readable codes. Unknown errors are logged and collapsed into
// a generic message; raw upstream detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var vErr *wizard.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "validation", Message: vErr.Message})
	case errors.Is(err, profile.ErrInsufficientCredits):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Code: "insufficient_credits", Message: "not enough credits for this generation"})
	case errors.Is(err, entitlement.ErrTierRequired):
		writeJSON(w, http.StatusForbidden, errorBody{Code: "tier_required", Message: "your plan does not include this feature"})
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, artifact.ErrNotFound), errors.Is(err, errRunNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "resource not found"})
	case errors.Is(err, errRunBusy):
		writeJSON(w, http.StatusConflict, errorBody{Code: "busy", Message: errRunBusy.Error()})
	default:
		log.Printf("handler: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "service unavailable, try again"})
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
