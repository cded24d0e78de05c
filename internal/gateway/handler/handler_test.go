package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocontent/internal/artifact"
	"autocontent/internal/entitlement"
	"autocontent/internal/llm"
	"autocontent/internal/pipeline"
	"autocontent/internal/profile"
	"autocontent/internal/template"
)

type echoGen struct{}

func (echoGen) GenerateText(_ context.Context, directive string) llm.Outcome {
	return llm.Outcome{Status: llm.StatusOK, Content: "ECHO: " + directive}
}

func (echoGen) GenerateDocument(_ context.Context, directive string) llm.Outcome {
	return llm.Outcome{Status: llm.StatusOK, Content: "<!DOCTYPE html><html>" + directive + "</html>"}
}

// flakyGen fails every call until recovered.
type flakyGen struct {
	failing bool
}

func (g *flakyGen) GenerateText(ctx context.Context, directive string) llm.Outcome {
	if g.failing {
		return llm.Outcome{Status: llm.StatusFailed, Err: context.DeadlineExceeded}
	}
	return echoGen{}.GenerateText(ctx, directive)
}

func (g *flakyGen) GenerateDocument(ctx context.Context, directive string) llm.Outcome {
	if g.failing {
		return llm.Outcome{Status: llm.StatusFailed, Err: context.DeadlineExceeded}
	}
	return echoGen{}.GenerateDocument(ctx, directive)
}

type testEnv struct {
	srv       *httptest.Server
	profiles  *profile.MemoryStore
	artifacts *artifact.MemoryStore
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWith(t, echoGen{})
}

func newEnvWith(t *testing.T, gen pipeline.TextGenerator) *testEnv {
	t.Helper()
	registry, err := template.NewRegistry(4)
	require.NoError(t, err)

	profiles := profile.NewMemoryStore()
	artifacts := artifact.NewMemoryStore()
	pipe := pipeline.New(entitlement.NewGate(profiles), gen, artifacts)

	h := New(registry, "", pipe, profiles, artifacts, 5*time.Second)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, profiles: profiles, artifacts: artifacts}
}

func (e *testEnv) seed(t *testing.T, p profile.Profile) {
	t.Helper()
	require.NoError(t, e.profiles.Upsert(context.Background(), p))
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func stepID(t *testing.T, body map[string]any) string {
	t.Helper()
	state, ok := body["state"].(map[string]any)
	require.True(t, ok, "missing state in %v", body)
	step, ok := state["step"].(map[string]any)
	require.True(t, ok, "missing step in %v", state)
	id, _ := step["id"].(string)
	return id
}

func TestWizardFlowProducesArtifact(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanCreditsPack, Credits: 3})

	resp, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	runID, _ := body["run_id"].(string)
	require.NotEmpty(t, runID)
	assert.Equal(t, "product", stepID(t, body))

	submit := func(answer map[string]any) (*http.Response, map[string]any) {
		return env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
			map[string]any{"answer": answer})
	}

	resp, body = submit(map[string]any{"text": "an ebook"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audience", stepID(t, body))

	resp, _ = submit(map[string]any{"text": "new parents"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = submit(map[string]any{"text": "friendly"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["outcome"])

	art, ok := body["artifact"].(map[string]any)
	require.True(t, ok, "missing artifact in %v", body)
	content, _ := art["content"].(string)
	assert.Contains(t, content, "[What are you selling?]: an ebook")
	assert.Contains(t, content, "[Who is your ideal customer?]: new parents")
	assert.Contains(t, content, "[Which tone fits your brand?]: friendly")

	// One text credit consumed.
	assert.Equal(t, float64(2), body["credits"])

	// The artifact is listed for its owner.
	resp, body = env.do(t, http.MethodGet, "/api/artifacts?user_id=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, _ := body["artifacts"].([]any)
	require.Len(t, list, 1)
}

func TestFailedGenerationCanBeRetried(t *testing.T) {
	gen := &flakyGen{failing: true}
	env := newEnvWith(t, gen)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanMonthly})

	_, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	runID, _ := body["run_id"].(string)
	require.NotEmpty(t, runID)

	answers := []string{"an ebook", "new parents", "friendly"}
	for _, answer := range answers[:2] {
		resp, _ := env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
			map[string]any{"answer": map[string]any{"text": answer}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// The final submit completes the wizard but the generation fails.
	resp, _ := env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
		map[string]any{"answer": map[string]any{"text": answers[2]}})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The run is still addressable and has no artifact yet.
	resp, _ = env.do(t, http.MethodGet, "/api/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Once the upstream recovers, submitting again retries with the
	// recorded answers instead of reporting a dead session.
	gen.failing = false
	resp, body = env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["outcome"])

	art, ok := body["artifact"].(map[string]any)
	require.True(t, ok, "missing artifact in %v", body)
	content, _ := art["content"].(string)
	assert.Contains(t, content, "[What are you selling?]: an ebook")
	assert.Contains(t, content, "[Which tone fits your brand?]: friendly")
}

func TestValidationErrorKeepsStep(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanMonthly})

	_, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	runID, _ := body["run_id"].(string)

	resp, errBody := env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
		map[string]any{"answer": map[string]any{"text": "   "}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", errBody["code"])

	_, body = env.do(t, http.MethodGet, "/api/runs/"+runID, nil)
	assert.Equal(t, "product", stepID(t, body))
}

func TestStartRunRefusals(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "free", Plan: profile.PlanFree, Credits: 5})
	env.seed(t, profile.Profile{ID: "broke", Plan: profile.PlanCreditsPack, Credits: 0})

	resp, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "free", "template_id": "no-such-template"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])

	resp, body = env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "free", "template_id": "launch-agent-360"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "tier_required", body["code"])

	resp, body = env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "broke", "template_id": "sales-copy"})
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "insufficient_credits", body["code"])

	resp, body = env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "ghost", "template_id": "sales-copy"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestBackOnFirstStepDiscardsRun(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanMonthly})

	_, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	runID, _ := body["run_id"].(string)

	resp, body := env.do(t, http.MethodPost, "/api/runs/"+runID+"/back", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["exited"])

	resp, _ = env.do(t, http.MethodGet, "/api/runs/"+runID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefineOverHTTP(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanMonthly})

	_, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	runID, _ := body["run_id"].(string)

	for _, answer := range []string{"an ebook", "new parents", "friendly"} {
		resp, _ := env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
			map[string]any{"answer": map[string]any{"text": answer}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodPost, "/api/runs/"+runID+"/refine",
		map[string]string{"instruction": "make it shorter"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content, _ := body["content"].(string)
	assert.Contains(t, content, "WHAT TO CHANGE (USER INSTRUCTION):\nmake it shorter")
}

func TestRefineRequiresSubscription(t *testing.T) {
	env := newEnv(t)
	env.seed(t, profile.Profile{ID: "u1", Plan: profile.PlanCreditsPack, Credits: 50})

	_, body := env.do(t, http.MethodPost, "/api/runs",
		map[string]string{"user_id": "u1", "template_id": "sales-copy"})
	runID, _ := body["run_id"].(string)

	for _, answer := range []string{"an ebook", "new parents", "friendly"} {
		resp, _ := env.do(t, http.MethodPost, "/api/runs/"+runID+"/submit",
			map[string]any{"answer": map[string]any{"text": answer}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, errBody := env.do(t, http.MethodPost, "/api/runs/"+runID+"/refine",
		map[string]string{"instruction": "shorter"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "tier_required", errBody["code"])
}

func TestListTemplates(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, _ := body["templates"].([]any)
	require.NotEmpty(t, list)
}

func TestDeleteArtifact(t *testing.T) {
	env := newEnv(t)
	a := &artifact.Artifact{UserID: "u1", Kind: template.OutputText, Content: "c"}
	require.NoError(t, env.artifacts.Insert(context.Background(), a))

	resp, _ := env.do(t, http.MethodDelete, fmt.Sprintf("/api/artifacts/%s", a.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/artifacts/%s", a.ID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}
