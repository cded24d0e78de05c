package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocontent/internal/artifact"
	"autocontent/internal/entitlement"
	"autocontent/internal/llm"
	"autocontent/internal/profile"
	"autocontent/internal/template"
	"autocontent/internal/wizard"
)

func TestRefineReplacesContentAndRecordsTranscript(t *testing.T) {
	sess, store := newSession(t, profile.Profile{ID: "u", Plan: profile.PlanMonthly})
	gen := &echoGen{}
	artifacts := artifact.NewMemoryStore()
	svc := New(entitlement.NewGate(store), gen, artifacts)

	tpl := textTemplate()
	a, _, err := svc.Generate(context.Background(), sess, tpl, wizard.Answers{
		"product": wizard.Scalar("an ebook"),
	})
	require.NoError(t, err)
	v1 := a.Content

	var transcript Transcript
	out, err := svc.Refine(context.Background(), sess, tpl, a, "make it shorter", &transcript)
	require.NoError(t, err)
	require.Equal(t, llm.StatusOK, out.Status)

	// The editor directive carries the prior content and the instruction.
	assert.Contains(t, gen.lastText, "ORIGINAL CONTENT:")
	assert.Contains(t, gen.lastText, v1)
	assert.Contains(t, gen.lastText, "WHAT TO CHANGE (USER INSTRUCTION):\nmake it shorter")

	// Only the latest version survives, in memory and in the store.
	assert.NotEqual(t, v1, a.Content)
	saved, err := artifacts.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Content, saved.Content)

	require.Len(t, transcript, 2)
	assert.Equal(t, "user", transcript[0].Role)
	assert.Equal(t, "make it shorter", transcript[0].Text)
	assert.Equal(t, "ai", transcript[1].Role)
}

func TestRefineRequiresSubscription(t *testing.T) {
	sess, store := newSession(t, profile.Profile{ID: "u", Credits: 100, Plan: profile.PlanCreditsPack})
	gen := &echoGen{}
	svc := New(entitlement.NewGate(store), gen, artifact.NewMemoryStore())

	a := &artifact.Artifact{ID: "a1", Kind: template.OutputText, Content: "v1"}
	_, err := svc.Refine(context.Background(), sess, textTemplate(), a, "shorter", nil)
	require.ErrorIs(t, err, entitlement.ErrTierRequired)
	assert.Zero(t, gen.calls)
	assert.Equal(t, "v1", a.Content)
}

func TestRefineImageBuildsFreshReference(t *testing.T) {
	sess, store := newSession(t, profile.Profile{ID: "u", Plan: profile.PlanMonthly})
	gen := &echoGen{}
	tpl := &template.Template{
		ID:           "social-visual",
		Title:        "Visual",
		OutputType:   template.OutputImage,
		SystemPrompt: "Photography.",
		Steps: []template.Step{
			{ID: "subject", Kind: template.KindTextarea, Question: "Show?", Required: true},
		},
	}
	svc := New(entitlement.NewGate(store), gen, artifact.NewMemoryStore(),
		WithImageURLFunc(func(directive string, _ llm.Aspect, seed int) string {
			return fmt.Sprintf("img://%s|%d", directive, seed)
		}),
	)

	a := &artifact.Artifact{ID: "a1", Kind: template.OutputImage, Content: "img://old|1"}
	out, err := svc.Refine(context.Background(), sess, tpl, a, "add warmer light", nil)
	require.NoError(t, err)
	require.Equal(t, llm.StatusOK, out.Status)
	assert.Zero(t, gen.calls)
	assert.Contains(t, a.Content, "Photography.. Revision request: add warmer light")
}

func TestRefineDirectiveTruncatesHugeContent(t *testing.T) {
	huge := strings.Repeat("x", refineMaxPrefix+500)
	d := refineDirective(huge, "shorter")
	assert.Less(t, len(d), len(huge)+500)
	assert.Contains(t, d, "WHAT TO CHANGE (USER INSTRUCTION):\nshorter")
}

func TestRefineFailedOutcomeKeepsOriginal(t *testing.T) {
	sess, store := newSession(t, profile.Profile{ID: "u", Plan: profile.PlanMonthly})
	gen := &echoGen{outcome: &llm.Outcome{Status: llm.StatusFailed}}
	svc := New(entitlement.NewGate(store), gen, artifact.NewMemoryStore())

	a := &artifact.Artifact{ID: "a1", Kind: template.OutputText, Content: "v1"}
	var transcript Transcript
	_, err := svc.Refine(context.Background(), sess, textTemplate(), a, "shorter", &transcript)
	require.ErrorIs(t, err, ErrUpstreamFailed)
	assert.Equal(t, "v1", a.Content)
	require.Len(t, transcript, 2)
	assert.Equal(t, "ai", transcript[1].Role)
}
