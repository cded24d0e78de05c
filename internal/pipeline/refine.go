package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"autocontent/internal/artifact"
	"autocontent/internal/llm"
	"autocontent/internal/template"
	"autocontent/internal/usersession"
)

// refineMaxPrefix bounds how much of the prior artifact travels in the
// refinement directive, keeping oversized documents under upstream
// request limits.
const refineMaxPrefix = 16 << 10

// refineSystem is the editor persona used for text/document refinement.
const refineSystem = "You are a world-class senior editor. Refine the content below " +
	"following the user's instruction strictly. Keep the original formatting (if it " +
	"is HTML code, keep the structure and improve the design/content)."

// Exchange is one entry in the refinement transcript, kept purely for
// display; no control decision reads it.
type Exchange struct {
	Role string    `json:"role"` // "user" or "ai"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Transcript is the ordered refinement history of one artifact.
type Transcript []Exchange

func (t *Transcript) add(role, text string) {
	*t = append(*t, Exchange{Role: role, Text: text, At: time.Now().UTC()})
}

// Refine produces a replacement for an existing artifact from a
// natural-language instruction. The artifact's content is replaced in
// place; the persisted copy is updated best-effort. Refinement is a
// subscriber feature: the gate check is binary, with no credit debit.
func (s *Service) Refine(ctx context.Context, sess *usersession.Session, tpl *template.Template, a *artifact.Artifact, instruction string, transcript *Transcript) (llm.Outcome, error) {
	if !sess.Active() {
		return llm.Outcome{Status: llm.StatusFailed}, fmt.Errorf("pipeline: session is not initialized")
	}
	if err := s.gate.AuthorizeRefinement(sess.Profile()); err != nil {
		return llm.Outcome{Status: llm.StatusFailed}, err
	}

	if transcript != nil {
		transcript.add("user", instruction)
	}

	var out llm.Outcome
	switch a.Kind {
	case template.OutputImage:
		// There is no image-to-image edit upstream: the instruction is
		// folded into a fresh descriptive directive, so the result is
		// a different picture, not a minimal diff.
		directive := tpl.SystemPrompt + ". Revision request: " + instruction
		out = llm.Outcome{Status: llm.StatusOK, Content: s.imageURL(directive, s.aspect, llm.NewSeed())}
	case template.OutputSite:
		out = s.text.GenerateDocument(ctx, refineDirective(a.Content, instruction))
	default:
		out = s.text.GenerateText(ctx, refineDirective(a.Content, instruction))
	}
	if !out.Usable() {
		if transcript != nil {
			transcript.add("ai", "I had a problem applying your change. Please try again.")
		}
		return out, ErrUpstreamFailed
	}

	a.Content = out.Content
	if err := s.artifacts.UpdateContent(ctx, a.ID, a.Content); err != nil {
		log.Printf("pipeline: persist refinement failed for %s: %v", a.ID, err)
	}
	if transcript != nil {
		transcript.add("ai", "Changes applied. Check the result above.")
	}
	return out, nil
}

func refineDirective(current, instruction string) string {
	if len(current) > refineMaxPrefix {
		current = current[:refineMaxPrefix]
	}
	return refineSystem +
		"\n\nORIGINAL CONTENT:\n" + current +
		"\n\nWHAT TO CHANGE (USER INSTRUCTION):\n" + instruction
}
