// Package pipeline wires the wizard output through prompt assembly,
// the entitlement gate and the generation client, and persists the
// resulting artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"autocontent/internal/artifact"
	"autocontent/internal/entitlement"
	"autocontent/internal/llm"
	"autocontent/internal/prompt"
	"autocontent/internal/template"
	"autocontent/internal/usersession"
	"autocontent/internal/wizard"
)

// ErrUpstreamFailed means no content at all could be produced. The
// fallback text client normally degrades instead of failing, so this
// mostly surfaces from misconfigured or mocked generators.
var ErrUpstreamFailed = errors.New("pipeline: generation produced no content")

// TextGenerator is the text/document side of the generation client.
// *llm.Fallback satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, directive string) llm.Outcome
	GenerateDocument(ctx context.Context, directive string) llm.Outcome
}

// Service runs the generation pipeline for completed wizard sessions.
type Service struct {
	gate      *entitlement.Gate
	text      TextGenerator
	artifacts artifact.Store
	imageURL  func(directive string, aspect llm.Aspect, seed int) string
	aspect    llm.Aspect
}

// Option tweaks service construction.
type Option func(*Service)

// WithImageURLFunc overrides the image reference builder, mainly for
// tests.
func WithImageURLFunc(fn func(string, llm.Aspect, int) string) Option {
	return func(s *Service) { s.imageURL = fn }
}

// WithAspect sets the aspect ratio used for image artifacts.
func WithAspect(a llm.Aspect) Option {
	return func(s *Service) { s.aspect = a }
}

func New(gate *entitlement.Gate, text TextGenerator, artifacts artifact.Store, opts ...Option) *Service {
	s := &Service{
		gate:      gate,
		text:      text,
		artifacts: artifacts,
		imageURL:  llm.ImageURL,
		aspect:    llm.AspectSquare,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize runs the pre-generation admission checks for a template
// without side effects, so the caller can refuse to even start a
// wizard session for a locked template.
func (s *Service) Authorize(sess *usersession.Session, tpl *template.Template) error {
	if !sess.Active() {
		return fmt.Errorf("pipeline: session is not initialized")
	}
	prof := sess.Profile()
	if err := s.gate.AuthorizeTemplate(prof, tpl); err != nil {
		return err
	}
	return s.gate.Authorize(prof, tpl.OutputType)
}

// Generate turns a completed answer store into a persisted artifact.
// Admission is checked before any generation call; consumption is
// recorded after a successful one. A persistence failure does not void
// the generation: the artifact is still returned, unsaved.
func (s *Service) Generate(ctx context.Context, sess *usersession.Session, tpl *template.Template, answers wizard.Answers) (*artifact.Artifact, llm.Outcome, error) {
	if err := s.Authorize(sess, tpl); err != nil {
		return nil, llm.Outcome{Status: llm.StatusFailed}, err
	}

	d := prompt.Assemble(tpl, answers)
	var out llm.Outcome
	switch tpl.OutputType {
	case template.OutputImage:
		// The reference is constructed, not verified; display failure
		// is the UI's image-load-error path.
		out = llm.Outcome{Status: llm.StatusOK, Content: s.imageURL(d.ImageText(), s.aspect, llm.NewSeed())}
	case template.OutputSite:
		out = s.text.GenerateDocument(ctx, d.Text())
		if out.Status == llm.StatusOK {
			out.Content = prompt.Substitute(out.Content, d.Images)
		}
	default:
		out = s.text.GenerateText(ctx, d.Text())
	}
	if !out.Usable() {
		return nil, out, ErrUpstreamFailed
	}

	prof := sess.Profile()
	if err := s.gate.Charge(ctx, &prof, tpl.OutputType); err != nil {
		// The content already exists; losing the debit race is logged
		// and reconciled, not shown as a failure.
		log.Printf("pipeline: charge failed for %s: %v", prof.ID, err)
	}
	sess.SetProfile(prof)

	a := &artifact.Artifact{
		UserID:     prof.ID,
		TemplateID: tpl.ID,
		Title:      fmt.Sprintf("%s - %s", tpl.Title, time.Now().Format("2006-01-02")),
		Kind:       tpl.OutputType,
		Content:    out.Content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.artifacts.Insert(ctx, a); err != nil {
		log.Printf("pipeline: persist artifact failed: %v", err)
	}
	return a, out, nil
}
