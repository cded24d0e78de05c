// Package llm obtains generated artifacts from external completion
// services. A primary/secondary pair of text clients is wrapped into a
// fallback client that reports a tagged outcome instead of raising
// upstream errors at callers.
package llm

import (
	"context"
	"errors"
)

// TextClient produces a completion for a fully assembled directive.
type TextClient interface {
	Name() string
	GenerateText(ctx context.Context, directive string) (string, error)
	Close() error
}

// ErrEmptyCompletion indicates the upstream answered without content.
var ErrEmptyCompletion = errors.New("llm: empty completion from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Status classifies a generation outcome.
type Status string

const (
	// StatusOK means the upstream produced a real completion.
	StatusOK Status = "ok"
	// StatusDegraded means every endpoint failed and Content carries
	// the fixed user-safe fallback text.
	StatusDegraded Status = "degraded"
	// StatusFailed means no content could be produced at all.
	StatusFailed Status = "failed"
)

// Outcome is the tagged result of a generation call, letting callers
// distinguish a real answer from safe filler.
type Outcome struct {
	Status  Status
	Content string
	Err     error
}

// Usable reports whether Content may be shown to the user.
func (o Outcome) Usable() bool { return o.Status != StatusFailed }

func okOutcome(content string) Outcome {
	return Outcome{Status: StatusOK, Content: content}
}

func degradedOutcome(content string, err error) Outcome {
	return Outcome{Status: StatusDegraded, Content: content, Err: err}
}
