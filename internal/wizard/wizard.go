// Package wizard drives a user through a template's steps one at a
// time, validating and recording each answer. A session is owned by a
// single caller; it performs no I/O of its own.
package wizard

import (
	"encoding/base64"
	"fmt"
	"strings"

	"autocontent/internal/template"
)

// MaxImageBytes is the per-file ceiling for uploaded image payloads.
const MaxImageBytes = 4 << 20

// Answer is a submitted value for one step: either scalar text or an
// ordered list (multi-select values or image payloads).
type Answer struct {
	Text string   `json:"text,omitempty"`
	List []string `json:"list,omitempty"`
}

// Scalar builds a scalar answer.
func Scalar(text string) Answer { return Answer{Text: text} }

// ListOf builds a list answer.
func ListOf(items ...string) Answer { return Answer{List: items} }

// IsList reports whether the answer carries a list value.
func (a Answer) IsList() bool { return a.List != nil }

// Empty reports whether the answer has no usable value.
func (a Answer) Empty() bool {
	if a.IsList() {
		return len(a.List) == 0
	}
	return strings.TrimSpace(a.Text) == ""
}

// Answers maps step ids to their recorded answers.
type Answers map[string]Answer

// ValidationError is a user-facing rejection of a submitted answer.
// The session stays on the current step when one is returned.
type ValidationError struct {
	StepID  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %s", e.StepID, e.Message)
}

func invalid(stepID, format string, args ...any) error {
	return &ValidationError{StepID: stepID, Message: fmt.Sprintf(format, args...)}
}

// Session walks a template's steps in order. It is not safe for
// concurrent use; callers serialize access (one session per wizard
// invocation).
type Session struct {
	tpl        *template.Template
	index      int
	answers    Answers
	completed  bool
	onComplete func(Answers)
}

// NewSession starts a session at the first step of the template.
// onComplete, if non-nil, receives the full answer store when the last
// step is submitted.
func NewSession(tpl *template.Template, onComplete func(Answers)) (*Session, error) {
	if tpl == nil {
		return nil, fmt.Errorf("wizard: template is required")
	}
	if len(tpl.Steps) == 0 {
		return nil, fmt.Errorf("wizard: template %s has no steps", tpl.ID)
	}
	return &Session{
		tpl:        tpl,
		answers:    make(Answers, len(tpl.Steps)),
		onComplete: onComplete,
	}, nil
}

// Template returns the session's template.
func (s *Session) Template() *template.Template { return s.tpl }

// Index returns the current step position.
func (s *Session) Index() int { return s.index }

// Len returns the number of steps.
func (s *Session) Len() int { return len(s.tpl.Steps) }

// Completed reports whether the last step has been submitted.
func (s *Session) Completed() bool { return s.completed }

// Current returns the step the session is waiting on.
func (s *Session) Current() template.Step { return s.tpl.Steps[s.index] }

// Prefill returns the previously recorded answer for the current step,
// if any, so a revisited step can restore its input.
func (s *Session) Prefill() (Answer, bool) {
	a, ok := s.answers[s.Current().ID]
	return a, ok
}

// Answers returns a copy of the answer store.
func (s *Session) Answers() Answers {
	out := make(Answers, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Submit validates the answer against the current step and, on
// success, records it and advances. Submitting the last step moves the
// session to its terminal state and fires the completion callback.
func (s *Session) Submit(a Answer) error {
	if s.completed {
		return fmt.Errorf("wizard: session already completed")
	}
	step := s.Current()
	if err := validate(step, a); err != nil {
		return err
	}
	s.answers[step.ID] = a
	if s.index < len(s.tpl.Steps)-1 {
		s.index++
		return nil
	}
	s.completed = true
	if s.onComplete != nil {
		s.onComplete(s.Answers())
	}
	return nil
}

// AppendImage adds one image payload to the current multi_image step's
// stored list, enforcing the size ceiling and the step's file cap. The
// stored list is left unchanged when the upload is rejected.
func (s *Session) AppendImage(payload string) error {
	if s.completed {
		return fmt.Errorf("wizard: session already completed")
	}
	step := s.Current()
	if step.Kind != template.KindMultiImage {
		return invalid(step.ID, "step does not accept multiple images")
	}
	if err := checkImageSize(step.ID, payload); err != nil {
		return err
	}
	cur := s.answers[step.ID]
	if step.MaxFiles > 0 && len(cur.List) >= step.MaxFiles {
		return invalid(step.ID, "maximum of %d images", step.MaxFiles)
	}
	cur.List = append(cur.List, payload)
	s.answers[step.ID] = cur
	return nil
}

// Back moves to the previous step. On the first step it reports that
// the session should be abandoned (the UI navigates away); the answer
// store is untouched either way.
func (s *Session) Back() (exited bool) {
	if s.completed {
		return false
	}
	if s.index > 0 {
		s.index--
		return false
	}
	return true
}

func validate(step template.Step, a Answer) error {
	if step.WantsList() {
		if a.Text != "" && a.List == nil {
			return invalid(step.ID, "expected a list value")
		}
		if step.Required && len(a.List) == 0 {
			return invalid(step.ID, "select at least one option")
		}
	} else {
		if a.IsList() {
			return invalid(step.ID, "expected a single value")
		}
		if step.Required && strings.TrimSpace(a.Text) == "" {
			return invalid(step.ID, "this field is required")
		}
	}
	if step.WantsImage() {
		if step.Kind == template.KindMultiImage {
			if step.MaxFiles > 0 && len(a.List) > step.MaxFiles {
				return invalid(step.ID, "maximum of %d images", step.MaxFiles)
			}
			for _, p := range a.List {
				if err := checkImageSize(step.ID, p); err != nil {
					return err
				}
			}
		} else if a.Text != "" {
			if err := checkImageSize(step.ID, a.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkImageSize(stepID, payload string) error {
	if imagePayloadBytes(payload) > MaxImageBytes {
		return invalid(stepID, "image exceeds the 4MB limit")
	}
	return nil
}

// imagePayloadBytes returns the decoded size of an uploaded image. The
// UI submits data URIs, so the limit applies to the original file
// bytes, not the base64-inflated string.
func imagePayloadBytes(payload string) int {
	idx := strings.Index(payload, ";base64,")
	if !strings.HasPrefix(payload, "data:") || idx < 0 {
		return len(payload)
	}
	enc := payload[idx+len(";base64,"):]
	n := base64.StdEncoding.DecodedLen(len(enc))
	// DecodedLen assumes full padding; correct for trailing '='.
	for i := len(enc) - 1; i >= 0 && enc[i] == '='; i-- {
		n--
	}
	return n
}
