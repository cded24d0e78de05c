// Package artifact models and persists generated outputs. Rows live in
// Postgres; large payloads can be offloaded to S3-compatible object
// storage with the row keeping the object key.
package artifact

import (
	"context"
	"errors"
	"time"

	"autocontent/internal/template"
)

// ErrNotFound is returned for unknown artifact ids.
var ErrNotFound = errors.New("artifact: not found")

// Artifact is a generated output: text, a standalone HTML document, or
// an image reference. Content is mutated in place by refinement; only
// the last state is kept.
type Artifact struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	TemplateID     string              `json:"template_id"`
	Title          string              `json:"title"`
	Kind           template.OutputType `json:"kind"`
	Content        string              `json:"content"`
	PreviewSnippet string              `json:"preview_snippet,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// previewLen bounds the stored preview snippet.
const previewLen = 150

// Preview derives the list-view snippet for an artifact.
func Preview(kind template.OutputType, content string) string {
	if kind != template.OutputText {
		return string(kind)
	}
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen]) + "..."
}

// Store persists artifacts.
type Store interface {
	Insert(ctx context.Context, a *Artifact) error
	UpdateContent(ctx context.Context, id, content string) error
	Get(ctx context.Context, id string) (Artifact, error)
	ListByUser(ctx context.Context, userID string) ([]Artifact, error)
	Delete(ctx context.Context, id string) error
}
