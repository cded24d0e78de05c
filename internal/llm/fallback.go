package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// SafeFallbackText is the fixed user-facing message stored when every
// endpoint fails. It is content, not an error: the UI shows it as the
// artifact body rather than a broken state.
const SafeFallbackText = "We could not reach the AI service. Please try again in a moment."

// Fallback tries a primary text client and, when it fails, a secondary
// one. It never surfaces a raw upstream error; the worst case is a
// degraded outcome carrying SafeFallbackText.
type Fallback struct {
	primary   TextClient
	secondary TextClient
}

// NewFallback builds the fallback pair. Either client may be nil, in
// which case the remaining one is tried alone.
func NewFallback(primary, secondary TextClient) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Close closes both underlying clients.
func (f *Fallback) Close() error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Close())
	}
	if f.secondary != nil {
		errs = append(errs, f.secondary.Close())
	}
	return errors.Join(errs...)
}

// GenerateText resolves the directive against primary then secondary.
func (f *Fallback) GenerateText(ctx context.Context, directive string) Outcome {
	var primaryErr error
	if f.primary != nil {
		text, err := f.primary.GenerateText(ctx, directive)
		if err == nil {
			return okOutcome(text)
		}
		primaryErr = fmt.Errorf("%s: %w", f.primary.Name(), err)
		log.Printf("llm primary failed, trying secondary: %v", primaryErr)
	}
	if f.secondary != nil {
		text, err := f.secondary.GenerateText(ctx, directive)
		if err == nil {
			return okOutcome(text)
		}
		secondaryErr := fmt.Errorf("%s: %w", f.secondary.Name(), err)
		log.Printf("llm secondary failed: %v", secondaryErr)
		return degradedOutcome(SafeFallbackText, errors.Join(primaryErr, secondaryErr))
	}
	if primaryErr == nil {
		primaryErr = errors.New("llm: no clients configured")
	}
	return degradedOutcome(SafeFallbackText, primaryErr)
}

// GenerateDocument is GenerateText plus document post-processing: code
// fences are stripped and the result is truncated to start at the
// first DOCTYPE marker so the stored string reads as a standalone HTML
// document. Content without a marker passes through unmodified.
func (f *Fallback) GenerateDocument(ctx context.Context, directive string) Outcome {
	out := f.GenerateText(ctx, directive)
	if out.Status == StatusOK {
		out.Content = ExtractHTML(StripFences(out.Content))
	}
	return out
}
