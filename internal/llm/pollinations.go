package llm

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTextBaseURL  = "https://text.pollinations.ai"
	defaultImageBaseURL = "https://image.pollinations.ai"

	// seedRange bounds the per-call random seed. The seed exists so
	// re-submitting an identical directive is not served from an
	// upstream cache.
	seedRange = 1000
)

// PollinationsClient calls the Pollinations text endpoint, an
// OpenAI-proxying completion service addressed with a GET of the
// URL-encoded directive.
type PollinationsClient struct {
	http    *http.Client
	baseURL string
	model   string
	rl      *rpsLimiter
	seedFn  func() int
}

// PollinationsOption tweaks client construction.
type PollinationsOption func(*PollinationsClient)

// WithBaseURL overrides the endpoint, mainly for tests.
func WithBaseURL(u string) PollinationsOption {
	return func(c *PollinationsClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRPS throttles outgoing calls; the public endpoint is shared and
// unauthenticated.
func WithRPS(rps float64, burst int) PollinationsOption {
	return func(c *PollinationsClient) { c.rl = newRPSLimiter(rps, burst) }
}

// WithSeedFunc fixes the seed source, mainly for tests.
func WithSeedFunc(fn func() int) PollinationsOption {
	return func(c *PollinationsClient) { c.seedFn = fn }
}

// NewPollinationsClient creates a text client for the given upstream
// model alias ("openai" routes to the highest-quality backing model).
func NewPollinationsClient(model string, opts ...PollinationsOption) *PollinationsClient {
	if model == "" {
		model = "openai"
	}
	c := &PollinationsClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: defaultTextBaseURL,
		model:   model,
		seedFn:  func() int { return rand.Intn(seedRange) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PollinationsClient) Name() string { return "Pollinations:" + c.model }
func (c *PollinationsClient) Close() error {
	if c.rl != nil {
		c.rl.Stop()
	}
	return nil
}

// GenerateText issues the directive with a fresh random seed and
// returns the plain-text body.
func (c *PollinationsClient) GenerateText(ctx context.Context, directive string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/%s?model=%s&seed=%d",
		c.baseURL, url.PathEscape(directive), url.QueryEscape(c.model), c.seedFn())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		err := fmt.Errorf("pollinations: unexpected status %s: %s", resp.Status, string(body))
		// Oversized directives come back as 4xx and will not improve
		// with retries.
		if resp.StatusCode == http.StatusRequestURITooLong || resp.StatusCode == http.StatusRequestEntityTooLarge {
			return "", NewPermanentError(err)
		}
		return "", err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Aspect selects the pixel dimensions of a generated image.
type Aspect string

const (
	AspectSquare    Aspect = "1:1"
	AspectLandscape Aspect = "16:9"
	AspectPortrait  Aspect = "9:16"
)

// Dimensions returns the width/height for the aspect ratio.
func (a Aspect) Dimensions() (w, h int) {
	switch a {
	case AspectLandscape:
		return 1280, 720
	case AspectPortrait:
		return 720, 1280
	default:
		return 1024, 1024
	}
}

// ImageURL builds an image-generation reference for the directive.
// The caller receives a URI, not bytes; whether the image actually
// renders is the display layer's concern. A random seed keeps repeat
// prompts from returning the identical picture.
func ImageURL(directive string, aspect Aspect, seed int) string {
	w, h := aspect.Dimensions()
	if seed < 0 {
		seed = rand.Intn(seedRange)
	}
	return fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true&seed=%d&model=flux",
		defaultImageBaseURL, url.PathEscape(directive), w, h, seed)
}

// NewSeed returns a random seed in the documented range.
func NewSeed() int { return rand.Intn(seedRange) }
