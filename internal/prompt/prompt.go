// Package prompt renders the directive sent to the generation client
// from a template and the collected answers. Assembly is a pure
// function: same inputs, byte-identical output.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"autocontent/internal/template"
	"autocontent/internal/wizard"
)

const contextHeading = "USER-PROVIDED DATA:"

// imageQualityPrefix is prepended to image directives so the upstream
// model favors photographic output.
const imageQualityPrefix = "Best quality, masterpiece, ultra realistic, 8k."

// structuralRules is appended to text/site system instructions. It
// keeps code output in a single self-contained file and suppresses
// conversational preambles.
const structuralRules = "STRUCTURAL RULES:\n" +
	"- If code or a website is requested, answer with a single self-contained HTML5 file using Tailwind CSS via CDN.\n" +
	"- The design must be modern, professional and polished.\n" +
	"- Answer ONLY with the final content (the text or the code), with no introductions."

// ImageToken ties a placeholder token in the directive to the image
// payload it stands for. Payloads never travel inside the text
// directive; they are substituted into the produced artifact after
// generation.
type ImageToken struct {
	Token   string
	StepID  string
	Payload string
}

// Directive is the fully assembled instruction for one generation call.
type Directive struct {
	System  string
	Context string
	Images  []ImageToken
}

// Text returns the single concatenated string sent to a text endpoint.
func (d Directive) Text() string {
	return d.System + "\n\nUSER CONTEXT:\n" + d.Context
}

// ImageText returns the visually descriptive variant sent to an image
// endpoint, which prefers a single flowing description over headings.
func (d Directive) ImageText() string {
	return d.System + " Context: " + d.Context
}

// TokenFor returns the placeholder token for an image step. For
// multi-image steps the 1-based position is appended.
func TokenFor(stepID string, position int) string {
	id := strings.ToUpper(strings.TrimSpace(stepID))
	if position > 0 {
		return fmt.Sprintf("{{%s_%d}}", id, position)
	}
	return "{{" + id + "}}"
}

// Assemble renders the directive for a template and its answer store.
// Steps are visited in definition order; empty non-required answers
// are omitted; image answers are replaced by placeholder tokens.
func Assemble(tpl *template.Template, answers wizard.Answers) Directive {
	var b strings.Builder
	b.WriteString(contextHeading)
	b.WriteString("\n")

	var images []ImageToken
	for _, step := range tpl.Steps {
		a, ok := answers[step.ID]
		if !ok || a.Empty() {
			continue
		}
		if step.WantsImage() {
			images = append(images, collectImages(step, a, &b)...)
			continue
		}
		value := a.Text
		if a.IsList() {
			value = strings.Join(a.List, ", ")
		}
		fmt.Fprintf(&b, "[%s]: %s\n", step.Question, value)
	}

	system := tpl.SystemPrompt
	if tpl.OutputType == template.OutputImage {
		system = imageQualityPrefix + " " + system
	} else {
		system = system + "\n\n" + structuralRules
	}
	return Directive{System: system, Context: b.String(), Images: images}
}

func collectImages(step template.Step, a wizard.Answer, b *strings.Builder) []ImageToken {
	if !a.IsList() {
		tok := TokenFor(step.ID, 0)
		fmt.Fprintf(b, "[%s]: the user provided a photo. Use the string '%s' as the src attribute of the img tag.\n",
			step.Question, tok)
		return []ImageToken{{Token: tok, StepID: step.ID, Payload: a.Text}}
	}
	out := make([]ImageToken, 0, len(a.List))
	for i, payload := range a.List {
		tok := TokenFor(step.ID, i+1)
		fmt.Fprintf(b, "[%s]: the user provided image %d of %d. Use the string '%s' as the src attribute of the img tag.\n",
			step.Question, i+1, len(a.List), tok)
		out = append(out, ImageToken{Token: tok, StepID: step.ID, Payload: payload})
	}
	return out
}

// Substitute replaces every placeholder token in generated output with
// its image payload. Models sometimes emit the token URL-encoded or
// invent a src value containing the step id; both variants are covered.
func Substitute(output string, images []ImageToken) string {
	for _, img := range images {
		output = strings.ReplaceAll(output, img.Token, img.Payload)
		output = strings.ReplaceAll(output, urlEncodedToken(img.Token), img.Payload)
		re := regexp.MustCompile(`(?i)src="[^"]*` + regexp.QuoteMeta(img.StepID) + `[^"]*"`)
		output = re.ReplaceAllString(output, `src="`+img.Payload+`"`)
	}
	return output
}

func urlEncodedToken(token string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, "{{"), "}}")
	return "%7B%7B" + inner + "%7D%7D"
}
