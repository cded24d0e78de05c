package llm

import (
	"regexp"
	"strings"
)

// doctypeRe matches the DOCTYPE declaration case-insensitively on the
// original bytes. Indexing a ToLower copy is not safe here: case
// folding can change byte lengths, shifting the cut point.
var doctypeRe = regexp.MustCompile(`(?i)<!DOCTYPE html>`)

// StripFences removes markdown code-fence markup that chat-tuned
// models like to wrap code answers in.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```html", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ExtractHTML truncates the text to begin at the first DOCTYPE
// declaration, dropping any preamble the model emitted before the
// document. Text without the marker is returned unmodified.
func ExtractHTML(text string) string {
	loc := doctypeRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[loc[0]:]
}
