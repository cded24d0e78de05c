package template

import (
	"fmt"
	"strings"
)

// Kind identifies how a step collects its answer.
type Kind string

const (
	KindText        Kind = "text"
	KindTextarea    Kind = "textarea"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindImage       Kind = "image"
	KindMultiImage  Kind = "multi_image"
)

// OutputType is the artifact kind a template produces.
type OutputType string

const (
	OutputText  OutputType = "TEXT"
	OutputImage OutputType = "IMAGE"
	OutputSite  OutputType = "SITE"
)

// Option is one selectable choice for select/multi_select steps.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Step is one ordered question in a wizard. Step definitions are
// immutable once a catalog is loaded and are shared across sessions.
type Step struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Question    string   `json:"question"`
	Subtext     string   `json:"subtext,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	MaxFiles    int      `json:"max_files,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// WantsList reports whether the step's answer is list-valued.
func (s Step) WantsList() bool {
	return s.Kind == KindMultiSelect || s.Kind == KindMultiImage
}

// WantsImage reports whether the step's answer carries image payloads.
func (s Step) WantsImage() bool {
	return s.Kind == KindImage || s.Kind == KindMultiImage
}

// Template is a guided document definition: an ordered list of steps
// plus the fixed instruction text handed to the generation client.
type Template struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	OutputType   OutputType `json:"output_type"`
	SystemPrompt string     `json:"system_prompt"`
	MinPlan      string     `json:"min_plan,omitempty"`
	Steps        []Step     `json:"steps"`
}

// Step returns the step with the given id.
func (t *Template) Step(id string) (Step, bool) {
	for _, s := range t.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// Validate checks structural invariants of a template definition.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template id is required")
	}
	switch t.OutputType {
	case OutputText, OutputImage, OutputSite:
	default:
		return fmt.Errorf("template %s: unknown output type %q", t.ID, t.OutputType)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("template %s: at least one step is required", t.ID)
	}
	seen := make(map[string]struct{}, len(t.Steps))
	for _, s := range t.Steps {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("template %s: step id is required", t.ID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("template %s: duplicate step id %q", t.ID, id)
		}
		seen[id] = struct{}{}
		switch s.Kind {
		case KindText, KindTextarea, KindImage:
			if len(s.Options) > 0 {
				return fmt.Errorf("template %s: step %s: options are only valid for select kinds", t.ID, id)
			}
		case KindSelect, KindMultiSelect:
			if len(s.Options) == 0 {
				return fmt.Errorf("template %s: step %s: select step needs options", t.ID, id)
			}
		case KindMultiImage:
			if s.MaxFiles < 0 {
				return fmt.Errorf("template %s: step %s: max_files must be >= 0", t.ID, id)
			}
		default:
			return fmt.Errorf("template %s: step %s: unknown kind %q", t.ID, id, s.Kind)
		}
		if s.MaxFiles > 0 && s.Kind != KindMultiImage {
			return fmt.Errorf("template %s: step %s: max_files is only valid for multi_image", t.ID, id)
		}
	}
	return nil
}
