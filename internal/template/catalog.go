package template

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is an immutable set of templates keyed by id.
type Catalog struct {
	templates []Template
	byID      map[string]*Template
}

// NewCatalog validates the given templates and builds a catalog.
func NewCatalog(templates []Template) (*Catalog, error) {
	c := &Catalog{
		templates: templates,
		byID:      make(map[string]*Template, len(templates)),
	}
	for i := range templates {
		t := &templates[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	return c, nil
}

// ParseCatalog builds a catalog from a JSON array of templates.
func ParseCatalog(data []byte) (*Catalog, error) {
	var templates []Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return NewCatalog(templates)
}

// LoadCatalog reads and parses a catalog JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// List returns the templates in catalog order.
func (c *Catalog) List() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int { return len(c.templates) }
