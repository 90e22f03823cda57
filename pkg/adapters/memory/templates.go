package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/fable/pkg/domain"
)

// Templates implements ports.TemplateLoader using an in-memory map.
type Templates struct {
	templates map[string]domain.Template
}

// NewTemplates creates a loader from template values.
// This handles ID validation automatically, improving DX for tests.
func NewTemplates(templates ...domain.Template) (*Templates, error) {
	data := make(map[string]domain.Template, len(templates))
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		data[t.ID] = t
	}
	return &Templates{templates: data}, nil
}

// Get returns a copy of the template with the given ID.
func (l *Templates) Get(ctx context.Context, id string) (*domain.Template, error) {
	t, ok := l.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", id, domain.ErrTemplateNotFound)
	}
	return &t, nil
}

// List returns all available template IDs.
func (l *Templates) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
