package file

import (
	"context"
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Templates implements ports.TemplateLoader over a directory holding one
// template document per file. A template without an "id" takes its file name.
type Templates struct {
	Dir string
}

// NewTemplates creates a template loader rooted at dir.
// If dir is empty, it defaults to "templates".
func NewTemplates(dir string) *Templates {
	if dir == "" {
		dir = "templates"
	}
	return &Templates{Dir: dir}
}

// Get decodes the template stored as "<dir>/<id>.<ext>".
func (l *Templates) Get(ctx context.Context, id string) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(id); err != nil {
		return nil, fmt.Errorf("template %q: %w", id, domain.ErrTemplateNotFound)
	}

	path, ok := find(l.Dir, id)
	if !ok {
		return nil, fmt.Errorf("template %q: %w", id, domain.ErrTemplateNotFound)
	}

	raw, err := decodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %q: %w", id, err)
	}

	tmpl, err := DecodeTemplate(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %q: %w", id, err)
	}
	if tmpl.ID == "" {
		tmpl.ID = id
	}
	return tmpl, nil
}

// List returns all available template IDs.
func (l *Templates) List(ctx context.Context) ([]string, error) {
	out, err := names(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return out, nil
}

// DecodeTemplate maps a decoded document onto a domain.Template.
// Scalars are weakly converted, so a YAML "next_templates" entry may be a
// single string instead of a list.
func DecodeTemplate(raw any) (*domain.Template, error) {
	if _, ok := raw.(map[string]any); !ok {
		if _, ok := raw.(map[any]any); !ok {
			return nil, fmt.Errorf("template document must be an object, got %T", raw)
		}
	}

	var tmpl domain.Template
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tmpl,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
