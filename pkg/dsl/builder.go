package dsl

import (
	"fmt"
	"strings"

	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/domain"
)

// Builder collects templates.
type Builder struct {
	order     []string
	templates map[string]*TemplateBuilder
}

// New creates a new template builder.
func New() *Builder {
	return &Builder{
		templates: make(map[string]*TemplateBuilder),
	}
}

// Add starts a template.
// If the template already exists, it returns the existing builder.
func (b *Builder) Add(id string) *TemplateBuilder {
	if tb, ok := b.templates[id]; ok {
		return tb
	}
	tb := &TemplateBuilder{tmpl: domain.Template{ID: id}}
	b.templates[id] = tb
	b.order = append(b.order, id)
	return tb
}

// Templates returns the built templates in insertion order.
func (b *Builder) Templates() []domain.Template {
	out := make([]domain.Template, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.templates[id].Build())
	}
	return out
}

// Build checks next-template links and returns an in-memory loader.
func (b *Builder) Build() (*memory.Templates, error) {
	templates := b.Templates()
	for _, t := range templates {
		if len(t.Segments) == 0 {
			return nil, fmt.Errorf("template %q has no segments", t.ID)
		}
		for field, targets := range t.Next {
			for _, target := range targets {
				if _, ok := b.templates[target]; !ok {
					return nil, fmt.Errorf("template %q: next %q via %q: %w", t.ID, target, field, domain.ErrTemplateNotFound)
				}
			}
		}
	}

	loader, err := memory.NewTemplates(templates...)
	if err != nil {
		return nil, fmt.Errorf("failed to build template loader: %w", err)
	}
	return loader, nil
}

// TemplateBuilder provides a fluent API for configuring one template.
type TemplateBuilder struct {
	tmpl domain.Template
}

// Name sets the display name.
func (t *TemplateBuilder) Name(name string) *TemplateBuilder {
	t.tmpl.Name = name
	return t
}

// Describe sets the description.
func (t *TemplateBuilder) Describe(text string) *TemplateBuilder {
	t.tmpl.Description = text
	return t
}

// Info appends an information segment, "(text)".
func (t *TemplateBuilder) Info(text string) *TemplateBuilder {
	return t.segment("(" + text + ")")
}

// Instruct appends an instruction segment, "<text>".
func (t *TemplateBuilder) Instruct(text string) *TemplateBuilder {
	return t.segment("<" + text + ">")
}

// Output appends an output spec segment declaring one field.
func (t *TemplateBuilder) Output(field string, typ domain.FieldType) *TemplateBuilder {
	return t.segment(fmt.Sprintf("[%s=%q]", field, string(typ)))
}

// Outputs appends one output spec segment declaring several fields, in order.
func (t *TemplateBuilder) Outputs(fields ...domain.OutputFieldSpec) *TemplateBuilder {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s=%q", f.Name, string(f.Type))
	}
	return t.segment("[" + strings.Join(parts, ", ") + "]")
}

// Segment appends a raw segment as written in a template file.
func (t *TemplateBuilder) Segment(raw string) *TemplateBuilder {
	return t.segment(raw)
}

func (t *TemplateBuilder) segment(raw string) *TemplateBuilder {
	t.tmpl.Segments = append(t.tmpl.Segments, raw)
	return t
}

// Frame sets a custom prompt frame.
func (t *TemplateBuilder) Frame(frame string) *TemplateBuilder {
	t.tmpl.PromptTemplate = frame
	return t
}

// Store writes the recovered field to the named attribute.
func (t *TemplateBuilder) Store(field, attribute string) *TemplateBuilder {
	if t.tmpl.OutputStorage == nil {
		t.tmpl.OutputStorage = make(map[string]string)
	}
	t.tmpl.OutputStorage[field] = attribute
	return t
}

// Require declares a required input. A nil fallback uses the engine default.
func (t *TemplateBuilder) Require(attribute string, fallback any) *TemplateBuilder {
	t.tmpl.RequiredInputs = append(t.tmpl.RequiredInputs, attribute)
	if fallback != nil {
		if t.tmpl.Defaults == nil {
			t.tmpl.Defaults = make(map[string]any)
		}
		t.tmpl.Defaults[attribute] = fallback
	}
	return t
}

// Next links follow-up templates to a recovered field.
func (t *TemplateBuilder) Next(field string, targets ...string) *TemplateBuilder {
	if t.tmpl.Next == nil {
		t.tmpl.Next = make(map[string][]string)
	}
	t.tmpl.Next[field] = append(t.tmpl.Next[field], targets...)
	return t
}

// Build returns a copy of the underlying domain.Template.
func (t *TemplateBuilder) Build() domain.Template {
	out := t.tmpl
	out.Segments = append([]string(nil), t.tmpl.Segments...)
	out.RequiredInputs = append([]string(nil), t.tmpl.RequiredInputs...)
	return out
}
