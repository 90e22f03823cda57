package ports

import (
	"context"

	"github.com/aretw0/fable/pkg/domain"
)

// DatasetLoader defines how external datasets referenced by
// "{text;<dataset>;<path>}" placeholders are retrieved.
type DatasetLoader interface {
	// Load returns the whole document of the named dataset.
	// Returns domain.ErrDatasetNotFound if no such dataset exists.
	Load(ctx context.Context, name string) (domain.Value, error)
}

// TemplateLoader defines how the engine retrieves generation templates.
type TemplateLoader interface {
	// Get returns the template with the given ID.
	// Returns domain.ErrTemplateNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Template, error)

	// List returns the IDs of all available templates, sorted.
	List(ctx context.Context) ([]string, error)
}
