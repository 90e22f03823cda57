package file

import (
	"context"
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
)

// Datasets implements ports.DatasetLoader by reading "<dir>/<name>.json",
// ".yaml", ".yml" or ".hjson" documents.
type Datasets struct {
	Dir string
}

// NewDatasets creates a dataset loader rooted at dir.
// If dir is empty, it defaults to "datasets".
func NewDatasets(dir string) *Datasets {
	if dir == "" {
		dir = "datasets"
	}
	return &Datasets{Dir: dir}
}

// Load decodes the named dataset document.
func (d *Datasets) Load(ctx context.Context, name string) (domain.Value, error) {
	if err := ctx.Err(); err != nil {
		return domain.Value{}, err
	}
	if err := validName(name); err != nil {
		return domain.Value{}, fmt.Errorf("dataset %q: %w", name, domain.ErrDatasetNotFound)
	}

	path, ok := find(d.Dir, name)
	if !ok {
		return domain.Value{}, fmt.Errorf("dataset %q: %w", name, domain.ErrDatasetNotFound)
	}

	doc, err := decodeFile(path)
	if err != nil {
		return domain.Value{}, fmt.Errorf("failed to load dataset %q: %w", name, err)
	}
	return domain.FromAny(doc), nil
}

// List returns the available dataset names.
func (d *Datasets) List(ctx context.Context) ([]string, error) {
	out, err := names(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return out, nil
}
