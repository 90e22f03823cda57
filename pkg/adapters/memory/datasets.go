package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/fable/pkg/domain"
)

// Datasets implements ports.DatasetLoader over an in-memory map.
type Datasets struct {
	mu   sync.RWMutex
	docs map[string]domain.Value
}

// NewDatasets creates a loader from plain Go values (decoded JSON shapes).
func NewDatasets(docs map[string]any) *Datasets {
	d := &Datasets{docs: make(map[string]domain.Value, len(docs))}
	for name, doc := range docs {
		d.docs[name] = domain.FromAny(doc)
	}
	return d
}

// Put adds or replaces a dataset.
func (d *Datasets) Put(name string, doc domain.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[name] = doc
}

// Load returns the named dataset.
func (d *Datasets) Load(ctx context.Context, name string) (domain.Value, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.docs[name]
	if !ok {
		return domain.Value{}, fmt.Errorf("dataset %q: %w", name, domain.ErrDatasetNotFound)
	}
	return doc, nil
}
