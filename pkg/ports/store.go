package ports

import (
	"context"

	"github.com/aretw0/fable/pkg/domain"
)

// AttributeStore defines the interface for persisting the attributes of a save
// (character sheet, world state, previous generation results).
type AttributeStore interface {
	// Save persists the attributes for a given save ID, replacing any previous set.
	Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error

	// Load retrieves the attributes for a given save ID.
	// Returns domain.ErrSaveNotFound if the save does not exist.
	Load(ctx context.Context, saveID string) (map[string]domain.Value, error)

	// Delete removes the attributes for a given save ID.
	Delete(ctx context.Context, saveID string) error

	// List returns the IDs of all stored saves.
	List(ctx context.Context) ([]string, error)
}
