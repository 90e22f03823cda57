package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// Store implements ports.AttributeStore using the local filesystem.
// Each save is a JSON object file named "<saveID>.json".
type Store struct {
	BasePath string
}

// NewStore creates a Store with the given base path.
// If basePath is empty, it defaults to ".fable/saves".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".fable", "saves")
	}
	return &Store{BasePath: basePath}
}

// Save writes the attributes atomically: temp file in the same directory,
// fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error {
	if err := validName(saveID); err != nil {
		return fmt.Errorf("invalid save ID: %w", err)
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure save directory: %w", err)
	}
	if attrs == nil {
		attrs = map[string]domain.Value{}
	}

	data, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+saveID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(saveID)
	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace save file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the attributes of a save.
func (s *Store) Load(ctx context.Context, saveID string) (map[string]domain.Value, error) {
	if err := validName(saveID); err != nil {
		return nil, domain.ErrSaveNotFound
	}

	data, err := os.ReadFile(s.path(saveID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSaveNotFound
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}

	var attrs map[string]domain.Value
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	if attrs == nil {
		attrs = map[string]domain.Value{}
	}
	return attrs, nil
}

// Delete removes the save file. Deleting a missing save is not an error.
func (s *Store) Delete(ctx context.Context, saveID string) error {
	if err := validName(saveID); err != nil {
		return fmt.Errorf("invalid save ID: %w", err)
	}
	if err := os.Remove(s.path(saveID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}

// List returns all save IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	saves := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		saves = append(saves, name[:len(name)-len(".json")])
	}
	return saves, nil
}

func (s *Store) path(saveID string) string {
	return filepath.Join(s.BasePath, saveID+".json")
}
