package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

// DatasetLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.DatasetLoader.
func DatasetLoaderContractTest(t *testing.T, loader ports.DatasetLoader, setupData map[string]domain.Value) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for name, expected := range setupData {
			doc, err := loader.Load(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error loading dataset %s: %v", name, err)
			}
			if !doc.Equal(expected) {
				t.Errorf("content mismatch for %s. got %s, want %s", name, doc, expected)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-dataset")
		if !errors.Is(err, domain.ErrDatasetNotFound) {
			t.Errorf("expected ErrDatasetNotFound, got %v", err)
		}
	})
}

// TemplateLoaderContractTest verifies if an adapter complies with ports.TemplateLoader.
func TemplateLoaderContractTest(t *testing.T, loader ports.TemplateLoader, setupData map[string]*domain.Template) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for id, expected := range setupData {
			tmpl, err := loader.Get(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting template %s: %v", id, err)
			}
			if tmpl.ID != id {
				t.Errorf("expected ID %s, got %s", id, tmpl.ID)
			}
			if len(tmpl.Segments) != len(expected.Segments) {
				t.Errorf("segment count mismatch for %s. got %d, want %d", id, len(tmpl.Segments), len(expected.Segments))
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := loader.Get(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d templates, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}

		for id := range setupData {
			if !lookup[id] {
				t.Errorf("template %s missing from list", id)
			}
		}
	})
}
