package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAttributeStoreContract runs a suite of tests to verify that an
// AttributeStore implementation adheres to the defined interface contract.
func RunAttributeStoreContract(t *testing.T, store AttributeStore) {
	ctx := context.Background()
	saveID := "contract-test-save-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		attrs := map[string]domain.Value{
			"name":   domain.String("Li"),
			"level":  domain.Number(42),
			"skills": domain.Array(domain.String("blade"), domain.String("qi")),
			"stats":  domain.Object(map[string]domain.Value{"hp": domain.Number(10)}),
		}

		err := store.Save(ctx, saveID, attrs)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, saveID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, len(attrs))
		for k, want := range attrs {
			assert.Truef(t, want.Equal(loaded[k]), "attribute %s: want %s, got %s", k, want, loaded[k])
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, saveID, map[string]domain.Value{"only": domain.Bool(true)}))

		loaded, err := store.Load(ctx, saveID)
		require.NoError(t, err)
		assert.Len(t, loaded, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+saveID)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, saveID, map[string]domain.Value{"x": domain.Number(1)})
		require.NoError(t, err)

		err = store.Delete(ctx, saveID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, saveID)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound, "Load after Delete should return ErrSaveNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := saveID + "-1"
		id2 := saveID + "-2"
		_ = store.Save(ctx, id1, map[string]domain.Value{})
		_ = store.Save(ctx, id2, map[string]domain.Value{})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		saves, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, saves, id1)
		assert.Contains(t, saves, id2)
	})
}
