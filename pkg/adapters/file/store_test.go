package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/fable/pkg/adapters/file"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.AttributeStore = (*file.Store)(nil)

func TestStore_Contract(t *testing.T) {
	ports.RunAttributeStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_SaveWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	err := store.Save(ctx, "hero", map[string]domain.Value{"name": domain.String("Li <3")})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "hero.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Li <3"`)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RejectsEscapingIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "../outside", nil))
	assert.Error(t, store.Save(ctx, "", nil))

	_, err := store.Load(ctx, "../outside")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "nope"))
	saves, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestStore_DeleteMissing(t *testing.T) {
	store := file.NewStore(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}
