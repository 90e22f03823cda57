package saves_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/saves"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore widens the read-modify-write window so lost updates show up.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (map[string]domain.Value, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func increment(ctx context.Context, attrs map[string]domain.Value) (map[string]domain.Value, error) {
	n, _ := attrs["count"].Int()
	attrs["count"] = domain.Number(float64(n + 1))
	return attrs, nil
}

func TestManager_UpdateSerializes(t *testing.T) {
	manager := saves.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Update(ctx, "race", increment))
		}()
	}
	wg.Wait()

	attrs, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	n, ok := attrs["count"].Int()
	require.True(t, ok)
	assert.Equal(t, 20, n, "every increment must survive")
}

func TestManager_UpdateNilLeavesSaveUntouched(t *testing.T) {
	manager := saves.NewManager(memory.NewStore())
	ctx := context.Background()

	err := manager.Update(ctx, "ghost", func(ctx context.Context, attrs map[string]domain.Value) (map[string]domain.Value, error) {
		assert.Empty(t, attrs)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = manager.Load(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestManager_UpdatePropagatesError(t *testing.T) {
	manager := saves.NewManager(memory.NewStore())
	boom := errors.New("boom")

	err := manager.Update(context.Background(), "x", func(context.Context, map[string]domain.Value) (map[string]domain.Value, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestManager_SaveDeleteList(t *testing.T) {
	manager := saves.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "a", map[string]domain.Value{"k": domain.String("v")}))
	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	require.NoError(t, manager.Delete(ctx, "a"))
	_, err = manager.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	manager := saves.NewManager(memory.NewStore(),
		saves.WithLocker(redis.NewLocker(client, "fable:")),
		saves.WithLockTTL(5*time.Second))
	ctx := context.Background()

	err = manager.WithLock(ctx, "hero", func(ctx context.Context) error {
		assert.True(t, mr.Exists("fable:lock:hero"), "distributed lock should be held")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("fable:lock:hero"), "distributed lock should be released")
}
