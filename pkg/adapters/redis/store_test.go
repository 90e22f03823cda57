package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunAttributeStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Hour), redis.WithPrefix("test:"))
	ctx := context.Background()

	err := store.Save(ctx, "s1", map[string]domain.Value{"hp": domain.Number(3)})
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:s1"))
	assert.Equal(t, 1*time.Hour, mr.TTL("test:s1"))

	mr.FastForward(2 * time.Hour)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestRedisStore_NoTTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "forever", nil))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"forever"))
	assert.Equal(t, time.Duration(0), mr.TTL(redis.DefaultPrefix+"forever"))

	loaded, err := store.Load(ctx, "forever")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	saves, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, saves)
}
