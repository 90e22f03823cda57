package fable_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/pkg/adapters/memory"
	fableredis "github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/saves"
)

// slowGenerator advances the redis clock while it "generates" and then
// checks whether another replica could take the save lock.
type slowGenerator struct {
	mr      *miniredis.Miniredis
	elapsed time.Duration
	rival   *fableredis.Locker

	rivalErr error
}

func (g *slowGenerator) Generate(ctx context.Context, _ string) (string, error) {
	g.mr.FastForward(g.elapsed)

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	unlock, err := g.rival.Lock(waitCtx, "s1", time.Second)
	if err == nil {
		_ = unlock(context.Background())
	}
	g.rivalErr = err
	return `{"scene": "dusk"}`, nil
}

func TestEngine_Run_LockOutlivesGeneration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	newClient := func() *backend.Client {
		client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	tmpl := domain.Template{ID: "scene", Segments: []string{"<Describe the camp>", `[scene="string"]`}}

	tests := []struct {
		name    string
		elapsed time.Duration
	}{
		{name: "One Slow Attempt", elapsed: 31 * time.Second},
		{name: "Every Attempt At Timeout", elapsed: 3*fable.DefaultGenerationTimeout + 2*fable.DefaultRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &slowGenerator{
				mr:      mr,
				elapsed: tt.elapsed,
				rival:   fableredis.NewLocker(newClient(), "fable:"),
			}
			eng, err := fable.New(
				fable.WithStore(memory.NewStore()),
				fable.WithGenerator(gen),
				fable.WithLocker(fableredis.NewLocker(newClient(), "fable:")),
			)
			require.NoError(t, err)

			turn, err := eng.RunTemplate(context.Background(), &tmpl, "s1")
			require.NoError(t, err)
			assert.True(t, turn.Result.OK)
			assert.ErrorIs(t, gen.rivalErr, context.DeadlineExceeded, "a second replica took the save lock mid-turn")
			assert.False(t, mr.Exists("fable:lock:s1"), "lock released after the turn")
		})
	}
}

func TestTurnLease(t *testing.T) {
	assert.Equal(t, 124*time.Second, fable.TurnLease(3, 30*time.Second, 2*time.Second))
	assert.Equal(t, 40*time.Second, fable.TurnLease(1, 10*time.Second, time.Minute))
	assert.Equal(t, saves.DefaultLockTTL, fable.TurnLease(3, 0, time.Second), "unbounded generation")
}

func TestNew_LockTTL(t *testing.T) {
	locker := fableredis.NewLocker(backend.NewClient(&backend.Options{Addr: "127.0.0.1:0"}), "fable:")

	eng, err := fable.New(fable.WithLocker(locker), fable.WithRetry(2, time.Second), fable.WithGenerationTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*5*time.Second+time.Second+saves.DefaultLockTTL, eng.Saves().LockTTL())

	eng, err = fable.New(fable.WithLocker(locker), fable.WithLockTTL(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, eng.Saves().LockTTL())

	_, err = fable.New(fable.WithLockTTL(-time.Second))
	assert.Error(t, err)
}
