package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray fable.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	content := `
log_level: debug
templates: story/templates
saves:
  driver: redis
  redis:
    addr: redis:6379
    ttl: 1h
resolver:
  unresolved: empty
generation:
  attempts: 5
  timeout: 45s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "story/templates", cfg.Templates)
	assert.Equal(t, DriverRedis, cfg.Saves.Driver)
	assert.Equal(t, "redis:6379", cfg.Saves.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Saves.Redis.TTL)
	assert.Equal(t, "fable:", cfg.Saves.Redis.Prefix, "unset keys keep defaults")
	assert.Equal(t, "empty", cfg.Resolver.Unresolved)
	assert.Equal(t, 5, cfg.Generation.Attempts)
	assert.Equal(t, 45*time.Second, cfg.Generation.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := chdir(t)
	t.Cleanup(func() { os.Unsetenv("FABLE_TEMPLATES") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FABLE_TEMPLATES=from-dotenv\n"), 0644))
	t.Setenv("FABLE_MAX_DEPTH", "7")
	t.Setenv("FABLE_REDIS_LOCK", "true")
	t.Setenv("FABLE_RETRY_DELAY", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Templates)
	assert.Equal(t, 7, cfg.Resolver.MaxDepth)
	assert.True(t, cfg.Saves.Redis.Lock)
	assert.Equal(t, 250*time.Millisecond, cfg.Generation.RetryDelay)
}

func TestLoad_Errors(t *testing.T) {
	dir := chdir(t)

	t.Run("Explicit Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Bad Env Value", func(t *testing.T) {
		t.Setenv("FABLE_ATTEMPTS", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "FABLE_ATTEMPTS")
	})

	t.Run("Invalid Driver", func(t *testing.T) {
		t.Setenv("FABLE_SAVES_DRIVER", "tape")
		_, err := Load("")
		assert.ErrorContains(t, err, "tape")
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("saves: [\n"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
