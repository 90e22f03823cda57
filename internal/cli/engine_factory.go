package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/config"
	"github.com/aretw0/fable/pkg/adapters/file"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/adapters/process"
	"github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/observability"
	"github.com/aretw0/fable/pkg/persistence/middleware"
	"github.com/aretw0/fable/pkg/ports"
	"github.com/aretw0/fable/pkg/resolver"
)

// Runtime bundles an engine with the resources built for it.
type Runtime struct {
	Engine  *fable.Engine
	Metrics *observability.Metrics
	Store   ports.AttributeStore

	closers []func() error
}

// Close releases connections opened by BuildEngine.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildOptions tunes BuildEngine.
type BuildOptions struct {
	// Registerer receives the engine metrics. Nil skips metrics.
	Registerer prometheus.Registerer
	// RequireGenerator fails the build when no generator is configured.
	RequireGenerator bool
}

// BuildEngine wires the adapters named by cfg into an engine.
func BuildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, opts BuildOptions) (*Runtime, error) {
	policy, ok := resolver.ParsePolicy(cfg.Resolver.Unresolved)
	if !ok {
		return nil, fmt.Errorf("unknown unresolved policy %q", cfg.Resolver.Unresolved)
	}

	rt := &Runtime{}
	engineOpts := []fable.Option{
		fable.WithLogger(logger),
		fable.WithMaxDepth(cfg.Resolver.MaxDepth),
		fable.WithPolicy(policy),
		fable.WithDatasets(file.NewDatasets(cfg.Datasets)),
		fable.WithTemplates(file.NewTemplates(cfg.Templates)),
		fable.WithRetry(cfg.Generation.Attempts, cfg.Generation.RetryDelay),
		fable.WithGenerationTimeout(cfg.Generation.Timeout),
	}

	store, locker, err := buildStore(ctx, cfg.Saves, rt)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if store, err = wrapStore(store, cfg.Saves); err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Store = store
	engineOpts = append(engineOpts, fable.WithStore(store))
	if locker != nil {
		engineOpts = append(engineOpts, fable.WithLocker(locker))
	}

	gen, err := buildGenerator(cfg.Generation, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if gen != nil {
		engineOpts = append(engineOpts, fable.WithGenerator(gen))
	} else if opts.RequireGenerator {
		_ = rt.Close()
		return nil, fmt.Errorf("%w: set generation.generator", fable.ErrNoGenerator)
	}

	hooks := []domain.Hooks{observability.LogHooks(logger)}
	if opts.Registerer != nil {
		m, err := observability.NewMetrics(opts.Registerer)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		rt.Metrics = m
		hooks = append(hooks, m.Hooks())
	}
	engineOpts = append(engineOpts, fable.WithHooks(observability.Combine(hooks...)))

	engine, err := fable.New(engineOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = engine
	return rt, nil
}

func buildStore(ctx context.Context, cfg config.SavesConfig, rt *Runtime) (ports.AttributeStore, ports.DistributedLocker, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, nil
	case config.DriverFile:
		return file.NewStore(cfg.Path), nil, nil
	case config.DriverRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}

		store := redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix+"save:"),
			redis.WithTTL(cfg.Redis.TTL),
		)
		var locker ports.DistributedLocker
		if cfg.Redis.Lock {
			locker = redis.NewLocker(client, cfg.Redis.Prefix)
		}
		return store, locker, nil
	}
	return nil, nil, fmt.Errorf("unknown saves driver %q", cfg.Driver)
}

// wrapStore applies masking and encryption. Masking runs first so masked
// values are what gets encrypted.
func wrapStore(store ports.AttributeStore, cfg config.SavesConfig) (ports.AttributeStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid saves.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := base64.StdEncoding.DecodeString(k)
			if err != nil {
				return nil, fmt.Errorf("invalid saves.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

// buildGenerator returns nil when no generator is selected.
func buildGenerator(cfg config.GenerationConfig, logger *slog.Logger) (ports.Generator, error) {
	if cfg.Generator == "" {
		return nil, nil
	}
	generators, err := process.LoadGenerators(cfg.Generators)
	if err != nil {
		return nil, err
	}
	gc, ok := generators[cfg.Generator]
	if !ok {
		names := make([]string, 0, len(generators))
		for name := range generators {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("generator %q not found in %s (available: %s)", cfg.Generator, cfg.Generators, strings.Join(names, ", "))
	}
	return process.FromConfig(gc, process.WithLogger(logger))
}
