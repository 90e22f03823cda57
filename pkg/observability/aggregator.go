package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/fable/pkg/domain"
)

// Combine returns hooks that invoke every non-nil callback of each set in order.
func Combine(sets ...domain.Hooks) domain.Hooks {
	var out domain.Hooks
	for _, h := range sets {
		out.OnResolve = chain(out.OnResolve, h.OnResolve)
		out.OnAssemble = chain(out.OnAssemble, h.OnAssemble)
		out.OnGenerate = chain(out.OnGenerate, h.OnGenerate)
		out.OnRecover = chain(out.OnRecover, h.OnRecover)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks logs every lifecycle event. Degraded outcomes (diagnostics,
// failed generations, failed recoveries) are logged at warn level.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			level := slog.LevelDebug
			if len(e.Diagnostics) > 0 {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "template resolved",
				"turn_id", e.TurnID,
				"diagnostics", len(e.Diagnostics))
		},
		OnAssemble: func(ctx context.Context, e *domain.AssembleEvent) {
			level := slog.LevelDebug
			if len(e.Diagnostics) > 0 {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "prompt assembled",
				"turn_id", e.TurnID,
				"template_id", e.TemplateID,
				"fields", e.Fields,
				"diagnostics", len(e.Diagnostics))
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			if e.Err != nil {
				logger.Warn("generation attempt failed",
					"turn_id", e.TurnID,
					"attempt", e.Attempt,
					"duration", e.Duration,
					"err", e.Err)
				return
			}
			logger.Debug("generation finished",
				"turn_id", e.TurnID,
				"attempt", e.Attempt,
				"duration", e.Duration)
		},
		OnRecover: func(ctx context.Context, e *domain.RecoverEvent) {
			if !e.OK {
				logger.Warn("output recovery failed", "turn_id", e.TurnID)
				return
			}
			logger.Info("output recovered",
				"turn_id", e.TurnID,
				"stage", e.Stage,
				"repairs", e.Repairs)
		},
	}
}
