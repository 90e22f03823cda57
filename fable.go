package fable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
	"github.com/aretw0/fable/pkg/prompt"
	"github.com/aretw0/fable/pkg/recovery"
	"github.com/aretw0/fable/pkg/resolver"
	"github.com/aretw0/fable/pkg/saves"
)

const (
	DefaultRetryAttempts     = 3
	DefaultRetryDelay        = 2 * time.Second
	DefaultGenerationTimeout = 30 * time.Second
)

var (
	// ErrNoGenerator is returned by Run when no generator is configured.
	ErrNoGenerator = errors.New("no generator configured")
	// ErrNoTemplates is returned by Run when no template loader is configured.
	ErrNoTemplates = errors.New("no template loader configured")
	// ErrGeneration wraps the last error after every generation attempt failed.
	ErrGeneration = errors.New("generation failed")
)

// Engine is the high-level entry point of the library. It wires the data
// context, resolver, assembler and recovery parser to storage and a
// generator.
type Engine struct {
	resolver *resolver.Resolver
	parser   *recovery.Parser
	saves    *saves.Manager

	datasets  ports.DatasetLoader
	store     ports.AttributeStore
	templates ports.TemplateLoader
	generator ports.Generator
	locker    ports.DistributedLocker

	hooks  domain.Hooks
	logger *slog.Logger

	maxDepth   int
	policy     resolver.Policy
	frame      string
	attempts   int
	retryDelay time.Duration
	genTimeout time.Duration
	lockTTL    time.Duration
	parserOpts []recovery.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxDepth bounds placeholder nesting and re-expansion.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithPolicy sets how unresolved placeholders are rendered.
func WithPolicy(p resolver.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithDatasets sets the loader behind "external:<name>" scopes and
// "{text;<name>;<path>}" references.
func WithDatasets(loader ports.DatasetLoader) Option {
	return func(e *Engine) {
		e.datasets = loader
	}
}

// WithStore sets the attribute store. Defaults to an in-memory store.
func WithStore(store ports.AttributeStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithTemplates sets the template loader used by Run.
func WithTemplates(loader ports.TemplateLoader) Option {
	return func(e *Engine) {
		e.templates = loader
	}
}

// WithGenerator sets the text generator used by Run.
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLocker serializes turns on a save across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the lease of the distributed save lock. By default the
// lease covers every generation attempt, see TurnLease.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithRetry sets how many times generation is attempted and the pause
// between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(e *Engine) {
		e.attempts = attempts
		e.retryDelay = delay
	}
}

// WithGenerationTimeout bounds each generation attempt. Zero disables it.
func WithGenerationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.genTimeout = d
	}
}

// WithPromptTemplate replaces the default prompt frame for templates that
// do not carry their own.
func WithPromptTemplate(frame string) Option {
	return func(e *Engine) {
		e.frame = frame
	}
}

// WithRecoveryOptions tunes the output recovery pipeline.
func WithRecoveryOptions(opts ...recovery.Option) Option {
	return func(e *Engine) {
		e.parserOpts = append(e.parserOpts, opts...)
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		maxDepth:   resolver.DefaultMaxDepth,
		policy:     resolver.PolicyKeepLiteral,
		attempts:   DefaultRetryAttempts,
		retryDelay: DefaultRetryDelay,
		genTimeout: DefaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.attempts < 1 {
		return nil, fmt.Errorf("retry attempts must be at least 1, got %d", e.attempts)
	}
	if e.retryDelay < 0 || e.genTimeout < 0 || e.lockTTL < 0 {
		return nil, fmt.Errorf("retry delay, generation timeout and lock TTL must not be negative")
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	e.resolver = resolver.New(resolver.WithMaxDepth(e.maxDepth), resolver.WithPolicy(e.policy))
	e.parser = recovery.NewParser(append([]recovery.Option{recovery.WithLogger(e.logger)}, e.parserOpts...)...)

	managerOpts := []saves.Option{saves.WithLogger(e.logger)}
	if e.locker != nil {
		ttl := e.lockTTL
		if ttl == 0 {
			ttl = TurnLease(e.attempts, e.genTimeout, e.retryDelay)
		}
		managerOpts = append(managerOpts, saves.WithLocker(e.locker), saves.WithLockTTL(ttl))
	}
	e.saves = saves.NewManager(e.store, managerOpts...)
	return e, nil
}

// TurnLease is the distributed lock lease a turn needs: every generation
// attempt at its timeout, the delays between them, plus saves.DefaultLockTTL
// for loading and storing. Without a generation timeout the turn is unbounded
// and the lease falls back to saves.DefaultLockTTL; set WithLockTTL then.
func TurnLease(attempts int, timeout, retryDelay time.Duration) time.Duration {
	if timeout <= 0 || attempts < 1 {
		return saves.DefaultLockTTL
	}
	n := time.Duration(attempts)
	return n*timeout + (n-1)*retryDelay + saves.DefaultLockTTL
}

// Saves exposes the save manager, e.g. to inspect or delete saves.
func (e *Engine) Saves() *saves.Manager { return e.saves }

// Templates returns the configured template loader, or nil.
func (e *Engine) Templates() ports.TemplateLoader { return e.templates }

// Context builds a data context over local attributes and the engine's
// dataset loader.
func (e *Engine) Context(local map[string]domain.Value) *datacontext.Context {
	opts := []datacontext.Option{datacontext.WithLogger(e.logger)}
	if e.datasets != nil {
		opts = append(opts, datacontext.WithLoader(e.datasets))
	}
	return datacontext.New(local, opts...)
}

// ContextFor builds a data context from a save's attributes overlaid with
// local. An empty or unknown save ID contributes nothing.
func (e *Engine) ContextFor(ctx context.Context, saveID string, local map[string]domain.Value) (*datacontext.Context, error) {
	merged := make(map[string]domain.Value)
	if saveID != "" {
		attrs, err := e.saves.Load(ctx, saveID)
		if err != nil && !errors.Is(err, domain.ErrSaveNotFound) {
			return nil, fmt.Errorf("failed to load save %q: %w", saveID, err)
		}
		for k, v := range attrs {
			merged[k] = v
		}
	}
	for k, v := range local {
		merged[k] = v
	}
	return e.Context(merged), nil
}

// Resolve expands the placeholders of template against dc.
func (e *Engine) Resolve(ctx context.Context, template string, dc *datacontext.Context) resolver.Result {
	return e.resolve(ctx, "", template, dc)
}

func (e *Engine) resolve(ctx context.Context, turnID, template string, dc *datacontext.Context) resolver.Result {
	res := e.resolver.Resolve(ctx, template, dc)
	if e.hooks.OnResolve != nil {
		e.hooks.OnResolve(ctx, &domain.ResolveEvent{
			EventBase:   e.event(domain.EventResolve, turnID),
			Template:    template,
			Diagnostics: res.Diagnostics,
		})
	}
	return res
}

// Assemble builds prompt text and the output contract from segments.
func (e *Engine) Assemble(ctx context.Context, segments []string, dc *datacontext.Context) prompt.Assembly {
	return e.assemble(ctx, "", "", e.frame, segments, dc)
}

// AssembleTemplate assembles a stored template, filling its missing
// required inputs and honoring its custom prompt frame.
func (e *Engine) AssembleTemplate(ctx context.Context, tmpl *domain.Template, dc *datacontext.Context) prompt.Assembly {
	frame := tmpl.PromptTemplate
	if frame == "" {
		frame = e.frame
	}
	return e.assemble(ctx, "", tmpl.ID, frame, tmpl.Segments, dc.WithAll(withInputs(dc.Local(), tmpl)))
}

func (e *Engine) assemble(ctx context.Context, turnID, templateID, frame string, segments []string, dc *datacontext.Context) prompt.Assembly {
	opts := []prompt.Option{prompt.WithResolver(e.resolver), prompt.WithLogger(e.logger)}
	if frame != "" {
		opts = append(opts, prompt.WithTemplate(frame))
	}
	asm := prompt.NewAssembler(opts...).Assemble(ctx, segments, dc)

	if e.hooks.OnAssemble != nil {
		e.hooks.OnAssemble(ctx, &domain.AssembleEvent{
			EventBase:   e.event(domain.EventAssemble, turnID),
			TemplateID:  templateID,
			Fields:      len(asm.Contract),
			Diagnostics: asm.Diagnostics,
		})
	}
	return asm
}

// Recover parses raw generation output, validating it against contract
// when one is given.
func (e *Engine) Recover(ctx context.Context, raw string, contract []domain.OutputFieldSpec) domain.RecoveryResult {
	return e.recover(ctx, "", raw, contract)
}

func (e *Engine) recover(ctx context.Context, turnID, raw string, contract []domain.OutputFieldSpec) domain.RecoveryResult {
	res := e.parser.Parse(raw, contract)
	if e.hooks.OnRecover != nil {
		e.hooks.OnRecover(ctx, &domain.RecoverEvent{
			EventBase:   e.event(domain.EventRecover, turnID),
			Stage:       res.Stage,
			OK:          res.OK,
			Repairs:     res.Repairs,
			Diagnostics: res.Diagnostics,
		})
	}
	return res
}

func (e *Engine) event(t domain.EventType, turnID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, TurnID: turnID}
}
