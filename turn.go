package fable

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/google/uuid"
)

// Turn is the record of one generation step against a save.
type Turn struct {
	ID         string
	TemplateID string
	SaveID     string

	Prompt   string
	Contract []domain.OutputFieldSpec
	// Raw is the generator output as received.
	Raw    string
	Result domain.RecoveryResult

	// Stored holds the attributes written back to the save, keyed by
	// attribute name. Empty when recovery failed.
	Stored map[string]domain.Value
	// Next lists follow-up template IDs for every recovered choice field
	// that the template links.
	Next map[string][]string

	// Diagnostics collects assembly and recovery diagnostics.
	Diagnostics []domain.Diagnostic
	Attempts    int
}

// Run executes the template with the given ID against a save.
func (e *Engine) Run(ctx context.Context, templateID, saveID string) (*Turn, error) {
	if e.templates == nil {
		return nil, ErrNoTemplates
	}
	tmpl, err := e.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return e.RunTemplate(ctx, tmpl, saveID)
}

// RunTemplate executes one turn: load the save, fill missing required
// inputs, assemble, generate, recover and store the mapped outputs. Turns on
// the same save are serialized. A recovery failure stores nothing and is
// reported in Turn.Result, not as an error.
func (e *Engine) RunTemplate(ctx context.Context, tmpl *domain.Template, saveID string) (*Turn, error) {
	if e.generator == nil {
		return nil, ErrNoGenerator
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template is nil")
	}

	turn := &Turn{
		ID:         uuid.NewString(),
		TemplateID: tmpl.ID,
		SaveID:     saveID,
	}
	logger := e.logger.With("turn_id", turn.ID, "template_id", tmpl.ID, "save_id", saveID)

	err := e.saves.Update(ctx, saveID, func(ctx context.Context, attrs map[string]domain.Value) (map[string]domain.Value, error) {
		dc := e.Context(withInputs(attrs, tmpl))

		asm := e.assemble(ctx, turn.ID, tmpl.ID, tmpl.PromptTemplate, tmpl.Segments, dc)
		turn.Prompt = asm.Prompt
		turn.Contract = asm.Contract
		turn.Diagnostics = append(turn.Diagnostics, asm.Diagnostics...)

		raw, attempts, err := e.generate(ctx, turn.ID, asm.Prompt)
		turn.Attempts = attempts
		if err != nil {
			return nil, err
		}
		turn.Raw = raw

		res := e.recover(ctx, turn.ID, raw, asm.Contract)
		turn.Result = res
		turn.Diagnostics = append(turn.Diagnostics, res.Diagnostics...)
		if !res.OK {
			logger.Warn("turn produced no usable output", "stage", res.Stage)
			return nil, nil
		}

		turn.Stored = storedOutputs(res.Data, tmpl.OutputStorage)
		turn.Next = nextTemplates(res.Data, tmpl.Next)
		if len(turn.Stored) == 0 {
			return nil, nil
		}

		next := make(map[string]domain.Value, len(attrs)+len(turn.Stored))
		for k, v := range attrs {
			next[k] = v
		}
		for k, v := range turn.Stored {
			next[k] = v
		}
		return next, nil
	})
	if err != nil {
		return turn, err
	}

	logger.Info("turn finished",
		"ok", turn.Result.OK,
		"stage", turn.Result.Stage,
		"stored", len(turn.Stored),
		"attempts", turn.Attempts)
	return turn, nil
}

// generate calls the generator with a per-attempt timeout, retrying failed
// attempts after a fixed delay.
func (e *Engine) generate(ctx context.Context, turnID, prompt string) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", attempt - 1, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}

		start := time.Now()
		out, err := e.generateOnce(ctx, prompt)
		if err == nil && out == "" {
			err = fmt.Errorf("generator returned empty output")
		}
		if e.hooks.OnGenerate != nil {
			e.hooks.OnGenerate(ctx, &domain.GenerateEvent{
				EventBase: e.event(domain.EventGenerate, turnID),
				Attempt:   attempt,
				Duration:  time.Since(start),
				Err:       err,
			})
		}
		if err == nil {
			return out, attempt, nil
		}

		lastErr = err
		e.logger.Warn("generation attempt failed", "turn_id", turnID, "attempt", attempt, "err", err)
		if ctx.Err() != nil {
			return "", attempt, ctx.Err()
		}
	}
	return "", e.attempts, fmt.Errorf("%w after %d attempts: %w", ErrGeneration, e.attempts, lastErr)
}

func (e *Engine) generateOnce(ctx context.Context, prompt string) (string, error) {
	if e.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.genTimeout)
		defer cancel()
	}
	return e.generator.Generate(ctx, prompt)
}

// withInputs returns a copy of attrs where every missing required input is
// filled from the template defaults, or DefaultInputValue.
func withInputs(attrs map[string]domain.Value, tmpl *domain.Template) map[string]domain.Value {
	out := make(map[string]domain.Value, len(attrs)+len(tmpl.RequiredInputs))
	for k, v := range attrs {
		out[k] = v
	}
	for _, name := range tmpl.RequiredInputs {
		if _, ok := out[name]; ok {
			continue
		}
		if def, ok := tmpl.Defaults[name]; ok {
			out[name] = domain.FromAny(def)
			continue
		}
		out[name] = domain.String(domain.DefaultInputValue)
	}
	return out
}

// storedOutputs applies an output storage mapping. An empty mapping keeps
// every recovered field under its own name.
func storedOutputs(data map[string]domain.Value, mapping map[string]string) map[string]domain.Value {
	out := make(map[string]domain.Value)
	if len(mapping) == 0 {
		for k, v := range data {
			out[k] = v
		}
		return out
	}
	for field, attr := range mapping {
		if v, ok := data[field]; ok {
			out[attr] = v
		}
	}
	return out
}

// nextTemplates selects the follow-up links for recovered choice fields.
func nextTemplates(data map[string]domain.Value, links map[string][]string) map[string][]string {
	if len(links) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for field, ids := range links {
		if v, ok := data[field]; ok && !v.IsNull() && len(ids) > 0 {
			out[field] = ids
		}
	}
	return out
}
