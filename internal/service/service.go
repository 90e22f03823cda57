// Package service validates adapter requests and runs them against the
// engine. The HTTP and MCP adapters are thin transports over it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/sanitize"
	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
	"github.com/aretw0/fable/pkg/prompt"
	"github.com/aretw0/fable/pkg/resolver"
)

// ErrInvalidRequest marks requests rejected before reaching the engine.
var ErrInvalidRequest = errors.New("invalid request")

// Engine is the subset of *fable.Engine the adapters need.
type Engine interface {
	ContextFor(ctx context.Context, saveID string, local map[string]domain.Value) (*datacontext.Context, error)
	Resolve(ctx context.Context, template string, dc *datacontext.Context) resolver.Result
	Assemble(ctx context.Context, segments []string, dc *datacontext.Context) prompt.Assembly
	AssembleTemplate(ctx context.Context, tmpl *domain.Template, dc *datacontext.Context) prompt.Assembly
	Recover(ctx context.Context, raw string, contract []domain.OutputFieldSpec) domain.RecoveryResult
	Run(ctx context.Context, templateID, saveID string) (*fable.Turn, error)
	Templates() ports.TemplateLoader
}

var _ Engine = (*fable.Engine)(nil)

// Service executes dto requests.
type Service struct {
	engine Engine
}

func New(engine Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) Resolve(ctx context.Context, req dto.ResolveRequest) (dto.ResolveResponse, error) {
	template, err := clean("template", req.Template)
	if err != nil {
		return dto.ResolveResponse{}, err
	}
	dc, err := s.engine.ContextFor(ctx, req.SaveID, req.Attributes)
	if err != nil {
		return dto.ResolveResponse{}, err
	}

	res := s.engine.Resolve(ctx, template, dc)
	return dto.ResolveResponse{
		Text:        res.Text,
		Value:       res.Value,
		Whole:       res.Whole,
		Diagnostics: res.Diagnostics,
	}, nil
}

func (s *Service) Assemble(ctx context.Context, req dto.AssembleRequest) (dto.AssembleResponse, error) {
	if (req.TemplateID == "") == (len(req.Segments) == 0) {
		return dto.AssembleResponse{}, fmt.Errorf("%w: exactly one of segments or template_id is required", ErrInvalidRequest)
	}

	dc, err := s.engine.ContextFor(ctx, req.SaveID, req.Attributes)
	if err != nil {
		return dto.AssembleResponse{}, err
	}

	var asm prompt.Assembly
	if req.TemplateID != "" {
		loader := s.engine.Templates()
		if loader == nil {
			return dto.AssembleResponse{}, fmt.Errorf("%w: no templates configured", ErrInvalidRequest)
		}
		tmpl, err := loader.Get(ctx, req.TemplateID)
		if err != nil {
			return dto.AssembleResponse{}, err
		}
		asm = s.engine.AssembleTemplate(ctx, tmpl, dc)
	} else {
		segments := make([]string, len(req.Segments))
		for i, seg := range req.Segments {
			if segments[i], err = clean(fmt.Sprintf("segments[%d]", i), seg); err != nil {
				return dto.AssembleResponse{}, err
			}
		}
		asm = s.engine.Assemble(ctx, segments, dc)
	}

	contract := asm.Contract
	if contract == nil {
		contract = []domain.OutputFieldSpec{}
	}
	return dto.AssembleResponse{
		Prompt:      asm.Prompt,
		Contract:    contract,
		Diagnostics: asm.Diagnostics,
	}, nil
}

func (s *Service) Recover(ctx context.Context, req dto.RecoverRequest) (dto.RecoverResponse, error) {
	raw, err := clean("raw", req.Raw)
	if err != nil {
		return dto.RecoverResponse{}, err
	}

	contract := req.Contract
	if req.Spec != "" {
		seg := prompt.Classify(strings.TrimSpace(req.Spec))
		if seg.Kind != prompt.SegmentOutputSpec {
			return dto.RecoverResponse{}, fmt.Errorf("%w: spec must be a [name=\"type\"] segment", ErrInvalidRequest)
		}
		specs, err := prompt.ParseOutputSpec(seg.Body)
		if err != nil {
			return dto.RecoverResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		contract = append(contract, specs...)
	}

	return dto.FromRecovery(s.engine.Recover(ctx, raw, contract)), nil
}

func (s *Service) Run(ctx context.Context, req dto.RunRequest) (dto.RunResponse, error) {
	if req.TemplateID == "" || req.SaveID == "" {
		return dto.RunResponse{}, fmt.Errorf("%w: template_id and save_id are required", ErrInvalidRequest)
	}

	turn, err := s.engine.Run(ctx, req.TemplateID, req.SaveID)
	if err != nil {
		return dto.RunResponse{}, err
	}
	return dto.RunResponse{
		TurnID:      turn.ID,
		Prompt:      turn.Prompt,
		Raw:         turn.Raw,
		Attempts:    turn.Attempts,
		Recovery:    dto.FromRecovery(turn.Result),
		Stored:      turn.Stored,
		Next:        turn.Next,
		Diagnostics: turn.Diagnostics,
	}, nil
}

// IsNotFound reports whether err names a missing template, save or dataset.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrTemplateNotFound) ||
		errors.Is(err, domain.ErrSaveNotFound) ||
		errors.Is(err, domain.ErrDatasetNotFound)
}

func clean(field, text string) (string, error) {
	out, err := sanitize.Text(text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidRequest, field, err)
	}
	return out, nil
}
