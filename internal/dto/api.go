// Package dto holds the request and response shapes shared by the HTTP and
// MCP adapters.
package dto

import (
	"github.com/aretw0/fable/pkg/domain"
)

// ResolveRequest asks for one template to be resolved against attributes,
// optionally layered over a stored save.
type ResolveRequest struct {
	Template   string                  `json:"template" mapstructure:"template"`
	Attributes map[string]domain.Value `json:"attributes,omitempty" mapstructure:"attributes"`
	SaveID     string                  `json:"save_id,omitempty" mapstructure:"save_id"`
}

type ResolveResponse struct {
	Text        string              `json:"text"`
	Value       domain.Value        `json:"value"`
	Whole       bool                `json:"whole"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// AssembleRequest assembles either inline segments or a stored template.
type AssembleRequest struct {
	Segments   []string                `json:"segments,omitempty" mapstructure:"segments"`
	TemplateID string                  `json:"template_id,omitempty" mapstructure:"template_id"`
	Attributes map[string]domain.Value `json:"attributes,omitempty" mapstructure:"attributes"`
	SaveID     string                  `json:"save_id,omitempty" mapstructure:"save_id"`
}

type AssembleResponse struct {
	Prompt      string                   `json:"prompt"`
	Contract    []domain.OutputFieldSpec `json:"contract"`
	Diagnostics []domain.Diagnostic      `json:"diagnostics,omitempty"`
}

// RecoverRequest carries raw generator output. The contract may be given as
// field specs or as an output spec segment such as `[name="string"]`.
type RecoverRequest struct {
	Raw      string                   `json:"raw" mapstructure:"raw"`
	Contract []domain.OutputFieldSpec `json:"contract,omitempty" mapstructure:"contract"`
	Spec     string                   `json:"spec,omitempty" mapstructure:"spec"`
}

type RecoverResponse struct {
	OK          bool                `json:"ok"`
	Stage       domain.Stage        `json:"stage"`
	Repairs     []string            `json:"repairs,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
	// Result is the recovered mapping, or the error/error_details/raw_output
	// mapping on failure.
	Result map[string]any `json:"result"`
}

// RunRequest executes a stored template against a save.
type RunRequest struct {
	TemplateID string `json:"template_id" mapstructure:"template_id"`
	SaveID     string `json:"save_id" mapstructure:"save_id"`
}

type RunResponse struct {
	TurnID      string                  `json:"turn_id"`
	Prompt      string                  `json:"prompt"`
	Raw         string                  `json:"raw"`
	Attempts    int                     `json:"attempts"`
	Recovery    RecoverResponse         `json:"recovery"`
	Stored      map[string]domain.Value `json:"stored,omitempty"`
	Next        map[string][]string     `json:"next,omitempty"`
	Diagnostics []domain.Diagnostic     `json:"diagnostics,omitempty"`
}

// FromRecovery renders a recovery result for the wire.
func FromRecovery(res domain.RecoveryResult) RecoverResponse {
	return RecoverResponse{
		OK:          res.OK,
		Stage:       res.Stage,
		Repairs:     res.Repairs,
		Diagnostics: res.Diagnostics,
		Result:      res.Map(),
	}
}
