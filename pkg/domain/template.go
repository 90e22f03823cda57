package domain

// Template is a stored generation step: the prompt segments to assemble, an
// optional custom prompt frame, and where recovered fields are written back.
type Template struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// Segments are "(info)", "<instruction>" and "[field=\"type\"]" strings.
	Segments []string `json:"prompt_segments" yaml:"prompt_segments" mapstructure:"prompt_segments"`

	// PromptTemplate replaces the default prompt frame when set.
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty" mapstructure:"prompt_template"`

	// OutputStorage maps recovered field names to attribute names.
	// An empty mapping stores every recovered field under its own name.
	OutputStorage map[string]string `json:"output_storage,omitempty" yaml:"output_storage,omitempty" mapstructure:"output_storage"`

	// RequiredInputs lists attributes that must exist before assembling.
	RequiredInputs []string `json:"required_inputs,omitempty" yaml:"required_inputs,omitempty" mapstructure:"required_inputs"`

	// Defaults provides values for missing required inputs.
	Defaults map[string]any `json:"defaults,omitempty" yaml:"defaults,omitempty" mapstructure:"defaults"`

	// Next lists follow-up template IDs keyed by a recovered field (e.g. a choice).
	Next map[string][]string `json:"next_templates,omitempty" yaml:"next_templates,omitempty" mapstructure:"next_templates"`
}

// DefaultInputValue is used for a missing required input without a default.
const DefaultInputValue = "unknown"
