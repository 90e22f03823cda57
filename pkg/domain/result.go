package domain

// Reserved keys of a failed recovery rendered as a map.
const (
	KeyError        = "error"
	KeyErrorDetails = "error_details"
	KeyRawOutput    = "raw_output"
)

// Stage names the recovery stage that produced a result.
type Stage string

const (
	StageDirect        Stage = "direct"
	StageExtraction    Stage = "extraction"
	StageRepair        Stage = "repair"
	StageLenient       Stage = "lenient"
	StageLibraryRepair Stage = "library_repair"
	StagePattern       Stage = "pattern"
	StageFailed        Stage = "failed"
)

// Failure describes a recovery that exhausted every stage.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// RawText is the verbatim generation output.
	RawText string `json:"raw_text"`
}

// RecoveryResult is the outcome of parsing generation output.
type RecoveryResult struct {
	OK          bool             `json:"ok"`
	Data        map[string]Value `json:"data,omitempty"`
	Failure     *Failure         `json:"failure,omitempty"`
	Stage       Stage            `json:"stage"`
	Repairs     []string         `json:"repairs,omitempty"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

// Map renders the result the way downstream storage consumes it: the flat
// recovered mapping on success, or the reserved error keys on failure.
func (r RecoveryResult) Map() map[string]any {
	if !r.OK || r.Failure != nil {
		f := r.Failure
		if f == nil {
			f = &Failure{Kind: KindParseFailure, Message: "no result"}
		}
		return map[string]any{
			KeyError:        string(f.Kind),
			KeyErrorDetails: f.Message,
			KeyRawOutput:    f.RawText,
		}
	}
	return ToMap(r.Data)
}
