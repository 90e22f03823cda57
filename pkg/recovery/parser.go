package recovery

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/domain"
)

// FailureMessage is the message of a result no stage could recover.
const FailureMessage = "no recovery stage produced a key/value mapping"

// Parser recovers structured data from generation output. It holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	repairs       []Repair
	lenient       bool
	libraryRepair bool
	patterns      bool
	custom        []*regexp.Regexp
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithRepairs replaces the textual repairs of the repair stage.
func WithRepairs(repairs ...Repair) Option {
	return func(p *Parser) {
		p.repairs = repairs
	}
}

// WithLenient toggles the Hjson stage.
func WithLenient(enabled bool) Option {
	return func(p *Parser) {
		p.lenient = enabled
	}
}

// WithLibraryRepair toggles the json-repair stage.
func WithLibraryRepair(enabled bool) Option {
	return func(p *Parser) {
		p.libraryRepair = enabled
	}
}

// WithPatterns toggles the key/value pattern stage.
func WithPatterns(enabled bool) Option {
	return func(p *Parser) {
		p.patterns = enabled
	}
}

// WithPattern adds a caller-defined key/value expression to the pattern
// stage. Custom expressions run in the order given, before the built-in
// scan, and the first one that matches wins. Each match must capture the key
// and the value, either as groups named "key" and "value" or as the first two
// groups. Values stay strings; a contract coerces them.
func WithPattern(re *regexp.Regexp) Option {
	return func(p *Parser) {
		if re != nil {
			p.custom = append(p.custom, re)
		}
	}
}

// WithLogger sets the logger used for stage tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a Parser with every stage enabled.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		repairs:       DefaultRepairs(),
		lenient:       true,
		libraryRepair: true,
		patterns:      true,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse recovers raw with the default pipeline. contract may be nil.
func Parse(raw string, contract []domain.OutputFieldSpec) domain.RecoveryResult {
	return defaultParser.Parse(raw, contract)
}

// Parse runs the recovery pipeline over raw and, when contract is non-empty,
// validates and coerces the declared fields.
func (p *Parser) Parse(raw string, contract []domain.OutputFieldSpec) domain.RecoveryResult {
	res := p.recover(raw)
	if !res.OK {
		p.logger.Debug("recovery failed", "length", len(raw))
		return res
	}
	p.logger.Debug("recovered output", "stage", res.Stage, "fields", len(res.Data), "repairs", res.Repairs)

	if len(contract) > 0 {
		data, diags := ValidateContract(res.Data, contract)
		res.Data = data
		res.Diagnostics = append(res.Diagnostics, diags...)
	}
	return res
}

func (p *Parser) recover(raw string) domain.RecoveryResult {
	text := strings.TrimSpace(raw)

	if data, ok := parseObject(text); ok {
		return success(domain.StageDirect, data, nil)
	}

	for _, c := range candidates(text) {
		if data, ok := parseObject(c); ok {
			return success(domain.StageExtraction, data, nil)
		}
	}

	if candidate, ok := primaryCandidate(text); ok {
		if data, applied, ok := p.repair(candidate); ok {
			return success(domain.StageRepair, data, applied)
		}

		if p.lenient {
			if data, ok := parseLenient(candidate); ok {
				return success(domain.StageLenient, data, nil)
			}
		}

		if p.libraryRepair {
			if repaired, err := jsonrepair.RepairJSON(candidate); err == nil {
				if data, ok := parseObject(repaired); ok {
					return success(domain.StageLibraryRepair, data, nil)
				}
			} else {
				p.logger.Debug("library repair failed", "err", err)
			}
		}
	}

	for _, re := range p.custom {
		if data := MatchPattern(re, text); len(data) > 0 {
			return success(domain.StagePattern, data, nil)
		}
	}

	if p.patterns {
		if data := ParsePatterns(text); len(data) > 0 {
			return success(domain.StagePattern, data, nil)
		}
	}

	return domain.RecoveryResult{
		Stage: domain.StageFailed,
		Failure: &domain.Failure{
			Kind:    domain.KindParseFailure,
			Message: FailureMessage,
			RawText: raw,
		},
	}
}

// repair applies each repair in order and re-parses after every change.
func (p *Parser) repair(candidate string) (map[string]domain.Value, []string, bool) {
	var applied []string
	current := candidate
	for _, r := range p.repairs {
		next := r.Apply(current)
		if next == current {
			continue
		}
		applied = append(applied, r.Name)
		current = next
		if data, ok := parseObject(current); ok {
			return data, applied, true
		}
	}
	return nil, applied, false
}

func success(stage domain.Stage, data map[string]domain.Value, repairs []string) domain.RecoveryResult {
	return domain.RecoveryResult{
		OK:      true,
		Data:    data,
		Stage:   stage,
		Repairs: repairs,
	}
}

// parseObject is a strict JSON parse that accepts only a single object with
// at least one key and no trailing data.
func parseObject(text string) (map[string]domain.Value, bool) {
	if text == "" || text[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	return domain.FromMap(raw), true
}

func parseLenient(candidate string) (map[string]domain.Value, bool) {
	var raw any
	if err := hjson.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, false
	}
	obj, ok := domain.FromAny(raw).Object()
	if !ok || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}

// Compact renders recovered data as compact JSON, the form stored for
// downstream consumers.
func Compact(data map[string]domain.Value) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(domain.Object(data)); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
