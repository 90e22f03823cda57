package prompt

import (
	"fmt"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// SegmentKind classifies a template segment by its leading delimiter.
type SegmentKind int

const (
	// SegmentPlain is undelimited text, kept as background information.
	SegmentPlain SegmentKind = iota
	// SegmentInfo is "(...)": background the model should know.
	SegmentInfo
	// SegmentInstruction is "<...>": what the model should write.
	SegmentInstruction
	// SegmentOutputSpec is "[field=\"type\", ...]": the fields to return.
	SegmentOutputSpec
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentInfo:
		return "info"
	case SegmentInstruction:
		return "instruction"
	case SegmentOutputSpec:
		return "output_spec"
	default:
		return "plain"
	}
}

// Segment is a classified template segment.
type Segment struct {
	Kind SegmentKind
	// Body is the text between the delimiters, trimmed.
	Body string
	Raw  string
}

var delimiters = map[byte]struct {
	kind  SegmentKind
	close byte
}{
	'(': {SegmentInfo, ')'},
	'<': {SegmentInstruction, '>'},
	'[': {SegmentOutputSpec, ']'},
}

// Classify inspects the leading delimiter of raw. A missing closing
// delimiter is tolerated.
func Classify(raw string) Segment {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Segment{Kind: SegmentPlain, Raw: raw}
	}
	d, ok := delimiters[s[0]]
	if !ok {
		return Segment{Kind: SegmentPlain, Body: s, Raw: raw}
	}
	body := s[1:]
	if strings.HasSuffix(body, string(d.close)) {
		body = body[:len(body)-1]
	}
	return Segment{Kind: d.kind, Body: strings.TrimSpace(body), Raw: raw}
}

// SpecError reports declarations of an output spec that could not be read.
type SpecError struct {
	Body  string
	Items []string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("output spec %q: unreadable declarations %q", e.Body, e.Items)
}

// ParseOutputSpec reads comma-separated `field="type"` declarations. Quotes
// around the type are optional. A value that is not a known type name
// declares a string field and is kept as its description hint. Readable
// fields are returned alongside a *SpecError for the rest.
func ParseOutputSpec(body string) ([]domain.OutputFieldSpec, error) {
	var (
		fields []domain.OutputFieldSpec
		bad    []string
	)
	for _, item := range splitOutsideQuotes(body, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, found := strings.Cut(item, "=")
		name = strings.TrimSpace(domain.Unquote(strings.TrimSpace(name)))
		if !found || name == "" || strings.ContainsAny(name, " \t\n") {
			bad = append(bad, item)
			continue
		}
		value = domain.Unquote(strings.TrimSpace(value))

		spec := domain.OutputFieldSpec{Name: name, Type: domain.FieldString}
		if ft, ok := domain.ParseFieldType(value); ok {
			spec.Type = ft
		} else {
			spec.Description = strings.TrimSpace(value)
		}
		fields = append(fields, spec)
	}
	if len(bad) > 0 {
		return fields, &SpecError{Body: body, Items: bad}
	}
	return fields, nil
}

func splitOutsideQuotes(s string, sep byte) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
