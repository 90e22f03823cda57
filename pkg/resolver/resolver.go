package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
)

// externalKeyword is the first token of a "{text;<dataset>;<path>}" reference.
const externalKeyword = "text"

// Result is the outcome of resolving one template.
type Result struct {
	// Text is the template with every resolved placeholder spliced in.
	Text string
	// Value is the native resolved value when Whole is set, otherwise Text
	// wrapped as a string.
	Value domain.Value
	// Whole reports that the template was exactly one placeholder and it
	// resolved.
	Whole       bool
	Diagnostics []domain.Diagnostic
}

// Resolver expands placeholders. It holds no mutable state and is safe for
// concurrent use.
type Resolver struct {
	maxDepth   int
	maxLookups int
	policy     Policy
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		maxDepth:   DefaultMaxDepth,
		maxLookups: DefaultMaxLookups,
		policy:     PolicyKeepLiteral,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the configured depth bound.
func (r *Resolver) MaxDepth() int { return r.maxDepth }

// MaxLookups returns the configured lookup budget.
func (r *Resolver) MaxLookups() int { return r.maxLookups }

// Policy returns the configured unresolved-placeholder policy.
func (r *Resolver) Policy() Policy { return r.policy }

// Resolve expands template against dc with the default policy.
func Resolve(template string, dc *datacontext.Context, maxDepth int) Result {
	return New(WithMaxDepth(maxDepth)).Resolve(context.Background(), template, dc)
}

// Resolve expands every placeholder of template against dc. The context is
// only used for external dataset loads.
func (r *Resolver) Resolve(ctx context.Context, template string, dc *datacontext.Context) Result {
	if dc == nil {
		dc = datacontext.New(nil)
	}
	run := &resolution{ctx: ctx, dc: dc, r: r}

	tokens := Scan(template)
	if len(tokens) == 1 && tokens[0].Kind == TokenPlaceholder {
		v, ok := run.span(tokens[0], 0, 0, true)
		if ok {
			return Result{
				Text:        v.Text(),
				Value:       v,
				Whole:       true,
				Diagnostics: run.diags,
			}
		}
		text := template
		if r.policy == PolicyEmpty {
			text = ""
		}
		return Result{
			Text:        text,
			Value:       domain.String(text),
			Diagnostics: run.diags,
		}
	}

	text := run.splice(template, tokens, 0, 0, true)
	return Result{
		Text:        text,
		Value:       domain.String(text),
		Diagnostics: run.diags,
	}
}

// ResolveString is a convenience returning only the text.
func (r *Resolver) ResolveString(ctx context.Context, template string, dc *datacontext.Context) string {
	return r.Resolve(ctx, template, dc).Text
}

type resolution struct {
	ctx     context.Context
	dc      *datacontext.Context
	r       *Resolver
	diags   []domain.Diagnostic
	lookups int
}

// splice renders tokens at depth, applying the unresolved policy to failed
// spans. base is the offset of text in the original template; when anchored
// is false every diagnostic is reported at base.
func (s *resolution) splice(text string, tokens []Token, depth, base int, anchored bool) string {
	if tokens == nil {
		tokens = Scan(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range tokens {
		if tok.Kind == TokenLiteral {
			b.WriteString(tok.Raw)
			continue
		}
		v, ok := s.span(tok, depth, offsetOf(tok, base, anchored), anchored)
		switch {
		case ok:
			b.WriteString(v.Text())
		case s.r.policy == PolicyEmpty:
		default:
			b.WriteString(tok.Raw)
		}
	}
	return b.String()
}

// span resolves one placeholder. Inner spans are resolved first; if any of
// them fails the whole span fails and its text stays literal.
func (s *resolution) span(tok Token, depth, offset int, anchored bool) (domain.Value, bool) {
	if depth >= s.r.maxDepth {
		s.report(domain.KindDepthExceeded, tok.Raw, fmt.Sprintf("maximum depth %d exceeded", s.r.maxDepth), offset)
		return domain.Value{}, false
	}

	content := tok.Inner
	if inner := Scan(tok.Inner); hasPlaceholder(inner) {
		var b strings.Builder
		innerBase := offset + 1
		for _, it := range inner {
			if it.Kind == TokenLiteral {
				b.WriteString(it.Raw)
				continue
			}
			v, ok := s.span(it, depth+1, offsetOf(it, innerBase, anchored), anchored)
			if !ok {
				return domain.Value{}, false
			}
			b.WriteString(v.Text())
		}
		content = b.String()
	}

	if s.lookups >= s.r.maxLookups {
		s.report(domain.KindDepthExceeded, tok.Raw, fmt.Sprintf("lookup budget %d exhausted", s.r.maxLookups), offset)
		return domain.Value{}, false
	}
	s.lookups++

	v, ok := s.lookup(tok.Raw, content, offset)
	if !ok {
		return domain.Value{}, false
	}

	// resolved text that is itself a template is expanded one level deeper
	if str, isStr := v.Str(); isStr {
		if tokens := Scan(str); hasPlaceholder(tokens) {
			if len(tokens) == 1 {
				// an alias of another placeholder fails with it
				return s.span(tokens[0], depth+1, offset, false)
			}
			return domain.String(s.splice(str, tokens, depth+1, offset, false)), true
		}
	}
	return v, true
}

func (s *resolution) lookup(raw, content string, offset int) (domain.Value, bool) {
	expr := strings.TrimSpace(content)
	if expr == "" {
		s.report(domain.KindMalformedExpression, raw, "empty expression", offset)
		return domain.Value{}, false
	}

	scope := datacontext.ScopeLocal
	path := expr
	if strings.Contains(expr, ";") {
		parts := strings.Split(expr, ";")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) != externalKeyword {
			s.report(domain.KindMalformedExpression, raw,
				fmt.Sprintf("external reference must be %q", "text;<dataset>;<path>"), offset)
			return domain.Value{}, false
		}
		dataset := strings.TrimSpace(parts[1])
		if dataset == "" {
			s.report(domain.KindMalformedExpression, raw, "empty dataset name", offset)
			return domain.Value{}, false
		}
		scope = datacontext.ExternalScope(dataset)
		path = strings.TrimSpace(parts[2])
	}

	if path != "" || scope == datacontext.ScopeLocal {
		if _, err := datacontext.ParsePath(path); err != nil {
			var pe *datacontext.PathError
			msg := err.Error()
			if errors.As(err, &pe) {
				msg = pe.Reason
			}
			s.report(domain.KindMalformedExpression, raw, msg, offset)
			return domain.Value{}, false
		}
	}

	v, ok := s.dc.GetContext(s.ctx, scope, path)
	if !ok {
		s.report(domain.KindMissingReference, raw, fmt.Sprintf("no value at %s %q", scope, path), offset)
		return domain.Value{}, false
	}
	return v, true
}

func (s *resolution) report(kind domain.ErrorKind, expr, msg string, offset int) {
	s.diags = append(s.diags, domain.Diagnostic{
		Kind:       kind,
		Expression: expr,
		Message:    msg,
		Offset:     offset,
	})
}

func offsetOf(tok Token, base int, anchored bool) int {
	if !anchored {
		return base
	}
	return base + tok.Start
}

func hasPlaceholder(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.Kind == TokenPlaceholder {
			return true
		}
	}
	return false
}
