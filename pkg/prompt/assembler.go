package prompt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/resolver"
)

// Task is an instruction paired with the fields it asks for.
type Task struct {
	Instruction string
	Fields      []domain.OutputFieldSpec
}

// Sections is the classified, resolved content of a segment list.
type Sections struct {
	// Background holds resolved info and plain segments in input order.
	Background []string
	// Instructions holds every resolved instruction in input order.
	Instructions []string
	Tasks        []Task
	// Notes holds unpaired instructions and unpaired output specs.
	Notes []string
}

// Assembly is the result of assembling a segment list.
type Assembly struct {
	Prompt      string
	Contract    []domain.OutputFieldSpec
	Sections    Sections
	Diagnostics []domain.Diagnostic
}

// Assembler turns template segments into prompt text and an output contract.
type Assembler struct {
	resolver *resolver.Resolver
	template string
	logger   *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithResolver sets the resolver applied to info and instruction text.
func WithResolver(r *resolver.Resolver) Option {
	return func(a *Assembler) {
		a.resolver = r
	}
}

// WithTemplate replaces the default prompt frame. See Render for the keys.
func WithTemplate(tmpl string) Option {
	return func(a *Assembler) {
		a.template = tmpl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		resolver: resolver.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble is a convenience returning the prompt and contract with the
// default frame.
func Assemble(segments []string, dc *datacontext.Context) (string, []domain.OutputFieldSpec) {
	asm := NewAssembler().Assemble(context.Background(), segments, dc)
	return asm.Prompt, asm.Contract
}

// Assemble classifies segments, resolves their text against dc, pairs each
// output spec with the nearest preceding unpaired instruction and renders
// the prompt.
func (a *Assembler) Assemble(ctx context.Context, segments []string, dc *datacontext.Context) Assembly {
	var (
		out     Assembly
		pending []string
		fields  = newContract()
	)

	resolve := func(text string) string {
		res := a.resolver.Resolve(ctx, text, dc)
		out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
		return res.Text
	}

	for _, raw := range segments {
		seg := Classify(raw)
		switch seg.Kind {
		case SegmentPlain, SegmentInfo:
			if seg.Body == "" {
				continue
			}
			out.Sections.Background = append(out.Sections.Background, resolve(seg.Body))

		case SegmentInstruction:
			text := resolve(seg.Body)
			out.Sections.Instructions = append(out.Sections.Instructions, text)
			pending = append(pending, text)

		case SegmentOutputSpec:
			declared, err := ParseOutputSpec(seg.Body)
			if err != nil {
				a.logger.Warn("output spec partially unreadable", "segment", raw, "err", err)
				out.Diagnostics = append(out.Diagnostics, domain.Diagnostic{
					Kind:       domain.KindMalformedExpression,
					Expression: strings.TrimSpace(raw),
					Message:    err.Error(),
					Offset:     -1,
				})
			}
			if len(declared) == 0 {
				continue
			}

			if n := len(pending); n > 0 {
				instruction := pending[n-1]
				pending = pending[:n-1]
				for i := range declared {
					declared[i].Description = describe(instruction, declared[i].Description)
				}
				out.Sections.Tasks = append(out.Sections.Tasks, Task{Instruction: instruction, Fields: declared})
			} else {
				names := make([]string, len(declared))
				for i := range declared {
					if declared[i].Description == "" {
						declared[i].Description = strings.ReplaceAll(declared[i].Name, "_", " ")
					}
					names[i] = declared[i].Name
				}
				out.Sections.Notes = append(out.Sections.Notes, "Also return: "+strings.Join(names, ", "))
			}
			fields.add(declared...)
		}
	}
	for _, instruction := range pending {
		out.Sections.Notes = append(out.Sections.Notes, instruction)
	}

	out.Contract = fields.list()
	out.Prompt = Render(a.template, out.Sections, out.Contract)
	return out
}

func describe(instruction, hint string) string {
	switch {
	case hint == "":
		return instruction
	case instruction == "":
		return hint
	default:
		return instruction + " (" + hint + ")"
	}
}

// contract keeps fields in first-declaration order; a redeclaration
// replaces the earlier spec.
type contract struct {
	order []string
	specs map[string]domain.OutputFieldSpec
}

func newContract() *contract {
	return &contract{specs: make(map[string]domain.OutputFieldSpec)}
}

func (c *contract) add(specs ...domain.OutputFieldSpec) {
	for _, s := range specs {
		if _, seen := c.specs[s.Name]; !seen {
			c.order = append(c.order, s.Name)
		}
		c.specs[s.Name] = s
	}
}

func (c *contract) list() []domain.OutputFieldSpec {
	out := make([]domain.OutputFieldSpec, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.specs[name])
	}
	return out
}
