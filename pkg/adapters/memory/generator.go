package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when a Generator has no replies left.
var ErrScriptExhausted = errors.New("scripted generator has no replies left")

// Reply is one scripted generator response.
type Reply struct {
	Text string
	Err  error
}

// Generator implements ports.Generator by replaying scripted replies in
// order. It records every prompt it receives.
type Generator struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewGenerator creates a generator that returns texts in order.
func NewGenerator(texts ...string) *Generator {
	g := &Generator{}
	for _, t := range texts {
		g.replies = append(g.replies, Reply{Text: t})
	}
	return g
}

// Push appends replies to the script.
func (g *Generator) Push(replies ...Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
}

// Generate returns the next scripted reply.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return "", ErrScriptExhausted
	}
	next := g.replies[0]
	g.replies = g.replies[1:]
	return next.Text, next.Err
}

// Prompts returns the prompts received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
