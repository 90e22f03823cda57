package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

// Mask replaces the value of every masked attribute.
const Mask = "***"

type piiMiddleware struct {
	next     ports.AttributeStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks, on save, the values of attributes (and nested
// object fields) whose key matches one of the patterns. Masking is one-way:
// loads return the masked text.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.AttributeStore) ports.AttributeStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error {
	return m.next.Save(ctx, saveID, m.maskMap(attrs))
}

func (m *piiMiddleware) Load(ctx context.Context, saveID string) (map[string]domain.Value, error) {
	return m.next.Load(ctx, saveID)
}

func (m *piiMiddleware) Delete(ctx context.Context, saveID string) error {
	return m.next.Delete(ctx, saveID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap returns a masked copy; Values are immutable so the caller's map
// is left alone.
func (m *piiMiddleware) maskMap(attrs map[string]domain.Value) map[string]domain.Value {
	out := make(map[string]domain.Value, len(attrs))
	for k, v := range attrs {
		if m.matches(k) {
			out[k] = domain.String(Mask)
			continue
		}
		if obj, ok := v.Object(); ok {
			out[k] = domain.Object(m.maskMap(obj))
			continue
		}
		out[k] = v
	}
	return out
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
