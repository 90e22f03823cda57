package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// parseAttrs turns repeated key=value flags into attributes. Values are
// coerced the way placeholder text is, so hp=10 is a number.
func parseAttrs(pairs []string) (map[string]domain.Value, error) {
	attrs := make(map[string]domain.Value, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", pair)
		}
		attrs[key] = domain.CoerceText(value)
	}
	return attrs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
