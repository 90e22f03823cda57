package recovery

import (
	"testing"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{
			name: "key=value tokens",
			in:   `name="Ann" age=5 active=true`,
			want: map[string]any{"name": "Ann", "age": float64(5), "active": true},
		},
		{
			name: "quoted numbers stay strings",
			in:   `code="007", level=7`,
			want: map[string]any{"code": "007", "level": float64(7)},
		},
		{
			name: "quoted key and value",
			in:   `"story": "He said: go", "choice": 'left'`,
			want: map[string]any{"story": "He said: go", "choice": "left"},
		},
		{
			name: "colon lines cut at next pair",
			in:   "mood: calm, weather: rain\nnext: ",
			want: map[string]any{"mood": "calm", "weather": "rain", "next": nil},
		},
		{
			name: "embedded array",
			in:   `tags: ["a", "b"]`,
			want: map[string]any{"tags": []any{"a", "b"}},
		},
		{
			name: "last duplicate wins",
			in:   "a=1 a=2",
			want: map[string]any{"a": float64(2)},
		},
		{
			name: "comparisons and urls ignored",
			in:   "if x == y then see https://example.com",
			want: map[string]any{},
		},
		{
			name: "nothing",
			in:   "???",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ToMap(ParsePatterns(tt.in)))
		})
	}
}
