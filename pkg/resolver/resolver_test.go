package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string]any

func (m mapLoader) Load(_ context.Context, name string) (domain.Value, error) {
	doc, ok := m[name]
	if !ok {
		return domain.Value{}, domain.ErrDatasetNotFound
	}
	return domain.FromAny(doc), nil
}

func storyContext() *datacontext.Context {
	return datacontext.FromMap(map[string]any{
		"active_field":      "name",
		"identity_field":    "title",
		"current_era_index": 1,
		"active_skill":      2,
		"character": map[string]any{
			"name":  "Li",
			"title": "Wanderer",
		},
		"skills": []any{"a", "b", "c"},
		"alias":  "{character.name}",
		"intro":  "I am {character.name}, the {character.title}",
	}, datacontext.WithLoader(mapLoader{
		"eras": []any{
			map[string]any{"name": "Dawn"},
			map[string]any{"name": "Dusk"},
		},
	}))
}

func TestResolve(t *testing.T) {
	dc := storyContext()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"local", "{character.name}", "Li"},
		{"nested path segment", "(v: {character.{active_field}})", "(v: Li)"},
		{"nested index", "skill: {skills[{active_skill}]}", "skill: c"},
		{"external", "era: {text;eras;[0].name}", "era: Dawn"},
		{"external nested index", "{text;eras;[{current_era_index}].name}", "Dusk"},
		{"number renders without fraction", "idx={current_era_index}", "idx=1"},
		{"array splices as json", "all: {skills}", `all: ["a","b","c"]`},
		{"re-expanded value", "{intro}!", "I am Li, the Wanderer!"},
		{"alias", "{alias}", "Li"},
		{"unbalanced kept", "a { b", "a { b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.template, dc, DefaultMaxDepth)
			assert.Equal(t, tt.want, res.Text)
			assert.Empty(t, res.Diagnostics)
		})
	}
}

func TestResolve_WholeExpression(t *testing.T) {
	dc := storyContext()

	res := Resolve("{skills[99]}", dc, DefaultMaxDepth)
	require.True(t, res.Whole)
	assert.Equal(t, domain.KindArray, res.Value.Kind())
	assert.Equal(t, `["a","b","c"]`, res.Text)

	res = Resolve("{character}", dc, DefaultMaxDepth)
	require.True(t, res.Whole)
	assert.Equal(t, domain.KindObject, res.Value.Kind())

	res = Resolve(" {character}", dc, DefaultMaxDepth)
	assert.False(t, res.Whole)
	assert.Equal(t, domain.KindString, res.Value.Kind())
}

func TestResolve_Unresolved(t *testing.T) {
	dc := storyContext()

	tests := []struct {
		name     string
		template string
		want     string
		kind     domain.ErrorKind
	}{
		{"missing local", "hello {nobody}", "hello {nobody}", domain.KindMissingReference},
		{"missing dataset", "{text;nope;a}", "{text;nope;a}", domain.KindMissingReference},
		{"wrong semicolons", "x {text;eras} y", "x {text;eras} y", domain.KindMalformedExpression},
		{"wrong keyword", "{data;eras;[0]}", "{data;eras;[0]}", domain.KindMalformedExpression},
		{"empty", "{}", "{}", domain.KindMalformedExpression},
		{"bad index", "{skills[x]}", "{skills[x]}", domain.KindMalformedExpression},
		{"inner failure keeps outer literal", "{character.{missing}}", "{character.{missing}}", domain.KindMissingReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.template, dc, DefaultMaxDepth)
			assert.Equal(t, tt.want, res.Text)
			require.NotEmpty(t, res.Diagnostics)
			assert.True(t, domain.HasKind(res.Diagnostics, tt.kind), "diagnostics: %v", res.Diagnostics)
		})
	}
}

func TestResolve_FailureIsLocal(t *testing.T) {
	res := Resolve("{character.name} meets {ghost} in {text;eras;[1].name}", storyContext(), DefaultMaxDepth)
	assert.Equal(t, "Li meets {ghost} in Dusk", res.Text)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "{ghost}", res.Diagnostics[0].Expression)
	assert.Equal(t, 23, res.Diagnostics[0].Offset)
}

func TestResolve_PolicyEmpty(t *testing.T) {
	r := New(WithPolicy(PolicyEmpty))
	res := r.Resolve(context.Background(), "hi {ghost}!", storyContext())
	assert.Equal(t, "hi !", res.Text)
	assert.True(t, domain.HasKind(res.Diagnostics, domain.KindMissingReference))

	res = r.Resolve(context.Background(), "{ghost}", storyContext())
	assert.Equal(t, "", res.Text)
	assert.False(t, res.Whole)
}

func TestResolve_CycleTerminates(t *testing.T) {
	dc := datacontext.FromMap(map[string]any{"a": "{a}"})

	res := Resolve("{a}", dc, DefaultMaxDepth)
	assert.Equal(t, "{a}", res.Text)
	assert.True(t, domain.HasKind(res.Diagnostics, domain.KindDepthExceeded))

	// mutual recursion
	dc = datacontext.FromMap(map[string]any{"a": "x{b}", "b": "y{a}"})
	res = New(WithMaxDepth(6)).Resolve(context.Background(), "{a}", dc)
	assert.True(t, domain.HasKind(res.Diagnostics, domain.KindDepthExceeded))
	assert.True(t, strings.HasPrefix(res.Text, "xyxyx"))
}

func TestResolve_NestingDepth(t *testing.T) {
	dc := datacontext.FromMap(map[string]any{"k": "k"})

	nested := "k"
	for i := 0; i < 5; i++ {
		nested = "{" + nested + "}"
	}

	res := New(WithMaxDepth(5)).Resolve(context.Background(), nested, dc)
	assert.Equal(t, "k", res.Text)
	assert.Empty(t, res.Diagnostics)

	res = New(WithMaxDepth(4)).Resolve(context.Background(), nested, dc)
	assert.Equal(t, nested, res.Text)
	assert.True(t, domain.HasKind(res.Diagnostics, domain.KindDepthExceeded))
}

func TestResolve_Idempotent(t *testing.T) {
	dc := storyContext()
	first := Resolve("(v: {character.{active_field}}) {skills[1]}", dc, DefaultMaxDepth).Text
	second := Resolve(first, dc, DefaultMaxDepth).Text
	assert.Equal(t, first, second)
}

func TestResolve_Deterministic(t *testing.T) {
	dc := storyContext()
	r := New()
	tmpl := "{character} {skills} {ghost} {text;eras;}"
	want := r.Resolve(context.Background(), tmpl, dc)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Resolve(context.Background(), tmpl, dc)
			assert.Equal(t, want.Text, got.Text)
			assert.Equal(t, want.Diagnostics, got.Diagnostics)
		}()
	}
	wg.Wait()
}

func TestResolve_NilContext(t *testing.T) {
	res := New().Resolve(context.Background(), "{a}", nil)
	assert.Equal(t, "{a}", res.Text)
	assert.True(t, domain.HasKind(res.Diagnostics, domain.KindMissingReference))
}

func TestResolve_LookupBudget(t *testing.T) {
	t.Run("Doubling Chain Is Cut Off", func(t *testing.T) {
		attrs := map[string]any{"l16": "x"}
		for i := 0; i < 16; i++ {
			next := fmt.Sprintf("{l%d}", i+1)
			attrs[fmt.Sprintf("l%d", i)] = next + next
		}
		dc := datacontext.FromMap(attrs)

		res := New().Resolve(context.Background(), "{l0}", dc)
		require.NotEmpty(t, res.Diagnostics)
		assert.True(t, domain.HasKind(res.Diagnostics, domain.KindDepthExceeded))
		assert.Contains(t, res.Diagnostics[0].Message, "lookup budget")
		assert.LessOrEqual(t, strings.Count(res.Text, "x"), DefaultMaxLookups)
	})

	t.Run("Custom Budget", func(t *testing.T) {
		dc := datacontext.FromMap(map[string]any{"a": 1, "b": 2, "c": 3})

		res := New(WithMaxLookups(2)).Resolve(context.Background(), "{a} {b} {c}", dc)
		assert.Equal(t, "1 2 {c}", res.Text)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, "{c}", res.Diagnostics[0].Expression)
	})

	t.Run("Non Positive Selects Default", func(t *testing.T) {
		assert.Equal(t, DefaultMaxLookups, New(WithMaxLookups(0)).MaxLookups())
	})
}
