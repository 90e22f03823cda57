package fable_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sceneTemplate = domain.Template{
	ID: "scene",
	Segments: []string{
		"(You are {character.name}, a {character.sect} disciple.)",
		"(Weather: {text;weather;today})",
		"(Location: {location})",
		"<Describe what {character.name} sees>",
		`[scene="string", mood="string"]`,
	},
	OutputStorage:  map[string]string{"scene": "last_scene"},
	RequiredInputs: []string{"character", "location"},
	Defaults: map[string]any{
		"character": map[string]any{"name": "Nobody", "sect": "wandering"},
	},
	Next: map[string][]string{"mood": {"calm", "storm"}},
}

func newEngine(t *testing.T, gen *memory.Generator, opts ...fable.Option) (*fable.Engine, *memory.Store) {
	t.Helper()
	templates, err := memory.NewTemplates(sceneTemplate)
	require.NoError(t, err)
	store := memory.NewStore()

	base := []fable.Option{
		fable.WithStore(store),
		fable.WithTemplates(templates),
		fable.WithGenerator(gen),
		fable.WithDatasets(memory.NewDatasets(map[string]any{
			"weather": map[string]any{"today": "rain"},
		})),
		fable.WithRetry(3, 0),
	}
	eng, err := fable.New(append(base, opts...)...)
	require.NoError(t, err)
	return eng, store
}

func TestEngine_Run_StoresMappedOutputs(t *testing.T) {
	gen := memory.NewGenerator("Sure!\n```json\n{\"scene\": \"A quiet courtyard\", \"mood\": \"calm\"}\n```")
	eng, store := newEngine(t, gen)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "hero", map[string]domain.Value{
		"character": domain.Object(map[string]domain.Value{
			"name": domain.String("Li"),
			"sect": domain.String("Huashan"),
		}),
	}))

	turn, err := eng.Run(ctx, "scene", "hero")
	require.NoError(t, err)
	require.True(t, turn.Result.OK)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, 1, turn.Attempts)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "You are Li, a Huashan disciple.")
	assert.Contains(t, prompts[0], "Weather: rain")
	assert.Contains(t, prompts[0], `"scene"`)
	assert.Contains(t, prompts[0], "Location: unknown", "missing required input falls back to unknown")

	assert.Equal(t, map[string]domain.Value{"last_scene": domain.String("A quiet courtyard")}, turn.Stored)
	assert.Equal(t, map[string][]string{"mood": {"calm", "storm"}}, turn.Next)

	attrs, err := store.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, "A quiet courtyard", attrs["last_scene"].Text())
	assert.Contains(t, attrs, "character")
	assert.NotContains(t, attrs, "location", "defaults are not persisted")
	assert.NotContains(t, attrs, "mood", "unmapped fields are not persisted")
}

func TestEngine_Run_DefaultsFromTemplate(t *testing.T) {
	gen := memory.NewGenerator(`{"scene": "road", "mood": "calm"}`)
	eng, _ := newEngine(t, gen)

	_, err := eng.Run(context.Background(), "scene", "fresh")
	require.NoError(t, err)
	assert.Contains(t, gen.Prompts()[0], "You are Nobody, a wandering disciple.")
}

func TestEngine_Run_FailureStoresNothing(t *testing.T) {
	gen := memory.NewGenerator("I cannot help with that.")
	eng, store := newEngine(t, gen)
	ctx := context.Background()

	turn, err := eng.Run(ctx, "scene", "hero")
	require.NoError(t, err, "recovery failure is reported in the turn")
	assert.False(t, turn.Result.OK)
	assert.Equal(t, "I cannot help with that.", turn.Result.Map()[domain.KeyRawOutput])
	assert.Empty(t, turn.Stored)

	_, err = store.Load(ctx, "hero")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestEngine_Run_Retries(t *testing.T) {
	gen := memory.NewGenerator()
	gen.Push(
		memory.Reply{Err: errors.New("upstream busy")},
		memory.Reply{Text: ""},
		memory.Reply{Text: `{"scene": "gate"}`},
	)
	eng, _ := newEngine(t, gen)

	turn, err := eng.Run(context.Background(), "scene", "hero")
	require.NoError(t, err)
	assert.Equal(t, 3, turn.Attempts)
	assert.True(t, turn.Result.OK)
	assert.Len(t, gen.Prompts(), 3)
}

func TestEngine_Run_GenerationExhausted(t *testing.T) {
	gen := memory.NewGenerator()
	eng, _ := newEngine(t, gen, fable.WithRetry(2, time.Millisecond))

	_, err := eng.Run(context.Background(), "scene", "hero")
	assert.ErrorIs(t, err, fable.ErrGeneration)
	assert.ErrorIs(t, err, memory.ErrScriptExhausted)
}

func TestEngine_Run_UnknownTemplate(t *testing.T) {
	eng, _ := newEngine(t, memory.NewGenerator())
	_, err := eng.Run(context.Background(), "missing", "hero")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestEngine_Run_RequiresGenerator(t *testing.T) {
	eng, err := fable.New()
	require.NoError(t, err)

	_, err = eng.RunTemplate(context.Background(), &sceneTemplate, "hero")
	assert.ErrorIs(t, err, fable.ErrNoGenerator)

	_, err = eng.Run(context.Background(), "scene", "hero")
	assert.ErrorIs(t, err, fable.ErrNoTemplates)
}

func TestEngine_Run_SerializesSave(t *testing.T) {
	tmpl := domain.Template{
		ID:       "count",
		Segments: []string{"(count is {count})", `[count="number"]`},
	}
	gen := memory.NewGenerator()
	for i := 0; i < 10; i++ {
		gen.Push(memory.Reply{Text: `{"count": 1}`})
	}
	eng, err := fable.New(fable.WithGenerator(gen))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.RunTemplate(context.Background(), &tmpl, "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	attrs, err := eng.Saves().Load(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, "1", attrs["count"].Text())
}

func TestEngine_Hooks(t *testing.T) {
	var mu sync.Mutex
	var events []domain.EventType
	record := func(e domain.EventType) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}
	hooks := domain.Hooks{
		OnAssemble: func(ctx context.Context, e *domain.AssembleEvent) { record(e.Type) },
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) { record(e.Type) },
		OnRecover:  func(ctx context.Context, e *domain.RecoverEvent) { record(e.Type) },
	}
	gen := memory.NewGenerator(`{"scene": "x"}`)
	eng, _ := newEngine(t, gen, fable.WithHooks(hooks))

	turn, err := eng.Run(context.Background(), "scene", "hero")
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, []domain.EventType{domain.EventAssemble, domain.EventGenerate, domain.EventRecover}, events)
}

func TestEngine_ResolveAndPolicy(t *testing.T) {
	eng, err := fable.New(fable.WithPolicy(resolver.PolicyEmpty))
	require.NoError(t, err)

	dc := eng.Context(map[string]domain.Value{"name": domain.String("Li")})
	res := eng.Resolve(context.Background(), "{name} meets {ghost}", dc)
	assert.Equal(t, "Li meets ", res.Text)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.KindMissingReference, res.Diagnostics[0].Kind)
}

func TestEngine_Recover(t *testing.T) {
	eng, err := fable.New()
	require.NoError(t, err)

	res := eng.Recover(context.Background(), `{name: 'Li', level: "3",}`, []domain.OutputFieldSpec{
		{Name: "name", Type: domain.FieldString},
		{Name: "level", Type: domain.FieldNumber},
	})
	require.True(t, res.OK)
	assert.Equal(t, domain.Number(3), res.Data["level"])
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := fable.New(fable.WithRetry(0, time.Second))
	assert.Error(t, err)

	_, err = fable.New(fable.WithGenerationTimeout(-time.Second))
	assert.Error(t, err)
}
