package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/service"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*service.Service, *memory.Store) {
	t.Helper()
	templates, err := memory.NewTemplates(domain.Template{
		ID:             "greet",
		Segments:       []string{"(Hero: {hero})", "<Greet the hero>", `[greeting="string"]`},
		RequiredInputs: []string{"hero"},
		PromptTemplate: "{background}\n{tasks}\n{json_format}",
	})
	require.NoError(t, err)

	store := memory.NewStore()
	eng, err := fable.New(
		fable.WithStore(store),
		fable.WithTemplates(templates),
		fable.WithGenerator(memory.NewGenerator(`{"greeting": "Well met"}`)),
	)
	require.NoError(t, err)
	return service.New(eng), store
}

func TestService_Resolve(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", map[string]domain.Value{
		"name": domain.String("Li"),
		"hp":   domain.Number(7),
	}))

	resp, err := svc.Resolve(ctx, dto.ResolveRequest{
		Template:   "{name} has {hp} hp",
		Attributes: map[string]domain.Value{"hp": domain.Number(9)},
		SaveID:     "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Li has 9 hp", resp.Text, "request attributes override the save")

	whole, err := svc.Resolve(ctx, dto.ResolveRequest{Template: "{hp}", SaveID: "s1"})
	require.NoError(t, err)
	assert.True(t, whole.Whole)
	assert.Equal(t, domain.KindNumber, whole.Value.Kind())
}

func TestService_Resolve_RejectsOversizedInput(t *testing.T) {
	t.Setenv("FABLE_MAX_INPUT_SIZE", "8")
	svc, _ := newService(t)

	_, err := svc.Resolve(context.Background(), dto.ResolveRequest{Template: strings.Repeat("x", 9)})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestService_Assemble(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	t.Run("Inline Segments", func(t *testing.T) {
		resp, err := svc.Assemble(ctx, dto.AssembleRequest{
			Segments:   []string{"(Hero: {hero})", `[mood="string"]`},
			Attributes: map[string]domain.Value{"hero": domain.String("Li")},
		})
		require.NoError(t, err)
		assert.Contains(t, resp.Prompt, "Hero: Li")
		require.Len(t, resp.Contract, 1)
		assert.Equal(t, "mood", resp.Contract[0].Name)
	})

	t.Run("Stored Template", func(t *testing.T) {
		resp, err := svc.Assemble(ctx, dto.AssembleRequest{TemplateID: "greet"})
		require.NoError(t, err)
		assert.Contains(t, resp.Prompt, "Hero: unknown")
		assert.Contains(t, resp.Prompt, "1. Greet the hero -> greeting")
	})

	t.Run("Unknown Template", func(t *testing.T) {
		_, err := svc.Assemble(ctx, dto.AssembleRequest{TemplateID: "nope"})
		assert.True(t, service.IsNotFound(err))
	})

	t.Run("Both Or Neither", func(t *testing.T) {
		_, err := svc.Assemble(ctx, dto.AssembleRequest{})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		_, err = svc.Assemble(ctx, dto.AssembleRequest{TemplateID: "greet", Segments: []string{"x"}})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
	})
}

func TestService_Recover(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.Recover(ctx, dto.RecoverRequest{
		Raw:  "Here you go: {'level': '3'}",
		Spec: `[level="number"]`,
	})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 3.0, resp.Result["level"])

	failed, err := svc.Recover(ctx, dto.RecoverRequest{Raw: "nothing useful"})
	require.NoError(t, err)
	assert.False(t, failed.OK)
	assert.Equal(t, "nothing useful", failed.Result[domain.KeyRawOutput])

	_, err = svc.Recover(ctx, dto.RecoverRequest{Raw: "{}", Spec: "(not a spec)"})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestService_Run(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	resp, err := svc.Run(ctx, dto.RunRequest{TemplateID: "greet", SaveID: "s1"})
	require.NoError(t, err)
	assert.True(t, resp.Recovery.OK)
	assert.Equal(t, "Well met", resp.Stored["greeting"].Text())

	attrs, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Well met", attrs["greeting"].Text())

	_, err = svc.Run(ctx, dto.RunRequest{TemplateID: "greet"})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}
