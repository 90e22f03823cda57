package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/service"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	templates, err := memory.NewTemplates(domain.Template{ID: "intro", Segments: []string{"<Hi>", `[greeting="string"]`}})
	require.NoError(t, err)

	eng, err := fable.New(
		fable.WithTemplates(templates),
		fable.WithGenerator(memory.NewGenerator(`{"greeting": "hello"}`)),
	)
	require.NoError(t, err)
	return NewServer(service.New(eng), WithTemplates(templates))
}

func TestDecodeArgs(t *testing.T) {
	var req dto.ResolveRequest
	err := decodeArgs(map[string]any{
		"template": "{hero.name}",
		"attributes": map[string]any{
			"hero":  map[string]any{"name": "Li"},
			"level": 3.0,
		},
		"save_id": "s1",
	}, &req)
	require.NoError(t, err)

	assert.Equal(t, "{hero.name}", req.Template)
	assert.Equal(t, "s1", req.SaveID)
	assert.Equal(t, domain.KindObject, req.Attributes["hero"].Kind())
	assert.Equal(t, "3", req.Attributes["level"].Text())
}

func TestDecodeArgs_Contract(t *testing.T) {
	var req dto.RecoverRequest
	err := decodeArgs(map[string]any{
		"raw":      "{}",
		"contract": []any{map[string]any{"name": "hp", "type": "number"}},
	}, &req)
	require.NoError(t, err)
	require.Len(t, req.Contract, 1)
	assert.Equal(t, domain.FieldNumber, req.Contract[0].Type)
}

func TestTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	call := mcp.CallToolRequest{}

	t.Run("resolve_template", func(t *testing.T) {
		resp, err := handler(s, s.service.Resolve)(ctx, call, map[string]any{
			"template":   "Hello {who}",
			"attributes": map[string]any{"who": "Li"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello Li", resp.Text)
	})

	t.Run("assemble_prompt", func(t *testing.T) {
		resp, err := handler(s, s.service.Assemble)(ctx, call, map[string]any{
			"segments": []any{"<Name a sword>", `[sword="string"]`},
		})
		require.NoError(t, err)
		require.Len(t, resp.Contract, 1)
		assert.Equal(t, "sword", resp.Contract[0].Name)
	})

	t.Run("recover_output", func(t *testing.T) {
		resp, err := handler(s, s.service.Recover)(ctx, call, map[string]any{
			"raw":  "```json\n{\"hp\": \"12\"}\n```",
			"spec": `[hp="number"]`,
		})
		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, 12.0, resp.Result["hp"])
	})

	t.Run("run_template", func(t *testing.T) {
		resp, err := handler(s, s.service.Run)(ctx, call, map[string]any{
			"template_id": "intro",
			"save_id":     "s1",
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", resp.Stored["greeting"].Text())
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := handler(s, s.service.Resolve)(ctx, call, map[string]any{"template": 42})
		assert.Error(t, err)
	})
}
