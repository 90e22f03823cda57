package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/internal/service"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// TemplatesURI is the resource listing the available template IDs.
const TemplatesURI = "fable://templates"

// Server exposes the service as MCP tools.
type Server struct {
	service   *service.Service
	templates ports.TemplateLoader
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

type Option func(*Server)

// WithTemplates publishes the template IDs as a resource.
func WithTemplates(loader ports.TemplateLoader) Option {
	return func(s *Server) {
		s.templates = loader
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		service:   svc,
		mcpServer: server.NewMCPServer("fable-mcp", strings.TrimSpace(fable.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.templates != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("resolve_template",
		mcp.WithDescription("Expand {placeholders} in a template against attributes and, optionally, a stored save."),
		mcp.WithString("template", mcp.Required(), mcp.Description("Text containing {path}, {a.{b}} or {text;dataset;path} placeholders")),
		mcp.WithObject("attributes", mcp.Description("Local attributes; override the save's values")),
		mcp.WithString("save_id", mcp.Description("Save whose attributes are used as the base")),
	), mcp.NewStructuredToolHandler(handler(s, s.service.Resolve)))

	s.mcpServer.AddTool(mcp.NewTool("assemble_prompt",
		mcp.WithDescription("Assemble prompt text and the output contract from segments or a stored template."),
		mcp.WithArray("segments", mcp.Description(`Segments such as "(info)", "<instruction>", "[field=\"type\"]"`), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("template_id", mcp.Description("Stored template to assemble instead of segments")),
		mcp.WithObject("attributes", mcp.Description("Local attributes")),
		mcp.WithString("save_id", mcp.Description("Save whose attributes are used as the base")),
		mcp.WithOutputSchema[dto.AssembleResponse](),
	), mcp.NewStructuredToolHandler(handler(s, s.service.Assemble)))

	s.mcpServer.AddTool(mcp.NewTool("recover_output",
		mcp.WithDescription("Recover a JSON object from raw model output, repairing it when needed."),
		mcp.WithString("raw", mcp.Required(), mcp.Description("Raw generator output")),
		mcp.WithString("spec", mcp.Description(`Optional output spec segment, e.g. [name="string", level="number"]`)),
		mcp.WithArray("contract", mcp.Description("Optional field specs {name, type, description}"), mcp.Items(map[string]any{"type": "object"})),
		mcp.WithOutputSchema[dto.RecoverResponse](),
	), mcp.NewStructuredToolHandler(handler(s, s.service.Recover)))

	s.mcpServer.AddTool(mcp.NewTool("run_template",
		mcp.WithDescription("Run one generation turn of a stored template against a save."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template to run")),
		mcp.WithString("save_id", mcp.Required(), mcp.Description("Save to read and update")),
	), mcp.NewStructuredToolHandler(handler(s, s.service.Run)))
}

// handler adapts a service call to a structured MCP tool handler.
func handler[Req, Resp any](s *Server, fn func(context.Context, Req) (Resp, error)) func(context.Context, mcp.CallToolRequest, map[string]any) (Resp, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (Resp, error) {
		var req Req
		var zero Resp
		if err := decodeArgs(args, &req); err != nil {
			s.logger.Warn("MCP: invalid arguments", "tool", request.Params.Name, "err", err)
			return zero, fmt.Errorf("invalid arguments: %w", err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			s.logger.Warn("MCP: tool failed", "tool", request.Params.Name, "err", err)
			return zero, err
		}
		return resp, nil
	}
}

var valueType = reflect.TypeOf(domain.Value{})

// decodeArgs maps tool arguments onto a request struct. Attribute values
// keep their JSON shape as domain.Value.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
		DecodeHook: func(from, to reflect.Type, data any) (any, error) {
			if to == valueType {
				return domain.FromAny(data), nil
			}
			return data, nil
		},
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TemplatesURI, "Available templates",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.templates.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TemplatesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
