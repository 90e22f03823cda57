package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/service"
	"github.com/aretw0/fable/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Fable as an MCP server so agents can resolve templates, assemble
prompts, recover output and run turns as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		rt, _, logger, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := mcp.NewServer(service.New(rt.Engine),
			mcp.WithTemplates(rt.Engine.Templates()),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// stdout carries JSON-RPC
			log.SetOutput(os.Stderr)
			logger.Info("Starting Fable MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Fable MCP Server (SSE)", "port", port)
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
