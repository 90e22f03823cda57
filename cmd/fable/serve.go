package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/presentation/tui"
	"github.com/aretw0/fable/internal/service"
	httpAdapter "github.com/aretw0/fable/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes resolve, assemble, recover and run as a JSON API over HTTP, with
/healthz and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		rt, cfg, logger, err := buildRuntime(cmd, cli.BuildOptions{Registerer: reg})
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		if tui.IsTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		handler := httpAdapter.NewHandler(service.New(rt.Engine),
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithLogger(logger),
		)
		if err := httpAdapter.Serve(ctx, addr, handler, logger); err != nil {
			return err
		}
		logger.Info("Fable server stopped gracefully", "signal", ctx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides http.addr)")
}
