package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-gitfilter/gitfilter/internal/mcpserver"
	"github.com/go-gitfilter/gitfilter/internal/observability"
)

// NewMCPCommand builds the `gitfilter mcp-serve` subcommand.
func NewMCPCommand() *cobra.Command {
	var (
		otlpEndpoint string
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the pipeline as an MCP tool over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serveMCP(otlpEndpoint, debug)
		},
	}

	cmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address")
	cmd.Flags().BoolVar(&debug, "debug", false, "force 100% trace sampling and verbose logging")

	return cmd
}

func serveMCP(otlpEndpoint string, debug bool) error {
	ocfg := observability.DefaultConfig()
	ocfg.Mode = observability.ModeMCP
	ocfg.OTLPEndpoint = otlpEndpoint
	ocfg.DebugTrace = debug

	providers, err := observability.Init(ocfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	pipelineMetrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init pipeline metrics: %w", err)
	}

	redMetrics, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init red metrics: %w", err)
	}

	srv := mcpserver.NewServer(mcpserver.ServerDeps{
		Logger:          providers.Logger,
		Metrics:         redMetrics,
		PipelineMetrics: pipelineMetrics,
		Tracer:          providers.Tracer,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx)
}
