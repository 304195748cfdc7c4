// Package commands implements CLI command handlers for gitfilter.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-gitfilter/gitfilter/internal/audit"
	"github.com/go-gitfilter/gitfilter/internal/gfconfig"
	"github.com/go-gitfilter/gitfilter/internal/observability"
	"github.com/go-gitfilter/gitfilter/internal/runner"
)

// runFlags holds the flag values bound to the run subcommand.
type runFlags struct {
	configPath   string
	inputPath    string
	outputPath   string
	rulesPath    string
	reportFormat string
	reportHTML   string
	numThreads   int
	bufferDepth  int
	otlpEndpoint string
	debug        bool
}

// NewRunCommand builds the `gitfilter run` subcommand.
func NewRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the filter pipeline over a fast-export stream",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPipeline(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a gitfilter config YAML file")
	cmd.Flags().StringVar(&flags.inputPath, "input", "", "fast-export stream file (default: stdin)")
	cmd.Flags().StringVar(&flags.outputPath, "output", "", "fast-import stream file (default: stdout)")
	cmd.Flags().StringVar(&flags.rulesPath, "rules", "", "path to a rules document (YAML or JSON)")
	cmd.Flags().StringVar(&flags.reportFormat, "report", "", "audit report format: table or html")
	cmd.Flags().StringVar(&flags.reportHTML, "report-html-out", "", "path to write the HTML throughput chart")
	cmd.Flags().IntVar(&flags.numThreads, "threads", 0, "number of parse workers (0 = automatic)")
	cmd.Flags().IntVar(&flags.bufferDepth, "buffer-depth", 0, "channel buffer depth (0 = automatic)")
	cmd.Flags().StringVar(&flags.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "force 100% trace sampling and verbose logging")

	return cmd
}

func runPipeline(flags runFlags) error {
	cfg, err := loadRunConfig(flags)
	if err != nil {
		return err
	}

	providers, err := observability.Init(buildObservabilityConfig(cfg, flags.debug))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init pipeline metrics: %w", err)
	}

	src, closeSrc, err := openInput(flags.inputPath)
	if err != nil {
		return err
	}
	defer closeSrc()

	dst, closeDst, err := openOutput(flags.outputPath)
	if err != nil {
		return err
	}
	defer closeDst()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := runner.Run(ctx, providers.Logger, metrics, *cfg, src, dst)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return renderReport(cfg.Report, result.Summary)
}

func loadRunConfig(flags runFlags) (*gfconfig.Config, error) {
	cfg, err := gfconfig.LoadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.rulesPath != "" {
		cfg.Rules.Path = flags.rulesPath
	}

	if flags.reportFormat != "" {
		cfg.Report.Format = flags.reportFormat
	}

	if flags.reportHTML != "" {
		cfg.Report.HTMLOut = flags.reportHTML
	}

	if flags.numThreads != 0 {
		cfg.NumThreads = flags.numThreads
	}

	if flags.bufferDepth != 0 {
		cfg.BufferDepth = flags.bufferDepth
	}

	if flags.otlpEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = flags.otlpEndpoint
	}

	if flags.debug {
		cfg.Telemetry.DebugTrace = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func buildObservabilityConfig(cfg *gfconfig.Config, debug bool) observability.Config {
	ocfg := observability.DefaultConfig()
	ocfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	ocfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	ocfg.SampleRatio = cfg.Telemetry.SampleRatio
	ocfg.DebugTrace = cfg.Telemetry.DebugTrace || debug

	return ocfg
}

func openInput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path) //nolint:gosec // operator-specified output path
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}

func renderReport(cfg gfconfig.ReportConfig, summary audit.Summary) error {
	switch cfg.Format {
	case "html":
		htmlOut := cfg.HTMLOut
		if htmlOut == "" {
			htmlOut = "gitfilter-report.html"
		}

		if err := audit.RenderHTMLChart(htmlOut, summary.Samples); err != nil {
			return fmt.Errorf("render html report: %w", err)
		}

		fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("wrote"), htmlOut)

		return nil
	default:
		return audit.RenderTable(os.Stderr, summary)
	}
}
