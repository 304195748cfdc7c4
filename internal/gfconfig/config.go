// Package gfconfig is the top-level configuration for the gitfilter binary:
// which branch to read, how many parse workers to run, where the rules
// document and report output live, and how telemetry is exported.
package gfconfig

import "errors"

// Config is the top-level configuration struct for gitfilter.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Branch      string          `mapstructure:"branch"`
	WithBlobs   bool            `mapstructure:"with_blobs"`
	NumThreads  int             `mapstructure:"num_threads"`
	BufferDepth int             `mapstructure:"buffer_depth"`
	Rules       RulesConfig     `mapstructure:"rules"`
	Report      ReportConfig    `mapstructure:"report"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

// RulesConfig locates and governs the filter rules document.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// ReportConfig controls the end-of-run audit report.
type ReportConfig struct {
	Format  string `mapstructure:"format"`
	HTMLOut string `mapstructure:"html_out"`
}

// TelemetryConfig controls OpenTelemetry export. The run command reads
// OTLPEndpoint, OTLPInsecure, SampleRatio and DebugTrace; Exporter is
// validated but not read, and PrometheusAddr is not read.
type TelemetryConfig struct {
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	PrometheusAddr string  `mapstructure:"prometheus_addr"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	DebugTrace     bool    `mapstructure:"debug_trace"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidNumThreads indicates NumThreads is negative.
	ErrInvalidNumThreads = errors.New("num_threads must be non-negative")
	// ErrInvalidBufferDepth indicates BufferDepth is not positive.
	ErrInvalidBufferDepth = errors.New("buffer_depth must be positive")
	// ErrInvalidReportFormat indicates Report.Format is not a recognized value.
	ErrInvalidReportFormat = errors.New("report.format must be one of: table, html")
	// ErrInvalidExporter indicates Telemetry.Exporter is not a recognized value.
	ErrInvalidExporter = errors.New("telemetry.exporter must be one of: none, otlp, prometheus")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.NumThreads < 0 {
		return ErrInvalidNumThreads
	}

	if c.BufferDepth <= 0 {
		return ErrInvalidBufferDepth
	}

	switch c.Report.Format {
	case "", "table", "html":
	default:
		return ErrInvalidReportFormat
	}

	switch c.Telemetry.Exporter {
	case "", "none", "otlp", "prometheus":
	default:
		return ErrInvalidExporter
	}

	return nil
}
