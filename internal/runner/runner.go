// Package runner wires gfconfig, rules, the pipeline coordinator, and the
// audit report together into the single entry point both the CLI and the
// MCP server drive a filter pass through.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gitfilter/gitfilter/internal/audit"
	"github.com/go-gitfilter/gitfilter/internal/filter"
	"github.com/go-gitfilter/gitfilter/internal/gfconfig"
	"github.com/go-gitfilter/gitfilter/internal/model"
	"github.com/go-gitfilter/gitfilter/internal/observability"
	"github.com/go-gitfilter/gitfilter/internal/pipeline"
	"github.com/go-gitfilter/gitfilter/internal/rules"
)

// Result is what a filter pass hands back to its caller: the audit report
// snapshot ready for rendering.
type Result struct {
	Summary audit.Summary
}

// Run loads the rules document named by cfg.Rules.Path (if any), runs the
// pipeline over src, writes filtered fast-import output to dst, and returns
// the accumulated audit report. Metrics may be nil.
func Run(
	ctx context.Context,
	logger *slog.Logger,
	metrics *observability.PipelineMetrics,
	cfg gfconfig.Config,
	src io.Reader,
	dst io.Writer,
) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	report := audit.NewReport()

	var ruleCallback filter.Callback = filter.Identity

	if cfg.Rules.Path != "" {
		raw, err := os.ReadFile(cfg.Rules.Path)
		if err != nil {
			return Result{}, fmt.Errorf("runner: read rules: %w", err)
		}

		set, err := rules.Compile(raw)
		if err != nil {
			return Result{}, fmt.Errorf("runner: compile rules: %w", err)
		}

		ruleCallback = set.Callback()
	}

	cb := filter.Chain(trackDrops(ruleCallback, report, metrics), observingCallback(report, metrics))

	pcfg := pipeline.DefaultConfig()
	if cfg.NumThreads > 0 {
		pcfg.NumWorkers = cfg.NumThreads
	}

	if cfg.BufferDepth > 0 {
		pcfg.BufferDepth = cfg.BufferDepth
	}

	pcfg.Logger = logger

	coord := pipeline.New(pcfg)

	if err := coord.Run(ctx, src, dst, cb); err != nil {
		return Result{}, fmt.Errorf("runner: %w", err)
	}

	return Result{Summary: report.Snapshot()}, nil
}

// trackDrops wraps a rule callback so every object is counted as a frame
// read and an object parsed before the rule runs, and a drop is recorded in
// the audit report and metrics before the chain short-circuits past the
// observing stage.
func trackDrops(cb filter.Callback, report *audit.Report, metrics *observability.PipelineMetrics) filter.Callback {
	return func(obj *model.StructuredObject) (bool, error) {
		report.RecordFrame()
		metrics.FrameRead(context.Background())
		metrics.ObjectParsed(context.Background(), obj.Kind.String())

		keep, err := cb(obj)
		if err != nil {
			return false, err
		}

		if !keep {
			kind := obj.Kind.String()
			report.RecordDropped(kind)
			metrics.ObjectDropped(context.Background(), kind)
		}

		return keep, nil
	}
}

// observingCallback records per-object audit statistics without changing
// whether the object is kept; it always runs last in the chain so it only
// ever counts objects the rule stage didn't already drop.
func observingCallback(report *audit.Report, _ *observability.PipelineMetrics) filter.Callback {
	return func(obj *model.StructuredObject) (bool, error) {
		report.RecordKept(obj.Kind.String())

		if obj.IsCommit() {
			report.LanguageCounter().Observe(obj)
			report.RecordBytes(int64(len(obj.MessageBytes)))
		} else {
			report.RecordBytes(int64(len(obj.ContentBytes)))
		}

		return true, nil
	}
}
