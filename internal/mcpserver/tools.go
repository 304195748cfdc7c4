package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/go-gitfilter/gitfilter/internal/gfconfig"
	"github.com/go-gitfilter/gitfilter/internal/observability"
	"github.com/go-gitfilter/gitfilter/internal/runner"
)

// ToolNameRunFilter is the MCP tool name for a full filter pass.
const ToolNameRunFilter = "run_filter"

const runFilterToolDescription = "Run the gitfilter pipeline over a git fast-export stream file, " +
	"applying an optional rules document, and write the filtered fast-import stream to an output file. " +
	"Returns summary statistics (frames read, objects kept/dropped, bytes processed)."

// RunFilterInput is the input schema for the run_filter tool.
type RunFilterInput struct {
	InputPath  string `json:"input_path"            jsonschema:"path to a file containing a git fast-export stream"`
	OutputPath string `json:"output_path"            jsonschema:"path to write the filtered fast-import stream to"`
	RulesPath  string `json:"rules_path,omitempty"   jsonschema:"optional path to a rules document (YAML or JSON)"`
	Branch     string `json:"branch,omitempty"       jsonschema:"branch the stream was exported from; not read by the filter pass or its summary"`
}

// RunFilterOutput is the structured output of the run_filter tool.
type RunFilterOutput struct {
	FramesRead     int64            `json:"frames_read"`
	ObjectsKept    map[string]int64 `json:"objects_kept"`
	ObjectsDropped map[string]int64 `json:"objects_dropped"`
	BytesProcessed int64            `json:"bytes_processed"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func handlerWithMetrics(
	metrics *observability.PipelineMetrics,
	logger *slog.Logger,
) func(context.Context, *mcpsdk.CallToolRequest, RunFilterInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(
		ctx context.Context, _ *mcpsdk.CallToolRequest, input RunFilterInput,
	) (*mcpsdk.CallToolResult, ToolOutput, error) {
		src, err := os.Open(input.InputPath)
		if err != nil {
			return errorResult(fmt.Errorf("open input: %w", err))
		}
		defer src.Close()

		var dst bytes.Buffer

		cfg := gfconfig.Config{Branch: input.Branch, Rules: gfconfig.RulesConfig{Path: input.RulesPath}}

		result, err := runner.Run(ctx, logger, metrics, cfg, src, &dst)
		if err != nil {
			return errorResult(fmt.Errorf("run filter: %w", err))
		}

		if writeErr := os.WriteFile(input.OutputPath, dst.Bytes(), 0o644); writeErr != nil { //nolint:gosec // fast-import stream is not sensitive
			return errorResult(fmt.Errorf("write output: %w", writeErr))
		}

		out := RunFilterOutput{
			FramesRead:     result.Summary.FramesRead,
			ObjectsKept:    result.Summary.ObjectsKept,
			ObjectsDropped: result.Summary.ObjectsDropped,
			BytesProcessed: result.Summary.BytesProcessed,
		}

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{
				Text: fmt.Sprintf("processed %d frames, kept %v, dropped %v",
					out.FramesRead, out.ObjectsKept, out.ObjectsDropped),
			}},
		}, ToolOutput{Data: out}, nil
	}
}
