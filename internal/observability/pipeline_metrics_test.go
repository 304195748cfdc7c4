package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/go-gitfilter/gitfilter/internal/observability"
)

func TestPipelineMetricsRecordCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	pm, err := observability.NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	pm.FrameRead(ctx)
	pm.FrameRead(ctx)
	pm.ObjectParsed(ctx, "commit")
	pm.ObjectDropped(ctx, "commit")
	pm.QueueDepthDelta(ctx, 3)
	pm.QueueDepthDelta(ctx, -1)
	pm.ReorderHeapDelta(ctx, 5)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))
	require.NotEmpty(t, data.ScopeMetrics)
	require.NotEmpty(t, data.ScopeMetrics[0].Metrics)
}

func TestPipelineMetricsNilReceiverIsNoop(t *testing.T) {
	var pm *observability.PipelineMetrics

	ctx := context.Background()
	pm.FrameRead(ctx)
	pm.ObjectParsed(ctx, "blob")
	pm.ObjectDropped(ctx, "blob")
	pm.QueueDepthDelta(ctx, 1)
	pm.ReorderHeapDelta(ctx, 1)
}
