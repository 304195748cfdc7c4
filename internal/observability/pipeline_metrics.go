package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFramesTotal      = "gitfilter.pipeline.frames.total"
	metricObjectsParsed    = "gitfilter.pipeline.objects.parsed.total"
	metricObjectsDropped   = "gitfilter.pipeline.objects.dropped.total"
	metricWorkerQueueDepth = "gitfilter.pipeline.worker.queue.depth"
	metricReorderHeapSize  = "gitfilter.pipeline.reorder.heap.size"

	attrObjectKind = "object.kind"
)

// PipelineMetrics holds OTel instruments for the frame/parse/reorder pipeline.
type PipelineMetrics struct {
	framesTotal    metric.Int64Counter
	objectsParsed  metric.Int64Counter
	objectsDropped metric.Int64Counter
	workerQueue    metric.Int64UpDownCounter
	reorderHeap    metric.Int64UpDownCounter
}

// NewPipelineMetrics creates the pipeline metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	frames, err := mt.Int64Counter(metricFramesTotal,
		metric.WithDescription("Total fast-export frames read"),
		metric.WithUnit("{frame}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFramesTotal, err)
	}

	parsed, err := mt.Int64Counter(metricObjectsParsed,
		metric.WithDescription("Total structured objects parsed, by kind"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricObjectsParsed, err)
	}

	dropped, err := mt.Int64Counter(metricObjectsDropped,
		metric.WithDescription("Total structured objects dropped by filter callbacks"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricObjectsDropped, err)
	}

	queue, err := mt.Int64UpDownCounter(metricWorkerQueueDepth,
		metric.WithDescription("Current number of frames queued for a parse worker"),
		metric.WithUnit("{frame}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWorkerQueueDepth, err)
	}

	heap, err := mt.Int64UpDownCounter(metricReorderHeapSize,
		metric.WithDescription("Current number of parsed objects waiting in the reorder heap"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReorderHeapSize, err)
	}

	return &PipelineMetrics{
		framesTotal:    frames,
		objectsParsed:  parsed,
		objectsDropped: dropped,
		workerQueue:    queue,
		reorderHeap:    heap,
	}, nil
}

// FrameRead records one frame having been read off the input stream. Safe to
// call on a nil receiver (no-op), so callers don't have to branch when
// metrics are disabled.
func (pm *PipelineMetrics) FrameRead(ctx context.Context) {
	if pm == nil {
		return
	}

	pm.framesTotal.Add(ctx, 1)
}

// ObjectParsed records one structured object of the given kind having left
// the parse stage.
func (pm *PipelineMetrics) ObjectParsed(ctx context.Context, kind string) {
	if pm == nil {
		return
	}

	pm.objectsParsed.Add(ctx, 1, metric.WithAttributes(attribute.String(attrObjectKind, kind)))
}

// ObjectDropped records one object removed by a filter callback.
func (pm *PipelineMetrics) ObjectDropped(ctx context.Context, kind string) {
	if pm == nil {
		return
	}

	pm.objectsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String(attrObjectKind, kind)))
}

// QueueDepthDelta adjusts the worker queue depth gauge by delta (positive on
// enqueue, negative on dequeue).
func (pm *PipelineMetrics) QueueDepthDelta(ctx context.Context, delta int64) {
	if pm == nil {
		return
	}

	pm.workerQueue.Add(ctx, delta)
}

// ReorderHeapDelta adjusts the reorder-heap size gauge by delta.
func (pm *PipelineMetrics) ReorderHeapDelta(ctx context.Context, delta int64) {
	if pm == nil {
		return
	}

	pm.reorderHeap.Add(ctx, delta)
}
