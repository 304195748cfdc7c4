// Package pipeline wires the frame reader, parser fan-out, and reorder
// buffer into the single entry point callers use to run a full
// fast-export → filter → fast-import pass.
package pipeline

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/go-gitfilter/gitfilter/internal/fastexport"
	"github.com/go-gitfilter/gitfilter/internal/filter"
	"github.com/go-gitfilter/gitfilter/internal/model"
	"github.com/go-gitfilter/gitfilter/internal/parse"
	"github.com/go-gitfilter/gitfilter/internal/serialize"
)

// ErrHeapNotDrained signals a parser worker silently dropped a frame: the
// output channel closed with the reorder heap non-empty.
var ErrHeapNotDrained = errors.New("pipeline: reorder heap non-empty at stream close")

// Config controls worker count and channel sizing for a Coordinator.
type Config struct {
	// NumWorkers is the number of parser fan-out goroutines. Zero selects
	// the default of max(1, runtime.NumCPU()-2).
	NumWorkers int

	// BufferDepth is the bound on each per-worker input channel and the
	// shared output channel. Zero selects 4*NumWorkers.
	BufferDepth int

	// ReorderWatermark is the number of items allowed to sit in the reorder
	// heap before their payload bytes are lz4-compressed in place. Zero
	// disables compression (watermark is effectively infinite).
	ReorderWatermark int

	// Logger receives structured diagnostics. A nil Logger uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults, mirroring the documented
// W = max(1, cpu_count - 2) worker formula.
func DefaultConfig() Config {
	workers := runtime.NumCPU() - 2
	if workers < 1 {
		workers = 1
	}

	return Config{
		NumWorkers:       workers,
		BufferDepth:      4 * workers,
		ReorderWatermark: 256,
	}
}

func (c Config) normalize() Config {
	if c.NumWorkers < 1 {
		c.NumWorkers = DefaultConfig().NumWorkers
	}

	if c.BufferDepth < 1 {
		c.BufferDepth = 4 * c.NumWorkers
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// Coordinator runs the three-stage pipeline: one framer goroutine, N parser
// worker goroutines dispatched round-robin, and the reorder buffer driven
// on the caller's own goroutine. When Run returns early, the framer,
// dispatcher and worker goroutines are told to stop through a shared done
// channel; Run does not wait for them to exit.
type Coordinator struct {
	cfg Config
}

// New builds a Coordinator from cfg, applying defaults for zero fields.
func New(cfg Config) *Coordinator {
	return &Coordinator{cfg: cfg.normalize()}
}

type parsedMsg struct {
	index int
	obj   *model.StructuredObject
	err   error
}

// Run executes the full pipeline: reads src as a fast-export byte stream,
// parses and re-orders every object, invokes cb exactly once per object in
// stream order, and writes kept objects to dst in fast-import byte form.
// It returns nil on clean EOF, the first error returned by cb, or a
// framing/parse error. A trailing "done\n" is written to dst on success.
func (c *Coordinator) Run(ctx context.Context, src io.Reader, dst io.Writer, cb filter.Callback) error {
	cfg := c.cfg
	logger := cfg.Logger.With("component", "pipeline.Coordinator")

	if cfg.NumWorkers == 1 {
		return c.runSerial(ctx, src, dst, cb, logger)
	}

	done := make(chan struct{})
	defer close(done)

	frames := make(chan fastexport.IndexedFrame, cfg.BufferDepth)
	frameErrc := make(chan error, 1)

	reader := fastexport.NewReader(src)
	go fastexport.Stream(reader, frames, frameErrc, done)

	workerIn := make([]chan fastexport.IndexedFrame, cfg.NumWorkers)
	for i := range workerIn {
		workerIn[i] = make(chan fastexport.IndexedFrame, cfg.BufferDepth)
	}

	out := make(chan parsedMsg, cfg.BufferDepth)

	var wg sync.WaitGroup

	for w := 0; w < cfg.NumWorkers; w++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			parseWorker(id, workerIn[id], out, done)
		}(w)
	}

	// The shared output channel closes once every worker has exited, which
	// is how the reorder loop learns the stream is complete.
	go func() {
		wg.Wait()
		close(out)
	}()

	go dispatch(frames, workerIn, done)

	err := c.reorderAndDeliver(ctx, out, dst, cb, logger)

	if err == nil {
		select {
		case ferr := <-frameErrc:
			err = ferr
		default:
		}
	}

	if err == nil {
		if werr := serialize.WriteDone(dst); werr != nil {
			err = fmt.Errorf("pipeline: %w", werr)
		}
	}

	return err
}

// dispatch round-robins frames from the framer to the W worker input
// channels, then closes every worker channel once the framer is done.
func dispatch(frames <-chan fastexport.IndexedFrame, workerIn []chan fastexport.IndexedFrame, done <-chan struct{}) {
	defer func() {
		for _, ch := range workerIn {
			close(ch)
		}
	}()

	i := 0

	for f := range frames {
		w := i % len(workerIn)
		i++

		select {
		case workerIn[w] <- f:
		case <-done:
			return
		}
	}
}

func parseWorker(id int, in <-chan fastexport.IndexedFrame, out chan<- parsedMsg, done <-chan struct{}) {
	for f := range in {
		obj, err := parse.Parse(f.Frame)

		msg := parsedMsg{index: f.Index, err: err}
		if err == nil {
			msg.obj = obj
		}

		select {
		case out <- msg:
		case <-done:
			return
		}
	}

	_ = id // worker identity retained for future per-worker diagnostics/metrics
}

// reorderAndDeliver consumes the shared output channel, maintains the
// min-heap reorder buffer, and invokes cb/serialize.Write in strict index
// order. It closes done (via its caller's defer) to unwind the framer and
// workers on early return.
func (c *Coordinator) reorderAndDeliver(
	ctx context.Context,
	out <-chan parsedMsg,
	dst io.Writer,
	cb filter.Callback,
	logger *slog.Logger,
) error {
	rh := &reorderHeap{}
	heap.Init(rh)

	nextExpected := 0
	received := 0

	deliver := func(obj *model.StructuredObject) error {
		keep, err := cb(obj)
		if err != nil {
			return err
		}

		if !keep {
			return nil
		}

		if werr := serialize.Write(dst, obj); werr != nil {
			return fmt.Errorf("pipeline: serialize: %w", werr)
		}

		return nil
	}

	for msg := range out {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("pipeline: %w", ctxErr)
		}

		if msg.err != nil {
			return fmt.Errorf("pipeline: worker parse error: %w", msg.err)
		}

		received++

		if msg.index == nextExpected {
			if err := deliver(msg.obj); err != nil {
				return err
			}

			nextExpected++

			if err := c.drainHeap(rh, &nextExpected, deliver); err != nil {
				return err
			}

			continue
		}

		item := &waitItem{index: msg.index, obj: msg.obj}
		heap.Push(rh, item)

		if c.cfg.ReorderWatermark > 0 && rh.Len() > c.cfg.ReorderWatermark {
			logger.Debug("reorder heap above watermark, compressing waiting payloads",
				"heap_len", rh.Len(), "watermark", c.cfg.ReorderWatermark)

			for _, waiting := range *rh {
				if err := compressWaiting(waiting); err != nil {
					return err
				}
			}
		}
	}

	if rh.Len() != 0 {
		return fmt.Errorf("%w: next_expected=%d received=%d heap_len=%d", ErrHeapNotDrained, nextExpected, received, rh.Len())
	}

	return nil
}

func (c *Coordinator) drainHeap(rh *reorderHeap, nextExpected *int, deliver func(*model.StructuredObject) error) error {
	for rh.Len() > 0 && (*rh)[0].index == *nextExpected {
		item := heap.Pop(rh).(*waitItem) //nolint:forcetypeassert // reorderHeap only ever holds *waitItem

		if err := decompressWaiting(item); err != nil {
			return err
		}

		if err := deliver(item.obj); err != nil {
			return err
		}

		*nextExpected++
	}

	return nil
}

// runSerial bypasses the fan-out entirely for the degenerate W=1 case: the
// framer's output feeds the parser directly, and the reorder buffer is
// unnecessary since frames already arrive in order.
func (c *Coordinator) runSerial(ctx context.Context, src io.Reader, dst io.Writer, cb filter.Callback, logger *slog.Logger) error {
	logger.Debug("running degenerate single-worker pipeline")

	reader := fastexport.NewReader(src)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}

		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("pipeline: %w", err)
		}

		obj, err := parse.Parse(frame)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}

		keep, err := cb(obj)
		if err != nil {
			return err
		}

		if !keep {
			continue
		}

		if err := serialize.Write(dst, obj); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}

	if err := serialize.WriteDone(dst); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return nil
}
