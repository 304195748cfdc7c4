package pipeline

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/go-gitfilter/gitfilter/internal/model"
)

// waitItem is one parsed object waiting in the reorder buffer for its turn,
// ordered by index via reorderHeap.
type waitItem struct {
	index      int
	obj        *model.StructuredObject
	compressed bool
	msgBytes   []byte // lz4-compressed stand-in for obj.MessageBytes/ContentBytes
}

// reorderHeap is a container/heap min-heap keyed by frame index.
type reorderHeap []*waitItem

func (h reorderHeap) Len() int            { return len(h) }
func (h reorderHeap) Less(i, j int) bool  { return h[i].index < h[j].index }
func (h reorderHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *reorderHeap) Push(x interface{}) { *h = append(*h, x.(*waitItem)) }

func (h *reorderHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return item
}

// compressWaiting lz4-compresses the single large payload field of obj
// (MessageBytes for a commit, ContentBytes for a blob) in place, freeing the
// uncompressed bytes to the GC. Called only once a waiting item has sat in
// the reorder heap past the configured watermark, bounding worst-case
// memory from producer/consumer skew instead of buffering raw payload
// bytes indefinitely.
func compressWaiting(item *waitItem) error {
	if item.compressed {
		return nil
	}

	raw := payloadOf(item.obj)
	if len(raw) == 0 {
		item.compressed = true
		return nil
	}

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return fmt.Errorf("pipeline: lz4 compress waiting payload: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("pipeline: lz4 close waiting payload: %w", err)
	}

	item.msgBytes = buf.Bytes()
	item.compressed = true
	setPayload(item.obj, nil)

	return nil
}

// decompressWaiting restores the payload compressed by compressWaiting,
// called right before the item is released to the filter callback.
func decompressWaiting(item *waitItem) error {
	if !item.compressed || item.msgBytes == nil {
		return nil
	}

	zr := lz4.NewReader(bytes.NewReader(item.msgBytes))

	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("pipeline: lz4 decompress waiting payload: %w", err)
	}

	setPayload(item.obj, raw)
	item.msgBytes = nil
	item.compressed = false

	return nil
}

func payloadOf(obj *model.StructuredObject) []byte {
	if obj.Kind == model.KindBlob {
		return obj.ContentBytes
	}

	return obj.MessageBytes
}

func setPayload(obj *model.StructuredObject, b []byte) {
	if obj.Kind == model.KindBlob {
		obj.ContentBytes = b
	} else {
		obj.MessageBytes = b
	}
}
