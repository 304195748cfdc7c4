// Package audit accumulates end-of-run statistics for a gitfilter pass and
// renders them as a terminal summary, a per-language breakdown table, and an
// optional HTML throughput chart.
package audit

import (
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/go-gitfilter/gitfilter/internal/langstats"
)

// MessageRewrite records a before/after commit-message diff produced when a
// filter callback mutates MessageBytes.
type MessageRewrite struct {
	Mark  string
	Diffs []diffmatchpatch.Diff
}

// ThroughputSample is one point of the objects/sec time series, tagged by
// pipeline stage, used to render the optional HTML chart.
type ThroughputSample struct {
	At            time.Duration
	Stage         string
	ObjectsPerSec float64
}

// Report accumulates statistics across a single pipeline run. Build one with
// NewReport: the zero value has nil count maps, and RecordKept or
// RecordDropped on it panics. The Record* methods and Snapshot are safe for
// concurrent use by pipeline workers.
type Report struct {
	mu sync.Mutex

	framesRead     int64
	objectsKept    map[string]int64
	objectsDropped map[string]int64
	bytesProcessed int64
	rewrites       []MessageRewrite
	samples        []ThroughputSample

	langs langstats.Counter
}

// NewReport returns a ready-to-use Report.
func NewReport() *Report {
	return &Report{
		objectsKept:    make(map[string]int64),
		objectsDropped: make(map[string]int64),
	}
}

// RecordFrame counts one frame read off the input stream.
func (r *Report) RecordFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.framesRead++
}

// RecordKept counts one object of the given kind that survived filtering.
func (r *Report) RecordKept(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.objectsKept[kind]++
}

// RecordDropped counts one object of the given kind removed by a filter callback.
func (r *Report) RecordDropped(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.objectsDropped[kind]++
}

// RecordBytes adds n processed payload bytes (blob content or commit message) to the running total.
func (r *Report) RecordBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bytesProcessed += n
}

// RecordMessageRewrite computes and stores a line-level diff between before
// and after commit message text.
func (r *Report) RecordMessageRewrite(mark string, before, after []byte) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(before), string(after), false)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rewrites = append(r.rewrites, MessageRewrite{Mark: mark, Diffs: diffs})
}

// RecordThroughputSample appends one objects/sec data point for stage at
// elapsed time at.
func (r *Report) RecordThroughputSample(at time.Duration, stage string, objectsPerSec float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, ThroughputSample{At: at, Stage: stage, ObjectsPerSec: objectsPerSec})
}

// LanguageCounter returns the per-language touch counter embedded in this
// report, for callers in the pipeline callback to feed with each commit's
// file ops. The returned Counter is not guarded by the report's mutex.
func (r *Report) LanguageCounter() *langstats.Counter {
	return &r.langs
}

// Summary is an immutable snapshot of the report's accumulated state, ready
// for rendering.
type Summary struct {
	FramesRead     int64
	ObjectsKept    map[string]int64
	ObjectsDropped map[string]int64
	BytesProcessed int64
	Rewrites       []MessageRewrite
	Samples        []ThroughputSample
	Languages      []langstats.Entry
}

// Snapshot returns a point-in-time copy of the report's state.
func (r *Report) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make(map[string]int64, len(r.objectsKept))
	for k, v := range r.objectsKept {
		kept[k] = v
	}

	dropped := make(map[string]int64, len(r.objectsDropped))
	for k, v := range r.objectsDropped {
		dropped[k] = v
	}

	return Summary{
		FramesRead:     r.framesRead,
		ObjectsKept:    kept,
		ObjectsDropped: dropped,
		BytesProcessed: r.bytesProcessed,
		Rewrites:       append([]MessageRewrite(nil), r.rewrites...),
		Samples:        append([]ThroughputSample(nil), r.samples...),
		Languages:      r.langs.Ranked(),
	}
}
