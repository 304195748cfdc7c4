package audit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gitfilter/gitfilter/internal/audit"
)

func TestReportSnapshotAggregatesCounts(t *testing.T) {
	r := audit.NewReport()

	r.RecordFrame()
	r.RecordFrame()
	r.RecordKept("commit")
	r.RecordKept("commit")
	r.RecordDropped("commit")
	r.RecordBytes(1024)
	r.RecordMessageRewrite("123", []byte("fix bug"), []byte("fix the bug"))
	r.RecordThroughputSample(time.Second, "parse", 500)

	snap := r.Snapshot()
	assert.Equal(t, int64(2), snap.FramesRead)
	assert.Equal(t, int64(2), snap.ObjectsKept["commit"])
	assert.Equal(t, int64(1), snap.ObjectsDropped["commit"])
	assert.Equal(t, int64(1024), snap.BytesProcessed)
	require.Len(t, snap.Rewrites, 1)
	assert.Equal(t, "123", snap.Rewrites[0].Mark)
	require.Len(t, snap.Samples, 1)
}

func TestRenderTableWritesSummary(t *testing.T) {
	r := audit.NewReport()
	r.RecordFrame()
	r.RecordKept("commit")
	r.RecordDropped("blob")
	r.RecordBytes(2048)

	var buf bytes.Buffer
	require.NoError(t, audit.RenderTable(&buf, r.Snapshot()))
	assert.Contains(t, buf.String(), "Frames read")
	assert.Contains(t, buf.String(), "commit kept")
}

func TestRenderHTMLChartWritesFile(t *testing.T) {
	r := audit.NewReport()
	r.RecordThroughputSample(0, "parse", 100)
	r.RecordThroughputSample(time.Second, "parse", 150)

	path := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, audit.RenderHTMLChart(path, r.Snapshot().Samples))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
