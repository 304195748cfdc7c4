package fastexport_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gitfilter/gitfilter/internal/fastexport"
)

const minimalCommitStream = "feature done\n" +
	"reset refs/heads/master\n" +
	"commit refs/heads/master\n" +
	"mark :1\n" +
	"original-oid 0c0dffba54e509a82483be2f78bf09451d03babb\n" +
	"author Bryan Bryan <bb@email.com> 1548162866 -0800\n" +
	"committer Bryan Bryan <bb@email.com> 1548162866 -0800\n" +
	"data 12\n" +
	"hello commit\n" +
	"progress 1 objects\n"

func TestReaderNextMinimalCommit(t *testing.T) {
	r := fastexport.NewReader(strings.NewReader(minimalCommitStream))

	frame, err := r.Next()
	require.NoError(t, err)

	assert.Equal(t, 0, frame.Index)
	assert.Equal(t, []byte("hello commit"), frame.Payload)
	assert.Contains(t, frame.Pre, "mark :1")
	assert.Contains(t, frame.Pre, "data 12")
	assert.Empty(t, frame.Post)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderNextMultipleFrames(t *testing.T) {
	secondFrame := strings.Replace(minimalCommitStream, ":1", ":2", 1)
	secondFrame = strings.Replace(secondFrame, "progress 1 objects", "progress 2 objects", 1)
	stream := minimalCommitStream + secondFrame

	r := fastexport.NewReader(strings.NewReader(stream))

	f0, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, f0.Index)

	f1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, f1.Index)
	assert.Contains(t, f1.Pre, "mark :2")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderNextShortPayloadIsFatal(t *testing.T) {
	stream := "commit refs/heads/master\ndata 100\nshort\n"
	r := fastexport.NewReader(strings.NewReader(stream))

	_, err := r.Next()
	assert.ErrorIs(t, err, fastexport.ErrShortPayload)
}

func TestReaderNextMissingProgressMarkerIsFatal(t *testing.T) {
	stream := "commit refs/heads/master\ndata 5\nhello\nnot-progress\n"
	r := fastexport.NewReader(strings.NewReader(stream))

	_, err := r.Next()
	assert.ErrorIs(t, err, fastexport.ErrMissingProgressMarker)
}

func TestReaderNextMalformedDataLength(t *testing.T) {
	stream := "commit refs/heads/master\ndata notanumber\n"
	r := fastexport.NewReader(strings.NewReader(stream))

	_, err := r.Next()
	assert.ErrorIs(t, err, fastexport.ErrMalformedDataLength)
}

func TestStreamSendsFramesInOrderThenCloses(t *testing.T) {
	secondFrame := strings.Replace(minimalCommitStream, ":1", ":2", 1)
	secondFrame = strings.Replace(secondFrame, "progress 1 objects", "progress 2 objects", 1)
	stream := minimalCommitStream + secondFrame

	r := fastexport.NewReader(strings.NewReader(stream))
	out := make(chan fastexport.IndexedFrame, 4)
	errc := make(chan error, 1)
	done := make(chan struct{})

	fastexport.Stream(r, out, errc, done)

	var got []int
	for f := range out {
		got = append(got, f.Index)
	}

	assert.Equal(t, []int{0, 1}, got)
	select {
	case err := <-errc:
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}
