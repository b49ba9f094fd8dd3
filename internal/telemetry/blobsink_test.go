package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAppender struct {
	mu     sync.Mutex
	blocks []string
}

func (r *recordingAppender) AppendBlock(_ context.Context, body io.ReadSeekCloser, _ *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return appendblob.AppendBlockResponse{}, err
	}
	r.mu.Lock()
	r.blocks = append(r.blocks, string(data))
	r.mu.Unlock()
	return appendblob.AppendBlockResponse{}, nil
}

func (r *recordingAppender) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.blocks, "")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBlobWriterFlushesJSONLinesOnClose(t *testing.T) {
	ab := &recordingAppender{}
	w := newBlobWriter(ab, time.Hour, discardLogger())
	logger := slog.New(slog.NewJSONHandler(w, nil))

	logger.Info("catalog fetched", "products", 7)
	logger.Warn("catalog stale", "age", "11m")
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(ab.joined()), "\n")
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "catalog fetched", first["msg"])
	assert.EqualValues(t, 7, first["products"])
	assert.Contains(t, lines[1], `"level":"WARN"`)
}

func TestBlobWriterFlushesOnTimer(t *testing.T) {
	ab := &recordingAppender{}
	w := newBlobWriter(ab, 10*time.Millisecond, discardLogger())
	defer func() { _ = w.Close() }()

	_, err := w.Write([]byte("{\"msg\":\"tick\"}\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(ab.joined(), "tick")
	}, time.Second, 5*time.Millisecond)
}

func TestBlobWriterRejectsWritesAfterClose(t *testing.T) {
	w := newBlobWriter(&recordingAppender{}, time.Hour, discardLogger())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, errSinkClosed)
}

func TestBlobWriterDropsPastLimit(t *testing.T) {
	var fallback bytes.Buffer
	ab := &recordingAppender{}
	w := newBlobWriter(ab, time.Hour, slog.New(slog.NewTextHandler(&fallback, nil)))

	big := bytes.Repeat([]byte("x"), maxPending)
	_, err := w.Write(big)
	require.NoError(t, err)
	_, err = w.Write([]byte("overflow\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.NotContains(t, ab.joined(), "overflow")
	assert.Contains(t, fallback.String(), "count=1")
}

func TestBlobNameDefaultsToHostAndStart(t *testing.T) {
	assert.Equal(t, "fixed.jsonl", blobName("fixed.jsonl", time.Now()))
	name := blobName("", time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	assert.True(t, strings.HasSuffix(name, "/2026/03/04/050607.jsonl"), name)
}
