package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
)

const (
	defaultFlushEvery = 2 * time.Second
	// one append block; lines past this are dropped until the next flush
	maxPending = 4 << 20
)

var errSinkClosed = errors.New("log sink closed")

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// blobWriter batches JSON log lines and appends them to an Azure append blob
// on a timer. Writes never wait on the network.
type blobWriter struct {
	ab       appender
	fallback *slog.Logger

	mu      sync.Mutex
	buf     []byte
	dropped int
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// blobName defaults to one blob per process start.
func blobName(name string, now time.Time) string {
	if name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "basket"
	}
	return fmt.Sprintf("%s/%s.jsonl", host, now.UTC().Format("2006/01/02/150405"))
}

func newAppendBlob(ctx context.Context, account, key, container, name string) (*appendblob.Client, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	// name may contain slashes and is not escaped
	blobURL := "https://" + account + ".blob.core.windows.net/" + url.PathEscape(container) + "/" + name
	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create append blob client: %w", err)
	}
	if _, err := ab.Create(ctx, nil); err != nil {
		return nil, fmt.Errorf("create log blob %s: %w", name, err)
	}
	return ab, nil
}

func newBlobWriter(ab appender, flushEvery time.Duration, fallback *slog.Logger) *blobWriter {
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	w := &blobWriter{
		ab:       ab,
		fallback: fallback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop(flushEvery)
	return w
}

func (w *blobWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errSinkClosed
	}
	if len(w.buf)+len(p) > maxPending {
		w.dropped++
		return len(p), nil
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *blobWriter) loop(flushEvery time.Duration) {
	defer close(w.done)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.flush(context.Background())
		case <-w.stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			w.flush(ctx)
			cancel()
			return
		}
	}
}

func (w *blobWriter) flush(ctx context.Context) {
	w.mu.Lock()
	pending := w.buf
	dropped := w.dropped
	w.buf = nil
	w.dropped = 0
	w.mu.Unlock()

	if dropped > 0 {
		w.fallback.Warn("dropped log lines while the blob sink was behind", "count", dropped)
	}
	if len(pending) == 0 {
		return
	}
	if _, err := w.ab.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(pending)}, nil); err != nil {
		w.fallback.Error("failed to append logs to blob", "bytes", len(pending), "error", err)
	}
}

// Close flushes what is buffered. Later writes fail.
func (w *blobWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return nil
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (readSeekNopCloser) Close() error { return nil }
