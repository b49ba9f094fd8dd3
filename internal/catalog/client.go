package catalog

import (
	"basket/internal/config"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxCatalogBytes = 32 << 20

var tracer = otel.Tracer("basket/internal/catalog")

// Source produces a fresh catalog snapshot on every call.
type Source interface {
	Fetch(ctx context.Context) (*Catalog, error)
}

// HTTPSource fetches the catalog document with a single unauthenticated GET.
type HTTPSource struct {
	url    string
	client *retryablehttp.Client
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource builds a source for cfg.URL. httpClient may be nil.
func NewHTTPSource(cfg config.CatalogConfig, httpClient *http.Client) (*HTTPSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("catalog URL is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = cfg.Retries
	rc.Logger = slog.Default()
	// hand non-2xx responses back so they become StatusErrors
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPSource{url: cfg.URL, client: rc}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context) (*Catalog, error) {
	ctx, span := tracer.Start(ctx, "catalog.http.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.url", s.url))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.InfoContext(ctx, "fetching catalog", "url", s.url)
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("request catalog: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.url)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := &StatusError{URL: s.url, StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 256)}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cat, err := ParseBytes(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	cat.FetchedAt = time.Now()

	slog.InfoContext(ctx, "fetched catalog",
		"categories", len(cat.Categories),
		"merchants", len(cat.Merchants),
		"products", len(cat.Products),
		"duration", time.Since(start))
	return cat, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewSource picks the catalog source for cfg: the embedded sample when mocks
// are on, an Azure blob when configured, otherwise HTTPS.
func NewSource(cfg *config.Config) (Source, error) {
	if cfg.Mocks.Enable {
		slog.Info("using mock catalog")
		return NewMock(), nil
	}
	if cfg.Blob.Enabled() {
		slog.Info("using Azure Blob Storage for catalog", "container", cfg.Blob.Container, "blob", cfg.Blob.Name)
		return NewBlobSource(cfg.Blob)
	}
	return NewHTTPSource(cfg.Catalog, nil)
}

// readCatalog parses a document stream and stamps the fetch time.
func readCatalog(r io.Reader) (*Catalog, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, maxCatalogBytes)); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := ParseBytes(buf.Bytes())
	if err != nil {
		return nil, err
	}
	cat.FetchedAt = time.Now()
	return cat, nil
}
