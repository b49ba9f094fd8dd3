package catalog

import (
	"basket/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BlobSource reads the catalog document from an Azure Blob container.
type BlobSource struct {
	client    *azblob.Client
	container string
	name      string
}

var _ Source = (*BlobSource)(nil)

func NewBlobSource(cfg config.BlobConfig) (*BlobSource, error) {
	return newBlobSource(cfg, fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account))
}

func newBlobSource(cfg config.BlobConfig, serviceURL string) (*BlobSource, error) {
	if cfg.Account == "" || cfg.Key == "" {
		return nil, errors.New("blob account and key are required")
	}
	if cfg.Container == "" || cfg.Name == "" {
		return nil, errors.New("blob container and name are required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &BlobSource{
		client:    client,
		container: cfg.Container,
		name:      cfg.Name,
	}, nil
}

func (b *BlobSource) Fetch(ctx context.Context) (*Catalog, error) {
	ctx, span := tracer.Start(ctx, "catalog.blob.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("blob.container", b.container),
		attribute.String("blob.name", b.name),
	)

	stream, err := b.client.DownloadStream(ctx, b.container, b.name, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, b.container, b.name)
		}
		slog.ErrorContext(ctx, "failed to download catalog blob", "container", b.container, "blob", b.name, "error", err)
		return nil, fmt.Errorf("download catalog blob: %w", err)
	}
	defer func() {
		_ = stream.Body.Close()
	}()

	cat, err := readCatalog(stream.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return cat, nil
}
