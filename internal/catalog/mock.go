package catalog

import (
	"context"
	_ "embed"
	"time"
)

//go:embed sample.json
var sampleCatalog []byte

type mock struct{}

// NewMock returns a source serving the embedded sample catalog.
func NewMock() Source {
	return mock{}
}

func (mock) Fetch(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := ParseBytes(sampleCatalog)
	if err != nil {
		return nil, err
	}
	cat.FetchedAt = time.Now()
	return cat, nil
}
