package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// envelope is the wrapper the hosted feed puts around the catalog.
type envelope struct {
	Context struct {
		Products struct {
			Result *Catalog `json:"result"`
		} `json:"MAPP_PRODUCTS"`
	} `json:"context"`
}

// Parse reads a catalog document in either the wrapped feed shape
// (context.MAPP_PRODUCTS.result) or as a bare object.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (*Catalog, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if env.Context.Products.Result != nil {
		return env.Context.Products.Result, nil
	}

	var bare Catalog
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if bare.Categories == nil && bare.Products == nil && bare.Merchants == nil {
		return nil, errors.New("catalog document has no categories, merchants or products")
	}
	return &bare, nil
}
