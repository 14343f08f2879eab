// Package fixture loads product fixtures and seeds them into the catalogue.
//
// A fixture file is gzipped JSON lines, one product object per line, using
// the same fields as the product API:
//
//	{"name":"Oak Desk","description":"Solid oak","price":"250.00","stock":3}
package fixture

import (
	"context"

	"storefront/internal/model"
)

// Loader defines the interface for loading fixture files.
type Loader interface {
	// Load reads a gzipped fixture file and returns its decoded records.
	Load(ctx context.Context, path string) (*Batch, error)
}

// ProductCreator stores a validated product. The product service satisfies it.
type ProductCreator interface {
	Create(ctx context.Context, in *model.ProductInput) (*model.Product, error)
}

// Batch is the decoded content of one fixture file.
type Batch struct {
	Source   string
	Products []Record
	Rejected []Rejection
}

// Record is one valid product line.
type Record struct {
	Line  int
	Input *model.ProductInput
}

// Rejection records a fixture line that is not a valid product.
type Rejection struct {
	Source string
	Line   int
	Err    error
}
