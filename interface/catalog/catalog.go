package catalog

import (
	"context"

	"github.com/terralens/imagequery/common"
	"github.com/terralens/imagequery/query"
)

// ImagesProvider is a client of a remote imagery catalog
type ImagesProvider interface {
	// Supports returns whether the provider serves the given dataset family
	Supports(dataset string) bool
	// SearchImages returns the records of the query's collection matching its filters
	SearchImages(ctx context.Context, q *query.Query) ([]*common.ImageRecord, error)
}
