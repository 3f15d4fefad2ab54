package query

import (
	"context"
	"time"

	"github.com/terralens/imagequery/common"
	"github.com/terralens/imagequery/service"
)

// Resolver resolves a query into the matching image records.
// interface/catalog providers and catalog.Catalog implement it.
type Resolver interface {
	SearchImages(ctx context.Context, q *Query) ([]*common.ImageRecord, error)
}

// Result is the payload returned by Resolve
type Result struct {
	Collection string                `json:"collection"`
	QueryID    string                `json:"query_id,omitempty"`
	Images     []*common.ImageRecord `json:"images"`
}

// Resolve sends the accumulated filters to the resolver and returns the matching
// records with the band selection applied. Resolving the same query again
// re-issues it against the resolver.
func (q Query) Resolve(ctx context.Context, r Resolver) (*Result, error) {
	if r == nil {
		return nil, ErrServiceUnavailable{Provider: "resolve"}
	}
	images, err := r.SearchImages(ctx, &q)
	if err != nil {
		return nil, err
	}
	if bands := q.Bands(); len(bands) != 0 {
		images = selectBands(images, bands)
	}
	return &Result{Collection: q.collection.id, Images: images}, nil
}

// ResolveTimeout is Resolve bounded by the given timeout. A zero timeout means none.
func (q Query) ResolveTimeout(ctx context.Context, r Resolver, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return q.Resolve(ctx, r)
}

// selectBands drops the records exposing none of the selected bands and trims
// the bands of the others. Records without band information are kept untouched
// (the catalog does not expose bands).
func selectBands(images []*common.ImageRecord, bands []string) []*common.ImageRecord {
	set := service.NewStringSet(bands...)

	kept := make([]*common.ImageRecord, 0, len(images))
	for _, image := range images {
		if len(image.Bands) == 0 {
			kept = append(kept, image)
			continue
		}
		hasBand := false
		for _, b := range bands {
			if image.HasBand(b) {
				hasBand = true
				break
			}
		}
		if !hasBand {
			continue
		}
		image.KeepBands(set)
		kept = append(kept, image)
	}
	return kept
}
