package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terralens/imagequery/common"
	ifcatalog "github.com/terralens/imagequery/interface/catalog"
	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service"
	"github.com/terralens/imagequery/service/geometry"
	"github.com/terralens/imagequery/service/log"
)

// Catalog resolves queries against the configured imagery providers
type Catalog struct {
	Providers []ifcatalog.ImagesProvider
	Storage   service.Storage // optional result export
}

// SearchImages implements query.Resolver.
// The providers supporting the dataset are queried in order until one succeeds.
func (c *Catalog) SearchImages(ctx context.Context, q *query.Query) ([]*common.ImageRecord, error) {
	dataset := q.Collection().Dataset()

	var providers []ifcatalog.ImagesProvider
	for _, provider := range c.Providers {
		if provider.Supports(dataset) {
			providers = append(providers, provider)
		}
	}
	if len(providers) == 0 {
		return nil, query.ErrServiceUnavailable{Provider: "catalog",
			Err: fmt.Errorf("no provider is configured for dataset %s", dataset)}
	}

	var err, e error
	var images []*common.ImageRecord
	for _, provider := range providers {
		images, e = provider.SearchImages(ctx, q)
		if err = service.MergeErrors(false, err, e); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("SearchImages.%w", err)
	}

	// Refine inventory
	if images, err = refineImages(q, images); err != nil {
		return nil, fmt.Errorf("SearchImages.%w", err)
	}

	log.Logger(ctx).Sugar().Debugf("%d images found", len(images))

	return images, nil
}

// refineImages drops the records not honouring the date and spatial filters
// (providers may return a coarser selection than requested)
func refineImages(q *query.Query, images []*common.ImageRecord) ([]*common.ImageRecord, error) {
	ranges := q.DateRanges()
	filters := q.SpatialFilters()

	kept := make([]*common.ImageRecord, 0, len(images))
	for _, image := range images {
		keep := true
		if !image.Date.IsZero() {
			for _, r := range ranges {
				if image.Date.Before(r.Start) || image.Date.After(r.End) {
					keep = false
					break
				}
			}
		}
		if keep && image.GeometryWKT != "" {
			for _, f := range filters {
				filterWKT, err := f.ToWKT()
				if err != nil {
					return nil, fmt.Errorf("refineImages.%w", err)
				}
				intersects, err := geometry.WKTIntersects(image.GeometryWKT, filterWKT)
				if err != nil {
					return nil, fmt.Errorf("refineImages.%w", err)
				}
				if !intersects {
					keep = false
					break
				}
			}
		}
		if keep {
			kept = append(kept, image)
		}
	}
	return kept, nil
}

// ResolveQuery resolves the query and exports the result if a storage is configured
func (c *Catalog) ResolveQuery(ctx context.Context, q query.Query) (*query.Result, error) {
	queryID := uuid.New().String()
	ctx = log.With(ctx, zap.String("query", queryID), zap.String("collection", q.Collection().ID()))

	result, err := q.Resolve(ctx, c)
	if err != nil {
		return nil, err
	}
	result.QueryID = queryID

	if c.Storage != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("ResolveQuery.Marshal: %w", err)
		}
		var uri string
		if err := service.Retriable(ctx, func() error {
			uri, err = c.Storage.Save(ctx, fmt.Sprintf("result_%s.json", queryID), payload)
			return err
		}, time.Second, 3); err != nil {
			return nil, fmt.Errorf("ResolveQuery.%w (after 3 retries)", err)
		}
		log.Logger(ctx).Sugar().Debugf("result exported to %s", uri)
	}

	return result, nil
}
