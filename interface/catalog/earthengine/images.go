package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"path"
	"strconv"
	"time"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"

	"github.com/terralens/imagequery/common"
	"github.com/terralens/imagequery/interface/session"
	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service"
	"github.com/terralens/imagequery/service/log"
)

const (
	DefaultEndpoint = "https://earthengine.googleapis.com/v1"
	DefaultPageSize = 100

	publicAssetRoot = "projects/earthengine-public/assets"
)

// Provider is a client of an EarthEngine-style imagery catalog
type Provider struct {
	Endpoint string
	Session  *session.Session
	PageSize int
	Limit    int // maximum number of records per search (0: no limit)
}

// Supports implements catalog.ImagesProvider: the public catalog hosts all dataset families
func (p *Provider) Supports(dataset string) bool {
	return true
}

// Hits is one record of a listImages response
type Hits struct {
	Name      string            `json:"name"`
	ID        string            `json:"id"`
	StartTime string            `json:"startTime"`
	Geometry  *geojson.Geometry `json:"geometry"`
	Bands     []struct {
		ID string `json:"id"`
	} `json:"bands"`
	Properties map[string]interface{} `json:"properties"`
}

// SearchImages implements catalog.ImagesProvider
func (p *Provider) SearchImages(ctx context.Context, q *query.Query) ([]*common.ImageRecord, error) {
	token, err := p.Session.Token(ctx)
	if err != nil {
		return nil, err
	}

	// Construct Query
	params := neturl.Values{}
	if ranges := q.DateRanges(); len(ranges) > 0 {
		start, end := ranges[0].Start, ranges[0].End
		for _, r := range ranges[1:] {
			if r.Start.After(start) {
				start = r.Start
			}
			if r.End.Before(end) {
				end = r.End
			}
		}
		params.Set("startTime", start.UTC().Format(time.RFC3339))
		params.Set("endTime", end.UTC().Format(time.RFC3339))
	}
	if filters := q.SpatialFilters(); len(filters) > 0 {
		// listImages takes a single region: further filters are refined locally
		region, err := regionGeoJSON(filters[0])
		if err != nil {
			return nil, fmt.Errorf("EarthEngine.%w", err)
		}
		params.Set("region", region)
	}
	pageSize := p.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	params.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	// Execute query, following the page tokens
	var rawimages []Hits
	for page := 0; ; page++ {
		log.Logger(ctx).Sugar().Debugf("[EarthEngine] Search page %d", page+1)

		url := fmt.Sprintf("%s/%s:listImages?%s", endpoint, assetName(q.Collection().ID()), params.Encode())
		jsonResults, err := service.HTTPGetWithAuth(ctx, url, "", "", token)
		if err != nil {
			return nil, query.ErrServiceUnavailable{Provider: "EarthEngine", Err: err}
		}

		//JSON
		results := struct {
			Images        []Hits `json:"images"`
			NextPageToken string `json:"nextPageToken"`
			Error         struct {
				Code    int    `json:"code"`
				Status  string `json:"status"`
				Message string `json:"message"`
			} `json:"error"`
		}{}

		// Read results to retrieve images
		if err := json.Unmarshal(jsonResults, &results); err != nil {
			return nil, fmt.Errorf("EarthEngine.Unmarshal: %w (response: %s)", err, jsonResults)
		}
		switch results.Error.Code {
		case 0:
		case 401, 403:
			return nil, query.ErrAuthenticationRequired{Reason: results.Error.Message}
		default:
			return nil, query.ErrServiceUnavailable{Provider: "EarthEngine",
				Err: fmt.Errorf("%s: %s", results.Error.Status, results.Error.Message)}
		}

		// Merge the results
		rawimages = append(rawimages, results.Images...)

		// Is there a next page ?
		if results.NextPageToken == "" || (p.Limit > 0 && len(rawimages) >= p.Limit) {
			break
		}
		params.Set("pageToken", results.NextPageToken)
	}
	if p.Limit > 0 && len(rawimages) > p.Limit {
		rawimages = rawimages[:p.Limit]
	}

	// Parse results
	images := make([]*common.ImageRecord, len(rawimages))
	for i, rawimage := range rawimages {
		image := &common.ImageRecord{
			SourceID:   path.Base(rawimage.ID),
			Properties: map[string]string{common.TagSourceID: rawimage.ID},
		}
		if rawimage.StartTime != "" {
			if image.Date, err = time.Parse(time.RFC3339Nano, rawimage.StartTime); err != nil {
				return nil, fmt.Errorf("EarthEngine.TimeParse: %w", err)
			}
		}
		if rawimage.Geometry != nil && rawimage.Geometry.Geometry != nil {
			image.GeometryWKT = wkt.MustEncode(rawimage.Geometry.Geometry)
		}
		for _, b := range rawimage.Bands {
			image.Bands = append(image.Bands, common.Band{ID: b.ID})
		}
		for k, v := range rawimage.Properties {
			image.Properties[k] = fmt.Sprintf("%v", v)
		}
		images[i] = image
	}

	return images, nil
}

// regionGeoJSON encodes the spatial filter as a GeoJSON geometry string
func regionGeoJSON(f query.SpatialFilter) (string, error) {
	var g geom.Geometry = geom.Point{f.Lon, f.Lat}
	if f.WKT != "" {
		var err error
		if g, err = wkt.DecodeString(f.WKT); err != nil {
			return "", fmt.Errorf("regionGeoJSON.DecodeString: %w", err)
		}
	}
	b, err := json.Marshal(geojson.Geometry{Geometry: g})
	if err != nil {
		return "", fmt.Errorf("regionGeoJSON.Marshal: %w", err)
	}
	return string(b), nil
}

// assetName returns the full asset path of a collection identifier
func assetName(collectionID string) string {
	if len(collectionID) > 9 && collectionID[:9] == "projects/" {
		return collectionID
	}
	return publicAssetRoot + "/" + collectionID
}
