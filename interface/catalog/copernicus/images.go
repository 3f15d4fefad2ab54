package copernicus

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"

	"github.com/terralens/imagequery/common"
	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service"
	"github.com/terralens/imagequery/service/geometry"
	"github.com/terralens/imagequery/service/log"
)

const (
	CopernicusPageLimit     = 1000
	CopernicusODataQueryURL = "https://catalogue.dataspace.copernicus.eu/odata/v1/Products?$filter="
)

// Provider is a client of the Copernicus Dataspace OData catalog
type Provider struct {
	URL        string // defaults to CopernicusODataQueryURL
	Page       int    // client page (0-based)
	MaxRecords int    // maximum number of records per search (0: one catalog page)
	Limit      int    // catalog page size (defaults to CopernicusPageLimit)
}

// Supports implements catalog.ImagesProvider
func (p *Provider) Supports(dataset string) bool {
	switch dataset {
	case common.Sentinel1, common.Sentinel2:
		return true
	}
	return false
}

// SearchImages implements catalog.ImagesProvider
func (p *Provider) SearchImages(ctx context.Context, q *query.Query) ([]*common.ImageRecord, error) {
	// Construct Query
	filter, err := buildFilter(q)
	if err != nil {
		return nil, fmt.Errorf("Copernicus.%w", err)
	}

	// Execute query
	url := p.URL
	if url == "" {
		url = CopernicusODataQueryURL
	}
	rawimages, err := p.queryCopernicus(ctx, url, filter, p.Page, p.MaxRecords)
	if err != nil {
		return nil, fmt.Errorf("Copernicus.%w", err)
	}

	// Parse results
	images := make([]*common.ImageRecord, len(rawimages))
	for i, rawimage := range rawimages {
		// Parse date
		date, err := time.Parse(time.RFC3339Nano, rawimage.ContentDate.BeginPosition)
		if err != nil {
			return nil, fmt.Errorf("Copernicus.searchImages.TimeParse: %w", err)
		}
		sourceID := strings.TrimSuffix(rawimage.Identifier, ".SAFE")

		// Create record
		images[i] = &common.ImageRecord{
			SourceID: sourceID,
			UUID:     rawimage.Uuid,
			Date:     date,
			Properties: map[string]string{
				common.TagSourceID:      sourceID,
				common.TagUUID:          rawimage.Uuid,
				common.TagIngestionDate: rawimage.ContentDate.BeginPosition,
				common.TagDataset:       q.Collection().Dataset(),
			},
		}
		if rawimage.Footprint.Geometry != nil {
			images[i].GeometryWKT = wkt.MustEncode(rawimage.Footprint.Geometry)
		}
		for _, tag := range []string{common.TagOrbitDirection, common.TagRelativeOrbit, common.TagOrbit, common.TagProductType, common.TagCloudCoverPercentage} {
			if v, ok := rawimage.AttributesMap[odataAttribute[tag]]; ok {
				images[i].Properties[tag] = v
			}
		}
	}

	return images, nil
}

var odataAttribute = map[string]string{
	common.TagOrbitDirection:       "orbitDirection",
	common.TagRelativeOrbit:        "relativeOrbitNumber",
	common.TagOrbit:                "orbitNumber",
	common.TagProductType:          "productType",
	common.TagCloudCoverPercentage: "cloudCover",
}

// buildFilter translates the query filters into an OData $filter expression
func buildFilter(q *query.Query) (string, error) {
	var parameters []string

	switch dataset := q.Collection().Dataset(); dataset {
	case common.Sentinel1:
		parameters = append(parameters, "Collection/Name eq 'SENTINEL-1'")
	case common.Sentinel2:
		parameters = append(parameters, "Collection/Name eq 'SENTINEL-2'")
	default:
		return "", fmt.Errorf("buildFilter: dataset not supported: %s", dataset)
	}

	for _, f := range q.SpatialFilters() {
		aoiWKT, err := f.ToWKT()
		if err != nil {
			return "", fmt.Errorf("buildFilter.ToWKT: %w", err)
		}
		if f.WKT != "" {
			// The catalog rejects overly long filter expressions: query with the
			// convex hull and refine the footprints locally
			if aoiWKT, err = geometry.WKTConvexHull(f.WKT); err != nil {
				return "", fmt.Errorf("buildFilter.%w", err)
			}
		}
		parameters = append(parameters, "OData.CSC.Intersects(area=geography'SRID=4326;"+aoiWKT+"')")
	}

	for _, r := range q.DateRanges() {
		startDate := r.Start.UTC().Format("2006-01-02T15:04:05.999Z")
		endDate := r.End.UTC().Format("2006-01-02T15:04:05.999Z")
		parameters = append(parameters,
			fmt.Sprintf("ContentDate/Start gt %s", startDate),
			fmt.Sprintf("ContentDate/Start lt %s", endDate))
	}

	return strings.Join(parameters, " and "), nil
}

// Hits is one record of an OData response
type Hits struct {
	Uuid        string           `json:"Id"`
	Identifier  string           `json:"Name"`
	Footprint   geojson.Geometry `json:"GeoFootprint"`
	ContentDate struct {
		BeginPosition string `json:"Start"`
	} `json:"ContentDate"`
	Attributes []struct {
		Name      string      `json:"Name"`
		Value     interface{} `json:"Value"`
		ValueType string      `json:"ValueType"`
	} `json:"Attributes"`
	AttributesMap map[string]string
}

func (p *Provider) queryCopernicus(ctx context.Context, baseurl, filter string, page, limit int) ([]Hits, error) {
	// Local copy: the provider is shared across requests
	catalogLimit := p.Limit
	if catalogLimit == 0 {
		catalogLimit = CopernicusPageLimit
	}

	// Pagging
	var rawimages []Hits
	filter = neturl.QueryEscape(filter)
	totalPages := "?"

	for _, queryParams := range service.ComputePagesToQuery(page, limit, catalogLimit) {
		log.Logger(ctx).Sugar().Debugf("[Copernicus] Search page %d/%s", queryParams.Page+1, totalPages)
		// Load results
		url := baseurl + filter + fmt.Sprintf("&$orderby=ContentDate/Start&$top=%d&$skip=%d&$expand=Attributes", queryParams.Limit, queryParams.Limit*queryParams.Page)
		jsonResults, err := service.GetBodyRetry(url, 3)
		if err != nil {
			return nil, query.ErrServiceUnavailable{Provider: "Copernicus", Err: err}
		}

		//JSON
		results := struct {
			Status int    `json:"status"`
			Next   string `json:"@odata.nextLink"`
			Count  int    `json:"@odata.count"`
			Hits   []Hits `json:"value"`
		}{}

		// Read results to retrieve images
		if err := json.Unmarshal(jsonResults, &results); err != nil {
			return nil, fmt.Errorf("query.Unmarshal : %w (response: %s)", err, jsonResults)
		}

		if results.Status != 0 && results.Status != 200 {
			return nil, fmt.Errorf("query: http status: %d (response: %s)", results.Status, jsonResults)
		}

		results.Hits = service.QueryGetResult(&queryParams, results.Hits)

		for i, hit := range results.Hits {
			results.Hits[i].AttributesMap = map[string]string{}
			for _, elem := range hit.Attributes {
				results.Hits[i].AttributesMap[elem.Name] = fmt.Sprintf("%v", elem.Value)
			}
			results.Hits[i].Attributes = nil
		}

		// Merge the results
		rawimages = append(rawimages, results.Hits...)

		// Is there a next page ?
		if results.Next == "" || len(rawimages) == limit {
			break
		}
		if results.Count > 0 {
			totalPages = strconv.Itoa((results.Count-1)/queryParams.Limit + 1)
		}
	}

	return rawimages, nil
}
