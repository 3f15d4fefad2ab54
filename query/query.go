package query

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"

	"github.com/terralens/imagequery/common"
)

// Collection identifies a named remote imagery dataset
type Collection struct {
	id string
}

// ID returns the collection identifier (e.g. "COPERNICUS/S2_SR")
func (c Collection) ID() string { return c.id }

// Dataset returns the dataset family of the collection
func (c Collection) Dataset() string { return common.GetDataset(c.id) }

// Filter is one constraint of a query
type Filter interface {
	filter()
}

// DateRange keeps the records acquired between Start and End (inclusive)
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (DateRange) filter() {}

// ParseDateRange parses the dates (most common formats accepted) into a DateRange
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := dateparse.ParseAny(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("ParseDateRange[%s]: %w", start, err)
	}
	e, err := dateparse.ParseAny(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("ParseDateRange[%s]: %w", end, err)
	}
	if s.After(e) {
		return DateRange{}, ErrInvalidRange{Start: s, End: e}
	}
	return DateRange{Start: s, End: e}, nil
}

// SpatialFilter keeps the records intersecting a point or a WKT region
type SpatialFilter struct {
	Lon, Lat float64
	WKT      string // region constraint; takes precedence over the point
}

func (SpatialFilter) filter() {}

// Point returns a SpatialFilter keeping the records intersecting the point
func Point(lon, lat float64) SpatialFilter {
	return SpatialFilter{Lon: lon, Lat: lat}
}

// Region returns a SpatialFilter keeping the records intersecting the WKT geometry
func Region(wkt string) SpatialFilter {
	return SpatialFilter{WKT: wkt}
}

// ToWKT encodes the filter geometry as WKT
func (f SpatialFilter) ToWKT() (string, error) {
	if f.WKT != "" {
		return f.WKT, nil
	}
	return geomwkt.EncodeString(geom.Point{f.Lon, f.Lat})
}

// BandSelector keeps the given bands of each record (set semantics)
type BandSelector struct {
	Bands []string
}

func (BandSelector) filter() {}

// Query accumulates filters against a collection. The zero value is not usable:
// use New. Filter methods return a new Query, leaving the receiver unchanged.
type Query struct {
	collection Collection
	filters    []Filter
}

// New constructs a Query bound to the given collection identifier
func New(collectionID string) (Query, error) {
	if collectionID == "" {
		return Query{}, ErrInvalidIdentifier{ID: collectionID}
	}
	return Query{collection: Collection{id: collectionID}}, nil
}

func (q Query) with(f Filter) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, f)
	return q
}

// FilterDate returns a new Query restricted to records acquired in [start, end]
func (q Query) FilterDate(start, end time.Time) (Query, error) {
	if start.After(end) {
		return q, ErrInvalidRange{Start: start, End: end}
	}
	return q.with(DateRange{Start: start, End: end}), nil
}

// FilterBounds returns a new Query restricted to records intersecting the filter
func (q Query) FilterBounds(f SpatialFilter) (Query, error) {
	if f.WKT == "" {
		if f.Lon < -180 || f.Lon > 180 || f.Lat < -90 || f.Lat > 90 {
			return q, ErrInvalidCoordinate{Lon: f.Lon, Lat: f.Lat}
		}
		return q.with(f), nil
	}
	g, err := geomwkt.DecodeString(f.WKT)
	if err != nil {
		return q, fmt.Errorf("FilterBounds.DecodeString[%s]: %w", f.WKT, err)
	}
	ext, err := geom.NewExtentFromGeometry(g)
	if err != nil {
		return q, fmt.Errorf("FilterBounds.NewExtentFromGeometry[%s]: %w", f.WKT, err)
	}
	if ext.MinX() < -180 || ext.MaxX() > 180 || ext.MinY() < -90 || ext.MaxY() > 90 {
		return q, ErrInvalidCoordinate{Lon: ext.MinX(), Lat: ext.MinY()}
	}
	return q.with(f), nil
}

// Select returns a new Query keeping only the given bands of each record
func (q Query) Select(bands ...string) (Query, error) {
	if len(bands) == 0 {
		return q, ErrEmptySelection{}
	}
	return q.with(BandSelector{Bands: bands}), nil
}

// Collection returns the collection the query is bound to
func (q Query) Collection() Collection { return q.collection }

// Filters returns the accumulated filters, in order of application
func (q Query) Filters() []Filter { return q.filters }

// DateRanges returns the accumulated date filters
func (q Query) DateRanges() []DateRange {
	var ranges []DateRange
	for _, f := range q.filters {
		if r, ok := f.(DateRange); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// SpatialFilters returns the accumulated spatial filters
func (q Query) SpatialFilters() []SpatialFilter {
	var filters []SpatialFilter
	for _, f := range q.filters {
		if s, ok := f.(SpatialFilter); ok {
			filters = append(filters, s)
		}
	}
	return filters
}

// Bands returns the union of the selected bands, in first-seen order
func (q Query) Bands() []string {
	var bands []string
	seen := map[string]struct{}{}
	for _, f := range q.filters {
		s, ok := f.(BandSelector)
		if !ok {
			continue
		}
		for _, b := range s.Bands {
			if _, ok := seen[b]; !ok {
				seen[b] = struct{}{}
				bands = append(bands, b)
			}
		}
	}
	return bands
}
