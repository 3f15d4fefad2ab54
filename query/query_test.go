package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terralens/imagequery/common"
)

func mustQuery(t *testing.T, collectionID string) Query {
	t.Helper()
	q, err := New(collectionID)
	if err != nil {
		t.Fatalf("New(%s): %v", collectionID, err)
	}
	return q
}

func TestNewEmptyIdentifier(t *testing.T) {
	_, err := New("")
	var errID ErrInvalidIdentifier
	if !errors.As(err, &errID) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestFilterDate(t *testing.T) {
	q := mustQuery(t, "COPERNICUS/S2_SR")
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)

	q2, err := q.FilterDate(start, end)
	if err != nil {
		t.Fatalf("FilterDate: %v", err)
	}
	if len(q2.DateRanges()) != 1 {
		t.Errorf("expected 1 date range, got %d", len(q2.DateRanges()))
	}

	var errRange ErrInvalidRange
	if _, err = q.FilterDate(end, start); !errors.As(err, &errRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestFilterBounds(t *testing.T) {
	q := mustQuery(t, "COPERNICUS/S2_SR")

	if _, err := q.FilterBounds(Point(-122.1, 37.2)); err != nil {
		t.Errorf("FilterBounds: %v", err)
	}

	var errCoord ErrInvalidCoordinate
	if _, err := q.FilterBounds(Point(200, 37.2)); !errors.As(err, &errCoord) {
		t.Errorf("expected ErrInvalidCoordinate for lon=200, got %v", err)
	}
	if _, err := q.FilterBounds(Point(-122.1, 95)); !errors.As(err, &errCoord) {
		t.Errorf("expected ErrInvalidCoordinate for lat=95, got %v", err)
	}
	if _, err := q.FilterBounds(Region("POLYGON ((190 0,191 0,191 1,190 1,190 0))")); !errors.As(err, &errCoord) {
		t.Errorf("expected ErrInvalidCoordinate for out-of-bounds region, got %v", err)
	}
	if _, err := q.FilterBounds(Region("POLYGON ((0 89,1 89,1 91,0 91,0 89))")); !errors.As(err, &errCoord) {
		t.Errorf("expected ErrInvalidCoordinate for region crossing the pole, got %v", err)
	}
	if _, err := q.FilterBounds(Region("POLYGON ((")); err == nil {
		t.Error("expected an error for a malformed region")
	}
}

func TestSelect(t *testing.T) {
	q := mustQuery(t, "COPERNICUS/S2_SR")

	q2, err := q.Select("NDVI", "B4", "NDVI")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	bands := q2.Bands()
	if len(bands) != 2 || bands[0] != "NDVI" || bands[1] != "B4" {
		t.Errorf("expected [NDVI B4], got %v", bands)
	}

	var errEmpty ErrEmptySelection
	if _, err = q.Select(); !errors.As(err, &errEmpty) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestBuilderLeavesReceiverUnchanged(t *testing.T) {
	q := mustQuery(t, "COPERNICUS/S2_SR")
	q2, err := q.Select("NDVI")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err = q2.Select("B4"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(q.Filters()) != 0 {
		t.Errorf("base query mutated: %v", q.Filters())
	}
	if len(q2.Bands()) != 1 {
		t.Errorf("branched query mutated: %v", q2.Bands())
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2018-01-01", "2018-01-02")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !r.Start.Before(r.End) {
		t.Errorf("expected start < end, got %v %v", r.Start, r.End)
	}

	var errRange ErrInvalidRange
	if _, err = ParseDateRange("2018-01-02", "2018-01-01"); !errors.As(err, &errRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err = ParseDateRange("not a date", "2018-01-01"); err == nil {
		t.Error("expected an error for an unparsable date")
	}
}

// countingResolver returns the same records on each call
type countingResolver struct {
	calls  int
	images []*common.ImageRecord
}

func (r *countingResolver) SearchImages(ctx context.Context, q *Query) ([]*common.ImageRecord, error) {
	r.calls++
	images := make([]*common.ImageRecord, len(r.images))
	for i, img := range r.images {
		clone := *img
		images[i] = &clone
	}
	return images, nil
}

func TestResolveIdempotent(t *testing.T) {
	resolver := &countingResolver{images: []*common.ImageRecord{
		{SourceID: "S2A_MSIL2A_20180101T190351", Bands: []common.Band{{ID: "NDVI"}, {ID: "B4"}}},
		{SourceID: "S2B_MSIL2A_20180101T190351", Bands: []common.Band{{ID: "B4"}}},
	}}

	q := mustQuery(t, "COPERNICUS/S2_SR")
	q, err := q.Select("NDVI")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	first, err := q.Resolve(context.Background(), resolver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := q.Resolve(context.Background(), resolver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolver.calls != 2 {
		t.Errorf("expected the query to be re-issued, got %d calls", resolver.calls)
	}
	if len(first.Images) != 1 || len(second.Images) != 1 {
		t.Fatalf("expected 1 NDVI record per resolution, got %d and %d", len(first.Images), len(second.Images))
	}
	if first.Images[0].SourceID != second.Images[0].SourceID {
		t.Error("resolutions of the same query differ")
	}
	if len(first.Images[0].Bands) != 1 || first.Images[0].Bands[0].ID != "NDVI" {
		t.Errorf("expected only the NDVI band, got %v", first.Images[0].Bands)
	}
}

func TestResolveTimeout(t *testing.T) {
	resolver := &countingResolver{images: []*common.ImageRecord{{SourceID: "S2A"}}}
	q := mustQuery(t, "COPERNICUS/S2_SR")

	// 0: no timeout
	if _, err := q.ResolveTimeout(context.Background(), resolver, 0); err != nil {
		t.Fatalf("ResolveTimeout: %v", err)
	}
	if _, err := q.ResolveTimeout(context.Background(), resolver, time.Minute); err != nil {
		t.Fatalf("ResolveTimeout: %v", err)
	}
}

func TestResolveWithoutResolver(t *testing.T) {
	q := mustQuery(t, "COPERNICUS/S2_SR")
	var errSvc ErrServiceUnavailable
	if _, err := q.Resolve(context.Background(), nil); !errors.As(err, &errSvc) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}
