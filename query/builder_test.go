package query_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/terralens/imagequery/common"
	"github.com/terralens/imagequery/query"
)

// MokeCatalog implements query.Resolver over a fixed set of records,
// honouring the date filters of the query
type MokeCatalog struct {
	images []*common.ImageRecord
}

func (c *MokeCatalog) SearchImages(ctx context.Context, q *query.Query) ([]*common.ImageRecord, error) {
	var images []*common.ImageRecord
	for _, image := range c.images {
		keep := true
		for _, r := range q.DateRanges() {
			if image.Date.Before(r.Start) || image.Date.After(r.End) {
				keep = false
			}
		}
		if keep {
			clone := *image
			images = append(images, &clone)
		}
	}
	return images, nil
}

var _ = Describe("Builder", func() {
	catalog := &MokeCatalog{images: []*common.ImageRecord{
		{
			SourceID: "S2A_MSIL2A_20180101T190351_N0206_R013_T10SEG_20180101T221950",
			Date:     time.Date(2018, 1, 1, 19, 3, 51, 0, time.UTC),
			Bands:    []common.Band{{ID: "NDVI"}, {ID: "B4"}},
		},
		{
			SourceID: "S2B_MSIL2A_20180101T190351_N0206_R013_T10SEG_20180101T221950",
			Date:     time.Date(2018, 1, 1, 19, 3, 51, 0, time.UTC),
			Bands:    []common.Band{{ID: "B4"}},
		},
		{
			SourceID: "S2A_MSIL2A_20180110T190351_N0206_R013_T10SEG_20180110T221950",
			Date:     time.Date(2018, 1, 10, 19, 3, 51, 0, time.UTC),
			Bands:    []common.Band{{ID: "NDVI"}},
		},
	}}

	Describe("chaining filters and resolving", func() {
		newQuery := func() query.Query {
			q, err := query.New("COPERNICUS/S2_SR")
			Expect(err).NotTo(HaveOccurred())
			q, err = q.FilterDate(
				time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			q, err = q.FilterBounds(query.Point(-122.1, 37.2))
			Expect(err).NotTo(HaveOccurred())
			q, err = q.Select("NDVI")
			Expect(err).NotTo(HaveOccurred())
			return q
		}

		It("returns only the NDVI records of the date range", func() {
			result, err := newQuery().Resolve(context.Background(), catalog)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Collection).To(Equal("COPERNICUS/S2_SR"))
			Expect(result.Images).To(HaveLen(1))
			Expect(result.Images[0].SourceID).To(HavePrefix("S2A_MSIL2A_20180101"))
			Expect(result.Images[0].Bands).To(Equal([]common.Band{{ID: "NDVI"}}))
		})

		It("resolves twice with the same result", func() {
			q := newQuery()
			first, err := q.Resolve(context.Background(), catalog)
			Expect(err).NotTo(HaveOccurred())
			second, err := q.Resolve(context.Background(), catalog)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})
	})

	Describe("validation", func() {
		It("rejects an empty collection identifier", func() {
			_, err := query.New("")
			Expect(err).To(BeAssignableToTypeOf(query.ErrInvalidIdentifier{}))
		})

		It("rejects an out-of-bounds longitude", func() {
			q, err := query.New("COPERNICUS/S2_SR")
			Expect(err).NotTo(HaveOccurred())
			_, err = q.FilterBounds(query.Point(200, 37.2))
			Expect(err).To(BeAssignableToTypeOf(query.ErrInvalidCoordinate{}))
		})
	})
})
