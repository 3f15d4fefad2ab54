package common

import (
	"strings"
	"time"
)

// Known dataset families
const (
	Sentinel1        = "Sentinel1"
	Sentinel2        = "Sentinel2"
	Landsat          = "Landsat"
	UndefinedDataset = "undefined"
)

// GetDataset returns the dataset family of a collection identifier
// (e.g. "COPERNICUS/S2_SR" => Sentinel2)
func GetDataset(collectionID string) string {
	id := strings.ToLower(collectionID)
	if strings.Contains(id, "landsat") {
		return Landsat
	}
	for _, segment := range strings.Split(id, "/") {
		switch {
		case segment == "sentinel1" || segment == "sentinel-1" || strings.HasPrefix(segment, "s1"):
			return Sentinel1
		case segment == "sentinel2" || segment == "sentinel-2" || strings.HasPrefix(segment, "s2"):
			return Sentinel2
		}
	}
	return UndefinedDataset
}

// Band is a named data channel of an image record
type Band struct {
	ID string `json:"id"`
}

// ImageRecord is one record of a remote imagery collection
type ImageRecord struct {
	SourceID    string            `json:"source_id"`
	UUID        string            `json:"uuid,omitempty"`
	Date        time.Time         `json:"date"`
	Bands       []Band            `json:"bands,omitempty"`
	GeometryWKT string            `json:"geometry_wkt,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// HasBand returns whether the record exposes the given band
func (r *ImageRecord) HasBand(id string) bool {
	for _, b := range r.Bands {
		if b.ID == id {
			return true
		}
	}
	return false
}

// KeepBands removes all bands of the record but the given ones, keeping their order
func (r *ImageRecord) KeepBands(ids map[string]struct{}) {
	bands := r.Bands[:0]
	for _, b := range r.Bands {
		if _, ok := ids[b.ID]; ok {
			bands = append(bands, b)
		}
	}
	r.Bands = bands
}
