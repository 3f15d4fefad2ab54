package geometry

import (
	"fmt"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// GeosToGeom generates a geom.Geometry from a geos.Geometry
func GeosToGeom(g *geos.Geometry) (geom.Geometry, error) {
	wkt, err := g.ToWKT()
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.ToWKT: %w", err)
	}
	geometry, err := geomwkt.DecodeString(wkt)
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.DecodeString: %w", err)
	}

	return geometry, nil
}

// WKTIntersects returns whether the two geometries intersect
func WKTIntersects(wkt1, wkt2 string) (bool, error) {
	g1, err := geos.FromWKT(wkt1)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects.FromWKT[%s]: %w", wkt1, err)
	}
	g2, err := geos.FromWKT(wkt2)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects.FromWKT[%s]: %w", wkt2, err)
	}
	intersects, err := g1.Intersects(g2)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects: %w", err)
	}
	return intersects, nil
}

// WKTConvexHull returns the convex hull of the geometry
func WKTConvexHull(wkt string) (string, error) {
	g, err := geos.FromWKT(wkt)
	if err != nil {
		return "", fmt.Errorf("WKTConvexHull.FromWKT: %w", err)
	}
	hull, err := g.ConvexHull()
	if err != nil {
		return "", fmt.Errorf("WKTConvexHull: %w", err)
	}
	geometry, err := GeosToGeom(hull)
	if err != nil {
		return "", fmt.Errorf("WKTConvexHull.%w", err)
	}
	hullWKT, err := geomwkt.EncodeString(geometry)
	if err != nil {
		return "", fmt.Errorf("WKTConvexHull.EncodeString: %w", err)
	}
	return hullWKT, nil
}
