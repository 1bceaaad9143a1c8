package geometry

import (
	"math"

	"github.com/twpayne/go-geos"
)

// IsFinite reports whether every coordinate in the geometry is a finite
// number. Features with NaN or infinite coordinates are rejected before
// they reach the document sink.
func IsFinite(g *geos.Geom) bool {
	if g == nil {
		return false
	}
	switch g.TypeID() {
	case geos.TypeIDPoint, geos.TypeIDLineString, geos.TypeIDLinearRing:
		return finiteCoordSeq(g)
	case geos.TypeIDPolygon:
		if !finiteCoordSeq(g.ExteriorRing()) {
			return false
		}
		for i := 0; i < g.NumInteriorRings(); i++ {
			if !finiteCoordSeq(g.InteriorRing(i)) {
				return false
			}
		}
		return true
	case geos.TypeIDMultiPoint, geos.TypeIDMultiLineString,
		geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		for i := 0; i < g.NumGeometries(); i++ {
			if !IsFinite(g.Geometry(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func finiteCoordSeq(g *geos.Geom) bool {
	if g == nil {
		return false
	}
	seq := g.CoordSeq()
	if seq == nil {
		return false
	}
	for i := 0; i < seq.Size(); i++ {
		x, y := seq.X(i), seq.Y(i)
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return false
		}
	}
	return true
}
