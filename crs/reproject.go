package crs

import (
	"fmt"

	"github.com/everystreet/go-proj/v8/proj"
	"github.com/twpayne/go-geos"
)

// ReprojectGeom transforms a single geometry from source to target CRS.
// Coordinates are walked ring by ring and the geometry rebuilt, so the
// input is never mutated.
func ReprojectGeom(g *geos.Geom, source, target string) (*geos.Geom, error) {
	if g == nil {
		return nil, nil
	}
	if Equal(source, target) {
		return g, nil
	}

	var out *geos.Geom
	var rebuildErr error
	err := proj.CRSToCRS(Normalize(source), Normalize(target), func(pj proj.Projection) {
		out, rebuildErr = transformGeom(g, pj)
	})
	if err != nil {
		return nil, fmt.Errorf("reproject %s -> %s: %w", source, target, err)
	}
	if rebuildErr != nil {
		return nil, fmt.Errorf("reproject %s -> %s: %w", source, target, rebuildErr)
	}
	return out, nil
}

func transformGeom(g *geos.Geom, pj proj.Projection) (*geos.Geom, error) {
	switch g.TypeID() {
	case geos.TypeIDPoint:
		coords := transformSeq(g, pj)
		if len(coords) == 0 {
			return geos.NewEmptyPoint(), nil
		}
		return geos.NewPoint(coords[0]), nil
	case geos.TypeIDLineString, geos.TypeIDLinearRing:
		return geos.NewLineString(transformSeq(g, pj)), nil
	case geos.TypeIDPolygon:
		return transformPolygon(g, pj), nil
	case geos.TypeIDMultiPoint, geos.TypeIDMultiLineString,
		geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		parts := make([]*geos.Geom, 0, g.NumGeometries())
		for i := 0; i < g.NumGeometries(); i++ {
			part, err := transformGeom(g.Geometry(i), pj)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return geos.NewCollection(g.TypeID(), parts), nil
	default:
		return nil, fmt.Errorf("unsupported geometry type id %d", g.TypeID())
	}
}

func transformPolygon(g *geos.Geom, pj proj.Projection) *geos.Geom {
	rings := make([][][]float64, 0, 1+g.NumInteriorRings())
	rings = append(rings, transformSeq(g.ExteriorRing(), pj))
	for i := 0; i < g.NumInteriorRings(); i++ {
		rings = append(rings, transformSeq(g.InteriorRing(i), pj))
	}
	return geos.NewPolygon(rings)
}

func transformSeq(g *geos.Geom, pj proj.Projection) [][]float64 {
	if g == nil {
		return nil
	}
	seq := g.CoordSeq()
	if seq == nil {
		return nil
	}
	coords := make([][]float64, 0, seq.Size())
	for i := 0; i < seq.Size(); i++ {
		xy := proj.XY{X: seq.X(i), Y: seq.Y(i)}
		proj.TransformForward(pj, &xy)
		coords = append(coords, []float64{xy.X, xy.Y})
	}
	return coords
}
