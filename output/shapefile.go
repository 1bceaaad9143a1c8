package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geos"

	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/layer"
)

// writeShapefile writes the layer as an ESRI shapefile with a fixed
// attribute schema (Name, Date, PSI, Material) and, when the layer has a
// CRS, an EPSG code in the .prj sidecar.
func writeShapefile(l *layer.Layer, path string) error {
	shapeType, err := layerShapeType(l)
	if err != nil {
		return err
	}

	writer, err := shp.Create(path, shapeType)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	defer writer.Close()

	writer.SetFields([]shp.Field{
		shp.StringField("Name", 50),
		shp.StringField("Date", 25),
		shp.FloatField("PSI", 15, 5),
		shp.StringField("Material", 25),
	})

	for row, f := range l.Features {
		shape, err := geomToShape(f.Geom, shapeType)
		if err != nil {
			return fmt.Errorf("layer %s feature %d: %w", l.Name, row, err)
		}
		writer.Write(shape)
		writer.WriteAttribute(row, 0, f.Name)
		writer.WriteAttribute(row, 1, dateString(f.Date))
		writer.WriteAttribute(row, 2, f.PSI)
		writer.WriteAttribute(row, 3, f.Material)
	}

	if l.CRS != "" {
		prj := strings.TrimSuffix(path, ".shp") + ".prj"
		if err := os.WriteFile(prj, []byte(crs.Normalize(l.CRS)+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", prj, err)
		}
	}
	return nil
}

// layerShapeType derives the shapefile type from the layer's geometries.
// A shapefile holds exactly one shape class, so a layer mixing classes
// (say polyline sources plus point features) is rejected rather than
// degraded.
func layerShapeType(l *layer.Layer) (shp.ShapeType, error) {
	var shapeType shp.ShapeType
	for _, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		st, err := shapeTypeFor(l, f.Geom)
		if err != nil {
			return 0, err
		}
		if shapeType == 0 {
			shapeType = st
			continue
		}
		if st != shapeType {
			return 0, fmt.Errorf("layer %s mixes geometry types, cannot write a shapefile", l.Name)
		}
	}
	if shapeType == 0 {
		return 0, fmt.Errorf("layer %s has no geometries", l.Name)
	}
	return shapeType, nil
}

func shapeTypeFor(l *layer.Layer, g *geos.Geom) (shp.ShapeType, error) {
	switch g.TypeID() {
	case geos.TypeIDPoint:
		return shp.POINT, nil
	case geos.TypeIDLineString, geos.TypeIDMultiLineString:
		return shp.POLYLINE, nil
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return shp.POLYGON, nil
	default:
		return 0, fmt.Errorf("layer %s: unsupported geometry type %s",
			l.Name, layer.TypeName(g.TypeID()))
	}
}

func geomToShape(g *geos.Geom, shapeType shp.ShapeType) (shp.Shape, error) {
	switch shapeType {
	case shp.POINT:
		seq := g.CoordSeq()
		if seq == nil || seq.Size() == 0 {
			return nil, fmt.Errorf("point without coordinates")
		}
		return &shp.Point{X: seq.X(0), Y: seq.Y(0)}, nil
	case shp.POLYLINE:
		line := &shp.PolyLine{}
		for _, part := range lineParts(g) {
			line.Parts = append(line.Parts, int32(len(line.Points)))
			line.Points = append(line.Points, part...)
		}
		return line, nil
	case shp.POLYGON:
		poly := &shp.Polygon{}
		for _, ring := range polygonRings(g) {
			poly.Parts = append(poly.Parts, int32(len(poly.Points)))
			poly.Points = append(poly.Points, ring...)
		}
		return poly, nil
	default:
		return nil, fmt.Errorf("unsupported shape type %d", shapeType)
	}
}

func seqPoints(g *geos.Geom) []shp.Point {
	seq := g.CoordSeq()
	if seq == nil {
		return nil
	}
	points := make([]shp.Point, 0, seq.Size())
	for i := 0; i < seq.Size(); i++ {
		points = append(points, shp.Point{X: seq.X(i), Y: seq.Y(i)})
	}
	return points
}

func lineParts(g *geos.Geom) [][]shp.Point {
	if g.TypeID() == geos.TypeIDMultiLineString {
		var parts [][]shp.Point
		for i := 0; i < g.NumGeometries(); i++ {
			parts = append(parts, seqPoints(g.Geometry(i)))
		}
		return parts
	}
	return [][]shp.Point{seqPoints(g)}
}

func polygonRings(g *geos.Geom) [][]shp.Point {
	if g.TypeID() == geos.TypeIDMultiPolygon {
		var rings [][]shp.Point
		for i := 0; i < g.NumGeometries(); i++ {
			rings = append(rings, polygonRings(g.Geometry(i))...)
		}
		return rings
	}
	rings := [][]shp.Point{seqPoints(g.ExteriorRing())}
	for i := 0; i < g.NumInteriorRings(); i++ {
		rings = append(rings, seqPoints(g.InteriorRing(i)))
	}
	return rings
}
