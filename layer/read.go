package layer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geos"
)

const attrDateLayout = "2006-01-02"

// ReadLayer loads a feature layer from disk, dispatching on the file
// extension. Shapefiles take their CRS from the .prj sidecar; GeoJSON
// from the optional top-level crs member. A missing sidecar or member
// yields an empty CRS, which downstream stages treat as unknown.
func ReadLayer(path string) (*Layer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path)
	case ".geojson", ".json":
		return readGeoJSON(path)
	default:
		return nil, fmt.Errorf("unsupported layer format %q", filepath.Ext(path))
	}
}

var prjEPSG = regexp.MustCompile(`AUTHORITY\["EPSG","(\d+)"\]`)

// sidecarCRS reads the .prj next to a shapefile. Both a bare "EPSG:NNNN"
// line and full WKT with an EPSG authority clause are accepted.
func sidecarCRS(shpPath string) string {
	raw, err := os.ReadFile(strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj")
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(strings.ToUpper(text), "EPSG:") {
		return "EPSG:" + text[5:]
	}
	if matches := prjEPSG.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		// The last authority clause belongs to the whole CRS.
		return "EPSG:" + matches[len(matches)-1][1]
	}
	return ""
}

func readShapefile(path string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		fieldIdx[strings.ToLower(f.String())] = i
	}
	attr := func(row int, name string) string {
		i, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(reader.ReadAttribute(row, i))
	}

	out := &Layer{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		CRS:  sidecarCRS(path),
	}
	for reader.Next() {
		row, shape := reader.Shape()
		geom, err := shapeToGeom(shape)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s record %d: %w", path, row, err)
		}
		rec := FeatureRecord{
			Name:     attr(row, "name"),
			Material: attr(row, "material"),
			Geom:     geom,
		}
		if s := attr(row, "psi"); s != "" {
			rec.PSI, _ = strconv.ParseFloat(s, 64)
		}
		if s := attr(row, "date"); s != "" {
			rec.Date, _ = time.Parse(attrDateLayout, s)
		}
		out.Features = append(out.Features, rec)
	}
	return out, nil
}

func shapeToGeom(shape shp.Shape) (*geos.Geom, error) {
	switch s := shape.(type) {
	case *shp.Point:
		return geos.NewPoint([]float64{s.X, s.Y}), nil
	case *shp.PolyLine:
		parts := partCoords(s.Parts, s.Points)
		if len(parts) == 1 {
			return geos.NewLineString(parts[0]), nil
		}
		lines := make([]*geos.Geom, len(parts))
		for i, coords := range parts {
			lines[i] = geos.NewLineString(coords)
		}
		return geos.NewCollection(geos.TypeIDMultiLineString, lines), nil
	case *shp.Polygon:
		// Every part becomes a ring of one polygon: sufficient for the
		// park and buffer layers this pipeline reads.
		return geos.NewPolygon(partCoords(s.Parts, s.Points)), nil
	default:
		return nil, fmt.Errorf("unsupported shape type %T", shape)
	}
}

func partCoords(parts []int32, points []shp.Point) [][][]float64 {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	out := make([][][]float64, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		coords := make([][]float64, 0, end-int(start))
		for _, p := range points[start:end] {
			coords = append(coords, []float64{p.X, p.Y})
		}
		out = append(out, coords)
	}
	return out
}

type geojsonCRS struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

func readGeoJSON(path string) (*Layer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		CRS      *geojsonCRS `json:"crs"`
		Features []struct {
			Geometry   json.RawMessage        `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := &Layer{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	if doc.CRS != nil {
		out.CRS = doc.CRS.Properties.Name
	}
	for i, f := range doc.Features {
		var geom *geos.Geom
		if len(f.Geometry) > 0 && string(f.Geometry) != "null" {
			geom, err = geos.NewGeomFromGeoJSON(string(f.Geometry))
			if err != nil {
				return nil, fmt.Errorf("%s feature %d: %w", path, i, err)
			}
		}
		rec := FeatureRecord{Geom: geom}
		if v, ok := f.Properties["Name"].(string); ok {
			rec.Name = v
		}
		if v, ok := f.Properties["Material"].(string); ok {
			rec.Material = v
		}
		if v, ok := f.Properties["PSI"].(float64); ok {
			rec.PSI = v
		}
		if v, ok := f.Properties["Date"].(string); ok && v != "" {
			rec.Date, _ = time.Parse(attrDateLayout, v)
		}
		out.Features = append(out.Features, rec)
	}
	return out, nil
}
