// Package layer defines the in-memory feature layer the pipeline stages
// pass between each other: named, CRS-tagged collections of pipeline
// feature records.
package layer

import (
	"time"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// FeatureRecord is one canonical pipeline feature. Date carries the
// time.Time zero value when the source report had no parseable date.
type FeatureRecord struct {
	Name     string
	Date     time.Time
	PSI      float64
	Material string
	Geom     *geos.Geom
}

// Layer is an ordered feature collection with a name (used in error
// reporting) and a CRS identifier. An empty CRS means unknown.
type Layer struct {
	Name     string
	CRS      string
	Features []FeatureRecord
}

// SchemaError reports a layer whose geometry population violates the
// expectations of the consuming stage.
type SchemaError struct {
	Layer  string
	Reason string
}

func (e *SchemaError) Error() string {
	return "layer " + e.Layer + ": " + e.Reason
}

// Clone returns a deep copy: record slice and geometries both duplicated,
// so stages can mutate their working copy freely.
func (l *Layer) Clone() *Layer {
	out := &Layer{Name: l.Name, CRS: l.CRS, Features: make([]FeatureRecord, len(l.Features))}
	copy(out.Features, l.Features)
	for i := range out.Features {
		if out.Features[i].Geom != nil {
			out.Features[i].Geom = out.Features[i].Geom.Clone()
		}
	}
	return out
}

// Clean drops features whose geometry is nil, empty, or invalid, logging
// the reason for each exclusion. The surviving features keep their order.
func (l *Layer) Clean(log *zap.Logger) {
	kept := l.Features[:0]
	for _, f := range l.Features {
		switch {
		case f.Geom == nil:
			log.Warn("dropping feature without geometry",
				zap.String("layer", l.Name), zap.String("name", f.Name))
		case f.Geom.IsEmpty():
			log.Warn("dropping feature with empty geometry",
				zap.String("layer", l.Name), zap.String("name", f.Name))
		case !f.Geom.IsValid():
			log.Warn("dropping invalid feature",
				zap.String("layer", l.Name), zap.String("name", f.Name),
				zap.String("reason", f.Geom.IsValidReason()))
		default:
			kept = append(kept, f)
		}
	}
	l.Features = kept
}

// GeomTypes returns the set of geometry type ids present in the layer.
func (l *Layer) GeomTypes() map[geos.TypeID]bool {
	types := make(map[geos.TypeID]bool)
	for _, f := range l.Features {
		if f.Geom != nil {
			types[f.Geom.TypeID()] = true
		}
	}
	return types
}

// TypeName renders a geometry type id for log and error messages.
func TypeName(id geos.TypeID) string {
	switch id {
	case geos.TypeIDPoint:
		return "Point"
	case geos.TypeIDLineString:
		return "LineString"
	case geos.TypeIDLinearRing:
		return "LinearRing"
	case geos.TypeIDPolygon:
		return "Polygon"
	case geos.TypeIDMultiPoint:
		return "MultiPoint"
	case geos.TypeIDMultiLineString:
		return "MultiLineString"
	case geos.TypeIDMultiPolygon:
		return "MultiPolygon"
	case geos.TypeIDGeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}
