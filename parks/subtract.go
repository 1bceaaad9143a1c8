// Package parks removes park polygons from exclusion buffers. Subtraction
// can only shrink a buffer; a buffer fully covered by parks comes out as
// an empty polygon, never as a dropped record.
package parks

import (
	"fmt"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/geometry"
	"github.com/gasline-tools/gispipeline/index"
	"github.com/gasline-tools/gispipeline/layer"
	"github.com/gasline-tools/gispipeline/parallel"
)

// Subtractor configures park subtraction over a buffer layer.
type Subtractor struct {
	Log *zap.Logger
	// Workers and Parallel select the execution mode; both modes produce
	// geometrically identical output.
	Workers  int
	Parallel bool
	// LineBufferDistance widens linear "park" features (greenway
	// centerlines) into polygons, in layer units.
	LineBufferDistance float64
	// DefaultParksCRS is assumed, with a log entry, when the park file
	// carries no CRS.
	DefaultParksCRS string
}

// SubtractParksFromGeom removes every park from one buffer geometry. The
// running result is re-repaired after each difference; once it empties
// out the remaining parks are skipped. A nil, empty, or unrepairable
// buffer yields an empty polygon.
func SubtractParksFromGeom(buf *geos.Geom, parks []*geos.Geom, log *zap.Logger) (out *geos.Geom) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("park subtraction raised, emptying buffer", zap.Any("error", r))
			out = geos.NewEmptyPolygon()
		}
	}()

	current := geometry.Fix(buf, log)
	if current == nil || current.IsEmpty() {
		return geos.NewEmptyPolygon()
	}
	for _, park := range parks {
		if park == nil || park.IsEmpty() {
			continue
		}
		diff := current.Difference(park)
		diff = geometry.Fix(diff, log)
		if diff == nil || diff.IsEmpty() {
			return geos.NewEmptyPolygon()
		}
		current = diff
	}
	return current
}

// Subtract returns a copy of the buffer layer with every park removed.
// An empty parksPath is a no-op copy.
func (s *Subtractor) Subtract(buffers *layer.Layer, parksPath string) (*layer.Layer, error) {
	out := buffers.Clone()
	if parksPath == "" {
		return out, nil
	}

	parks, err := s.loadParks(parksPath, buffers.CRS)
	if err != nil {
		return nil, err
	}
	if len(parks) == 0 {
		return out, nil
	}

	idx := index.NewGridIndex(parks, 0)
	subtractOne := func(g *geos.Geom) *geos.Geom {
		if g == nil || g.IsEmpty() {
			return geos.NewEmptyPolygon()
		}
		candidates := idx.Query(g)
		nearby := make([]*geos.Geom, 0, len(candidates))
		for _, i := range candidates {
			nearby = append(nearby, parks[i])
		}
		return SubtractParksFromGeom(g, nearby, s.Log)
	}

	if s.Parallel && len(out.Features) > 1 {
		geoms := make([]*geos.Geom, len(out.Features))
		for i := range out.Features {
			geoms[i] = out.Features[i].Geom
		}
		results := parallel.ProcessBatch(geoms, s.Workers, s.Log, subtractOne)
		for i := range out.Features {
			out.Features[i].Geom = results[i]
		}
	} else {
		for i := range out.Features {
			out.Features[i].Geom = subtractOne(out.Features[i].Geom)
		}
	}
	return out, nil
}

// loadParks reads the park layer, reconciles it into targetCRS, widens
// linear features, and repairs every polygon. Unusable features are
// excluded with a warning.
func (s *Subtractor) loadParks(path, targetCRS string) ([]*geos.Geom, error) {
	parkLayer, err := layer.ReadLayer(path)
	if err != nil {
		return nil, fmt.Errorf("load parks: %w", err)
	}
	crs.AssignDefault(parkLayer, s.DefaultParksCRS, s.Log)
	if err := crs.Reconcile(parkLayer, targetCRS, s.Log); err != nil {
		return nil, fmt.Errorf("parks: %w", err)
	}

	var parks []*geos.Geom
	for i, f := range parkLayer.Features {
		g := f.Geom
		if g == nil || g.IsEmpty() {
			continue
		}
		switch g.TypeID() {
		case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		case geos.TypeIDLineString, geos.TypeIDMultiLineString:
			g = geometry.Buffer(g, s.LineBufferDistance, s.Log)
			if g == nil {
				continue
			}
		default:
			s.Log.Warn("excluding park with unsupported geometry type",
				zap.Int("feature", i), zap.String("type", layer.TypeName(g.TypeID())))
			continue
		}
		g = geometry.Fix(g, s.Log)
		if g == nil {
			s.Log.Warn("excluding unrepairable park", zap.Int("feature", i))
			continue
		}
		parks = append(parks, g)
	}
	return parks, nil
}
