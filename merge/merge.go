// Package merge folds accepted exclusion buffers into the municipal
// future-development planning layer and rewrites it in place.
package merge

import (
	"fmt"
	"sort"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/config"
	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/geometry"
	"github.com/gasline-tools/gispipeline/layer"
	"github.com/gasline-tools/gispipeline/output"
)

// webMercator is the working CRS for widening point/line planning
// features: metric units with global coverage.
const webMercator = "EPSG:3857"

type Merger struct {
	Log *zap.Logger
	Cfg *config.Config
}

// MergeBuffersIntoPlanning merges the buffer layer into the planning
// file at planningPath and overwrites that file, whatever the overwrite
// setting says; the merge is the documented destructive step. Dry-run
// still skips the write.
func (m *Merger) MergeBuffersIntoPlanning(buffers *layer.Layer, planningPath string, pointBufferDist float64) (*layer.Layer, error) {
	planning, err := layer.ReadLayer(planningPath)
	if err != nil {
		return nil, fmt.Errorf("load planning layer: %w", err)
	}

	merged, err := m.MergeLayers(buffers, planning, pointBufferDist)
	if err != nil {
		return nil, err
	}

	writer := &output.Writer{Log: m.Log, Overwrite: true, DryRun: m.Cfg.DryRun}
	if err := writer.WriteLayer(merged, planningPath); err != nil {
		return nil, fmt.Errorf("rewrite planning layer: %w", err)
	}
	return merged, nil
}

// MergeLayers returns the planning layer with every buffer appended.
// Empty buffer input returns the planning layer untouched.
func (m *Merger) MergeLayers(buffers, planning *layer.Layer, pointBufferDist float64) (*layer.Layer, error) {
	if len(buffers.Features) == 0 {
		m.Log.Warn("no buffers to merge, planning layer unchanged",
			zap.String("layer", planning.Name))
		return planning, nil
	}

	crs.AssignDefault(planning, m.Cfg.GeographicCRS, m.Log)
	crs.AssignDefault(buffers, m.Cfg.BufferLayerCRS, m.Log)
	if planning.CRS == "" {
		return nil, &layer.SchemaError{Layer: planning.Name, Reason: "no CRS and no usable default"}
	}

	if err := checkBufferTypes(buffers); err != nil {
		return nil, err
	}

	work := buffers.Clone()
	if err := crs.Reconcile(work, planning.CRS, m.Log); err != nil {
		return nil, fmt.Errorf("buffers: %w", err)
	}
	if err := crs.EnsureProjected(planning, m.Cfg.DefaultCRS, m.Log); err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	if err := crs.EnsureProjected(work, planning.CRS, m.Log); err != nil {
		return nil, fmt.Errorf("buffers: %w", err)
	}

	if err := m.widenPlanning(planning, pointBufferDist); err != nil {
		return nil, err
	}

	for i := range planning.Features {
		planning.Features[i].Geom = geometry.Fix(planning.Features[i].Geom, m.Log)
	}
	planning.Clean(m.Log)
	for i := range work.Features {
		work.Features[i].Geom = geometry.Fix(work.Features[i].Geom, m.Log)
	}
	work.Clean(m.Log)

	planning.Features = append(planning.Features, work.Features...)
	return planning, nil
}

// checkBufferTypes rejects buffer layers with any non-areal feature.
func checkBufferTypes(buffers *layer.Layer) error {
	for _, f := range buffers.Features {
		if f.Geom == nil {
			continue
		}
		switch f.Geom.TypeID() {
		case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		default:
			return &layer.SchemaError{
				Layer: buffers.Name,
				Reason: fmt.Sprintf("buffer features must be polygon or multipolygon, found %s",
					layer.TypeName(f.Geom.TypeID())),
			}
		}
	}
	return nil
}

// widenPlanning brings the planning layer to areal geometry. A uniform
// point or line layer is buffered by pointBufferDist in web mercator;
// mixed or unsupported type populations are schema errors.
func (m *Merger) widenPlanning(planning *layer.Layer, pointBufferDist float64) error {
	types := planning.GeomTypes()
	if len(types) > 1 {
		names := make([]string, 0, len(types))
		for id := range types {
			names = append(names, layer.TypeName(id))
		}
		sort.Strings(names)
		return &layer.SchemaError{
			Layer:  planning.Name,
			Reason: fmt.Sprintf("mixed geometry types %v", names),
		}
	}
	for id := range types {
		switch id {
		case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
			return nil
		case geos.TypeIDPoint, geos.TypeIDMultiPoint,
			geos.TypeIDLineString, geos.TypeIDMultiLineString:
			return m.bufferPlanning(planning, pointBufferDist)
		default:
			return &layer.SchemaError{
				Layer:  planning.Name,
				Reason: fmt.Sprintf("unsupported geometry type %s", layer.TypeName(id)),
			}
		}
	}
	return nil
}

func (m *Merger) bufferPlanning(planning *layer.Layer, dist float64) error {
	m.Log.Warn("planning layer is not areal, buffering features",
		zap.String("layer", planning.Name), zap.Float64("distance", dist))
	for i := range planning.Features {
		g := planning.Features[i].Geom
		if g == nil {
			continue
		}
		widened, err := crs.ReprojectGeom(g, planning.CRS, webMercator)
		if err != nil {
			return fmt.Errorf("planning feature %d: %w", i, err)
		}
		widened = geometry.Buffer(widened, dist, m.Log)
		if widened == nil {
			planning.Features[i].Geom = nil
			continue
		}
		back, err := crs.ReprojectGeom(widened, webMercator, planning.CRS)
		if err != nil {
			return fmt.Errorf("planning feature %d: %w", i, err)
		}
		planning.Features[i].Geom = back
	}
	return nil
}
