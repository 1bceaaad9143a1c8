// Package buffering builds the metric exclusion buffers around gas
// lines: load, reproject, repair, dilate, subtract parks, and keep only
// buffers that still touch their source lines.
package buffering

import (
	"fmt"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/config"
	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/geometry"
	"github.com/gasline-tools/gispipeline/layer"
	"github.com/gasline-tools/gispipeline/parallel"
	"github.com/gasline-tools/gispipeline/parks"
)

// Builder runs the buffer-creation stage.
type Builder struct {
	Log *zap.Logger
	Cfg *config.Config
}

// CreateBufferedLayer loads the gas-lines layer and returns its exclusion
// buffers: distanceFt around every line, minus parks when parksPath is
// set, keeping only buffers that still intersect a source line. The
// result layer is in a projected CRS so the distance means meters on the
// ground.
func (b *Builder) CreateBufferedLayer(gasLinesPath string, distanceFt float64, parksPath string) (*layer.Layer, error) {
	lines, err := layer.ReadLayer(gasLinesPath)
	if err != nil {
		return nil, fmt.Errorf("load gas lines: %w", err)
	}
	return b.BufferLayer(lines, distanceFt, parksPath)
}

// BufferLayer is CreateBufferedLayer over an already loaded layer.
func (b *Builder) BufferLayer(lines *layer.Layer, distanceFt float64, parksPath string) (*layer.Layer, error) {
	crs.AssignDefault(lines, b.Cfg.DefaultCRS, b.Log)
	if err := crs.EnsureProjected(lines, b.Cfg.DefaultCRS, b.Log); err != nil {
		return nil, fmt.Errorf("gas lines: %w", err)
	}

	work := lines.Clone()
	b.dropUnbufferable(work)
	for i := range work.Features {
		work.Features[i].Geom = geometry.Fix(work.Features[i].Geom, b.Log)
	}
	work.Clean(b.Log)

	// The cleaned source geometries drive the final intersection filter.
	sources := make([]*geos.Geom, len(work.Features))
	for i := range work.Features {
		sources[i] = work.Features[i].Geom
	}

	distanceM := geometry.FeetToMeters(distanceFt)
	buffers := work.Clone()
	buffers.Name = lines.Name + "_buffers"
	bufferOne := func(g *geos.Geom) *geos.Geom {
		return geometry.Fix(geometry.Buffer(g, distanceM, b.Log), b.Log)
	}
	if b.Cfg.Parallel && len(buffers.Features) > 1 {
		geoms := make([]*geos.Geom, len(buffers.Features))
		for i := range buffers.Features {
			geoms[i] = buffers.Features[i].Geom
		}
		results := parallel.ProcessBatch(geoms, b.Cfg.MaxWorkers, b.Log, bufferOne)
		for i := range buffers.Features {
			buffers.Features[i].Geom = results[i]
		}
	} else {
		for i := range buffers.Features {
			buffers.Features[i].Geom = bufferOne(buffers.Features[i].Geom)
		}
	}
	buffers.Clean(b.Log)

	if parksPath != "" {
		sub := &parks.Subtractor{
			Log:                b.Log,
			Workers:            b.Cfg.MaxWorkers,
			Parallel:           b.Cfg.Parallel,
			LineBufferDistance: b.Cfg.LineBufferDistance,
			DefaultParksCRS:    b.Cfg.DefaultCRS,
		}
		subtracted, err := sub.Subtract(buffers, parksPath)
		if err != nil {
			return nil, err
		}
		buffers = subtracted
	}

	FilterIntersecting(buffers, sources, b.Log)
	buffers.Clean(b.Log)
	return buffers, nil
}

// dropUnbufferable removes geometry types the buffer stage does not
// handle, with a warning per dropped feature.
func (b *Builder) dropUnbufferable(l *layer.Layer) {
	kept := l.Features[:0]
	for _, f := range l.Features {
		if f.Geom == nil {
			kept = append(kept, f) // Clean logs and drops these.
			continue
		}
		switch f.Geom.TypeID() {
		case geos.TypeIDPoint, geos.TypeIDMultiPoint,
			geos.TypeIDLineString, geos.TypeIDMultiLineString,
			geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
			kept = append(kept, f)
		default:
			b.Log.Warn("dropping unbufferable feature",
				zap.String("name", f.Name),
				zap.String("type", layer.TypeName(f.Geom.TypeID())))
		}
	}
	l.Features = kept
}
