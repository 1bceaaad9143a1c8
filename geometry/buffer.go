package geometry

import (
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// Buffer dilates a geometry by a metric distance. Engine failures are
// logged and reported as nil so one bad feature cannot crash a batch;
// callers must exclude nil results.
func Buffer(g *geos.Geom, distanceM float64, log *zap.Logger) (buf *geos.Geom) {
	if g == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("buffering raised, excluding feature",
				zap.Float64("distance_m", distanceM), zap.Any("error", r))
			buf = nil
		}
	}()

	buffered := g.Buffer(distanceM, quadSegs)
	if buffered == nil {
		log.Error("buffering returned no geometry", zap.Float64("distance_m", distanceM))
		return nil
	}
	return buffered
}

// FeetToMeters converts a buffer distance given in feet. 1 ft = 0.3048 m.
func FeetToMeters(feet float64) float64 {
	return feet * 0.3048
}
