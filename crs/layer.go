package crs

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/layer"
)

// Reconcile brings a layer into the target CRS. A layer without a CRS is
// rejected with MissingCRSError; a layer already in the target passes
// through untouched. Reprojection rebuilds every geometry and logs the
// conversion.
func Reconcile(l *layer.Layer, target string, log *zap.Logger) error {
	if l.CRS == "" {
		return &MissingCRSError{Dataset: l.Name}
	}
	if Equal(l.CRS, target) {
		log.Info("layer already in target CRS",
			zap.String("layer", l.Name), zap.String("crs", Normalize(target)))
		return nil
	}

	log.Warn("reprojecting layer",
		zap.String("layer", l.Name),
		zap.String("from", Normalize(l.CRS)), zap.String("to", Normalize(target)))
	for i := range l.Features {
		geom, err := ReprojectGeom(l.Features[i].Geom, l.CRS, target)
		if err != nil {
			return fmt.Errorf("layer %s feature %d: %w", l.Name, i, err)
		}
		l.Features[i].Geom = geom
	}
	l.CRS = Normalize(target)
	return nil
}

// EnsureProjected guarantees the layer is in a linear-unit CRS so metric
// buffer distances mean meters. Geographic layers are reprojected to the
// configured projected CRS; projected layers pass through.
func EnsureProjected(l *layer.Layer, projected string, log *zap.Logger) error {
	if l.CRS == "" {
		return &MissingCRSError{Dataset: l.Name}
	}
	if !IsGeographic(l.CRS) {
		return nil
	}
	log.Warn("layer uses a geographic CRS, reprojecting for metric buffering",
		zap.String("layer", l.Name),
		zap.String("from", Normalize(l.CRS)), zap.String("to", Normalize(projected)))
	return Reconcile(l, projected, log)
}

// AssignDefault tags a CRS-less layer with the given default, logging the
// assumption. Layers that already carry a CRS are untouched.
func AssignDefault(l *layer.Layer, def string, log *zap.Logger) {
	if l.CRS != "" {
		return
	}
	log.Warn("layer has no CRS, assuming default",
		zap.String("layer", l.Name), zap.String("crs", Normalize(def)))
	l.CRS = Normalize(def)
}
