// Package geometry wraps the GEOS engine calls whose failures must never
// abort a batch: validity repair, buffering, and coordinate sanity checks.
package geometry

import (
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

const quadSegs = 8

// Fix attempts to repair an invalid geometry with a zero-width buffer.
// nil input is passed through silently. A geometry that is still empty or
// invalid after self-healing is reported as nil; callers exclude the
// feature rather than fail. Fix(Fix(g)) == Fix(g).
func Fix(g *geos.Geom, log *zap.Logger) (fixed *geos.Geom) {
	if g == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("geometry repair raised, excluding feature", zap.Any("error", r))
			fixed = nil
		}
	}()

	if g.IsValid() {
		return g
	}
	healed := g.Buffer(0, quadSegs)
	if healed == nil || healed.IsEmpty() || !healed.IsValid() {
		log.Warn("geometry could not be repaired (empty or still invalid after buffering)")
		return nil
	}
	return healed
}

// CloneValid returns a repaired clone, leaving the input untouched.
func CloneValid(g *geos.Geom, log *zap.Logger) *geos.Geom {
	if g == nil {
		return nil
	}
	return Fix(g.Clone(), log)
}
