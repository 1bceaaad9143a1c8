package buffering

import (
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/index"
	"github.com/gasline-tools/gispipeline/layer"
)

// IntersectsAny reports whether the buffer touches at least one source
// geometry. The grid index prefilters by bounds; if the indexed path
// fails for any reason the whole source set is tested brute force, with
// an identical boolean outcome.
func IntersectsAny(buffer *geos.Geom, sources []*geos.Geom, idx *index.GridIndex, log *zap.Logger) bool {
	if buffer == nil || buffer.IsEmpty() {
		return false
	}
	if idx != nil {
		hit, ok := indexedIntersects(buffer, sources, idx, log)
		if ok {
			return hit
		}
	}
	for _, src := range sources {
		if src != nil && !src.IsEmpty() && safeIntersects(buffer, src) {
			return true
		}
	}
	return false
}

func indexedIntersects(buffer *geos.Geom, sources []*geos.Geom, idx *index.GridIndex, log *zap.Logger) (hit, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("indexed intersection test raised, falling back to full scan",
				zap.Any("error", r))
			hit, ok = false, false
		}
	}()
	for _, i := range idx.Query(buffer) {
		src := sources[i]
		if src != nil && !src.IsEmpty() && buffer.Intersects(src) {
			return true, true
		}
	}
	return false, true
}

func safeIntersects(a, b *geos.Geom) (hit bool) {
	defer func() {
		if recover() != nil {
			hit = false
		}
	}()
	return a.Intersects(b)
}

// FilterIntersecting keeps only the buffer features that still touch a
// source gas line, preserving order.
func FilterIntersecting(buffers *layer.Layer, sources []*geos.Geom, log *zap.Logger) {
	idx := index.NewGridIndex(sources, 0)
	kept := buffers.Features[:0]
	for _, f := range buffers.Features {
		if IntersectsAny(f.Geom, sources, idx, log) {
			kept = append(kept, f)
		} else {
			log.Warn("dropping buffer detached from every gas line",
				zap.String("name", f.Name))
		}
	}
	buffers.Features = kept
}
