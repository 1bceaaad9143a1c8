package buffering

import (
	"testing"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/index"
	"github.com/gasline-tools/gispipeline/layer"
)

func mustWKT(t *testing.T, wkt string) *geos.Geom {
	t.Helper()
	g, err := geos.NewGeomFromWKT(wkt)
	if err != nil {
		t.Fatalf("parse %q: %v", wkt, err)
	}
	return g
}

func TestIntersectsAny(t *testing.T) {
	log := zap.NewNop()
	sources := []*geos.Geom{
		mustWKT(t, "LINESTRING(0 0, 10 0)"),
		mustWKT(t, "LINESTRING(100 100, 110 100)"),
	}
	idx := index.NewGridIndex(sources, 0)

	touching := mustWKT(t, "POLYGON((5 -1, 6 -1, 6 1, 5 1, 5 -1))")
	if !IntersectsAny(touching, sources, idx, log) {
		t.Error("buffer over the first line should intersect")
	}

	detached := mustWKT(t, "POLYGON((50 50, 51 50, 51 51, 50 51, 50 50))")
	if IntersectsAny(detached, sources, idx, log) {
		t.Error("detached buffer should not intersect")
	}

	if IntersectsAny(nil, sources, idx, log) {
		t.Error("nil buffer never intersects")
	}

	// The indexed and unindexed paths agree.
	if IntersectsAny(touching, sources, nil, log) != IntersectsAny(touching, sources, idx, log) {
		t.Error("index changed the outcome")
	}
}

func TestFilterIntersecting(t *testing.T) {
	sources := []*geos.Geom{mustWKT(t, "LINESTRING(0 0, 10 0)")}
	buffers := &layer.Layer{
		Name: "buffers",
		Features: []layer.FeatureRecord{
			{Name: "keep", Geom: mustWKT(t, "POLYGON((4 -1, 6 -1, 6 1, 4 1, 4 -1))")},
			{Name: "drop", Geom: mustWKT(t, "POLYGON((40 40, 42 40, 42 42, 40 42, 40 40))")},
		},
	}
	FilterIntersecting(buffers, sources, zap.NewNop())
	if len(buffers.Features) != 1 || buffers.Features[0].Name != "keep" {
		t.Errorf("wrong survivors: %+v", buffers.Features)
	}
}
