package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/config"
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

func newMerger() *Merger {
	return &Merger{Log: zap.NewNop(), Cfg: config.Default()}
}

func polygonLayer(t *testing.T, name string, wkts ...string) *layer.Layer {
	l := &layer.Layer{Name: name, CRS: "EPSG:32633"}
	for i, wkt := range wkts {
		l.Features = append(l.Features, layer.FeatureRecord{
			Name: name + string(rune('a'+i)),
			Geom: mustWKT(t, wkt),
		})
	}
	return l
}

func TestMergeEmptyBuffersLeavesPlanningUntouched(t *testing.T) {
	planning := polygonLayer(t, "plan", "POLYGON((0 0,1 0,1 1,0 1,0 0))")
	out, err := newMerger().MergeLayers(&layer.Layer{Name: "buffers"}, planning, 10)
	if err != nil {
		t.Fatal(err)
	}
	if out != planning || len(out.Features) != 1 {
		t.Error("empty buffer input should return the planning layer unchanged")
	}
}

func TestMergeRejectsNonArealBuffers(t *testing.T) {
	buffers := &layer.Layer{
		Name: "buffers",
		CRS:  "EPSG:32633",
		Features: []layer.FeatureRecord{
			{Name: "bad", Geom: mustWKT(t, "LINESTRING(0 0, 1 1)")},
		},
	}
	planning := polygonLayer(t, "plan", "POLYGON((0 0,1 0,1 1,0 1,0 0))")

	_, err := newMerger().MergeLayers(buffers, planning, 10)
	var schemaErr *layer.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("want SchemaError, got %v", err)
	}
	if !strings.Contains(err.Error(), "polygon or multipolygon") {
		t.Errorf("message %q should mention polygon or multipolygon", err.Error())
	}
}

func TestMergeRejectsMixedPlanningTypes(t *testing.T) {
	buffers := polygonLayer(t, "buffers", "POLYGON((10 10,12 10,12 12,10 12,10 10))")
	planning := &layer.Layer{
		Name: "plan",
		CRS:  "EPSG:32633",
		Features: []layer.FeatureRecord{
			{Name: "poly", Geom: mustWKT(t, "POLYGON((0 0,1 0,1 1,0 1,0 0))")},
			{Name: "pt", Geom: mustWKT(t, "POINT(5 5)")},
		},
	}

	_, err := newMerger().MergeLayers(buffers, planning, 10)
	var schemaErr *layer.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("want SchemaError, got %v", err)
	}
	if !strings.Contains(err.Error(), "mixed geometry types") {
		t.Errorf("message %q should mention mixed geometry types", err.Error())
	}
}

func TestMergeDefaultsCRSLessBuffersToBufferLayerCRS(t *testing.T) {
	m := newMerger()
	buffers := polygonLayer(t, "buffers", "POLYGON((10 10,12 10,12 12,10 12,10 10))")
	buffers.CRS = ""
	planning := polygonLayer(t, "plan", "POLYGON((0 0,1 0,1 1,0 1,0 0))")
	planning.CRS = m.Cfg.BufferLayerCRS

	out, err := m.MergeLayers(buffers, planning, 10)
	if err != nil {
		t.Fatal(err)
	}
	if buffers.CRS != m.Cfg.BufferLayerCRS {
		t.Errorf("buffer CRS = %q, want the buffer-layer default %q", buffers.CRS, m.Cfg.BufferLayerCRS)
	}
	if len(out.Features) != 2 {
		t.Errorf("merged feature count = %d, want 2", len(out.Features))
	}
}

func TestMergeAppendsBuffers(t *testing.T) {
	buffers := polygonLayer(t, "buffers",
		"POLYGON((10 10,12 10,12 12,10 12,10 10))",
		"POLYGON((20 20,22 20,22 22,20 22,20 20))")
	planning := polygonLayer(t, "plan", "POLYGON((0 0,1 0,1 1,0 1,0 0))")

	out, err := newMerger().MergeLayers(buffers, planning, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Features) != 3 {
		t.Errorf("merged feature count = %d, want 3", len(out.Features))
	}
	// Merging must not consume the buffer layer itself.
	if len(buffers.Features) != 2 {
		t.Error("buffer layer was mutated")
	}
}
