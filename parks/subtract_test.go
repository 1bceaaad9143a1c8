package parks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

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

func TestSubtractNeverIncreasesArea(t *testing.T) {
	log := zap.NewNop()
	buffer := mustWKT(t, "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	park := mustWKT(t, "POLYGON((2 2, 6 2, 6 6, 2 6, 2 2))")

	out := SubtractParksFromGeom(buffer, []*geos.Geom{park}, log)
	if out == nil {
		t.Fatal("subtraction result should never be nil")
	}
	if out.Area() > buffer.Area() {
		t.Errorf("area grew: %v > %v", out.Area(), buffer.Area())
	}
	if want := buffer.Area() - park.Area(); out.Area() != want {
		t.Errorf("area = %v, want %v", out.Area(), want)
	}
}

func TestSubtractFullCoverageYieldsEmpty(t *testing.T) {
	buffer := mustWKT(t, "POLYGON((2 2, 4 2, 4 4, 2 4, 2 2))")
	park := mustWKT(t, "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")

	out := SubtractParksFromGeom(buffer, []*geos.Geom{park}, zap.NewNop())
	if out == nil || !out.IsEmpty() {
		t.Errorf("fully covered buffer should come out empty, got %v", out)
	}
	if out.Area() != 0 {
		t.Errorf("area = %v, want 0", out.Area())
	}
}

func TestSubtractNilBufferYieldsEmptyPolygon(t *testing.T) {
	out := SubtractParksFromGeom(nil, nil, zap.NewNop())
	if out == nil || !out.IsEmpty() {
		t.Error("nil buffer should yield an empty polygon")
	}
}

func TestSubtractNoParksIsIdentity(t *testing.T) {
	sub := &Subtractor{Log: zap.NewNop()}
	in := &layer.Layer{
		Name: "buffers",
		CRS:  "EPSG:32633",
		Features: []layer.FeatureRecord{
			{Name: "b1", Geom: mustWKT(t, "POLYGON((0 0, 5 0, 5 5, 0 5, 0 0))")},
		},
	}
	out, err := sub.Subtract(in, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Features) != 1 {
		t.Fatalf("feature count changed: %d", len(out.Features))
	}
	if !out.Features[0].Geom.EqualsExact(in.Features[0].Geom, 0) {
		t.Error("no-parks subtraction should not change geometry")
	}
	// The copy is deep: mutating the output must not touch the input.
	out.Features[0].Name = "changed"
	if in.Features[0].Name != "b1" {
		t.Error("Subtract should return an independent copy")
	}
}

const parksGeoJSON = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "EPSG:32633"}},
  "features": [
    {"type": "Feature", "properties": {"Name": "p1"},
     "geometry": {"type": "Polygon", "coordinates": [[[5,5],[25,5],[25,8],[5,8],[5,5]]]}},
    {"type": "Feature", "properties": {"Name": "p2"},
     "geometry": {"type": "Polygon", "coordinates": [[[45,-5],[55,-5],[55,15],[45,15],[45,-5]]]}}
  ]
}`

func TestSubtractSequentialParallelEquivalent(t *testing.T) {
	parksPath := filepath.Join(t.TempDir(), "parks.geojson")
	if err := os.WriteFile(parksPath, []byte(parksGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	buffers := func() *layer.Layer {
		return &layer.Layer{
			Name: "buffers",
			CRS:  "EPSG:32633",
			Features: []layer.FeatureRecord{
				{Name: "a", Geom: mustWKT(t, "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")},
				{Name: "b", Geom: mustWKT(t, "POLYGON((20 0, 30 0, 30 10, 20 10, 20 0))")},
				{Name: "c", Geom: mustWKT(t, "POLYGON((40 0, 50 0, 50 10, 40 10, 40 0))")},
			},
		}
	}

	runMode := func(parallel bool) *layer.Layer {
		s := &Subtractor{Log: zap.NewNop(), Workers: 4, Parallel: parallel}
		out, err := s.Subtract(buffers(), parksPath)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	serial := runMode(false)
	par := runMode(true)
	if len(serial.Features) != len(par.Features) {
		t.Fatalf("feature counts differ: %d vs %d", len(serial.Features), len(par.Features))
	}
	for i := range serial.Features {
		if !serial.Features[i].Geom.EqualsExact(par.Features[i].Geom, 1e-6) {
			t.Errorf("feature %d differs between modes", i)
		}
	}
	// The second buffer overlaps a park, so some area must have gone.
	if serial.Features[1].Geom.Area() >= 100 {
		t.Error("park overlap was not subtracted")
	}
}
