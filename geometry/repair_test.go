package geometry

import (
	"testing"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

func mustWKT(t *testing.T, wkt string) *geos.Geom {
	t.Helper()
	g, err := geos.NewGeomFromWKT(wkt)
	if err != nil {
		t.Fatalf("parse %q: %v", wkt, err)
	}
	return g
}

func TestFixNil(t *testing.T) {
	if Fix(nil, zap.NewNop()) != nil {
		t.Error("Fix(nil) should be nil")
	}
}

func TestFixValidUnchanged(t *testing.T) {
	g := mustWKT(t, "POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))")
	if Fix(g, zap.NewNop()) != g {
		t.Error("valid geometry should pass through unchanged")
	}
}

func TestFixSelfIntersection(t *testing.T) {
	log := zap.NewNop()
	bowtie := mustWKT(t, "POLYGON((0 0, 2 2, 2 0, 0 2, 0 0))")
	fixed := Fix(bowtie, log)
	if fixed == nil {
		t.Fatal("bowtie should be repairable")
	}
	if !fixed.IsValid() {
		t.Error("repaired geometry should be valid")
	}
	// Idempotent: repairing again changes nothing.
	again := Fix(fixed, log)
	if again != fixed {
		t.Error("repairing a repaired geometry should be a no-op")
	}
}

func TestBufferMonotonicity(t *testing.T) {
	log := zap.NewNop()
	line := mustWKT(t, "LINESTRING(0 0, 10 0)")
	small := Buffer(line, 1, log)
	large := Buffer(line, 5, log)
	if small == nil || large == nil {
		t.Fatal("buffering a clean line should succeed")
	}
	if !large.Contains(small) {
		t.Error("larger buffer should contain the smaller one")
	}
	if !small.Contains(line) {
		t.Error("buffer should contain its source line")
	}
}

func TestBufferNil(t *testing.T) {
	if Buffer(nil, 5, zap.NewNop()) != nil {
		t.Error("Buffer(nil) should be nil")
	}
}

func TestFeetToMeters(t *testing.T) {
	if got := FeetToMeters(25); got != 7.62 {
		t.Errorf("FeetToMeters(25) = %v, want 7.62", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(mustWKT(t, "POINT(1 2)")) {
		t.Error("finite point misreported")
	}
	if !IsFinite(mustWKT(t, "MULTIPOLYGON(((0 0,1 0,1 1,0 1,0 0)),((2 2,3 2,3 3,2 3,2 2)))")) {
		t.Error("finite multipolygon misreported")
	}
	if IsFinite(nil) {
		t.Error("nil is not finite")
	}
}
