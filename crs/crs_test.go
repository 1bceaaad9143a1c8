package crs

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"EPSG:4326", "EPSG:4326"},
		{"epsg:4326", "EPSG:4326"},
		{" epsg:32633 ", "EPSG:32633"},
		{"4326", "EPSG:4326"},
		{"urn:ogc:def:crs:EPSG::4326", "EPSG:4326"},
		{"urn:ogc:def:crs:EPSG:9.9.1:32610", "EPSG:32610"},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", "EPSG:4326"},
		{"CRS84", "EPSG:4326"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("epsg:4326", "urn:ogc:def:crs:EPSG::4326") {
		t.Error("equivalent spellings should compare equal")
	}
	if Equal("EPSG:4326", "EPSG:3857") {
		t.Error("different systems should not compare equal")
	}
}

func TestIsGeographic(t *testing.T) {
	if !IsGeographic("epsg:4326") {
		t.Error("EPSG:4326 is geographic")
	}
	if IsGeographic("EPSG:32633") {
		t.Error("EPSG:32633 is projected")
	}
}

func TestMissingCRSError(t *testing.T) {
	err := &MissingCRSError{Dataset: "parks"}
	want := `dataset "parks" is missing a CRS`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
