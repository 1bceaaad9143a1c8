package layer

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"
)

// GeosToOrb converts an engine geometry to an orb geometry through its
// GeoJSON encoding.
func GeosToOrb(g *geos.Geom) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	gj, err := geojson.UnmarshalGeometry([]byte(g.ToGeoJSON(-1)))
	if err != nil {
		return nil, err
	}
	return gj.Geometry(), nil
}

// OrbToGeos converts an orb geometry to an engine geometry through its
// GeoJSON encoding.
func OrbToGeos(g orb.Geometry) (*geos.Geom, error) {
	if g == nil {
		return nil, nil
	}
	raw, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return geos.NewGeomFromGeoJSON(string(raw))
}
