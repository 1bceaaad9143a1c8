package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/layer"
)

// writeGeoJSON writes the layer as a feature collection. The layer CRS,
// when present, is recorded in the named-CRS member so a round trip
// through ReadLayer preserves it.
func writeGeoJSON(l *layer.Layer, path string) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.Features {
		geom, err := layer.GeosToOrb(f.Geom)
		if err != nil {
			return fmt.Errorf("layer %s feature %q: %w", l.Name, f.Name, err)
		}
		feat := geojson.NewFeature(geom)
		feat.Properties = geojson.Properties{
			"Name":     f.Name,
			"Date":     dateString(f.Date),
			"PSI":      f.PSI,
			"Material": f.Material,
		}
		fc.Append(feat)
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if l.CRS != "" {
		raw, err = injectCRS(raw, crs.Normalize(l.CRS))
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// injectCRS adds the legacy named-CRS member, which orb does not model.
func injectCRS(fcJSON []byte, code string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(fcJSON, &doc); err != nil {
		return nil, err
	}
	member, err := json.Marshal(map[string]interface{}{
		"type":       "name",
		"properties": map[string]string{"name": code},
	})
	if err != nil {
		return nil, err
	}
	doc["crs"] = member
	return json.Marshal(doc)
}
