package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/layer"
)

// Report is one inspection report file, loaded and split by kind: GeoJSON
// reports carry a feature layer plus the raw property maps for the schema
// check, text reports carry their non-empty lines.
type Report struct {
	Name  string
	Path  string
	Layer *layer.Layer
	Props []map[string]interface{}
	Lines []string
}

// IsGeoJSON reports the kind of the report.
func (r *Report) IsGeoJSON() bool { return r.Layer != nil }

// FindNewReports scans a folder for .txt and .geojson report files not
// yet in the processed set, sorted by name for deterministic runs.
func FindNewReports(dir string, processed *ProcessedSet) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan report folder %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".geojson":
			if !processed.Has(e.Name()) {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadReports loads the named report files from dir. Unreadable or empty
// reports are logged and skipped, never fatal to the batch.
func ReadReports(dir string, names []string, log *zap.Logger) []Report {
	var out []Report
	for _, name := range names {
		path := filepath.Join(dir, name)
		var (
			rep *Report
			err error
		)
		if strings.EqualFold(filepath.Ext(name), ".geojson") {
			rep, err = readGeoJSONReport(name, path)
		} else {
			rep, err = readTxtReport(name, path)
		}
		if err != nil {
			log.Warn("skipping unreadable report", zap.String("report", name), zap.Error(err))
			continue
		}
		if rep == nil {
			log.Warn("skipping empty report", zap.String("report", name))
			continue
		}
		out = append(out, *rep)
	}
	return out
}

func readTxtReport(name, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return &Report{Name: name, Path: path, Lines: lines}, nil
}

func readGeoJSONReport(name, path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	// orb drops the non-standard crs member, so pull it out separately.
	var crsDoc struct {
		CRS *struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
	}
	if err := json.Unmarshal(raw, &crsDoc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	rep := &Report{
		Name:  name,
		Path:  path,
		Layer: &layer.Layer{Name: name},
	}
	if crsDoc.CRS != nil {
		rep.Layer.CRS = crsDoc.CRS.Properties.Name
	}
	for i, f := range fc.Features {
		geom, err := layer.OrbToGeos(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%s feature %d: %w", name, i, err)
		}
		rec := layer.FeatureRecord{Geom: geom}
		if v, ok := f.Properties["Name"].(string); ok {
			rec.Name = v
		}
		if v, ok := f.Properties["Material"].(string); ok {
			rec.Material = v
		}
		if v, ok := f.Properties["PSI"].(float64); ok {
			rec.PSI = v
		}
		if v, ok := f.Properties["Date"].(string); ok {
			rec.Date = ParseReportDate(v)
		}
		rep.Layer.Features = append(rep.Layer.Features, rec)
		rep.Props = append(rep.Props, map[string]interface{}(f.Properties))
	}
	return rep, nil
}
