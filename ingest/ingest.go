// Package ingest turns inspection reports into canonical pipeline
// features: discovery, parsing, per-report idempotence, and forwarding to
// an optional document sink.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/layer"
)

// FeatureSink receives every accepted feature record. Implemented by the
// Mongo collection wrapper; nil means no persistence.
type FeatureSink interface {
	UpsertFeature(ctx context.Context, rec layer.FeatureRecord, sourceCRS string) error
}

var requiredProps = []string{"Name", "Date", "PSI", "Material"}

// Ingestor converts loaded reports into features on a gas-lines layer.
type Ingestor struct {
	Log  *zap.Logger
	Sink FeatureSink
}

// CreatePipelineFeatures appends one feature per new pipeline record to
// gas, which must already be in targetCRS. Reports in the processed set
// are skipped; handled reports (including ones rejected for schema) are
// marked processed so a rerun is a no-op. Pipeline names are deduplicated
// across the whole call, first occurrence wins. Returns whether any
// feature was added. A sink failure stops the call but leaves already
// appended features in place.
func (ing *Ingestor) CreatePipelineFeatures(ctx context.Context, reports []Report, gas *layer.Layer, targetCRS string, processed *ProcessedSet) (bool, error) {
	seen := make(map[string]bool, len(gas.Features))
	for _, f := range gas.Features {
		seen[f.Name] = true
	}

	added := false
	for i := range reports {
		rep := &reports[i]
		if processed.Has(rep.Name) {
			ing.Log.Info("report already processed, skipping", zap.String("report", rep.Name))
			continue
		}

		var (
			records []layer.FeatureRecord
			err     error
		)
		if rep.IsGeoJSON() {
			records, err = ing.geojsonRecords(rep, targetCRS)
		} else {
			records = ing.txtRecords(rep)
		}
		if err != nil {
			return added, err
		}

		for _, rec := range records {
			if seen[rec.Name] {
				ing.Log.Info("pipeline already known, skipping record",
					zap.String("report", rep.Name), zap.String("name", rec.Name))
				continue
			}
			seen[rec.Name] = true
			gas.Features = append(gas.Features, rec)
			added = true
			if ing.Sink != nil {
				if err := ing.Sink.UpsertFeature(ctx, rec, targetCRS); err != nil {
					return added, fmt.Errorf("persist feature %q: %w", rec.Name, err)
				}
			}
		}
		processed.Mark(rep.Name)
	}
	return added, nil
}

// geojsonRecords validates and reconciles a GeoJSON report. A report
// without a CRS is fatal; a report missing required properties is logged,
// rejected, and marked processed by the caller with zero records.
func (ing *Ingestor) geojsonRecords(rep *Report, targetCRS string) ([]layer.FeatureRecord, error) {
	if rep.Layer.CRS == "" {
		return nil, &crs.MissingCRSError{Dataset: rep.Name}
	}
	if missing := missingProps(rep.Props); len(missing) > 0 {
		ing.Log.Error("report missing required fields, rejecting",
			zap.String("report", rep.Name), zap.Strings("missing", missing))
		return nil, nil
	}
	if err := crs.Reconcile(rep.Layer, targetCRS, ing.Log); err != nil {
		return nil, fmt.Errorf("report %s: %w", rep.Name, err)
	}

	out := make([]layer.FeatureRecord, 0, len(rep.Layer.Features))
	for _, f := range rep.Layer.Features {
		f.Material = strings.ToLower(f.Material)
		out = append(out, f)
	}
	return out, nil
}

// missingProps returns the required properties absent from every feature
// of the report, sorted.
func missingProps(props []map[string]interface{}) []string {
	present := make(map[string]bool)
	for _, p := range props {
		for k := range p {
			present[k] = true
		}
	}
	var missing []string
	for _, name := range requiredProps {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// txtRecords parses a text report line by line. Bad lines are warned
// about and skipped, never fatal; coordinates are taken to be in the gas
// layer's CRS.
func (ing *Ingestor) txtRecords(rep *Report) []layer.FeatureRecord {
	lines := rep.Lines
	if len(lines) > 0 && isHeaderLine(lines[0]) {
		lines = lines[1:]
	}

	var out []layer.FeatureRecord
	for n, line := range lines {
		rec, issue := ParseLine(n+1, line)
		if issue != nil {
			ing.Log.Warn("skipping malformed report line",
				zap.String("report", rep.Name),
				zap.Int("line", issue.Line), zap.String("reason", issue.Reason))
			continue
		}
		out = append(out, layer.FeatureRecord{
			Name:     rec.Name,
			Date:     rec.Date,
			PSI:      rec.PSI,
			Material: rec.Material,
			Geom:     geos.NewPoint([]float64{rec.X, rec.Y}),
		})
	}
	return out
}
