// Package output writes feature layers to disk: shapefile, GeoJSON, and
// CSV attribute export, plus a plain-text run summary. All writers honor
// the overwrite policy and dry-run mode.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/layer"
)

const dateLayout = "2006-01-02"

// Writer applies the write policy shared by every output format.
type Writer struct {
	Log *zap.Logger
	// Overwrite allows replacing an existing file. Without it an existing
	// path is an error, never a silent clobber.
	Overwrite bool
	// DryRun logs what would be written and touches nothing.
	DryRun bool
}

// WriteLayer writes the layer in the format matching the path extension.
// An empty layer is a logged no-op.
func (w *Writer) WriteLayer(l *layer.Layer, path string) error {
	if len(l.Features) == 0 {
		w.Log.Warn("layer is empty, nothing written",
			zap.String("layer", l.Name), zap.String("path", path))
		return nil
	}
	if w.DryRun {
		w.Log.Info("dry run, skipping write",
			zap.String("path", path), zap.Int("features", len(l.Features)))
		return nil
	}
	if err := w.checkTarget(path); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return writeShapefile(l, path)
	case ".geojson", ".json":
		return writeGeoJSON(l, path)
	case ".csv":
		return writeCSV(l, path)
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
}

func (w *Writer) checkTarget(path string) error {
	if _, err := os.Stat(path); err == nil && !w.Overwrite {
		return fmt.Errorf("output %s already exists and overwriting is disabled", path)
	}
	return nil
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
