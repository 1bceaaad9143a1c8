package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/layer"
)

// FixLayerCRS tags a CRS-less file layer with the default CRS and writes
// it back. With overwriting disabled the result goes to a "_with_crs"
// sibling instead. A layer that already has a CRS is left alone; the
// returned path is whatever file now carries the CRS.
func (w *Writer) FixLayerCRS(path, def string) (string, error) {
	l, err := layer.ReadLayer(path)
	if err != nil {
		return "", fmt.Errorf("fix crs: %w", err)
	}
	if l.CRS != "" {
		w.Log.Info("layer already has a CRS",
			zap.String("path", path), zap.String("crs", crs.Normalize(l.CRS)))
		return path, nil
	}

	crs.AssignDefault(l, def, w.Log)
	target := path
	if !w.Overwrite {
		ext := filepath.Ext(path)
		target = strings.TrimSuffix(path, ext) + "_with_crs" + ext
	}
	if err := w.WriteLayer(l, target); err != nil {
		return "", fmt.Errorf("fix crs: %w", err)
	}
	return target, nil
}
