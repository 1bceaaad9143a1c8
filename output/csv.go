package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/gasline-tools/gispipeline/layer"
)

// writeCSV exports the attribute table with a WKT geometry column, for
// review in spreadsheet tools.
func writeCSV(l *layer.Layer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Name", "Date", "PSI", "Material", "Geometry"}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, rec := range l.Features {
		wkt := ""
		if rec.Geom != nil {
			wkt = rec.Geom.ToWKT()
		}
		row := []string{
			rec.Name,
			dateString(rec.Date),
			strconv.FormatFloat(rec.PSI, 'f', -1, 64),
			rec.Material,
			wkt,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
