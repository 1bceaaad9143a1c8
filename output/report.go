package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RunSummary collects the counters a pipeline run reports at the end.
type RunSummary struct {
	Started        time.Time
	Finished       time.Time
	ReportsFound   int
	ReportsSkipped int
	FeaturesAdded  int
	BuffersWritten int
	Outputs        []string
}

// WriteSummary writes a plain-text run report. Honors dry-run.
func (w *Writer) WriteSummary(s RunSummary, path string) error {
	if w.DryRun {
		w.Log.Info("dry run, skipping summary", zap.String("path", path))
		return nil
	}
	if err := w.checkTarget(path); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "pipeline run %s\n", s.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %s\n", s.Finished.Sub(s.Started).Round(time.Millisecond))
	fmt.Fprintf(&b, "reports found: %d (skipped: %d)\n", s.ReportsFound, s.ReportsSkipped)
	fmt.Fprintf(&b, "features added: %d\n", s.FeaturesAdded)
	fmt.Fprintf(&b, "buffers written: %d\n", s.BuffersWritten)
	for _, out := range s.Outputs {
		fmt.Fprintf(&b, "output: %s\n", out)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}
