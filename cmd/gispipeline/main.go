// Command gispipeline ingests pipeline inspection reports, builds
// exclusion buffers around the gas lines, and merges the result into the
// municipal future-development planning layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tj/go-spin"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/buffering"
	"github.com/gasline-tools/gispipeline/config"
	"github.com/gasline-tools/gispipeline/dbase"
	"github.com/gasline-tools/gispipeline/ingest"
	"github.com/gasline-tools/gispipeline/layer"
	"github.com/gasline-tools/gispipeline/merge"
	"github.com/gasline-tools/gispipeline/output"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gispipeline:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "config.yaml", "configuration file")
		reportsDir   = flag.String("reports", "reports", "folder scanned for .txt/.geojson reports")
		gasLinesPath = flag.String("gas-lines", "", "gas lines layer (.shp or .geojson)")
		parksPath    = flag.String("parks", "", "park layer to subtract (optional)")
		planningPath = flag.String("planning", "", "future development layer to merge into (optional)")
		outPath      = flag.String("out", "", "buffer layer output path (default buffers.<configured format>)")
		statePath    = flag.String("state", "processed_reports.txt", "processed-report state file")
		summaryPath  = flag.String("summary", "", "plain-text run summary (optional)")
		bufferFt     = flag.Float64("buffer-ft", 0, "buffer distance in feet (overrides config)")
		parallel     = flag.Bool("parallel", false, "process buffers in parallel")
		dryRun       = flag.Bool("dry-run", false, "log writes without touching any file")
	)
	flag.Parse()

	if *gasLinesPath == "" {
		return fmt.Errorf("-gas-lines is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *bufferFt > 0 {
		cfg.BufferDistanceFt = *bufferFt
	}
	if *parallel {
		cfg.Parallel = true
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *outPath == "" {
		*outPath = "buffers" + cfg.OutputExtension()
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	processed, err := ingest.LoadProcessedSet(*statePath)
	if err != nil {
		return err
	}

	names, err := ingest.FindNewReports(*reportsDir, processed)
	if err != nil {
		return err
	}
	reports := ingest.ReadReports(*reportsDir, names, log)
	log.Info("reports discovered",
		zap.Int("new", len(names)), zap.Int("readable", len(reports)))

	var sink ingest.FeatureSink
	if cfg.UseMongoDB {
		client, err := dbase.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)
		mongoSink, err := dbase.NewSink(ctx, client, cfg, log)
		if err != nil {
			return err
		}
		sink = mongoSink
	}

	gas, err := layer.ReadLayer(*gasLinesPath)
	if err != nil {
		return fmt.Errorf("load gas lines: %w", err)
	}

	ing := &ingest.Ingestor{Log: log, Sink: sink}
	featuresBefore := len(gas.Features)
	added, err := ing.CreatePipelineFeatures(ctx, reports, gas, cfg.DefaultCRS, processed)
	if err != nil {
		return err
	}
	if added {
		writer := &output.Writer{Log: log, Overwrite: true, DryRun: cfg.DryRun}
		if err := writer.WriteLayer(gas, *gasLinesPath); err != nil {
			return err
		}
	}

	builder := &buffering.Builder{Log: log, Cfg: cfg}
	buffers, err := withSpinner("building buffers", func() (*layer.Layer, error) {
		return builder.BufferLayer(gas, cfg.BufferDistanceFt, *parksPath)
	})
	if err != nil {
		return err
	}
	log.Info("buffers built", zap.Int("count", len(buffers.Features)))

	writer := &output.Writer{Log: log, Overwrite: cfg.AllowOverwriteOutput, DryRun: cfg.DryRun}
	if err := writer.WriteLayer(buffers, *outPath); err != nil {
		return err
	}

	if *planningPath != "" {
		merger := &merge.Merger{Log: log, Cfg: cfg}
		if _, err := merger.MergeBuffersIntoPlanning(buffers, *planningPath, cfg.PointBufferDistance); err != nil {
			return err
		}
	}

	if err := processed.Save(*statePath); err != nil {
		return err
	}

	if *summaryPath != "" {
		summary := output.RunSummary{
			Started:        started,
			Finished:       time.Now(),
			ReportsFound:   len(names),
			ReportsSkipped: len(names) - len(reports),
			FeaturesAdded:  len(gas.Features) - featuresBefore,
			BuffersWritten: len(buffers.Features),
			Outputs:        []string{*outPath},
		}
		if err := writer.WriteSummary(summary, *summaryPath); err != nil {
			return err
		}
	}
	return nil
}

// withSpinner runs fn while animating a terminal spinner.
func withSpinner(label string, fn func() (*layer.Layer, error)) (*layer.Layer, error) {
	done := make(chan struct{})
	go func() {
		s := spin.New()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Printf("\r%s done\n", label)
				return
			case <-ticker.C:
				fmt.Printf("\r%s %s", label, s.Next())
			}
		}
	}()
	l, err := fn()
	close(done)
	return l, err
}
