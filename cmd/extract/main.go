// Command extract runs one extraction: every configured (data type,
// parameter) target is written to its own CSV file in DAYMET_OUTPUT_DIR.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	csvadapter "github.com/couchcryptid/daymet-etl/internal/adapter/csv"
	gdaladapter "github.com/couchcryptid/daymet-etl/internal/adapter/gdal"
	httpadapter "github.com/couchcryptid/daymet-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/daymet-etl/internal/adapter/kafka"
	"github.com/couchcryptid/daymet-etl/internal/config"
	"github.com/couchcryptid/daymet-etl/internal/observability"
	"github.com/couchcryptid/daymet-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Completion notifications are feature-flagged via KAFKA_BROKERS.
	var notifier pipeline.Notifier
	if cfg.NotificationsEnabled() {
		n := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := n.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		notifier = n
		logger.Info("completion notifications enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("completion notifications disabled")
	}

	extractor := pipeline.New(
		gdaladapter.NewSource(),
		csvadapter.NewSink(cfg.OutputDir, cfg.Region),
		notifier,
		logger,
		metrics,
		pipeline.Options{
			DataDir:        cfg.DataDir,
			MaskPath:       cfg.MaskPath,
			Parameters:     cfg.Parameters,
			Taxonomy:       cfg.Taxonomy,
			FileExtensions: cfg.FileExtensions,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The HTTP server lives as long as the run.
	if cfg.HTTPAddr != "" {
		srvCtx, stopServer := context.WithCancel(ctx)
		srvDone := make(chan struct{})
		srv := httpadapter.NewServer(cfg.HTTPAddr, extractor, logger)
		go func() {
			defer close(srvDone)
			if err := srv.Serve(srvCtx, cfg.ShutdownTimeout); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			stopServer()
			<-srvDone
		}()
	}

	logger.Info("extraction starting",
		"data_dir", cfg.DataDir,
		"mask", cfg.MaskPath,
		"output_dir", cfg.OutputDir,
		"data_types", cfg.Taxonomy.String(),
		"parameters", cfg.Parameters,
	)
	summary, err := extractor.Run(ctx)
	for _, o := range summary.Outputs {
		logger.Info("output summary",
			"path", o.Path, "files", o.Files, "skipped", o.Skipped, "rows", o.Rows)
	}
	if err != nil {
		logger.Error("extraction failed", "error", err, "run_id", summary.RunID)
		return 1
	}
	return 0
}
