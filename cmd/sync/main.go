// Command sync mirrors the Daymet THREDDS collections into DAYMET_DATA_DIR.
// With DOWNLOAD_SCHEDULE unset it makes one pass and exits; otherwise it
// runs a pass on every tick of the cron schedule until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/daymet-etl/internal/adapter/http"
	"github.com/couchcryptid/daymet-etl/internal/adapter/thredds"
	"github.com/couchcryptid/daymet-etl/internal/config"
	"github.com/couchcryptid/daymet-etl/internal/mirror"
	"github.com/couchcryptid/daymet-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
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

	syncer := mirror.New(
		thredds.NewClient(cfg.DownloadTimeout, logger),
		clockwork.NewRealClock(),
		logger,
		metrics,
		mirror.Options{
			BaseURL:    cfg.BaseURL,
			DataDir:    cfg.DataDir,
			StartYear:  cfg.StartYear,
			EndYear:    cfg.EndYear,
			Daily:      cfg.DailyParameters,
			Aggregate:  cfg.AggregateParameters,
			Retries:    cfg.DownloadRetries,
			RetrySleep: cfg.DownloadRetrySleep,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DownloadSchedule == "" {
		return runOnce(ctx, syncer, logger)
	}

	// A pass can outlast the schedule interval; overlapping ticks are dropped.
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := sched.AddFunc(cfg.DownloadSchedule, func() {
		runOnce(ctx, syncer, logger)
	}); err != nil {
		logger.Error("invalid DOWNLOAD_SCHEDULE", "schedule", cfg.DownloadSchedule, "error", err)
		return 1
	}

	srvDone := make(chan struct{})
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, syncer, logger)
		go func() {
			defer close(srvDone)
			if err := srv.Serve(ctx, cfg.ShutdownTimeout); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()
	} else {
		close(srvDone)
	}

	sched.Start()
	logger.Info("sync scheduled", "schedule", cfg.DownloadSchedule)

	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for a running pass to observe cancellation and return.
	<-sched.Stop().Done()
	<-srvDone
	logger.Info("shutdown complete")
	return 0
}

// runOnce performs one pass and returns the process exit code.
func runOnce(ctx context.Context, syncer *mirror.Syncer, logger *slog.Logger) int {
	res, err := syncer.Run(ctx)
	if err != nil {
		logger.Warn("sync interrupted", "error", err, "result", res.String())
		return 1
	}
	if res.Failed > 0 {
		logger.Error("sync finished with failures", "result", res.String())
		return 1
	}
	return 0
}
