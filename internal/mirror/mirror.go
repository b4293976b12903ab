// Package mirror keeps a local copy of the Daymet THREDDS collections laid
// out the way the extractor discovers them.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/domain"
	"github.com/couchcryptid/daymet-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher downloads one remote file to dest.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Options selects what to mirror and how hard to try.
type Options struct {
	BaseURL    string
	DataDir    string
	StartYear  int
	EndYear    int // exclusive
	Daily      []string
	Aggregate  []string
	Retries    int
	RetrySleep time.Duration
}

// Result counts the outcome of one pass over the catalog.
type Result struct {
	Downloaded int
	Existing   int
	NotFound   int
	Failed     int
	Bytes      int64
}

// Syncer downloads every catalog file that is not yet present locally.
type Syncer struct {
	fetcher Fetcher
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	ready   atomic.Bool
}

// New creates a Syncer. The clock drives retry sleeps.
func New(fetcher Fetcher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness returns nil once a full pass over the catalog has finished.
func (s *Syncer) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("sync has not completed a pass yet")
	}
	return nil
}

// Run walks years [StartYear, EndYear) in order. Existing files are left
// alone, missing remote files are skipped, and other failures are retried
// up to Options.Retries times before being counted as failed. Run only
// returns an error when ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var res Result
	s.logger.Info("sync started", "start_year", s.opts.StartYear, "end_year", s.opts.EndYear, "base_url", s.opts.BaseURL)

	for year := s.opts.StartYear; year < s.opts.EndYear; year++ {
		for _, f := range domain.RemoteCatalog(s.opts.BaseURL, s.opts.DataDir, year, s.opts.Daily, s.opts.Aggregate) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := s.syncFile(ctx, f, &res); err != nil {
				return res, err
			}
		}
	}

	s.logger.Info("sync complete",
		"downloaded", res.Downloaded,
		"existing", res.Existing,
		"not_found", res.NotFound,
		"failed", res.Failed,
		"bytes", res.Bytes,
	)
	s.ready.Store(true)
	return res, nil
}

// syncFile handles one remote file. It returns an error only on
// cancellation.
func (s *Syncer) syncFile(ctx context.Context, f domain.RemoteFile, res *Result) error {
	log := s.logger.With("year", f.Year, "kind", string(f.Kind), "parameter", f.Parameter, "path", f.Path)

	if _, err := os.Stat(f.Path); err == nil {
		log.Debug("skipping existing file")
		res.Existing++
		s.metrics.Downloads.WithLabelValues("skipped").Inc()
		return nil
	}

	backoff := s.opts.RetrySleep
	maxBackoff := 8 * s.opts.RetrySleep

	for attempt := 0; ; attempt++ {
		log.Info("downloading", "url", f.URL, "attempt", attempt+1)
		n, err := s.fetcher.Download(ctx, f.URL, f.Path)
		switch {
		case err == nil:
			res.Downloaded++
			res.Bytes += n
			s.metrics.Downloads.WithLabelValues("downloaded").Inc()
			s.metrics.DownloadBytes.Add(float64(n))
			return nil
		case errors.Is(err, domain.ErrRemoteNotFound):
			log.Warn("remote file not found", "url", f.URL)
			res.NotFound++
			s.metrics.Downloads.WithLabelValues("not_found").Inc()
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		if attempt >= s.opts.Retries {
			log.Error("download failed, giving up", "url", f.URL, "attempts", attempt+1, "error", err)
			res.Failed++
			s.metrics.Downloads.WithLabelValues("failed").Inc()
			return nil
		}

		log.Warn("download failed, retrying", "url", f.URL, "error", err, "backoff", backoff)
		if !s.sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (s *Syncer) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

// String formats a result for log lines and command output.
func (r Result) String() string {
	return fmt.Sprintf("downloaded=%d existing=%d not_found=%d failed=%d bytes=%d",
		r.Downloaded, r.Existing, r.NotFound, r.Failed, r.Bytes)
}
