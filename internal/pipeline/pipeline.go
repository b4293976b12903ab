// Package pipeline runs the extraction: discover rasters once, then for each
// (data type, parameter) target filter, order, reproject and write every file
// into one CSV output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/domain"
	"github.com/couchcryptid/daymet-etl/internal/observability"
	"github.com/google/uuid"
)

// Sink opens the output for one target. The header is the reference grid's
// point vector.
type Sink interface {
	Open(target domain.Target, header []float64) (domain.RowWriter, error)
}

// Notifier is told about every finished output.
type Notifier interface {
	Notify(ctx context.Context, report domain.OutputReport) error
}

// Options holds everything a run needs from configuration.
type Options struct {
	DataDir        string
	MaskPath       string
	Parameters     []string
	Taxonomy       domain.Taxonomy
	FileExtensions []string
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Outputs    []domain.OutputReport
}

// Files returns the number of files written across all outputs.
func (s Summary) Files() int {
	n := 0
	for _, o := range s.Outputs {
		n += o.Files
	}
	return n
}

// Skipped returns the number of files skipped across all outputs.
func (s Summary) Skipped() int {
	n := 0
	for _, o := range s.Outputs {
		n += o.Skipped
	}
	return n
}

// Rows returns the number of data rows written across all outputs.
func (s Summary) Rows() int {
	n := 0
	for _, o := range s.Outputs {
		n += o.Rows
	}
	return n
}

// Extractor orchestrates the extraction stages.
type Extractor struct {
	source   domain.RasterSource
	sink     Sink
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
	ready    atomic.Bool
}

// New creates an Extractor. Pass a nil notifier to disable completion
// notifications.
func New(source domain.RasterSource, sink Sink, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Extractor {
	return &Extractor{
		source:   source,
		sink:     sink,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// CheckReadiness returns nil once at least one output has been written.
func (e *Extractor) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("extractor has not written any output yet")
	}
	return nil
}

// Run performs one full extraction. A mask that cannot be loaded or an
// output that cannot be written ends the run with an error; failures of
// individual rasters are logged and skipped. The returned Summary covers
// every output completed before Run returned.
func (e *Extractor) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), StartedAt: domain.Now()}
	log := e.logger.With("run_id", summary.RunID)

	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	grid, err := domain.LoadReferenceGrid(e.source, e.opts.MaskPath)
	if err != nil {
		return summary, fmt.Errorf("load reference grid: %w", err)
	}
	log.Info("reference grid loaded", "path", e.opts.MaskPath,
		"width", grid.Width, "height", grid.Height, "points", grid.Points())

	records, err := domain.Discover(e.opts.DataDir, e.opts.FileExtensions)
	if err != nil {
		log.Warn("discovery failed, continuing with no files", "error", err)
	}
	summary.Discovered = len(records)
	log.Info("discovery complete", "root", e.opts.DataDir, "files", len(records))

	for _, dt := range e.opts.Taxonomy {
		for _, param := range e.opts.Parameters {
			target := domain.Target{DataType: dt, Parameter: param}
			report, err := e.runTarget(ctx, log, grid, records, target)
			if err != nil {
				summary.FinishedAt = domain.Now()
				return summary, err
			}
			report.RunID = summary.RunID
			summary.Outputs = append(summary.Outputs, report)
			e.ready.Store(true)
			e.metrics.OutputsWritten.Inc()
			e.notify(ctx, log, report)
		}
	}

	summary.FinishedAt = domain.Now()
	log.Info("run complete",
		"outputs", len(summary.Outputs),
		"files", summary.Files(),
		"skipped", summary.Skipped(),
		"rows", summary.Rows(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// runTarget writes one output file. The output is closed on every path.
func (e *Extractor) runTarget(ctx context.Context, log *slog.Logger, grid domain.ReferenceGrid, records []domain.FileRecord, target domain.Target) (report domain.OutputReport, err error) {
	report = domain.OutputReport{DataType: target.DataType.Name, Parameter: target.Parameter}
	log = log.With("data_type", target.DataType.Name, "parameter", target.Parameter)

	matched := domain.Filter(records, target.DataType.Markers, target.Parameter)
	entries, rejected := domain.Order(matched, target.DataType.Markers)
	for _, rerr := range rejected {
		e.skip(log, rerr)
		report.Skipped++
	}

	w, err := e.sink.Open(target, grid.Header)
	if err != nil {
		return report, fmt.Errorf("open output for %s %s: %w", target.DataType.Name, target.Parameter, err)
	}
	report.Path = w.Path()
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", report.Path, cerr)
		}
	}()
	log.Info("writing output", "path", report.Path, "files", len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path := entry.Record.Path()
		log.Debug("processing file", "path", path, "key", entry.Key.String())

		rows, ferr := e.extractFile(entry.Record, target, grid)
		if ferr != nil {
			e.skip(log.With("path", path), ferr)
			report.Skipped++
			continue
		}
		for _, row := range rows {
			if err := w.WriteRow(row); err != nil {
				return report, fmt.Errorf("write %s: %w", report.Path, err)
			}
		}
		report.Files++
		report.Rows += len(rows)
		e.metrics.FilesProcessed.Inc()
		e.metrics.RowsWritten.Add(float64(len(rows)))
	}

	report.FinishedAt = domain.Now()
	log.Info("output complete", "path", report.Path,
		"files", report.Files, "skipped", report.Skipped, "rows", report.Rows)
	return report, nil
}

// extractFile reprojects one raster and returns all of its rows, or none.
func (e *Extractor) extractFile(rec domain.FileRecord, target domain.Target, grid domain.ReferenceGrid) ([]domain.OutputRow, error) {
	start := time.Now()
	r, err := e.source.Reproject(rec.Path(), grid)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	e.metrics.ReprojectDuration.Observe(time.Since(start).Seconds())

	return domain.ExtractRows(r, rec, target.DataType, target.Parameter, grid.Points())
}

func (e *Extractor) skip(log *slog.Logger, err error) {
	reason := skipReason(err)
	log.Warn("file skipped", "reason", reason, "error", err)
	e.metrics.FilesSkipped.WithLabelValues(reason).Inc()
}

func (e *Extractor) notify(ctx context.Context, log *slog.Logger, report domain.OutputReport) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, report); err != nil {
		log.Warn("completion notification failed", "path", report.Path, "error", err)
	}
}

// skipReason maps a per-file error to the files_skipped_total reason label.
func skipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrYearMissing):
		return "year"
	case errors.Is(err, domain.ErrProjection):
		return "projection"
	case errors.Is(err, domain.ErrBandCount):
		return "bands"
	case errors.Is(err, domain.ErrGridMismatch):
		return "grid"
	case errors.Is(err, domain.ErrRasterOpen):
		return "open"
	default:
		return "other"
	}
}
