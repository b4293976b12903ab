// Package csv writes extraction rows as the Daymet point-table CSV layout.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/daymet-etl/internal/domain"
)

// Sink creates one CSV file per target in Dir.
// It implements pipeline.Sink.
type Sink struct {
	Dir    string
	Region string
}

// NewSink creates a Sink writing into dir.
func NewSink(dir, region string) *Sink {
	return &Sink{Dir: dir, Region: region}
}

// Open creates (or truncates) the target's file and writes its header.
func (s *Sink) Open(target domain.Target, header []float64) (domain.RowWriter, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return Create(filepath.Join(s.Dir, target.FileName(s.Region)), target.DataType.IsDaily(), header)
}

// Writer streams rows to a single CSV file. Every row must carry exactly
// as many values as the header has points.
type Writer struct {
	path   string
	file   *os.File
	csv    *csv.Writer
	points int
	rows   int
	closed bool
}

// Create opens path for writing and emits the header line:
// "point number ->", then "month,year" for daily output, then the points.
func Create(path string, daily bool, header []float64) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w := &Writer{path: path, file: f, csv: csv.NewWriter(f), points: len(header)}

	record := make([]string, 0, len(header)+3)
	record = append(record, "point number ->")
	if daily {
		record = append(record, "month", "year")
	}
	for _, p := range header {
		record = append(record, domain.FormatPoint(p))
	}
	if err := w.csv.Write(record); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return w, nil
}

// Path returns the file being written.
func (w *Writer) Path() string { return w.path }

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int { return w.rows }

// WriteRow appends one labelled row.
func (w *Writer) WriteRow(row domain.OutputRow) error {
	if w.closed {
		return errors.New("write to closed csv writer")
	}
	if len(row.Values) != w.points {
		return fmt.Errorf("%w: row has %d values, header has %d", domain.ErrGridMismatch, len(row.Values), w.points)
	}

	if err := w.csv.Write(row.Fields()); err != nil {
		return fmt.Errorf("write row %s: %w", w.path, err)
	}
	w.rows++
	return nil
}

// Close flushes buffered rows and closes the file. It is safe to call more
// than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", w.path, flushErr)
	}
	return closeErr
}
