// Package csv writes normalized rows to a CSV file.
//
// # Output format
//
//   - Header row: sorted union of every row's keys
//   - One data row per input row, in input order
//   - Missing columns are empty; strings pass through, other values are compact JSON
//   - RFC 4180 quoting, CRLF line endings, UTF-8, comma delimiter
//   - Optional compression of the whole stream (gzip, zstd, snappy, s2, lz4)
//
// # Atomicity
//
// Rows are written to a temporary file in the destination directory. The
// temporary file is renamed over the destination only after it has been
// flushed, synced and closed, so a failed write never leaves a partial CSV
// behind and an existing destination stays untouched.
//
// # Example Usage
//
//	w := csv.NewWriter(logger, csv.WithCompression(compression.Gzip, compression.Default))
//	result, err := w.Write(ctx, rows, "out/data.csv.gz", 0)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Wrote %d rows to %s\n", result.RowsWritten, result.Path)
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fetchcsv/pkg/compression"
	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
	"github.com/ajitpratap0/fetchcsv/pkg/metrics"
	"github.com/ajitpratap0/fetchcsv/pkg/models"
	"github.com/ajitpratap0/fetchcsv/pkg/observability"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// WriteResult describes a completed write
type WriteResult struct {
	RowsWritten int
	Path        string
	Header      []string
}

// Writer serializes rows to CSV
type Writer struct {
	logger               *zap.Logger
	metrics              *metrics.Collector
	tracer               trace.Tracer
	compressionAlgorithm compression.Algorithm
	compressionLevel     compression.Level
}

// Option configures a Writer
type Option func(*Writer)

// WithCompression compresses the CSV stream with alg
func WithCompression(alg compression.Algorithm, level compression.Level) Option {
	return func(w *Writer) {
		w.compressionAlgorithm = alg
		w.compressionLevel = level
	}
}

// WithMetrics counts written rows on collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(w *Writer) { w.metrics = collector }
}

// WithTracer records a span per write
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Writer) { w.tracer = tracer }
}

// NewWriter creates a Writer. Without options it writes plain CSV.
func NewWriter(logger *zap.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		logger:               logger.With(zap.String("component", "csv_writer")),
		tracer:               noop.NewTracerProvider().Tracer(observability.TracerName),
		compressionAlgorithm: compression.None,
		compressionLevel:     compression.Default,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Header returns the sorted union of the keys of rows
func Header(rows []models.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}

	header := make([]string, 0, len(seen))
	for key := range seen {
		header = append(header, key)
	}
	sort.Strings(header)
	return header
}

// Write writes at most maxRows rows to path; maxRows of 0 means all rows.
// It fails with ErrorTypeEmptyResult when nothing would be written and with
// ErrorTypeIO when the destination cannot be produced.
func (w *Writer) Write(ctx context.Context, rows []models.Row, path string, maxRows int) (result *WriteResult, err error) {
	ctx, span := w.tracer.Start(ctx, "write", trace.WithAttributes(
		attribute.String("csv.path", path),
		attribute.Int("csv.max_rows", maxRows),
		attribute.String("csv.compression", string(w.compressionAlgorithm)),
	))
	defer func() {
		if result != nil {
			span.SetAttributes(attribute.Int("csv.rows_written", result.RowsWritten))
		}
		observability.EndSpan(span, err)
	}()

	if maxRows < 0 {
		return nil, nerrors.Newf(nerrors.ErrorTypeConfig, "max rows must not be negative, got %d", maxRows)
	}
	if path == "" {
		return nil, nerrors.New(nerrors.ErrorTypeConfig, "output path is required")
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	if len(rows) == 0 {
		return nil, nerrors.New(nerrors.ErrorTypeEmptyResult, "no rows to write").
			WithDetail("path", path)
	}
	if err := ctx.Err(); err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeInternal, "write cancelled")
	}

	header := Header(rows)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to create output directory").
			WithDetail("dir", dir)
	}

	if err := w.writeAtomic(path, header, rows); err != nil {
		return nil, err
	}

	if w.metrics != nil {
		w.metrics.RecordRowsWritten(len(rows))
	}
	w.logger.Debug("csv written",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(header)))

	return &WriteResult{
		RowsWritten: len(rows),
		Path:        path,
		Header:      header,
	}, nil
}

// writeAtomic writes into a sibling temporary file and renames it over path
func (w *Writer) writeAtomic(path string, header []string, rows []models.Row) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to create temporary file").
			WithDetail("path", path)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
				w.logger.Warn("failed to remove temporary file", zap.String("path", tmpPath), zap.Error(rmErr))
			}
		}
	}()

	if err = w.encode(tmp, header, rows); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to write CSV").
			WithDetail("path", path)
	}
	if err = tmp.Sync(); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to sync CSV").
			WithDetail("path", path)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to set CSV permissions").
			WithDetail("path", path)
	}
	if err = tmp.Close(); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to close CSV").
			WithDetail("path", path)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeIO, "failed to move CSV into place").
			WithDetail("path", path)
	}
	return nil
}

// encode writes the header and rows through the configured compressor
func (w *Writer) encode(dst io.Writer, header []string, rows []models.Row) error {
	cw, err := compression.NewWriter(dst, w.compressionAlgorithm, w.compressionLevel)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(cw)
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		_ = cw.Close()
		return err
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, column := range header {
			record[i] = row.Cell(column)
		}
		if err := writer.Write(record); err != nil {
			_ = cw.Close()
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}
