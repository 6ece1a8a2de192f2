package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"cinematch/internal/fileutil"
	"cinematch/internal/matching"
)

const timestampLayout = "20060102T150405"

// KindLabel is the plural used in ledger and checkpoint file names.
func KindLabel(kind matching.Kind) string {
	if kind == matching.KindPerson {
		return "people"
	}
	return "movies"
}

// LatestPath returns the path of the latest ledger for kind in dir.
func LatestPath(dir string, kind matching.Kind) string {
	return filepath.Join(dir, KindLabel(kind)+"-matches.csv")
}

// TimestampedPath returns the per-run ledger path for kind in dir.
func TimestampedPath(dir string, kind matching.Kind, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-matches-%s.csv", KindLabel(kind), at.UTC().Format(timestampLayout)))
}

// Writer appends rows to a run ledger. Rows are flushed as they are written
// so an interrupted run keeps everything recorded so far. A Writer belongs to
// the single batch goroutine and is not safe for concurrent use.
type Writer struct {
	kind   matching.Kind
	path   string
	latest string
	file   *os.File
	csv    *csv.Writer
	rows   int
	closed bool
}

// Create opens a new timestamped ledger in dir and writes the header.
func Create(dir string, kind matching.Kind, at time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	path := TimestampedPath(dir, kind, at)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	w := &Writer{
		kind:   kind,
		path:   path,
		latest: LatestPath(dir, kind),
		file:   file,
		csv:    csv.NewWriter(file),
	}
	if err := w.csv.Write(Columns(kind)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write ledger header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write ledger header: %w", err)
	}
	return w, nil
}

// Path returns the timestamped ledger path.
func (w *Writer) Path() string {
	return w.path
}

// LatestPath returns the path refreshed on Close.
func (w *Writer) LatestPath() string {
	return w.latest
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Append writes one row and flushes it to disk.
func (w *Writer) Append(row Row) error {
	if w.closed {
		return errors.New("ledger is closed")
	}
	row.Kind = w.kind
	if err := w.csv.Write(row.Record()); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush ledger row: %w", err)
	}
	w.rows++
	return nil
}

// Close flushes the ledger and merges its rows into the latest copy, so a
// resumed run keeps the rows written before the interruption. A ledger with
// no rows leaves the previous latest copy in place. Calling Close more than
// once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	if w.rows == 0 {
		return nil
	}
	if err := w.refreshLatest(); err != nil {
		return fmt.Errorf("refresh latest ledger: %w", err)
	}
	return nil
}

func (w *Writer) refreshLatest() error {
	_, current, err := ReadFile(w.path)
	if err != nil {
		return err
	}
	var previous []Row
	kind, rows, err := ReadFile(w.latest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	case kind == w.kind:
		previous = rows
	}
	return WriteAll(w.latest, w.kind, Merge(previous, current))
}

// Merge combines two ledgers keyed by local id. Rows in newer replace the
// older row for the same id in place; ids only in newer are appended in
// their original order.
func Merge(older, newer []Row) []Row {
	merged := make([]Row, 0, len(older)+len(newer))
	index := make(map[int64]int, len(older)+len(newer))
	for _, rows := range [][]Row{older, newer} {
		for _, row := range rows {
			if at, ok := index[row.LocalID]; ok {
				merged[at] = row
				continue
			}
			index[row.LocalID] = len(merged)
			merged = append(merged, row)
		}
	}
	return merged
}

// WriteAll atomically writes rows to path as a complete ledger of kind.
func WriteAll(path string, kind matching.Kind, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(Columns(kind)); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, row := range rows {
		row.Kind = kind
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return fileutil.WriteAtomic(path, buf.Bytes(), 0o644)
}
