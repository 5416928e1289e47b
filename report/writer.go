package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// Writer emits a tab separated table. The first record names the run and
// carries its ID, the second is the column header; both are written with
// the first row.
type Writer struct {
	Name    string
	RunID   uuid.UUID
	Columns []string

	csv     *csv.Writer
	closer  io.Closer
	started bool
}

func NewWriter(w io.Writer, name string, runID uuid.UUID, columns []string) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return &Writer{Name: name, RunID: runID, Columns: columns, csv: cw}
}

// Create opens path for writing. Nothing is written until the first row.
func Create(path, name string, runID uuid.UUID, columns []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f, name, runID, columns)
	w.closer = f
	return w, nil
}

func (w *Writer) Started() bool {
	return w.started
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	if err := w.csv.Write([]string{w.Name, w.RunID.String()}); err != nil {
		return err
	}
	return w.csv.Write(w.Columns)
}

// Row writes one record of numbers.
func (w *Writer) Row(values ...float64) error {
	if err := w.start(); err != nil {
		return err
	}
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = formatFloat(v)
	}
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
