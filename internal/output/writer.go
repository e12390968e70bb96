// Package output writes the normalized summary-statistics table.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/gwaskit/gwasnorm/internal/sumstats"
)

// Columns is the fixed output header order.
var Columns = []string{"SNP", "MAF", "N", "BETA", "SE", "PVALUE"}

// ExistsError is returned when the destination already exists and
// overwriting was not requested.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("output file %s already exists (use --force to overwrite)", e.Path)
}

// Writer serializes surviving records as a tab-separated table with the
// header SNP/MAF/N/BETA/SE/PVALUE. Output is gzipped when the path ends
// in .gz.
type Writer struct {
	w    *bufio.Writer
	gz   *gzip.Writer
	file *os.File
}

// Create opens the destination path. Pre-existing files are refused unless
// force is set; overwriting is never silent.
func Create(path string, force bool) (*Writer, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil, &ExistsError{Path: path}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	w := &Writer{file: f}
	if strings.HasSuffix(path, ".gz") {
		w.gz = gzip.NewWriter(f)
		w.w = bufio.NewWriter(w.gz)
	} else {
		w.w = bufio.NewWriter(f)
	}

	return w, nil
}

// NewWriter wraps an arbitrary writer (used in tests).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the fixed column header.
func (w *Writer) WriteHeader() error {
	_, err := w.w.WriteString(strings.Join(Columns, "\t") + "\n")
	return err
}

// WriteRecord writes one normalized record.
func (w *Writer) WriteRecord(r *sumstats.Record) error {
	_, err := fmt.Fprintf(w.w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		r.Key(),
		formatFloat(r.MAF, r.HasMAF),
		formatN(r),
		strconv.FormatFloat(r.Beta, 'g', -1, 64),
		strconv.FormatFloat(r.SE, 'g', -1, 64),
		strconv.FormatFloat(r.P, 'g', -1, 64),
	)
	return err
}

func formatFloat(v float64, present bool) string {
	if !present {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatN(r *sumstats.Record) string {
	if !r.HasN {
		return "NA"
	}
	if r.N == float64(int64(r.N)) {
		return strconv.FormatInt(int64(r.N), 10)
	}
	return strconv.FormatFloat(r.N, 'g', -1, 64)
}

// Close flushes buffers and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return fmt.Errorf("close gzip writer: %w", err)
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
