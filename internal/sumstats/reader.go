package sumstats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader streams Records from a tab-separated summary-statistics file.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     []string
	schema     *Schema
}

// RowError reports a skippable problem with a single input row. Rows with
// the wrong field count or garbage in a numeric field are dropped and
// counted; they never abort the run.
type RowError struct {
	Line    int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sumstats row error at line %d: %s", e.Line, e.Message)
}

// NewReader opens a summary-statistics file and parses its header.
// Supports plain and gzipped TSV files; "-" reads from stdin.
func NewReader(path string) (*Reader, error) {
	if path == "-" {
		return NewReaderFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sumstats file: %w", err)
	}

	r := &Reader{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read sumstats header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek sumstats file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// NewReaderFromReader creates a Reader from an io.Reader (e.g. stdin).
func NewReaderFromReader(rd io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// parseHeader reads the header line and detects the column schema.
func (r *Reader) parseHeader() error {
	line, err := r.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read header: %w", err)
	}
	r.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return &SchemaError{Column: "", Message: "empty input, no header line"}
	}

	r.header = strings.Split(line, "\t")
	r.schema, err = DetectSchema(r.header)
	return err
}

// Next reads the next record. Returns nil, nil at end of input. A *RowError
// means the row was unusable and should be counted, not that the run failed.
func (r *Reader) Next() (*Record, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read sumstats line: %w", err)
		}
		atEOF := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if atEOF {
				return nil, nil
			}
			r.lineNumber++
			continue
		}
		r.lineNumber++

		return r.parseRow(line)
	}
}

// parseRow converts one data line into a Record.
func (r *Reader) parseRow(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != len(r.header) {
		return nil, &RowError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected %d fields, found %d", len(r.header), len(fields)),
		}
	}

	rec := &Record{Beta: math.NaN(), SE: math.NaN(), P: math.NaN()}

	if idx := r.schema.Index(ColChr); idx >= 0 {
		rec.Chrom = NormalizeChrom(strings.ToUpper(fields[idx]))
	}
	if idx := r.schema.Index(ColBP); idx >= 0 {
		if pos, err := strconv.ParseInt(fields[idx], 10, 64); err == nil {
			rec.Pos = pos
		}
	}
	if idx := r.schema.Index(ColA1); idx >= 0 {
		rec.Alt = strings.ToUpper(fields[idx])
	}
	if idx := r.schema.Index(ColA2); idx >= 0 {
		rec.Ref = strings.ToUpper(fields[idx])
	}

	if idx := r.schema.Index(ColSNP); idx >= 0 {
		rec.ID = fields[idx]
	}
	// Recover identifiers that match neither accepted shape when the
	// coordinate columns can synthesize one.
	if Classify(rec.ID) == ClassUnknown && rec.Chrom != "" && rec.Pos > 0 &&
		rec.Ref != "" && rec.Alt != "" {
		rec.ID = fmt.Sprintf("%s_%d_%s_%s", rec.Chrom, rec.Pos, rec.Ref, rec.Alt)
	}

	var err error
	if rec.Beta, err = r.parseStat(fields, ColBeta); err != nil {
		return nil, err
	}
	if rec.SE, err = r.parseStat(fields, ColSE); err != nil {
		return nil, err
	}
	if rec.P, err = r.parseStat(fields, ColP); err != nil {
		return nil, err
	}

	if idx := r.schema.Index(ColN); idx >= 0 {
		if n, ok := parseOptionalFloat(fields[idx]); ok {
			rec.N = n
			rec.HasN = true
		}
	}

	r.parseFrequency(fields, rec)

	if idx := r.schema.Index(ColLowConf); idx >= 0 {
		rec.LowConfidence = parseBool(fields[idx])
	}

	return rec, nil
}

// parseStat parses a required numeric field. Missing-value markers become
// NaN (and fall to the essential-stat filter); anything else non-numeric
// makes the row malformed.
func (r *Reader) parseStat(fields []string, col string) (float64, error) {
	raw := fields[r.schema.Index(col)]
	if isMissing(raw) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &RowError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("non-numeric %s value %q", col, raw),
		}
	}
	// Some studies encode missing effects as +-99.
	if (col == ColBeta || col == ColSE) && (v == 99 || v == -99) {
		return math.NaN(), nil
	}
	return v, nil
}

// parseFrequency fills MAF from whichever frequency columns are present.
// A Neale-style minor_AF/minor_allele pair is oriented against the effect
// allele first; either way the stored value is folded to the minor side.
func (r *Reader) parseFrequency(fields []string, rec *Record) {
	mafIdx := r.schema.Index(ColMinorAF)
	maIdx := r.schema.Index(ColMinorAllele)

	var af float64
	var ok bool
	switch {
	case mafIdx >= 0 && maIdx >= 0:
		af, ok = parseOptionalFloat(fields[mafIdx])
		if ok && !strings.EqualFold(fields[maIdx], rec.Alt) {
			af = 1 - af
		}
	case r.schema.Index(ColAF) >= 0:
		af, ok = parseOptionalFloat(fields[r.schema.Index(ColAF)])
	}
	if !ok {
		return
	}
	if af > 0.5 {
		af = 1 - af
	}
	rec.MAF = af
	rec.HasMAF = true
}

func parseOptionalFloat(raw string) (float64, bool) {
	if isMissing(raw) {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v == 99 || v == -99 {
		return 0, false
	}
	return v, true
}

func isMissing(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", ".", "NA", "NAN", "NULL", "NONE":
		return true
	}
	return false
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "1":
		return true
	}
	return false
}

// Header returns the raw header columns.
func (r *Reader) Header() []string {
	return r.header
}

// Schema returns the detected column schema.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
