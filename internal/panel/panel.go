// Package panel loads the LD reference panel variant list and restricts
// records to it.
package panel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Set holds the canonical variant keys of the reference panel. Read-only
// after Load; safe for concurrent Contains calls.
type Set struct {
	keys map[string]struct{}
}

// OrientationPolicy decides what happens when a record's key misses the
// panel but its allele-swapped key is present.
type OrientationPolicy int

const (
	// OrientationDrop drops swapped-orientation records (default; the
	// conservative choice).
	OrientationDrop OrientationPolicy = iota
	// OrientationFlip harmonizes them: the effect-size sign is negated
	// and the frequency becomes 1-MAF.
	OrientationFlip
)

// ParsePolicy maps the CLI/config spelling to a policy.
func ParsePolicy(s string) (OrientationPolicy, error) {
	switch strings.ToLower(s) {
	case "", "drop":
		return OrientationDrop, nil
	case "flip":
		return OrientationFlip, nil
	}
	return OrientationDrop, fmt.Errorf("unknown orientation policy %q (want drop or flip)", s)
}

// Load reads the panel variant list, a TSV whose ID column (or sole
// column) holds canonical keys like chr1_12345_A_G. Plain or gzipped.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Parse(r)
}

// Parse reads the panel list from a reader.
func Parse(r io.Reader) (*Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	s := &Set{keys: make(map[string]struct{})}

	idCol := -1
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		lineNo++
		fields := strings.Split(line, "\t")

		if lineNo == 1 {
			for i, col := range fields {
				if strings.EqualFold(col, "ID") || strings.EqualFold(col, "SNP") {
					idCol = i
					break
				}
			}
			if idCol >= 0 {
				continue // header row consumed
			}
			// Headerless single-column list.
			idCol = 0
		}

		if idCol >= len(fields) {
			continue
		}
		key := strings.TrimSpace(fields[idCol])
		if key != "" {
			s.keys[key] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read panel file: %w", err)
	}
	if len(s.keys) == 0 {
		return nil, fmt.Errorf("panel file contains no variant keys")
	}

	return s, nil
}

// Contains reports whether the canonical key is in the panel.
func (s *Set) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of panel variants.
func (s *Set) Len() int {
	return len(s.keys)
}
