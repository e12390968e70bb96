// Package dbsnp provides rsID -> coordinate lookups backed by DuckDB over
// the dbSNP lookup parquet files.
//
// The on-disk dataset is a directory of per-chromosome parquet files named
// dbSNP_<ver>.chr<chrom>.lookup.parquet with two columns: RSID (e.g.
// "rs12345") and ID, the canonical hg38 key (e.g. "chr8_60009_G_TA").
package dbsnp

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Entry is one dbSNP record: the canonical target-assembly location and
// allele pair for an rsID. Multi-allelic sites yield multiple entries.
type Entry struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
}

// Index is an in-memory rsID lookup built once per run from the parquet
// dataset. Read-only after Load; safe for concurrent lookups.
type Index struct {
	dir     string
	files   []string
	entries map[string][]Entry
}

var lookupFilePat = regexp.MustCompile(`^dbSNP_[^.]+\.chr[0-9XY]+\.lookup\.parquet$`)

// Open discovers the lookup parquet files under dir. The index is empty
// until Load is called.
func Open(dir string) (*Index, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dbsnp directory: %w", err)
	}

	var files []string
	for _, info := range infos {
		if !info.IsDir() && lookupFilePat.MatchString(info.Name()) {
			files = append(files, filepath.Join(dir, info.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no dbSNP lookup parquet files in %s", dir)
	}
	// Fixed file order keeps the multi-allelic first-entry fallback
	// reproducible across runs.
	sort.Strings(files)

	return &Index{dir: dir, files: files}, nil
}

// Files returns the discovered parquet file paths.
func (i *Index) Files() []string {
	return i.files
}

// Load scans every lookup file through DuckDB and builds the in-memory
// map. Row order within each file is preserved.
func (i *Index) Load(ctx context.Context) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	i.entries = make(map[string][]Entry)

	for _, file := range i.files {
		if err := i.loadFile(ctx, db, file); err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}

func (i *Index) loadFile(ctx context.Context, db *sql.DB, file string) error {
	rows, err := db.QueryContext(ctx, "SELECT RSID, ID FROM read_parquet(?)", file)
	if err != nil {
		return fmt.Errorf("read parquet: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rsid, id string
		if err := rows.Scan(&rsid, &id); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		entry, ok := ParseID(id)
		if !ok {
			continue
		}
		key := strings.ToLower(rsid)
		i.entries[key] = append(i.entries[key], entry)
	}

	return rows.Err()
}

// Lookup returns every entry recorded for an rsID (lowercased exact match
// only), in dataset order. nil means the rsID is absent.
func (i *Index) Lookup(rsid string) []Entry {
	return i.entries[strings.ToLower(rsid)]
}

// Len returns the number of distinct rsIDs loaded.
func (i *Index) Len() int {
	return len(i.entries)
}

// ParseID splits a canonical variant key like "chr8_60009_G_TA" into an
// Entry. The bool result is false for malformed keys.
func ParseID(id string) (Entry, bool) {
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		return Entry{}, false
	}
	chrom := strings.TrimPrefix(parts[0], "chr")
	pos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || chrom == "" || parts[2] == "" || parts[3] == "" {
		return Entry{}, false
	}
	return Entry{
		Chrom: chrom,
		Pos:   pos,
		Ref:   strings.ToUpper(parts[2]),
		Alt:   strings.ToUpper(parts[3]),
	}, true
}
