// Package sumstats provides GWAS summary-statistics parsing functionality.
package sumstats

import (
	"fmt"
	"math"
	"strconv"
)

// Record represents a single summary-statistics row. Chrom, Pos, Ref and Alt
// are only meaningful once the record has been resolved onto the target
// assembly; before that they hold whatever the input declared (possibly
// nothing, for rsID-only rows).
type Record struct {
	ID    string // raw identifier as read (rsID or coordinate form)
	Chrom string // chromosome without "chr" prefix; "X"/"Y" possible
	Pos   int64  // 1-based position
	Ref   string // non-effect allele (A2)
	Alt   string // effect allele (A1)

	MAF    float64 // minor allele frequency, folded to <= 0.5
	HasMAF bool

	Beta float64 // effect size; NaN when missing
	SE   float64 // standard error; NaN when missing
	P    float64 // p-value; NaN when missing

	N    float64 // sample size
	HasN bool

	LowConfidence bool
}

// Key returns the canonical variant key used for panel joins and output,
// e.g. "chr8_60009_G_TA".
func (r *Record) Key() string {
	return FormatKey(r.Chrom, r.Pos, r.Ref, r.Alt)
}

// SwappedKey returns the key with ref and alt exchanged. Used by the
// orientation-matching panel policy.
func (r *Record) SwappedKey() string {
	return FormatKey(r.Chrom, r.Pos, r.Alt, r.Ref)
}

// FormatKey formats a canonical variant key.
func FormatKey(chrom string, pos int64, ref, alt string) string {
	return fmt.Sprintf("chr%s_%d_%s_%s", chrom, pos, ref, alt)
}

// Autosome returns the chromosome as an integer in 1..22, or 0 if the
// record is not autosomal.
func (r *Record) Autosome() int {
	n, err := strconv.Atoi(r.Chrom)
	if err != nil || n < 1 || n > 22 {
		return 0
	}
	return n
}

// HasEssentialStats reports whether beta, standard error and p-value are
// all present, finite, and the p-value is within [0,1].
func (r *Record) HasEssentialStats() bool {
	for _, v := range []float64{r.Beta, r.SE, r.P} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.P >= 0 && r.P <= 1
}

// NormalizeChrom canonicalizes a chromosome name: strips an optional "chr"
// prefix, upper-cases sex chromosomes, and maps the numeric aliases 23 and
// 24 to X and Y.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && (chrom[:3] == "chr" || chrom[:3] == "CHR" || chrom[:3] == "Chr") {
		chrom = chrom[3:]
	}
	switch chrom {
	case "23":
		return "X"
	case "24":
		return "Y"
	case "x":
		return "X"
	case "y":
		return "Y"
	}
	return chrom
}
