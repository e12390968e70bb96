package sumstats

import (
	"regexp"
	"strconv"
	"strings"
)

// IDClass is the resolution route chosen for a record's identifier.
type IDClass int

const (
	// ClassUnknown marks identifiers matching neither accepted form.
	ClassUnknown IDClass = iota
	// ClassRsID marks reference-SNP identifiers ("rs" + digits).
	ClassRsID
	// ClassCoordinate marks chrom:pos:ref:alt style identifiers.
	ClassCoordinate
)

func (c IDClass) String() string {
	switch c {
	case ClassRsID:
		return "rsid"
	case ClassCoordinate:
		return "coordinate"
	}
	return "unknown"
}

var (
	rsidPat = regexp.MustCompile(`(?i)(rs[0-9]+)`)
	// Coordinate identifiers accept ":", "_" or "+" separators and an
	// optional chr prefix, e.g. 8_60009_G_TA or chr8:60009:G:TA.
	coordPat = regexp.MustCompile(`(?i)^(?:chr)?([0-9XY]{1,2})[_:\+]([0-9]+)[_:\+]([ACGT]+)[_:\+]([ACGT]+)$`)
)

// Classify determines the resolution route for a raw identifier. rsIDs are
// checked first so composite forms like "rs123:456:A:G" route through the
// resolver rather than the coordinate mapper.
func Classify(id string) IDClass {
	if rsidPat.MatchString(id) {
		return ClassRsID
	}
	if coordPat.MatchString(id) {
		return ClassCoordinate
	}
	return ClassUnknown
}

// ExtractRsID pulls the lowercased rsID out of an identifier, trimming any
// trailing coordinate decoration. Returns "" when none is present.
func ExtractRsID(id string) string {
	m := rsidPat.FindString(id)
	return strings.ToLower(m)
}

// ParseCoordinateID splits a coordinate-style identifier into its parts.
// The chromosome is normalized and the alleles are upper-cased. The bool
// result is false when the identifier is not coordinate-shaped.
func ParseCoordinateID(id string) (chrom string, pos int64, ref, alt string, ok bool) {
	m := coordPat.FindStringSubmatch(id)
	if m == nil {
		return "", 0, "", "", false
	}
	pos, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, "", "", false
	}
	// Coordinate IDs are CHR_POS_REF_ALT with ref (A2) first, matching the
	// Neale lab convention and the dbSNP lookup ID format.
	return NormalizeChrom(strings.ToUpper(m[1])), pos,
		strings.ToUpper(m[3]), strings.ToUpper(m[4]), true
}
