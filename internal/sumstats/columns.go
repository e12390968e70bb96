package sumstats

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical column names used throughout the pipeline.
const (
	ColSNP  = "SNP"
	ColChr  = "CHR"
	ColBP   = "BP"
	ColA1   = "A1" // effect allele
	ColA2   = "A2" // non-effect allele
	ColAF   = "AF1"
	ColBeta = "BETA"
	ColSE   = "SE"
	ColP    = "P"
	ColN    = "N"

	// Neale-style columns handled specially.
	ColMinorAllele = "minor_allele"
	ColMinorAF     = "minor_AF"
	ColLowConf     = "low_confidence_variant"
)

// columnPatterns maps each canonical column name to a case-insensitive
// pattern matching the naming variants seen across published GWAS.
var columnPatterns = map[string]*regexp.Regexp{
	ColSNP:  regexp.MustCompile(`(?i)^snp(s)?$|^rs[\-]?id(s)?$|^variant(s)?$|^id(s)?$|^marker[_\+\-]?name(s)?$|^name(s)?$|^hm_rsid$`),
	ColChr:  regexp.MustCompile(`(?i)^chr([_\-\+\(]?(b|hg)[0-9]+\)?)?$|^#?chrom(osome(s)?)?([_\-\+\(]?(b|hg)[0-9]+\)?)?$|^hm_chrom$`),
	ColBP:   regexp.MustCompile(`(?i)^bp([_\-\+\(]?(b|hg)[0-9]+\)?)?$|^pos(ition)?([_\-\+\(]?(b|hg)[0-9]+\)?)?$|^base[_\-\+]?pair([_\-\+]?loc(ation)?)?$|^hm_pos$`),
	ColA2:   regexp.MustCompile(`(?i)^a2$|^ref([_\-]?allele)?$|^no(n|t)[_\+\-]?eff(ect)?[_\+\-]?allele$|^other[_\+\-]?allele$|^allele2$|^hm_other_allele$`),
	ColA1:   regexp.MustCompile(`(?i)^a1$|^alt([_\-]?allele)?$|^eff(ect)?[_\+\-]?allele$|^tested[_\+\-]?allele$|^allele1$|^hm_effect_allele$`),
	ColAF:   regexp.MustCompile(`(?i)(^(.*a1|.*alt|.*eff(ect)?|test(ed)?)[_\+\-]?(allele)?[_\+\-]?(fr(e)?q(s|uency)?)$)|(^(fr(e)?q(s|uency)?)[_\+\-]?(a1|alt|eff(ect)?|test(ed)?)[_\+\-]?(allele)?$)|^af1?$|^fr(e)?q1$|^af_alt$`),
	ColBeta: regexp.MustCompile(`(?i)^beta(s)?$|^eff(ect)?(s)?[_\-\+]?(size(s)?)?$|^log_odd(s)?$|^hm_beta$`),
	ColSE:   regexp.MustCompile(`(?i)^se(_.*)?(beta)?$|^stand(ard)?[_\-\+]?err(or)?(s)?$|^log_odd(s)?_se$|^std[_\+\-]?err$`),
	ColP:    regexp.MustCompile(`(?i)^p([_\-\+].*)?$|^pval(ue)?$`),
	ColN:    regexp.MustCompile(`(?i)^n$|^n(_complete)?_samples$`),
}

// Schema maps canonical column names to their indices in the input header.
// Absent optional columns are recorded as -1.
type Schema struct {
	index map[string]int
}

// SchemaError indicates a malformed or unusable input header. It is fatal
// to the run.
type SchemaError struct {
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sumstats schema error (%s): %s", e.Column, e.Message)
}

// DetectSchema matches a header row against the known column patterns.
// The input must carry either an identifier column or the full
// (CHR, BP, A2, A1) coordinate set; BETA, SE and P are always required.
func DetectSchema(header []string) (*Schema, error) {
	s := &Schema{index: make(map[string]int)}

	for name, pat := range columnPatterns {
		idx, err := matchColumn(header, name, pat)
		if err != nil {
			return nil, err
		}
		s.index[name] = idx
	}

	// Neale-style columns are matched verbatim.
	s.index[ColMinorAllele] = findExact(header, ColMinorAllele)
	s.index[ColMinorAF] = findExact(header, ColMinorAF)
	s.index[ColLowConf] = findExact(header, ColLowConf)

	hasSNP := s.index[ColSNP] >= 0
	hasFour := s.index[ColChr] >= 0 && s.index[ColBP] >= 0 &&
		s.index[ColA2] >= 0 && s.index[ColA1] >= 0
	if !hasSNP && !hasFour {
		return nil, &SchemaError{
			Column:  ColSNP,
			Message: fmt.Sprintf("need %s or all of %s, %s, %s, %s; header is %v",
				ColSNP, ColChr, ColBP, ColA2, ColA1, header),
		}
	}
	if !hasSNP && (s.index[ColA2] < 0 || s.index[ColA1] < 0) {
		return nil, &SchemaError{Column: ColA1, Message: "allele columns required without an identifier column"}
	}
	for _, required := range []string{ColBeta, ColSE, ColP} {
		if s.index[required] < 0 {
			return nil, &SchemaError{
				Column:  required,
				Message: fmt.Sprintf("required column not found in header %v", header),
			}
		}
	}

	return s, nil
}

// matchColumn finds the single header column matching pat. If multiple
// columns match, a unique hm_-prefixed column (harmonized GWAS catalog
// export) wins; anything else ambiguous is a SchemaError.
func matchColumn(header []string, name string, pat *regexp.Regexp) (int, error) {
	var matches []int
	for i, col := range header {
		if pat.MatchString(col) {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return -1, nil
	case 1:
		return matches[0], nil
	}

	var harmonized []int
	for _, i := range matches {
		if strings.HasPrefix(strings.ToLower(header[i]), "hm_") {
			harmonized = append(harmonized, i)
		}
	}
	if len(harmonized) == 1 {
		return harmonized[0], nil
	}

	return -1, &SchemaError{
		Column:  name,
		Message: fmt.Sprintf("pattern matches more than one column in header %v", header),
	}
}

func findExact(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

// Has reports whether the canonical column was found in the header.
func (s *Schema) Has(name string) bool {
	idx, ok := s.index[name]
	return ok && idx >= 0
}

// Index returns the header index of the canonical column, or -1.
func (s *Schema) Index(name string) int {
	idx, ok := s.index[name]
	if !ok {
		return -1
	}
	return idx
}
