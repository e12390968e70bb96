package sumstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSchema_NealeHeader(t *testing.T) {
	header := []string{"variant", "minor_allele", "minor_AF", "low_confidence_variant",
		"n_complete_samples", "beta", "se", "pval"}

	s, err := DetectSchema(header)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Index(ColSNP))
	assert.Equal(t, 1, s.Index(ColMinorAllele))
	assert.Equal(t, 2, s.Index(ColMinorAF))
	assert.Equal(t, 3, s.Index(ColLowConf))
	assert.Equal(t, 4, s.Index(ColN))
	assert.Equal(t, 5, s.Index(ColBeta))
	assert.Equal(t, 6, s.Index(ColSE))
	assert.Equal(t, 7, s.Index(ColP))
	assert.False(t, s.Has(ColChr))
}

func TestDetectSchema_CoordinateColumns(t *testing.T) {
	header := []string{"CHROM", "POS", "REF", "ALT", "EFFECT_ALLELE_FREQ", "BETA", "SE", "P", "N"}

	s, err := DetectSchema(header)
	require.NoError(t, err)
	assert.False(t, s.Has(ColSNP))
	assert.Equal(t, 0, s.Index(ColChr))
	assert.Equal(t, 1, s.Index(ColBP))
	assert.Equal(t, 2, s.Index(ColA2))
	assert.Equal(t, 3, s.Index(ColA1))
	assert.Equal(t, 4, s.Index(ColAF))
}

func TestDetectSchema_HarmonizedTieBreak(t *testing.T) {
	// Both "hm_rsid" and "variant_id" match the identifier pattern; the
	// harmonized column wins.
	header := []string{"hm_rsid", "variant", "hm_chrom", "hm_pos", "hm_other_allele",
		"hm_effect_allele", "hm_beta", "standard_error", "p_value"}

	s, err := DetectSchema(header)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Index(ColSNP))
	assert.Equal(t, 6, s.Index(ColBeta))
}

func TestDetectSchema_Errors(t *testing.T) {
	t.Run("no identifier and no coordinates", func(t *testing.T) {
		_, err := DetectSchema([]string{"beta", "se", "pval"})
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("missing required stat column", func(t *testing.T) {
		_, err := DetectSchema([]string{"snp", "beta", "se"})
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, ColP, schemaErr.Column)
	})

	t.Run("ambiguous column match", func(t *testing.T) {
		_, err := DetectSchema([]string{"snp", "variant", "beta", "se", "pval"})
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})
}
