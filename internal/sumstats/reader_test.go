package sumstats

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T, content string) *Reader {
	t.Helper()
	r, err := NewReaderFromReader(strings.NewReader(content))
	require.NoError(t, err)
	return r
}

func readAll(t *testing.T, r *Reader) (recs []*Record, rowErrs int) {
	t.Helper()
	for {
		rec, err := r.Next()
		if err != nil {
			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			rowErrs++
			continue
		}
		if rec == nil {
			return recs, rowErrs
		}
		recs = append(recs, rec)
	}
}

func TestReader_NealeFormat(t *testing.T) {
	input := "variant\tminor_allele\tminor_AF\tlow_confidence_variant\tn_complete_samples\tbeta\tse\tpval\n" +
		"5:29439275:T:C\tT\t0.3\tfalse\t336474\t-0.0049\t0.0031\t0.11\n" +
		"rs2076295\tG\t0.45\ttrue\t336474\t0.012\t0.004\t3.2e-8\n"

	r := newTestReader(t, input)
	recs, rowErrs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Zero(t, rowErrs)

	first := recs[0]
	assert.Equal(t, "5:29439275:T:C", first.ID)
	assert.True(t, first.HasMAF)
	// minor_allele T is not the effect allele (no A1 column), so the
	// frequency is reoriented and then folded back below 0.5.
	assert.InDelta(t, 0.3, first.MAF, 1e-12)
	assert.Equal(t, -0.0049, first.Beta)
	assert.True(t, first.HasN)
	assert.Equal(t, float64(336474), first.N)
	assert.False(t, first.LowConfidence)

	assert.True(t, recs[1].LowConfidence)
}

func TestReader_SynthesizesIdentifier(t *testing.T) {
	input := "CHR\tBP\tA2\tA1\tBETA\tSE\tP\n" +
		"chr7\t5000\tg\ta\t0.1\t0.02\t0.5\n"

	r := newTestReader(t, input)
	recs, _ := readAll(t, r)
	require.Len(t, recs, 1)

	assert.Equal(t, "7_5000_G_A", recs[0].ID)
	assert.Equal(t, "7", recs[0].Chrom)
	assert.Equal(t, int64(5000), recs[0].Pos)
	assert.Equal(t, "G", recs[0].Ref)
	assert.Equal(t, "A", recs[0].Alt)
}

func TestReader_ChromosomeAliases(t *testing.T) {
	input := "CHR\tBP\tA2\tA1\tBETA\tSE\tP\n" +
		"23\t100\tA\tG\t0.1\t0.02\t0.5\n" +
		"24\t200\tA\tG\t0.1\t0.02\t0.5\n"

	r := newTestReader(t, input)
	recs, _ := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "X", recs[0].Chrom)
	assert.Equal(t, "Y", recs[1].Chrom)
}

func TestReader_MalformedRows(t *testing.T) {
	input := "SNP\tBETA\tSE\tP\n" +
		"rs1\t0.1\t0.02\t0.5\n" +
		"rs2\t0.1\t0.02\n" + // wrong field count
		"rs3\tnot_a_number\t0.02\t0.5\n" + // garbage numeric
		"rs4\t0.2\t0.03\t0.9\n"

	r := newTestReader(t, input)
	recs, rowErrs := readAll(t, r)
	assert.Len(t, recs, 2)
	assert.Equal(t, 2, rowErrs)
}

func TestReader_MissingAndSentinelStats(t *testing.T) {
	input := "SNP\tBETA\tSE\tP\n" +
		"rs1\tNA\t0.02\t0.5\n" +
		"rs2\t99\t0.02\t0.5\n" +
		"rs3\t0.1\t-99\t0.5\n" +
		"rs4\t0.1\t0.02\t.\n"

	r := newTestReader(t, input)
	recs, rowErrs := readAll(t, r)
	require.Len(t, recs, 4)
	assert.Zero(t, rowErrs)

	// Missing markers and the +-99 sentinels all become NaN; the
	// essential-stat filter handles them downstream.
	assert.True(t, math.IsNaN(recs[0].Beta))
	assert.True(t, math.IsNaN(recs[1].Beta))
	assert.True(t, math.IsNaN(recs[2].SE))
	assert.True(t, math.IsNaN(recs[3].P))
}

func TestReader_EffectAlleleFrequencyFolded(t *testing.T) {
	input := "SNP\tA1\tA2\taf1\tBETA\tSE\tP\n" +
		"rs1\tA\tG\t0.8\t0.1\t0.02\t0.5\n" +
		"rs2\tA\tG\tNA\t0.1\t0.02\t0.5\n"

	r := newTestReader(t, input)
	recs, _ := readAll(t, r)
	require.Len(t, recs, 2)

	require.True(t, recs[0].HasMAF)
	assert.InDelta(t, 0.2, recs[0].MAF, 1e-12)
	assert.False(t, recs[1].HasMAF)
}

func TestReader_GzippedFile(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("SNP\tBETA\tSE\tP\nrs1\t0.1\t0.02\t0.5\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "sumstats.tsv.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	recs, _ := readAll(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "rs1", recs[0].ID)
}

func TestReader_SchemaErrorIsFatal(t *testing.T) {
	_, err := NewReaderFromReader(strings.NewReader("foo\tbar\n1\t2\n"))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}
