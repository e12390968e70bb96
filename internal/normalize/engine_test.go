package normalize

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwaskit/gwasnorm/internal/dbsnp"
	"github.com/gwaskit/gwasnorm/internal/liftover"
	"github.com/gwaskit/gwasnorm/internal/panel"
	"github.com/gwaskit/gwasnorm/internal/qc"
	"github.com/gwaskit/gwasnorm/internal/sumstats"
)

// fakeResolver serves canned dbSNP entries keyed by rsID.
type fakeResolver map[string][]dbsnp.Entry

func (f fakeResolver) Lookup(rsid string) []dbsnp.Entry { return f[rsid] }

// fakeMapper serves canned liftover results keyed by "chrom:pos".
type fakeMapper map[string][]liftover.Mapped

func (f fakeMapper) Map(chrom string, pos int64) []liftover.Mapped {
	return f[fmt.Sprintf("%s:%d", chrom, pos)]
}

func testPanel(t *testing.T, keys ...string) *panel.Set {
	t.Helper()
	s, err := panel.Parse(strings.NewReader(strings.Join(keys, "\n") + "\n"))
	require.NoError(t, err)
	return s
}

// validRecord has stats that survive every QC filter.
func validRecord(id string) *sumstats.Record {
	return &sumstats.Record{
		ID:   id,
		MAF:  0.25, HasMAF: true,
		Beta: 0.05, SE: 0.01, P: 1e-6,
	}
}

func TestProcess_RsIDResolved(t *testing.T) {
	resolver := fakeResolver{
		"rs100": {{Chrom: "1", Pos: 1000, Ref: "A", Alt: "G"}},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr1_1000_A_G"), panel.OrientationDrop)

	rec := validRecord("rs100")
	var c qc.Counters
	require.True(t, e.Process(rec, &c))

	assert.Equal(t, "chr1_1000_A_G", rec.Key())
	assert.Equal(t, int64(1), c.Output)
}

func TestProcess_RsIDKeepsRecordOrientation(t *testing.T) {
	// The record declares the same allele pair the other way round; its
	// own orientation wins because BETA refers to its effect allele.
	resolver := fakeResolver{
		"rs100": {{Chrom: "1", Pos: 1000, Ref: "A", Alt: "G"}},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr1_1000_G_A"), panel.OrientationDrop)

	rec := validRecord("rs100")
	rec.Ref, rec.Alt = "G", "A"
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, "chr1_1000_G_A", rec.Key())
}

func TestProcess_RsIDAdoptsIndexAlleles(t *testing.T) {
	resolver := fakeResolver{
		"rs100": {{Chrom: "1", Pos: 1000, Ref: "A", Alt: "G"}},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr1_1000_A_G"), panel.OrientationDrop)

	rec := validRecord("rs100") // no alleles declared
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, "A", rec.Ref)
	assert.Equal(t, "G", rec.Alt)
}

func TestProcess_RsIDUnresolved(t *testing.T) {
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr1_1_A_G"), panel.OrientationDrop)

	rec := validRecord("rs404")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.UnresolvedRsID)
	assert.Equal(t, int64(0), c.Output)
}

func TestProcess_MultiAllelicPrefersMatchingPair(t *testing.T) {
	resolver := fakeResolver{
		"rs200": {
			{Chrom: "2", Pos: 500, Ref: "C", Alt: "T"},
			{Chrom: "2", Pos: 500, Ref: "C", Alt: "A"},
		},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr2_500_C_A"), panel.OrientationDrop)

	rec := validRecord("rs200")
	rec.Ref, rec.Alt = "C", "A"
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, "chr2_500_C_A", rec.Key())
	assert.Equal(t, int64(1), c.MultiAllelicSite)
}

func TestProcess_MultiAllelicFallsBackToFirstEntry(t *testing.T) {
	resolver := fakeResolver{
		"rs200": {
			{Chrom: "2", Pos: 500, Ref: "C", Alt: "T"},
			{Chrom: "2", Pos: 500, Ref: "C", Alt: "A"},
		},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr2_500_C_T"), panel.OrientationDrop)

	rec := validRecord("rs200") // no declared alleles
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, "chr2_500_C_T", rec.Key())
}

func TestProcess_CoordinateIdentity(t *testing.T) {
	// No mapper configured: coordinates are already on the target build.
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr7_5000_G_A"), panel.OrientationDrop)

	rec := validRecord("7_5000_G_A")
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, "7", rec.Chrom)
	assert.Equal(t, int64(5000), rec.Pos)
}

func TestProcess_CoordinateLifted(t *testing.T) {
	mapper := fakeMapper{"7:5000": {{Chrom: "7", Pos: 5100}}}
	e := NewEngine(fakeResolver{}, mapper, testPanel(t, "chr7_5100_G_A"), panel.OrientationDrop)

	rec := validRecord("chr7:5000:G:A")
	var c qc.Counters
	require.True(t, e.Process(rec, &c))
	assert.Equal(t, int64(5100), rec.Pos)
}

func TestProcess_CoordinateUnmapped(t *testing.T) {
	e := NewEngine(fakeResolver{}, fakeMapper{}, testPanel(t, "chr7_1_A_G"), panel.OrientationDrop)

	rec := validRecord("7_5000_G_A")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.UnmappedInterval)
}

func TestProcess_CoordinateMultiMapped(t *testing.T) {
	mapper := fakeMapper{"7:5000": {{Chrom: "7", Pos: 5100}, {Chrom: "12", Pos: 900}}}
	e := NewEngine(fakeResolver{}, mapper, testPanel(t, "chr7_5100_G_A"), panel.OrientationDrop)

	rec := validRecord("7_5000_G_A")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.MultiMappedInterval)
}

func TestProcess_UnknownIdentifier(t *testing.T) {
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr1_1_A_G"), panel.OrientationDrop)

	rec := validRecord("AFFX-12345")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.UnresolvedIdentifier)
}

func TestProcess_PanelMismatchDropped(t *testing.T) {
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr9_9_A_G"), panel.OrientationDrop)

	rec := validRecord("1_1000_A_G")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.PanelMismatch)
}

func TestProcess_SwappedOrientationDroppedByDefault(t *testing.T) {
	// Panel holds the allele-swapped key only; the drop policy refuses it.
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr1_1000_G_A"), panel.OrientationDrop)

	rec := validRecord("1_1000_A_G")
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.PanelMismatch)
	assert.Equal(t, int64(0), c.OrientationFlipped)
}

func TestProcess_SwappedOrientationFlipped(t *testing.T) {
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr1_1000_G_A"), panel.OrientationFlip)

	rec := validRecord("1_1000_A_G")
	rec.Beta = 0.05
	rec.MAF = 0.25
	var c qc.Counters
	require.True(t, e.Process(rec, &c))

	assert.Equal(t, "chr1_1000_G_A", rec.Key())
	assert.InDelta(t, -0.05, rec.Beta, 1e-12)
	assert.InDelta(t, 0.75, rec.MAF, 1e-12)
	assert.Equal(t, int64(1), c.OrientationFlipped)
	assert.Equal(t, int64(1), c.Output)
}

func TestProcess_QCBeforeJoin(t *testing.T) {
	// A record failing QC never reaches the panel, so no mismatch is
	// charged even though its key is absent from the panel.
	e := NewEngine(fakeResolver{}, nil, testPanel(t, "chr9_9_A_G"), panel.OrientationDrop)

	rec := validRecord("1_1000_A_T") // strand-ambiguous pair
	var c qc.Counters
	assert.False(t, e.Process(rec, &c))
	assert.Equal(t, int64(1), c.AmbiguousAllelePair)
	assert.Equal(t, int64(0), c.PanelMismatch)
}

func TestProcess_FiveRowScenario(t *testing.T) {
	resolver := fakeResolver{
		"rs100": {{Chrom: "1", Pos: 1000, Ref: "A", Alt: "G"}},
	}
	e := NewEngine(resolver, nil, testPanel(t, "chr1_1000_A_G", "chr2_2000_A_T", "chr3_3000_C_T", "chr4_4000_G_A"), panel.OrientationDrop)

	survives := validRecord("rs100")

	ambiguous := validRecord("2_2000_A_T")

	rare := validRecord("3_3000_C_T")
	rare.MAF = 0.001

	noStats := validRecord("4_4000_G_A")
	noStats.Beta = math.NaN()

	unknown := validRecord("rs99999999")

	var c qc.Counters
	kept := 0
	for _, rec := range []*sumstats.Record{survives, ambiguous, rare, noStats, unknown} {
		if e.Process(rec, &c) {
			kept++
		}
	}

	assert.Equal(t, 1, kept)
	assert.Equal(t, int64(1), c.Output)
	assert.Equal(t, int64(1), c.AmbiguousAllelePair)
	assert.Equal(t, int64(1), c.LowMAF)
	assert.Equal(t, int64(1), c.MissingEssentialStat)
	assert.Equal(t, int64(1), c.UnresolvedRsID)
	assert.Equal(t, int64(4), c.Dropped())
}
