// Package normalize orchestrates the summary-statistics normalization
// pipeline: identifier resolution, liftover, QC filtering and the
// reference-panel join.
package normalize

import (
	"github.com/gwaskit/gwasnorm/internal/dbsnp"
	"github.com/gwaskit/gwasnorm/internal/liftover"
	"github.com/gwaskit/gwasnorm/internal/panel"
	"github.com/gwaskit/gwasnorm/internal/qc"
	"github.com/gwaskit/gwasnorm/internal/sumstats"
)

// RsIDResolver looks up the canonical location and alleles for an rsID.
// Implemented by *dbsnp.Index; tests substitute in-memory fakes.
type RsIDResolver interface {
	Lookup(rsid string) []dbsnp.Entry
}

// CoordinateMapper lifts a source-assembly position onto the target
// assembly. Implemented by *liftover.Chain; tests substitute fakes.
type CoordinateMapper interface {
	Map(chrom string, pos int64) []liftover.Mapped
}

// Engine resolves, filters and panel-joins individual records. All fields
// are read-only during processing, so one Engine is shared by every worker.
type Engine struct {
	Index   RsIDResolver
	Mapper  CoordinateMapper // nil when the input is already on the target assembly
	Panel   *panel.Set
	Policy  panel.OrientationPolicy
	filters []qc.Filter
}

// NewEngine builds an Engine with the canonical QC filter chain.
func NewEngine(index RsIDResolver, mapper CoordinateMapper, set *panel.Set, policy panel.OrientationPolicy) *Engine {
	return &Engine{
		Index:   index,
		Mapper:  mapper,
		Panel:   set,
		Policy:  policy,
		filters: qc.Chain(),
	}
}

// Process runs one record through resolution, QC and the panel join,
// charging drops to c. Returns true when the record survives; surviving
// records have canonical (chrom, pos, ref, alt) on the target assembly.
func (e *Engine) Process(rec *sumstats.Record, c *qc.Counters) bool {
	if !e.resolve(rec, c) {
		return false
	}
	if name := qc.Apply(e.filters, rec, c); name != "" {
		return false
	}
	if !e.join(rec, c) {
		return false
	}
	c.Output++
	return true
}

// resolve routes the record by identifier class and fills in its canonical
// coordinates.
func (e *Engine) resolve(rec *sumstats.Record, c *qc.Counters) bool {
	switch sumstats.Classify(rec.ID) {
	case sumstats.ClassRsID:
		return e.resolveRsID(rec, c)
	case sumstats.ClassCoordinate:
		return e.resolveCoordinate(rec, c)
	}
	c.UnresolvedIdentifier++
	return false
}

// resolveRsID resolves via the reference index. dbSNP positions are
// already on the target assembly, so no liftover is involved.
func (e *Engine) resolveRsID(rec *sumstats.Record, c *qc.Counters) bool {
	rsid := sumstats.ExtractRsID(rec.ID)
	entries := e.Index.Lookup(rsid)
	if len(entries) == 0 {
		c.UnresolvedRsID++
		return false
	}
	if len(entries) > 1 {
		c.MultiAllelicSite++
	}

	entry := pickEntry(entries, rec)
	rec.Chrom = sumstats.NormalizeChrom(entry.Chrom)
	rec.Pos = entry.Pos
	if !sameAllelePair(rec, entry) {
		// Record declared different (or no) alleles; adopt the index's.
		rec.Ref = entry.Ref
		rec.Alt = entry.Alt
	}
	return true
}

// pickEntry selects among multi-allelic entries: the one whose allele pair
// matches the record wins, else the first in dataset order. The dataset
// order is fixed, so repeated runs pick the same entry.
func pickEntry(entries []dbsnp.Entry, rec *sumstats.Record) dbsnp.Entry {
	for _, e := range entries {
		if sameAllelePair(rec, e) {
			return e
		}
	}
	return entries[0]
}

// sameAllelePair reports whether the record's alleles are the entry's,
// in either orientation.
func sameAllelePair(rec *sumstats.Record, e dbsnp.Entry) bool {
	if rec.Ref == "" || rec.Alt == "" {
		return false
	}
	return (rec.Ref == e.Ref && rec.Alt == e.Alt) ||
		(rec.Ref == e.Alt && rec.Alt == e.Ref)
}

// resolveCoordinate parses the coordinate identifier and lifts it onto the
// target assembly when the input declares a different build.
func (e *Engine) resolveCoordinate(rec *sumstats.Record, c *qc.Counters) bool {
	chrom, pos, ref, alt, ok := sumstats.ParseCoordinateID(rec.ID)
	if !ok {
		c.UnresolvedIdentifier++
		return false
	}
	rec.Chrom = chrom
	rec.Pos = pos
	rec.Ref = ref
	rec.Alt = alt

	if e.Mapper == nil {
		return true
	}

	mapped := e.Mapper.Map(chrom, pos)
	switch len(mapped) {
	case 0:
		c.UnmappedInterval++
		return false
	case 1:
		rec.Chrom = sumstats.NormalizeChrom(mapped[0].Chrom)
		rec.Pos = mapped[0].Pos
		return true
	}
	c.MultiMappedInterval++
	return false
}

// join restricts the record to the reference panel, applying the
// configured orientation policy on swapped-allele matches.
func (e *Engine) join(rec *sumstats.Record, c *qc.Counters) bool {
	if e.Panel == nil {
		return true
	}
	if e.Panel.Contains(rec.Key()) {
		return true
	}
	if e.Policy == panel.OrientationFlip && e.Panel.Contains(rec.SwappedKey()) {
		rec.Ref, rec.Alt = rec.Alt, rec.Ref
		rec.Beta = -rec.Beta
		if rec.HasMAF {
			rec.MAF = 1 - rec.MAF
		}
		c.OrientationFlipped++
		return true
	}
	c.PanelMismatch++
	return false
}
