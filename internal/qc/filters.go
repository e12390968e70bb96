package qc

import "github.com/gwaskit/gwasnorm/internal/sumstats"

// Filter is a single pure drop predicate over a fully-resolved record.
// Filters are independent of one another; the chain order only decides
// which counter a record failing several filters is attributed to.
type Filter struct {
	Name string
	Drop func(r *sumstats.Record) bool
	hit  func(c *Counters)
}

// MinMAF is the inclusive minor-allele-frequency threshold: records with
// MAF exactly at the bound are kept.
const MinMAF = 0.01

// Chain returns the canonical filter order. The first failing filter in
// this order owns the drop count, keeping run logs reproducible.
func Chain() []Filter {
	return []Filter{
		{
			Name: "MissingEssentialStat",
			Drop: func(r *sumstats.Record) bool { return !r.HasEssentialStats() },
			hit:  func(c *Counters) { c.MissingEssentialStat++ },
		},
		{
			Name: "LowConfidenceVariant",
			Drop: func(r *sumstats.Record) bool { return r.LowConfidence },
			hit:  func(c *Counters) { c.LowConfidence++ },
		},
		{
			Name: "AmbiguousAllelePair",
			Drop: func(r *sumstats.Record) bool { return Ambiguous(r.Ref, r.Alt) },
			hit:  func(c *Counters) { c.AmbiguousAllelePair++ },
		},
		{
			Name: "NonAutosomal",
			Drop: func(r *sumstats.Record) bool { return r.Autosome() == 0 },
			hit:  func(c *Counters) { c.NonAutosomal++ },
		},
		{
			Name: "LowMinorAlleleFrequency",
			Drop: func(r *sumstats.Record) bool { return r.HasMAF && r.MAF < MinMAF },
			hit:  func(c *Counters) { c.LowMAF++ },
		},
	}
}

// Apply runs the chain over a record, charging at most one counter.
// Returns the name of the dropping filter, or "" if the record survives.
func Apply(filters []Filter, r *sumstats.Record, c *Counters) string {
	for _, f := range filters {
		if f.Drop(r) {
			f.hit(c)
			return f.Name
		}
	}
	return ""
}

// Ambiguous reports whether an allele pair is strand-ambiguous: the
// unordered pair {A,T} or {C,G}, which strand flipping cannot resolve.
func Ambiguous(ref, alt string) bool {
	if len(ref) != 1 || len(alt) != 1 {
		return false
	}
	switch ref + alt {
	case "AT", "TA", "CG", "GC":
		return true
	}
	return false
}
