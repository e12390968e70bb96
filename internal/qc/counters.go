// Package qc provides the quality-control filter chain and the per-run
// drop counters shared by every pipeline stage.
package qc

// Counters accumulates per-stage record counts for one run. Workers each
// own a private Counters value and the pipeline merges them at the end, so
// no locking is needed.
type Counters struct {
	Input  int64 // rows read from the input table
	Output int64 // records surviving every stage

	MalformedRow         int64 // unparsable rows skipped by the reader
	UnresolvedIdentifier int64 // identifiers matching neither accepted shape
	UnresolvedRsID       int64 // rsIDs absent from the reference index
	MultiAllelicSite     int64 // rsIDs with multiple index entries (kept, observed)
	UnmappedInterval     int64 // liftover positions falling in a chain gap
	MultiMappedInterval  int64 // liftover positions hitting multiple targets

	MissingEssentialStat int64
	LowConfidence        int64
	AmbiguousAllelePair  int64
	NonAutosomal         int64
	LowMAF               int64

	PanelMismatch      int64 // canonical key absent from the reference panel
	OrientationFlipped int64 // swapped-allele matches harmonized (flip policy)
}

// Merge adds o into c. Merging is associative and order-independent, so
// per-worker subtotals can be combined in any order.
func (c *Counters) Merge(o *Counters) {
	c.Input += o.Input
	c.Output += o.Output
	c.MalformedRow += o.MalformedRow
	c.UnresolvedIdentifier += o.UnresolvedIdentifier
	c.UnresolvedRsID += o.UnresolvedRsID
	c.MultiAllelicSite += o.MultiAllelicSite
	c.UnmappedInterval += o.UnmappedInterval
	c.MultiMappedInterval += o.MultiMappedInterval
	c.MissingEssentialStat += o.MissingEssentialStat
	c.LowConfidence += o.LowConfidence
	c.AmbiguousAllelePair += o.AmbiguousAllelePair
	c.NonAutosomal += o.NonAutosomal
	c.LowMAF += o.LowMAF
	c.PanelMismatch += o.PanelMismatch
	c.OrientationFlipped += o.OrientationFlipped
}

// Dropped returns the total number of records removed across all stages.
func (c *Counters) Dropped() int64 {
	return c.MalformedRow + c.UnresolvedIdentifier + c.UnresolvedRsID +
		c.UnmappedInterval + c.MultiMappedInterval +
		c.MissingEssentialStat + c.LowConfidence + c.AmbiguousAllelePair +
		c.NonAutosomal + c.LowMAF + c.PanelMismatch
}
