package liftover

import (
	"sort"
	"strings"
)

// Mapped is one target-assembly location for a lifted position. Chrom has
// no "chr" prefix; Pos is 1-based like the record positions it replaces.
type Mapped struct {
	Chrom string
	Pos   int64
}

// Map lifts a single 1-based position. The chromosome may carry a "chr"
// prefix or not. The result slice holds every distinct target location:
// empty means the position falls in a chain gap; more than one entry means
// the mapping is ambiguous and the caller should drop the record.
func (c *Chain) Map(chrom string, pos int64) []Mapped {
	blocks, ok := c.blocks[ucscName(chrom)]
	if !ok {
		return nil
	}
	maxEnd := c.maxEnd[ucscName(chrom)]

	// Blocks are half-open on 0-based coordinates.
	p := pos - 1

	// First block with srcStart > p; candidates are [0, hi).
	hi := sort.Search(len(blocks), func(i int) bool {
		return blocks[i].srcStart > p
	})

	var out []Mapped
	for i := hi - 1; i >= 0; i-- {
		// maxEnd[i] covers blocks[:i+1]; once it drops below the
		// position nothing earlier can contain it.
		if maxEnd[i] <= p {
			break
		}
		b := blocks[i]
		if p < b.srcStart || p >= b.srcEnd {
			continue
		}

		offset := p - b.srcStart
		var dst int64
		if b.reverse {
			// Stored target coordinates run along the reversed
			// strand; reflect back onto the forward strand.
			dst = b.dstSize - 1 - (b.dstStart + offset)
		} else {
			dst = b.dstStart + offset
		}

		m := Mapped{Chrom: strings.TrimPrefix(b.dstChrom, "chr"), Pos: dst + 1}
		if !containsMapped(out, m) {
			out = append(out, m)
		}
	}

	return out
}

func containsMapped(ms []Mapped, m Mapped) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}
