// Package liftover translates genomic coordinates between assemblies using
// UCSC chain files.
package liftover

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// block is one gapless aligned segment of a chain: src positions
// [srcStart, srcEnd) map linearly onto the target assembly. For reverse
// chains the stored target coordinates are on the reversed query strand and
// are reflected through qSize at mapping time.
type block struct {
	srcStart int64
	srcEnd   int64
	dstChrom string
	dstStart int64
	dstSize  int64 // target chromosome size, needed for reverse chains
	reverse  bool
}

// Chain holds a parsed chain file: per source chromosome, every aligned
// block, indexed for containment queries. Read-only after Load.
type Chain struct {
	blocks map[string][]block  // sorted by srcStart
	maxEnd map[string][]int64  // maxEnd[c][i] = max srcEnd over blocks[c][:i+1]
}

// ParseError reports a malformed chain file. It is fatal to the run.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chain parse error at line %d: %s", e.Line, e.Message)
}

// Load reads a chain file (plain or gzipped) from disk.
func Load(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Parse(r)
}

// Parse reads the UCSC chain format: a header line per chain
//
//	chain score tName tSize tStrand tStart tEnd qName qSize qStrand qStart qEnd id
//
// followed by alignment data lines "size dt dq" (the final line has only
// size), with chains separated by blank lines. tStrand is always "+"; a
// "-" qStrand places target coordinates on the reversed strand.
func Parse(r io.Reader) (*Chain, error) {
	c := &Chain{blocks: make(map[string][]block), maxEnd: make(map[string][]int64)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		lineNo   int
		inChain  bool
		srcChrom string
		dstChrom string
		dstSize  int64
		reverse  bool
		srcCur   int64
		dstCur   int64
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			inChain = false
			continue
		}

		fields := strings.Fields(line)

		if fields[0] == "chain" {
			if len(fields) < 12 {
				return nil, &ParseError{Line: lineNo, Message: "chain header has too few fields"}
			}
			tStart, err1 := strconv.ParseInt(fields[5], 10, 64)
			qSize, err2 := strconv.ParseInt(fields[8], 10, 64)
			qStart, err3 := strconv.ParseInt(fields[10], 10, 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, &ParseError{Line: lineNo, Message: "non-numeric chain header field"}
			}
			if fields[4] != "+" {
				return nil, &ParseError{Line: lineNo, Message: "reference strand must be +"}
			}

			srcChrom = fields[2]
			dstChrom = fields[7]
			dstSize = qSize
			reverse = fields[9] == "-"
			srcCur = tStart
			dstCur = qStart
			inChain = true
			continue
		}

		if !inChain {
			return nil, &ParseError{Line: lineNo, Message: "alignment data outside a chain"}
		}

		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Message: fmt.Sprintf("invalid block size %q", fields[0])}
		}
		if size > 0 {
			c.blocks[srcChrom] = append(c.blocks[srcChrom], block{
				srcStart: srcCur,
				srcEnd:   srcCur + size,
				dstChrom: dstChrom,
				dstStart: dstCur,
				dstSize:  dstSize,
				reverse:  reverse,
			})
		}

		if len(fields) >= 3 {
			dt, err1 := strconv.ParseInt(fields[1], 10, 64)
			dq, err2 := strconv.ParseInt(fields[2], 10, 64)
			if err1 != nil || err2 != nil {
				return nil, &ParseError{Line: lineNo, Message: "invalid alignment gap fields"}
			}
			srcCur += size + dt
			dstCur += size + dq
		} else {
			// Final block of this chain.
			inChain = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chain file: %w", err)
	}
	if len(c.blocks) == 0 {
		return nil, &ParseError{Line: lineNo, Message: "no alignment blocks found"}
	}

	c.index()
	return c, nil
}

// index sorts blocks per chromosome and builds the prefix-max arrays used
// to prune containment scans.
func (c *Chain) index() {
	for chrom, blocks := range c.blocks {
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].srcStart != blocks[j].srcStart {
				return blocks[i].srcStart < blocks[j].srcStart
			}
			return blocks[i].srcEnd < blocks[j].srcEnd
		})
		maxEnd := make([]int64, len(blocks))
		for i, b := range blocks {
			maxEnd[i] = b.srcEnd
			if i > 0 && maxEnd[i-1] > maxEnd[i] {
				maxEnd[i] = maxEnd[i-1]
			}
		}
		c.blocks[chrom] = blocks
		c.maxEnd[chrom] = maxEnd
	}
}

// Chromosomes returns the source chromosome names present in the chain.
func (c *Chain) Chromosomes() []string {
	names := make([]string, 0, len(c.blocks))
	for chrom := range c.blocks {
		names = append(names, chrom)
	}
	sort.Strings(names)
	return names
}

// HasChromosome reports whether the chain covers the given source
// chromosome ("chr" prefix added if absent, matching UCSC naming).
func (c *Chain) HasChromosome(chrom string) bool {
	_, ok := c.blocks[ucscName(chrom)]
	return ok
}

func ucscName(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom
	}
	return "chr" + chrom
}
