package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// PosType is the coordinate type of a Set.
type PosType int64

// posMax is one past the largest position a Set can hold.
const posMax = PosType(math.MaxInt64 - 1)

// Entry is a single interval [Start0, End) on one chromosome, with 0-based
// coordinates.
type Entry struct {
	Chrom  string
	Start0 PosType
	End    PosType
}

// Set is a union of intervals.  Each chromosome maps to a flat slice of
// boundaries: interval k covers [b[2k], b[2k+1]).  A position is inside the set
// when the number of boundaries <= it is odd.
//
// A Set caches search state for the last chromosome queried, so one Set must
// not be queried from multiple goroutines; use Clone.
type Set struct {
	bounds map[string][]PosType

	primed    bool
	curChrom  string
	curBounds []PosType
	// curIdx is the number of boundaries <= curPos.
	curIdx int
	curPos PosType
	// ascending is false once a query went backwards on curChrom.
	ascending bool
}

// Contains reports whether the 0-based position pos0 of chrom is in the set.
// Queries that are nondecreasing in position within a chromosome are answered
// with a galloping search from the previous answer.
func (s *Set) Contains(chrom string, pos0 PosType) bool {
	if !s.primed || chrom != s.curChrom {
		s.primed = true
		s.curChrom = chrom
		s.curBounds = s.bounds[chrom]
		s.curIdx = upperBound(s.curBounds, pos0, 0)
		s.curPos = pos0
		s.ascending = true
		return s.curIdx&1 == 1
	}
	if s.curBounds == nil {
		return false
	}
	if s.ascending && pos0 >= s.curPos {
		s.curIdx = upperBound(s.curBounds, pos0, s.curIdx)
		s.curPos = pos0
		return s.curIdx&1 == 1
	}
	s.ascending = false
	return upperBound(s.curBounds, pos0, 0)&1 == 1
}

// HasChrom reports whether the set covers at least one base of chrom.
func (s *Set) HasChrom(chrom string) bool {
	return len(s.bounds[chrom]) > 0
}

// Chroms returns the chromosomes with at least one covered base, sorted.
func (s *Set) Chroms() []string {
	var chroms []string
	for c, b := range s.bounds {
		if len(b) > 0 {
			chroms = append(chroms, c)
		}
	}
	sort.Strings(chroms)
	return chroms
}

// Clone returns a Set that shares the intervals of s but has its own search
// state.
func (s *Set) Clone() *Set {
	return &Set{bounds: s.bounds}
}

// upperBound returns the number of elements of a that are <= x, assuming the
// answer is at least from.  It probes from, from+1, from+3, from+7, ... and
// then bisects.
func upperBound(a []PosType, x PosType, from int) int {
	lo, hi := from, len(a)
	step := 1
	for i := from; i < hi; {
		if a[i] > x {
			hi = i
			break
		}
		lo = i + 1
		i += step
		step *= 2
	}
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] > x {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// builder accumulates sorted intervals into a Set.
type builder struct {
	set        *Set
	chrom      string
	start, end PosType
	open       bool
	covered    PosType
}

func newBuilder() *builder {
	return &builder{set: &Set{bounds: make(map[string][]PosType)}}
}

func (b *builder) flush() {
	if b.open {
		b.set.bounds[b.chrom] = append(b.set.bounds[b.chrom], b.start, b.end)
		b.covered += b.end - b.start
		b.open = false
	}
}

func (b *builder) add(e Entry) error {
	if e.Start0 < 0 {
		return fmt.Errorf("interval: negative start %d on %s", e.Start0, e.Chrom)
	}
	if e.End < e.Start0 || e.End >= posMax {
		return fmt.Errorf("interval: invalid interval %s:[%d, %d)", e.Chrom, e.Start0, e.End)
	}
	if e.Chrom != b.chrom {
		b.flush()
		if _, ok := b.set.bounds[e.Chrom]; ok {
			return fmt.Errorf("interval: unsorted input (split chromosome %v)", e.Chrom)
		}
		// Registers the chromosome even when the interval is empty.
		b.set.bounds[e.Chrom] = nil
		b.chrom = e.Chrom
	}
	if e.End == e.Start0 {
		return nil
	}
	switch {
	case !b.open:
		b.start, b.end, b.open = e.Start0, e.End, true
	case e.Start0 < b.start:
		return fmt.Errorf("interval: unsorted input at %s:%d", e.Chrom, e.Start0)
	case e.Start0 > b.end:
		b.flush()
		b.start, b.end, b.open = e.Start0, e.End, true
	case e.End > b.end:
		b.end = e.End
	}
	return nil
}

func (b *builder) finish() *Set {
	b.flush()
	return b.set
}

// NewSetFromEntries builds a Set from entries sorted by chromosome (grouped)
// and start.
func NewSetFromEntries(entries []Entry) (*Set, error) {
	b := newBuilder()
	for _, e := range entries {
		if err := b.add(e); err != nil {
			return nil, err
		}
	}
	return b.finish(), nil
}

// NewSet reads a BED stream.  Only the first three columns are used; blank
// lines and "#", "track" and "browser" lines are skipped.
func NewSet(r io.Reader) (*Set, error) {
	b := newBuilder()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") || fields[0] == "track" || fields[0] == "browser" {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("interval: line %d has %d columns, expected at least 3", lineno, len(fields))
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("interval: line %d: %v", lineno, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("interval: line %d: %v", lineno, err)
		}
		if err := b.add(Entry{Chrom: fields[0], Start0: PosType(start), End: PosType(end)}); err != nil {
			return nil, fmt.Errorf("line %d: %v", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s := b.finish()
	log.Debug.Printf("BED loaded, %d base(s) covered", b.covered)
	return s, nil
}

// NewSetFromPath is NewSet on a local or remote path.  A ".gz" path is
// decompressed.
func NewSetFromPath(ctx context.Context, path string) (s *Set, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	r := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return NewSet(r)
}

// ParseRegion parses a region string of one of the forms
//   chrom:first-last   (1-based, inclusive)
//   chrom:pos          (1-based)
//   chrom
// and returns the equivalent 0-based half-open interval.  A bare chromosome
// covers all of it.
func ParseRegion(region string) (Entry, error) {
	if region == "" {
		return Entry{}, fmt.Errorf("interval: empty region")
	}
	colon := strings.LastIndexByte(region, ':')
	if colon < 0 {
		return Entry{Chrom: region, Start0: 0, End: posMax - 1}, nil
	}
	if colon == 0 {
		return Entry{}, fmt.Errorf("interval: region %q has no chromosome", region)
	}
	e := Entry{Chrom: region[:colon]}
	span := strings.Replace(region[colon+1:], ",", "", -1)
	first, last := span, span
	if dash := strings.IndexByte(span, '-'); dash >= 0 {
		first, last = span[:dash], span[dash+1:]
	}
	start1, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start1 <= 0 {
		return Entry{}, fmt.Errorf("interval: bad start in region %q", region)
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start1 || PosType(end) >= posMax {
		return Entry{}, fmt.Errorf("interval: bad range in region %q", region)
	}
	e.Start0, e.End = PosType(start1-1), PosType(end)
	return e, nil
}
