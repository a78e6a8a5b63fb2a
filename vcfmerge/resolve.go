// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vcfmerge

import (
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/grailbio/vcfmerge/natural"
)

// sortRecords orders a chromosome batch by POS, then by the natural key of the
// full line.  The sort is stable so equal lines keep batch order.
func sortRecords(recs []*vcf.Record) {
	keys := make([]natural.Key, len(recs))
	for i, r := range recs {
		keys[i] = natural.NewKey(r.Line())
	}
	sort.Stable(byPosKey{recs, keys})
}

type byPosKey struct {
	recs []*vcf.Record
	keys []natural.Key
}

func (b byPosKey) Len() int { return len(b.recs) }

func (b byPosKey) Less(i, j int) bool {
	if pi, pj := b.recs[i].Pos(), b.recs[j].Pos(); pi != pj {
		return pi < pj
	}
	return natural.Less(b.keys[i], b.keys[j])
}

func (b byPosKey) Swap(i, j int) {
	b.recs[i], b.recs[j] = b.recs[j], b.recs[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// resolver merges adjacent records that describe the same site.
type resolver struct {
	// samples are the target sample names compared for eligibility.
	samples             []string
	keepDifferentFormat bool
	stats               *ChromStats
}

// resolve walks a sorted batch with one cursor.  A record that merges into
// its left neighbor is dropped and the updated neighbor is compared with the
// next record, so a run at one site collapses into its first record.  recs is
// reused for the result.
func (rv *resolver) resolve(recs []*vcf.Record) []*vcf.Record {
	if len(recs) == 0 {
		return recs
	}
	out := recs[:0]
	cur := recs[0]
	rv.checkAlt(cur)
	for _, next := range recs[1:] {
		rv.checkAlt(next)
		if rv.merge(cur, next) {
			rv.stats.Merged++
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// merge folds b into a if they are the same site and may be combined.
func (rv *resolver) merge(a, b *vcf.Record) bool {
	if a.Pos() != b.Pos() || a.Chrom() != b.Chrom() {
		return false
	}
	if a.Ref() != b.Ref() {
		rv.checkRef(a, b)
		return false
	}
	if !rv.eligible(a, b) {
		return false
	}
	a.SetID(joinField(a.ID(), b.ID()))
	a.SetAlt(joinField(a.Alt(), b.Alt()))
	a.SetQual(minQual(a.Qual(), b.Qual()))
	a.SetInfo(mergeInfo(a.Info(), b.Info()))
	return true
}

// eligible applies the sample-data rule.  Records without per-sample data on
// either side are always eligible.  Otherwise the FORMAT fields and every
// target sample value must agree, unless keepDifferentFormat is off.
func (rv *resolver) eligible(a, b *vcf.Record) bool {
	if !a.HasFormat() || !b.HasFormat() || !rv.keepDifferentFormat {
		return true
	}
	if !a.FormatEqual(b) {
		return false
	}
	for _, name := range rv.samples {
		va, _ := a.Sample(name)
		vb, _ := b.Sample(name)
		if va != vb {
			return false
		}
	}
	return true
}

// checkRef reports differing REF alleles at one site.  A shorter REF must be
// a prefix of the longer one.
func (rv *resolver) checkRef(a, b *vcf.Record) {
	ra, rb := a.Ref(), b.Ref()
	switch {
	case len(ra) == len(rb):
		rv.stats.FieldCollisions++
		log.Error.Printf("%s:%d: REF %s and %s differ at the same position, records left unmerged", a.Chrom(), a.Pos(), ra, rb)
	case !strings.HasPrefix(ra, rb) && !strings.HasPrefix(rb, ra):
		rv.stats.RefInconsistencies++
		log.Error.Printf("%s:%d: REF %s and %s are inconsistent, shorter is not a prefix of longer", a.Chrom(), a.Pos(), ra, rb)
	}
}

// checkAlt reports a record whose ALT repeats its REF.
func (rv *resolver) checkAlt(r *vcf.Record) {
	if r.Alt() == r.Ref() {
		rv.stats.RefEqualsAlt++
		log.Error.Printf("%s:%d: ALT %s equals REF", r.Chrom(), r.Pos(), r.Alt())
	}
}

// joinField combines ID or ALT values.  Equal values are kept, a missing
// value yields to the other, and distinct values are joined left,right.
func joinField(a, b string) string {
	switch {
	case a == b:
		return a
	case a == vcf.Missing:
		return b
	case b == vcf.Missing:
		return a
	}
	return a + "," + b
}

// minQual combines QUAL values: a missing value yields to the other, and
// otherwise the numerically smaller is kept.  An unparsable value keeps a.
func minQual(a, b string) string {
	switch {
	case a == b:
		return a
	case a == vcf.Missing:
		return b
	case b == vcf.Missing:
		return a
	}
	qa, erra := strconv.ParseFloat(a, 64)
	qb, errb := strconv.ParseFloat(b, 64)
	if erra != nil || errb != nil || qa <= qb {
		return a
	}
	return b
}

// mergeInfo keeps entries whose key is on one side only or whose values agree
// on both sides.  Conflicting keys are dropped.  Order is a's entries
// followed by b's new keys.
func mergeInfo(a, b []vcf.InfoField) []vcf.InfoField {
	bi := make(map[string]vcf.InfoField, len(b))
	for _, f := range b {
		bi[f.Key] = f
	}
	ai := make(map[string]bool, len(a))
	merged := make([]vcf.InfoField, 0, len(a)+len(b))
	for _, f := range a {
		ai[f.Key] = true
		if g, ok := bi[f.Key]; ok && (g.Value != f.Value || g.Flag != f.Flag) {
			continue
		}
		merged = append(merged, f)
	}
	for _, f := range b {
		if !ai[f.Key] {
			merged = append(merged, f)
		}
	}
	return merged
}
