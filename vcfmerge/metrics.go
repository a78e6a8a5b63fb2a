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
	"context"
	"fmt"
	"hash"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/minio/highwayhash"
)

// ChromStats counts what happened to one chromosome batch.
type ChromStats struct {
	Chrom string
	// Read counts lines read from all sources, after the region filter.
	Read int
	// Filtered counts lines dropped by the region filter.
	Filtered   int
	Duplicates int
	// Merged counts records folded into a neighbor.
	Merged int
	// RefInconsistencies counts same-site REF pairs where the shorter is not a
	// prefix of the longer.
	RefInconsistencies int
	// FieldCollisions counts same-site REF pairs of equal length.
	FieldCollisions int
	// RefEqualsAlt counts records whose ALT repeats REF.
	RefEqualsAlt int
	Written      int
	// Digest is the highwayhash-64 of the emitted body lines.
	Digest uint64
}

// Stats summarizes a Merge run.
type Stats struct {
	Sources int
	Samples []string
	Chroms  []ChromStats
	Total   ChromStats
}

func (s *Stats) add(c ChromStats) {
	s.Chroms = append(s.Chroms, c)
	t := &s.Total
	t.Read += c.Read
	t.Filtered += c.Filtered
	t.Duplicates += c.Duplicates
	t.Merged += c.Merged
	t.RefInconsistencies += c.RefInconsistencies
	t.FieldCollisions += c.FieldCollisions
	t.RefEqualsAlt += c.RefEqualsAlt
	t.Written += c.Written
	t.Digest ^= c.Digest
}

// digestKey is the highwayhash key.  The digest identifies content, so any
// fixed key works.
var digestKey = make([]byte, highwayhash.Size)

func newDigest() hash.Hash64 {
	h, err := highwayhash.New64(digestKey)
	if err != nil {
		panic(err)
	}
	return h
}

var metricsColumns = []string{"CHROM", "READ", "FILTERED", "DUPLICATES", "MERGED", "REF_INCONSISTENT", "REF_COLLISION", "REF_EQ_ALT", "WRITTEN", "DIGEST"}

// writeMetrics writes one TSV row per chromosome and a final "total" row.
func writeMetrics(ctx context.Context, path string, stats Stats) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create metrics file:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	for i, col := range metricsColumns {
		if i == 0 {
			w.WriteString("#" + col)
		} else {
			w.WriteString(col)
		}
	}
	if err = w.EndLine(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	total := stats.Total
	total.Chrom = "total"
	for _, c := range append(stats.Chroms, total) {
		w.WriteString(c.Chrom)
		w.WriteInt64(int64(c.Read))
		w.WriteInt64(int64(c.Filtered))
		w.WriteInt64(int64(c.Duplicates))
		w.WriteInt64(int64(c.Merged))
		w.WriteInt64(int64(c.RefInconsistencies))
		w.WriteInt64(int64(c.FieldCollisions))
		w.WriteInt64(int64(c.RefEqualsAlt))
		w.WriteInt64(int64(c.Written))
		w.WriteString(fmt.Sprintf("%016x", c.Digest))
		if err = w.EndLine(); err != nil {
			return errors.E(err, "error writing to metrics file:", path)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	return nil
}
