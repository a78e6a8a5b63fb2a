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
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/grailbio/vcfmerge/interval"
)

// merger holds the state of one Merge run that is fixed once the sources
// are indexed.
type merger struct {
	opts    Opts
	sources []*Source
	samples SampleSet
	// columns[i] names the sample columns of sources[i] after renaming.
	columns [][]string
	layouts []string
	filter  *interval.Set
	out     *output
}

// Merge combines opts.Inputs into one VCF.  Nothing is written unless every
// input exists, parses and carries the target samples.  On failure any
// partially written output file is removed.
func Merge(ctx context.Context, opts Opts) (stats Stats, err error) {
	start := time.Now()
	if len(opts.Inputs) == 0 {
		return stats, errors.E(errors.Invalid, "no input files")
	}
	if opts.Region != "" && opts.BedPath != "" {
		return stats, errors.E(errors.Invalid, "at most one of region and BED path may be set")
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultOpts.Parallelism
	}
	m := &merger{opts: opts, sources: make([]*Source, len(opts.Inputs))}
	defer m.closeSources(ctx)

	err = traverse.Limit(opts.Parallelism).Each(len(opts.Inputs), func(i int) error {
		var err error
		m.sources[i], err = openSource(ctx, opts.Inputs[i])
		return err
	})
	if err != nil {
		return stats, err
	}
	if opts.Verbose {
		log.Printf("indexed %d input file(s) in %v", len(m.sources), time.Since(start))
	}
	if err = m.bindSamples(); err != nil {
		return stats, err
	}
	if m.filter, err = loadFilter(ctx, opts); err != nil {
		return stats, err
	}
	if m.filter != nil && opts.Verbose {
		log.Printf("region filter covers %v", m.filter.Chroms())
	}

	compressed := compressOutput(opts.OutputFormat, opts.Output, m.sources[0].Compression)
	path := outputPath(opts.Output, compressed)
	if m.out, err = createOutput(ctx, path, compressed, opts.Parallelism); err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			m.out.abort(ctx)
		}
	}()

	stats.Sources = len(m.sources)
	stats.Samples = m.samples.Names
	if err = m.writeHeader(); err != nil {
		return stats, errors.E(err, "write header", path)
	}
	for _, chrom := range sortChroms(m.sources) {
		if m.filter != nil && !m.filter.HasChrom(chrom) {
			log.Debug.Printf("%s: outside region, skipped", chrom)
			continue
		}
		cs, err := m.mergeChrom(ctx, chrom)
		if err != nil {
			return stats, err
		}
		stats.add(cs)
		if opts.Verbose {
			log.Printf("%s: %d read, %d duplicate(s), %d merged, %d written", chrom, cs.Read, cs.Duplicates, cs.Merged, cs.Written)
		}
	}
	if err = m.out.close(ctx); err != nil {
		return stats, errors.E(err, "close", path)
	}
	if opts.MetricsPath != "" {
		if err = writeMetrics(ctx, opts.MetricsPath, stats); err != nil {
			return stats, err
		}
	}
	if opts.Verbose {
		log.Printf("--- %.3f seconds ---", time.Since(start).Seconds())
	}
	return stats, nil
}

func (m *merger) closeSources(ctx context.Context) {
	for _, s := range m.sources {
		if s == nil {
			continue
		}
		if err := s.Close(ctx); err != nil {
			log.Error.Printf("close %s: %v", s.Path, err)
		}
	}
}

// bindSamples resolves the target sample set and checks that every source
// can supply it.
func (m *merger) bindSamples() error {
	ss, err := ParseSampleSet(m.opts.Samples)
	if err != nil {
		return err
	}
	if len(ss.Names) == 0 {
		ss = unionSamples(m.sources)
	}
	m.samples = ss
	m.columns = make([][]string, len(m.sources))
	for i, src := range m.sources {
		if m.columns[i], err = ss.bind(src); err != nil {
			return err
		}
	}
	m.layouts = sampleLayouts(m.columns)
	log.Debug.Printf("output samples: %v", ss)
	return nil
}

func loadFilter(ctx context.Context, opts Opts) (*interval.Set, error) {
	switch {
	case opts.Region != "":
		e, err := interval.ParseRegion(opts.Region)
		if err != nil {
			return nil, errors.E(errors.Invalid, err)
		}
		return interval.NewSetFromEntries([]interval.Entry{e})
	case opts.BedPath != "":
		s, err := interval.NewSetFromPath(ctx, opts.BedPath)
		if err != nil {
			return nil, errors.E(err, "load BED", opts.BedPath)
		}
		return s, nil
	}
	return nil, nil
}

func (m *merger) writeHeader() error {
	if ff := fileFormat(m.sources); ff != "" {
		if err := m.out.writeLine(ff); err != nil {
			return err
		}
	}
	headers := make([]vcf.Header, len(m.sources))
	for i, s := range m.sources {
		headers[i] = s.Header
	}
	for _, l := range reconcileHeaders(headers) {
		if err := m.out.writeLine(l.Text); err != nil {
			return err
		}
	}
	return m.out.writeLine(m.samples.columnHeader().String())
}

// mergeChrom runs one chromosome through read, dedup, sort, resolve and
// project, then writes it.
func (m *merger) mergeChrom(ctx context.Context, chrom string) (ChromStats, error) {
	cs := ChromStats{Chrom: chrom}
	lines, filtered, err := readAll(ctx, m.sources, chrom, m.filter, m.opts.Parallelism)
	if err != nil {
		return cs, err
	}
	cs.Read, cs.Filtered = len(lines), filtered
	lines, cs.Duplicates = dedup(lines, m.layouts)

	recs := make([]*vcf.Record, len(lines))
	for i, l := range lines {
		if recs[i], err = vcf.ParseRecord(l.text, m.columns[l.src]); err != nil {
			return cs, errors.E(errors.Invalid, err, m.sources[l.src].Path)
		}
	}
	sortRecords(recs)
	rv := resolver{samples: m.samples.Names, keepDifferentFormat: m.opts.KeepDifferentFormat, stats: &cs}
	recs = rv.resolve(recs)

	digest := newDigest()
	for _, r := range recs {
		r.Project(m.samples.Names)
		line := r.Line()
		if err := m.out.writeLine(line); err != nil {
			return cs, errors.E(err, fmt.Sprintf("write %s", chrom))
		}
		digest.Write([]byte(line)) // nolint: errcheck
		digest.Write([]byte{'\n'}) // nolint: errcheck
	}
	cs.Written = len(recs)
	cs.Digest = digest.Sum64()
	log.Debug.Printf("%s: %+v", chrom, cs)
	return cs, nil
}
