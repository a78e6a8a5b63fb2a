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

package main

/*
bio-vcf-merge combines two or more VCF files into one.  Records from all
inputs are deduplicated and ordered, records describing the same site are
merged field by field, and the sample columns are rewritten to one target
sample list.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/vcfmerge/vcfmerge"
)

// inputList collects repeated -i flags.
type inputList []string

func (l *inputList) String() string { return strings.Join(*l, ",") }

func (l *inputList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	inputs      inputList
	samples     = flag.String("s", vcfmerge.DefaultOpts.Samples, "Comma-separated output samples.  A:D names output column D, taken from column A of any input without a column D.  Default: every sample of every input")
	format      = flag.String("f", "same", "Output compression: compressed, uncompressed or same (as the first input; uncompressed on stdout)")
	out         = flag.String("o", vcfmerge.DefaultOpts.Output, "Output path; stdout if empty.  The suffix is adjusted to the compression")
	keep        = flag.Bool("k", vcfmerge.DefaultOpts.KeepDifferentFormat, "Keep records at one site separate when their FORMAT or sample values differ")
	verbose     = flag.Bool("verbose", vcfmerge.DefaultOpts.Verbose, "Log progress and timing to stderr")
	parallelism = flag.Int("parallelism", vcfmerge.DefaultOpts.Parallelism, "Maximum number of inputs read concurrently")
	region      = flag.String("region", vcfmerge.DefaultOpts.Region, "Restrict output to <chrom>, <chrom>:<1-based pos> or <chrom>:<1-based first>-<last>; excludes -bed")
	bedPath     = flag.String("bed", vcfmerge.DefaultOpts.BedPath, "Restrict output to the intervals of this BED file; excludes -region")
	metricsPath = flag.String("metrics", vcfmerge.DefaultOpts.MetricsPath, "Write per-chromosome counts to this TSV path")
)

func init() {
	flag.Var(&inputs, "i", "Input VCF path, plain, gzip or bgzip; repeat for each input.  Positional arguments are also taken as inputs")
}

func bioVCFMergeUsage() {
	fmt.Printf("Usage: %s -i a.vcf[.gz] -i b.vcf[.gz] [-i ...] [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioVCFMergeUsage
	shutdown := grail.Init()
	defer shutdown()

	paths := append([]string(nil), inputs...)
	paths = append(paths, flag.Args()...)
	if len(paths) == 0 {
		log.Fatalf("no input files; use -i (see -help)")
	}
	outputFormat, err := vcfmerge.ParseOutputFormat(*format)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := vcfmerge.Opts{
		Inputs:              paths,
		Samples:             *samples,
		KeepDifferentFormat: *keep,
		OutputFormat:        outputFormat,
		Output:              *out,
		Verbose:             *verbose,
		Parallelism:         *parallelism,
		Region:              *region,
		BedPath:             *bedPath,
		MetricsPath:         *metricsPath,
	}
	ctx := vcontext.Background()
	stats, err := vcfmerge.Merge(ctx, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	t := stats.Total
	log.Debug.Printf("%d input(s), %d record(s) read, %d duplicate(s), %d merged, %d written",
		stats.Sources, t.Read, t.Duplicates, t.Merged, t.Written)
	if n := t.RefInconsistencies + t.FieldCollisions + t.RefEqualsAlt; n > 0 {
		log.Printf("%d record warning(s); see the error log", n)
	}
}
