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
	"fmt"
	"strings"
)

// OutputFormat selects output compression.
type OutputFormat int

const (
	// SameAsInput matches the compression of the first input.  When writing to
	// stdout it means uncompressed.
	SameAsInput OutputFormat = iota
	// Compressed writes BGZF.
	Compressed
	// Uncompressed writes plain text.
	Uncompressed
)

func (f OutputFormat) String() string {
	switch f {
	case SameAsInput:
		return "same"
	case Compressed:
		return "compressed"
	case Uncompressed:
		return "uncompressed"
	}
	return fmt.Sprintf("OutputFormat(%d)", int(f))
}

// ParseOutputFormat parses the -f flag.  Single-letter abbreviations are
// accepted.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "same", "s", "same_as_input":
		return SameAsInput, nil
	case "compressed", "c", "z", "gz":
		return Compressed, nil
	case "uncompressed", "u", "v", "vcf":
		return Uncompressed, nil
	}
	return SameAsInput, fmt.Errorf("unknown output format %q: want one of compressed, uncompressed, same", s)
}

// Opts configures Merge.
type Opts struct {
	// Inputs lists the VCF paths to combine.  At least one is required.
	Inputs []string
	// Samples is the comma-separated target sample list.  An entry "S:T" names
	// output column T, filled from a source's column T when present and from
	// its column S otherwise.  Empty means the union of all input samples in
	// first-seen order.
	Samples string
	// KeepDifferentFormat keeps records at one position separate when their
	// FORMAT or target sample values differ.
	KeepDifferentFormat bool
	OutputFormat        OutputFormat
	// Output is the destination path.  Empty writes to stdout.
	Output  string
	Verbose bool
	// Parallelism bounds the number of sources read concurrently.
	Parallelism int
	// Region restricts output to one samtools-style region.
	Region string
	// BedPath restricts output to the intervals of a BED file.
	BedPath string
	// MetricsPath, if set, receives per-chromosome counts as TSV.
	MetricsPath string
}

// DefaultOpts holds the defaults used by the command-line front end.
var DefaultOpts = Opts{
	OutputFormat: SameAsInput,
	Parallelism:  10,
}
