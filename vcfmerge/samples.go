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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/vcfmerge/encoding/vcf"
)

// SampleSet is the ordered list of output sample columns.
type SampleSet struct {
	// Names are the output column names.
	Names []string
	// alias maps an output name to the source column that supplies it when
	// the source has no column of that name.
	alias map[string]string
}

// ParseSampleSet parses a comma-separated list of names or "S:T" pairs.  A
// pair names output column T, filled from column S of any source that has no
// column T.  An empty string yields an empty set.
func ParseSampleSet(s string) (SampleSet, error) {
	var ss SampleSet
	if strings.TrimSpace(s) == "" {
		return ss, nil
	}
	seen := make(map[string]bool)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		name, from := entry, ""
		if colon := strings.IndexByte(entry, ':'); colon >= 0 {
			from, name = entry[:colon], entry[colon+1:]
			if from == "" {
				return ss, errors.E(errors.Invalid, fmt.Sprintf("sample pair %q has an empty source name", entry))
			}
		}
		if name == "" {
			return ss, errors.E(errors.Invalid, fmt.Sprintf("empty sample name in %q", s))
		}
		if seen[name] {
			return ss, errors.E(errors.Invalid, fmt.Sprintf("sample %s listed twice", name))
		}
		seen[name] = true
		ss.Names = append(ss.Names, name)
		if from != "" && from != name {
			if ss.alias == nil {
				ss.alias = make(map[string]string)
			}
			ss.alias[name] = from
		}
	}
	for name, from := range ss.alias {
		if seen[from] {
			return ss, errors.E(errors.Invalid, fmt.Sprintf("sample %s is both an output name and the source of %s", from, name))
		}
	}
	return ss, nil
}

// unionSamples collects the sample columns of all sources, in first-seen
// order.
func unionSamples(sources []*Source) SampleSet {
	var ss SampleSet
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, name := range src.Samples() {
			if !seen[name] {
				seen[name] = true
				ss.Names = append(ss.Names, name)
			}
		}
	}
	return ss
}

func (ss SampleSet) String() string {
	parts := make([]string, len(ss.Names))
	for i, name := range ss.Names {
		parts[i] = name
		if from, ok := ss.alias[name]; ok {
			parts[i] = from + ":" + name
		}
	}
	return strings.Join(parts, ",")
}

// bind maps the sample columns of src to output names.  The result has one
// entry per column of src; a column that supplies no output sample keeps its
// own name.  A target sample that src cannot supply is a Precondition error.
func (ss SampleSet) bind(src *Source) ([]string, error) {
	cols := src.Samples()
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c] = i
	}
	names := append([]string(nil), cols...)
	for _, name := range ss.Names {
		if _, ok := pos[name]; ok {
			continue
		}
		from, ok := ss.alias[name]
		if !ok {
			return nil, errors.E(errors.Precondition, fmt.Sprintf("%s does not have sample %s (samples: %s)", src.Path, name, strings.Join(cols, ",")))
		}
		i, ok := pos[from]
		if !ok {
			return nil, errors.E(errors.Precondition, fmt.Sprintf("%s does not have sample %s or %s (samples: %s)", src.Path, name, from, strings.Join(cols, ",")))
		}
		names[i] = name
	}
	return names, nil
}

// columnHeader returns the output "#CHROM" line for the set.
func (ss SampleSet) columnHeader() vcf.ColumnHeader {
	return vcf.ColumnHeader{HasFormat: len(ss.Names) > 0, Samples: ss.Names}
}
