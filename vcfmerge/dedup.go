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
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/vcfmerge/encoding/vcf"
)

// dedup drops lines that are byte-identical to an earlier line, keeping the
// first occurrence and its source.  lines is filtered in place.
//
// layouts[i] identifies the output sample order of source i's columns.  Equal
// text carrying sample columns is a duplicate only between sources with the
// same layout.
func dedup(lines []rawLine, layouts []string) ([]rawLine, int) {
	// Lines are bucketed by hash; a bucket rarely holds more than one entry.
	seen := make(map[uint64][]int, len(lines))
	out := lines[:0]
	for _, line := range lines {
		h := seahash.Sum64(unsafe.StringToBytes(line.text))
		dup := false
		for _, i := range seen[h] {
			if out[i].text == line.text && (layouts[out[i].src] == layouts[line.src] || !hasSamples(line.text)) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], len(out))
		out = append(out, line)
	}
	return out, len(lines) - len(out)
}

func hasSamples(line string) bool {
	return strings.Count(line, "\t") >= vcf.FirstSampleIdx
}

// sampleLayouts returns the dedup layout key of each source's bound columns.
func sampleLayouts(columns [][]string) []string {
	layouts := make([]string, len(columns))
	for i, cols := range columns {
		layouts[i] = strings.Join(cols, "\t")
	}
	return layouts
}
