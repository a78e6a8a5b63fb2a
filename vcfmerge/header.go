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

	"github.com/grailbio/vcfmerge/encoding/vcf"
)

// reconcileHeaders combines the "##" lines of all sources.  Lines with an ID
// are unique by (tag, ID), keeping the first seen; other lines are unique by
// text.  The ID and plain lines are sorted by text, contig lines follow in
// first-seen order, and the result is stably grouped by tag.
func reconcileHeaders(headers []vcf.Header) []vcf.HeaderLine {
	var lines, contigs []vcf.HeaderLine
	seen := make(map[string]bool)
	seenContig := make(map[string]bool)
	for _, h := range headers {
		for _, l := range h.Lines {
			if l.IsContig() {
				if !seenContig[l.Text] {
					seenContig[l.Text] = true
					contigs = append(contigs, l)
				}
				continue
			}
			if k := l.Key(); !seen[k] {
				seen[k] = true
				lines = append(lines, l)
			}
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Text < lines[j].Text })
	lines = append(lines, contigs...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Tag < lines[j].Tag })
	return lines
}

// fileFormat returns the "##fileformat" line of the first source.
func fileFormat(sources []*Source) string {
	if len(sources) == 0 {
		return ""
	}
	return sources[0].Header.FileFormat
}
