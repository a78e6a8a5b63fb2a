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

package natural

import (
	"sort"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"chr2", "chr10", -1},
		{"chr10", "chr2", 1},
		{"chr1", "chr1", 0},
		{"chr9", "chrX", -1},
		{"chrX", "chrY", -1},
		{"1", "2", -1},
		{"2", "10", -1},
		{"chr1", "chr1a", -1},
		{"", "a", -1},
		{"a", "", 1},
		{"", "", 0},
		// Numerically equal runs fall back to the raw text.
		{"chr01", "chr1", -1},
		{"chr1", "chr01", 1},
		{"12345678901234567890", "12345678901234567891", -1},
		{"chr1\t100", "chr1\t99", 1},
		{"chr1\t100\t.", "chr1\t100\trs1", -1},
	}
	for _, tt := range tests {
		expect.EQ(t, CompareStrings(tt.a, tt.b), tt.want, "%q vs %q", tt.a, tt.b)
	}
}

func TestNewKeyRuns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"chr1", []string{"chr", "1"}},
		{"10", []string{"", "10"}},
		{"a007b", []string{"a", "7", "b"}},
		{"x000", []string{"x", "0"}},
	}
	for _, tt := range tests {
		k := NewKey(tt.in)
		expect.EQ(t, k.runs, tt.want)
		expect.EQ(t, k.String(), tt.in)
	}
}

func TestSortChromosomes(t *testing.T) {
	labels := []string{"chrX", "chr10", "chr2", "chrM", "chr1", "chr22", "chr11"}
	keys := make([]Key, len(labels))
	for i, l := range labels {
		keys[i] = NewKey(l)
	}
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
	var got []string
	for _, k := range keys {
		got = append(got, k.String())
	}
	expect.EQ(t, got, []string{"chr1", "chr2", "chr10", "chr11", "chr22", "chrM", "chrX"})
}
