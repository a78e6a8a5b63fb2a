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
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceWithSamples(path string, samples ...string) *Source {
	return &Source{Path: path, Header: vcf.Header{Columns: vcf.ColumnHeader{HasFormat: true, Samples: samples}}}
}

func TestParseSampleSet(t *testing.T) {
	ss, err := ParseSampleSet("NORMAL, T1:TUMOR,X:X")
	require.NoError(t, err)
	expect.EQ(t, ss.Names, []string{"NORMAL", "TUMOR", "X"})
	expect.EQ(t, ss.alias, map[string]string{"TUMOR": "T1"})
	expect.EQ(t, ss.String(), "NORMAL,T1:TUMOR,X")

	ss, err = ParseSampleSet("")
	require.NoError(t, err)
	expect.EQ(t, len(ss.Names), 0)

	for _, bad := range []string{"A,,B", "A,A", "A:", ":B", "A:B,B", "A:B,A"} {
		_, err := ParseSampleSet(bad)
		assert.Error(t, err, "samples: %q", bad)
		expect.True(t, errors.Is(errors.Invalid, err))
	}
}

func TestUnionSamples(t *testing.T) {
	ss := unionSamples([]*Source{
		sourceWithSamples("a", "S2", "S1"),
		sourceWithSamples("b", "S1", "S3"),
		sourceWithSamples("c"),
	})
	expect.EQ(t, ss.Names, []string{"S2", "S1", "S3"})
}

func TestBind(t *testing.T) {
	ss, err := ParseSampleSet("A:D,B:E,C")
	require.NoError(t, err)

	expect.EQ(t, ss.Names, []string{"D", "E", "C"})

	cols, err := ss.bind(sourceWithSamples("v1", "A", "B", "C"))
	require.NoError(t, err)
	expect.EQ(t, cols, []string{"D", "E", "C"})

	cols, err = ss.bind(sourceWithSamples("v2", "C", "D", "E", "F"))
	require.NoError(t, err)
	expect.EQ(t, cols, []string{"C", "D", "E", "F"})

	_, err = ss.bind(sourceWithSamples("v3", "A", "E"))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Precondition, err))
}

func TestBindProjectsRenamedColumns(t *testing.T) {
	ss, err := ParseSampleSet("D:A")
	require.NoError(t, err)
	cols, err := ss.bind(sourceWithSamples("v2", "C", "D"))
	require.NoError(t, err)
	r := parse(t, "chr1 1 . A G . . . GT 0/0 0/1", cols...)
	r.Project(ss.Names)
	expect.EQ(t, r.Line(), tabs("chr1 1 . A G . . . GT 0/1"))
	expect.EQ(t, ss.columnHeader().String(), "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA")
}
