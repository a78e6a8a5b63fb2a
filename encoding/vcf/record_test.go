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

package vcf

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSampleLine = "chr1\t100\trs1\tA\tG\t50\tPASS\tDP=10;SOMATIC\tGT:DP\t0/1:10\t1/1:7"

func TestParseRecord(t *testing.T) {
	r, err := ParseRecord(twoSampleLine+"\n", []string{"S1", "S2"})
	require.NoError(t, err)
	expect.EQ(t, r.Chrom(), "chr1")
	expect.EQ(t, r.Pos(), int64(100))
	expect.EQ(t, r.ID(), "rs1")
	expect.EQ(t, r.Ref(), "A")
	expect.EQ(t, r.Alt(), "G")
	expect.EQ(t, r.Qual(), "50")
	expect.EQ(t, r.Filter(), "PASS")
	expect.EQ(t, r.Info(), []InfoField{{Key: "DP", Value: "10"}, {Key: "SOMATIC", Flag: true}})
	expect.EQ(t, r.Format(), []string{"GT", "DP"})
	v, ok := r.Sample("S2")
	expect.True(t, ok)
	expect.EQ(t, v, "1/1:7")
	expect.EQ(t, r.SampleNames(), []string{"S1", "S2"})
	expect.False(t, r.Dirty())
	expect.EQ(t, r.Line(), twoSampleLine)
}

func TestParseRecordErrors(t *testing.T) {
	_, err := ParseRecord("chr1\t100\t.\tA", nil)
	assert.Error(t, err)
	_, err = ParseRecord("chr1\tx\t.\tA\tG\t.\t.\t.", nil)
	assert.Error(t, err)
	_, err = ParseRecord(twoSampleLine, []string{"S1"})
	assert.Error(t, err)
}

func TestParseRecordSitesOnly(t *testing.T) {
	r, err := ParseRecord("chr2\t5\t.\tC\tT\t.\t.\t.", nil)
	require.NoError(t, err)
	expect.False(t, r.HasFormat())
	expect.EQ(t, len(r.Info()), 0)
	r.SetID("rs9")
	expect.EQ(t, r.Line(), "chr2\t5\trs9\tC\tT\t.\t.\t.")
}

func TestSettersRegenerate(t *testing.T) {
	r, err := ParseRecord(twoSampleLine, []string{"S1", "S2"})
	require.NoError(t, err)
	r.SetAlt("G")
	expect.False(t, r.Dirty())
	r.SetAlt("G,T")
	r.SetQual("30")
	r.SetInfo([]InfoField{{Key: "SOMATIC", Flag: true}})
	expect.True(t, r.Dirty())
	expect.EQ(t, r.Line(), "chr1\t100\trs1\tA\tG,T\t30\tPASS\tSOMATIC\tGT:DP\t0/1:10\t1/1:7")
	expect.False(t, r.Dirty())
	r.SetInfo(nil)
	expect.EQ(t, r.Line(), "chr1\t100\trs1\tA\tG,T\t30\tPASS\t.\tGT:DP\t0/1:10\t1/1:7")
}

func TestMissingSample(t *testing.T) {
	expect.EQ(t, MissingSample(nil), ".")
	expect.EQ(t, MissingSample([]string{"GT"}), ".")
	expect.EQ(t, MissingSample([]string{"GT", "DP", "AD"}), ".:.:.")
}

func TestProject(t *testing.T) {
	r, err := ParseRecord(twoSampleLine, []string{"S1", "S2"})
	require.NoError(t, err)
	r.Project([]string{"S1", "S2"})
	expect.False(t, r.Dirty())

	r.Project([]string{"S2", "S3", "S1"})
	expect.EQ(t, r.Line(), "chr1\t100\trs1\tA\tG\t50\tPASS\tDP=10;SOMATIC\tGT:DP\t1/1:7\t.:.\t0/1:10")

	r.Project(nil)
	expect.EQ(t, r.Line(), "chr1\t100\trs1\tA\tG\t50\tPASS\tDP=10;SOMATIC")

	s, err := ParseRecord("chr2\t5\t.\tC\tT\t.\t.\t.", nil)
	require.NoError(t, err)
	s.Project([]string{"S1"})
	expect.EQ(t, s.Line(), "chr2\t5\t.\tC\tT\t.\t.\t.\t.\t.")
}

func TestChromPos(t *testing.T) {
	chrom, pos, err := ChromPos(twoSampleLine)
	require.NoError(t, err)
	expect.EQ(t, chrom, "chr1")
	expect.EQ(t, pos, int64(100))
	expect.EQ(t, Chrom(twoSampleLine), "chr1")

	_, _, err = ChromPos("chr1")
	assert.Error(t, err)
	_, _, err = ChromPos("chr1\tabc\t.")
	assert.Error(t, err)
}

func TestFormatEqual(t *testing.T) {
	a, err := ParseRecord(twoSampleLine, []string{"S1", "S2"})
	require.NoError(t, err)
	b, err := ParseRecord("chr1\t100\t.\tA\tG\t.\t.\t.\tGT:DP\t0/1:1", []string{"S1"})
	require.NoError(t, err)
	c, err := ParseRecord("chr1\t100\t.\tA\tG\t.\t.\t.", nil)
	require.NoError(t, err)
	expect.True(t, a.FormatEqual(b))
	expect.False(t, a.FormatEqual(c))
	expect.True(t, c.FormatEqual(c))
}
