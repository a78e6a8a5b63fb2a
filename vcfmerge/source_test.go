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
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/vcfmerge/interval"
	"github.com/stretchr/testify/require"
)

var threeChromBody = []string{
	"chr1 100 . A T 30 . .",
	"chr1 200 . C G . . DP=3",
	"",
	"chr2 5 rs1 G A . PASS .",
	"chr10 7 . T C . . .",
	"chr10 9 . T C . . .",
}

func TestSniffCompression(t *testing.T) {
	expect.EQ(t, sniffCompression([]byte("##fileformat")), Plain)
	expect.EQ(t, sniffCompression(nil), Plain)
	expect.EQ(t, sniffCompression([]byte{0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 0, 0xff, 0, 0, 0, 0}), Gzip)
	expect.EQ(t, sniffCompression([]byte{0x1f, 0x8b, 8, 4, 0, 0, 0, 0, 0, 0xff, 6, 0, 'B', 'C', 2, 0, 0, 0}), BGZF)
}

func TestSourceIndexAndRead(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	text := vcfText(testMeta+sitesHeader, threeChromBody...)

	for _, c := range []Compression{Plain, BGZF, Gzip} {
		path := writeVCF(t, tempDir, "in-"+c.String()+".vcf", c, text)
		src, err := openSource(ctx, path)
		require.NoError(t, err, "compression: %v", c)
		expect.EQ(t, src.Compression, c)
		expect.EQ(t, src.Chroms, []string{"chr1", "chr2", "chr10"})
		expect.EQ(t, src.Header.FileFormat, "##fileformat=VCFv4.2")
		expect.EQ(t, len(src.Header.Lines), 4)
		expect.False(t, src.Header.Columns.HasFormat)

		// Out of file order, so gzip sources must rewind.
		for _, chrom := range []string{"chr10", "chr2", "chr1", "chr10", "chrX"} {
			got, err := src.readChrom(ctx, chrom, nil)
			require.NoError(t, err, "compression: %v, chrom: %s", c, chrom)
			var want []string
			for _, line := range threeChromBody {
				if line != "" && line[:len(chrom)+1] == chrom+" " {
					want = append(want, tabs(line))
				}
			}
			expect.EQ(t, got.lines, want, "compression: %v, chrom: %s", c, chrom)
		}
		require.NoError(t, src.Close(ctx))
	}
}

func TestSourceRegionFilter(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeVCF(t, tempDir, "in.vcf", Plain, vcfText(sitesHeader, threeChromBody...))
	src, err := openSource(ctx, path)
	require.NoError(t, err)
	defer src.Close(ctx) // nolint: errcheck

	filter, err := interval.NewSetFromEntries([]interval.Entry{{Chrom: "chr1", Start0: 150, End: 250}})
	require.NoError(t, err)
	got, err := src.readChrom(ctx, "chr1", filter)
	require.NoError(t, err)
	expect.EQ(t, got.lines, []string{tabs("chr1 200 . C G . . DP=3")})
	expect.EQ(t, got.filtered, 1)
}

func TestSourceErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	_, err := openSource(ctx, filepath.Join(tempDir, "missing.vcf"))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.NotExist, err))

	split := writeVCF(t, tempDir, "split.vcf", Plain, vcfText(sitesHeader,
		"chr1 1 . A G . . .", "chr2 1 . A G . . .", "chr1 5 . A G . . ."))
	_, err = openSource(ctx, split)
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))

	noHeader := writeVCF(t, tempDir, "noheader.vcf", Plain, vcfText("##fileformat=VCFv4.2\n", "chr1 1 . A G . . ."))
	_, err = openSource(ctx, noHeader)
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestSortChroms(t *testing.T) {
	a := &Source{Chroms: []string{"chr1", "chr10", "chrX"}}
	b := &Source{Chroms: []string{"chr2", "chr1", "chrM"}}
	expect.EQ(t, sortChroms([]*Source{a, b}), []string{"chr1", "chr2", "chr10", "chrM", "chrX"})
}
