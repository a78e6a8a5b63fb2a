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
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const testMeta = "##fileformat=VCFv4.2\n" +
	"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Depth\">\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n" +
	"##contig=<ID=chr1>\n" +
	"##contig=<ID=chr2>\n"

const sitesHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

// vcfText joins header and body lines, converting spaces to tabs in the body
// so fixtures stay readable.
func vcfText(header string, body ...string) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, line := range body {
		sb.WriteString(strings.Replace(line, " ", "\t", -1))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func tabs(line string) string { return strings.Replace(line, " ", "\t", -1) }

// writeVCF writes text to dir/name.  With BGZF, each chromosome starts a new
// block so that index offsets cross block boundaries.
func writeVCF(t *testing.T, dir, name string, c Compression, text string) string {
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	switch c {
	case Plain:
		buf.WriteString(text)
	case Gzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(text))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case BGZF:
		w := bgzf.NewWriter(&buf, 1)
		prev := ""
		for _, line := range strings.SplitAfter(text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "#") {
				if chrom := vcf.Chrom(line); chrom != prev {
					require.NoError(t, w.Flush())
					prev = chrom
				}
			}
			_, err := w.Write([]byte(line))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
	}
	require.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func parse(t *testing.T, line string, samples ...string) *vcf.Record {
	r, err := vcf.ParseRecord(tabs(line), samples)
	require.NoError(t, err)
	return r
}

func lineSet(recs []*vcf.Record) []string {
	var lines []string
	for _, r := range recs {
		lines = append(lines, r.Line())
	}
	return lines
}
