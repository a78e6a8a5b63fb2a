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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/grailbio/vcfmerge/natural"
	"github.com/klauspost/compress/gzip"
)

// Compression is the on-disk encoding of a source.
type Compression int

const (
	// Plain is uncompressed text.
	Plain Compression = iota
	// BGZF is blocked gzip, as written by bgzip.
	BGZF
	// Gzip is an ordinary gzip stream, which cannot be seeked.
	Gzip
)

func (c Compression) String() string {
	switch c {
	case Plain:
		return "plain"
	case BGZF:
		return "bgzf"
	case Gzip:
		return "gzip"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Compressed reports whether c is either gzip flavor.
func (c Compression) Compressed() bool { return c != Plain }

// sniffCompression classifies the first bytes of a file.  A BGZF member is a
// gzip member with FEXTRA set and a "BC" extra subfield first.
func sniffCompression(head []byte) Compression {
	if len(head) < 3 || head[0] != 0x1f || head[1] != 0x8b || head[2] != 8 {
		return Plain
	}
	const fextra = 1 << 2
	if len(head) >= 14 && head[3]&fextra != 0 && head[12] == 'B' && head[13] == 'C' {
		return BGZF
	}
	return Gzip
}

// Source is one input VCF.  Everything but the read handle is fixed once
// openSource returns.
type Source struct {
	Path        string
	Compression Compression
	Header      vcf.Header
	// Chroms lists the chromosomes in file order.
	Chroms []string
	// index maps a chromosome to the offset of its first record: a byte
	// offset into the decompressed text for Plain and Gzip, a BGZF virtual
	// offset for BGZF.
	index map[string]int64
	// records counts the body lines seen while indexing.
	records int64

	h *handle
}

// openSource checks that path exists, detects its compression, parses the
// header and indexes the body.
func openSource(ctx context.Context, path string) (*Source, error) {
	if _, err := file.Stat(ctx, path); err != nil {
		return nil, errors.E(errors.NotExist, err, "input file", path)
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	s := &Source{Path: path, index: make(map[string]int64)}
	err = s.scan(ctx, f)
	if cerr := f.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("%s: %s, %d sample(s), %d chromosome(s), %d record(s)",
		path, s.Compression, len(s.Header.Columns.Samples), len(s.Chroms), s.records)
	return s, nil
}

func (s *Source) scan(ctx context.Context, f file.File) error {
	rs := f.Reader(ctx)
	head := make([]byte, 18)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errors.E(err, "read", s.Path)
	}
	s.Compression = sniffCompression(head[:n])
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return errors.E(err, "seek", s.Path)
	}
	var sc lineScanner
	switch s.Compression {
	case BGZF:
		bg, err := bgzf.NewReader(rs, 1)
		if err != nil {
			return errors.E(err, "bgzf", s.Path)
		}
		defer bg.Close() // nolint: errcheck
		bg.Blocked = true
		sc = &blockScanner{bg: bg, buf: make([]byte, 1<<16)}
	case Gzip:
		gz, err := gzip.NewReader(rs)
		if err != nil {
			return errors.E(err, "gzip", s.Path)
		}
		defer gz.Close() // nolint: errcheck
		sc = &textScanner{r: bufio.NewReaderSize(gz, 1<<16)}
	default:
		sc = &textScanner{r: bufio.NewReaderSize(rs, 1<<16)}
	}
	return s.buildIndex(sc)
}

// buildIndex parses the header and records the offset of each chromosome's
// first record.
func (s *Source) buildIndex(sc lineScanner) error {
	inBody := false
	prev := ""
	for {
		line, off, err := sc.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.E(err, "read", s.Path)
		}
		if line == "" {
			continue
		}
		if !inBody {
			switch {
			case vcf.IsMeta(line):
				s.Header.AddMeta(line)
				continue
			case vcf.IsColumnHeader(line):
				cols, err := vcf.ParseColumnHeader(line)
				if err != nil {
					return errors.E(errors.Invalid, err, s.Path)
				}
				s.Header.Columns = cols
				inBody = true
				continue
			default:
				return errors.E(errors.Invalid, s.Path, "data line before the #CHROM header line")
			}
		}
		chrom := vcf.Chrom(line)
		s.records++
		if chrom == prev {
			continue
		}
		if _, ok := s.index[chrom]; ok {
			return errors.E(errors.Invalid, s.Path, fmt.Sprintf("unsorted input (split chromosome %v)", chrom))
		}
		s.index[chrom] = off
		s.Chroms = append(s.Chroms, chrom)
		prev = chrom
	}
	if !inBody {
		return errors.E(errors.Invalid, s.Path, "no #CHROM header line")
	}
	return nil
}

// Samples returns the sample columns declared by the source.
func (s *Source) Samples() []string { return s.Header.Columns.Samples }

// lineScanner yields lines, without the terminator, together with the offset
// of their first byte.
type lineScanner interface {
	next() (string, int64, error)
}

type textScanner struct {
	r   *bufio.Reader
	off int64
}

func (t *textScanner) next() (string, int64, error) {
	off := t.off
	line, err := t.r.ReadString('\n')
	t.off += int64(len(line))
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), off, err
}

// blockScanner reads a BGZF stream one block at a time so that every byte's
// virtual offset is known.
type blockScanner struct {
	bg   *bgzf.Reader
	buf  []byte
	pos  int
	n    int
	base bgzf.Offset
	eof  bool
}

func (b *blockScanner) fill() error {
	for {
		n, err := b.bg.Read(b.buf)
		if n > 0 {
			b.base = b.bg.LastChunk().Begin
			b.pos, b.n = 0, n
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (b *blockScanner) next() (string, int64, error) {
	if b.pos == b.n {
		if b.eof {
			return "", 0, io.EOF
		}
		if err := b.fill(); err != nil {
			return "", 0, err
		}
	}
	off := voffset(bgzf.Offset{File: b.base.File, Block: b.base.Block + uint16(b.pos)})
	var partial []byte
	for {
		if i := bytes.IndexByte(b.buf[b.pos:b.n], '\n'); i >= 0 {
			partial = append(partial, b.buf[b.pos:b.pos+i]...)
			b.pos += i + 1
			return strings.TrimRight(string(partial), "\r"), off, nil
		}
		partial = append(partial, b.buf[b.pos:b.n]...)
		b.pos = b.n
		if err := b.fill(); err != nil {
			if err == io.EOF {
				b.eof = true
				return strings.TrimRight(string(partial), "\r"), off, nil
			}
			return "", 0, err
		}
	}
}

// voffset packs a BGZF offset as coffset<<16 | uoffset.
func voffset(o bgzf.Offset) int64 { return o.File<<16 | int64(o.Block) }

func toBGZFOffset(v int64) bgzf.Offset {
	return bgzf.Offset{File: v >> 16, Block: uint16(v & 0xffff)}
}

// sortChroms returns the union of the sources' chromosomes in natural order.
func sortChroms(sources []*Source) []string {
	seen := make(map[string]bool)
	var keys []natural.Key
	for _, s := range sources {
		for _, c := range s.Chroms {
			if !seen[c] {
				seen[c] = true
				keys = append(keys, natural.NewKey(c))
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return natural.Less(keys[i], keys[j]) })
	chroms := make([]string, len(keys))
	for i, k := range keys {
		chroms[i] = k.String()
	}
	return chroms
}
