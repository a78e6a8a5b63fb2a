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
	"context"
	"io"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/vcfmerge/encoding/vcf"
	"github.com/grailbio/vcfmerge/interval"
	"github.com/klauspost/compress/gzip"
)

// handle is an open read position in a source.  A source is read by at most
// one task at a time, so the handle is not locked.
type handle struct {
	f  file.File
	bg *bgzf.Reader
	gz *gzip.Reader
	r  *bufio.Reader
	// off is the decompressed offset of r's next byte, tracked for gzip
	// sources only.
	off int64
}

func (h *handle) close(ctx context.Context) error {
	err := errors.Once{}
	if h.bg != nil {
		err.Set(h.bg.Close())
	}
	if h.gz != nil {
		err.Set(h.gz.Close())
	}
	err.Set(h.f.Close(ctx))
	return err.Err()
}

// seek positions the source's handle at the first record of chrom.  Gzip
// streams only move forward: a target behind the current position reopens
// the stream.
func (s *Source) seek(ctx context.Context, off int64) (*bufio.Reader, error) {
	if s.h != nil && s.Compression == Gzip && off < s.h.off {
		if err := s.Close(ctx); err != nil {
			return nil, err
		}
	}
	if s.h == nil {
		f, err := file.Open(ctx, s.Path)
		if err != nil {
			return nil, errors.E(err, "open", s.Path)
		}
		s.h = &handle{f: f}
		switch s.Compression {
		case BGZF:
			if s.h.bg, err = bgzf.NewReader(f.Reader(ctx), 1); err != nil {
				return nil, errors.E(err, "bgzf", s.Path)
			}
		case Gzip:
			if s.h.gz, err = gzip.NewReader(f.Reader(ctx)); err != nil {
				return nil, errors.E(err, "gzip", s.Path)
			}
			s.h.r = bufio.NewReaderSize(s.h.gz, 1<<16)
		}
	}
	h := s.h
	switch s.Compression {
	case BGZF:
		if err := h.bg.Seek(toBGZFOffset(off)); err != nil {
			return nil, errors.E(err, "seek", s.Path)
		}
		h.r = bufio.NewReaderSize(h.bg, 1<<16)
	case Gzip:
		n, err := h.r.Discard(int(off - h.off))
		h.off += int64(n)
		if err != nil {
			return nil, errors.E(err, "skip", s.Path)
		}
	default:
		if _, err := h.f.Reader(ctx).Seek(off, io.SeekStart); err != nil {
			return nil, errors.E(err, "seek", s.Path)
		}
		h.r = bufio.NewReaderSize(h.f.Reader(ctx), 1<<16)
	}
	return h.r, nil
}

// Close releases the source's read handle, if any.
func (s *Source) Close(ctx context.Context) error {
	if s.h == nil {
		return nil
	}
	err := s.h.close(ctx)
	s.h = nil
	return err
}

// rawLine is a body line and the index of the source it came from.
type rawLine struct {
	text string
	src  int
}

// chromLines is what one source contributes to a chromosome batch.
type chromLines struct {
	lines []string
	// filtered counts lines dropped by the region filter.
	filtered int
}

// readChrom returns the records of chrom in s, in file order.  Reading stops
// before the first line of any other chromosome without consuming it.
func (s *Source) readChrom(ctx context.Context, chrom string, filter *interval.Set) (chromLines, error) {
	var out chromLines
	off, ok := s.index[chrom]
	if !ok {
		return out, nil
	}
	r, err := s.seek(ctx, off)
	if err != nil {
		return out, err
	}
	prefix := chrom + "\t"
	for {
		head, err := r.Peek(len(prefix))
		if len(head) > 0 && (head[0] == '\n' || head[0] == '\r') {
			if _, err := r.ReadByte(); err == nil {
				s.advance(1)
			}
			continue
		}
		if err != nil || string(head) != prefix {
			break
		}
		line, err := r.ReadString('\n')
		s.advance(len(line))
		if err != nil && err != io.EOF {
			return out, errors.E(err, "read", s.Path)
		}
		line = strings.TrimRight(line, "\r\n")
		if filter != nil {
			_, pos, perr := vcf.ChromPos(line)
			if perr != nil {
				return out, errors.E(errors.Invalid, perr, s.Path)
			}
			if !filter.Contains(chrom, interval.PosType(pos-1)) {
				out.filtered++
				continue
			}
		}
		out.lines = append(out.lines, line)
		if err == io.EOF {
			break
		}
	}
	return out, nil
}

func (s *Source) advance(n int) {
	if s.Compression == Gzip {
		s.h.off += int64(n)
	}
}

// readAll reads chrom from every source, at most parallelism at a time, and
// returns the lines concatenated in source order.
func readAll(ctx context.Context, sources []*Source, chrom string, filter *interval.Set, parallelism int) ([]rawLine, int, error) {
	results := make([]chromLines, len(sources))
	err := traverse.Limit(parallelism).Each(len(sources), func(i int) error {
		var f *interval.Set
		if filter != nil {
			f = filter.Clone()
		}
		var err error
		results[i], err = sources[i].readChrom(ctx, chrom, f)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	n := 0
	for _, r := range results {
		n += len(r.lines)
	}
	lines := make([]rawLine, 0, n)
	filtered := 0
	for i, r := range results {
		for _, text := range r.lines {
			lines = append(lines, rawLine{text: text, src: i})
		}
		filtered += r.filtered
	}
	return lines, filtered, nil
}
