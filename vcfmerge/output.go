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
	"os"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bgzf"
)

// outputPath adjusts the destination name to the output compression.
// Compressed output ends in ".vcf.gz"; uncompressed output loses any ".gz".
func outputPath(path string, compressed bool) string {
	if path == "" {
		return ""
	}
	if !compressed {
		if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".GZ") {
			return path[:len(path)-3]
		}
		return path
	}
	switch {
	case strings.HasSuffix(path, ".vcf.gz"), strings.HasSuffix(path, ".vcf.GZ"):
		return path
	case strings.HasSuffix(path, ".vcf"):
		return path + ".gz"
	}
	return path + ".vcf.gz"
}

// compressOutput decides whether to write BGZF.
func compressOutput(format OutputFormat, dest string, first Compression) bool {
	switch format {
	case Compressed:
		return true
	case Uncompressed:
		return false
	}
	return dest != "" && first.Compressed()
}

// output is the single writer of the merged file.
type output struct {
	path string
	f    file.File
	bg   *bgzf.Writer
	w    *bufio.Writer
}

// createOutput opens the destination, or stdout when path is empty.
func createOutput(ctx context.Context, path string, compressed bool, parallelism int) (*output, error) {
	o := &output{path: path}
	var dst io.Writer = os.Stdout
	if path != "" {
		var err error
		if o.f, err = file.Create(ctx, path); err != nil {
			return nil, errors.E(err, "create", path)
		}
		dst = o.f.Writer(ctx)
	}
	if compressed {
		o.bg = bgzf.NewWriter(dst, parallelism)
		dst = o.bg
	}
	o.w = bufio.NewWriterSize(dst, 1<<16)
	return o, nil
}

func (o *output) writeLine(line string) error {
	if _, err := o.w.WriteString(line); err != nil {
		return err
	}
	return o.w.WriteByte('\n')
}

// close flushes and closes the destination.
func (o *output) close(ctx context.Context) error {
	err := errors.Once{}
	err.Set(o.w.Flush())
	if o.bg != nil {
		err.Set(o.bg.Close())
	}
	if o.f != nil {
		err.Set(o.f.Close(ctx))
	}
	return err.Err()
}

// abort closes the destination and removes it.
func (o *output) abort(ctx context.Context) {
	if o.f == nil {
		return
	}
	if o.bg != nil {
		_ = o.bg.Close()
	}
	if err := o.f.Close(ctx); err != nil {
		log.Debug.Printf("close %s: %v", o.path, err)
	}
	if err := file.Remove(ctx, o.path); err != nil && !errors.Is(errors.NotExist, err) {
		log.Error.Printf("remove partial output %s: %v", o.path, err)
	}
}
