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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// InfoField is one entry of the INFO column.
type InfoField struct {
	Key   string
	Value string
	// Flag is set for entries written as a bare key, without "=".
	Flag bool
}

func (f InfoField) equal(o InfoField) bool {
	return f.Value == o.Value && f.Flag == o.Flag
}

// Record is one data line.
//
// The fixed fields that identify a site (CHROM, POS, REF) and FILTER are
// immutable.  ID, ALT, QUAL, INFO and the sample layout change only through
// setters, which mark the cached line stale; Line() rebuilds it.
type Record struct {
	chrom  string
	pos    int64
	id     string
	ref    string
	alt    string
	qual   string
	filter string
	info   []InfoField
	// format is nil when the line has no FORMAT column.
	format []string
	// samples maps sample name to the raw column value.
	samples map[string]string
	// sampleOrder lists the sample columns in output order.
	sampleOrder []string

	line  string
	dirty bool
}

// ChromPos extracts CHROM and POS from a data line without parsing the rest.
func ChromPos(line string) (string, int64, error) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return "", 0, errors.Errorf("malformed record, no POS field: %q", line)
	}
	rest := line[tab+1:]
	if end := strings.IndexByte(rest, '\t'); end >= 0 {
		rest = rest[:end]
	}
	pos, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return "", 0, errors.Wrapf(err, "malformed POS in record %q", line)
	}
	return line[:tab], pos, nil
}

// Chrom returns the CHROM field of a data line.
func Chrom(line string) string {
	if tab := strings.IndexByte(line, '\t'); tab >= 0 {
		return line[:tab]
	}
	return line
}

// ParseRecord parses a data line.  sampleNames names the sample columns in
// the order they appear on the line; a column beyond len(sampleNames) is an
// error, and a missing trailing column leaves that sample absent.
func ParseRecord(line string, sampleNames []string) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")
	cols := strings.Split(line, "\t")
	if len(cols) < FormatIdx {
		return nil, errors.Errorf("record has %d columns, expected at least %d: %q", len(cols), FormatIdx, line)
	}
	pos, err := strconv.ParseInt(cols[PosIdx], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed POS in record %q", line)
	}
	r := &Record{
		chrom:  cols[ChromIdx],
		pos:    pos,
		id:     cols[IDIdx],
		ref:    cols[RefIdx],
		alt:    cols[AltIdx],
		qual:   cols[QualIdx],
		filter: cols[FilterIdx],
		info:   parseInfo(cols[InfoIdx]),
		line:   line,
	}
	if len(cols) > FormatIdx {
		r.format = strings.Split(cols[FormatIdx], ":")
		values := cols[FirstSampleIdx:]
		if len(values) > len(sampleNames) {
			return nil, errors.Errorf("record has %d sample columns, header declares %d: %q", len(values), len(sampleNames), line)
		}
		r.samples = make(map[string]string, len(values))
		for i, v := range values {
			r.samples[sampleNames[i]] = v
			r.sampleOrder = append(r.sampleOrder, sampleNames[i])
		}
	}
	return r, nil
}

func parseInfo(text string) []InfoField {
	if text == Missing || text == "" {
		return nil
	}
	var info []InfoField
	for _, entry := range strings.Split(text, ";") {
		if entry == "" {
			continue
		}
		if eq := strings.IndexByte(entry, '='); eq >= 0 {
			info = append(info, InfoField{Key: entry[:eq], Value: entry[eq+1:]})
		} else {
			info = append(info, InfoField{Key: entry, Flag: true})
		}
	}
	return info
}

func (r *Record) Chrom() string  { return r.chrom }
func (r *Record) Pos() int64     { return r.pos }
func (r *Record) ID() string     { return r.id }
func (r *Record) Ref() string    { return r.ref }
func (r *Record) Alt() string    { return r.alt }
func (r *Record) Qual() string   { return r.qual }
func (r *Record) Filter() string { return r.filter }

// Info returns the INFO entries in column order.  The slice must not be
// modified; use SetInfo.
func (r *Record) Info() []InfoField { return r.info }

// Format returns the FORMAT subfield names, or nil.
func (r *Record) Format() []string { return r.format }

// HasFormat reports whether the record carries per-sample data.
func (r *Record) HasFormat() bool { return r.format != nil }

// Sample returns the raw column value for the named sample.
func (r *Record) Sample(name string) (string, bool) {
	v, ok := r.samples[name]
	return v, ok
}

// SampleNames returns the sample columns in output order.
func (r *Record) SampleNames() []string { return r.sampleOrder }

func (r *Record) SetID(id string) {
	if id != r.id {
		r.id = id
		r.dirty = true
	}
}

func (r *Record) SetAlt(alt string) {
	if alt != r.alt {
		r.alt = alt
		r.dirty = true
	}
}

func (r *Record) SetQual(qual string) {
	if qual != r.qual {
		r.qual = qual
		r.dirty = true
	}
}

// SetInfo replaces the INFO entries.
func (r *Record) SetInfo(info []InfoField) {
	if infoEqual(info, r.info) {
		return
	}
	r.info = info
	r.dirty = true
}

func infoEqual(a, b []InfoField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

// FormatEqual reports whether r and o have identical FORMAT subfields.
func (r *Record) FormatEqual(o *Record) bool {
	if (r.format == nil) != (o.format == nil) || len(r.format) != len(o.format) {
		return false
	}
	for i := range r.format {
		if r.format[i] != o.format[i] {
			return false
		}
	}
	return true
}

// MissingSample returns the placeholder for a sample with no data under the
// given FORMAT: one "." per subfield, joined by ":".
func MissingSample(format []string) string {
	if len(format) <= 1 {
		return Missing
	}
	return strings.Repeat(Missing+":", len(format)-1) + Missing
}

// Project rewrites the sample columns to exactly names, in that order.  A
// sample the record lacks gets MissingSample(Format()).  An empty names drops
// FORMAT and all sample columns.
func (r *Record) Project(names []string) {
	if len(names) == 0 {
		if r.format != nil {
			r.format = nil
			r.samples = nil
			r.sampleOrder = nil
			r.dirty = true
		}
		return
	}
	if r.format == nil {
		r.format = []string{Missing}
		r.dirty = true
	}
	if r.samples == nil {
		r.samples = make(map[string]string, len(names))
	}
	same := len(names) == len(r.sampleOrder)
	for i, name := range names {
		if same && r.sampleOrder[i] != name {
			same = false
		}
		if _, ok := r.samples[name]; !ok {
			r.samples[name] = MissingSample(r.format)
			same = false
		}
	}
	if !same {
		r.sampleOrder = append([]string(nil), names...)
		r.dirty = true
	}
}

// Dirty reports whether the cached line is stale.
func (r *Record) Dirty() bool { return r.dirty }

// Line returns the record as a tab-separated line without the trailing
// newline, rebuilding it first if any field changed since it was last built.
func (r *Record) Line() string {
	if r.dirty {
		r.line = r.render()
		r.dirty = false
	}
	return r.line
}

func (r *Record) render() string {
	var sb strings.Builder
	sb.Grow(len(r.line) + 16)
	sb.WriteString(r.chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(r.pos, 10))
	for _, s := range [...]string{r.id, r.ref, r.alt, r.qual, r.filter} {
		sb.WriteByte('\t')
		sb.WriteString(s)
	}
	sb.WriteByte('\t')
	if len(r.info) == 0 {
		sb.WriteString(Missing)
	}
	for i, f := range r.info {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(f.Key)
		if !f.Flag {
			sb.WriteByte('=')
			sb.WriteString(f.Value)
		}
	}
	if r.format == nil {
		return sb.String()
	}
	sb.WriteByte('\t')
	sb.WriteString(strings.Join(r.format, ":"))
	for _, name := range r.sampleOrder {
		sb.WriteByte('\t')
		sb.WriteString(r.samples[name])
	}
	return sb.String()
}
