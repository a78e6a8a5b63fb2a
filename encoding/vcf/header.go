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
	"strings"

	"github.com/pkg/errors"
)

// Column indices of the fixed VCF fields.
const (
	ChromIdx = iota
	PosIdx
	IDIdx
	RefIdx
	AltIdx
	QualIdx
	FilterIdx
	InfoIdx
	FormatIdx
	FirstSampleIdx
)

const (
	// Missing is the placeholder for an unspecified ID, ALT, QUAL, FILTER or
	// INFO value, and for each subfield of a missing sample.
	Missing = "."

	metaPrefix         = "##"
	columnHeaderPrefix = "#CHROM"
	fileFormatTag      = "fileformat"
	contigTag          = "contig"
)

var fixedColumns = [...]string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// IsMeta reports whether line is a "##" meta-information line.
func IsMeta(line string) bool { return strings.HasPrefix(line, metaPrefix) }

// IsColumnHeader reports whether line is the "#CHROM" column-header line.
func IsColumnHeader(line string) bool { return strings.HasPrefix(line, columnHeaderPrefix) }

// HeaderLine is one "##" meta-information line.
type HeaderLine struct {
	// Text is the full line, without the trailing newline.
	Text string
	// Tag is the meta-information key, e.g. "INFO" for "##INFO=<ID=DP,...>".
	Tag string
	// ID is the value of the ID attribute of a structured line, or "".
	ID string
}

// ParseHeaderLine splits a "##" line into its tag and optional ID.
func ParseHeaderLine(text string) HeaderLine {
	h := HeaderLine{Text: text}
	body := strings.TrimPrefix(text, metaPrefix)
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		h.Tag = body
		return h
	}
	h.Tag = body[:eq]
	value := body[eq+1:]
	if len(value) < 2 || value[0] != '<' || value[len(value)-1] != '>' {
		return h
	}
	h.ID = structuredAttr(value[1:len(value)-1], "ID")
	return h
}

// structuredAttr finds key=value among the comma-separated attributes of a
// structured header value.  Quoted values may contain commas.
func structuredAttr(attrs, key string) string {
	inQuote := false
	start := 0
	for i := 0; i <= len(attrs); i++ {
		if i < len(attrs) {
			switch attrs[i] {
			case '"':
				inQuote = !inQuote
				continue
			case ',':
				if inQuote {
					continue
				}
			default:
				continue
			}
		}
		attr := attrs[start:i]
		if eq := strings.IndexByte(attr, '='); eq >= 0 && attr[:eq] == key {
			return attr[eq+1:]
		}
		start = i + 1
	}
	return ""
}

// Key returns the uniqueness key of the line: tag and ID when the line has an
// ID, the full text otherwise.
func (h HeaderLine) Key() string {
	if h.ID == "" {
		return h.Text
	}
	return h.Tag + "\x00" + h.ID
}

// IsContig reports whether h is a "##contig" line.
func (h HeaderLine) IsContig() bool { return h.Tag == contigTag }

// IsFileFormat reports whether h is the "##fileformat" line.
func (h HeaderLine) IsFileFormat() bool { return h.Tag == fileFormatTag }

// ColumnHeader is the parsed "#CHROM" line.
type ColumnHeader struct {
	// HasFormat is set when the line names a FORMAT column.
	HasFormat bool
	// Samples lists the sample column names, in file order.
	Samples []string
}

// ParseColumnHeader parses a "#CHROM" line.
func ParseColumnHeader(text string) (ColumnHeader, error) {
	var c ColumnHeader
	cols := strings.Split(text, "\t")
	if len(cols) < len(fixedColumns) {
		return c, errors.Errorf("column header has %d columns, expected at least %d: %q", len(cols), len(fixedColumns), text)
	}
	for i, name := range fixedColumns {
		if cols[i] != name {
			return c, errors.Errorf("column header field %d is %q, expected %q", i+1, cols[i], name)
		}
	}
	if len(cols) > FormatIdx {
		if cols[FormatIdx] != "FORMAT" {
			return c, errors.Errorf("column header field %d is %q, expected \"FORMAT\"", FormatIdx+1, cols[FormatIdx])
		}
		c.HasFormat = true
		c.Samples = cols[FirstSampleIdx:]
	}
	return c, nil
}

// String formats the "#CHROM" line, without a trailing newline.
func (c ColumnHeader) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(fixedColumns[:], "\t"))
	if c.HasFormat || len(c.Samples) > 0 {
		sb.WriteString("\tFORMAT")
		for _, s := range c.Samples {
			sb.WriteByte('\t')
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Header holds the header section of one VCF file.
type Header struct {
	// FileFormat is the "##fileformat" line, or "" if the file has none.
	FileFormat string
	// Lines holds the other "##" lines, in file order.
	Lines []HeaderLine
	// Columns is the parsed "#CHROM" line.
	Columns ColumnHeader
}

// AddMeta records a "##" line.
func (h *Header) AddMeta(text string) {
	line := ParseHeaderLine(text)
	if line.IsFileFormat() {
		if h.FileFormat == "" {
			h.FileFormat = text
		}
		return
	}
	h.Lines = append(h.Lines, line)
}
