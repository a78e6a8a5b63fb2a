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

// Package natural orders strings so that embedded runs of decimal digits
// compare by numeric value: "chr2" < "chr10" < "chrX".
//
// A string is split into alternating non-digit and digit runs, always starting
// with a (possibly empty) non-digit run.  Runs are compared pairwise; non-digit
// runs compare bytewise, digit runs compare as unbounded non-negative
// integers.  When two keys have equal runs, the raw strings decide, so the
// order is total.
//
// Splitting is done once, by NewKey.  Sorting large batches should build the
// keys up front and compare keys, not strings.
package natural

// Key is the precomputed natural-order form of a string.
type Key struct {
	raw string
	// runs[i] is a non-digit run for even i and a digit run for odd i.  Digit
	// runs have their leading zeros removed (but are never empty).
	runs []string
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// NewKey splits s into its natural-order runs.
func NewKey(s string) Key {
	k := Key{raw: s}
	start := 0
	digits := false
	for i := 0; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) == digits {
			continue
		}
		run := s[start:i]
		if digits {
			run = trimZeros(run)
		}
		k.runs = append(k.runs, run)
		if i == len(s) {
			break
		}
		start = i
		digits = !digits
	}
	return k
}

// trimZeros strips leading zeros from a digit run, keeping at least one digit.
func trimZeros(run string) string {
	i := 0
	for i < len(run)-1 && run[i] == '0' {
		i++
	}
	return run[i:]
}

// String returns the string the key was built from.
func (k Key) String() string { return k.raw }

// Compare returns -1, 0 or +1 as a sorts before, equal to, or after b.
func Compare(a, b Key) int {
	n := len(a.runs)
	if len(b.runs) < n {
		n = len(b.runs)
	}
	for i := 0; i < n; i++ {
		var c int
		if i&1 == 1 {
			c = compareDigits(a.runs[i], b.runs[i])
		} else {
			c = compareText(a.runs[i], b.runs[i])
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(a.runs) < len(b.runs):
		return -1
	case len(a.runs) > len(b.runs):
		return 1
	}
	return compareText(a.raw, b.raw)
}

// Less reports whether a sorts strictly before b.
func Less(a, b Key) bool { return Compare(a, b) < 0 }

// CompareStrings is Compare(NewKey(a), NewKey(b)).  Use it for one-off
// comparisons only.
func CompareStrings(a, b string) int { return Compare(NewKey(a), NewKey(b)) }

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return compareText(a, b)
}

func compareText(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
