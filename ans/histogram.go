// Copyright 2026 The ans Authors
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package ans

import "github.com/fenwick-labs/ans/internal/ints"

// Alphabet is fixed at 256 symbols: one per byte value.
const Alphabet = 256

// Histogram holds symbol counts over the 256-value byte alphabet plus
// the largest symbol index that was ever incremented.
type Histogram struct {
	Count     [Alphabet]uint32
	MaxSymbol int
}

// HistogramVariant selects the counting loop used by Count. Both
// variants must (and do) produce bit-identical histograms; the
// unrolled variant only changes the instruction-level scheduling of
// the hot loop.
type HistogramVariant int

const (
	// Scalar counts one byte per iteration.
	Scalar HistogramVariant = iota
	// Unrolled4 counts four independent sub-histograms in a 4-way
	// unrolled loop and sums them, trading a little extra memory for
	// shorter store-to-load forwarding stalls on the hot path.
	Unrolled4
)

// Count scans src once and returns the per-byte-value histogram plus
// the maximum symbol index seen. An empty src yields an all-zero
// histogram and MaxSymbol == 0, matching the spec's "no failure mode"
// rule for counting.
func Count(src []byte, variant HistogramVariant) *Histogram {
	if variant == Unrolled4 && len(src) >= 4 {
		return countUnrolled4(src)
	}
	return countScalar(src)
}

func countScalar(src []byte) *Histogram {
	h := &Histogram{}
	for _, b := range src {
		h.Count[b]++
	}
	h.MaxSymbol = maxSymbol(&h.Count)
	return h
}

// countUnrolled4 counts four independent sub-histograms to break the
// store-to-load forwarding dependency chain a single running
// histogram creates when the same input byte repeats back to back.
func countUnrolled4(src []byte) *Histogram {
	var buckets [4][Alphabet]uint32
	n := uint(len(src))
	e := ints.AlignDown(n, 4)
	for i := uint(0); i < e; i += 4 {
		buckets[0][src[i+0]]++
		buckets[1][src[i+1]]++
		buckets[2][src[i+2]]++
		buckets[3][src[i+3]]++
	}
	for i := e; i < n; i++ {
		buckets[0][src[i]]++
	}
	h := &Histogram{}
	for i := 0; i < Alphabet; i++ {
		h.Count[i] = buckets[0][i] + buckets[1][i] + buckets[2][i] + buckets[3][i]
	}
	h.MaxSymbol = maxSymbol(&h.Count)
	return h
}

func maxSymbol(count *[Alphabet]uint32) int {
	max := 0
	for i, c := range count {
		if c > 0 {
			max = i
		}
	}
	return max
}

// Sum returns the total number of symbols counted.
func (h *Histogram) Sum() uint64 {
	var total uint64
	for _, c := range h.Count {
		total += uint64(c)
	}
	return total
}
