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

import "math/bits"

// EncodeTable holds the artifacts built from (F, R, S) needed to drive
// the tANS encode loop: for each symbol, the precomputed shift-count
// helper delta_nb_bits and table offset start, plus the shared
// post-transition state table.
type EncodeTable struct {
	deltaNbBits []uint64
	starts      []int32
	table       []int32
	tableLog    int
}

// BuildEncodeTable constructs the tANS encode artifacts from the
// normalized frequency table f, table_log r and spread table s.
func BuildEncodeTable(f []uint32, r int, s []byte) *EncodeTable {
	n := len(f)
	deltaNbBits := make([]uint64, n)
	starts := make([]int32, n)
	tableSize := uint64(1) << uint(r)

	var total int64
	for sym, c := range f {
		switch {
		case c == 1:
			deltaNbBits[sym] = uint64(r)<<16 - tableSize
			starts[sym] = int32(total - 1)
			total++
		case c > 0:
			hb := 31 - bits.LeadingZeros32(c-1)
			maxBitsOut := r - hb
			deltaNbBits[sym] = uint64(maxBitsOut)<<16 - (uint64(c) << uint(maxBitsOut))
			starts[sym] = int32(total - int64(c))
			total += int64(c)
		}
	}

	l := 1 << uint(r)
	table := make([]int32, l+2)
	next := make([]uint32, n)
	copy(next, f)
	for x := l; x < 2*l; x++ {
		sym := s[x-l]
		idx := starts[sym] + int32(next[sym])
		table[idx] = int32(x)
		next[sym]++
	}

	return &EncodeTable{deltaNbBits: deltaNbBits, starts: starts, table: table, tableLog: r}
}

// Step consumes symbol from state, writing the shed bits to w and
// returning the post-transition state. state must be in [L, 2L).
func (t *EncodeTable) Step(state uint32, symbol byte, w *Writer) uint32 {
	n := uint((uint64(state) + t.deltaNbBits[symbol]) >> 16)
	w.Write(state, n)
	idx := int32(state>>n) + t.starts[symbol]
	return uint32(t.table[idx])
}

// DecodeTable holds the per-state artifacts needed to drive the tANS
// decode loop in reverse.
type DecodeTable struct {
	nbBits       []uint8
	newStateBase []uint32
	spread       []byte
}

// BuildDecodeTable constructs the tANS decode artifacts from the
// normalized frequency table f, table_log r and spread table s. It
// must be built from the exact same (f, r, s) as the matching
// EncodeTable.
func BuildDecodeTable(f []uint32, r int, s []byte) *DecodeTable {
	l := 1 << uint(r)
	cursor := make([]uint32, len(f))
	copy(cursor, f)
	nbBits := make([]uint8, l)
	newStateBase := make([]uint32, l)
	for state := 0; state < l; state++ {
		sym := s[state]
		x := cursor[sym]
		cursor[sym]++
		hb := bits.Len32(x) - 1
		n := r - hb
		nbBits[state] = uint8(n)
		newStateBase[state] = (x << uint(n)) - uint32(l)
	}
	return &DecodeTable{nbBits: nbBits, newStateBase: newStateBase, spread: s}
}

// Step reads the bits for state from rd, returning the emitted symbol
// and the next state.
func (t *DecodeTable) Step(state uint32, rd *Reader) (next uint32, symbol byte, err error) {
	n := uint(t.nbBits[state])
	b, err := rd.Read(n)
	if err != nil {
		return 0, 0, err
	}
	symbol = t.spread[state]
	next = t.newStateBase[state] + b
	return next, symbol, nil
}

// EncodeTANS runs the full tANS encode loop over src and returns the
// residual state (final_state - L) and the finalized bitstream bytes.
// The initial state is L (2^r).
func EncodeTANS(src []byte, f []uint32, r int, s []byte) (residual uint32, payload []byte) {
	table := BuildEncodeTable(f, r, s)
	w := NewWriter()
	l := uint32(1) << uint(r)
	state := l
	for _, sym := range src {
		state = table.Step(state, sym, w)
	}
	return state - l, w.Finalize()
}

// DecodeTANS inverts EncodeTANS: given the residual, the finalized
// bitstream, the shared normalized table and spread, and the original
// length, it reproduces src. Symbols are produced in reverse order
// internally and written right-to-left into the output buffer.
func DecodeTANS(residual uint32, payload []byte, f []uint32, r int, s []byte, length int) ([]byte, error) {
	l := uint32(1) << uint(r)
	state := residual + l
	if state < l || state >= 2*l {
		return nil, newErr(InvalidState, "final_state outside [L, 2L)")
	}
	table := BuildDecodeTable(f, r, s)
	rd := NewReader(payload)
	out := make([]byte, length)
	// the decode table is indexed by x - L, in [0, L)
	state -= l
	for i := length - 1; i >= 0; i-- {
		next, sym, err := table.Step(state, rd)
		if err != nil {
			return nil, err
		}
		out[i] = sym
		state = next
	}
	return out, nil
}
