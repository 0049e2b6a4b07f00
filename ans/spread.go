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

// SpreadAlgorithm identifies which permutation built the spread table.
// It must match between encode and decode and is part of the encoded
// payload per the external interface contract.
type SpreadAlgorithm uint8

const (
	// StepSpread scatters symbols using the classic FSE step
	// (5*2^R/8 + 3), skipping already-occupied slots.
	StepSpread SpreadAlgorithm = iota
	// BitReverseSpread places the k-th occurrence of symbols in
	// histogram order at the bit-reversal of a monotone counter.
	BitReverseSpread
)

// Spread builds S, the table mapping table positions [0, 2^r) to
// symbols, from the normalized frequency table f using algo. len(f)
// must not exceed 256; every entry f[i] places symbol i exactly f[i]
// times in S.
func Spread(f []uint32, r int, algo SpreadAlgorithm) []byte {
	switch algo {
	case BitReverseSpread:
		return bitReverseSpread(f, r)
	default:
		return stepSpread(f, r)
	}
}

func stepSpread(f []uint32, r int) []byte {
	size := 1 << uint(r)
	s := make([]byte, size)
	occupied := make([]bool, size)
	step := (5*size)>>3 + 3
	pos := 0
	for i, count := range f {
		for j := uint32(0); j < count; j++ {
			for occupied[pos] {
				pos = (pos + 1) % size
			}
			s[pos] = byte(i)
			occupied[pos] = true
			pos = (pos + step) % size
		}
	}
	return s
}

func bitReverseSpread(f []uint32, r int) []byte {
	size := 1 << uint(r)
	s := make([]byte, size)
	shift := 32 - uint(r)
	var counter uint32
	for i, count := range f {
		for j := uint32(0); j < count; j++ {
			pos := bits.Reverse32(counter) >> shift
			s[pos] = byte(i)
			counter++
		}
	}
	return s
}
