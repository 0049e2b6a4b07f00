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

import "testing"

func symString(s []byte, alphabet string) string {
	out := make([]byte, len(s))
	for i, v := range s {
		out[i] = alphabet[v]
	}
	return string(out)
}

func TestStepSpreadKnownSequence(t *testing.T) {
	// A=5, B=5, C=3, D=3 at table_log=4.
	f := []uint32{5, 5, 3, 3}
	s := stepSpread(f, 4)
	got := symString(s, "ABCD")
	want := "ABCDABDABDABCABC"
	if got != want {
		t.Fatalf("stepSpread = %q, want %q", got, want)
	}
}

func TestBitReverseSpreadKnownSequence(t *testing.T) {
	// A=7, B=6, C=3 at table_log=4.
	f := []uint32{7, 6, 3}
	s := bitReverseSpread(f, 4)
	got := symString(s, "ABC")
	want := "ABABABACABACABBC"
	if got != want {
		t.Fatalf("bitReverseSpread = %q, want %q", got, want)
	}
}

func TestSpreadMultiplicityMatchesFrequency(t *testing.T) {
	f := make([]uint32, 256)
	f[10] = 12
	f[20] = 4
	f[30] = 16
	r := 5 // 2^5 == 32 == sum
	for _, algo := range []SpreadAlgorithm{StepSpread, BitReverseSpread} {
		s := Spread(f, r, algo)
		if len(s) != 1<<uint(r) {
			t.Fatalf("len(S)=%d, want %d", len(s), 1<<uint(r))
		}
		counts := map[byte]uint32{}
		for _, sym := range s {
			counts[sym]++
		}
		for sym, want := range map[byte]uint32{10: 12, 20: 4, 30: 16} {
			if counts[sym] != want {
				t.Fatalf("algo=%d: symbol %d appears %d times, want %d", algo, sym, counts[sym], want)
			}
		}
	}
}
