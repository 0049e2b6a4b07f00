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

import (
	"math/rand"
	"testing"
)

func TestBitstreamLIFORoundtrip(t *testing.T) {
	type write struct {
		value uint32
		n     uint
	}
	writes := []write{
		{0x3, 2},
		{0x1F, 5},
		{0, 0},
		{0xAAAA, 16},
		{0x1, 1},
		{0x7FFFFFFF, 31},
	}

	w := NewWriter()
	for _, wr := range writes {
		w.Write(wr.value, wr.n)
	}
	buf := w.Finalize()

	r := NewReader(buf)
	for i := len(writes) - 1; i >= 0; i-- {
		got, err := r.Read(writes[i].n)
		if err != nil {
			t.Fatalf("write %d: unexpected error: %v", i, err)
		}
		mask := uint32(0)
		if writes[i].n > 0 {
			mask = uint32(1)<<writes[i].n - 1
		}
		want := writes[i].value & mask
		if got != want {
			t.Fatalf("write %d: read back %#x, want %#x", i, got, want)
		}
	}
}

func TestBitstreamRandomLIFORoundtrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	type write struct {
		value uint32
		n     uint
	}
	var writes []write
	w := NewWriter()
	for i := 0; i < 500; i++ {
		n := uint(r.Intn(33))
		v := r.Uint32()
		writes = append(writes, write{v, n})
		w.Write(v, n)
	}
	buf := w.Finalize()

	rd := NewReader(buf)
	for i := len(writes) - 1; i >= 0; i-- {
		got, err := rd.Read(writes[i].n)
		if err != nil {
			t.Fatalf("write %d: unexpected error: %v", i, err)
		}
		mask := uint32(0)
		if writes[i].n > 0 && writes[i].n < 32 {
			mask = uint32(1)<<writes[i].n - 1
		} else if writes[i].n == 32 {
			mask = ^uint32(0)
		}
		want := writes[i].value & mask
		if got != want {
			t.Fatalf("write %d (n=%d): read back %#x, want %#x", i, writes[i].n, got, want)
		}
	}
}

func TestBitstreamTruncatedStream(t *testing.T) {
	w := NewWriter()
	w.Write(1, 3)
	buf := w.Finalize()
	r := NewReader(buf)
	if _, err := r.Read(3); err != nil {
		t.Fatalf("unexpected error reading valid data: %v", err)
	}
	if _, err := r.Read(1); err == nil {
		t.Fatal("expected TruncatedStream reading past the mark bit")
	}
}
