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

package container

import (
	"bytes"
	"testing"

	"github.com/fenwick-labs/ans/ans"
)

func freqFor(src []byte, r int) []uint32 {
	h := ans.Count(src, ans.Scalar)
	f, err := ans.Normalize(h, r)
	if err != nil {
		panic(err)
	}
	return f
}

func TestMarshalUnmarshalTANSRoundtrip(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog repeatedly to pad this sample")
	r := 9
	f := freqFor(src, r)
	s := ans.Spread(f, r, ans.BitReverseSpread)
	residual, payload := ans.EncodeTANS(src, f, r, s)

	blk := &Block{
		TableLog:   r,
		Codec:      CodecTANS,
		Spread:     SpreadBitReverse,
		Length:     len(src),
		Freq:       f,
		FinalState: residual,
		Payload:    payload,
	}
	buf, err := Marshal(blk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TableLog != r || got.Codec != CodecTANS || got.Spread != SpreadBitReverse {
		t.Fatalf("header mismatch: %+v", got)
	}
	if got.Length != len(src) {
		t.Fatalf("length = %d, want %d", got.Length, len(src))
	}
	if got.FinalState != residual {
		t.Fatalf("final_state = %d, want %d", got.FinalState, residual)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	for i, want := range f {
		if got.Freq[i] != want {
			t.Fatalf("freq[%d] = %d, want %d", i, got.Freq[i], want)
		}
	}

	dec, err := ans.DecodeTANS(got.FinalState, got.Payload, got.Freq, got.TableLog,
		ans.Spread(got.Freq, got.TableLog, ans.BitReverseSpread), got.Length)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, src) {
		t.Fatalf("decoded mismatch: got %q, want %q", dec, src)
	}
}

func TestMarshalUnmarshalRANSRoundtrip(t *testing.T) {
	src := bytes.Repeat([]byte("lorem ipsum dolor sit amet "), 40)
	r := 12
	f := freqFor(src, r)
	finalState, trail, payload := ans.EncodeRANS(src, f, r)

	blk := &Block{
		TableLog:   r,
		Codec:      CodecRANS,
		Length:     len(src),
		Freq:       f,
		Trail:      trail,
		FinalState: finalState,
		Payload:    payload,
	}
	buf, err := Marshal(blk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Trail) != len(trail) {
		t.Fatalf("trail length = %d, want %d", len(got.Trail), len(trail))
	}
	for i := range trail {
		if got.Trail[i] != trail[i] {
			t.Fatalf("trail[%d] = %d, want %d", i, got.Trail[i], trail[i])
		}
	}

	dec, err := ans.DecodeRANS(got.FinalState, got.Trail, got.Payload, got.Freq, got.TableLog, got.Length)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, src) {
		t.Fatal("decoded mismatch")
	}
}

func TestUnmarshalDetectsCorruption(t *testing.T) {
	src := []byte("abcdefgh abcdefgh abcdefgh")
	r := 6
	f := freqFor(src, r)
	s := ans.Spread(f, r, ans.StepSpread)
	residual, payload := ans.EncodeTANS(src, f, r, s)
	blk := &Block{TableLog: r, Codec: CodecTANS, Spread: SpreadStep, Length: len(src), Freq: f, FinalState: residual, Payload: payload}
	buf, err := Marshal(blk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	buf[len(buf)/2] ^= 0xFF
	if _, err := Unmarshal(buf); err == nil {
		t.Fatal("expected checksum mismatch on corrupted record")
	}
}

// TestMarshalUnmarshalSkewedHighTableLog exercises a dominant-symbol
// frequency at a table_log high enough that the normalized count exceeds
// the teacher's 12-bit escape-field cap (277+4095=4372): a previous
// revision of encodeFreqTable/decodeFreqTable silently truncated such
// values to 12 bits, which a checksum can't catch since it runs over the
// already-truncated bytes. r=13 with one symbol covering the overwhelming
// majority of the input reliably pushes F[s] past 4372.
func TestMarshalUnmarshalSkewedHighTableLog(t *testing.T) {
	src := make([]byte, 0, 20000)
	for i := 0; i < 19900; i++ {
		src = append(src, 'x')
	}
	src = append(src, []byte("the quick brown fox jumps over the lazy dog")...)
	r := 13
	f := freqFor(src, r)

	var maxFreq uint32
	for _, v := range f {
		if v > maxFreq {
			maxFreq = v
		}
	}
	if maxFreq <= 4372 {
		t.Fatalf("test fixture doesn't exercise the wide escape class: max freq = %d, want > 4372", maxFreq)
	}

	finalState, trail, payload := ans.EncodeRANS(src, f, r)
	blk := &Block{
		TableLog:   r,
		Codec:      CodecRANS,
		Length:     len(src),
		Freq:       f,
		Trail:      trail,
		FinalState: finalState,
		Payload:    payload,
	}
	buf, err := Marshal(blk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i, want := range f {
		if got.Freq[i] != want {
			t.Fatalf("freq[%d] = %d, want %d (escape field truncation)", i, got.Freq[i], want)
		}
	}

	dec, err := ans.DecodeRANS(got.FinalState, got.Trail, got.Payload, got.Freq, got.TableLog, got.Length)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, src) {
		t.Fatal("decoded mismatch: frequency truncation corrupted the roundtrip")
	}
}

func TestMarshalRejectsTableLogOutOfRange(t *testing.T) {
	blk := &Block{TableLog: 20, Codec: CodecTANS}
	if _, err := Marshal(blk); err == nil {
		t.Fatal("expected error for out-of-range table_log")
	}
}
