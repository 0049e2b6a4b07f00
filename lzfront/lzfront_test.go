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

package lzfront

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestTokenizeDetokenizeRoundtrip(t *testing.T) {
	src := []byte(bytesRepeat("abcdefgh", 50))
	lits, toks := Tokenize(src)
	got := Detokenize(lits, toks, len(src))
	if !bytes.Equal(got, src) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(src))
	}
	foundMatch := false
	for _, tok := range toks {
		if tok.Match {
			foundMatch = true
		}
	}
	if !foundMatch {
		t.Fatal("expected at least one back-reference on a highly repetitive input")
	}
}

func TestTokenizeShortInput(t *testing.T) {
	src := []byte("ab")
	lits, toks := Tokenize(src)
	if len(toks) != 0 {
		t.Fatalf("expected no tokens for sub-minMatch input, got %d", len(toks))
	}
	if !bytes.Equal(lits, src) {
		t.Fatalf("expected literals to equal src verbatim")
	}
}

func TestEncodeDecodeTokensRoundtrip(t *testing.T) {
	toks := []Token{
		{Match: false, Len: 5},
		{Match: true, Offset: 12, Len: 20},
		{Match: false, Len: 1},
	}
	buf := EncodeTokens(toks)
	got, err := DecodeTokens(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(toks) {
		t.Fatalf("len(got)=%d, want %d", len(got), len(toks))
	}
	for i := range toks {
		if got[i] != toks[i] {
			t.Fatalf("token %d = %+v, want %+v", i, got[i], toks[i])
		}
	}
}

func TestTokenizeRandomInputRoundtrips(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 10; i++ {
		n := 1 + r.Intn(5000)
		src := make([]byte, n)
		alphabet := byte(2 + r.Intn(8))
		for j := range src {
			src[j] = byte(r.Intn(int(alphabet)))
		}
		lits, toks := Tokenize(src)
		got := Detokenize(lits, toks, len(src))
		if !bytes.Equal(got, src) {
			t.Fatalf("trial %d: round-trip mismatch", i)
		}
	}
}

func bytesRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
