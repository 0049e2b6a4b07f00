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

// Package lzfront is an optional LZ77-style front end for the ans core: a
// hash-chain match finder rewrites the input as a sequence of literal
// runs and (offset, length) back-references, and only the literal bytes
// and a small set of token streams are handed to ans for entropy coding.
// It is independent of the core codec contract in package ans — nothing
// in ans depends on it.
package lzfront

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

const (
	minMatch   = 4
	chainBits  = 16
	chainDepth = 32
	hashSeed   = 0x616e73 // "ans" as a 24-bit tag, arbitrary but fixed
)

// Token is one emitted unit of the tokenized stream: either a literal run
// (Match == false, Len literal bytes follow in the literal stream) or a
// back-reference (Match == true, copy Len bytes from Offset bytes back in
// the already-decoded output).
type Token struct {
	Match  bool
	Offset uint32
	Len    uint32
}

// Tokenize rewrites src into a literal byte stream and a token sequence
// describing how to reconstruct src from literal runs and copies.
func Tokenize(src []byte) (literals []byte, tokens []Token) {
	n := len(src)
	if n < minMatch {
		return append([]byte(nil), src...), nil
	}

	chain := newHashChain()
	pos := 0
	litStart := 0

	for pos+minMatch <= n {
		h := bucketHash(src[pos : pos+minMatch])
		bestLen := 0
		bestOffset := uint32(0)

		depth := 0
		for cand := chain.head[h]; cand >= 0 && depth < chainDepth; cand, depth = chain.prev[cand], depth+1 {
			l := matchLength(src, cand, pos)
			if l > bestLen {
				bestLen = l
				bestOffset = uint32(pos - cand)
			}
		}

		chain.insert(h, pos)

		if bestLen >= minMatch {
			if pos > litStart {
				tokens = append(tokens, Token{Match: false, Len: uint32(pos - litStart)})
				literals = append(literals, src[litStart:pos]...)
			}
			tokens = append(tokens, Token{Match: true, Offset: bestOffset, Len: uint32(bestLen)})

			end := pos + bestLen
			for pos++; pos < end && pos+minMatch <= n; pos++ {
				chain.insert(bucketHash(src[pos:pos+minMatch]), pos)
			}
			pos = end
			litStart = pos
		} else {
			pos++
		}
	}

	if litStart < n {
		tokens = append(tokens, Token{Match: false, Len: uint32(n - litStart)})
		literals = append(literals, src[litStart:n]...)
	}
	return literals, tokens
}

// Detokenize reconstructs the original byte stream from a literal buffer
// and a token sequence produced by Tokenize.
func Detokenize(literals []byte, tokens []Token, length int) []byte {
	out := make([]byte, 0, length)
	litPos := 0
	for _, tok := range tokens {
		if !tok.Match {
			out = append(out, literals[litPos:litPos+int(tok.Len)]...)
			litPos += int(tok.Len)
			continue
		}
		start := len(out) - int(tok.Offset)
		for i := uint32(0); i < tok.Len; i++ {
			out = append(out, out[start+int(i)])
		}
	}
	return out
}

// EncodeTokens serializes a token sequence into a compact varint form:
// one control byte (0 literal / 1 match) followed by length (and offset
// for matches), ready to be handed to ans as a regular byte stream.
func EncodeTokens(tokens []Token) []byte {
	var out []byte
	for _, tok := range tokens {
		if tok.Match {
			out = append(out, 1)
			out = appendUvarint(out, uint64(tok.Offset))
			out = appendUvarint(out, uint64(tok.Len))
		} else {
			out = append(out, 0)
			out = appendUvarint(out, uint64(tok.Len))
		}
	}
	return out
}

// DecodeTokens parses the stream produced by EncodeTokens.
func DecodeTokens(src []byte) ([]Token, error) {
	var tokens []Token
	for len(src) > 0 {
		kind := src[0]
		src = src[1:]
		switch kind {
		case 0:
			l, n := binary.Uvarint(src)
			if n <= 0 {
				return nil, errTruncated
			}
			src = src[n:]
			tokens = append(tokens, Token{Match: false, Len: uint32(l)})
		case 1:
			off, n := binary.Uvarint(src)
			if n <= 0 {
				return nil, errTruncated
			}
			src = src[n:]
			l, n := binary.Uvarint(src)
			if n <= 0 {
				return nil, errTruncated
			}
			src = src[n:]
			tokens = append(tokens, Token{Match: true, Offset: uint32(off), Len: uint32(l)})
		default:
			return nil, errBadToken
		}
	}
	return tokens, nil
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

type tokenError string

func (e tokenError) Error() string { return string(e) }

const (
	errTruncated = tokenError("lzfront: truncated token stream")
	errBadToken  = tokenError("lzfront: unrecognized token kind")
)

// hashChain is a fixed-size bucket table of singly linked match chains,
// keyed by a siphash digest of each minMatch-byte prefix so the bucket
// spread is independent of the byte distribution of src.
type hashChain struct {
	head [1 << chainBits]int32
	prev []int32
}

func newHashChain() *hashChain {
	c := &hashChain{}
	for i := range c.head {
		c.head[i] = -1
	}
	return c
}

func (c *hashChain) insert(bucket uint32, pos int) {
	c.prev = append(c.prev, c.head[bucket])
	c.head[bucket] = int32(pos)
}

func bucketHash(prefix []byte) uint32 {
	var buf [minMatch]byte
	copy(buf[:], prefix)
	h := siphash.Hash(hashSeed, 0, buf[:])
	return uint32(h) & ((1 << chainBits) - 1)
}

func matchLength(src []byte, a, b int) int {
	n := len(src)
	l := 0
	for b+l < n && src[a+l] == src[b+l] {
		l++
	}
	return l
}
