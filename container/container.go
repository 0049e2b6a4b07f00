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

// Package container defines the on-disk framing for a single entropy-coded
// block: the frequency table, the spread identifier, the original length,
// the rANS bit-count trail (when present), the final state and the
// finalized bitstream bytes, plus an integrity checksum over the whole
// record. Everything above the frequency-table encoding is a thin varint/
// fixed-width wrapper; table encoding follows the 3-bit-control-plus-escape
// scheme used for dense ANS tables.
package container

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/fenwick-labs/ans/ans"
)

// Codec selects which core codec produced the payload.
type Codec uint8

const (
	CodecTANS Codec = iota
	CodecRANS
)

// Spread identifies the spread algorithm used to build S, carried in the
// container so a decoder can reconstruct the same table without being told
// out of band.
type Spread uint8

const (
	SpreadStep Spread = iota
	SpreadBitReverse
)

// checksumKey is fixed rather than per-block: the checksum defends against
// accidental corruption in transit/storage, not against a hostile sender,
// so a single well-known key is sufficient and keeps the format simple.
var checksumKey = [blake2b.Size256]byte{'a', 'n', 's', '-', 'b', 'l', 'o', 'c', 'k'}

// Block is the decoded, in-memory form of one container record.
type Block struct {
	TableLog   int
	Codec      Codec
	Spread     Spread
	Length     int
	Freq       []uint32 // length 256, dense
	Trail      []uint8  // rANS only
	FinalState uint32
	Payload    []byte
}

// Marshal serializes b into a self-describing byte slice: R, codec id,
// spread id, encoded frequency table, varint length, trail (rANS only),
// final_state (little-endian), payload, then a trailing checksum.
func Marshal(b *Block) ([]byte, error) {
	if b.TableLog < ans.MinTableLog || b.TableLog > ans.MaxTableLog {
		return nil, fmt.Errorf("container: table_log %d out of range", b.TableLog)
	}

	var out []byte
	out = append(out, byte(b.TableLog))
	out = append(out, byte(b.Codec))
	out = append(out, byte(b.Spread))
	out, err := encodeFreqTable(out, b.Freq)
	if err != nil {
		return nil, err
	}

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(b.Length))
	out = append(out, lenBuf[:n]...)

	if b.Codec == CodecRANS {
		var trailLenBuf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(trailLenBuf[:], uint64(len(b.Trail)))
		out = append(out, trailLenBuf[:n]...)
		out = append(out, b.Trail...)
	}

	var stateBuf [4]byte
	binary.LittleEndian.PutUint32(stateBuf[:], b.FinalState)
	out = append(out, stateBuf[:]...)

	var payloadLenBuf [binary.MaxVarintLen64]byte
	n = binary.PutUvarint(payloadLenBuf[:], uint64(len(b.Payload)))
	out = append(out, payloadLenBuf[:n]...)
	out = append(out, b.Payload...)

	sum := checksum(out)
	out = append(out, sum[:]...)
	return out, nil
}

// Unmarshal parses a record produced by Marshal, verifying its checksum
// first.
func Unmarshal(src []byte) (*Block, error) {
	if len(src) < blake2b.Size256 {
		return nil, fmt.Errorf("container: record too short")
	}
	body := src[:len(src)-blake2b.Size256]
	wantSum := src[len(src)-blake2b.Size256:]
	gotSum := checksum(body)
	if !bytesEqual(gotSum[:], wantSum) {
		return nil, fmt.Errorf("container: checksum mismatch")
	}

	b := &Block{}
	r := body

	if len(r) < 3 {
		return nil, fmt.Errorf("container: truncated header")
	}
	b.TableLog = int(r[0])
	b.Codec = Codec(r[1])
	b.Spread = Spread(r[2])
	r = r[3:]

	freq, rest, err := decodeFreqTable(r)
	if err != nil {
		return nil, err
	}
	b.Freq = freq
	r = rest

	length, n := binary.Uvarint(r)
	if n <= 0 {
		return nil, fmt.Errorf("container: bad length varint")
	}
	b.Length = int(length)
	r = r[n:]

	if b.Codec == CodecRANS {
		trailLen, n := binary.Uvarint(r)
		if n <= 0 {
			return nil, fmt.Errorf("container: bad trail-length varint")
		}
		r = r[n:]
		if uint64(len(r)) < trailLen {
			return nil, fmt.Errorf("container: truncated trail")
		}
		b.Trail = append([]uint8(nil), r[:trailLen]...)
		r = r[trailLen:]
	}

	if len(r) < 4 {
		return nil, fmt.Errorf("container: truncated final_state")
	}
	b.FinalState = binary.LittleEndian.Uint32(r[:4])
	r = r[4:]

	payloadLen, n := binary.Uvarint(r)
	if n <= 0 {
		return nil, fmt.Errorf("container: bad payload-length varint")
	}
	r = r[n:]
	if uint64(len(r)) != payloadLen {
		return nil, fmt.Errorf("container: payload length mismatch")
	}
	b.Payload = append([]byte(nil), r...)

	return b, nil
}

func checksum(data []byte) [blake2b.Size256]byte {
	h, err := blake2b.New256(checksumKey[:16])
	if err != nil {
		// blake2b.New256 only errors when the key exceeds 64 bytes;
		// the key passed is checksumKey's first 16 bytes.
		panic(err)
	}
	h.Write(data)
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// maxEscapedFreq is the largest frequency the top escape class can carry.
// The teacher's equivalent field is 12 bits wide because its dense table
// has a word size fixed at ansWordMBits==12, so every representable
// frequency is below ansWordM (4096) and 277+4095==4372 is a safe bound.
// This module makes table_log a runtime parameter up to
// ans.MaxTableLog==15, so a normalized F[s] can reach 2^15-1==32767 — a
// 12-bit field would silently truncate it via bitPacker.add's masking.
// 16 bits covers every F[s] this module can produce with room to spare.
const maxEscapedFreq = 277 + (1 << 16) - 1

// encodeFreqTable appends a 3-bit-control-plus-escape encoding of a dense
// 256-entry frequency table: values 0..4 are stored verbatim in a 3-bit
// control stream, larger values escape into a side channel, matching the
// density classes a real byte histogram produces (most symbols rare or
// absent, a handful dominant). Returns an error rather than truncating
// if a frequency exceeds the widest escape class.
func encodeFreqTable(dst []byte, freq []uint32) ([]byte, error) {
	var ctrl bitPacker
	var data bitPacker

	for i := 0; i < 256; i++ {
		f := uint32(0)
		if i < len(freq) {
			f = freq[i]
		}
		switch {
		case f < 5:
			ctrl.add(f, 3)
		case f < 21:
			ctrl.add(0b101, 3)
			data.add(f-5, 4)
		case f < 277:
			ctrl.add(0b110, 3)
			data.add(f-21, 8)
		case f <= maxEscapedFreq:
			ctrl.add(0b111, 3)
			data.add(f-277, 16)
		default:
			return nil, fmt.Errorf("container: frequency %d for symbol %d exceeds the escape field width", f, i)
		}
	}
	ctrl.flush()
	data.flush()

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data.buf)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, data.buf...)
	dst = append(dst, ctrl.buf...)
	return dst, nil
}

func decodeFreqTable(src []byte) ([]uint32, []byte, error) {
	dataLen, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, nil, fmt.Errorf("container: bad freq-table data-length varint")
	}
	src = src[n:]
	if uint64(len(src)) < dataLen {
		return nil, nil, fmt.Errorf("container: truncated freq-table data")
	}
	data := src[:dataLen]
	rest := src[dataLen:]

	const ctrlBytes = 96 // 256 * 3 bits
	if len(rest) < ctrlBytes {
		return nil, nil, fmt.Errorf("container: truncated freq-table control")
	}
	ctrl := rest[:ctrlBytes]
	rest = rest[ctrlBytes:]

	freq := make([]uint32, 256)
	cr := bitUnpacker{buf: ctrl}
	dr := bitUnpacker{buf: data}

	for i := 0; i < 256; i++ {
		v, err := cr.take(3)
		if err != nil {
			return nil, nil, err
		}
		switch v {
		case 0b101:
			x, err := dr.take(4)
			if err != nil {
				return nil, nil, err
			}
			freq[i] = x + 5
		case 0b110:
			x, err := dr.take(8)
			if err != nil {
				return nil, nil, err
			}
			freq[i] = x + 21
		case 0b111:
			x, err := dr.take(16)
			if err != nil {
				return nil, nil, err
			}
			freq[i] = x + 277
		default:
			freq[i] = v
		}
	}
	return freq, rest, nil
}

// bitPacker accumulates LSB-first bit fields into a byte buffer, matching
// the container-level collaborator contract used for the ANS bitstream.
type bitPacker struct {
	acc uint64
	cnt int
	buf []byte
}

func (p *bitPacker) add(v uint32, k uint32) {
	mask := ^(^uint32(0) << k)
	p.acc |= uint64(v&mask) << p.cnt
	p.cnt += int(k)
	for p.cnt >= 8 {
		p.buf = append(p.buf, byte(p.acc))
		p.acc >>= 8
		p.cnt -= 8
	}
}

func (p *bitPacker) flush() {
	for p.cnt > 0 {
		p.buf = append(p.buf, byte(p.acc))
		p.acc >>= 8
		p.cnt -= 8
	}
}

type bitUnpacker struct {
	buf []byte
	pos int // bit position
}

func (u *bitUnpacker) take(k uint32) (uint32, error) {
	var out uint32
	for i := uint32(0); i < k; i++ {
		byteIdx := u.pos / 8
		if byteIdx >= len(u.buf) {
			return 0, fmt.Errorf("container: truncated control stream")
		}
		bit := (u.buf[byteIdx] >> uint(u.pos%8)) & 1
		out |= uint32(bit) << i
		u.pos++
	}
	return out, nil
}

