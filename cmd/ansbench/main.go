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

// Command ansbench times tANS/rANS encode and decode over a file and
// prints the resulting ratio and throughput alongside a klauspost/compress
// s2 baseline run over the same input.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/s2"

	"github.com/fenwick-labs/ans/ans"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	var tableLog int
	flag.IntVar(&tableLog, "r", 11, "table_log to use for both codecs")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fatalf("usage: %s [-r table_log] <file>", os.Args[0])
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("reading file: %s", err)
	}

	h := ans.Count(src, ans.Unrolled4)
	freq, err := ans.Normalize(h, tableLog)
	if err != nil {
		fatalf("normalize: %s", err)
	}

	runTANS(src, freq, tableLog)
	runRANS(src, freq, tableLog)
	runS2Baseline(src)
}

func runTANS(src []byte, freq []uint32, r int) {
	s := ans.Spread(freq, r, ans.BitReverseSpread)

	start := time.Now()
	residual, payload := ans.EncodeTANS(src, freq, r, s)
	encDur := time.Since(start)

	start = time.Now()
	dec, err := ans.DecodeTANS(residual, payload, freq, r, s, len(src))
	decDur := time.Since(start)
	if err != nil {
		fatalf("tANS decode: %s", err)
	}
	if len(dec) != len(src) {
		fatalf("tANS round-trip length mismatch: got %d, want %d", len(dec), len(src))
	}

	report("tANS", len(src), len(payload), encDur, decDur)
}

func runRANS(src []byte, freq []uint32, r int) {
	start := time.Now()
	finalState, trail, payload := ans.EncodeRANS(src, freq, r)
	encDur := time.Since(start)

	start = time.Now()
	dec, err := ans.DecodeRANS(finalState, trail, payload, freq, r, len(src))
	decDur := time.Since(start)
	if err != nil {
		fatalf("rANS decode: %s", err)
	}
	if len(dec) != len(src) {
		fatalf("rANS round-trip length mismatch: got %d, want %d", len(dec), len(src))
	}

	report("rANS", len(src), len(payload), encDur, decDur)
}

func runS2Baseline(src []byte) {
	start := time.Now()
	comp := s2.Encode(nil, src)
	encDur := time.Since(start)

	start = time.Now()
	dec, err := s2.Decode(nil, comp)
	decDur := time.Since(start)
	if err != nil {
		fatalf("s2 decode: %s", err)
	}
	if len(dec) != len(src) {
		fatalf("s2 round-trip length mismatch")
	}

	report("s2 (baseline)", len(src), len(comp), encDur, decDur)
}

func report(name string, srcLen, outLen int, encDur, decDur time.Duration) {
	ratio := float64(srcLen) / float64(outLen)
	encGBps := gbps(srcLen, encDur)
	decGBps := gbps(srcLen, decDur)
	fmt.Printf("%-14s %8dB -> %8dB (%.3gx)  enc %.3g GB/s  dec %.3g GB/s\n",
		name, srcLen, outLen, ratio, encGBps, decGBps)
}

func gbps(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds() / 1e9
}
