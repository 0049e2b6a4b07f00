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

// Command ansc compresses or decompresses a single file end to end
// through the ans core and the container framing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fenwick-labs/ans/ans"
	"github.com/fenwick-labs/ans/config"
	"github.com/fenwick-labs/ans/container"
	"github.com/fenwick-labs/ans/telemetry"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	var decompress bool
	var tableLog int
	var useRANS bool
	flag.BoolVar(&decompress, "d", false, "decompress instead of compress")
	flag.IntVar(&tableLog, "r", 0, "table_log override (0 = use config default)")
	flag.BoolVar(&useRANS, "rans", false, "use the rANS codec instead of tANS")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fatalf("usage: %s [-d] [-r table_log] [-rans] <in> <out>", os.Args[0])
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("reading %s: %s", args[0], err)
	}

	if decompress {
		out, err := decompressFile(src)
		if err != nil {
			fatalf("decompress: %s", err)
		}
		if err := os.WriteFile(args[1], out, 0o644); err != nil {
			fatalf("writing %s: %s", args[1], err)
		}
		return
	}

	cfg := config.Defaults()
	if tableLog != 0 {
		cfg.TableLog = tableLog
	}
	out, err := compressFile(src, cfg, useRANS)
	if err != nil {
		fatalf("compress: %s", err)
	}
	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		fatalf("writing %s: %s", args[1], err)
	}
	fmt.Fprintf(os.Stderr, "%dB -> %dB (%.3gx)\n", len(src), len(out), float64(len(src))/float64(len(out)))
}

func compressFile(src []byte, cfg config.Params, useRANS bool) ([]byte, error) {
	start := time.Now()
	log := telemetry.NewOperation("compress")
	h := ans.Count(src, cfg.HistogramAlgorithm())
	log.Event("histogram", "max_symbol", h.MaxSymbol)

	r := cfg.TableLog
	freq, err := ans.Normalize(h, r)
	if err != nil {
		if errors.Is(err, ans.TableLogTooSmall) {
			r = ans.MaxTableLog
			freq, err = ans.Normalize(h, r)
		}
		if err != nil {
			log.Done(start, err)
			return nil, err
		}
	}

	blk := &container.Block{TableLog: r, Length: len(src), Freq: freq}
	if useRANS {
		finalState, trail, payload := ans.EncodeRANS(src, freq, r)
		blk.Codec = container.CodecRANS
		blk.FinalState = finalState
		blk.Trail = trail
		blk.Payload = payload
	} else {
		algo := cfg.SpreadAlgorithm()
		spreadID := container.SpreadBitReverse
		if algo == ans.StepSpread {
			spreadID = container.SpreadStep
		}
		s := ans.Spread(freq, r, algo)
		residual, payload := ans.EncodeTANS(src, freq, r, s)
		blk.Codec = container.CodecTANS
		blk.Spread = spreadID
		blk.FinalState = residual
		blk.Payload = payload
	}

	out, err := container.Marshal(blk)
	log.Done(start, err)
	return out, err
}

func decompressFile(src []byte) ([]byte, error) {
	start := time.Now()
	log := telemetry.NewOperation("decompress")
	blk, err := container.Unmarshal(src)
	if err != nil {
		log.Done(start, err)
		return nil, err
	}

	var out []byte
	if blk.Codec == container.CodecRANS {
		out, err = ans.DecodeRANS(blk.FinalState, blk.Trail, blk.Payload, blk.Freq, blk.TableLog, blk.Length)
	} else {
		algo := ans.BitReverseSpread
		if blk.Spread == container.SpreadStep {
			algo = ans.StepSpread
		}
		s := ans.Spread(blk.Freq, blk.TableLog, algo)
		out, err = ans.DecodeTANS(blk.FinalState, blk.Payload, blk.Freq, blk.TableLog, s, blk.Length)
	}
	log.Done(start, err)
	return out, err
}
