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

package config

import (
	"testing"

	"github.com/fenwick-labs/ans/ans"
)

func TestLoadPartialDocumentKeepsDefaults(t *testing.T) {
	doc := []byte("table_log: 13\n")
	p, err := Load(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.TableLog != 13 {
		t.Fatalf("table_log = %d, want 13", p.TableLog)
	}
	if p.Spread != "bitreverse" {
		t.Fatalf("spread = %q, want default bitreverse", p.Spread)
	}
	if p.RLEThreshold != 1 {
		t.Fatalf("rle_threshold = %d, want default 1", p.RLEThreshold)
	}
}

func TestLoadRejectsBadSpread(t *testing.T) {
	doc := []byte("spread: quantum\n")
	if _, err := Load(doc); err == nil {
		t.Fatal("expected error for unknown spread algorithm")
	}
}

func TestLoadRejectsOutOfRangeTableLog(t *testing.T) {
	doc := []byte("table_log: 31\n")
	if _, err := Load(doc); err == nil {
		t.Fatal("expected error for out-of-range table_log")
	}
}

func TestSpreadAlgorithmResolution(t *testing.T) {
	p := Defaults()
	p.Spread = "step"
	if p.SpreadAlgorithm() != ans.StepSpread {
		t.Fatal("expected StepSpread")
	}
	p.Spread = "bitreverse"
	if p.SpreadAlgorithm() != ans.BitReverseSpread {
		t.Fatal("expected BitReverseSpread")
	}
}

func TestHistogramAlgorithmResolution(t *testing.T) {
	p := Defaults()
	p.HistogramVariant = "scalar"
	if p.HistogramAlgorithm() != ans.Scalar {
		t.Fatal("expected Scalar")
	}
	p.HistogramVariant = "unrolled4"
	if p.HistogramAlgorithm() != ans.Unrolled4 {
		t.Fatal("expected Unrolled4")
	}
}
