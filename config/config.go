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

// Package config loads the tunable defaults a caller of ans/container
// would otherwise have to hard-code: table_log, which spread algorithm to
// use, which histogram variant to count with, and the run-length
// degenerate-input threshold.
package config

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/fenwick-labs/ans/ans"
)

// Params holds the defaults a caller feeds into ans.Normalize/ans.Spread
// and container.Block construction.
type Params struct {
	TableLog         int    `json:"table_log"`
	Spread           string `json:"spread"`
	HistogramVariant string `json:"histogram_variant"`
	RLEThreshold     int    `json:"rle_threshold"`
}

// Defaults mirrors the recommended range from the external interface
// contract: R=11, bit-reverse spread, the unrolled histogram variant, and
// a run-length threshold of 1 (any single-symbol run is degenerate).
func Defaults() Params {
	return Params{
		TableLog:         11,
		Spread:           "bitreverse",
		HistogramVariant: "unrolled4",
		RLEThreshold:     1,
	}
}

// Load parses a YAML document into Params, starting from Defaults so a
// partial document only overrides the fields it mentions.
func Load(doc []byte) (Params, error) {
	p := Defaults()
	if err := yaml.Unmarshal(doc, &p); err != nil {
		return Params{}, fmt.Errorf("config: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks that Params describes a usable configuration.
func (p Params) Validate() error {
	if p.TableLog < ans.MinTableLog || p.TableLog > ans.MaxTableLog {
		return fmt.Errorf("config: table_log %d out of range [%d, %d]", p.TableLog, ans.MinTableLog, ans.MaxTableLog)
	}
	switch p.Spread {
	case "step", "bitreverse":
	default:
		return fmt.Errorf("config: unknown spread algorithm %q", p.Spread)
	}
	switch p.HistogramVariant {
	case "scalar", "unrolled4":
	default:
		return fmt.Errorf("config: unknown histogram_variant %q", p.HistogramVariant)
	}
	if p.RLEThreshold < 1 {
		return fmt.Errorf("config: rle_threshold must be >= 1")
	}
	return nil
}

// SpreadAlgorithm resolves the configured spread name to an ans.SpreadAlgorithm.
func (p Params) SpreadAlgorithm() ans.SpreadAlgorithm {
	if p.Spread == "step" {
		return ans.StepSpread
	}
	return ans.BitReverseSpread
}

// HistogramAlgorithm resolves the configured variant name to an ans.HistogramVariant.
func (p Params) HistogramAlgorithm() ans.HistogramVariant {
	if p.HistogramVariant == "scalar" {
		return ans.Scalar
	}
	return ans.Unrolled4
}
