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

// Package ans implements the Asymmetric Numeral Systems entropy coding
// family: a table-based codec (tANS/FSE) and a range/rational codec
// (rANS), plus the counting, normalization and spreading pipeline that
// feeds both.
package ans

// ErrorKind classifies the ways the core pipeline can fail. Every kind
// is itself a sentinel error, so callers write
// errors.Is(err, ans.RunLengthDegenerate) directly.
type ErrorKind uint32

const (
	_ ErrorKind = iota
	// EmptyInput means the histogram sum is zero: there is nothing to code.
	EmptyInput
	// RunLengthDegenerate means a single symbol accounts for the whole
	// input; the caller should encode it as (symbol, length) instead.
	RunLengthDegenerate
	// TableLogTooSmall means normalization cannot fit the distinct
	// nonzero symbols into 2^R slots without dropping one to zero.
	TableLogTooSmall
	// Overflow means an intermediate fixed-point multiplication would
	// exceed machine-word range.
	Overflow
	// InvalidState means a decoder received a final_state outside the
	// valid interval for the codec in use.
	InvalidState
	// TruncatedStream means a decoder tried to read past the end of the
	// bitstream or the bit-count trail.
	TruncatedStream
)

var kindText = [...]string{
	EmptyInput:          "ans: empty input",
	RunLengthDegenerate: "ans: single symbol covers entire input",
	TableLogTooSmall:    "ans: table_log too small for distinct symbol count",
	Overflow:            "ans: fixed-point multiplication overflow",
	InvalidState:        "ans: final_state out of range",
	TruncatedStream:     "ans: truncated bitstream or bit-count trail",
}

func (k ErrorKind) Error() string { return kindText[k] }

// Error is the concrete error type returned by this package. Callers
// compare against a kind with errors.Is, e.g.
// errors.Is(err, ans.RunLengthDegenerate); the message adds the
// operation-specific detail kindText omits.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Kind.Error() + ": " + e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
