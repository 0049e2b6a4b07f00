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

package telemetry

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewOperationAssignsUniqueID(t *testing.T) {
	a := NewOperation("encode")
	b := NewOperation("encode")
	if a.ID() == uuid.Nil || b.ID() == uuid.Nil {
		t.Fatal("expected non-nil correlation IDs")
	}
	if a.ID() == b.ID() {
		t.Fatal("expected distinct correlation IDs across operations")
	}
}

func TestEventAndDoneDoNotPanic(t *testing.T) {
	l := NewOperation("decode")
	l.Event("normalized", "table_log", 11, "symbols", 37)
	l.Done(time.Now(), nil)
}
