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

// Package telemetry wraps the standard logger with a correlation ID per
// encode/decode call, so a run of concurrent calls against the ans core
// can be pulled apart in a shared log stream.
package telemetry

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// Logger tags every line it emits with a fixed operation ID.
type Logger struct {
	id  uuid.UUID
	out *log.Logger
}

// NewOperation mints a fresh correlation ID and returns a Logger bound to
// it. Call one NewOperation per encode or decode invocation.
func NewOperation(name string) *Logger {
	l := &Logger{
		id:  uuid.New(),
		out: log.New(os.Stderr, "", log.LstdFlags),
	}
	l.out.Printf("op=%s id=%s event=start", name, l.id)
	return l
}

// ID returns the correlation ID for this operation.
func (l *Logger) ID() uuid.UUID {
	return l.id
}

// Event logs a single structured line tagged with this operation's
// correlation ID.
func (l *Logger) Event(msg string, kv ...interface{}) {
	l.out.Printf("id=%s event=%s %s", l.id, msg, formatKV(kv))
}

// Done logs the terminal event for this operation along with the elapsed
// duration since start.
func (l *Logger) Done(start time.Time, err error) {
	if err != nil {
		l.out.Printf("id=%s event=error elapsed=%s err=%q", l.id, time.Since(start), err)
		return
	}
	l.out.Printf("id=%s event=done elapsed=%s", l.id, time.Since(start))
}

func formatKV(kv []interface{}) string {
	out := ""
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%v=%v", kv[i], kv[i+1])
	}
	return out
}
