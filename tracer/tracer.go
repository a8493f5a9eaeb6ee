// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"io"
	"sync"
)

var (
	mu            sync.Mutex
	traceMessages []string
)

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	traceMessages = append(traceMessages, msg)
	mu.Unlock()
}

// Len reports how many messages are buffered.
func Len() int {
	mu.Lock()
	defer mu.Unlock()
	return len(traceMessages)
}

// Flush writes the accumulated trace log to w and resets it.
func Flush(w io.Writer) {
	mu.Lock()
	msgs := traceMessages
	// reset so the next run starts fresh
	traceMessages = nil
	mu.Unlock()

	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}
}

// Reset drops the buffered messages without printing them.
func Reset() {
	mu.Lock()
	traceMessages = nil
	mu.Unlock()
}
