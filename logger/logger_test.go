// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"testing"

	"github.com/sassoftware/viya-pdf2text/tracer"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	level   LogLevel
	msg     string
	keyvals []interface{}
}

func capture(t *testing.T) *[]entry {
	t.Helper()
	var got []entry
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		got = append(got, entry{level, msg, keyvals})
	})
	t.Cleanup(func() {
		SetLogger(func(LogLevel, string, ...interface{}) {})
	})
	return &got
}

func TestDebug_TraceFlag(t *testing.T) {
	got := capture(t)
	tracer.Reset()

	Debug("plain", "page", 1)
	Debug("traced", "page", 2, true)

	assert.Len(t, *got, 2)
	assert.Equal(t, []interface{}{"page", 2}, (*got)[1].keyvals, "trace flag must be stripped")
	assert.Equal(t, 1, tracer.Len())
	tracer.Reset()
}

func TestLevels(t *testing.T) {
	got := capture(t)
	tracer.Reset()

	Info("i")
	Warn("w")
	Error("e")

	levels := []LogLevel{}
	for _, e := range *got {
		levels = append(levels, e.level)
	}
	assert.Equal(t, []LogLevel{InfoLevel, WarnLevel, ErrorLevel}, levels)
	assert.Equal(t, 1, tracer.Len(), "warnings are traced")
	tracer.Reset()
}

func TestSetLogger_NilIgnored(t *testing.T) {
	got := capture(t)
	SetLogger(nil)
	Info("still captured")
	assert.Len(t, *got, 1)
}
