// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name  string
		err   error
		msg   string
		fatal bool
	}{
		{"input", &InputError{Path: "a.pdf", Err: cause}, "input a.pdf: cause", true},
		{"output", &OutputError{Path: "out", Err: cause}, "output out: cause", true},
		{"page", &PageError{Page: 3, Err: cause}, "page 3: cause", true},
		{"ocr", &OcrError{Page: 1, File: "page1_img1.png", Err: cause}, "page 1: ocr page1_img1.png: cause", false},
		{"ocr without file", &OcrError{Page: 1, Err: cause}, "page 1: ocr: cause", false},
		{"table", &TableExtractError{Page: 2, Err: cause}, "page 2: table extraction: cause", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.msg)
			assert.ErrorIs(t, tt.err, cause)
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestErrors_As(t *testing.T) {
	err := fmt.Errorf("run: %w", &InputError{Path: "x.pdf", Err: fs.ErrNotExist})

	var in *InputError
	assert.True(t, errors.As(err, &in))
	assert.Equal(t, "x.pdf", in.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, IsFatal(errors.New("plain")))
}
