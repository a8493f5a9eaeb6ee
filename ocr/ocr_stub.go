// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
// Rebuild with -tags ocr to enable it; this requires Tesseract:
//
//	apt-get install libtesseract-dev tesseract-ocr-eng
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Enabled reports whether the Tesseract engine is compiled in.
const Enabled = false

// Tesseract is the stub engine used without the "ocr" build tag.
type Tesseract struct {
	Languages []string
}

// NewTesseract returns the stub engine.
func NewTesseract(lang string) *Tesseract {
	return &Tesseract{Languages: []string{lang}}
}

// Recognize always fails with ErrOCRNotEnabled.
func (t *Tesseract) Recognize(context.Context, []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
