// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

//go:build ocr

package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is never returned when OCR is compiled in; it exists so
// callers can test for it regardless of build tags.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Enabled reports whether the Tesseract engine is compiled in.
const Enabled = true

// Tesseract recognizes text with the Tesseract engine via gosseract.
type Tesseract struct {
	// Languages, e.g. []string{"eng", "deu"}. Empty means Tesseract's default.
	Languages []string
}

// NewTesseract returns an engine for a "+"-separated language list such as
// "eng+fra".
func NewTesseract(lang string) *Tesseract {
	var langs []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Tesseract{Languages: langs}
}

// Recognize implements Engine. A client is created per call; gosseract
// clients are not safe for concurrent use.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := gosseract.NewClient()
	defer c.Close()

	if len(t.Languages) > 0 {
		if err := c.SetLanguage(t.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
