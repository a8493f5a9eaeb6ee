// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package ocr turns image bytes into text. The Tesseract engine is only
// compiled in with the "ocr" build tag; without it every call returns
// ErrOCRNotEnabled and image blocks are kept as recorded failures.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	// Decoders for Validate.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/sassoftware/viya-pdf2text/logger"
)

// ErrInvalidImage is returned for payloads no registered decoder accepts.
var ErrInvalidImage = errors.New("invalid image data")

// Engine recognizes the text in one encoded image.
type Engine interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img []byte) (string, error)

// Recognize implements Engine.
func (f EngineFunc) Recognize(ctx context.Context, img []byte) (string, error) {
	return f(ctx, img)
}

// Validate checks that img starts with a decodable image header and returns
// its format name.
func Validate(img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("empty payload: %w", ErrInvalidImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("image size %dx%d: %w", cfg.Width, cfg.Height, ErrInvalidImage)
	}
	return format, nil
}

// Runner wraps an Engine with input validation, a per-attempt timeout and
// retries.
type Runner struct {
	Engine  Engine
	Timeout time.Duration // per attempt; zero means no limit
	Retries int           // extra attempts after the first
}

// Run recognizes img and returns the trimmed text. Invalid images and a
// disabled engine are not retried.
func (r *Runner) Run(ctx context.Context, img []byte) (string, error) {
	if r.Engine == nil {
		return "", ErrOCRNotEnabled
	}
	if _, err := Validate(img); err != nil {
		return "", err
	}

	var err error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		var text string
		text, err = r.attempt(ctx, img)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrOCRNotEnabled) || errors.Is(err, ErrInvalidImage) {
			break
		}
		logger.Debug("ocr: retrying", "attempt", attempt+1, "err", err, true)
	}
	return "", err
}

type outcome struct {
	text string
	err  error
}

// attempt runs the engine once. The engine call cannot always be
// interrupted (cgo), so it runs in its own goroutine and a timeout
// abandons it.
func (r *Runner) attempt(ctx context.Context, img []byte) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("ocr engine panic: %v", p)}
			}
		}()
		text, err := r.Engine.Recognize(ctx, img)
		done <- outcome{text, err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("ocr: %w", ctx.Err())
	}
}
