// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestPNG creates a white image with a black bar.
func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for x := 10; x < width-10; x++ {
		img.SetGray(x, height/2, color.Gray{})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	format, err := Validate(createTestPNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = Validate(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Validate([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestRunner_Success(t *testing.T) {
	r := &Runner{Engine: EngineFunc(func(ctx context.Context, img []byte) (string, error) {
		return "  hello\n", nil
	})}
	text, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestRunner_InvalidImageNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := &Runner{Retries: 3, Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		calls.Add(1)
		return "x", nil
	})}
	_, err := r.Run(context.Background(), []byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRunner_Retries(t *testing.T) {
	var calls atomic.Int32
	r := &Runner{Retries: 2, Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "third time", nil
	})}
	text, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, "third time", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunner_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	r := &Runner{Retries: 1, Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		calls.Add(1)
		return "", errors.New("broken")
	})}
	_, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	assert.EqualError(t, err, "broken")
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunner_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := &Runner{Timeout: 20 * time.Millisecond, Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		<-release // ignores its context, like a cgo call would
		return "too late", nil
	})}

	start := time.Now()
	_, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_Panic(t *testing.T) {
	r := &Runner{Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		panic("boom")
	})}
	_, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	assert.ErrorContains(t, err, "boom")
}

func TestRunner_NilEngine(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), createTestPNG(t, 40, 20))
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
}

func TestRunner_DisabledEngineNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := &Runner{Retries: 3, Engine: EngineFunc(func(context.Context, []byte) (string, error) {
		calls.Add(1)
		return "", ErrOCRNotEnabled
	})}
	_, err := r.Run(context.Background(), createTestPNG(t, 40, 20))
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
	assert.Equal(t, int32(1), calls.Load())
}
