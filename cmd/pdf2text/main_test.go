// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdf2text "github.com/sassoftware/viya-pdf2text"
	"github.com/sassoftware/viya-pdf2text/internal/pdftest"
	"github.com/sassoftware/viya-pdf2text/ocr"
)

func twoPageDoc(t *testing.T) string {
	return pdftest.Write(t, pdftest.Doc{
		Pages: []pdftest.Page{
			{Content: pdftest.Text(72, 700, "Hello") + pdftest.Text(72, 650, "world   ")},
			{Content: pdftest.Text(72, 700, "Second page")},
		},
		Info: map[string]string{"Title": "CLI test"},
	})
}

func TestParseArgs_FlagOrder(t *testing.T) {
	cases := [][]string{
		{"in.pdf", "--out-dir", "imgs", "--out-text", "out.txt", "--workers", "3"},
		{"--out-dir", "imgs", "in.pdf", "--out-text", "out.txt", "--workers=3"},
		{"--out-dir", "imgs", "--out-text", "out.txt", "-workers", "3", "in.pdf"},
	}
	for _, args := range cases {
		o, err := parseArgs(args, &bytes.Buffer{})
		require.NoError(t, err, args)
		assert.Equal(t, "in.pdf", o.input)
		assert.Equal(t, "imgs", o.outDir)
		assert.Equal(t, "out.txt", o.outText)
		assert.Equal(t, 3, o.workers)
	}
}

func TestParseArgs_Defaults(t *testing.T) {
	o, err := parseArgs([]string{"in.pdf"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "output", o.outDir)
	assert.Equal(t, "output.txt", o.outText)
	assert.Equal(t, 1, o.workers)
	assert.Equal(t, 30*time.Second, o.ocrTimeout)
	assert.Equal(t, "best-effort", o.mode)
	assert.Equal(t, "=== PAGE %d ===", o.pageMarker)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"--out-dir", "x"}},
		{"two inputs", []string{"a.pdf", "b.pdf"}},
		{"unknown flag", []string{"a.pdf", "--nope"}},
		{"bad mode", []string{"a.pdf", "--mode", "lenient"}},
		{"bad workers", []string{"a.pdf", "--workers", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(context.Background(), tt.args, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestRun_Success(t *testing.T) {
	in := twoPageDoc(t)
	dir := t.TempDir()
	outText := filepath.Join(dir, "nested", "out.txt")
	outDir := filepath.Join(dir, "images")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{in, "--out-dir", outDir, "--out-text", outText}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	got, err := os.ReadFile(outText)
	require.NoError(t, err)
	assert.Equal(t, "=== PAGE 1 ===\nHello\nworld\n\n=== PAGE 2 ===\nSecond page\n\n", string(got))

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRun_Deterministic(t *testing.T) {
	in := pdftest.Write(t, pdftest.Doc{Pages: []pdftest.Page{{
		Content: pdftest.Text(72, 700, "caption") +
			pdftest.PlaceImage("Im1", 72, 400, 100, 100) +
			pdftest.FilledRect(300, 200, 50, 50),
		Images: []pdftest.Image{{Name: "Im1", Width: 2, Height: 2, Pixels: []byte{0, 255, 255, 0}}},
	}}})

	runOnce := func() (string, []string) {
		dir := t.TempDir()
		outText := filepath.Join(dir, "out.txt")
		outDir := filepath.Join(dir, "img")
		require.Equal(t, exitOK, run(context.Background(), []string{in, "--out-dir", outDir, "--out-text", outText}, &bytes.Buffer{}))

		text, err := os.ReadFile(outText)
		require.NoError(t, err)
		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return string(text), names
	}

	text1, names1 := runOnce()
	text2, names2 := runOnce()
	assert.Equal(t, text1, text2)
	assert.Equal(t, names1, names2)
	assert.Contains(t, names1, "page1_draw2.png")
	assert.Len(t, names1, 2)
}

func TestRun_CustomMarker(t *testing.T) {
	in := twoPageDoc(t)
	outText := filepath.Join(t.TempDir(), "out.txt")

	code := run(context.Background(), []string{in, "--page-marker", "", "--out-text", outText, "--out-dir", t.TempDir()}, &bytes.Buffer{})
	require.Equal(t, exitOK, code)

	got, err := os.ReadFile(outText)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nworld\n\nSecond page\n\n", string(got))
}

func TestRun_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	outText := filepath.Join(dir, "out.txt")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(dir, "missing.pdf"), "--out-text", outText, "--out-dir", dir}, &stderr)
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr.String(), "missing.pdf")

	_, err := os.Stat(outText)
	assert.True(t, os.IsNotExist(err), "no partial output")
}

func TestRun_UnwritableOutputIsFatal(t *testing.T) {
	in := twoPageDoc(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	code := run(context.Background(), []string{in, "--out-dir", filepath.Join(file, "images"), "--out-text", filepath.Join(t.TempDir(), "o.txt")}, &bytes.Buffer{})
	assert.Equal(t, exitFatal, code)
}

func TestRun_Metadata(t *testing.T) {
	in := twoPageDoc(t)
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.json")

	code := run(context.Background(), []string{in, "--metadata", metaPath, "--out-text", filepath.Join(dir, "o.txt"), "--out-dir", dir}, &bytes.Buffer{})
	require.Equal(t, exitOK, code)

	raw, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "CLI test", got["title"])
	assert.Equal(t, float64(2), got["xmpTPg:NPages"])
}

func TestRun_StrictModeFailsOnBrokenPage(t *testing.T) {
	in := pdftest.Write(t, pdftest.Doc{Pages: []pdftest.Page{
		{Content: pdftest.Text(72, 700, "ok")},
		{Content: pdftest.Text(72, 700, "bad"), ContentFilter: "Bogus"},
	}})
	dir := t.TempDir()
	outText := filepath.Join(dir, "o.txt")

	args := []string{in, "--out-text", outText, "--out-dir", dir}
	assert.Equal(t, exitOK, run(context.Background(), args, &bytes.Buffer{}))
	assert.Equal(t, exitFatal, run(context.Background(), append(args, "--mode", "strict"), &bytes.Buffer{}))
}

func TestRun_Trace(t *testing.T) {
	in := twoPageDoc(t)
	dir := t.TempDir()

	var stderr bytes.Buffer
	code := run(context.Background(), []string{in, "--trace", "--out-text", filepath.Join(dir, "o.txt"), "--out-dir", dir}, &stderr)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "Slot acquired successfully")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }

func TestRenderStream_WriteFailureStopsExtraction(t *testing.T) {
	const total = 8
	var pages []pdftest.Page
	for i := 0; i < total; i++ {
		pages = append(pages, pdftest.Page{
			Content: pdftest.Text(72, 700, "page") + pdftest.PlaceImage("Im1", 72, 400, 50, 50),
			Images:  []pdftest.Image{{Name: "Im1", Width: 2, Height: 2, Pixels: []byte{0, 255, 255, 0}}},
		})
	}
	in := pdftest.Write(t, pdftest.Doc{Pages: pages})

	var calls atomic.Int32
	cfg := pdf2text.NewDefaultConfig()
	cfg.OCREngine = ocr.EngineFunc(func(ctx context.Context, _ []byte) (string, error) {
		calls.Add(1)
		select {
		case <-time.After(50 * time.Millisecond):
			return "text", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	proc, err := pdf2text.NewProcessor(cfg)
	require.NoError(t, err)

	_, err = renderStream(context.Background(), proc, in, "out.txt", nil, brokenWriter{}, pdf2text.DefaultRenderOptions())
	var oe *pdf2text.OutputError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "out.txt", oe.Path)
	assert.Less(t, int(calls.Load()), total, "pages after the failure are not recognized")
}
