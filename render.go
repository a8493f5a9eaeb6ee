// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultPageMarker is written before each page's content.
const DefaultPageMarker = "=== PAGE %d ==="

// Placeholders written for image blocks without text when
// RenderOptions.FailureMarkers is set. A drawing that could not be
// rasterized has no file and gets DrawingRasterizeFailed.
const (
	ImageOCRFailed         = "[IMAGE OCR FAILED]"
	DrawingOCRFailed       = "[DRAWING OCR FAILED]"
	DrawingRasterizeFailed = "[DRAWING RASTERIZE FAILED]"
)

// RenderOptions control the text serialization of results.
type RenderOptions struct {
	// PageMarker is printed before each page. A "%d" verb receives the
	// 1-based page number. Empty means no marker; pages are then separated
	// only by the blank line that closes each page.
	PageMarker string

	// FailureMarkers writes a placeholder line for image blocks whose
	// extraction or OCR failed instead of leaving them silent.
	FailureMarkers bool
}

// DefaultRenderOptions returns the options the command line tool uses.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{PageMarker: DefaultPageMarker}
}

// RenderPage writes one page: the marker, each block's lines in order and a
// closing blank line. Trailing whitespace is trimmed from every line.
func RenderPage(w io.Writer, p PageResult, opts RenderOptions) error {
	bw := bufio.NewWriter(w)
	if opts.PageMarker != "" {
		writeLine(bw, pageMarker(opts.PageMarker, p.Page.Number()))
	}
	for _, b := range p.Blocks {
		for _, line := range blockLines(b, opts) {
			writeLine(bw, line)
		}
	}
	writeLine(bw, "")
	return bw.Flush()
}

// RenderDocument writes every page of d in page order.
func RenderDocument(w io.Writer, d DocumentResult, opts RenderOptions) error {
	for _, p := range d.Pages {
		if err := RenderPage(w, p, opts); err != nil {
			return err
		}
	}
	return nil
}

// Text returns the rendered page as a string.
func (p PageResult) Text(opts RenderOptions) string {
	var sb strings.Builder
	_ = RenderPage(&sb, p, opts)
	return sb.String()
}

func pageMarker(format string, n int) string {
	if strings.Contains(format, "%d") {
		return fmt.Sprintf(format, n)
	}
	return format
}

func writeLine(w *bufio.Writer, s string) {
	w.WriteString(strings.TrimRight(s, " \t\r\n\f\v"))
	w.WriteByte('\n')
}

// blockLines splits a block into output lines. Image blocks with no text
// yield nothing unless a failure placeholder is requested.
func blockLines(b ContentBlock, opts RenderOptions) []string {
	switch b := b.(type) {
	case TextBlock:
		if b.Text == "" {
			return nil
		}
		return strings.Split(b.Text, "\n")
	case TableBlock:
		lines := make([]string, len(b.Rows))
		for i, row := range b.Rows {
			lines[i] = strings.Join(row, "\t")
		}
		return lines
	case ImageBlock:
		if b.Err != nil {
			if !opts.FailureMarkers {
				return nil
			}
			if b.Source == SourceDrawing {
				if b.File == "" {
					return []string{DrawingRasterizeFailed}
				}
				return []string{DrawingOCRFailed}
			}
			return []string{ImageOCRFailed}
		}
		if strings.TrimSpace(b.OCRText) == "" {
			return nil
		}
		return strings.Split(b.OCRText, "\n")
	}
	return nil
}
