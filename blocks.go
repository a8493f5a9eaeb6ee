// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdf2text extracts the text, tables and images of a born-digital
// PDF and merges them, page by page, into approximate reading order.
//
// All block coordinates are in display space: points from the top-left
// corner of the page as shown (after /Rotate), Y growing downward.
package pdf2text

import (
	"github.com/sassoftware/viya-pdf2text/geom"
)

// BlockKind tags the ContentBlock variants. The order is the tie-break used
// when two blocks share a position.
type BlockKind int

const (
	KindText BlockKind = iota
	KindTable
	KindImage
)

func (k BlockKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTable:
		return "table"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// ContentBlock is one positioned piece of page content. The set of
// implementations is closed: TextBlock, TableBlock and ImageBlock.
type ContentBlock interface {
	Bounds() geom.Rect
	Kind() BlockKind
	isBlock()
}

// TextBlock is a paragraph-like run from the PDF text layer.
type TextBlock struct {
	Text string
	BBox geom.Rect
}

func (b TextBlock) Bounds() geom.Rect { return b.BBox }
func (TextBlock) Kind() BlockKind      { return KindText }
func (TextBlock) isBlock()             {}

// TableBlock is a detected table; Rows are in detector order.
type TableBlock struct {
	Rows [][]string
	BBox geom.Rect
}

func (b TableBlock) Bounds() geom.Rect { return b.BBox }
func (TableBlock) Kind() BlockKind      { return KindTable }
func (TableBlock) isBlock()             {}

// ImageSource says where an ImageBlock's pixels came from.
type ImageSource int

const (
	SourceEmbedded ImageSource = iota // an image XObject
	SourceDrawing                     // a rasterized vector region
)

func (s ImageSource) String() string {
	if s == SourceDrawing {
		return "drawing"
	}
	return "embedded"
}

// ImageBlock is an image or drawing region routed through OCR. A block
// whose OCR failed keeps its position with Err set and renders no text.
type ImageBlock struct {
	OCRText string
	BBox    geom.Rect
	File    string // name of the written image file, empty if none
	Source  ImageSource
	Err     error
}

func (b ImageBlock) Bounds() geom.Rect { return b.BBox }
func (ImageBlock) Kind() BlockKind      { return KindImage }
func (ImageBlock) isBlock()             {}

// Page identifies one page and its displayed size in points.
type Page struct {
	Index  int // 0-based
	Width  float64
	Height float64
}

// Number returns the 1-based page number.
func (p Page) Number() int { return p.Index + 1 }

// PageInput is the unordered content collected for one page.
type PageInput struct {
	Page   Page
	Text   []TextBlock
	Tables []TableBlock
	Images []ImageBlock
}

// PageResult is a page's content in reading order.
type PageResult struct {
	Page   Page
	Blocks []ContentBlock

	// Warnings are recovered per-block failures (OcrError,
	// TableExtractError). They never fail the run.
	Warnings []error

	// Err is set when the whole page could not be processed and the run is
	// in best-effort mode.
	Err error
}

// DocumentResult is every page of a document in page order.
type DocumentResult struct {
	Pages []PageResult
	Meta  Meta
}

// Warnings returns the warnings of all pages in page order.
func (d DocumentResult) Warnings() []error {
	var out []error
	for _, p := range d.Pages {
		out = append(out, p.Warnings...)
	}
	return out
}

// Files returns the names of all written image files in page order.
func (d DocumentResult) Files() []string {
	var out []string
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			if ib, ok := b.(ImageBlock); ok && ib.File != "" {
				out = append(out, ib.File)
			}
		}
	}
	return out
}
