// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/images"
	"github.com/sassoftware/viya-pdf2text/logger"
	"github.com/sassoftware/viya-pdf2text/ocr"
	"github.com/sassoftware/viya-pdf2text/tables"
	"github.com/sassoftware/viya-pdf2text/textlayer"
)

// ImageSink receives every extracted image under its deterministic name.
// output.Dir and output.Memory implement it.
type ImageSink interface {
	WriteImage(name string, data []byte) error
}

// discardSink drops images; it is used when the caller passes a nil sink.
type discardSink struct{}

func (discardSink) WriteImage(string, []byte) error { return nil }

// collector turns one page into a PageResult. It is shared by all workers
// of a document and holds no per-page state.
type collector struct {
	cfg      *Config
	detector *tables.Detector
	index    images.Index
	ocr      *ocr.Runner
	sink     ImageSink
}

// pendingImage is an image block waiting for its bytes to be written and
// recognized.
type pendingImage struct {
	block ImageBlock
	data  []byte
	ext   string
}

// collect runs the whole pipeline for one page. The returned error is a
// *PageError when the page content cannot be read, an *OutputError when an
// image cannot be stored, or the context error.
func (c *collector) collect(ctx context.Context, p pdf.Page, index int) (PageResult, error) {
	num := index + 1
	raw, err := textlayer.Read(p)
	if err != nil {
		return PageResult{}, &PageError{Page: num, Err: err}
	}
	layer := raw.Normalized()
	w, h := layer.Frame.Size()
	page := Page{Index: index, Width: w, Height: h}
	logger.Debug("collect: page read", "page", num, "glyphs", len(layer.Glyphs),
		"paths", len(layer.Paths), "images", len(layer.Images), true)

	in := PageInput{Page: page, Text: c.textBlocks(layer)}

	var warnings []error
	var tableBoxes, failedBoxes []geom.Rect
	for _, g := range c.detector.Detect(layer.Paths) {
		t, err := tables.Extract(g, layer.Glyphs, c.cfg.Text)
		if err != nil {
			werr := &TableExtractError{Page: num, Err: err}
			logger.Warn("table extraction failed, treating region as drawing", "page", num, "bbox", g.BBox, "err", err)
			warnings = append(warnings, werr)
			failedBoxes = append(failedBoxes, g.BBox)
			continue
		}
		in.Tables = append(in.Tables, TableBlock{Rows: t.Rows, BBox: g.BBox})
		tableBoxes = append(tableBoxes, g.BBox.Expand(c.cfg.Merge.ContainTolerance))
	}

	pending := c.embeddedImages(layer, page, tableBoxes)
	pending = append(pending, c.drawings(layer, page, tableBoxes, failedBoxes)...)

	for i := range pending {
		img := &pending[i]
		if err := ctx.Err(); err != nil {
			return PageResult{}, err
		}
		if img.block.Err != nil {
			warnings = append(warnings, &OcrError{Page: num, Err: img.block.Err})
			logger.Warn("image could not be extracted", "page", num, "bbox", img.block.BBox, "err", img.block.Err)
			in.Images = append(in.Images, img.block)
			continue
		}

		img.block.File = imageName(num, i+1, img.block.Source, img.ext)
		if err := c.sink.WriteImage(img.block.File, img.data); err != nil {
			return PageResult{}, &OutputError{Path: img.block.File, Err: err}
		}

		text, err := c.ocr.Run(ctx, img.data)
		switch {
		case err == nil:
			img.block.OCRText = text
		case ctx.Err() != nil:
			return PageResult{}, ctx.Err()
		default:
			img.block.Err = err
			warnings = append(warnings, &OcrError{Page: num, File: img.block.File, Err: err})
			if errors.Is(err, ocr.ErrOCRNotEnabled) {
				logger.Debug("ocr disabled, image kept without text", "file", img.block.File)
			} else {
				logger.Warn("ocr failed", "page", num, "file", img.block.File, "err", err)
			}
		}
		in.Images = append(in.Images, img.block)
	}

	res := Merge(in, c.cfg.Merge)
	normalizeBlocks(res.Blocks, c.cfg.Normalization)
	res.Warnings = warnings
	return res, nil
}

func (c *collector) textBlocks(layer *textlayer.Layer) []TextBlock {
	var out []TextBlock
	for _, b := range textlayer.GroupBlocks(layer.Glyphs, c.cfg.Text) {
		text := b.Text(c.cfg.Text)
		if text == "" {
			continue
		}
		out = append(out, TextBlock{Text: text, BBox: b.BBox})
	}
	return out
}

// embeddedImages resolves the bytes of every image placement outside a
// table: the document index first, then a decode of the XObject samples,
// then a rasterization of whatever vector art covers the same area.
func (c *collector) embeddedImages(layer *textlayer.Layer, page Page, tableBoxes []geom.Rect) []pendingImage {
	var out []pendingImage
	for _, pl := range layer.Images {
		if insideTable(pl.BBox, tableBoxes) {
			continue
		}
		img := pendingImage{block: ImageBlock{BBox: pl.BBox, Source: SourceEmbedded}}

		if enc, ok := c.index.Lookup(page.Number(), pl.Name); ok {
			img.data, img.ext = enc.Data, enc.Ext
			out = append(out, img)
			continue
		}
		data, err := images.DecodeXObject(pl.XObject)
		if err == nil {
			img.data, img.ext = data, "png"
			out = append(out, img)
			continue
		}
		logger.Debug("image not decodable, rasterizing its area", "page", page.Number(), "name", pl.Name, "err", err, true)
		data, rerr := images.Rasterize(layer.Paths, pl.BBox, c.cfg.DrawingZoom)
		if rerr != nil {
			img.block.Err = fmt.Errorf("image %s: decode: %v; rasterize: %w", pl.Name, err, rerr)
		} else {
			img.data, img.ext = data, "png"
		}
		out = append(out, img)
	}
	return out
}

// drawings rasterizes the drawing regions of the page together with the
// regions of tables whose cells could not be read.
func (c *collector) drawings(layer *textlayer.Layer, page Page, tableBoxes, failed []geom.Rect) []pendingImage {
	pageBox := geom.Rect{X1: page.Width, Y1: page.Height}
	regions := images.Regions(layer.Paths, tableBoxes, pageBox, c.cfg.Regions)

	kept := regions[:0]
	for _, r := range regions {
		if !insideTable(r, failed) {
			kept = append(kept, r)
		}
	}
	regions = append(kept, failed...)
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Y0 != regions[j].Y0 {
			return regions[i].Y0 < regions[j].Y0
		}
		return regions[i].X0 < regions[j].X0
	})

	out := make([]pendingImage, 0, len(regions))
	for _, r := range regions {
		img := pendingImage{block: ImageBlock{BBox: r, Source: SourceDrawing}, ext: "png"}
		img.data, img.block.Err = images.Rasterize(layer.Paths, r, c.cfg.DrawingZoom)
		out = append(out, img)
	}
	return out
}

// imageName returns the file name of the seq-th image (1-based) of page
// num: page3_img2.jpg for embedded images, page3_draw4.png for drawings.
func imageName(num, seq int, src ImageSource, ext string) string {
	if src == SourceDrawing {
		return fmt.Sprintf("page%d_draw%d.png", num, seq)
	}
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("page%d_img%d.%s", num, seq, ext)
}
