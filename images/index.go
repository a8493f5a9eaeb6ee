// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package images produces the pixels behind every image-like region of a
// page: embedded image XObjects, either passed through in their original
// encoding or decoded to PNG, and vector drawing regions rasterized to PNG.
package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sassoftware/viya-pdf2text/logger"
)

// Encoded is an image in a file format ready to be written to disk.
type Encoded struct {
	Data []byte
	Ext  string // file extension without the dot: "png", "jpg", "jpx", "tif"
}

// Key identifies an image XObject by 1-based page number and resource name.
type Key struct {
	Page int
	Name string
}

// Index holds a document's embedded images.
type Index map[Key]Encoded

// Lookup returns the image painted as name on page.
func (ix Index) Lookup(page int, name string) (Encoded, bool) {
	if ix == nil {
		return Encoded{}, false
	}
	e, ok := ix[Key{Page: page, Name: name}]
	return e, ok && len(e.Data) > 0
}

// Indexer builds the image Index for a PDF file.
type Indexer interface {
	Index(ctx context.Context, path string) (Index, error)
}

// PDFCPUIndexer extracts embedded images with pdfcpu, which hands back
// JPEG and JPEG 2000 streams untouched and renders the rest to PNG or TIFF.
type PDFCPUIndexer struct {
	// Conf defaults to pdfcpu's default configuration with relaxed
	// validation.
	Conf *model.Configuration
}

// Index implements Indexer.
func (x PDFCPUIndexer) Index(ctx context.Context, path string) (ix Index, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			ix, err = nil, fmt.Errorf("pdfcpu image extraction: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := x.Conf
	if conf == nil {
		conf = model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
	}

	pages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu image extraction: %w", err)
	}

	ix = make(Index)
	for _, byObj := range pages {
		for _, img := range byObj {
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				logger.Debug("images: skipping unreadable image", "page", img.PageNr, "obj", img.ObjNr, "err", err, true)
				continue
			}
			ix[Key{Page: img.PageNr, Name: img.Name}] = Encoded{Data: data, Ext: normalizeExt(img.FileType)}
		}
	}
	logger.Debug("images: indexed embedded images", "path", path, "count", len(ix), true)
	return ix, nil
}

func normalizeExt(fileType string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(fileType, ".")); ext {
	case "", "png":
		return "png"
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	default:
		return ext
	}
}
