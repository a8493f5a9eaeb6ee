// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sassoftware/viya-pdf2text/images"
	"github.com/sassoftware/viya-pdf2text/logger"
	"github.com/sassoftware/viya-pdf2text/ocr"
	"github.com/sassoftware/viya-pdf2text/textlayer"
)

type ParsingMode string

const (
	// Strict makes a page that cannot be processed fail the whole run.
	Strict ParsingMode = "strict"
	// BestEffort records the failure on the page and keeps going.
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	MaxConcurrentPDFs int           `validate:"min=1,max=10"`
	MaxWorkersPerPDF  int           `validate:"min=1,max=64"`
	OCRTimeout        time.Duration `validate:"required"`
	ParsingMode       ParsingMode   `validate:"oneof=strict best-effort"`
	MaxRetries        int           `validate:"min=0,max=3"`
	OCRLanguage       string        `validate:"required"`
	DrawingZoom       float64       `validate:"gt=0,lte=8"`
	Normalization     Normalization `validate:"oneof=none nfc nfkc"`

	Merge   MergeOptions
	Render  RenderOptions
	Text    textlayer.GroupOptions `validate:"-"`
	Regions images.RegionOptions   `validate:"-"`

	Logger logger.LogFunc `validate:"-"`

	// OCREngine defaults to Tesseract for OCRLanguage. Without the "ocr"
	// build tag that engine reports ocr.ErrOCRNotEnabled for every image.
	OCREngine ocr.Engine `validate:"-"`

	// ImageIndexer defaults to images.PDFCPUIndexer.
	ImageIndexer images.Indexer `validate:"-"`
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		MaxWorkersPerPDF:  1,
		OCRTimeout:        30 * time.Second,
		ParsingMode:       BestEffort,
		MaxRetries:        1,
		OCRLanguage:       "eng",
		DrawingZoom:       images.DefaultZoom,
		Normalization:     NormNFKC,
		Merge:             DefaultMergeOptions(),
		Render:            DefaultRenderOptions(),
		Text:              textlayer.DefaultGroupOptions(),
		Regions:           images.DefaultRegionOptions(),
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
