// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Command pdf2text writes the text, tables and OCR'd images of a PDF to one
// text file in reading order, and the images themselves to a directory.
//
//	pdf2text <input.pdf> --out-dir <dir> --out-text <path> [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	pdf2text "github.com/sassoftware/viya-pdf2text"
	"github.com/sassoftware/viya-pdf2text/logger"
	"github.com/sassoftware/viya-pdf2text/ocr"
	"github.com/sassoftware/viya-pdf2text/output"
	"github.com/sassoftware/viya-pdf2text/tracer"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	input          string
	outDir         string
	outText        string
	metadata       string
	workers        int
	ocrTimeout     time.Duration
	ocrLang        string
	mode           string
	pageMarker     string
	failureMarkers bool
	normalize      string
	tableOverlap   float64
	trace          bool
	verbose        bool
}

// parseArgs accepts flags before and after the input path.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("pdf2text", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pdf2text <input.pdf> --out-dir <dir> --out-text <path> [flags]")
		fs.PrintDefaults()
	}

	def := pdf2text.NewDefaultConfig()
	fs.StringVar(&o.outDir, "out-dir", "output", "directory for extracted images, created if absent")
	fs.StringVar(&o.outText, "out-text", "output.txt", "merged text output file")
	fs.StringVar(&o.metadata, "metadata", "", "also write document metadata as JSON to this file")
	fs.IntVar(&o.workers, "workers", def.MaxWorkersPerPDF, "pages processed in parallel")
	fs.DurationVar(&o.ocrTimeout, "ocr-timeout", def.OCRTimeout, "time limit for recognizing one image")
	fs.StringVar(&o.ocrLang, "ocr-lang", def.OCRLanguage, `tesseract languages, e.g. "eng+deu"`)
	fs.StringVar(&o.mode, "mode", string(def.ParsingMode), "strict or best-effort handling of unreadable pages")
	fs.StringVar(&o.pageMarker, "page-marker", def.Render.PageMarker, `line written before each page; "%d" is the page number`)
	fs.BoolVar(&o.failureMarkers, "failure-markers", false, "write a placeholder line for images whose OCR failed")
	fs.StringVar(&o.normalize, "normalize", string(def.Normalization), "unicode normalization: none, nfc or nfkc")
	fs.Float64Var(&o.tableOverlap, "table-overlap", def.Merge.TextTableOverlap, "fraction of a text block inside a table that drops it")
	fs.BoolVar(&o.trace, "trace", false, "print the trace log to stderr on exit")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		if o.input != "" {
			return nil, fmt.Errorf("unexpected argument %q", rest[0])
		}
		o.input, rest = rest[0], rest[1:]
	}
	if o.input == "" {
		fs.Usage()
		return nil, errors.New("missing input PDF")
	}
	return o, nil
}

func (o *options) config() *pdf2text.Config {
	cfg := pdf2text.NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 2 // text and metadata
	cfg.MaxWorkersPerPDF = o.workers
	cfg.OCRTimeout = o.ocrTimeout
	cfg.OCRLanguage = o.ocrLang
	cfg.ParsingMode = pdf2text.ParsingMode(o.mode)
	cfg.Normalization = pdf2text.Normalization(o.normalize)
	cfg.Merge.TextTableOverlap = o.tableOverlap
	cfg.Render.PageMarker = o.pageMarker
	cfg.Render.FailureMarkers = o.failureMarkers
	return cfg
}

// slogLogger routes the library's log calls to a slog text handler.
func slogLogger(w io.Writer, verbose bool) logger.LogFunc {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return func(lvl logger.LogLevel, msg string, keyvals ...interface{}) {
		switch lvl {
		case logger.DebugLevel:
			l.Debug(msg, keyvals...)
		case logger.InfoLevel:
			l.Info(msg, keyvals...)
		case logger.WarnLevel:
			l.Warn(msg, keyvals...)
		default:
			l.Error(msg, keyvals...)
		}
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "pdf2text:", err)
		return exitUsage
	}

	tracer.Reset()
	if o.trace {
		defer tracer.Flush(stderr)
	}

	cfg := o.config()
	cfg.Logger = slogLogger(stderr, o.verbose)
	proc, err := pdf2text.NewProcessor(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "pdf2text:", err)
		return exitUsage
	}
	if !ocr.Enabled {
		logger.Warn("OCR is not compiled in; image text will be empty", "hint", ocr.ErrOCRNotEnabled.Error())
	}

	if err := extract(ctx, proc, o, cfg.Render); err != nil {
		fmt.Fprintln(stderr, "pdf2text:", err)
		return exitFatal
	}
	return exitOK
}

// extract writes the text file, the images and the optional metadata file.
// Text and metadata are produced concurrently.
func extract(ctx context.Context, proc *pdf2text.Processor, o *options, ropts pdf2text.RenderOptions) error {
	if _, err := os.Stat(o.input); err != nil {
		return &pdf2text.InputError{Path: o.input, Err: err}
	}
	dir, err := output.NewDir(o.outDir)
	if err != nil {
		return &pdf2text.OutputError{Path: o.outDir, Err: err}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeText(gctx, proc, o, dir, ropts)
	})
	if o.metadata != "" {
		g.Go(func() error {
			var readErr error
			err := output.WriteFile(o.metadata, func(w io.Writer) error {
				readErr = proc.Metadata(gctx, o.input, w)
				return readErr
			})
			if err != nil && readErr == nil {
				return &pdf2text.OutputError{Path: o.metadata, Err: err}
			}
			return err
		})
	}
	return g.Wait()
}

func writeText(ctx context.Context, proc *pdf2text.Processor, o *options, sink pdf2text.ImageSink, ropts pdf2text.RenderOptions) error {
	var st textStats
	var streamErr error
	err := output.WriteFile(o.outText, func(w io.Writer) error {
		st, streamErr = renderStream(ctx, proc, o.input, o.outText, sink, w, ropts)
		return streamErr
	})
	if err != nil {
		if streamErr != nil {
			return streamErr
		}
		return &pdf2text.OutputError{Path: o.outText, Err: err}
	}

	logger.Info("extraction finished", "input", o.input, "pages", st.pages, "images", st.files, "warnings", st.warnings, "text", o.outText)
	return nil
}

type textStats struct {
	pages, warnings, files int
}

// renderStream writes each page of input to w as soon as it is extracted.
// The first write failure stops the extraction and is returned as an
// *OutputError for outPath.
func renderStream(ctx context.Context, proc *pdf2text.Processor, input, outPath string, sink pdf2text.ImageSink, w io.Writer, ropts pdf2text.RenderOptions) (textStats, error) {
	var st textStats
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := proc.ExtractAsStream(ctx, input, sink)
	if err != nil {
		return st, err
	}
	var renderErr error
	for pr := range s.Pages {
		if renderErr = pdf2text.RenderPage(w, pr, ropts); renderErr != nil {
			break
		}
		st.pages++
		st.warnings += len(pr.Warnings)
		for _, b := range pr.Blocks {
			if ib, ok := b.(pdf2text.ImageBlock); ok && ib.File != "" {
				st.files++
			}
		}
	}
	if renderErr != nil {
		cancel()
		_ = s.Err()
		return st, &pdf2text.OutputError{Path: outPath, Err: renderErr}
	}
	return st, s.Err()
}
