// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/semaphore"

	"github.com/sassoftware/viya-pdf2text/images"
	"github.com/sassoftware/viya-pdf2text/logger"
	"github.com/sassoftware/viya-pdf2text/ocr"
	"github.com/sassoftware/viya-pdf2text/tables"
)

// Extractor is the contract of Processor.
type Extractor interface {
	Extract(ctx context.Context, path string, sink ImageSink) (DocumentResult, error)
	ExtractAsStream(ctx context.Context, path string, sink ImageSink) (*Stream, error)
	Metadata(ctx context.Context, path string, w io.Writer) error
}

// pageStrategy decides what a page-level failure means for the run.
type pageStrategy interface {
	handle(index int, err error) (PageResult, error)
}

// strictPages fails the document on the first page that cannot be read.
type strictPages struct{}

func (strictPages) handle(index int, err error) (PageResult, error) {
	return PageResult{}, err
}

// bestEffortPages records the failure on the page and carries on. Output
// errors and cancellation stay fatal.
type bestEffortPages struct{}

func (bestEffortPages) handle(index int, err error) (PageResult, error) {
	var pe *PageError
	if !errors.As(err, &pe) {
		return PageResult{}, err
	}
	logger.Warn("page skipped", "page", index+1, "err", err)
	return PageResult{Page: Page{Index: index}, Err: err}, nil
}

// Processor extracts documents with bounded concurrency: at most
// MaxConcurrentPDFs documents at a time, each over MaxWorkersPerPDF page
// workers. Pages are always delivered in page order.
type Processor struct {
	cfg      *Config
	sem      *semaphore.Weighted
	strategy pageStrategy
	engine   ocr.Engine
	indexer  images.Indexer
}

var _ Extractor = (*Processor)(nil)

// NewProcessor validates cfg and creates a Processor.
func NewProcessor(cfg *Config) (*Processor, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var strategy pageStrategy = bestEffortPages{}
	if cfg.ParsingMode == Strict {
		strategy = strictPages{}
	}

	engine := cfg.OCREngine
	if engine == nil {
		engine = ocr.NewTesseract(cfg.OCRLanguage)
	}
	indexer := cfg.ImageIndexer
	if indexer == nil {
		indexer = images.PDFCPUIndexer{}
	}

	logger.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_pdfs=%d, max_workers_per_pdf=%d, ocr=%v",
		cfg.ParsingMode, cfg.MaxConcurrentPDFs, cfg.MaxWorkersPerPDF, ocr.Enabled || cfg.OCREngine != nil), true)

	return &Processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentPDFs)),
		strategy: strategy,
		engine:   engine,
		indexer:  indexer,
	}, nil
}

// document is an open input PDF.
type document struct {
	path  string
	file  *os.File
	r     *pdf.Reader
	total int
}

func (d *document) Close() error { return d.file.Close() }

// open opens path with the PDF reader. Every failure is an *InputError.
func open(path string) (doc *document, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	var f *os.File
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				_ = f.Close()
			}
			doc, err = nil, &InputError{Path: path, Err: fmt.Errorf("corrupt PDF: %v", rec)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, &InputError{Path: path, Err: err}
	}
	return &document{path: path, file: f, r: r, total: r.NumPage()}, nil
}

// prepare opens the document and builds everything the page workers share.
func (p *Processor) prepare(ctx context.Context, path string, sink ImageSink) (*document, *collector, error) {
	doc, err := open(path)
	if err != nil {
		logger.Debug(fmt.Sprintf("Failed to open PDF: path=%s err=%v", path, err), true)
		return nil, nil, err
	}
	logger.Debug(fmt.Sprintf("Total pages detected: path=%s pages=%d", path, doc.total), true)

	index, err := p.indexer.Index(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			doc.Close()
			return nil, nil, ctx.Err()
		}
		logger.Warn("embedded image index unavailable, decoding images directly", "path", path, "err", err)
	}

	if sink == nil {
		sink = discardSink{}
	}
	c := &collector{
		cfg:      p.cfg,
		detector: tables.NewDetector(),
		index:    index,
		ocr: &ocr.Runner{
			Engine:  p.engine,
			Timeout: p.cfg.OCRTimeout,
			Retries: p.cfg.MaxRetries,
		},
		sink: sink,
	}
	return doc, c, nil
}

func (p *Processor) meta(doc *document) Meta {
	m, err := readMeta(doc.r)
	if err != nil {
		logger.Warn("metadata unreadable", "path", doc.path, "err", err)
	}
	return m
}

// Extract processes every page of path and returns them in page order.
// Images go to sink, which may be nil. The error is fatal: an
// *InputError, an *OutputError, a *PageError in strict mode, or the
// context error.
func (p *Processor) Extract(ctx context.Context, path string, sink ImageSink) (DocumentResult, error) {
	logger.Debug(fmt.Sprintf("Starting extraction: path=%s", path), true)

	if err := p.acquireSlot(ctx); err != nil {
		return DocumentResult{}, err
	}
	defer p.sem.Release(1)

	doc, c, err := p.prepare(ctx, path, sink)
	if err != nil {
		return DocumentResult{}, err
	}
	defer doc.Close()

	out := DocumentResult{Meta: p.meta(doc), Pages: make([]PageResult, 0, doc.total)}
	if doc.total == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := p.run(ctx, doc, c)

	err = p.emitInOrder(results, func(pr PageResult) bool {
		out.Pages = append(out.Pages, pr)
		return true
	})
	if err != nil {
		cancel()
		drain(results)
		return DocumentResult{}, err
	}

	logger.Debug(fmt.Sprintf("Extraction completed: path=%s pages=%d warnings=%d", path, len(out.Pages), len(out.Warnings())), true)
	return out, nil
}

// Stream delivers pages in page order as they complete. Range over Pages,
// then call Err.
type Stream struct {
	Pages <-chan PageResult
	Meta  Meta

	done chan struct{}
	err  error
}

// Err blocks until the stream has finished and returns the fatal error
// that ended it early, if any.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// ExtractAsStream is Extract with pages delivered as soon as every earlier
// page is ready. The document stays open until the stream ends or ctx is
// cancelled.
func (p *Processor) ExtractAsStream(ctx context.Context, path string, sink ImageSink) (*Stream, error) {
	logger.Debug(fmt.Sprintf("Starting streaming extraction: path=%s", path), true)

	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}

	doc, c, err := p.prepare(ctx, path, sink)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	pages := make(chan PageResult)
	s := &Stream{Pages: pages, Meta: p.meta(doc), done: make(chan struct{})}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer p.sem.Release(1)
		defer doc.Close()
		defer cancel()
		defer close(s.done)
		defer close(pages)

		if doc.total == 0 {
			return
		}
		results := p.run(ctx, doc, c)
		s.err = p.emitInOrder(results, func(pr PageResult) bool {
			select {
			case pages <- pr:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if s.err == nil && ctx.Err() != nil {
			s.err = ctx.Err()
		}
		cancel()
		drain(results)
		logger.Debug(fmt.Sprintf("Streaming extraction completed: path=%s err=%v", path, s.err), true)
	}()

	return s, nil
}

type pageResult struct {
	index int
	res   PageResult
	err   error
}

// run starts the workers for doc and returns the channel they report on.
// The channel is closed after the last worker exits.
func (p *Processor) run(ctx context.Context, doc *document, c *collector) <-chan pageResult {
	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerPDF, doc.total)
	jobs, results := make(chan int, doc.total), make(chan pageResult, doc.total)

	var wg sync.WaitGroup
	p.startWorkers(ctx, doc, c, jobs, results, numWorkers, &wg)
	_ = p.feedJobs(ctx, doc.total, jobs)
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// emitInOrder buffers out-of-order results and hands pages to emit strictly
// by index. It stops at the first fatal error or when emit returns false.
func (p *Processor) emitInOrder(results <-chan pageResult, emit func(PageResult) bool) error {
	pageBuffer := make(map[int]PageResult)
	next := 0
	for res := range results {
		if res.err != nil {
			logger.Debug(fmt.Sprintf("Fatal page error, stopping extraction: page=%d err=%v", res.index+1, res.err), true)
			return res.err
		}
		pageBuffer[res.index] = res.res

		for {
			pr, ok := pageBuffer[next]
			if !ok {
				break
			}
			delete(pageBuffer, next)
			if !emit(pr) {
				return nil
			}
			next++
		}
	}
	if len(pageBuffer) > 0 {
		return fmt.Errorf("extraction stopped before page %d", next+1)
	}
	return nil
}

// drain waits for the workers behind results to exit so the document can
// be closed safely.
func drain(results <-chan pageResult) {
	for range results {
	}
}

func (p *Processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}

func (p *Processor) adjustWorkerCount(maxWorkers, pages int) int {
	n := max(1, min(maxWorkers, runtime.NumCPU(), pages))
	logger.Debug(fmt.Sprintf("Adjusted worker count: workers=%d", n), true)
	return n
}

func (p *Processor) startWorkers(ctx context.Context, doc *document, c *collector, jobs <-chan int, results chan<- pageResult, numWorkers int, wg *sync.WaitGroup) {
	logger.Debug(fmt.Sprintf("Spawning workers: num_workers=%d", numWorkers), true)
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					results <- pageResult{index: i, err: ctx.Err()}
					continue
				}
				res, err := p.processPage(ctx, doc, c, i)
				results <- pageResult{index: i, res: res, err: err}
				if err != nil {
					logger.Debug(fmt.Sprintf("Worker: page failed: worker_id=%d page=%d err=%v", id, i+1, err), true)
				}
			}
		}(w)
	}
}

// processPage reads page index (0-based) and applies the page strategy to
// any failure.
func (p *Processor) processPage(ctx context.Context, doc *document, c *collector, index int) (res PageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = p.strategy.handle(index, &PageError{Page: index + 1, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	page := doc.r.Page(index + 1)
	if page.V.IsNull() {
		return p.strategy.handle(index, &PageError{Page: index + 1, Err: errors.New("null page")})
	}
	res, err = c.collect(ctx, page, index)
	if err != nil {
		return p.strategy.handle(index, err)
	}
	return res, nil
}

func (p *Processor) feedJobs(ctx context.Context, total int, jobs chan<- int) error {
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			logger.Debug("Context cancelled while feeding jobs", true)
			return ctx.Err()
		case jobs <- i:
		}
	}
	logger.Debug(fmt.Sprintf("All jobs queued: total_pages=%d", total), true)
	return nil
}

// Metadata writes the document metadata of path to w as indented JSON.
func (p *Processor) Metadata(ctx context.Context, path string, w io.Writer) error {
	logger.Debug(fmt.Sprintf("Reading metadata: path=%s", path), true)
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := open(path)
	if err != nil {
		logger.Error("failed to open PDF for metadata", "path", path, "err", err)
		return err
	}
	defer doc.Close()

	mf, err := readMetadataFull(doc.r, doc.file)
	if err != nil {
		return &InputError{Path: path, Err: err}
	}
	if err := writeMetadataJSON(w, mf); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	logger.Debug(fmt.Sprintf("Metadata extraction completed: path=%s", path), true)
	return nil
}
