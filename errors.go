// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"errors"
	"fmt"
)

// InputError reports a missing, unreadable or corrupt input PDF. Fatal.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %s: %v", e.Path, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// OutputError reports an unwritable image directory or text file. Fatal.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string { return fmt.Sprintf("output %s: %v", e.Path, e.Err) }
func (e *OutputError) Unwrap() error { return e.Err }

// OcrError reports a failed recognition of one image. The block keeps its
// place with no text and the run continues.
type OcrError struct {
	Page int    // 1-based
	File string // image file name, may be empty
	Err  error
}

func (e *OcrError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("page %d: ocr %s: %v", e.Page, e.File, e.Err)
	}
	return fmt.Sprintf("page %d: ocr: %v", e.Page, e.Err)
}
func (e *OcrError) Unwrap() error { return e.Err }

// TableExtractError reports a detected table whose cells could not be read.
// Its region is reprocessed as a drawing.
type TableExtractError struct {
	Page int // 1-based
	Err  error
}

func (e *TableExtractError) Error() string {
	return fmt.Sprintf("page %d: table extraction: %v", e.Page, e.Err)
}
func (e *TableExtractError) Unwrap() error { return e.Err }

// PageError reports a page that could not be processed at all. In strict
// mode it is fatal; in best-effort mode it lands in PageResult.Err.
type PageError struct {
	Page int // 1-based
	Err  error
}

func (e *PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }
func (e *PageError) Unwrap() error { return e.Err }

// IsFatal reports whether err should abort a run.
func IsFatal(err error) bool {
	var in *InputError
	var out *OutputError
	var pe *PageError
	return errors.As(err, &in) || errors.As(err, &out) || errors.As(err, &pe)
}
