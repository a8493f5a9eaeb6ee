// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"math"
	"sort"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/logger"
)

// MergeOptions tune the page content merger. Distances are in points.
type MergeOptions struct {
	// LineTolerance is how much two blocks must overlap vertically before
	// they are read as one band, left to right.
	LineTolerance float64 `validate:"gte=0"`

	// TextTableOverlap is the fraction of a text block's area that must lie
	// inside a table for the text block to be dropped in favour of the table.
	TextTableOverlap float64 `validate:"gt=0,lte=1"`

	// ContainTolerance grows table boxes before the containment tests so
	// glyph boxes that touch a ruling line still count as inside.
	ContainTolerance float64 `validate:"gte=0"`
}

// DefaultMergeOptions returns the options used when none are configured.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		LineTolerance:    2,
		TextTableOverlap: 1,
		ContainTolerance: 1,
	}
}

// overlapEpsilon absorbs float noise in area fractions.
const overlapEpsilon = 1e-9

type placed struct {
	block ContentBlock
	box   geom.Rect
	seq   int
}

// Merge orders the blocks of one page into reading order.
//
// Text blocks covered by a table and images inside a table are dropped,
// since the table's cells already carry that content. Every other block
// appears exactly once. Blocks are sorted top to bottom; the topmost
// remaining block opens a band, later blocks that share a line with every
// member join it, and the band is emitted left to right before the next
// one starts.
func Merge(in PageInput, opts MergeOptions) PageResult {
	tables := make([]geom.Rect, len(in.Tables))
	for i, t := range in.Tables {
		tables[i] = t.BBox.Expand(opts.ContainTolerance)
	}

	items := make([]placed, 0, len(in.Text)+len(in.Tables)+len(in.Images))
	add := func(b ContentBlock) {
		items = append(items, placed{block: b, box: b.Bounds(), seq: len(items)})
	}

	for _, tb := range in.Text {
		if coveredByTable(tb.BBox, tables, opts.TextTableOverlap) {
			logger.Debug("merge: text inside table dropped", "page", in.Page.Number(), "bbox", tb.BBox, true)
			continue
		}
		add(tb)
	}
	for _, tb := range in.Tables {
		add(tb)
	}
	for _, ib := range in.Images {
		if insideTable(ib.BBox, tables) {
			logger.Debug("merge: image inside table dropped", "page", in.Page.Number(), "bbox", ib.BBox, true)
			continue
		}
		add(ib)
	}

	return PageResult{Page: in.Page, Blocks: order(items, opts.LineTolerance)}
}

func coveredByTable(r geom.Rect, tables []geom.Rect, threshold float64) bool {
	for _, t := range tables {
		if r.OverlapFraction(t)+overlapEpsilon >= threshold {
			return true
		}
	}
	return false
}

func insideTable(r geom.Rect, tables []geom.Rect) bool {
	for _, t := range tables {
		if t.ContainsRect(r) {
			return true
		}
	}
	return false
}

func order(items []placed, tol float64) []ContentBlock {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.box.Y0 != b.box.Y0 {
			return a.box.Y0 < b.box.Y0
		}
		if a.box.X0 != b.box.X0 {
			return a.box.X0 < b.box.X0
		}
		if a.block.Kind() != b.block.Kind() {
			return a.block.Kind() < b.block.Kind()
		}
		return a.seq < b.seq
	})

	out := make([]ContentBlock, 0, len(items))
	used := make([]bool, len(items))
	for i := range items {
		if used[i] {
			continue
		}
		band := []placed{items[i]}
		used[i] = true
		for j := i + 1; j < len(items); j++ {
			if used[j] || !joinsBand(band, items[j].box, tol) {
				continue
			}
			band = append(band, items[j])
			used[j] = true
		}
		// Every pair in band shares a line, so reading it left to right
		// cannot move a lower block above a higher one. The stable sort
		// keeps the (Y0, X0) order for equal X0.
		sort.SliceStable(band, func(a, b int) bool { return band[a].box.X0 < band[b].box.X0 })
		for _, p := range band {
			out = append(out, p.block)
		}
	}
	return out
}

// joinsBand reports whether r shares a band with every block already in
// band.
func joinsBand(band []placed, r geom.Rect, tol float64) bool {
	for _, p := range band {
		if !sameBand(p.box, r, tol) {
			return false
		}
	}
	return true
}

// sameBand reports whether b is read on the same band as anchor. Blocks too
// short to overlap by tol still share a band when their tops line up.
func sameBand(anchor, b geom.Rect, tol float64) bool {
	if anchor.VerticalOverlap(b) > tol {
		return true
	}
	return math.Abs(anchor.Y0-b.Y0) <= tol
}
