// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package textlayer

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/sassoftware/viya-pdf2text/geom"
)

// GroupOptions tunes how glyphs become lines and lines become blocks.
// All values are multiples of the font size.
type GroupOptions struct {
	RowTolerance float64 // baseline drift still considered the same row
	WordSpace    float64 // gap that inserts a space between glyphs
	MaxCharGap   float64 // gap that splits a row into separate lines
	LineGap      float64 // vertical gap that still joins a line to a block
}

// DefaultGroupOptions mirrors what works for typical born-digital output.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		RowTolerance: 0.5,
		WordSpace:    0.25,
		MaxCharGap:   3.0,
		LineGap:      1.0,
	}
}

// Line is a run of glyphs sharing a baseline.
type Line struct {
	Glyphs []Glyph
	BBox   geom.Rect
	Size   float64
}

// Text joins the line's glyphs, inserting spaces where the horizontal gap
// suggests a word break.
func (l Line) Text(opts GroupOptions) string {
	var b strings.Builder
	for i, g := range l.Glyphs {
		if i > 0 {
			prev := l.Glyphs[i-1]
			gap := g.BBox.X0 - prev.BBox.X1
			if gap > opts.WordSpace*l.Size && !endsWithSpace(prev.Text) && !startsWithSpace(g.Text) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.Text)
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// Block is a paragraph-like stack of lines.
type Block struct {
	Lines []Line
	BBox  geom.Rect
}

// Text returns the block's lines separated by newlines.
func (b Block) Text(opts GroupOptions) string {
	lines := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		if s := strings.TrimSpace(l.Text(opts)); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func endsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}

func startsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[0]))
}

func glyphSize(g Glyph) float64 {
	if g.Size > 0 {
		return g.Size
	}
	return math.Max(g.BBox.Height(), 1)
}

// GroupLines clusters display-space glyphs into lines. Glyphs are first
// grouped into rows by baseline, then each row is split wherever the gap
// between neighbours exceeds MaxCharGap, so side-by-side columns do not
// fuse into one line.
func GroupLines(glyphs []Glyph, opts GroupOptions) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b Glyph) int {
		if a.Origin.Y != b.Origin.Y {
			if a.Origin.Y < b.Origin.Y {
				return -1
			}
			return 1
		}
		return 0
	})

	var rows [][]Glyph
	var anchor Glyph
	for _, g := range sorted {
		if len(rows) > 0 && math.Abs(g.Origin.Y-anchor.Origin.Y) <= opts.RowTolerance*glyphSize(anchor) {
			rows[len(rows)-1] = append(rows[len(rows)-1], g)
			continue
		}
		rows = append(rows, []Glyph{g})
		anchor = g
	}

	var lines []Line
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b Glyph) int {
			switch {
			case a.BBox.X0 < b.BBox.X0:
				return -1
			case a.BBox.X0 > b.BBox.X0:
				return 1
			}
			return 0
		})
		cur := newLine(row[0])
		for _, g := range row[1:] {
			if g.BBox.X0-cur.BBox.X1 > opts.MaxCharGap*math.Max(cur.Size, glyphSize(g)) {
				lines = append(lines, cur)
				cur = newLine(g)
				continue
			}
			cur.Glyphs = append(cur.Glyphs, g)
			cur.BBox = cur.BBox.Union(g.BBox)
			cur.Size = math.Max(cur.Size, glyphSize(g))
		}
		lines = append(lines, cur)
	}
	return lines
}

func newLine(g Glyph) Line {
	return Line{Glyphs: []Glyph{g}, BBox: g.BBox, Size: glyphSize(g)}
}

// GroupBlocks stacks lines into blocks. A line joins the most recent block
// it overlaps horizontally when the vertical gap to that block is at most
// LineGap times the font size.
func GroupBlocks(glyphs []Glyph, opts GroupOptions) []Block {
	lines := GroupLines(glyphs, opts)
	slices.SortStableFunc(lines, func(a, b Line) int {
		switch {
		case a.BBox.Y0 < b.BBox.Y0:
			return -1
		case a.BBox.Y0 > b.BBox.Y0:
			return 1
		case a.BBox.X0 < b.BBox.X0:
			return -1
		case a.BBox.X0 > b.BBox.X0:
			return 1
		}
		return 0
	})

	var blocks []Block
	for _, l := range lines {
		if strings.TrimSpace(l.Text(opts)) == "" {
			continue
		}
		joined := false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := &blocks[i]
			gap := l.BBox.Y0 - b.BBox.Y1
			if gap <= opts.LineGap*l.Size && gap >= -l.Size && b.BBox.HorizontalOverlap(l.BBox) > 0 {
				b.Lines = append(b.Lines, l)
				b.BBox = b.BBox.Union(l.BBox)
				joined = true
				break
			}
		}
		if !joined {
			blocks = append(blocks, Block{Lines: []Line{l}, BBox: l.BBox})
		}
	}
	return blocks
}
