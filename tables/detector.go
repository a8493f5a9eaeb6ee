// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package tables finds ruled tables in a page's vector graphics and reads
// their cells from the text layer. Everything here works in display space:
// feed it the output of textlayer.Layer.Normalized.
package tables

import (
	"math"
	"sort"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/logger"
	"github.com/sassoftware/viya-pdf2text/textlayer"
)

// Segment is an axis-aligned ruling line.
type Segment struct {
	Horizontal bool
	Pos        float64 // Y for horizontal segments, X for vertical ones
	Min, Max   float64 // extent along the other axis
}

// Bounds returns the segment as a zero-thickness rectangle.
func (s Segment) Bounds() geom.Rect {
	if s.Horizontal {
		return geom.Rect{X0: s.Min, Y0: s.Pos, X1: s.Max, Y1: s.Pos}
	}
	return geom.Rect{X0: s.Pos, Y0: s.Min, X1: s.Pos, Y1: s.Max}
}

// Grid is a detected table skeleton.
type Grid struct {
	BBox geom.Rect
	Cols []float64 // X edges, ascending
	Rows []float64 // Y edges, ascending (top of page first)
}

// RowCount returns the number of cell rows.
func (g Grid) RowCount() int { return max(0, len(g.Rows)-1) }

// ColCount returns the number of cell columns.
func (g Grid) ColCount() int { return max(0, len(g.Cols)-1) }

// Detector finds grids formed by intersecting ruling lines.
type Detector struct {
	// Tolerance for considering lines aligned or touching (in points)
	AlignmentTolerance float64

	// Minimum ruling length to consider (in points)
	MinLineLength float64

	// Minimum number of cells for a grid to count as a table. A lone
	// rectangle is a frame, not a table.
	MinCells int

	// Upper bound on segments examined per page; pages drawn with
	// thousands of tiny strokes are charts, not tables.
	MaxSegments int
}

// NewDetector creates a detector with default settings.
func NewDetector() *Detector {
	return &Detector{
		AlignmentTolerance: 3.0,
		MinLineLength:      10.0,
		MinCells:           2,
		MaxSegments:        4000,
	}
}

// Segments extracts ruling lines from painted paths. Every straight,
// axis-aligned edge counts, so stroked lines, rectangle borders and thin
// filled bars all contribute.
func (d *Detector) Segments(paths []textlayer.Path) []Segment {
	var out []Segment
	for _, p := range paths {
		if p.WhiteFill && !p.Stroke {
			continue
		}
		for _, sp := range p.Subpaths {
			for i := 1; i < len(sp); i++ {
				if s, ok := d.segment(sp[i-1], sp[i]); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func (d *Detector) segment(a, b geom.Point) (Segment, bool) {
	dx, dy := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)
	switch {
	case dy <= d.AlignmentTolerance/3 && dx >= d.MinLineLength:
		return Segment{Horizontal: true, Pos: (a.Y + b.Y) / 2, Min: math.Min(a.X, b.X), Max: math.Max(a.X, b.X)}, true
	case dx <= d.AlignmentTolerance/3 && dy >= d.MinLineLength:
		return Segment{Horizontal: false, Pos: (a.X + b.X) / 2, Min: math.Min(a.Y, b.Y), Max: math.Max(a.Y, b.Y)}, true
	}
	return Segment{}, false
}

// Detect returns the grids found among the painted paths, sorted top to
// bottom.
func (d *Detector) Detect(paths []textlayer.Path) []Grid {
	segs := d.Segments(paths)
	if len(segs) > d.MaxSegments {
		logger.Debug("tables: too many segments, skipping detection", "segments", len(segs), true)
		return nil
	}

	var grids []Grid
	for _, comp := range d.components(segs) {
		if g, ok := d.grid(comp); ok {
			grids = append(grids, g)
		}
	}
	sort.SliceStable(grids, func(i, j int) bool {
		if grids[i].BBox.Y0 != grids[j].BBox.Y0 {
			return grids[i].BBox.Y0 < grids[j].BBox.Y0
		}
		return grids[i].BBox.X0 < grids[j].BBox.X0
	})
	return grids
}

// touches reports whether two segments meet within the alignment tolerance.
func (d *Detector) touches(a, b Segment) bool {
	return a.Bounds().Expand(d.AlignmentTolerance).Overlaps(b.Bounds())
}

// components splits segments into connected groups with a union-find.
func (d *Detector) components(segs []Segment) [][]Segment {
	parent := make([]int, len(segs))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if d.touches(segs[i], segs[j]) {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	groups := make(map[int][]Segment)
	var roots []int
	for i, s := range segs {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], s)
	}
	out := make([][]Segment, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	return out
}

// grid turns one connected component into a Grid.
func (d *Detector) grid(segs []Segment) (Grid, bool) {
	var ys, xs []float64
	for _, s := range segs {
		if s.Horizontal {
			ys = append(ys, s.Pos)
		} else {
			xs = append(xs, s.Pos)
		}
	}
	rows := clusterValues(ys, d.AlignmentTolerance)
	cols := clusterValues(xs, d.AlignmentTolerance)
	if len(rows) < 2 || len(cols) < 2 {
		return Grid{}, false
	}
	g := Grid{
		BBox: geom.Rect{X0: cols[0], Y0: rows[0], X1: cols[len(cols)-1], Y1: rows[len(rows)-1]},
		Cols: cols,
		Rows: rows,
	}
	if g.RowCount()*g.ColCount() < d.MinCells {
		return Grid{}, false
	}
	return g, true
}

// clusterValues sorts values and merges those within tolerance of the
// running cluster centre.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	clustered := []float64{sorted[0]}
	counts := []int{1}
	for _, v := range sorted[1:] {
		last := len(clustered) - 1
		if v-clustered[last] > tolerance {
			clustered = append(clustered, v)
			counts = append(counts, 1)
			continue
		}
		counts[last]++
		clustered[last] += (v - clustered[last]) / float64(counts[last])
	}
	return clustered
}
