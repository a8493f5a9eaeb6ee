// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package geom holds the rectangle type shared by every content source and
// the page frame that maps PDF user space into display space.
package geom

import "math"

// Point is an X, Y pair.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle with X0 <= X1 and Y0 <= Y1.
// Once normalized by a Frame, (X0, Y0) is the top-left corner.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// RectFromPoints returns the smallest Rect covering all points.
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{pts[0].X, pts[0].Y, pts[0].X, pts[0].Y}
	for _, p := range pts[1:] {
		r.X0 = math.Min(r.X0, p.X)
		r.Y0 = math.Min(r.Y0, p.Y)
		r.X1 = math.Max(r.X1, p.X)
		r.Y1 = math.Max(r.Y1, p.Y)
	}
	return r
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the area, 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	return math.Max(0, r.Width()) * math.Max(0, r.Height())
}

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{(r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2}
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Intersect returns the overlap of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x := Rect{
		X0: math.Max(r.X0, o.X0),
		Y0: math.Max(r.Y0, o.Y0),
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
	}
	if x.IsEmpty() {
		return Rect{}
	}
	return x
}

// Overlaps reports whether r and o share a point. Touching edges count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X0 <= o.X1 && o.X0 <= r.X1 && r.Y0 <= o.Y1 && o.Y0 <= r.Y1
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X0 >= r.X0 && o.X1 <= r.X1 && o.Y0 >= r.Y0 && o.Y1 <= r.Y1
}

// ContainsPoint reports whether p lies inside r, edges included.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// OverlapFraction returns the fraction of r's area covered by o.
// A degenerate r (a zero-height text run, say) counts as covered when it lies
// inside o.
func (r Rect) OverlapFraction(o Rect) float64 {
	a := r.Area()
	if a <= 0 {
		if o.ContainsRect(r) {
			return 1
		}
		return 0
	}
	return r.Intersect(o).Area() / a
}

// VerticalOverlap returns how far the vertical extents of r and o overlap.
// Negative values are the gap between them.
func (r Rect) VerticalOverlap(o Rect) float64 {
	return math.Min(r.Y1, o.Y1) - math.Max(r.Y0, o.Y0)
}

// HorizontalOverlap is VerticalOverlap on the X axis.
func (r Rect) HorizontalOverlap(o Rect) float64 {
	return math.Min(r.X1, o.X1) - math.Max(r.X0, o.X0)
}

// Expand grows r by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{r.X0 - margin, r.Y0 - margin, r.X1 + margin, r.Y1 + margin}
}

// Matrix is a PDF affine transform [a b c d e f].
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Mul returns m × n, i.e. m applied first, then n.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyRect transforms the four corners of r and returns their bounds.
func (m Matrix) ApplyRect(r Rect) Rect {
	return RectFromPoints(
		m.Apply(Point{r.X0, r.Y0}),
		m.Apply(Point{r.X1, r.Y0}),
		m.Apply(Point{r.X0, r.Y1}),
		m.Apply(Point{r.X1, r.Y1}),
	)
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}
