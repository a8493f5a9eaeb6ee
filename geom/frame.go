// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package geom

import "math"

// Frame describes how a page is displayed: its MediaBox in user space and
// its clockwise /Rotate value. The text layer, the table detector and the
// image extractor all report user-space coordinates (origin bottom-left,
// Y up); Frame maps them into one display space (origin top-left, Y down)
// so ordering keys can be compared across sources.
type Frame struct {
	MediaBox Rect
	Rotate   int
}

// DefaultMediaBox is US Letter, used when a page has no usable MediaBox.
var DefaultMediaBox = Rect{0, 0, 612, 792}

// NewFrame builds a Frame, normalizing rotate to 0, 90, 180 or 270.
func NewFrame(mediaBox Rect, rotate int) Frame {
	if mediaBox.IsEmpty() {
		mediaBox = DefaultMediaBox
	}
	rotate %= 360
	if rotate < 0 {
		rotate += 360
	}
	// Non-multiples of 90 are invalid PDF; snap to the nearest quarter turn.
	rotate = int(math.Round(float64(rotate)/90)) * 90 % 360
	return Frame{MediaBox: mediaBox, Rotate: rotate}
}

// Size returns the displayed page width and height.
func (f Frame) Size() (w, h float64) {
	w, h = f.MediaBox.Width(), f.MediaBox.Height()
	if f.Rotate == 90 || f.Rotate == 270 {
		return h, w
	}
	return w, h
}

// NormalizePoint maps a user-space point into display space.
func (f Frame) NormalizePoint(p Point) Point {
	w, h := f.MediaBox.Width(), f.MediaBox.Height()
	px, py := p.X-f.MediaBox.X0, p.Y-f.MediaBox.Y0
	switch f.Rotate {
	case 90:
		return Point{py, px}
	case 180:
		return Point{w - px, py}
	case 270:
		return Point{h - py, w - px}
	default:
		return Point{px, h - py}
	}
}

// Normalize maps a user-space rectangle into display space.
func (f Frame) Normalize(r Rect) Rect {
	return RectFromPoints(
		f.NormalizePoint(Point{r.X0, r.Y0}),
		f.NormalizePoint(Point{r.X1, r.Y1}),
	)
}
