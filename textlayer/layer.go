// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package textlayer walks a page's content stream and reports what was
// painted on it: positioned glyphs, vector paths and image placements.
//
// Coordinates coming out of Read are PDF user space. Call Layer.Normalized
// to move everything into the page's display space before comparing
// positions with anything else.
package textlayer

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/sassoftware/viya-pdf2text/geom"
)

// Glyph is one decoded character code drawn on the page.
type Glyph struct {
	Text   string
	Font   string
	Size   float64    // effective font size after all transforms
	Origin geom.Point // baseline origin
	BBox   geom.Rect
}

// Path is a painted vector path, already transformed by the CTM.
type Path struct {
	Subpaths  [][]geom.Point
	Fill      bool
	Stroke    bool
	WhiteFill bool
	LineWidth float64
}

// Bounds returns the rectangle covering every point of the path.
func (p Path) Bounds() geom.Rect {
	var pts []geom.Point
	for _, sp := range p.Subpaths {
		pts = append(pts, sp...)
	}
	return geom.RectFromPoints(pts...)
}

// Placement is an image XObject painted with the Do operator.
type Placement struct {
	Name    string // resource name, e.g. "Im1"
	BBox    geom.Rect
	XObject pdf.Value
}

// Layer is everything Read found on one page.
type Layer struct {
	Frame  geom.Frame
	Glyphs []Glyph
	Paths  []Path
	Images []Placement
}

// Normalized returns a copy of l with every coordinate mapped into display
// space through l.Frame.
func (l *Layer) Normalized() *Layer {
	f := l.Frame
	out := &Layer{
		Frame:  f,
		Glyphs: make([]Glyph, len(l.Glyphs)),
		Paths:  make([]Path, len(l.Paths)),
		Images: make([]Placement, len(l.Images)),
	}
	for i, g := range l.Glyphs {
		g.Origin = f.NormalizePoint(g.Origin)
		g.BBox = f.Normalize(g.BBox)
		out.Glyphs[i] = g
	}
	for i, p := range l.Paths {
		subs := make([][]geom.Point, len(p.Subpaths))
		for j, sp := range p.Subpaths {
			pts := make([]geom.Point, len(sp))
			for k, pt := range sp {
				pts[k] = f.NormalizePoint(pt)
			}
			subs[j] = pts
		}
		p.Subpaths = subs
		out.Paths[i] = p
	}
	for i, im := range l.Images {
		im.BBox = f.Normalize(im.BBox)
		out.Images[i] = im
	}
	return out
}

// Read interprets the page. The PDF layer reports malformed content by
// panicking; Read turns that into an error so one bad page cannot take
// the whole document down.
func Read(p pdf.Page) (layer *Layer, err error) {
	defer func() {
		if r := recover(); r != nil {
			layer = nil
			err = fmt.Errorf("interpret page content: %v", r)
		}
	}()

	if p.V.IsNull() {
		return nil, fmt.Errorf("null page")
	}

	layer = &Layer{Frame: PageFrame(p)}
	contents := p.V.Key("Contents")
	if contents.IsNull() {
		return layer, nil
	}

	w := newWalker(layer)
	res := p.Resources()
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			w.run(contents.Index(i), res, 0)
		}
	} else {
		w.run(contents, res, 0)
	}
	return layer, nil
}

// PageFrame reads the inherited MediaBox and Rotate entries of p.
func PageFrame(p pdf.Page) geom.Frame {
	box := geom.Rect{}
	if mb := inherited(p, "MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
		box = geom.RectFromPoints(
			geom.Point{X: mb.Index(0).Float64(), Y: mb.Index(1).Float64()},
			geom.Point{X: mb.Index(2).Float64(), Y: mb.Index(3).Float64()},
		)
	}
	return geom.NewFrame(box, int(inherited(p, "Rotate").Int64()))
}

func inherited(p pdf.Page, key string) pdf.Value {
	v := p.V
	// Parent chains are short; the cap guards against cyclic page trees.
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
