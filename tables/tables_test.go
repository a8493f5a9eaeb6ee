// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tables

import (
	"testing"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/textlayer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stroke(pts ...geom.Point) textlayer.Path {
	return textlayer.Path{Subpaths: [][]geom.Point{pts}, Stroke: true, LineWidth: 1}
}

func hline(y, x0, x1 float64) textlayer.Path {
	return stroke(geom.Point{X: x0, Y: y}, geom.Point{X: x1, Y: y})
}

func vline(x, y0, y1 float64) textlayer.Path {
	return stroke(geom.Point{X: x, Y: y0}, geom.Point{X: x, Y: y1})
}

// ruled builds the ruling lines of a grid.
func ruled(xs, ys []float64) []textlayer.Path {
	var out []textlayer.Path
	for _, x := range xs {
		out = append(out, vline(x, ys[0], ys[len(ys)-1]))
	}
	for _, y := range ys {
		out = append(out, hline(y, xs[0], xs[len(xs)-1]))
	}
	return out
}

// text lays s out from (x, baseline y), 10pt with a 5pt advance.
func text(x, y float64, s string) []textlayer.Glyph {
	var out []textlayer.Glyph
	for i, r := range s {
		x0 := x + float64(i)*5
		out = append(out, textlayer.Glyph{
			Text:   string(r),
			Size:   10,
			Origin: geom.Point{X: x0, Y: y},
			BBox:   geom.Rect{X0: x0, Y0: y - 8, X1: x0 + 5, Y1: y + 2},
		})
	}
	return out
}

func TestDetect_Grid(t *testing.T) {
	paths := ruled([]float64{100, 200, 300}, []float64{100, 120, 140})
	// A lone frame elsewhere on the page.
	paths = append(paths, stroke(
		geom.Point{X: 50, Y: 500}, geom.Point{X: 150, Y: 500},
		geom.Point{X: 150, Y: 560}, geom.Point{X: 50, Y: 560}, geom.Point{X: 50, Y: 500},
	))
	// A white page background.
	paths = append(paths, textlayer.Path{
		Subpaths:  [][]geom.Point{{{X: 0, Y: 0}, {X: 612, Y: 0}, {X: 612, Y: 792}, {X: 0, Y: 792}, {X: 0, Y: 0}}},
		Fill:      true,
		WhiteFill: true,
	})

	grids := NewDetector().Detect(paths)
	require.Len(t, grids, 1)
	g := grids[0]
	assert.Equal(t, geom.Rect{X0: 100, Y0: 100, X1: 300, Y1: 140}, g.BBox)
	assert.Equal(t, 2, g.RowCount())
	assert.Equal(t, 2, g.ColCount())
}

func TestDetect_SortedTopToBottom(t *testing.T) {
	paths := append(ruled([]float64{100, 200, 300}, []float64{400, 420}), ruled([]float64{100, 150, 200}, []float64{50, 70})...)
	grids := NewDetector().Detect(paths)
	require.Len(t, grids, 2)
	assert.Equal(t, 50.0, grids[0].BBox.Y0)
	assert.Equal(t, 400.0, grids[1].BBox.Y0)
}

func TestDetect_ShortStrokesIgnored(t *testing.T) {
	paths := ruled([]float64{100, 105, 110}, []float64{100, 104, 108})
	assert.Empty(t, NewDetector().Detect(paths))
}

func TestDetect_TooManySegments(t *testing.T) {
	d := NewDetector()
	d.MaxSegments = 3
	assert.Nil(t, d.Detect(ruled([]float64{100, 200, 300}, []float64{100, 120, 140})))
}

func TestExtract(t *testing.T) {
	g := NewDetector().Detect(ruled([]float64{100, 200, 300}, []float64{100, 120, 140}))[0]

	var glyphs []textlayer.Glyph
	glyphs = append(glyphs, text(210, 134, "d")...)
	glyphs = append(glyphs, text(110, 114, "a")...)
	glyphs = append(glyphs, text(210, 114, "b")...)
	glyphs = append(glyphs, text(110, 134, "c")...)
	glyphs = append(glyphs, text(400, 400, "outside")...)

	tbl, err := Extract(g, glyphs, textlayer.DefaultGroupOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, tbl.Rows)
	assert.Equal(t, g.BBox, tbl.BBox)
}

func TestExtract_MultiLineCell(t *testing.T) {
	g := Grid{
		BBox: geom.Rect{X0: 0, Y0: 0, X1: 200, Y1: 60},
		Cols: []float64{0, 100, 200},
		Rows: []float64{0, 60},
	}
	glyphs := append(text(5, 20, "two"), text(5, 32, "lines")...)
	glyphs = append(glyphs, text(105, 20, "x")...)

	tbl, err := Extract(g, glyphs, textlayer.DefaultGroupOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"two lines", "x"}}, tbl.Rows)
}

func TestExtract_Errors(t *testing.T) {
	opts := textlayer.DefaultGroupOptions()
	good := Grid{Cols: []float64{0, 100, 200}, Rows: []float64{0, 20}}

	_, err := Extract(good, nil, opts)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = Extract(good, text(500, 500, "far"), opts)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = Extract(Grid{Cols: []float64{0, 100}, Rows: []float64{20, 20}}, text(5, 20, "x"), opts)
	assert.ErrorIs(t, err, ErrDegenerateGrid)

	_, err = Extract(Grid{Cols: []float64{0}, Rows: []float64{0, 20}}, nil, opts)
	assert.ErrorIs(t, err, ErrDegenerateGrid)
}

func TestClusterValues(t *testing.T) {
	assert.Nil(t, clusterValues(nil, 3))
	assert.Equal(t, []float64{1.5, 10.75}, clusterValues([]float64{11.5, 1, 10, 2}, 3))
}

func TestSegments(t *testing.T) {
	d := NewDetector()
	segs := d.Segments([]textlayer.Path{
		hline(10, 0, 100),
		vline(50, 0, 5), // too short
		stroke(geom.Point{X: 0, Y: 0}, geom.Point{X: 40, Y: 40}), // diagonal
	})
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Horizontal)
	assert.Equal(t, geom.Rect{X0: 0, Y0: 10, X1: 100, Y1: 10}, segs[0].Bounds())
}
