// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package textlayer

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/internal/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readFirstPage writes doc, opens it and reads page 1.
func readFirstPage(t *testing.T, doc pdftest.Doc) *Layer {
	t.Helper()
	f, r, err := pdf.Open(pdftest.Write(t, doc))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	require.Equal(t, len(doc.Pages), r.NumPage())

	layer, err := Read(r.Page(1))
	require.NoError(t, err)
	return layer
}

func glyphText(gs []Glyph) string {
	var b strings.Builder
	for _, g := range gs {
		b.WriteString(g.Text)
	}
	return b.String()
}

func TestRead_GlyphPositions(t *testing.T) {
	layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{
		{Content: pdftest.Text(72, 700, "AB")},
	}})

	require.Len(t, layer.Glyphs, 2)
	assert.Equal(t, "AB", glyphText(layer.Glyphs))

	a, b := layer.Glyphs[0], layer.Glyphs[1]
	assert.Equal(t, "Helvetica", a.Font)
	assert.InDelta(t, 10, a.Size, 1e-9)
	assert.InDelta(t, 72, a.Origin.X, 1e-9)
	assert.InDelta(t, 700, a.Origin.Y, 1e-9)
	assert.InDelta(t, 77, a.BBox.X1, 1e-9, "500/1000 * 10pt advance")
	assert.InDelta(t, 698, a.BBox.Y0, 1e-9)
	assert.InDelta(t, 708, a.BBox.Y1, 1e-9)
	assert.InDelta(t, 77, b.Origin.X, 1e-9)
}

func TestRead_TextOperators(t *testing.T) {
	content := "BT /F1 10 Tf 12 TL 72 700 Td (one) Tj T* (two) Tj [(th) -1000 (ree)] TJ ET\n"
	layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{{Content: content}}})

	require.Len(t, layer.Glyphs, 11)
	assert.Equal(t, "onetwothree", glyphText(layer.Glyphs))

	two := layer.Glyphs[3]
	assert.InDelta(t, 688, two.Origin.Y, 1e-9, "T* moves down by the leading")
	assert.InDelta(t, 72, two.Origin.X, 1e-9)

	// "th" ends at 97, the -1000 adjustment adds one em (10pt).
	r := layer.Glyphs[8]
	assert.Equal(t, "r", r.Text)
	assert.InDelta(t, 107, r.Origin.X, 1e-9)
}

func TestRead_FormXObject(t *testing.T) {
	layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{{
		Content: "q /Fm1 Do Q\n" + pdftest.Text(72, 700, "x"),
		Forms: []pdftest.Form{{
			Name:    "Fm1",
			Matrix:  [6]float64{1, 0, 0, 1, 100, 0},
			Content: pdftest.Text(0, 600, "form"),
		}},
	}}})

	assert.Equal(t, "formx", glyphText(layer.Glyphs))
	assert.InDelta(t, 100, layer.Glyphs[0].Origin.X, 1e-9)
	assert.InDelta(t, 72, layer.Glyphs[4].Origin.X, 1e-9, "state restored after the form")
}

func TestRead_PathsAndImages(t *testing.T) {
	layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{{
		Content: pdftest.Rect(10, 20, 100, 50) +
			pdftest.WhiteRect(0, 0, 612, 792) +
			pdftest.PlaceImage("Im1", 100, 500, 50, 40),
		Images: []pdftest.Image{{Name: "Im1", Width: 2, Height: 2, Pixels: []byte{0, 255, 255, 0}}},
	}}})

	require.Len(t, layer.Paths, 2)
	stroke := layer.Paths[0]
	assert.True(t, stroke.Stroke)
	assert.False(t, stroke.Fill)
	assert.Equal(t, geom.Rect{X0: 10, Y0: 20, X1: 110, Y1: 70}, stroke.Bounds())

	bg := layer.Paths[1]
	assert.True(t, bg.Fill)
	assert.True(t, bg.WhiteFill)

	require.Len(t, layer.Images, 1)
	im := layer.Images[0]
	assert.Equal(t, "Im1", im.Name)
	assert.Equal(t, geom.Rect{X0: 100, Y0: 500, X1: 150, Y1: 540}, im.BBox)
	assert.Equal(t, int64(2), im.XObject.Key("Width").Int64())
}

func TestLayer_Normalized(t *testing.T) {
	tests := []struct {
		name   string
		rotate int
		want   geom.Rect
	}{
		{"upright", 0, geom.Rect{X0: 100, Y0: 252, X1: 150, Y1: 292}},
		{"rotated 90", 90, geom.Rect{X0: 500, Y0: 100, X1: 540, Y1: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{{
				Rotate:  tt.rotate,
				Content: pdftest.PlaceImage("Im1", 100, 500, 50, 40),
				Images:  []pdftest.Image{{Name: "Im1", Width: 1, Height: 1, Pixels: []byte{0}}},
			}}})
			assert.Equal(t, tt.rotate, layer.Frame.Rotate)

			n := layer.Normalized()
			require.Len(t, n.Images, 1)
			assert.Equal(t, tt.want, n.Images[0].BBox)
			assert.Equal(t, geom.Rect{X0: 100, Y0: 500, X1: 150, Y1: 540}, layer.Images[0].BBox, "original left untouched")
		})
	}
}

func TestPageFrame_MediaBox(t *testing.T) {
	layer := readFirstPage(t, pdftest.Doc{Pages: []pdftest.Page{{
		MediaBox: [4]float64{0, 0, 300, 400},
	}}})
	w, h := layer.Frame.Size()
	assert.Equal(t, 300.0, w)
	assert.Equal(t, 400.0, h)
	assert.Empty(t, layer.Glyphs)
}

func TestParseCIDWidths(t *testing.T) {
	assert.Empty(t, parseCIDWidths(pdf.Value{}))
}

func TestStripSubset(t *testing.T) {
	assert.Equal(t, "Arial-Bold", stripSubset("ABCDEF+Arial-Bold"))
	assert.Equal(t, "Helvetica", stripSubset("Helvetica"))
}
