// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package textlayer

import (
	"testing"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays s out in display space starting at x on baseline y, 10pt with
// a 5pt advance.
func word(x, y float64, s string) []Glyph {
	var out []Glyph
	for i, r := range s {
		x0 := x + float64(i)*5
		out = append(out, Glyph{
			Text:   string(r),
			Size:   10,
			Origin: geom.Point{X: x0, Y: y},
			BBox:   geom.Rect{X0: x0, Y0: y - 8, X1: x0 + 5, Y1: y + 2},
		})
	}
	return out
}

func concat(parts ...[]Glyph) []Glyph {
	var out []Glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestGroupLines_WordSpacing(t *testing.T) {
	opts := DefaultGroupOptions()
	glyphs := concat(word(110, 100, "World"), word(72, 100, "Hello"))

	lines := GroupLines(glyphs, opts)
	require.Len(t, lines, 1)
	assert.Equal(t, "Hello World", lines[0].Text(opts))
	assert.Equal(t, geom.Rect{X0: 72, Y0: 92, X1: 135, Y1: 102}, lines[0].BBox)
}

func TestGroupLines_SplitsFarColumns(t *testing.T) {
	opts := DefaultGroupOptions()
	lines := GroupLines(concat(word(72, 100, "left"), word(300, 101, "right")), opts)

	require.Len(t, lines, 2)
	assert.Equal(t, "left", lines[0].Text(opts))
	assert.Equal(t, "right", lines[1].Text(opts))
}

func TestGroupLines_BaselineTolerance(t *testing.T) {
	opts := DefaultGroupOptions()
	lines := GroupLines(concat(word(72, 100, "a"), word(77, 103, "b"), word(72, 112, "c")), opts)

	require.Len(t, lines, 2)
	assert.Equal(t, "ab", lines[0].Text(opts))
	assert.Equal(t, "c", lines[1].Text(opts))
}

func TestGroupLines_Empty(t *testing.T) {
	assert.Nil(t, GroupLines(nil, DefaultGroupOptions()))
}

func TestGroupBlocks(t *testing.T) {
	opts := DefaultGroupOptions()
	glyphs := concat(
		word(72, 300, "far"),
		word(72, 112, "second"),
		word(72, 100, "first"),
		word(400, 100, "aside"),
	)

	blocks := GroupBlocks(glyphs, opts)
	require.Len(t, blocks, 3)
	assert.Equal(t, "first\nsecond", blocks[0].Text(opts))
	assert.Equal(t, "aside", blocks[1].Text(opts))
	assert.Equal(t, "far", blocks[2].Text(opts))
	assert.Equal(t, geom.Rect{X0: 72, Y0: 92, X1: 102, Y1: 114}, blocks[0].BBox)
}

func TestGroupBlocks_SkipsBlankLines(t *testing.T) {
	opts := DefaultGroupOptions()
	blocks := GroupBlocks(concat(word(72, 100, "   "), word(72, 200, "x")), opts)
	require.Len(t, blocks, 1)
	assert.Equal(t, "x", blocks[0].Text(opts))
}
