// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tables

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/textlayer"
)

var (
	// ErrDegenerateGrid is returned for grids with collapsed rows or columns.
	ErrDegenerateGrid = errors.New("degenerate table grid")

	// ErrEmptyTable is returned when no glyph falls inside any cell.
	ErrEmptyTable = errors.New("table has no text")
)

// Table is a grid with its cell text filled in.
type Table struct {
	Grid
	Rows [][]string
}

// Extract assigns glyphs to the grid's cells by their centre and returns
// the cell text row by row. Glyphs within a cell are grouped into lines
// and the lines joined with a single space.
func Extract(g Grid, glyphs []textlayer.Glyph, opts textlayer.GroupOptions) (t Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract table at %v: %v", g.BBox, r)
		}
	}()

	if g.RowCount() < 1 || g.ColCount() < 1 {
		return Table{}, ErrDegenerateGrid
	}
	for i := 1; i < len(g.Rows); i++ {
		if g.Rows[i] <= g.Rows[i-1] {
			return Table{}, ErrDegenerateGrid
		}
	}
	for i := 1; i < len(g.Cols); i++ {
		if g.Cols[i] <= g.Cols[i-1] {
			return Table{}, ErrDegenerateGrid
		}
	}

	cells := make([][][]textlayer.Glyph, g.RowCount())
	for i := range cells {
		cells[i] = make([][]textlayer.Glyph, g.ColCount())
	}
	found := 0
	for _, gl := range glyphs {
		row, col := findCell(gl.BBox.Center(), g)
		if row < 0 || col < 0 {
			continue
		}
		cells[row][col] = append(cells[row][col], gl)
		found++
	}
	if found == 0 {
		return Table{}, ErrEmptyTable
	}

	t = Table{Grid: g, Rows: make([][]string, g.RowCount())}
	nonEmpty := false
	for r, row := range cells {
		t.Rows[r] = make([]string, len(row))
		for c, cell := range row {
			t.Rows[r][c] = cellText(cell, opts)
			if t.Rows[r][c] != "" {
				nonEmpty = true
			}
		}
	}
	if !nonEmpty {
		return Table{}, ErrEmptyTable
	}
	return t, nil
}

func cellText(glyphs []textlayer.Glyph, opts textlayer.GroupOptions) string {
	var parts []string
	for _, l := range textlayer.GroupLines(glyphs, opts) {
		if s := strings.TrimSpace(l.Text(opts)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// findCell returns the row and column of the cell containing p, or -1 for
// both if p is outside the grid.
func findCell(p geom.Point, g Grid) (row, col int) {
	row, col = -1, -1
	for i := 0; i < g.RowCount(); i++ {
		if p.Y >= g.Rows[i] && p.Y <= g.Rows[i+1] {
			row = i
			break
		}
	}
	for i := 0; i < g.ColCount(); i++ {
		if p.X >= g.Cols[i] && p.X <= g.Cols[i+1] {
			col = i
			break
		}
	}
	if row < 0 || col < 0 {
		return -1, -1
	}
	return row, col
}
