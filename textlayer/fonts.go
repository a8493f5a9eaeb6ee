// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package textlayer

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// defaultWidth is used, in glyph space units, when a font carries no
// width information at all.
const defaultWidth = 500

type rawEncoding struct{}

func (rawEncoding) Decode(raw string) string { return raw }

type fontInfo struct {
	name    string
	enc     pdf.TextEncoding
	font    pdf.Font
	twoByte bool

	hasWidths bool
	cidWidths map[int]float64
	dw        float64
}

var fallbackFont = &fontInfo{enc: rawEncoding{}}

func loadFont(v pdf.Value) *fontInfo {
	if v.IsNull() {
		return fallbackFont
	}
	f := pdf.Font{V: v}
	info := &fontInfo{
		name: stripSubset(f.BaseFont()),
		font: f,
	}
	if enc := f.Encoder(); enc != nil {
		info.enc = enc
	} else {
		info.enc = rawEncoding{}
	}

	if v.Key("Subtype").Name() == "Type0" {
		info.twoByte = true
		desc := v.Key("DescendantFonts").Index(0)
		info.dw = 1000
		if dw := desc.Key("DW"); !dw.IsNull() {
			info.dw = dw.Float64()
		}
		info.cidWidths = parseCIDWidths(desc.Key("W"))
		info.hasWidths = true
		return info
	}
	info.hasWidths = v.Key("Widths").Kind() == pdf.Array
	return info
}

// stripSubset drops the "ABCDEF+" prefix of subset font names.
func stripSubset(name string) string {
	if i := strings.Index(name, "+"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (f *fontInfo) width(code int) float64 {
	switch {
	case f.twoByte:
		if w, ok := f.cidWidths[code]; ok {
			return w
		}
		return f.dw
	case f.hasWidths:
		return f.font.Width(code)
	default:
		return defaultWidth
	}
}

// parseCIDWidths reads a CIDFont /W array. Entries come in two shapes:
// "c [w1 w2 ...]" and "cfirst clast w".
func parseCIDWidths(w pdf.Value) map[int]float64 {
	out := make(map[int]float64)
	if w.Kind() != pdf.Array {
		return out
	}
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		if i+1 >= w.Len() {
			break
		}
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				out[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		// Guard against absurd ranges in broken files.
		if last-first > 0xFFFF {
			last = first + 0xFFFF
		}
		for c := first; c <= last; c++ {
			out[c] = width
		}
		i += 3
	}
	return out
}
