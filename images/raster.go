// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/textlayer"
	"golang.org/x/image/vector"
)

// DefaultZoom renders regions at 144 dpi.
const DefaultZoom = 2.0

// maxRasterPixels caps the size of a rasterized region; larger regions are
// rendered at a reduced zoom.
const maxRasterPixels = 25_000_000

// Rasterize renders the display-space paths that fall inside clip to a
// grayscale PNG with black ink on a white background. Only vector paths
// are drawn; text is read from the text layer, not from pixels.
func Rasterize(paths []textlayer.Path, clip geom.Rect, zoom float64) ([]byte, error) {
	if clip.IsEmpty() {
		return nil, fmt.Errorf("rasterize: empty region %v", clip)
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	if px := clip.Width() * clip.Height() * zoom * zoom; px > maxRasterPixels {
		zoom *= math.Sqrt(maxRasterPixels / px)
	}
	w := max(1, int(math.Ceil(clip.Width()*zoom)))
	h := max(1, int(math.Ceil(clip.Height()*zoom)))

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	z := vector.NewRasterizer(w, h)
	pt := func(p geom.Point) (float32, float32) {
		return float32((p.X - clip.X0) * zoom), float32((p.Y - clip.Y0) * zoom)
	}
	drawn := 0
	for _, p := range paths {
		if !p.Bounds().Overlaps(clip) || (p.WhiteFill && !p.Stroke) {
			continue
		}
		if p.Fill {
			for _, sp := range p.Subpaths {
				if len(sp) < 3 {
					continue
				}
				z.MoveTo(pt(sp[0]))
				for _, q := range sp[1:] {
					z.LineTo(pt(q))
				}
				z.ClosePath()
				drawn++
			}
		}
		if p.Stroke {
			width := math.Max(p.LineWidth, 1) * zoom
			for _, sp := range p.Subpaths {
				for i := 1; i < len(sp); i++ {
					strokeSegment(z, pt, sp[i-1], sp[i], width)
					drawn++
				}
			}
		}
	}
	if drawn > 0 {
		z.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// strokeSegment adds a segment as a quad of the given pixel width.
func strokeSegment(z *vector.Rasterizer, pt func(geom.Point) (float32, float32), a, b geom.Point, width float64) {
	ax, ay := pt(a)
	bx, by := pt(b)
	dx, dy := float64(bx-ax), float64(by-ay)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := float32(-dy/l*width/2), float32(dx/l*width/2)
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}
