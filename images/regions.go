// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package images

import (
	"sort"

	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/textlayer"
)

// RegionOptions controls which painted paths become drawing regions.
type RegionOptions struct {
	// Paths thinner than this in either direction are rules and
	// underlines, not drawings.
	MinThickness float64

	// Paths closer than this are merged into one region.
	MergeGap float64

	// Regions smaller than this area (pt²) are dropped.
	MinArea float64

	// Regions covering more than this fraction of the page are page
	// backgrounds or borders and are dropped.
	MaxCoverage float64
}

// DefaultRegionOptions returns the settings used by the extractor.
func DefaultRegionOptions() RegionOptions {
	return RegionOptions{
		MinThickness: 3,
		MergeGap:     5,
		MinArea:      400,
		MaxCoverage:  0.9,
	}
}

// Regions clusters the display-space paths that are not part of a table
// into drawing regions, sorted top to bottom then left to right. page is
// the displayed page rectangle.
func Regions(paths []textlayer.Path, tables []geom.Rect, page geom.Rect, opts RegionOptions) []geom.Rect {
	pageArea := page.Area()
	background := func(r geom.Rect) bool {
		return pageArea > 0 && r.Intersect(page).Area()/pageArea > opts.MaxCoverage
	}

	var boxes []geom.Rect
	for _, p := range paths {
		if p.WhiteFill && !p.Stroke {
			continue
		}
		b := p.Bounds()
		if b.Width() < opts.MinThickness || b.Height() < opts.MinThickness {
			continue
		}
		if insideAny(b, tables) || background(b) {
			continue
		}
		boxes = append(boxes, b)
	}

	merged := mergeBoxes(boxes, opts.MergeGap)

	out := merged[:0]
	for _, r := range merged {
		r = r.Intersect(page)
		if r.Area() < opts.MinArea || background(r) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y0 != out[j].Y0 {
			return out[i].Y0 < out[j].Y0
		}
		return out[i].X0 < out[j].X0
	})
	return out
}

func insideAny(r geom.Rect, tables []geom.Rect) bool {
	for _, t := range tables {
		if t.Expand(1).ContainsRect(r) {
			return true
		}
	}
	return false
}

// mergeBoxes unions boxes that come within gap of each other until no two
// results touch.
func mergeBoxes(boxes []geom.Rect, gap float64) []geom.Rect {
	out := append([]geom.Rect(nil), boxes...)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if out[i].Expand(gap).Overlaps(out[j]) {
					out[i] = out[i].Union(out[j])
					out = append(out[:j], out[j+1:]...)
					changed = true
					j--
				}
			}
		}
	}
	return out
}
