// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package textlayer

import (
	"math"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/sassoftware/viya-pdf2text/geom"
	"github.com/sassoftware/viya-pdf2text/logger"
)

// maxFormDepth bounds Form XObject recursion.
const maxFormDepth = 8

// Glyph boxes span from the descender to the ascender in text space units.
const (
	descent = -0.2
	ascent  = 0.8
)

type gstate struct {
	ctm       geom.Matrix
	lineWidth float64
	fillWhite bool

	tc, tw, th, tl, tfs, trise float64
	font                       *fontInfo
}

type walker struct {
	layer  *Layer
	g      gstate
	gstack []gstate
	tm     geom.Matrix
	tlm    geom.Matrix

	path    [][]geom.Point
	fonts   map[string]*fontInfo
	scopeID int
}

func newWalker(layer *Layer) *walker {
	return &walker{
		layer: layer,
		g: gstate{
			ctm:       geom.Identity,
			lineWidth: 1,
			th:        1,
		},
		tm:    geom.Identity,
		tlm:   geom.Identity,
		fonts: make(map[string]*fontInfo),
	}
}

// run interprets strm with res as the resource dictionary in scope.
func (w *walker) run(strm pdf.Value, res pdf.Value, depth int) {
	scope := w.scopeID
	w.scopeID++

	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		w.do(op, args, res, scope, depth)
	})
}

func num(args []pdf.Value, i int) float64 {
	if i >= len(args) {
		return 0
	}
	return args[i].Float64()
}

func matrixArgs(args []pdf.Value) geom.Matrix {
	var m geom.Matrix
	for i := 0; i < 6; i++ {
		m[i] = num(args, i)
	}
	return m
}

func (w *walker) do(op string, args []pdf.Value, res pdf.Value, scope, depth int) {
	switch op {
	default:
		return

	// graphics state
	case "q":
		w.gstack = append(w.gstack, w.g)
	case "Q":
		if n := len(w.gstack) - 1; n >= 0 {
			w.g = w.gstack[n]
			w.gstack = w.gstack[:n]
		}
	case "cm":
		if len(args) == 6 {
			w.g.ctm = matrixArgs(args).Mul(w.g.ctm)
		}
	case "w":
		w.g.lineWidth = num(args, 0)

	// fill colour, only to tell white backgrounds apart
	case "g":
		w.g.fillWhite = num(args, 0) >= 1
	case "rg":
		w.g.fillWhite = len(args) == 3 && num(args, 0) >= 1 && num(args, 1) >= 1 && num(args, 2) >= 1
	case "k":
		w.g.fillWhite = len(args) == 4 && num(args, 0) <= 0 && num(args, 1) <= 0 && num(args, 2) <= 0 && num(args, 3) <= 0
	case "cs":
		w.g.fillWhite = false
	case "sc", "scn":
		w.g.fillWhite = whiteComponents(args)

	// path construction
	case "m":
		w.path = append(w.path, []geom.Point{w.userPoint(num(args, 0), num(args, 1))})
	case "l":
		w.lineTo(w.userPoint(num(args, 0), num(args, 1)))
	case "c":
		w.curveTo(w.userPoint(num(args, 0), num(args, 1)), w.userPoint(num(args, 2), num(args, 3)), w.userPoint(num(args, 4), num(args, 5)))
	case "v":
		cur, ok := w.current()
		if ok {
			w.curveTo(cur, w.userPoint(num(args, 0), num(args, 1)), w.userPoint(num(args, 2), num(args, 3)))
		}
	case "y":
		end := w.userPoint(num(args, 2), num(args, 3))
		w.curveTo(w.userPoint(num(args, 0), num(args, 1)), end, end)
	case "h":
		w.closeSubpath()
	case "re":
		x, y, wd, ht := num(args, 0), num(args, 1), num(args, 2), num(args, 3)
		w.path = append(w.path, []geom.Point{
			w.userPoint(x, y),
			w.userPoint(x+wd, y),
			w.userPoint(x+wd, y+ht),
			w.userPoint(x, y+ht),
			w.userPoint(x, y),
		})

	// path painting
	case "S":
		w.paint(false, true)
	case "s":
		w.closeSubpath()
		w.paint(false, true)
	case "f", "F", "f*":
		w.paint(true, false)
	case "B", "B*":
		w.paint(true, true)
	case "b", "b*":
		w.closeSubpath()
		w.paint(true, true)
	case "n":
		w.path = nil

	// text objects and state
	case "BT":
		w.tm = geom.Identity
		w.tlm = geom.Identity
	case "ET":
	case "Tc":
		w.g.tc = num(args, 0)
	case "Tw":
		w.g.tw = num(args, 0)
	case "Tz":
		w.g.th = num(args, 0) / 100
	case "TL":
		w.g.tl = num(args, 0)
	case "Ts":
		w.g.trise = num(args, 0)
	case "Tf":
		if len(args) == 2 {
			w.g.font = w.font(res, scope, args[0].Name())
			w.g.tfs = args[1].Float64()
		}
	case "TD":
		w.g.tl = -num(args, 1)
		w.moveLine(num(args, 0), num(args, 1))
	case "Td":
		w.moveLine(num(args, 0), num(args, 1))
	case "Tm":
		if len(args) == 6 {
			w.tm = matrixArgs(args)
			w.tlm = w.tm
		}
	case "T*":
		w.moveLine(0, -w.g.tl)

	// text showing
	case "Tj":
		if len(args) == 1 {
			w.show(args[0].RawString())
		}
	case "'":
		if len(args) == 1 {
			w.moveLine(0, -w.g.tl)
			w.show(args[0].RawString())
		}
	case "\"":
		if len(args) == 3 {
			w.g.tw = num(args, 0)
			w.g.tc = num(args, 1)
			w.moveLine(0, -w.g.tl)
			w.show(args[2].RawString())
		}
	case "TJ":
		if len(args) != 1 {
			return
		}
		v := args[0]
		for i := 0; i < v.Len(); i++ {
			x := v.Index(i)
			if x.Kind() == pdf.String {
				w.show(x.RawString())
			} else {
				tx := -x.Float64() / 1000 * w.g.tfs * w.g.th
				w.tm = geom.Translate(tx, 0).Mul(w.tm)
			}
		}

	// external objects
	case "Do":
		if len(args) == 1 {
			w.doXObject(args[0].Name(), res, depth)
		}
	}
}

func whiteComponents(args []pdf.Value) bool {
	switch len(args) {
	case 1, 3:
		for _, a := range args {
			if a.Kind() != pdf.Integer && a.Kind() != pdf.Real || a.Float64() < 1 {
				return false
			}
		}
		return true
	case 4:
		for _, a := range args {
			if a.Kind() != pdf.Integer && a.Kind() != pdf.Real || a.Float64() > 0 {
				return false
			}
		}
		return true
	}
	return false
}

func (w *walker) userPoint(x, y float64) geom.Point {
	return w.g.ctm.Apply(geom.Point{X: x, Y: y})
}

func (w *walker) current() (geom.Point, bool) {
	if len(w.path) == 0 {
		return geom.Point{}, false
	}
	sp := w.path[len(w.path)-1]
	return sp[len(sp)-1], true
}

func (w *walker) lineTo(p geom.Point) {
	if len(w.path) == 0 {
		w.path = append(w.path, []geom.Point{p})
		return
	}
	last := len(w.path) - 1
	w.path[last] = append(w.path[last], p)
}

// curveTo flattens a cubic Bézier from the current point.
func (w *walker) curveTo(c1, c2, end geom.Point) {
	start, ok := w.current()
	if !ok {
		w.lineTo(end)
		return
	}
	const steps = 8
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		u := 1 - t
		w.lineTo(geom.Point{
			X: u*u*u*start.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*end.X,
			Y: u*u*u*start.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*end.Y,
		})
	}
}

func (w *walker) closeSubpath() {
	if len(w.path) == 0 {
		return
	}
	last := len(w.path) - 1
	if sp := w.path[last]; len(sp) > 1 {
		w.path[last] = append(sp, sp[0])
	}
}

func (w *walker) paint(fill, stroke bool) {
	if len(w.path) > 0 {
		w.layer.Paths = append(w.layer.Paths, Path{
			Subpaths:  w.path,
			Fill:      fill,
			Stroke:    stroke,
			WhiteFill: fill && w.g.fillWhite,
			LineWidth: w.g.lineWidth,
		})
	}
	w.path = nil
}

func (w *walker) moveLine(tx, ty float64) {
	w.tlm = geom.Translate(tx, ty).Mul(w.tlm)
	w.tm = w.tlm
}

// show emits one Glyph per character code of raw and advances the text
// matrix the way the PDF text rendering model does.
func (w *walker) show(raw string) {
	f := w.g.font
	if f == nil {
		f = fallbackFont
	}
	step := 1
	if f.twoByte {
		step = 2
	}
	for i := 0; i < len(raw); i += step {
		code := raw[i:min(i+step, len(raw))]
		cid := 0
		for j := 0; j < len(code); j++ {
			cid = cid<<8 | int(code[j])
		}
		w0 := f.width(cid)

		trm := geom.Matrix{w.g.tfs * w.g.th, 0, 0, w.g.tfs, 0, w.g.trise}.Mul(w.tm).Mul(w.g.ctm)
		if text := f.enc.Decode(code); text != "" {
			w.layer.Glyphs = append(w.layer.Glyphs, Glyph{
				Text:   text,
				Font:   f.name,
				Size:   math.Hypot(trm[2], trm[3]),
				Origin: trm.Apply(geom.Point{}),
				BBox:   trm.ApplyRect(geom.Rect{X0: 0, Y0: descent, X1: w0 / 1000, Y1: ascent}),
			})
		}

		tx := w0/1000*w.g.tfs + w.g.tc
		if step == 1 && code == " " {
			tx += w.g.tw
		}
		tx *= w.g.th
		w.tm = geom.Translate(tx, 0).Mul(w.tm)
	}
}

func (w *walker) doXObject(name string, res pdf.Value, depth int) {
	xobj := res.Key("XObject").Key(name)
	switch xobj.Key("Subtype").Name() {
	case "Image":
		unit := geom.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}
		w.layer.Images = append(w.layer.Images, Placement{
			Name:    name,
			BBox:    w.g.ctm.ApplyRect(unit),
			XObject: xobj,
		})
	case "Form":
		if depth >= maxFormDepth {
			logger.Debug("textlayer: form nesting too deep, skipping", "name", name, true)
			return
		}
		m := geom.Identity
		if mv := xobj.Key("Matrix"); mv.Kind() == pdf.Array && mv.Len() == 6 {
			for i := 0; i < 6; i++ {
				m[i] = mv.Index(i).Float64()
			}
		}
		formRes := xobj.Key("Resources")
		if formRes.IsNull() {
			formRes = res
		}

		saved, savedStack, savedPath := w.g, w.gstack, w.path
		savedTm, savedTlm := w.tm, w.tlm
		w.g.ctm = m.Mul(w.g.ctm)
		w.gstack, w.path = nil, nil
		w.run(xobj, formRes, depth+1)
		w.g, w.gstack, w.path = saved, savedStack, savedPath
		w.tm, w.tlm = savedTm, savedTlm
	}
}

// fontKey scopes resource names: "F1" in a form may differ from "F1" on
// the page.
func fontKey(scope int, name string) string {
	return name + "#" + strconv.Itoa(scope)
}

func (w *walker) font(res pdf.Value, scope int, name string) *fontInfo {
	key := fontKey(scope, name)
	if f, ok := w.fonts[key]; ok {
		return f
	}
	f := loadFont(res.Key("Font").Key(name))
	w.fonts[key] = f
	return f
}
