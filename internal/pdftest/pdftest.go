// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdftest writes small, valid PDF files for tests. Every page gets a
// Helvetica font named /F1 with WinAnsiEncoding and 500-unit glyph widths,
// so a 10pt string advances 5pt per character.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// Image is a DeviceGray image XObject.
type Image struct {
	Name   string // resource name without the slash, e.g. "Im1"
	Width  int
	Height int
	Pixels []byte // Width*Height bytes, 8 bits per component

	// Filter, when set, is written as the stream's /Filter with Pixels as
	// the (possibly bogus) encoded payload.
	Filter string
}

// Form is a Form XObject whose content uses the page's font.
type Form struct {
	Name    string
	Matrix  [6]float64 // zero value means identity
	Content string
}

// Page describes one page.
type Page struct {
	MediaBox [4]float64 // zero value means US Letter
	Rotate   int
	Content  string
	Images   []Image
	Forms    []Form

	// ContentFilter, when set, is declared as the content stream's /Filter
	// without encoding Content, which makes the page unreadable.
	ContentFilter string
}

// Doc describes a whole document.
type Doc struct {
	Pages []Page
	Info  map[string]string // Info dictionary string entries
	XMP   string            // optional metadata stream
}

type writer struct {
	objs [][]byte
}

func (w *writer) reserve() int {
	w.objs = append(w.objs, nil)
	return len(w.objs)
}

func (w *writer) set(id int, body string) {
	w.objs[id-1] = []byte(body)
}

func (w *writer) add(body string) int {
	id := w.reserve()
	w.set(id, body)
	return id
}

func (w *writer) addStream(dict string, data []byte) int {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<< %s /Length %d >>\nstream\n", dict, len(data))
	b.Write(data)
	b.WriteString("\nendstream")
	id := w.reserve()
	w.objs[id-1] = b.Bytes()
	return id
}

// Bytes renders d as a PDF file.
func (d Doc) Bytes() []byte {
	w := &writer{}
	catalog := w.reserve()
	pages := w.reserve()

	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))
	font := w.add(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths))

	kids := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		xobjs := map[string]int{}
		for _, im := range p.Images {
			dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8", im.Width, im.Height)
			if im.Filter != "" {
				dict += " /Filter /" + im.Filter
			}
			xobjs[im.Name] = w.addStream(dict, im.Pixels)
		}
		for _, f := range p.Forms {
			m := f.Matrix
			if m == ([6]float64{}) {
				m = [6]float64{1, 0, 0, 1, 0, 0}
			}
			dict := fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [-10000 -10000 10000 10000] /Matrix [%s] /Resources << /Font << /F1 %d 0 R >> >>",
				floats(m[:]), font)
			xobjs[f.Name] = w.addStream(dict, []byte(f.Content))
		}

		cdict := ""
		if p.ContentFilter != "" {
			cdict = "/Filter /" + p.ContentFilter
		}
		content := w.addStream(cdict, []byte(p.Content))
		box := p.MediaBox
		if box == ([4]float64{}) {
			box = [4]float64{0, 0, 612, 792}
		}
		res := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if len(xobjs) > 0 {
			names := make([]string, 0, len(xobjs))
			for n := range xobjs {
				names = append(names, n)
			}
			sort.Strings(names)
			var xb strings.Builder
			for _, n := range names {
				fmt.Fprintf(&xb, " /%s %d 0 R", n, xobjs[n])
			}
			res += " /XObject <<" + xb.String() + " >>"
		}
		rotate := ""
		if p.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		page := w.add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [%s]%s /Resources << %s >> /Contents %d 0 R >>",
			pages, floats(box[:]), rotate, res, content))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	w.set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))

	cat := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pages)
	if d.XMP != "" {
		meta := w.addStream("/Type /Metadata /Subtype /XML", []byte(d.XMP))
		cat += fmt.Sprintf(" /Metadata %d 0 R", meta)
	}
	w.set(catalog, cat+" >>")

	info := 0
	if len(d.Info) > 0 {
		keys := make([]string, 0, len(d.Info))
		for k := range d.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var ib strings.Builder
		ib.WriteString("<<")
		for _, k := range keys {
			fmt.Fprintf(&ib, " /%s (%s)", k, Escape(d.Info[k]))
		}
		ib.WriteString(" >>")
		info = w.add(ib.String())
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(w.objs))
	for i, body := range w.objs {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(body)
		out.WriteString("\nendobj\n")
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(w.objs)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R", len(w.objs)+1, catalog)
	if info != 0 {
		fmt.Fprintf(&out, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&out, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return out.Bytes()
}

// Write stores d under t's temp dir and returns the file path.
func Write(t testing.TB, d Doc) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, d.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

// Text returns a content-stream snippet that draws s at (x, y) in 10pt
// Helvetica.
func Text(x, y float64, s string) string {
	return fmt.Sprintf("BT /F1 10 Tf %s %s Td (%s) Tj ET\n", num(x), num(y), Escape(s))
}

// Rect returns a stroked rectangle.
func Rect(x, y, w, h float64) string {
	return fmt.Sprintf("%s %s %s %s re S\n", num(x), num(y), num(w), num(h))
}

// Line returns a stroked line segment.
func Line(x0, y0, x1, y1 float64) string {
	return fmt.Sprintf("%s %s m %s %s l S\n", num(x0), num(y0), num(x1), num(y1))
}

// Grid returns the ruling lines of a table whose column edges are xs and
// row edges are ys (both ascending, in user space).
func Grid(xs, ys []float64) string {
	var b strings.Builder
	for _, x := range xs {
		b.WriteString(Line(x, ys[0], x, ys[len(ys)-1]))
	}
	for _, y := range ys {
		b.WriteString(Line(xs[0], y, xs[len(xs)-1], y))
	}
	return b.String()
}

// FilledRect returns a black filled rectangle.
func FilledRect(x, y, w, h float64) string {
	return fmt.Sprintf("0 g %s %s %s %s re f\n", num(x), num(y), num(w), num(h))
}

// WhiteRect returns a white filled rectangle, the usual page background.
func WhiteRect(x, y, w, h float64) string {
	return fmt.Sprintf("1 g %s %s %s %s re f\n", num(x), num(y), num(w), num(h))
}

// PlaceImage paints the named image XObject into the given rectangle.
func PlaceImage(name string, x, y, w, h float64) string {
	return fmt.Sprintf("q %s 0 0 %s %s %s cm /%s Do Q\n", num(w), num(h), num(x), num(y), name)
}

// Escape backslash-escapes a PDF literal string.
func Escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func floats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = num(f)
	}
	return strings.Join(parts, " ")
}
