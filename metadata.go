// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sassoftware/viya-pdf2text/logger"
)

// Meta is the document description merged from the Info dictionary and the
// XMP packet. XMP wins when both carry a field.
type Meta struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`
}

// MetadataFull is Meta plus structural facts about the file. It is what
// Processor.Metadata writes as JSON.
type MetadataFull struct {
	Meta

	PDFVersion              string `json:"pdf:PDFVersion,omitempty"`
	HasXMP                  bool   `json:"pdf:hasXMP"`
	HasCollection           bool   `json:"pdf:hasCollection"`
	Encrypted               bool   `json:"pdf:encrypted"`
	NPages                  int    `json:"xmpTPg:NPages,omitempty"`
	ContainsNonEmbeddedFont bool   `json:"pdf:containsNonEmbeddedFont"`

	AccessPermission AccessPermission `json:"access_permission"`
}

// AccessPermission decodes the /P entry of a Standard Security handler
// (ISO 32000-1 §7.6.3.2). A set bit grants the permission; an unencrypted
// file grants everything.
type AccessPermission struct {
	CanPrint                bool `json:"can_print"`
	CanPrintFaithful        bool `json:"can_print_faithful"`
	CanModify               bool `json:"can_modify"`
	ExtractContent          bool `json:"extract_content"`
	ModifyAnnotations       bool `json:"modify_annotations"`
	FillInForm              bool `json:"fill_in_form"`
	ExtractForAccessibility bool `json:"extract_for_accessibility"`
	AssembleDocument        bool `json:"assemble_document"`
}

// XMP models; only the handful of properties Meta needs.
type xmpPacket struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     struct {
		Descriptions []xmpDescription `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
	} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type xmpDescription struct {
	Title       rdfList `xml:"http://purl.org/dc/elements/1.1/ title"`
	Description rdfList `xml:"http://purl.org/dc/elements/1.1/ description"`
	Creator     rdfList `xml:"http://purl.org/dc/elements/1.1/ creator"`

	Producer string `xml:"http://ns.adobe.com/pdf/1.3/ Producer"`
	Keywords string `xml:"http://ns.adobe.com/pdf/1.3/ Keywords"`

	CreatorTool string `xml:"http://ns.adobe.com/xap/1.0/ CreatorTool"`
	CreateDate  string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate"`
	ModifyDate  string `xml:"http://ns.adobe.com/xap/1.0/ ModifyDate"`
}

type rdfItems struct {
	LI []string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# li"`
}

// rdfList matches rdf:Alt, rdf:Seq and rdf:Bag containers alike, and a bare
// value written without a container.
type rdfList struct {
	Alt  rdfItems `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Alt"`
	Seq  rdfItems `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Seq"`
	Bag  rdfItems `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Bag"`
	Text string   `xml:",chardata"`
}

func (l rdfList) first() string {
	all := append(append(append([]string{}, l.Alt.LI...), l.Seq.LI...), l.Bag.LI...)
	all = append(all, l.Text)
	for _, s := range all {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// xmpFields is what an XMP packet contributes, keyed like Meta.
type xmpFields struct {
	Title, Creator, Subject, Keywords, CreatorTool, Producer, CreateDate, ModifyDate string
}

// prefer returns a if non-empty after trimming, otherwise b.
func prefer(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func infoMeta(r *pdf.Reader) Meta {
	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return Meta{}
	}
	return Meta{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Keywords:     info.Key("Keywords").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: info.Key("CreationDate").Text(),
		ModDate:      info.Key("ModDate").Text(),
	}
}

// xmpStream returns the raw /Root/Metadata packet, or "" when there is none.
func xmpStream(r *pdf.Reader) (xmp string, err error) {
	md := r.Trailer().Key("Root").Key("Metadata")
	if md.Kind() != pdf.Stream {
		return "", nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			xmp, err = "", fmt.Errorf("read XMP stream: %v", rec)
		}
	}()
	rc := md.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseXMP decodes an XMP packet leniently. ok is false when the packet is
// not XML at all.
func parseXMP(x string) (f xmpFields, ok bool) {
	var pkt xmpPacket
	dec := xml.NewDecoder(strings.NewReader(x))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&pkt); err != nil {
		return xmpFields{}, false
	}

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	for _, d := range pkt.RDF.Descriptions {
		set(&f.Title, d.Title.first())
		set(&f.Creator, d.Creator.first())
		set(&f.Subject, d.Description.first())
		set(&f.Keywords, d.Keywords)
		set(&f.Producer, d.Producer)
		set(&f.CreatorTool, d.CreatorTool)
		set(&f.CreateDate, d.CreateDate)
		set(&f.ModifyDate, d.ModifyDate)
	}
	return f, true
}

// scanXMP pulls fields out of a packet the XML decoder rejected by looking
// for the element tags directly.
func scanXMP(xmp string) xmpFields {
	get := func(tags ...string) string {
		for _, t := range tags {
			open, end := "<"+t+">", "</"+t+">"
			i := strings.Index(xmp, open)
			if i < 0 {
				continue
			}
			rest := xmp[i+len(open):]
			if j := strings.Index(rest, end); j >= 0 {
				return strings.TrimSpace(stripXMLTags(rest[:j]))
			}
		}
		return ""
	}
	return xmpFields{
		Title:       get("dc:title", "pdf:Title"),
		Creator:     get("dc:creator", "pdf:Author"),
		Subject:     get("dc:description", "pdf:Subject"),
		Keywords:    get("pdf:Keywords", "xmp:Keywords"),
		CreatorTool: get("xmp:CreatorTool"),
		Producer:    get("pdf:Producer"),
		CreateDate:  get("xmp:CreateDate"),
		ModifyDate:  get("xmp:ModifyDate"),
	}
}

// stripXMLTags removes simple XML tags from a string.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// readMeta merges Info and XMP.
func readMeta(r *pdf.Reader) (Meta, error) {
	info := infoMeta(r)
	x, err := xmpStream(r)
	if err != nil {
		return Meta{}, err
	}

	var xf xmpFields
	if x != "" {
		if got, ok := parseXMP(x); ok {
			xf = got
		} else {
			logger.Debug("metadata: XMP is not well-formed, scanning tags", true)
			xf = scanXMP(x)
		}
	}

	return Meta{
		Title:        prefer(xf.Title, info.Title),
		Author:       prefer(xf.Creator, info.Author),
		Subject:      prefer(xf.Subject, info.Subject),
		Keywords:     prefer(xf.Keywords, info.Keywords),
		Creator:      prefer(xf.CreatorTool, info.Creator),
		Producer:     prefer(xf.Producer, info.Producer),
		CreationDate: prefer(xf.CreateDate, info.CreationDate),
		ModDate:      prefer(xf.ModifyDate, info.ModDate),
	}, nil
}

// headerVersion reads the "%PDF-x.y" header from the first bytes of the file.
func headerVersion(ra io.ReaderAt) string {
	buf := make([]byte, 1024)
	n, _ := ra.ReadAt(buf, 0)
	head := string(buf[:n])
	i := strings.Index(head, "%PDF-")
	if i < 0 {
		return ""
	}
	head = head[i+len("%PDF-"):]
	if j := strings.IndexAny(head, "\r\n"); j >= 0 {
		head = head[:j]
	}
	return strings.TrimSpace(head)
}

func permissions(r *pdf.Reader) AccessPermission {
	enc := r.Trailer().Key("Encrypt")
	if enc.Kind() != pdf.Dict {
		return AccessPermission{true, true, true, true, true, true, true, true}
	}
	p := uint32(enc.Key("P").Int64())
	bit := func(n uint) bool { return p&(1<<(n-1)) != 0 }

	ap := AccessPermission{
		CanPrint:                bit(3),
		CanModify:               bit(4),
		ExtractContent:          bit(5),
		ModifyAnnotations:       bit(6),
		ExtractForAccessibility: bit(10),
		AssembleDocument:        bit(11),
	}
	ap.FillInForm = bit(9) || ap.ModifyAnnotations
	ap.CanPrintFaithful = bit(12) || ap.CanPrint
	return ap
}

// nonEmbeddedFont reports whether any page uses a font without an embedded
// font program.
func nonEmbeddedFont(r *pdf.Reader) bool {
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		fonts := p.Resources().Key("Font")
		if fonts.Kind() != pdf.Dict {
			continue
		}
		for _, name := range fonts.Keys() {
			if !fontEmbedded(fonts.Key(name)) {
				return true
			}
		}
	}
	return false
}

func fontEmbedded(f pdf.Value) bool {
	desc := f.Key("FontDescriptor")
	if f.Key("Subtype").Name() == "Type0" {
		desc = f.Key("DescendantFonts").Index(0).Key("FontDescriptor")
	}
	if desc.Kind() != pdf.Dict {
		return false
	}
	for _, k := range []string{"FontFile", "FontFile2", "FontFile3"} {
		if desc.Key(k).Kind() == pdf.Stream {
			return true
		}
	}
	return false
}

func readMetadataFull(r *pdf.Reader, ra io.ReaderAt) (MetadataFull, error) {
	md, err := readMeta(r)
	if err != nil {
		return MetadataFull{}, err
	}
	root := r.Trailer().Key("Root")
	return MetadataFull{
		Meta:                    md,
		PDFVersion:              headerVersion(ra),
		HasXMP:                  root.Key("Metadata").Kind() == pdf.Stream,
		HasCollection:           !root.Key("Collection").IsNull(),
		Encrypted:               r.Trailer().Key("Encrypt").Kind() == pdf.Dict,
		NPages:                  r.NumPage(),
		ContainsNonEmbeddedFont: nonEmbeddedFont(r),
		AccessPermission:        permissions(r),
	}, nil
}

func writeMetadataJSON(w io.Writer, mf MetadataFull) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(mf)
}
