// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf2text

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalization selects the Unicode form applied to extracted text.
type Normalization string

const (
	NormNone Normalization = "none"
	NormNFC  Normalization = "nfc"
	// NormNFKC also folds compatibility characters, so "ﬁ" ligatures and
	// full-width digits come out as plain letters.
	NormNFKC Normalization = "nfkc"
)

// Normalize applies form n to s and drops characters that never belong in
// a text file: C0 controls other than tab and newline, DEL, the byte order
// mark and the replacement character.
func Normalize(s string, n Normalization) string {
	switch n {
	case NormNFC:
		s = norm.NFC.String(s)
	case NormNFKC:
		s = norm.NFKC.String(s)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r < 0x20, r == 0x7f, r == '\ufeff', r == '\ufffd':
			return -1
		}
		return r
	}, s)
}

// normalizeBlocks rewrites the text of every block in place.
func normalizeBlocks(blocks []ContentBlock, n Normalization) {
	for i, b := range blocks {
		switch b := b.(type) {
		case TextBlock:
			b.Text = Normalize(b.Text, n)
			blocks[i] = b
		case TableBlock:
			rows := make([][]string, len(b.Rows))
			for r, row := range b.Rows {
				cells := make([]string, len(row))
				for c, cell := range row {
					cells[c] = Normalize(cell, n)
				}
				rows[r] = cells
			}
			b.Rows = rows
			blocks[i] = b
		case ImageBlock:
			b.OCRText = Normalize(b.OCRText, n)
			blocks[i] = b
		}
	}
}
