// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedImage is returned for image streams the PDF reader cannot
// decode to raw samples (DCT, JPX, CCITT, JBIG2) or whose colour model is
// not handled here.
var ErrUnsupportedImage = errors.New("unsupported image encoding")

// maxSamples bounds the decoded size of a single image.
const maxSamples = 64 << 20

// encodedFilters are filters whose output is still a compressed image.
var encodedFilters = map[string]bool{
	"DCTDecode":      true,
	"JPXDecode":      true,
	"CCITTFaxDecode": true,
	"JBIG2Decode":    true,
}

// rawImage is an image XObject's decoded sample data.
type rawImage struct {
	Width, Height    int
	BitsPerComponent int
	Components       int
	Data             []byte
}

// DecodeXObject reads an image XObject's samples and encodes them as PNG.
func DecodeXObject(v pdf.Value) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("decode image stream: %v", r)
		}
	}()

	if v.Kind() != pdf.Stream {
		return nil, fmt.Errorf("image is not a stream: %w", ErrUnsupportedImage)
	}
	for _, f := range filters(v) {
		if encodedFilters[f] {
			return nil, fmt.Errorf("filter %s: %w", f, ErrUnsupportedImage)
		}
	}

	img := rawImage{
		Width:            int(v.Key("Width").Int64()),
		Height:           int(v.Key("Height").Int64()),
		BitsPerComponent: int(v.Key("BitsPerComponent").Int64()),
	}
	if v.Key("ImageMask").Kind() == pdf.Bool && v.Key("ImageMask").Bool() {
		img.BitsPerComponent, img.Components = 1, 1
	} else {
		img.Components = components(v.Key("ColorSpace"))
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("image size %dx%d: %w", img.Width, img.Height, ErrUnsupportedImage)
	}
	if img.Components == 0 {
		return nil, fmt.Errorf("colour space %v: %w", v.Key("ColorSpace"), ErrUnsupportedImage)
	}
	if img.Width*img.Height*img.Components > maxSamples {
		return nil, fmt.Errorf("image too large (%dx%d)", img.Width, img.Height)
	}

	img.Data, err = io.ReadAll(io.LimitReader(v.Reader(), maxSamples+1))
	if err != nil {
		return nil, fmt.Errorf("read image stream: %w", err)
	}
	return img.ToPNG()
}

func filters(v pdf.Value) []string {
	f := v.Key("Filter")
	switch f.Kind() {
	case pdf.Name:
		return []string{f.Name()}
	case pdf.Array:
		out := make([]string, 0, f.Len())
		for i := 0; i < f.Len(); i++ {
			out = append(out, f.Index(i).Name())
		}
		return out
	}
	return nil
}

// components returns the number of colour components of a colour space,
// or 0 when it is not one handled here.
func components(cs pdf.Value) int {
	switch cs.Kind() {
	case pdf.Name:
		switch cs.Name() {
		case "DeviceGray", "CalGray", "G":
			return 1
		case "DeviceRGB", "CalRGB", "RGB":
			return 3
		case "DeviceCMYK", "CMYK":
			return 4
		}
	case pdf.Array:
		if cs.Len() == 0 {
			return 0
		}
		switch cs.Index(0).Name() {
		case "ICCBased":
			if n := int(cs.Index(1).Key("N").Int64()); n == 1 || n == 3 || n == 4 {
				return n
			}
		case "CalGray":
			return 1
		case "CalRGB":
			return 3
		}
	case pdf.Null:
		// ColorSpace is optional for masks; treat as gray.
		return 1
	}
	return 0
}

// ToPNG converts the decoded samples to PNG.
func (img rawImage) ToPNG() ([]byte, error) {
	var goImg image.Image
	var err error
	switch img.Components {
	case 1:
		goImg, err = img.toGray()
	case 3:
		goImg, err = img.toRGB()
	case 4:
		goImg, err = img.toCMYK()
	default:
		err = ErrUnsupportedImage
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (img rawImage) need(n int) error {
	if len(img.Data) < n {
		return fmt.Errorf("insufficient image data: got %d, expected %d", len(img.Data), n)
	}
	return nil
}

func (img rawImage) toGray() (*image.Gray, error) {
	g := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	switch img.BitsPerComponent {
	case 8:
		if err := img.need(img.Width * img.Height); err != nil {
			return nil, err
		}
		copy(g.Pix, img.Data)
	case 1, 2, 4:
		bpc := img.BitsPerComponent
		stride := (img.Width*bpc + 7) / 8
		if err := img.need(stride * img.Height); err != nil {
			return nil, err
		}
		maxVal := byte(1<<bpc - 1)
		for y := 0; y < img.Height; y++ {
			row := img.Data[y*stride:]
			for x := 0; x < img.Width; x++ {
				bit := x * bpc
				v := row[bit/8] >> (8 - bpc - bit%8) & maxVal
				g.Pix[y*g.Stride+x] = v * (255 / maxVal)
			}
		}
	default:
		return nil, fmt.Errorf("bits per component %d: %w", img.BitsPerComponent, ErrUnsupportedImage)
	}
	return g, nil
}

func (img rawImage) toRGB() (*image.RGBA, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("bits per component %d for RGB: %w", img.BitsPerComponent, ErrUnsupportedImage)
	}
	if err := img.need(img.Width * img.Height * 3); err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		copy(out.Pix[i*4:i*4+3], img.Data[i*3:i*3+3])
		out.Pix[i*4+3] = 255
	}
	return out, nil
}

func (img rawImage) toCMYK() (*image.RGBA, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("bits per component %d for CMYK: %w", img.BitsPerComponent, ErrUnsupportedImage)
	}
	if err := img.need(img.Width * img.Height * 4); err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		s := img.Data[i*4:]
		r, g, b := color.CMYKToRGB(s[0], s[1], s[2], s[3])
		out.Pix[i*4], out.Pix[i*4+1], out.Pix[i*4+2], out.Pix[i*4+3] = r, g, b, 255
	}
	return out, nil
}
