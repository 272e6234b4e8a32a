// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares uploaded images for use as Open Graph previews.
// Sources are sniffed, decoded, downscaled to fit the OG frame without
// upscaling, flattened onto white and re-encoded as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Open Graph frame and output settings.
const (
	OGWidth   = 1200
	OGHeight  = 630
	OGQuality = 85
)

// ErrUnsupportedType rejects uploads that are not jpeg, png, gif or webp.
var ErrUnsupportedType = errors.New("unsupported image type")

// allowed maps sniffed MIME types to the formats accepted for upload.
var allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProcessedImage holds an encoded image ready for upload.
type ProcessedImage struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
}

// DetectType sniffs the MIME type of data and reports ErrUnsupportedType for
// anything outside the accepted image formats.
func DetectType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if !allowed[ct] {
		return ct, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, nil
}

// FitSize returns the largest size with the source's aspect ratio that fits
// within maxW x maxH. Sources already inside the frame keep their size.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW against h/maxH without floats.
	if w*maxH >= h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

// PrepareOG validates and converts an upload into a JPEG that fits the Open
// Graph frame.
func PrepareOG(data []byte) (*ProcessedImage, error) {
	if _, err := DetectType(data); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), OGWidth, OGHeight)

	// JPEG has no alpha channel; transparent areas become white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: OGQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	return &ProcessedImage{
		Width:       w,
		Height:      h,
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
	}, nil
}
