// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package transcode converts between images and encoded texture data.
//
// It strings together the pieces of the other packages: a color or index
// encoding, a swizzle that places the decoded colors in the image and, when
// encoding to an indexed format, a quantizer.
package transcode

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/quant"
	"github.com/nigeltao/texcodec/lib/swizzle"
)

// Options configure a transcode. A nil *Options is valid and means default
// options.
type Options struct {
	// Swizzle places stored colors in the image. It must be built for the
	// image's width and height. Nil means raster order of blocks for block
	// encodings and plain raster order otherwise.
	Swizzle swizzle.Swizzle

	// Workers bounds the goroutines used. Zero or negative means
	// runtime.GOMAXPROCS(0).
	Workers int
}

func (o *Options) workers() int {
	if o == nil {
		return 0
	}
	return o.Workers
}

func (o *Options) swizzle(width int, height int, blockW int, blockH int) (swizzle.Swizzle, error) {
	if (o != nil) && (o.Swizzle != nil) {
		if (o.Swizzle.Width() < width) || (o.Swizzle.Height() < height) {
			return nil, fmt.Errorf("%w: transcode: %dx%d swizzle for a %dx%d image",
				codec.ErrBadArgument, o.Swizzle.Width(), o.Swizzle.Height(), width, height)
		}
		return o.Swizzle, nil
	} else if (blockW > 1) || (blockH > 1) {
		return swizzle.NewBlock(width, height, blockW, blockH)
	}
	return swizzle.NewLinear(width, height), nil
}

func blockDims(e codec.ColorEncoding) (int, int) {
	if b, ok := e.(codec.BlockEncoding); ok {
		return b.BlockDims()
	}
	return 1, 1
}

func checkSize(width int, height int) error {
	if (width <= 0) || (height <= 0) {
		return fmt.Errorf("%w: transcode: %dx%d image", codec.ErrBadArgument, width, height)
	}
	return nil
}

// DecodeColor decodes a width×height image.
func DecodeColor(data []byte, width int, height int, enc codec.ColorEncoding, options *Options) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	bw, bh := blockDims(enc)
	s, err := options.swizzle(width, height, bw, bh)
	if err != nil {
		return nil, err
	}
	colors, err := enc.Load(data, options.workers())
	if err != nil {
		return nil, err
	}
	return crop(s, colors, width, height)
}

// DecodeIndexed decodes a width×height image whose palette is encoded
// separately, in paletteData.
func DecodeIndexed(data []byte, paletteData []byte, width int, height int,
	enc codec.IndexEncoding, paletteEnc codec.ColorEncoding, options *Options) (*image.NRGBA, error) {

	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	s, err := options.swizzle(width, height, 1, 1)
	if err != nil {
		return nil, err
	}
	palette, err := paletteEnc.Load(paletteData, options.workers())
	if err != nil {
		return nil, err
	} else if len(palette) > enc.MaxColors() {
		palette = palette[:enc.MaxColors()]
	}
	colors, err := enc.Load(data, palette, options.workers())
	if err != nil {
		return nil, err
	}
	return crop(s, colors, width, height)
}

// crop places stored colors and cuts the width×height image out of the
// padded result. The colors must cover the whole padded area.
func crop(s swizzle.Swizzle, colors []color.NRGBA, width int, height int) (*image.NRGBA, error) {
	sw, sh := s.Width(), s.Height()
	if len(colors) < sw*sh {
		return nil, fmt.Errorf("%w: transcode: %d colors for a %dx%d swizzle",
			codec.ErrBadArgument, len(colors), sw, sh)
	}
	raster := swizzle.ToRaster(s, colors)
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		row := m.Pix[y*m.Stride:]
		for x, c := range raster[y*sw : (y*sw)+width] {
			row[(4*x)+0] = c.R
			row[(4*x)+1] = c.G
			row[(4*x)+2] = c.B
			row[(4*x)+3] = c.A
		}
	}
	return m, nil
}

// NRGBA returns src as an *image.NRGBA whose bounds start at (0, 0),
// converting it if need be.
func NRGBA(src image.Image) *image.NRGBA {
	if m, ok := src.(*image.NRGBA); ok && (m.Rect.Min == image.Point{}) {
		return m
	}
	b := src.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)
	return m
}

// pad returns m's colors in raster order, extended to sw×sh by repeating the
// last column and row.
func pad(m *image.NRGBA, sw int, sh int) []color.NRGBA {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	ret := make([]color.NRGBA, sw*sh)
	for y := range sh {
		row := m.Pix[min(y, h-1)*m.Stride:]
		for x := range sw {
			i := 4 * min(x, w-1)
			ret[(y*sw)+x] = color.NRGBA{row[i+0], row[i+1], row[i+2], row[i+3]}
		}
	}
	return ret
}

// EncodeColor encodes src. The image is padded to the swizzle's size by
// repeating its edges.
func EncodeColor(src image.Image, enc codec.ColorEncoding, options *Options) ([]byte, error) {
	m := NRGBA(src)
	width, height := m.Rect.Dx(), m.Rect.Dy()
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	bw, bh := blockDims(enc)
	s, err := options.swizzle(width, height, bw, bh)
	if err != nil {
		return nil, err
	}
	stored := swizzle.FromRaster(s, pad(m, s.Width(), s.Height()))
	return enc.Save(stored, options.workers())
}

// EncodeIndexed quantizes src with q and encodes the indexes and the
// palette. A nil q means a quant.Quantizer with the encoding's MaxColors and
// default pieces.
func EncodeIndexed(src image.Image, enc codec.IndexEncoding, paletteEnc codec.ColorEncoding,
	q *quant.Quantizer, options *Options) (data []byte, paletteData []byte, err error) {

	if q == nil {
		q = &quant.Quantizer{ColorCount: enc.MaxColors()}
	} else if q.ColorCount > enc.MaxColors() {
		return nil, nil, fmt.Errorf("%w: transcode: %d colors for %s",
			codec.ErrInvalidPaletteSize, q.ColorCount, enc.Name())
	}

	m := NRGBA(src)
	width, height := m.Rect.Dx(), m.Rect.Dy()
	if err := checkSize(width, height); err != nil {
		return nil, nil, err
	}
	s, err := options.swizzle(width, height, 1, 1)
	if err != nil {
		return nil, nil, err
	}

	sw, sh := s.Width(), s.Height()
	indexes, palette, err := q.Process(pad(m, sw, sh), sw, sh, options.workers())
	if err != nil {
		return nil, nil, err
	}
	data, err = enc.Save(swizzle.FromRaster(s, indexes), palette, options.workers())
	if err != nil {
		return nil, nil, err
	}
	paletteData, err = paletteEnc.Save(palette, options.workers())
	if err != nil {
		return nil, nil, err
	}
	return data, paletteData, nil
}
