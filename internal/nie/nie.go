// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package nie implements the NIE (Naive) image file format, for the
// non-premultiplied BGRA variants only.
//
// NIE is specified at
// https://github.com/google/wuffs/blob/main/doc/spec/nie-spec.md
package nie

import (
	"errors"
	"image"
	"image/color"
)

// Magic is the byte string prefix of every NIE image file.
const Magic = "\x6E\xC3\xAF\x45"

const headerSize = 16

var (
	ErrBadArgument          = errors.New("nie: bad argument")
	ErrNotANIEFile          = errors.New("nie: not a NIE file")
	ErrUnsupportedImageType = errors.New("nie: unsupported image type")
)

// maxPixels bounds Decode's allocation.
const maxPixels = 1 << 28

func header(m image.Image, depth byte) []byte {
	b := m.Bounds()
	ret := make([]byte, 0, headerSize+(int(depth-'0')*b.Dx()*b.Dy()))
	ret = append(ret, Magic...)
	ret = append(ret, 0xFF, 'b', 'n', depth)
	ret = appendU32LE(ret, uint32(b.Dx()))
	ret = appendU32LE(ret, uint32(b.Dy()))
	return ret
}

// EncodeBN4 encodes m as a NIE file in BGRA order, non-premultiplied alpha, 4
// bytes per pixel.
func EncodeBN4(m image.Image) []byte {
	b := m.Bounds()
	ret := header(m, '4')
	if n, ok := m.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, y):][:4*b.Dx()]
			for i := 0; i < len(row); i += 4 {
				ret = append(ret, row[i+2], row[i+1], row[i+0], row[i+3])
			}
		}
		return ret
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			ret = append(ret, c.B, c.G, c.R, c.A)
		}
	}
	return ret
}

// EncodeBN8 encodes m as a NIE file in BGRA order, non-premultiplied alpha, 8
// bytes per pixel (16 bits per channel).
func EncodeBN8(m image.Image) []byte {
	b := m.Bounds()
	ret := header(m, '8')
	if n, ok := m.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, y):][:4*b.Dx()]
			for i := 0; i < len(row); i += 4 {
				ret = append(ret,
					row[i+2], row[i+2],
					row[i+1], row[i+1],
					row[i+0], row[i+0],
					row[i+3], row[i+3],
				)
			}
		}
		return ret
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64)
			ret = append(ret,
				uint8(c.B>>0), uint8(c.B>>8),
				uint8(c.G>>0), uint8(c.G>>8),
				uint8(c.R>>0), uint8(c.R>>8),
				uint8(c.A>>0), uint8(c.A>>8),
			)
		}
	}
	return ret
}

// Decode decodes a "bn4" file as an *image.NRGBA or a "bn8" file as an
// *image.NRGBA64.
func Decode(src []byte) (image.Image, error) {
	if (len(src) < headerSize) || (string(src[:4]) != Magic) ||
		(src[4] != 0xFF) || (src[5] != 'b') || (src[6] != 'n') {
		return nil, ErrNotANIEFile
	}
	w, h := readU32LE(src[8:]), readU32LE(src[12:])
	if (w >= 0x80000000) || (h >= 0x80000000) || (uint64(w)*uint64(h) > maxPixels) {
		return nil, ErrUnsupportedImageType
	}
	pix := src[headerSize:]

	switch src[7] {
	case '4':
		if uint64(len(pix)) != 4*uint64(w)*uint64(h) {
			return nil, ErrNotANIEFile
		}
		m := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
		for i := 0; i < len(pix); i += 4 {
			m.Pix[i+0], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = pix[i+2], pix[i+1], pix[i+0], pix[i+3]
		}
		return m, nil

	case '8':
		if uint64(len(pix)) != 8*uint64(w)*uint64(h) {
			return nil, ErrNotANIEFile
		}
		m := image.NewNRGBA64(image.Rect(0, 0, int(w), int(h)))
		// NRGBA64 stores big-endian R, G, B, A; NIE stores little-endian B,
		// G, R, A.
		for i := 0; i < len(pix); i += 8 {
			m.Pix[i+0], m.Pix[i+1] = pix[i+5], pix[i+4]
			m.Pix[i+2], m.Pix[i+3] = pix[i+3], pix[i+2]
			m.Pix[i+4], m.Pix[i+5] = pix[i+1], pix[i+0]
			m.Pix[i+6], m.Pix[i+7] = pix[i+7], pix[i+6]
		}
		return m, nil
	}
	return nil, ErrUnsupportedImageType
}

func appendU32LE(b []byte, u uint32) []byte {
	return append(b,
		uint8(u>>0),
		uint8(u>>8),
		uint8(u>>16),
		uint8(u>>24),
	)
}

func readU32LE(b []byte) uint32 {
	return (uint32(b[0]) << 0) | (uint32(b[1]) << 8) | (uint32(b[2]) << 16) | (uint32(b[3]) << 24)
}
