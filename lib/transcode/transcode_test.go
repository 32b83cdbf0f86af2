// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/nigeltao/texcodec/lib/bcn"
	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/etc"
	"github.com/nigeltao/texcodec/lib/pixel"
	"github.com/nigeltao/texcodec/lib/quant"
	"github.com/nigeltao/texcodec/lib/swizzle"
)

func makeImage(width int, height int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			m.SetNRGBA(x, y, color.NRGBA{
				R: uint8(17 * x),
				G: uint8(13 * y),
				B: uint8(x ^ y),
				A: 0xFF,
			})
		}
	}
	return m
}

func maxDiff(tt *testing.T, got *image.NRGBA, want *image.NRGBA) int {
	if got.Rect != want.Rect {
		tt.Fatalf("bounds: got %v, want %v", got.Rect, want.Rect)
	}
	ret := 0
	for i := range got.Pix {
		d := int(got.Pix[i]) - int(want.Pix[i])
		ret = max(ret, d, -d)
	}
	return ret
}

func must(s swizzle.Swizzle, err error) swizzle.Swizzle {
	if err != nil {
		panic(err)
	}
	return s
}

func TestLosslessRoundTrip(tt *testing.T) {
	src := makeImage(13, 7)
	testCases := []struct {
		name    string
		options *Options
	}{
		{"linear", nil},
		{"ctr", &Options{Swizzle: must(swizzle.NewCTR(13, 7, swizzle.PixelUnit, false))}},
		{"ctr-transpose", &Options{Swizzle: must(swizzle.NewCTR(13, 7, swizzle.PixelUnit, true))}},
		{"wii", &Options{Swizzle: must(swizzle.NewWii(13, 7, 32)), Workers: 3}},
		{"nx", &Options{Swizzle: must(swizzle.NewNX(13, 7, swizzle.PixelUnit, 4, 2))}},
		{"vita", &Options{Swizzle: must(swizzle.NewVita(13, 7, swizzle.PixelUnit)), Workers: 1}},
	}

	for _, tc := range testCases {
		data, err := EncodeColor(src, pixel.RGBA8888(), tc.options)
		if err != nil {
			tt.Errorf("tc=%q: EncodeColor: %v", tc.name, err)
			continue
		}
		got, err := DecodeColor(data, 13, 7, pixel.RGBA8888(), tc.options)
		if err != nil {
			tt.Errorf("tc=%q: DecodeColor: %v", tc.name, err)
			continue
		}
		if d := maxDiff(tt, got, src); d != 0 {
			tt.Errorf("tc=%q: max channel difference: got %d, want 0", tc.name, d)
		}
	}
}

func TestSwizzleMovesPixels(tt *testing.T) {
	src := makeImage(8, 8)
	options := &Options{Swizzle: must(swizzle.NewCTR(8, 8, swizzle.PixelUnit, false))}
	data, err := EncodeColor(src, pixel.RGBA8888(), options)
	if err != nil {
		tt.Fatalf("EncodeColor: %v", err)
	}
	// The third stored pixel of a Z-order tile is (0, 1).
	if got, want := data[8:12], src.Pix[src.PixOffset(0, 1):][:4]; string(got) != string(want) {
		tt.Errorf("stored pixel 2: got % 02x, want % 02x", got, want)
	}
}

func TestBlockRoundTrip(tt *testing.T) {
	src := makeImage(10, 6)
	testCases := []struct {
		enc     codec.ColorEncoding
		options *Options
		maxDiff int
	}{
		{bcn.BC1(), nil, 48},
		{bcn.BC3(), &Options{Workers: 2}, 48},
		{bcn.BC7(), nil, 48},
		{etc.ETC1(nil), nil, 64},
		{bcn.BC1(), &Options{Swizzle: must(swizzle.NewPS4(10, 6, swizzle.BlockUnit))}, 48},
	}

	for _, tc := range testCases {
		data, err := EncodeColor(src, tc.enc, tc.options)
		if err != nil {
			tt.Errorf("tc=%q: EncodeColor: %v", tc.enc.Name(), err)
			continue
		}
		got, err := DecodeColor(data, 10, 6, tc.enc, tc.options)
		if err != nil {
			tt.Errorf("tc=%q: DecodeColor: %v", tc.enc.Name(), err)
			continue
		}
		if d := maxDiff(tt, got, src); d > tc.maxDiff {
			tt.Errorf("tc=%q: max channel difference: got %d, want <= %d", tc.enc.Name(), d, tc.maxDiff)
		}
	}
}

func TestShortData(tt *testing.T) {
	if _, err := DecodeColor(make([]byte, 4*15), 4, 4, pixel.RGBA8888(), nil); !errors.Is(err, codec.ErrBadArgument) {
		tt.Errorf("short: got %v, want %v", err, codec.ErrBadArgument)
	}
	if _, err := DecodeColor(make([]byte, 12), 4, 4, bcn.BC1(), nil); !errors.Is(err, codec.ErrTruncatedBlockData) {
		tt.Errorf("truncated: got %v, want %v", err, codec.ErrTruncatedBlockData)
	}
	if _, err := DecodeColor(nil, 0, 4, pixel.RGBA8888(), nil); !errors.Is(err, codec.ErrBadArgument) {
		tt.Errorf("empty: got %v, want %v", err, codec.ErrBadArgument)
	}
	options := &Options{Swizzle: swizzle.NewLinear(2, 2)}
	if _, err := EncodeColor(makeImage(4, 4), pixel.RGBA8888(), options); !errors.Is(err, codec.ErrBadArgument) {
		tt.Errorf("small swizzle: got %v, want %v", err, codec.ErrBadArgument)
	}
}

func TestIndexedRoundTrip(tt *testing.T) {
	// Five colors fit a 4-bit palette exactly.
	p := []color.NRGBA{
		{0x00, 0x00, 0x00, 0xFF},
		{0xFF, 0x00, 0x00, 0xFF},
		{0x00, 0xFF, 0x00, 0xFF},
		{0x00, 0x00, 0xFF, 0xFF},
		{0xFF, 0xFF, 0xFF, 0xFF},
	}
	src := image.NewNRGBA(image.Rect(0, 0, 9, 5))
	for y := range 5 {
		for x := range 9 {
			src.SetNRGBA(x, y, p[(x+(2*y))%len(p)])
		}
	}

	enc, palEnc := pixel.I4(codec.LowNibbleFirst), pixel.RGBA8888()
	q := &quant.Quantizer{
		ColorCount: 16,
		Generator:  quant.DistinctGenerator{},
		Cache:      quant.NewOctreeCache(quant.CacheOptions{}),
	}
	options := &Options{Swizzle: must(swizzle.NewWii(9, 5, 4))}
	data, palData, err := EncodeIndexed(src, enc, palEnc, q, options)
	if err != nil {
		tt.Fatalf("EncodeIndexed: %v", err)
	}
	if got, want := len(palData), 4*len(p); got != want {
		tt.Errorf("palette bytes: got %d, want %d", got, want)
	}
	got, err := DecodeIndexed(data, palData, 9, 5, enc, palEnc, options)
	if err != nil {
		tt.Fatalf("DecodeIndexed: %v", err)
	}
	if d := maxDiff(tt, got, src); d != 0 {
		tt.Errorf("max channel difference: got %d, want 0", d)
	}

	q.ColorCount = 17
	if _, _, err := EncodeIndexed(src, enc, palEnc, q, nil); !errors.Is(err, codec.ErrInvalidPaletteSize) {
		tt.Errorf("too many colors: got %v, want %v", err, codec.ErrInvalidPaletteSize)
	}
}

func TestNonZeroOrigin(tt *testing.T) {
	src := makeImage(8, 8)
	sub := src.SubImage(image.Rect(2, 2, 6, 6))
	data, err := EncodeColor(sub, pixel.RGBA8888(), nil)
	if err != nil {
		tt.Fatalf("EncodeColor: %v", err)
	}
	got, err := DecodeColor(data, 4, 4, pixel.RGBA8888(), nil)
	if err != nil {
		tt.Fatalf("DecodeColor: %v", err)
	}
	if c, want := got.NRGBAAt(0, 0), src.NRGBAAt(2, 2); c != want {
		tt.Errorf("origin: got %v, want %v", c, want)
	}
}

func TestMipmaps(tt *testing.T) {
	if got, want := MipmapCount(16, 4), 5; got != want {
		tt.Errorf("MipmapCount: got %d, want %d", got, want)
	}

	src := image.NewNRGBA(image.Rect(0, 0, 16, 4))
	for i := range src.Pix {
		src.Pix[i] = 0x80
		if (i & 3) == 3 {
			src.Pix[i] = 0xFF
		}
	}
	levels, err := Mipmaps(src, 0, FilterBilinear)
	if err != nil {
		tt.Fatalf("Mipmaps: %v", err)
	}
	wantSizes := []image.Point{{16, 4}, {8, 2}, {4, 1}, {2, 1}, {1, 1}}
	if len(levels) != len(wantSizes) {
		tt.Fatalf("levels: got %d, want %d", len(levels), len(wantSizes))
	}
	for i, m := range levels {
		if got := m.Rect.Size(); got != wantSizes[i] {
			tt.Errorf("level %d: got %v, want %v", i, got, wantSizes[i])
		}
		// A flat image stays flat.
		if c := m.NRGBAAt(0, 0); (c.R < 0x7E) || (c.R > 0x82) {
			tt.Errorf("level %d: got %v, want about 0x80", i, c)
		}
	}

	if _, err := Mipmaps(src, 6, FilterNearest); !errors.Is(err, codec.ErrBadArgument) {
		tt.Errorf("too many levels: got %v, want %v", err, codec.ErrBadArgument)
	}

	data, err := EncodeMipmaps(src, 3, FilterLanczos, bcn.BC1(), nil)
	if err != nil {
		tt.Fatalf("EncodeMipmaps: %v", err)
	}
	// 16x4, 8x4 and 4x4 after padding to whole blocks.
	for i, want := range []int{4 * 8, 2 * 8, 1 * 8} {
		if got := len(data[i]); got != want {
			tt.Errorf("level %d: got %d bytes, want %d", i, got, want)
		}
	}
}
