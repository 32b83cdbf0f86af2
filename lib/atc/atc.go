// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package atc implements AMD's ATC (ATI Texture Compression) block formats:
// ATC for RGB and two ATCA variants that prepend a BC2 or BC3 style alpha
// block.
//
// An ATC color block is laid out like a BC1 block but its first endpoint is
// 5:5:5 with the top bit selecting the interpolation method.
package atc

import (
	"encoding/binary"
	"image/color"

	"github.com/nigeltao/texcodec/lib/bcn"
	"github.com/nigeltao/texcodec/lib/block"
)

// Format is an ATC block format.
type Format uint8

const (
	FormatInvalid          = Format(0)
	FormatATC              = Format(1)
	FormatATCAExplicit     = Format(2)
	FormatATCAInterpolated = Format(3)
)

func (f Format) String() string {
	switch f {
	case FormatATC:
		return "ATC"
	case FormatATCAExplicit:
		return "ATCA_EXPLICIT"
	case FormatATCAInterpolated:
		return "ATCA_INTERPOLATED"
	}
	return "Invalid"
}

// BytesPerBlock returns the number of bytes per 4×4 block.
func (f Format) BytesPerBlock() int {
	switch f {
	case FormatATC:
		return 8
	case FormatATCAExplicit, FormatATCAInterpolated:
		return 16
	}
	return 0
}

// Transcoder returns the block.Transcoder for f, or nil if f is invalid.
func (f Format) Transcoder() block.Transcoder {
	if f.BytesPerBlock() == 0 {
		return nil
	}
	return transcoder{f}
}

// Encoding returns a codec for f, or nil if f is invalid.
func (f Format) Encoding() *block.Encoding {
	t := f.Transcoder()
	if t == nil {
		return nil
	}
	return block.New(f.String(), t)
}

func ATC() *block.Encoding              { return FormatATC.Encoding() }
func ATCAExplicit() *block.Encoding     { return FormatATCAExplicit.Encoding() }
func ATCAInterpolated() *block.Encoding { return FormatATCAInterpolated.Encoding() }

// ColorBlock is an 8-byte ATC color block.
type ColorBlock struct {
	// Color0 is 5:5:5 in its low 15 bits. Bit 15 selects the interpolation
	// method.
	Color0 uint16
	// Color1 is 5:6:5.
	Color1    uint16
	Selectors uint32
}

func ParseColorBlock(src []byte) ColorBlock {
	return ColorBlock{
		Color0:    binary.LittleEndian.Uint16(src[0:]),
		Color1:    binary.LittleEndian.Uint16(src[2:]),
		Selectors: binary.LittleEndian.Uint32(src[4:]),
	}
}

func (b ColorBlock) Put(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:], b.Color0)
	binary.LittleEndian.PutUint16(dst[2:], b.Color1)
	binary.LittleEndian.PutUint32(dst[4:], b.Selectors)
}

// Palette returns the four colors that the selectors choose from.
//
// Method 0 interpolates: c0, ⅔c0+⅓c1, ⅓c0+⅔c1, c1. Method 1 extrapolates:
// black, c0-¼c1, c0, c1.
func (b ColorBlock) Palette() (p [4]color.NRGBA) {
	c0 := [3]int32{
		expand5(int32(b.Color0>>10) & 0x1F),
		expand5(int32(b.Color0>>5) & 0x1F),
		expand5(int32(b.Color0>>0) & 0x1F),
	}
	r1, g1, b1 := bcn.Unpack565(b.Color1)
	c1 := [3]int32{int32(r1), int32(g1), int32(b1)}

	q := [4][3]int32{}
	if (b.Color0 & 0x8000) == 0 {
		for k := range 3 {
			q[0][k] = c0[k]
			q[1][k] = ((2 * c0[k]) + c1[k] + 1) / 3
			q[2][k] = (c0[k] + (2 * c1[k]) + 1) / 3
			q[3][k] = c1[k]
		}
	} else {
		for k := range 3 {
			q[1][k] = max(0, c0[k]-(c1[k]/4))
			q[2][k] = c0[k]
			q[3][k] = c1[k]
		}
	}
	for i, v := range q {
		p[i] = color.NRGBA{uint8(v[0]), uint8(v[1]), uint8(v[2]), 0xFF}
	}
	return p
}

func (b ColorBlock) Decode(dst []color.NRGBA) {
	p := b.Palette()
	for i := range 16 {
		dst[i] = p[(b.Selectors>>(2*i))&3]
	}
}

// bcnToATCSelectors maps a four-color BC1 selector to the ATC method 0
// selector for the same color.
var bcnToATCSelectors = [4]uint32{0, 3, 1, 2}

// EncodeColorBlock returns a method 0 block for the 16 pixels of src.
func EncodeColorBlock(src []color.NRGBA) ColorBlock {
	c := bcn.EncodeColorBlock(src, bcn.ColorModeFourColor)
	r, g, b := uint16(c.Color0>>11)&0x1F, uint16(c.Color0>>6)&0x1F, uint16(c.Color0)&0x1F
	ret := ColorBlock{
		Color0: (r << 10) | (g << 5) | b,
		Color1: c.Color1,
	}
	for i := range 16 {
		sel := bcnToATCSelectors[c.Selector(i)]
		ret.Selectors |= sel << (2 * i)
	}
	return ret
}

func expand5(v int32) int32 { return (v << 3) | (v >> 2) }

type transcoder struct {
	format Format
}

func (t transcoder) BlockSize() int                     { return t.format.BytesPerBlock() }
func (t transcoder) BlockDims() (width int, height int) { return 4, 4 }

func (t transcoder) DecodeBlock(src []byte, dst []color.NRGBA) {
	alpha := [16]uint8{}
	switch t.format {
	case FormatATC:
		ParseColorBlock(src).Decode(dst)
		return
	case FormatATCAExplicit:
		bcn.ParseExplicitAlpha(src).Decode(&alpha)
	case FormatATCAInterpolated:
		bcn.ParseScalarBlock(src).Decode(&alpha)
	}
	ParseColorBlock(src[8:]).Decode(dst)
	for i, a := range alpha {
		dst[i].A = a
	}
}

func (t transcoder) EncodeBlock(src []color.NRGBA, dst []byte) {
	if t.format == FormatATC {
		EncodeColorBlock(src).Put(dst)
		return
	}

	alpha := [16]uint8{}
	for i := range alpha {
		alpha[i] = src[i].A
	}
	if t.format == FormatATCAExplicit {
		bcn.EncodeExplicitAlpha(&alpha).Put(dst)
	} else {
		bcn.EncodeScalarBlock(&alpha).Put(dst)
	}
	EncodeColorBlock(src).Put(dst[8:])
}
