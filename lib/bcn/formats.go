// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bcn

import (
	"image/color"

	"github.com/nigeltao/texcodec/lib/block"
	"github.com/nigeltao/texcodec/lib/pixel"
)

// Format is a BCn block format.
type Format uint8

const (
	FormatInvalid = Format(0)
	FormatBC1     = Format(1)
	FormatBC1A    = Format(2)
	FormatBC2     = Format(3)
	FormatBC3     = Format(4)
	FormatBC4     = Format(5)
	FormatBC5     = Format(6)
	FormatBC7     = Format(7)
)

func (f Format) String() string {
	switch f {
	case FormatBC1:
		return "BC1"
	case FormatBC1A:
		return "BC1A"
	case FormatBC2:
		return "BC2"
	case FormatBC3:
		return "BC3"
	case FormatBC4:
		return "BC4"
	case FormatBC5:
		return "BC5"
	case FormatBC7:
		return "BC7"
	}
	return "Invalid"
}

// BytesPerBlock returns the number of bytes per 4x4 block: 8 or 16.
func (f Format) BytesPerBlock() int {
	switch f {
	case FormatBC1, FormatBC1A, FormatBC4:
		return 8
	case FormatBC2, FormatBC3, FormatBC5, FormatBC7:
		return 16
	}
	return 0
}

// Transcoder returns the block.Transcoder for f, or nil if f is invalid.
func (f Format) Transcoder() block.Transcoder {
	switch f {
	case FormatBC1, FormatBC1A, FormatBC2, FormatBC3, FormatBC4, FormatBC5:
		return transcoder{f}
	case FormatBC7:
		return bc7Transcoder{}
	}
	return nil
}

// Encoding returns a codec for f, or nil if f is invalid.
func (f Format) Encoding() *block.Encoding {
	t := f.Transcoder()
	if t == nil {
		return nil
	}
	return block.New(f.String(), t)
}

func BC1() *block.Encoding  { return FormatBC1.Encoding() }
func BC1A() *block.Encoding { return FormatBC1A.Encoding() }
func BC2() *block.Encoding  { return FormatBC2.Encoding() }
func BC3() *block.Encoding  { return FormatBC3.Encoding() }
func BC4() *block.Encoding  { return FormatBC4.Encoding() }
func BC5() *block.Encoding  { return FormatBC5.Encoding() }
func BC7() *block.Encoding  { return FormatBC7.Encoding() }

type transcoder struct {
	format Format
}

func (t transcoder) BlockSize() int                     { return t.format.BytesPerBlock() }
func (t transcoder) BlockDims() (width int, height int) { return 4, 4 }

func (t transcoder) DecodeBlock(src []byte, dst []color.NRGBA) {
	alpha := [16]uint8{}
	switch t.format {
	case FormatBC1:
		ParseColorBlock(src).Decode(dst, false, false)
		return

	case FormatBC1A:
		ParseColorBlock(src).Decode(dst, false, true)
		return

	case FormatBC2:
		ParseExplicitAlpha(src).Decode(&alpha)
		ParseColorBlock(src[8:]).Decode(dst, true, false)

	case FormatBC3:
		ParseScalarBlock(src).Decode(&alpha)
		ParseColorBlock(src[8:]).Decode(dst, true, false)

	case FormatBC4:
		ParseScalarBlock(src).Decode(&alpha)
		for i, v := range alpha {
			dst[i] = color.NRGBA{v, v, v, 0xFF}
		}
		return

	case FormatBC5:
		green := [16]uint8{}
		ParseScalarBlock(src).Decode(&alpha)
		ParseScalarBlock(src[8:]).Decode(&green)
		for i := range alpha {
			dst[i] = color.NRGBA{alpha[i], green[i], 0x00, 0xFF}
		}
		return
	}

	for i, a := range alpha {
		dst[i].A = a
	}
}

func (t transcoder) EncodeBlock(src []color.NRGBA, dst []byte) {
	values := [16]uint8{}
	switch t.format {
	case FormatBC1:
		EncodeColorBlock(src, ColorModeOpaque).Put(dst)

	case FormatBC1A:
		EncodeColorBlock(src, ColorModePunchThrough).Put(dst)

	case FormatBC2:
		for i := range values {
			values[i] = src[i].A
		}
		EncodeExplicitAlpha(&values).Put(dst)
		EncodeColorBlock(src, ColorModeFourColor).Put(dst[8:])

	case FormatBC3:
		for i := range values {
			values[i] = src[i].A
		}
		EncodeScalarBlock(&values).Put(dst)
		EncodeColorBlock(src, ColorModeFourColor).Put(dst[8:])

	case FormatBC4:
		for i := range values {
			values[i] = pixel.Luminance(src[i])
		}
		EncodeScalarBlock(&values).Put(dst)

	case FormatBC5:
		for i := range values {
			values[i] = src[i].R
		}
		EncodeScalarBlock(&values).Put(dst)
		for i := range values {
			values[i] = src[i].G
		}
		EncodeScalarBlock(&values).Put(dst[8:])
	}
}
