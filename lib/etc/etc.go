// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package etc implements the ETC1 (Ericsson Texture Compression, version 1)
// block format and its ETC1A4 variant, used by the Nintendo 3DS, which
// prepends sixteen explicit 4-bit alpha values to every color block.
//
// An ETC1 block is a 64-bit value covering 4×4 pixels. It is conventionally
// stored big-endian (as in .pkm files) but the 3DS stores it little-endian.
//
// ETC1 is specified at
// https://registry.khronos.org/DataFormat/specs/1.3/dataformat.1.3.html#ETC1
package etc

import (
	"encoding/binary"
	"image/color"

	"github.com/nigeltao/texcodec/lib/block"
	"github.com/nigeltao/texcodec/lib/codec"
)

// Options are optional arguments to the Encoding constructors.
//
// A nil *Options means big-endian blocks.
type Options struct {
	// ByteOrder is the order of the eight bytes of each 64-bit value: the
	// color block and, for ETC1A4, the alpha block.
	ByteOrder codec.ByteOrder
}

func (o *Options) byteOrder() binary.ByteOrder {
	if (o != nil) && (o.ByteOrder == codec.LittleEndian) {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Format is an ETC1 family block format.
type Format uint8

const (
	FormatInvalid = Format(0)
	FormatETC1    = Format(1)
	FormatETC1A4  = Format(2)
)

func (f Format) String() string {
	switch f {
	case FormatETC1:
		return "ETC1"
	case FormatETC1A4:
		return "ETC1A4"
	}
	return "Invalid"
}

// BytesPerBlock returns the number of bytes per 4×4 block.
func (f Format) BytesPerBlock() int {
	switch f {
	case FormatETC1:
		return 8
	case FormatETC1A4:
		return 16
	}
	return 0
}

// Transcoder returns the block.Transcoder for f, or nil if f is invalid.
func (f Format) Transcoder(options *Options) block.Transcoder {
	if f.BytesPerBlock() == 0 {
		return nil
	}
	return transcoder{format: f, order: options.byteOrder()}
}

// ETC1 returns the opaque ETC1 codec. Decoded alpha is always 0xFF and
// encoding ignores alpha.
func ETC1(options *Options) *block.Encoding {
	return block.New(FormatETC1.String(), FormatETC1.Transcoder(options))
}

// ETC1A4 returns the ETC1 codec with explicit 4-bit alpha.
func ETC1A4(options *Options) *block.Encoding {
	return block.New(FormatETC1A4.String(), FormatETC1A4.Transcoder(options))
}

type transcoder struct {
	format Format
	order  binary.ByteOrder
}

func (t transcoder) BlockSize() int                     { return t.format.BytesPerBlock() }
func (t transcoder) BlockDims() (width int, height int) { return 4, 4 }

func (t transcoder) DecodeBlock(src []byte, dst []color.NRGBA) {
	if t.format == FormatETC1A4 {
		alpha := t.order.Uint64(src)
		decodeColor(dst, t.order.Uint64(src[8:]))
		for x := range 4 {
			for y := range 4 {
				nibble := uint8(alpha>>(4*((4*x)+y))) & 0x0F
				dst[(4*y)+x].A = 0x11 * nibble
			}
		}
		return
	}
	decodeColor(dst, t.order.Uint64(src))
}

func (t transcoder) EncodeBlock(src []color.NRGBA, dst []byte) {
	e := encoder{}
	for i, c := range src[:16] {
		e.pixels[(4*i)+0] = c.R
		e.pixels[(4*i)+1] = c.G
		e.pixels[(4*i)+2] = c.B
		e.pixels[(4*i)+3] = 0xFF
	}

	if t.format == FormatETC1A4 {
		alpha := uint64(0)
		for x := range 4 {
			for y := range 4 {
				a := uint64(src[(4*y)+x].A)
				alpha |= (((a * 15) + 127) / 255) << (4 * ((4 * x) + y))
			}
		}
		t.order.PutUint64(dst, alpha)
		dst = dst[8:]
	}
	t.order.PutUint64(dst, e.encode())
}
