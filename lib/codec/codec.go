// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package codec defines the contracts shared by every texture encoding: the
// color and index codec interfaces, the byte, bit and nibble order settings,
// the error values and the Definition registry that maps integer format ids
// to codecs.
//
// The interchange color type is the standard library's color.NRGBA: 8 bits
// per channel, non-premultiplied alpha. Every codec converts raw bytes to and
// from slices of it.
package codec

import (
	"errors"
	"image/color"
)

var (
	ErrBadArgument            = errors.New("codec: bad argument")
	ErrCodecUnavailable       = errors.New("codec: codec unavailable")
	ErrInvalidPaletteSize     = errors.New("codec: invalid palette size")
	ErrPaletteIndexOutOfRange = errors.New("codec: palette index out of range")
	ErrTruncatedBlockData     = errors.New("codec: truncated block data")
	ErrUnsupportedBitDepth    = errors.New("codec: unsupported bit depth")
	ErrUnsupportedFormat      = errors.New("codec: unsupported format")
)

// ColorEncoding converts between raw bytes and colors.
//
// Load decodes all of src. Save encodes all of colors. For block encodings
// the colors are in block order: ColorsPerValue consecutive colors fill one
// block footprint row by row.
//
// The workers argument bounds the number of goroutines used. Zero or
// negative means runtime.GOMAXPROCS(0). The result never depends on it.
type ColorEncoding interface {
	Name() string

	// BitsPerValue is the number of bits in one stored unit: one pixel for
	// plain encodings, one whole block for block encodings.
	BitsPerValue() int

	// ColorsPerValue is 1 for plain encodings and the block footprint area
	// (usually 16) for block encodings.
	ColorsPerValue() int

	Load(src []byte, workers int) ([]color.NRGBA, error)
	Save(colors []color.NRGBA, workers int) ([]byte, error)
}

// IndexEncoding converts between raw bytes and palette indexes.
type IndexEncoding interface {
	Name() string
	BitsPerValue() int

	// MaxColors is the largest palette the encoding can address.
	MaxColors() int

	Load(src []byte, palette []color.NRGBA, workers int) ([]color.NRGBA, error)
	Save(indexes []int, palette []color.NRGBA, workers int) ([]byte, error)
}

// BlockEncoding is implemented by ColorEncodings whose values cover a
// rectangular footprint of more than one pixel.
type BlockEncoding interface {
	ColorEncoding
	BlockDims() (width int, height int)
}

// ByteOrder is the order of bytes within a multi-byte value.
type ByteOrder uint8

const (
	LittleEndian = ByteOrder(0)
	BigEndian    = ByteOrder(1)
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// BitOrder is the order of sub-byte values (1 or 2 bits wide) within a byte.
type BitOrder uint8

const (
	// MSBFirst places the first value in the most significant bits.
	MSBFirst = BitOrder(0)
	// LSBFirst places the first value in the least significant bits.
	LSBFirst = BitOrder(1)
)

// NibbleOrder is the order of 4-bit values within a byte.
type NibbleOrder uint8

const (
	LowNibbleFirst  = NibbleOrder(0)
	HighNibbleFirst = NibbleOrder(1)
)
