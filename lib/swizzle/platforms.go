// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package swizzle

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Unit is the footprint of one stored value: 1×1 for plain pixel encodings
// and the block dimensions (usually 4×4) for block encodings. A block's
// pixels are stored together, row by row.
type Unit struct {
	Width  int
	Height int
}

var (
	PixelUnit = Unit{1, 1}
	BlockUnit = Unit{4, 4}
)

func (u Unit) valid() bool {
	isPow2 := func(n int) bool { return (n > 0) && ((n & (n - 1)) == 0) }
	return isPow2(u.Width) && isPow2(u.Height)
}

func checkUnit(u Unit) error {
	if !u.valid() {
		return fmt.Errorf("%w: swizzle: %dx%d unit", codec.ErrBadArgument, u.Width, u.Height)
	}
	return nil
}

// NewLinear returns the identity Swizzle: pixels stored row by row.
func NewLinear(width int, height int) Swizzle {
	return newTiled(width, height, nil)
}

// NewBlock returns the Swizzle for block encodings stored in raster order of
// blocks, which is how every block encoding's colors come out of Load.
// Footprints need not be powers of two (ASTC has 5×5, 10×6 and so on).
func NewBlock(width int, height int, blockW int, blockH int) (Swizzle, error) {
	u := Unit{blockW, blockH}
	if u.valid() {
		return newTiled(width, height, withUnit(u.Width, u.Height)), nil
	} else if (blockW <= 0) || (blockH <= 0) {
		return nil, checkUnit(u)
	}
	return &blocked{
		w:  roundUp(width, blockW),
		h:  roundUp(height, blockH),
		bw: blockW,
		bh: blockH,
	}, nil
}

// blocked is NewBlock's Swizzle for footprints that a Master cannot express.
type blocked struct {
	w, h   int
	bw, bh int
}

func (b *blocked) Width() int  { return b.w }
func (b *blocked) Height() int { return b.h }

func (b *blocked) Transform(p image.Point) image.Point {
	i := (p.Y * b.w) + p.X
	n, j := i/(b.bw*b.bh), i%(b.bw*b.bh)
	across := b.w / b.bw
	return image.Point{
		X: ((n % across) * b.bw) + (j % b.bw),
		Y: ((n / across) * b.bh) + (j / b.bw),
	}
}

// zOrder returns the weights of an n×n Morton tile, x first.
func zOrder(n int) (ret []image.Point) {
	for i := 1; i < n; i <<= 1 {
		ret = append(ret, image.Point{X: i}, image.Point{Y: i})
	}
	return ret
}

// NewCTR returns the Nintendo 3DS Swizzle: 8×8 Z-order tiles of units. If
// transpose is set, the stored image is rotated: the Swizzle's Width and
// Height are swapped relative to the stored tile grid.
func NewCTR(width int, height int, u Unit, transpose bool) (Swizzle, error) {
	if err := checkUnit(u); err != nil {
		return nil, err
	}
	weights := withUnit(u.Width, u.Height, zOrder(8/max(u.Width, u.Height, 1))...)
	if !transpose {
		return newTiled(width, height, weights), nil
	}

	t := newTiled(height, width, weights)
	return &tiled{m: t.m, w: t.h, h: t.w, transpose: true}, nil
}

// NewWii returns the GameCube and Wii Swizzle for plain pixel encodings.
// Tiles are 32 bytes: 8×8 pixels at 4 bits per pixel, 8×4 at 8, 4×4 at 16
// and 32.
func NewWii(width int, height int, bitsPerPixel int) (Swizzle, error) {
	tileW, tileH := 0, 0
	switch bitsPerPixel {
	case 4:
		tileW, tileH = 8, 8
	case 8:
		tileW, tileH = 8, 4
	case 16, 32:
		tileW, tileH = 4, 4
	default:
		return nil, fmt.Errorf("%w: swizzle: wii: %d bits per pixel", codec.ErrUnsupportedBitDepth, bitsPerPixel)
	}
	return newTiled(width, height, withUnit(tileW, tileH)), nil
}

// NewWiiCMPR returns the GameCube and Wii Swizzle for CMPR (BC1) textures:
// 8×8 tiles of four 4×4 blocks in raster order.
func NewWiiCMPR(width int, height int) Swizzle {
	return newTiled(width, height, withUnit(4, 4, image.Point{X: 1}, image.Point{Y: 1}))
}

// NewNX returns the Nintendo Switch block-linear Swizzle.
//
// A GOB (group of bytes) is 64 bytes across and 8 rows down. Units of
// bytesPerUnit bytes (a pixel or a compressed block) are placed within a GOB
// by interleaving their byte address bits, and blockHeight GOBs are stacked
// vertically to make a tile. blockHeight must be a power of two up to 32.
func NewNX(width int, height int, u Unit, bytesPerUnit int, blockHeight int) (Swizzle, error) {
	if err := checkUnit(u); err != nil {
		return nil, err
	} else if (bits.OnesCount(uint(bytesPerUnit)) != 1) || (bytesPerUnit > 16) {
		return nil, fmt.Errorf("%w: swizzle: nx: %d bytes per unit", codec.ErrBadArgument, bytesPerUnit)
	} else if (bits.OnesCount(uint(blockHeight)) != 1) || (blockHeight > 32) {
		return nil, fmt.Errorf("%w: swizzle: nx: block height %d", codec.ErrBadArgument, blockHeight)
	}

	// The GOB address bits, least significant first, in bytes across and
	// rows down.
	gob := []image.Point{
		{X: 1}, {X: 2}, {X: 4}, {X: 8},
		{Y: 1}, {X: 16}, {Y: 2}, {Y: 4}, {X: 32},
	}
	weights := []image.Point(nil)
	for _, p := range gob {
		if p.X == 0 {
			weights = append(weights, p)
		} else if p.X >= bytesPerUnit {
			weights = append(weights, image.Point{X: p.X / bytesPerUnit})
		}
	}
	for y := 8; y < 8*blockHeight; y <<= 1 {
		weights = append(weights, image.Point{Y: y})
	}
	return newTiled(width, height, withUnit(u.Width, u.Height, weights...)), nil
}

// NewVita returns the PlayStation Vita Swizzle: Z-order over the largest
// square of units that the (power of two) padded image holds, with such
// squares laid along the longer axis.
func NewVita(width int, height int, u Unit) (Swizzle, error) {
	if err := checkUnit(u); err != nil {
		return nil, err
	}
	w := ceilPow2((width + u.Width - 1) / u.Width)
	h := ceilPow2((height + u.Height - 1) / u.Height)
	weights := withUnit(u.Width, u.Height, zOrder(min(w, h))...)
	return newTiled(w*u.Width, h*u.Height, weights), nil
}

// NewPS4 returns the PlayStation 4 Swizzle: 8×8 Z-order tiles of units.
func NewPS4(width int, height int, u Unit) (Swizzle, error) {
	if err := checkUnit(u); err != nil {
		return nil, err
	}
	return newTiled(width, height, withUnit(u.Width, u.Height, zOrder(8)...)), nil
}

func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
