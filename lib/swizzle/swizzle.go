// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package swizzle maps between the order in which a texture's pixels are
// stored (after decoding) and their positions in the image.
//
// GPUs store textures tiled: in blocks, in Z-order (Morton order) or in
// platform-specific hybrids. All of these are described by a Master: a list
// of bit weights that says how each bit of a pixel's storage index moves the
// pixel right or down within a tile, and a tile stride.
package swizzle

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Swizzle maps the i'th stored pixel to its position in the image.
//
// Width and Height give the padded size: the stored data covers
// Width*Height pixels, which may be more than the image holds. Transform's
// argument is the raster point of i, Point{i % Width, i / Width}. Transform
// is a bijection over [0, Width)×[0, Height).
type Swizzle interface {
	Width() int
	Height() int
	Transform(p image.Point) image.Point
}

// Master is the shared engine behind every Swizzle.
//
// Bit i of a stored index, within a tile, contributes Bits[i] to the point.
// Tiles are laid out left to right, top to bottom, Stride pixels across.
type Master struct {
	bits         []image.Point
	init         image.Point
	tileW, tileH int
	tilesAcross  int
}

// NewMaster returns a Master. Each of the bit weights must move along one
// axis by a power of two, and together they must cover a tile exactly once.
// init is XOR-ed into every point.
func NewMaster(stride int, init image.Point, weights ...image.Point) (*Master, error) {
	xs, ys := 0, 0
	for _, w := range weights {
		switch {
		case (w.Y == 0) && (bits.OnesCount(uint(w.X)) == 1) && ((xs & w.X) == 0):
			xs |= w.X
		case (w.X == 0) && (bits.OnesCount(uint(w.Y)) == 1) && ((ys & w.Y) == 0):
			ys |= w.Y
		default:
			return nil, fmt.Errorf("%w: swizzle: bit weight %v", codec.ErrBadArgument, w)
		}
	}
	if ((xs & (xs + 1)) != 0) || ((ys & (ys + 1)) != 0) {
		return nil, fmt.Errorf("%w: swizzle: bit weights leave gaps", codec.ErrBadArgument)
	} else if stride <= 0 {
		return nil, fmt.Errorf("%w: swizzle: stride %d", codec.ErrBadArgument, stride)
	}

	m := &Master{
		bits:  weights,
		init:  init,
		tileW: xs + 1,
		tileH: ys + 1,
	}
	m.tilesAcross = (stride + m.tileW - 1) / m.tileW
	return m, nil
}

func mustMaster(stride int, weights ...image.Point) *Master {
	m, err := NewMaster(stride, image.Point{}, weights...)
	if err != nil {
		panic(err)
	}
	return m
}

// TileSize returns the tile dimensions, in pixels.
func (m *Master) TileSize() (width int, height int) { return m.tileW, m.tileH }

// Get returns the position of the n'th stored pixel.
func (m *Master) Get(n int) image.Point {
	tile := n >> len(m.bits)
	p := image.Point{
		X: (tile % m.tilesAcross) * m.tileW,
		Y: (tile / m.tilesAcross) * m.tileH,
	}
	for i, b := range m.bits {
		if ((n >> i) & 1) != 0 {
			p.X |= b.X
			p.Y |= b.Y
		}
	}
	p.X ^= m.init.X
	p.Y ^= m.init.Y
	return p
}

// tiled is a Swizzle backed by a Master, optionally transposed.
type tiled struct {
	m         *Master
	w, h      int
	transpose bool
}

func (t *tiled) Width() int  { return t.w }
func (t *tiled) Height() int { return t.h }

func (t *tiled) Transform(p image.Point) image.Point {
	q := t.m.Get((p.Y * t.w) + p.X)
	if t.transpose {
		return image.Point{X: q.Y, Y: q.X}
	}
	return q
}

// newTiled pads width and height to whole tiles of m, which was built with
// the padded width as its stride.
func newTiled(width int, height int, weights []image.Point) *tiled {
	m := mustMaster(1, weights...)
	w, h := roundUp(width, m.tileW), roundUp(height, m.tileH)
	m.tilesAcross = w / m.tileW
	return &tiled{m: m, w: w, h: h}
}

func roundUp(n int, unit int) int {
	return max(unit, ((n + unit - 1) / unit) * unit)
}

// withUnit prefixes weights with the row-major weights of a unitW×unitH unit,
// such as a 4×4 compressed block, and scales weights to match. unitW and
// unitH must be powers of two.
func withUnit(unitW int, unitH int, weights ...image.Point) []image.Point {
	ret := []image.Point(nil)
	for x := 1; x < unitW; x <<= 1 {
		ret = append(ret, image.Point{X: x})
	}
	for y := 1; y < unitH; y <<= 1 {
		ret = append(ret, image.Point{Y: y})
	}
	for _, w := range weights {
		ret = append(ret, image.Point{X: w.X * unitW, Y: w.Y * unitH})
	}
	return ret
}

// ToRaster returns src, which is in stored order, rearranged into raster
// order: ret[(q.Y*Width)+q.X] = src[i] where q is the transform of i's
// raster point. Missing trailing elements of src stay zero.
func ToRaster[T any](s Swizzle, src []T) []T {
	w, h := s.Width(), s.Height()
	ret := make([]T, w*h)
	for i := range min(len(src), w*h) {
		q := s.Transform(image.Point{X: i % w, Y: i / w})
		ret[(q.Y*w)+q.X] = src[i]
	}
	return ret
}

// FromRaster is the inverse of ToRaster. src must hold Width*Height elements.
func FromRaster[T any](s Swizzle, src []T) []T {
	w, h := s.Width(), s.Height()
	ret := make([]T, w*h)
	for i := range ret {
		q := s.Transform(image.Point{X: i % w, Y: i / w})
		ret[i] = src[(q.Y*w)+q.X]
	}
	return ret
}
