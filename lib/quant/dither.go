// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package quant

import (
	"fmt"
	"image/color"
	"runtime"
	"sync/atomic"

	"github.com/nigeltao/texcodec/internal/parallel"
	"github.com/nigeltao/texcodec/lib/codec"
)

// Ditherer turns width×height colors, in raster order, into indexes of the
// palette already cached by cache.
//
// Ditherers are values with no state of their own: whatever one pass needs
// is allocated by that Dither call, so one Ditherer may serve many images,
// even concurrently. The output never depends on workers.
type Ditherer interface {
	Dither(colors []color.NRGBA, width int, height int, cache ColorCache, workers int) ([]int, error)
}

func checkDither(colors []color.NRGBA, width int, height int, cache ColorCache) error {
	if (width < 0) || (height < 0) || (len(colors) != width*height) {
		return fmt.Errorf("%w: %d colors for %dx%d", codec.ErrBadArgument, len(colors), width, height)
	} else if (cache == nil) || (len(cache.Palette()) == 0) {
		return fmt.Errorf("%w: no cached palette", codec.ErrInvalidPaletteSize)
	}
	return nil
}

func lookup(cache ColorCache, c color.NRGBA) (int, error) {
	i := cache.GetPaletteIndex(c)
	if i < 0 {
		return 0, fmt.Errorf("%w: no cached palette", codec.ErrInvalidPaletteSize)
	}
	return i, nil
}

// NoDither maps every color to its nearest entry.
type NoDither struct{}

func (NoDither) Dither(colors []color.NRGBA, width int, height int, cache ColorCache, workers int) ([]int, error) {
	if err := checkDither(colors, width, height, cache); err != nil {
		return nil, err
	}
	return parallel.Map(len(colors), workers, func(i int) (int, error) {
		return lookup(cache, colors[i])
	})
}

// Kernel is an error diffusion matrix. Matrix[0] is the current row, whose
// entries at or left of XOffset must be zero; later rows are below it. Column
// XOffset is the current pixel's column. Weights are divided by Divisor.
type Kernel struct {
	Name    string
	Matrix  [][]int32
	XOffset int
	Divisor int32
}

var (
	FloydSteinberg = Kernel{
		Name: "FloydSteinberg",
		Matrix: [][]int32{
			{0, 0, 7},
			{3, 5, 1},
		},
		XOffset: 1,
		Divisor: 16,
	}
	Atkinson = Kernel{
		Name: "Atkinson",
		Matrix: [][]int32{
			{0, 0, 1, 1},
			{1, 1, 1, 0},
			{0, 1, 0, 0},
		},
		XOffset: 1,
		Divisor: 8,
	}
	Burkes = Kernel{
		Name: "Burkes",
		Matrix: [][]int32{
			{0, 0, 0, 8, 4},
			{2, 4, 8, 4, 2},
		},
		XOffset: 2,
		Divisor: 32,
	}
	JarvisJudiceNinke = Kernel{
		Name: "JarvisJudiceNinke",
		Matrix: [][]int32{
			{0, 0, 0, 7, 5},
			{3, 5, 7, 5, 3},
			{1, 3, 5, 3, 1},
		},
		XOffset: 2,
		Divisor: 48,
	}
	Stucki = Kernel{
		Name: "Stucki",
		Matrix: [][]int32{
			{0, 0, 0, 8, 4},
			{2, 4, 8, 4, 2},
			{1, 2, 4, 2, 1},
		},
		XOffset: 2,
		Divisor: 42,
	}
	Sierra = Kernel{
		Name: "Sierra",
		Matrix: [][]int32{
			{0, 0, 0, 5, 3},
			{2, 4, 5, 4, 2},
			{0, 2, 3, 2, 0},
		},
		XOffset: 2,
		Divisor: 32,
	}
	TwoRowSierra = Kernel{
		Name: "TwoRowSierra",
		Matrix: [][]int32{
			{0, 0, 0, 4, 3},
			{1, 2, 3, 2, 1},
		},
		XOffset: 2,
		Divisor: 16,
	}
	SierraLite = Kernel{
		Name: "SierraLite",
		Matrix: [][]int32{
			{0, 0, 2},
			{1, 1, 0},
		},
		XOffset: 1,
		Divisor: 4,
	}
	ShiauFan = Kernel{
		Name: "ShiauFan",
		Matrix: [][]int32{
			{0, 0, 0, 4},
			{1, 1, 2, 0},
		},
		XOffset: 2,
		Divisor: 8,
	}
	ShiauFan2 = Kernel{
		Name: "ShiauFan2",
		Matrix: [][]int32{
			{0, 0, 0, 0, 8},
			{1, 1, 2, 4, 0},
		},
		XOffset: 3,
		Divisor: 16,
	}
)

// Kernels lists the built in kernels, by name.
var Kernels = map[string]Kernel{
	FloydSteinberg.Name:    FloydSteinberg,
	Atkinson.Name:          Atkinson,
	Burkes.Name:            Burkes,
	JarvisJudiceNinke.Name: JarvisJudiceNinke,
	Stucki.Name:            Stucki,
	Sierra.Name:            Sierra,
	TwoRowSierra.Name:      TwoRowSierra,
	SierraLite.Name:        SierraLite,
	ShiauFan.Name:          ShiauFan,
	ShiauFan2.Name:         ShiauFan2,
}

// ErrorDiffusion spreads each pixel's quantization error over its not yet
// visited neighbors, weighted by Kernel. Red, green and blue diffuse; alpha
// is quantized as is.
//
// Rows run as separate tasks. Row y visits pixel x only once row y-1 has
// finished pixel x+XOffset, the rightmost pixel above that feeds it. Every
// contribution to a pixel is therefore in place before it is read, and
// integer sums make the order of contributions irrelevant.
type ErrorDiffusion struct {
	Kernel Kernel
}

func (d ErrorDiffusion) Dither(colors []color.NRGBA, width int, height int, cache ColorCache, workers int) ([]int, error) {
	if err := checkDither(colors, width, height, cache); err != nil {
		return nil, err
	}
	k := d.Kernel
	if (len(k.Matrix) == 0) || (k.Divisor <= 0) || (k.XOffset < 0) || (k.XOffset >= len(k.Matrix[0])) {
		return nil, fmt.Errorf("%w: kernel %q", codec.ErrBadArgument, k.Name)
	}
	palette := cache.Palette()

	// residuals holds three weighted error sums per pixel, not yet divided
	// by the Divisor.
	residuals := make([]atomic.Int32, 3*len(colors))
	done := make([]atomic.Int32, height)
	failed := atomic.Bool{}
	ret := make([]int, len(colors))

	err := parallel.Each(height, workers, func(y int) error {
		defer done[y].Store(int32(width))
		for x := range width {
			if y > 0 {
				need := int32(min(width, x+k.XOffset+1))
				for (done[y-1].Load() < need) && !failed.Load() {
					runtime.Gosched()
				}
			}
			if failed.Load() {
				return nil
			}

			i := (y * width) + x
			src := colors[i]
			c := [3]int32{int32(src.R), int32(src.G), int32(src.B)}
			for j := range c {
				c[j] = min(255, max(0, c[j]+(residuals[(3*i)+j].Load()/k.Divisor)))
			}
			adjusted := color.NRGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: src.A}

			index, err := lookup(cache, adjusted)
			if err != nil {
				failed.Store(true)
				return err
			}
			ret[i] = index
			p := palette[index]
			e := [3]int32{c[0] - int32(p.R), c[1] - int32(p.G), c[2] - int32(p.B)}

			for dy, row := range k.Matrix {
				ny := y + dy
				if ny >= height {
					break
				}
				for col, weight := range row {
					nx := x + col - k.XOffset
					if (weight == 0) || (nx < 0) || (nx >= width) {
						continue
					}
					n := (ny * width) + nx
					for j := range e {
						residuals[(3*n)+j].Add(e[j] * weight)
					}
				}
			}
			done[y].Store(int32(x + 1))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Bayer is ordered dithering: each pixel is offset by a threshold from a
// tiled 2^Order × 2^Order Bayer matrix before lookup. Spread scales the
// offsets; zero means 32. Pixels are independent so any worker count works.
type Bayer struct {
	Order  int
	Spread int
}

var (
	Bayer2x2 = Bayer{Order: 1}
	Bayer4x4 = Bayer{Order: 2}
	Bayer8x8 = Bayer{Order: 3}
)

// bayerMatrix returns the n×n threshold matrix, n = 1<<order, built by the
// usual recursion M' = [[4M, 4M+2], [4M+3, 4M+1]].
func bayerMatrix(order int) [][]int {
	m := [][]int{{0}}
	for range order {
		n := len(m)
		next := make([][]int, 2*n)
		for y := range next {
			next[y] = make([]int, 2*n)
		}
		for y := range n {
			for x := range n {
				v := 4 * m[y][x]
				next[y][x] = v
				next[y][x+n] = v + 2
				next[y+n][x] = v + 3
				next[y+n][x+n] = v + 1
			}
		}
		m = next
	}
	return m
}

func (b Bayer) Dither(colors []color.NRGBA, width int, height int, cache ColorCache, workers int) ([]int, error) {
	if err := checkDither(colors, width, height, cache); err != nil {
		return nil, err
	} else if (b.Order < 1) || (b.Order > 4) {
		return nil, fmt.Errorf("%w: bayer order %d", codec.ErrBadArgument, b.Order)
	}
	spread := b.Spread
	if spread == 0 {
		spread = 32
	}
	m := bayerMatrix(b.Order)
	n := len(m)
	area := n * n

	return parallel.Map(len(colors), workers, func(i int) (int, error) {
		x, y := i%width, i/width
		// Offsets are centered on zero: (2t + 1 - area) / (2 area) of spread.
		offset := (((2 * m[y%n][x%n]) + 1 - area) * spread) / (2 * area)
		src := colors[i]
		adjust := func(v uint8) uint8 { return uint8(min(255, max(0, int(v)+offset))) }
		return lookup(cache, color.NRGBA{
			R: adjust(src.R),
			G: adjust(src.G),
			B: adjust(src.B),
			A: src.A,
		})
	})
}
