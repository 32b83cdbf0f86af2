// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package quant

import (
	"image/color"
)

// WuGenerator is Xiaolin Wu's variance minimizing quantizer ("Efficient
// Statistical Computations for Optimal Color Quantization", Graphics Gems
// II). RGB space is cut into boxes along the plane that most reduces the sum
// of squared errors until there are n boxes or no box can be cut. Alpha does
// not steer the cuts but each entry gets its box's average alpha.
type WuGenerator struct{}

// wuSide is the histogram size per axis: 32 cells plus a zero border for the
// cumulative moments.
const wuSide = 33

func wuIndex(r int, g int, b int) int {
	return (r * wuSide * wuSide) + (g * wuSide) + b
}

// wuMoments are the cumulative moments of the color histogram: entry
// (r, g, b) sums every cell at or below it on all three axes.
type wuMoments struct {
	w, r, g, b, a, m2 []float64
}

type wuBox struct {
	// Lower bounds are exclusive, upper bounds inclusive.
	r0, r1, g0, g1, b0, b1 int
}

func (x *wuBox) volume() int {
	return (x.r1 - x.r0) * (x.g1 - x.g0) * (x.b1 - x.b0)
}

type wuAxis uint8

const (
	wuRed wuAxis = iota
	wuGreen
	wuBlue
)

func newWuMoments(colors []color.NRGBA) *wuMoments {
	n := wuSide * wuSide * wuSide
	m := &wuMoments{
		w:  make([]float64, n),
		r:  make([]float64, n),
		g:  make([]float64, n),
		b:  make([]float64, n),
		a:  make([]float64, n),
		m2: make([]float64, n),
	}
	for _, c := range colors {
		i := wuIndex(int(c.R>>3)+1, int(c.G>>3)+1, int(c.B>>3)+1)
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		m.w[i]++
		m.r[i] += r
		m.g[i] += g
		m.b[i] += b
		m.a[i] += float64(c.A)
		m.m2[i] += (r * r) + (g * g) + (b * b)
	}

	for _, s := range [][]float64{m.w, m.r, m.g, m.b, m.a, m.m2} {
		for r := 1; r < wuSide; r++ {
			for g := 1; g < wuSide; g++ {
				for b := 1; b < wuSide; b++ {
					s[wuIndex(r, g, b)] += s[wuIndex(r-1, g, b)]
				}
			}
		}
		for r := 1; r < wuSide; r++ {
			for g := 1; g < wuSide; g++ {
				for b := 1; b < wuSide; b++ {
					s[wuIndex(r, g, b)] += s[wuIndex(r, g-1, b)]
				}
			}
		}
		for r := 1; r < wuSide; r++ {
			for g := 1; g < wuSide; g++ {
				for b := 1; b < wuSide; b++ {
					s[wuIndex(r, g, b)] += s[wuIndex(r, g, b-1)]
				}
			}
		}
	}
	return m
}

// volume sums the moment s over the box.
func volume(x *wuBox, s []float64) float64 {
	return s[wuIndex(x.r1, x.g1, x.b1)] -
		s[wuIndex(x.r1, x.g1, x.b0)] -
		s[wuIndex(x.r1, x.g0, x.b1)] +
		s[wuIndex(x.r1, x.g0, x.b0)] -
		s[wuIndex(x.r0, x.g1, x.b1)] +
		s[wuIndex(x.r0, x.g1, x.b0)] +
		s[wuIndex(x.r0, x.g0, x.b1)] -
		s[wuIndex(x.r0, x.g0, x.b0)]
}

// face sums the moment s over the box's other two axes, with the given axis
// cut at pos and everything at or below pos counted.
func face(x *wuBox, axis wuAxis, pos int, s []float64) float64 {
	switch axis {
	case wuRed:
		return s[wuIndex(pos, x.g1, x.b1)] -
			s[wuIndex(pos, x.g1, x.b0)] -
			s[wuIndex(pos, x.g0, x.b1)] +
			s[wuIndex(pos, x.g0, x.b0)]
	case wuGreen:
		return s[wuIndex(x.r1, pos, x.b1)] -
			s[wuIndex(x.r1, pos, x.b0)] -
			s[wuIndex(x.r0, pos, x.b1)] +
			s[wuIndex(x.r0, pos, x.b0)]
	}
	return s[wuIndex(x.r1, x.g1, pos)] -
		s[wuIndex(x.r1, x.g0, pos)] -
		s[wuIndex(x.r0, x.g1, pos)] +
		s[wuIndex(x.r0, x.g0, pos)]
}

func (m *wuMoments) variance(x *wuBox) float64 {
	r, g, b := volume(x, m.r), volume(x, m.g), volume(x, m.b)
	return volume(x, m.m2) - (((r * r) + (g * g) + (b * b)) / volume(x, m.w))
}

// maximize finds the cut along axis that maximizes the summed squared means
// of the two halves. It returns a cut of -1 when no cut leaves both halves
// non-empty.
func (m *wuMoments) maximize(x *wuBox, axis wuAxis, first int, last int, whole [4]float64) (float64, int) {
	lo := 0
	switch axis {
	case wuRed:
		lo = x.r0
	case wuGreen:
		lo = x.g0
	case wuBlue:
		lo = x.b0
	}
	base := [4]float64{
		face(x, axis, lo, m.r),
		face(x, axis, lo, m.g),
		face(x, axis, lo, m.b),
		face(x, axis, lo, m.w),
	}

	best, cut := 0.0, -1
	for i := first; i < last; i++ {
		half := [4]float64{
			face(x, axis, i, m.r) - base[0],
			face(x, axis, i, m.g) - base[1],
			face(x, axis, i, m.b) - base[2],
			face(x, axis, i, m.w) - base[3],
		}
		if half[3] == 0 {
			continue
		}
		other := [4]float64{
			whole[0] - half[0],
			whole[1] - half[1],
			whole[2] - half[2],
			whole[3] - half[3],
		}
		if other[3] == 0 {
			continue
		}
		score := (((half[0] * half[0]) + (half[1] * half[1]) + (half[2] * half[2])) / half[3]) +
			(((other[0] * other[0]) + (other[1] * other[1]) + (other[2] * other[2])) / other[3])
		if score > best {
			best, cut = score, i
		}
	}
	return best, cut
}

// split cuts x in two, shrinking x and returning the other half.
func (m *wuMoments) split(x *wuBox) (wuBox, bool) {
	whole := [4]float64{volume(x, m.r), volume(x, m.g), volume(x, m.b), volume(x, m.w)}
	maxR, cutR := m.maximize(x, wuRed, x.r0+1, x.r1, whole)
	maxG, cutG := m.maximize(x, wuGreen, x.g0+1, x.g1, whole)
	maxB, cutB := m.maximize(x, wuBlue, x.b0+1, x.b1, whole)

	y := *x
	switch {
	case (maxR >= maxG) && (maxR >= maxB):
		if cutR < 0 {
			return wuBox{}, false
		}
		x.r1, y.r0 = cutR, cutR
	case (maxG >= maxR) && (maxG >= maxB):
		if cutG < 0 {
			return wuBox{}, false
		}
		x.g1, y.g0 = cutG, cutG
	default:
		if cutB < 0 {
			return wuBox{}, false
		}
		x.b1, y.b0 = cutB, cutB
	}
	return y, true
}

func (WuGenerator) Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error) {
	if err := checkGenerate(colors, n); err != nil {
		return nil, err
	}
	m := newWuMoments(colors)

	boxes := []wuBox{{r1: wuSide - 1, g1: wuSide - 1, b1: wuSide - 1}}
	vv := []float64{0}
	next := 0
	for len(boxes) < n {
		y, ok := m.split(&boxes[next])
		if ok {
			boxes = append(boxes, y)
			vv = append(vv, 0)
			for _, i := range [2]int{next, len(boxes) - 1} {
				if boxes[i].volume() > 1 {
					vv[i] = m.variance(&boxes[i])
				} else {
					vv[i] = 0
				}
			}
		} else {
			vv[next] = 0
		}

		next = 0
		for i := 1; i < len(vv); i++ {
			if vv[i] > vv[next] {
				next = i
			}
		}
		if vv[next] <= 0 {
			break
		}
	}

	ret := make([]color.NRGBA, 0, len(boxes))
	for i := range boxes {
		w := volume(&boxes[i], m.w)
		if w <= 0 {
			continue
		}
		ret = append(ret, color.NRGBA{
			R: uint8((volume(&boxes[i], m.r) / w) + 0.5),
			G: uint8((volume(&boxes[i], m.g) / w) + 0.5),
			B: uint8((volume(&boxes[i], m.b) / w) + 0.5),
			A: uint8((volume(&boxes[i], m.a) / w) + 0.5),
		})
	}
	return ret, nil
}
