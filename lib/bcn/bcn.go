// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package bcn implements the BC1 to BC5 (also known as DXT1 to DXT5, ATI1 and
// ATI2) and BC7 block compression formats.
//
// Every format works on 4x4 pixel blocks. The primitives for the 8-byte color
// half (ColorBlock) and the 8-byte single channel halves (ScalarBlock and
// ExplicitAlpha) are exported so that related formats, such as ATC, can build
// on them.
package bcn

import (
	"encoding/binary"
	"image/color"
	"math"
)

// Unpack565 expands a 5:6:5 color to 8 bits per channel by bit replication.
func Unpack565(v uint16) (r uint8, g uint8, b uint8) {
	r5, g6, b5 := uint8(v>>11)&0x1F, uint8(v>>5)&0x3F, uint8(v)&0x1F
	return (r5 << 3) | (r5 >> 2), (g6 << 2) | (g6 >> 4), (b5 << 3) | (b5 >> 2)
}

// Pack565 rounds an 8 bits per channel color to 5:6:5.
func Pack565(r uint8, g uint8, b uint8) uint16 {
	r5 := ((uint32(r) * 31) + 127) / 255
	g6 := ((uint32(g) * 63) + 127) / 255
	b5 := ((uint32(b) * 31) + 127) / 255
	return uint16((r5 << 11) | (g6 << 5) | b5)
}

func pack565f(c vec3) uint16 {
	return Pack565(clampRound(c[0]), clampRound(c[1]), clampRound(c[2]))
}

// ColorBlock is the 8-byte color half shared by BC1, BC2 and BC3: two 5:6:5
// endpoints and sixteen 2-bit selectors, pixel i in bits 2i and 2i+1.
type ColorBlock struct {
	Color0    uint16
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

// Selector returns pixel i's 2-bit selector.
func (b ColorBlock) Selector(i int) int {
	return int(b.Selectors>>(2*i)) & 3
}

// FourColor is whether the block interpolates two intermediate colors. If
// not, it has one intermediate color and a fourth, black entry.
func (b ColorBlock) FourColor() bool {
	return b.Color0 > b.Color1
}

// Palette returns the block's four colors, all opaque. If forceFourColor is
// set, as for BC2 and BC3, the endpoint order is ignored.
func (b ColorBlock) Palette(forceFourColor bool) (p [4]color.NRGBA) {
	r0, g0, b0 := Unpack565(b.Color0)
	r1, g1, b1 := Unpack565(b.Color1)
	p[0] = color.NRGBA{r0, g0, b0, 0xFF}
	p[1] = color.NRGBA{r1, g1, b1, 0xFF}
	if forceFourColor || b.FourColor() {
		p[2] = color.NRGBA{mix(r0, r1, 2, 1), mix(g0, g1, 2, 1), mix(b0, b1, 2, 1), 0xFF}
		p[3] = color.NRGBA{mix(r0, r1, 1, 2), mix(g0, g1, 1, 2), mix(b0, b1, 1, 2), 0xFF}
	} else {
		p[2] = color.NRGBA{mix(r0, r1, 1, 1), mix(g0, g1, 1, 1), mix(b0, b1, 1, 1), 0xFF}
		p[3] = color.NRGBA{0, 0, 0, 0xFF}
	}
	return p
}

// mix returns (w0*x0 + w1*x1) / (w0 + w1), rounded.
func mix(x0 uint8, x1 uint8, w0 uint32, w1 uint32) uint8 {
	n := w0 + w1
	return uint8(((w0 * uint32(x0)) + (w1 * uint32(x1)) + (n / 2)) / n)
}

// Decode writes the block's 16 colors to dst. If punchThrough is set, the
// fourth entry of a three color block is transparent.
func (b ColorBlock) Decode(dst []color.NRGBA, forceFourColor bool, punchThrough bool) {
	p := b.Palette(forceFourColor)
	if punchThrough && !forceFourColor && !b.FourColor() {
		p[3] = color.NRGBA{}
	}
	for i := range dst[:16] {
		dst[i] = p[b.Selector(i)]
	}
}

// ColorMode constrains EncodeColorBlock.
type ColorMode uint8

const (
	// ColorModeOpaque may pick either block layout. Black pixels may use the
	// three color layout's fourth entry.
	ColorModeOpaque = ColorMode(0)

	// ColorModeFourColor always emits four color blocks (or blocks whose
	// endpoints are equal, which decode the same either way). Use it for BC2,
	// BC3 and ATC.
	ColorModeFourColor = ColorMode(1)

	// ColorModePunchThrough maps pixels with alpha below 128 to the three
	// color layout's transparent fourth entry.
	ColorModePunchThrough = ColorMode(2)
)

// EncodeColorBlock finds endpoints and selectors for 16 colors.
//
// Endpoints start from the principal axis of the colors (found by power
// iteration on their covariance) and from their bounding box. Each candidate
// is refined once by least squares against its own selectors and the
// candidate with the smallest squared error wins.
func EncodeColorBlock(src []color.NRGBA, mode ColorMode) ColorBlock {
	pts := make([]vec3, 0, 16)
	transparent := [16]bool{}
	for i, c := range src[:16] {
		if (mode == ColorModePunchThrough) && (c.A < 0x80) {
			transparent[i] = true
			continue
		}
		pts = append(pts, vec3{float64(c.R), float64(c.G), float64(c.B)})
	}
	if len(pts) == 0 {
		return ColorBlock{Selectors: 0xFFFFFFFF}
	}
	hasTransparent := len(pts) < 16

	f := colorFitter{
		src:         src[:16],
		transparent: &transparent,
		allowFour:   !hasTransparent,
		allowThree:  mode != ColorModeFourColor,
		blackIsFree: mode == ColorModeOpaque,
	}
	best, bestSSE := ColorBlock{}, math.MaxInt
	for _, ends := range endpointCandidates(pts) {
		for _, four := range [2]bool{true, false} {
			if (four && !f.allowFour) || (!four && !f.allowThree) {
				continue
			}
			b, sse := f.fit(ends[0], ends[1], four)
			if sse < bestSSE {
				best, bestSSE = b, sse
			}
			if e0, e1, ok := f.leastSquares(b, four); ok {
				if b, sse := f.fit(e0, e1, four); sse < bestSSE {
					best, bestSSE = b, sse
				}
			}
		}
	}
	return best
}

type colorFitter struct {
	src         []color.NRGBA
	transparent *[16]bool
	allowFour   bool
	allowThree  bool
	blackIsFree bool
}

// fit quantizes the endpoints, orders them for the requested layout and picks
// each pixel's nearest selector. It returns the block and its squared error.
func (f *colorFitter) fit(e0 vec3, e1 vec3, four bool) (ColorBlock, int) {
	b := ColorBlock{Color0: pack565f(e0), Color1: pack565f(e1)}
	if four {
		if b.Color0 < b.Color1 {
			b.Color0, b.Color1 = b.Color1, b.Color0
		}
	} else if b.Color0 > b.Color1 {
		b.Color0, b.Color1 = b.Color1, b.Color0
	}
	p := b.Palette(false)
	choices := 4
	if !b.FourColor() && !f.blackIsFree {
		choices = 3
	}

	total := 0
	for i, c := range f.src {
		if f.transparent[i] {
			b.Selectors |= 3 << (2 * i)
			continue
		}
		sel, best := 0, math.MaxInt
		for j := range choices {
			if d := distRGB(c, p[j]); d < best {
				sel, best = j, d
			}
		}
		b.Selectors |= uint32(sel) << (2 * i)
		total += best
	}
	return b, total
}

// leastSquares solves for the endpoints that best reproduce the colors given
// b's selectors.
func (f *colorFitter) leastSquares(b ColorBlock, four bool) (e0 vec3, e1 vec3, ok bool) {
	weights := [4]float64{0, 1, 1.0 / 2, -1}
	if four {
		weights = [4]float64{0, 1, 1.0 / 3, 2.0 / 3}
	}
	aa, ab, bb := 0.0, 0.0, 0.0
	ax, bx := vec3{}, vec3{}
	for i, c := range f.src {
		w := weights[b.Selector(i)]
		if f.transparent[i] || (w < 0) {
			continue
		}
		x := vec3{float64(c.R), float64(c.G), float64(c.B)}
		aa += (1 - w) * (1 - w)
		ab += (1 - w) * w
		bb += w * w
		ax = ax.add(x.scale(1 - w))
		bx = bx.add(x.scale(w))
	}
	det := (aa * bb) - (ab * ab)
	if math.Abs(det) < 1e-9 {
		return vec3{}, vec3{}, false
	}
	e0 = ax.scale(bb).sub(bx.scale(ab)).scale(1 / det)
	e1 = bx.scale(aa).sub(ax.scale(ab)).scale(1 / det)
	return e0, e1, true
}

func distRGB(a color.NRGBA, b color.NRGBA) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return (dr * dr) + (dg * dg) + (db * db)
}

func clampRound(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, x))))
}
