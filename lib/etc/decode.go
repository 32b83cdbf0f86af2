// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package etc

import (
	"image/color"
)

// modifiers holds the eight intensity tables. The column is the 2-bit pixel
// index, whose high bit is the sign.
var modifiers = [8][4]int32{
	{+2, +8, -2, -8},
	{+5, +17, -5, -17},
	{+9, +29, -9, -29},
	{+13, +42, -13, -42},
	{+18, +60, -18, -60},
	{+24, +80, -24, -80},
	{+33, +106, -33, -106},
	{+47, +183, -47, -183},
}

// clamp maps (base + modifier) & 1023 to [0, 255]. Negative sums wrap around
// to the top half.
var clamp = func() (c [1024]uint8) {
	for i := range c {
		switch {
		case i < 0x100:
			c[i] = uint8(i)
		case i < 0x200:
			c[i] = 0xFF
		}
	}
	return c
}()

func expand4(v int32) int32 { return (v << 4) | v }
func expand5(v int32) int32 { return (v << 3) | (v >> 2) }

// decodeColor decodes the 64-bit color block code into the 16 row-major
// pixels of dst.
func decodeColor(dst []color.NRGBA, code uint64) {
	bases := [2][3]int32{}
	if (code>>33)&1 != 0 {
		for c := range 3 {
			b := int32(code>>(59-(8*c))) & 0x1F
			d := int32(code>>(56-(8*c))) & 0x07
			d = (d ^ 4) - 4
			bases[0][c] = expand5(b)
			bases[1][c] = expand5((b + d) & 0x1F)
		}
	} else {
		for c := range 3 {
			bases[0][c] = expand4(int32(code>>(60-(8*c))) & 0x0F)
			bases[1][c] = expand4(int32(code>>(56-(8*c))) & 0x0F)
		}
	}
	tables := [2]uint64{(code >> 37) & 7, (code >> 34) & 7}
	flipped := (code>>32)&1 != 0

	for x := range 4 {
		for y := range 4 {
			k := uint((4 * x) + y)
			j := (((code >> (k + 16)) & 1) << 1) | ((code >> k) & 1)
			half := x >> 1
			if flipped {
				half = y >> 1
			}
			base, mod := &bases[half], modifiers[tables[half]][j]
			dst[(4*y)+x] = color.NRGBA{
				R: clamp[1023&(base[0]+mod)],
				G: clamp[1023&(base[1]+mod)],
				B: clamp[1023&(base[2]+mod)],
				A: 0xFF,
			}
		}
	}
}
