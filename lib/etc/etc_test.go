// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package etc

import (
	"encoding/binary"
	"image/color"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/nigeltao/texcodec/lib/codec"
)

func decodeOne(tt *testing.T, src []byte, options *Options) []color.NRGBA {
	tt.Helper()
	got, err := ETC1(options).Load(src, 1)
	if err != nil {
		tt.Fatalf("Load: %v", err)
	}
	return got
}

func TestDecodeModes(tt *testing.T) {
	testCases := []struct {
		name string
		src  []byte
		// want gives the gray level of each pixel, row-major.
		want [16]uint8
	}{{
		// Individual: bases 8×17 and 4×17, tables 0 and 7, all indexes 0.
		name: "individual",
		src:  []byte{0x84, 0x84, 0x84, 0x1C, 0x00, 0x00, 0x00, 0x00},
		want: [16]uint8{
			138, 138, 115, 115,
			138, 138, 115, 115,
			138, 138, 115, 115,
			138, 138, 115, 115,
		},
	}, {
		// Differential: base 16 (132) and diff -1 (123), tables 1 and 0,
		// flipped, all indexes 2.
		name: "differential",
		src:  []byte{0x87, 0x87, 0x87, 0x23, 0xFF, 0xFF, 0x00, 0x00},
		want: [16]uint8{
			127, 127, 127, 127,
			127, 127, 127, 127,
			121, 121, 121, 121,
			121, 121, 121, 121,
		},
	}}

	for _, tc := range testCases {
		got := decodeOne(tt, tc.src, nil)
		for i, c := range got {
			w := tc.want[i]
			if c != (color.NRGBA{w, w, w, 0xFF}) {
				tt.Errorf("tc=%q: pixel %d: got %v, want gray %d", tc.name, i, c, w)
				break
			}
		}

		le := slices.Clone(tc.src)
		slices.Reverse(le)
		if got2 := decodeOne(tt, le, &Options{ByteOrder: codec.LittleEndian}); !slices.Equal(got, got2) {
			tt.Errorf("tc=%q: little-endian decoding differs", tc.name)
		}
		if got3 := decodeOne(tt, tc.src, &Options{ByteOrder: codec.BigEndian}); !slices.Equal(got, got3) {
			tt.Errorf("tc=%q: explicit big-endian decoding differs", tc.name)
		}
	}
}

func TestSolidColors(tt *testing.T) {
	enc := ETC1(nil)
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 51 {
				c := color.NRGBA{uint8(r), uint8(g), uint8(b), 0xFF}
				src := slices.Repeat([]color.NRGBA{c}, 16)
				data, err := enc.Save(src, 1)
				if err != nil {
					tt.Fatalf("Save: %v", err)
				}
				got := decodeOne(tt, data, nil)
				for _, d := range got {
					if d != got[0] {
						tt.Fatalf("c=%v: non-uniform result %v", c, got)
					}
				}
				if e := maxChannelError(c, got[0]); e > 4 {
					tt.Errorf("c=%v: got %v, error %d", c, got[0], e)
				}
			}
		}
	}
}

// TestExactRepack checks that re-encoding decoded ETC1 data reproduces the
// same pixels. The bases stay away from 0 and 255 so that no modifier clamps.
func TestExactRepack(tt *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	enc := ETC1(nil)
	for n := range 200 {
		code := rng.Uint64() & 0x0000_0000_FFFF_FFFF
		code |= rng.Uint64N(4) << 37
		code |= rng.Uint64N(4) << 34
		code |= rng.Uint64N(2) << 32
		if (n & 1) == 0 {
			code |= 1 << 33
			for c := range 3 {
				level := 8 + rng.Uint64N(16)
				diff := rng.Uint64N(8)
				code |= level << (59 - (8 * c))
				code |= diff << (56 - (8 * c))
			}
			// Clear diffs that would leave the safe range.
			for c := range 3 {
				level := (code >> (59 - (8 * c))) & 0x1F
				d := int((code>>(56-(8*c)))&7^4) - 4
				if (int(level)+d < 8) || (int(level)+d > 23) {
					code &^= 7 << (56 - (8 * c))
				}
			}
		} else {
			code &^= 1 << 33
			for c := range 3 {
				code |= (4 + rng.Uint64N(8)) << (60 - (8 * c))
				code |= (4 + rng.Uint64N(8)) << (56 - (8 * c))
			}
		}

		src := binary.BigEndian.AppendUint64(nil, code)
		want := decodeOne(tt, src, nil)
		data, err := enc.Save(want, 1)
		if err != nil {
			tt.Fatalf("Save: %v", err)
		}
		if got := decodeOne(tt, data, nil); !slices.Equal(got, want) {
			tt.Errorf("code=%#016x: got %v, want %v", code, got, want)
		}
	}
}

func TestGradient(tt *testing.T) {
	src := make([]color.NRGBA, 16)
	for y := range 4 {
		for x := range 4 {
			v := uint8((10 * x) + (5 * y))
			src[(4*y)+x] = color.NRGBA{60 + v, 70 + v, 80 + v, 0xFF}
		}
	}
	data, err := ETC1(nil).Save(src, 1)
	if err != nil {
		tt.Fatalf("Save: %v", err)
	}
	got := decodeOne(tt, data, nil)
	total := 0
	for i := range src {
		e := maxChannelError(src[i], got[i])
		if e > 20 {
			tt.Errorf("pixel %d: got %v, want %v", i, got[i], src[i])
		}
		total += e
	}
	if total > 8*16 {
		tt.Errorf("total error: got %d, want <= %d", total, 8*16)
	}
}

func TestETC1A4(tt *testing.T) {
	testCases := []struct {
		name    string
		options *Options
		order   binary.ByteOrder
	}{
		{"big-endian", nil, binary.BigEndian},
		{"little-endian", &Options{ByteOrder: codec.LittleEndian}, binary.LittleEndian},
	}

	for _, tc := range testCases {
		enc := ETC1A4(tc.options)
		src := make([]byte, 16)
		tc.order.PutUint64(src[0:], 0xFEDC_BA98_7654_3210)
		tc.order.PutUint64(src[8:], 0x8484_841C_0000_0000)

		got, err := enc.Load(src, 1)
		if err != nil {
			tt.Fatalf("tc=%q: Load: %v", tc.name, err)
		}
		for y := range 4 {
			for x := range 4 {
				if a, want := got[(4*y)+x].A, uint8(0x11*((4*x)+y)); a != want {
					tt.Errorf("tc=%q: (%d, %d): alpha: got %#02x, want %#02x", tc.name, x, y, a, want)
				}
			}
		}

		data, err := enc.Save(got, 1)
		if err != nil {
			tt.Fatalf("tc=%q: Save: %v", tc.name, err)
		}
		if !slices.Equal(data[:8], src[:8]) {
			tt.Errorf("tc=%q: alpha block: got % x, want % x", tc.name, data[:8], src[:8])
		}
		if got2, _ := enc.Load(data, 1); !slices.Equal(got2, got) {
			tt.Errorf("tc=%q: round trip differs", tc.name)
		}
	}
}

func TestOpaqueIgnoresAlpha(tt *testing.T) {
	src := slices.Repeat([]color.NRGBA{{0x40, 0x80, 0xC0, 0x00}}, 16)
	data, err := ETC1(nil).Save(src, 1)
	if err != nil {
		tt.Fatalf("Save: %v", err)
	}
	for i, c := range decodeOne(tt, data, nil) {
		if c.A != 0xFF {
			tt.Errorf("pixel %d: alpha: got %#02x, want 0xff", i, c.A)
		}
	}
}

func maxChannelError(a color.NRGBA, b color.NRGBA) int {
	abs := func(x int) int { return max(x, -x) }
	return max(
		abs(int(a.R)-int(b.R)),
		abs(int(a.G)-int(b.G)),
		abs(int(a.B)-int(b.B)),
	)
}
