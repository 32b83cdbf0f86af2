// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package formats names the well known texture formats and registers them in
// a codec.Definition.
//
// The ids are this package's own. File formats with their own numbering
// build their own Definition.
//
// ASTC is absent: its codec needs the image size and a compressor backend,
// so callers construct it with astc.New.
package formats

import (
	"slices"

	"github.com/nigeltao/texcodec/lib/atc"
	"github.com/nigeltao/texcodec/lib/bcn"
	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/etc"
	"github.com/nigeltao/texcodec/lib/pixel"
)

// Color format ids. Multi-byte pixels are little-endian.
const (
	RGBA8888 = 1 + iota
	ARGB8888
	BGRA8888
	RGB888
	BGR888
	RGB565
	BGR565
	RGBA5551
	ARGB1555
	RGBA4444
	ARGB4444
	RGB555
	LA88
	LA44
	L8
	L4
	A8
	A4
)

// Block format ids.
const (
	BC1 = 0x40 + iota
	BC1A
	BC2
	BC3
	BC4
	BC5
	BC7
	ETC1
	ETC1A4
	ETC1LE
	ETC1A4LE
	ATC
	ATCAExplicit
	ATCAInterpolated
)

// Index format ids.
const (
	I1 = 0x80 + iota
	I2
	I4
	I8
	I16
	A3I5
	A5I3
)

// names maps each id to a lower case name.
var names = map[int]string{
	RGBA8888: "rgba8888",
	ARGB8888: "argb8888",
	BGRA8888: "bgra8888",
	RGB888:   "rgb888",
	BGR888:   "bgr888",
	RGB565:   "rgb565",
	BGR565:   "bgr565",
	RGBA5551: "rgba5551",
	ARGB1555: "argb1555",
	RGBA4444: "rgba4444",
	ARGB4444: "argb4444",
	RGB555:   "rgb555",
	LA88:     "la88",
	LA44:     "la44",
	L8:       "l8",
	L4:       "l4",
	A8:       "a8",
	A4:       "a4",

	BC1:              "bc1",
	BC1A:             "bc1a",
	BC2:              "bc2",
	BC3:              "bc3",
	BC4:              "bc4",
	BC5:              "bc5",
	BC7:              "bc7",
	ETC1:             "etc1",
	ETC1A4:           "etc1a4",
	ETC1LE:           "etc1-le",
	ETC1A4LE:         "etc1a4-le",
	ATC:              "atc",
	ATCAExplicit:     "atca-explicit",
	ATCAInterpolated: "atca-interpolated",

	I1:   "i1",
	I2:   "i2",
	I4:   "i4",
	I8:   "i8",
	I16:  "i16",
	A3I5: "a3i5",
	A5I3: "a5i3",
}

// Name returns the name of id, or "" if there is none.
func Name(id int) string { return names[id] }

// ID returns the id named name.
func ID(name string) (int, bool) {
	for id, n := range names {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Names returns every format name, sorted.
func Names() []string {
	ret := make([]string, 0, len(names))
	for _, n := range names {
		ret = append(ret, n)
	}
	slices.Sort(ret)
	return ret
}

// paletteIDs are the color formats that may hold a palette.
var paletteIDs = []int{RGBA8888, ARGB8888, BGRA8888, RGB888, RGB565, RGBA5551, ARGB1555, RGBA4444, RGB555}

// Standard returns a new Definition holding every format above.
func Standard() *codec.Definition {
	le := codec.LittleEndian
	colors := map[int]codec.ColorEncoding{
		RGBA8888: pixel.RGBA8888(),
		ARGB8888: pixel.ARGB8888(),
		BGRA8888: pixel.BGRA8888(),
		RGB888:   pixel.RGB888(),
		BGR888:   pixel.BGR888(),
		RGB565:   pixel.RGB565(le),
		BGR565:   pixel.BGR565(le),
		RGBA5551: pixel.RGBA5551(le),
		ARGB1555: pixel.ARGB1555(le),
		RGBA4444: pixel.RGBA4444(le),
		ARGB4444: pixel.ARGB4444(le),
		RGB555:   pixel.RGB555(le),
		LA88:     pixel.LA88(),
		LA44:     pixel.LA44(),
		L8:       pixel.L8(),
		L4:       pixel.L4(codec.LowNibbleFirst),
		A8:       pixel.A8(),
		A4:       pixel.A4(codec.LowNibbleFirst),

		BC1:              bcn.BC1(),
		BC1A:             bcn.BC1A(),
		BC2:              bcn.BC2(),
		BC3:              bcn.BC3(),
		BC4:              bcn.BC4(),
		BC5:              bcn.BC5(),
		BC7:              bcn.BC7(),
		ETC1:             etc.ETC1(nil),
		ETC1A4:           etc.ETC1A4(nil),
		ETC1LE:           etc.ETC1(&etc.Options{ByteOrder: codec.LittleEndian}),
		ETC1A4LE:         etc.ETC1A4(&etc.Options{ByteOrder: codec.LittleEndian}),
		ATC:              atc.ATC(),
		ATCAExplicit:     atc.ATCAExplicit(),
		ATCAInterpolated: atc.ATCAInterpolated(),
	}

	palettes := map[int]codec.ColorEncoding{}
	for _, id := range paletteIDs {
		palettes[id] = colors[id]
	}

	indexes := map[int]codec.IndexEncodingDefinition{}
	for id, e := range map[int]codec.IndexEncoding{
		I1:   pixel.I1(codec.MSBFirst),
		I2:   pixel.I2(codec.MSBFirst),
		I4:   pixel.I4(codec.LowNibbleFirst),
		I8:   pixel.I8(),
		I16:  pixel.I16(le),
		A3I5: pixel.A3I5(),
		A5I3: pixel.A5I3(),
	} {
		indexes[id] = codec.IndexEncodingDefinition{
			Encoding:           e,
			PaletteEncodingIDs: paletteIDs,
		}
	}

	d := codec.NewDefinition()
	d.AddColorEncodings(colors)
	d.AddIndexEncodings(indexes)
	d.AddPaletteEncodings(palettes)
	return d
}
