// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package pixel

import (
	"fmt"

	"github.com/nigeltao/texcodec/lib/codec"
)

// NewRGBA returns an Encoding whose value holds the channels named by order
// (most significant first, any of "RGBAX") with the given widths. A channel
// with zero width must not appear in order. An X in order takes the bits left
// over.
func NewRGBA(r int, g int, b int, a int, order string, byteOrder codec.ByteOrder) (*Encoding, error) {
	return newOrdered(map[byte]int{'R': r, 'G': g, 'B': b, 'A': a}, order, byteOrder)
}

// NewLA returns an Encoding for luminance and alpha channels. order is any
// of "LA", "AL", "L" or "A".
func NewLA(l int, a int, order string, byteOrder codec.ByteOrder) (*Encoding, error) {
	return newOrdered(map[byte]int{'L': l, 'A': a}, order, byteOrder)
}

func newOrdered(widths map[byte]int, order string, byteOrder codec.ByteOrder) (*Encoding, error) {
	l := Layout{ByteOrder: byteOrder}
	pad := -1
	for i := 0; i < len(order); i++ {
		k := order[i]
		if k == 'X' {
			pad = len(l.Channels)
			l.Channels = append(l.Channels, Channel{Kind: ChannelX})
			continue
		}
		w, ok := widths[k]
		if !ok || (w <= 0) {
			return nil, fmt.Errorf("%w: bad channel order %q", codec.ErrBadArgument, order)
		}
		l.Channels = append(l.Channels, Channel{Kind: ChannelKind(k), Width: w})
		l.BitDepth += w
	}
	if pad >= 0 {
		w := 8 - (l.BitDepth % 8)
		if l.BitDepth < 8 {
			w = 4 - (l.BitDepth % 4)
		}
		l.Channels[pad].Width = w
		l.BitDepth += w
	}
	return New(l)
}

func must(e *Encoding, err error) *Encoding {
	if err != nil {
		panic(err)
	}
	return e
}

func named(name string, e *Encoding) *Encoding {
	e.name = name
	return e
}

// The common layouts. Names give channels in memory byte order for 8-bit
// channels (RGBA8888 is the bytes R, G, B, A) and most significant first for
// packed 16-bit values (RGB565 has R in the top 5 bits), as is conventional.

func RGBA8888() *Encoding {
	return named("RGBA8888", must(NewRGBA(8, 8, 8, 8, "ABGR", codec.LittleEndian)))
}

func ARGB8888() *Encoding {
	return named("ARGB8888", must(NewRGBA(8, 8, 8, 8, "BGRA", codec.LittleEndian)))
}

func BGRA8888() *Encoding {
	return named("BGRA8888", must(NewRGBA(8, 8, 8, 8, "ARGB", codec.LittleEndian)))
}

func RGB888() *Encoding {
	return named("RGB888", must(NewRGBA(8, 8, 8, 0, "RGB", codec.LittleEndian)))
}

func BGR888() *Encoding {
	return named("BGR888", must(NewRGBA(8, 8, 8, 0, "BGR", codec.LittleEndian)))
}

func RGB565(byteOrder codec.ByteOrder) *Encoding {
	return named("RGB565", must(NewRGBA(5, 6, 5, 0, "RGB", byteOrder)))
}

func BGR565(byteOrder codec.ByteOrder) *Encoding {
	return named("BGR565", must(NewRGBA(5, 6, 5, 0, "BGR", byteOrder)))
}

func RGBA5551(byteOrder codec.ByteOrder) *Encoding {
	return named("RGBA5551", must(NewRGBA(5, 5, 5, 1, "RGBA", byteOrder)))
}

func ARGB1555(byteOrder codec.ByteOrder) *Encoding {
	return named("ARGB1555", must(NewRGBA(5, 5, 5, 1, "ARGB", byteOrder)))
}

func RGBA4444(byteOrder codec.ByteOrder) *Encoding {
	return named("RGBA4444", must(NewRGBA(4, 4, 4, 4, "RGBA", byteOrder)))
}

func ARGB4444(byteOrder codec.ByteOrder) *Encoding {
	return named("ARGB4444", must(NewRGBA(4, 4, 4, 4, "ARGB", byteOrder)))
}

func RGB555(byteOrder codec.ByteOrder) *Encoding {
	return named("RGB555", must(NewRGBA(5, 5, 5, 0, "XRGB", byteOrder)))
}

// LA88 is the bytes L, A.
func LA88() *Encoding {
	return named("LA88", must(NewLA(8, 8, "AL", codec.LittleEndian)))
}

// LA44 has L in the high nibble.
func LA44() *Encoding {
	return named("LA44", must(NewLA(4, 4, "LA", codec.LittleEndian)))
}

func L8() *Encoding {
	return named("L8", must(NewLA(8, 0, "L", codec.LittleEndian)))
}

func A8() *Encoding {
	return named("A8", must(NewLA(0, 8, "A", codec.LittleEndian)))
}

func L4(nibbleOrder codec.NibbleOrder) *Encoding {
	return named("L4", must(New(Layout{
		BitDepth:    4,
		Channels:    []Channel{{ChannelL, 4}},
		NibbleOrder: nibbleOrder,
	})))
}

func A4(nibbleOrder codec.NibbleOrder) *Encoding {
	return named("A4", must(New(Layout{
		BitDepth:    4,
		Channels:    []Channel{{ChannelA, 4}},
		NibbleOrder: nibbleOrder,
	})))
}
