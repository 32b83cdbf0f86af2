// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package pixel implements the packed, non-block texture encodings: direct
// color values such as RGBA8888 or RGB565 and palette-indexed values.
//
// A stored value is an unsigned integer of 4, 8, 16, 24 or 32 bits (1, 2, 4,
// 8 or 16 bits for indexes). A Layout lists that value's channels from the
// most significant bits down. For example, RGB565 is R:5, G:6, B:5 in a 16-bit
// value, and RGBA8888 (the bytes R, G, B, A in memory) is A:8, B:8, G:8, R:8
// in a little-endian 32-bit value.
package pixel

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/nigeltao/texcodec/internal/parallel"
	"github.com/nigeltao/texcodec/lib/codec"
)

// ChannelKind identifies what a channel's bits mean.
type ChannelKind uint8

const (
	ChannelR = ChannelKind('R')
	ChannelG = ChannelKind('G')
	ChannelB = ChannelKind('B')
	ChannelA = ChannelKind('A')
	// ChannelL is luminance. It is decoded into R, G and B alike.
	ChannelL = ChannelKind('L')
	// ChannelX is padding. It is ignored on load and zero on save.
	ChannelX = ChannelKind('X')
)

func (k ChannelKind) valid() bool {
	switch k {
	case ChannelR, ChannelG, ChannelB, ChannelA, ChannelL, ChannelX:
		return true
	}
	return false
}

// Channel is one bit field of a stored value.
type Channel struct {
	Kind  ChannelKind
	Width int
}

// Layout describes how a color is packed into a stored value.
type Layout struct {
	// Name is optional. If empty, one is derived from the channels.
	Name string

	BitDepth int

	// Channels are listed most significant first. Their widths must sum to
	// BitDepth.
	Channels []Channel

	// Signed is whether channels hold two's complement values. They are
	// mapped to 8 bits by adding 1<<(width-1).
	Signed bool

	// ByteOrder applies to 16 and 32 bit values. 24 bit values are always
	// stored most significant byte first.
	ByteOrder codec.ByteOrder

	// NibbleOrder applies to 4 bit values.
	NibbleOrder codec.NibbleOrder
}

func (l Layout) derivedName() string {
	if l.Name != "" {
		return l.Name
	}
	b := strings.Builder{}
	for _, c := range l.Channels {
		b.WriteByte(byte(c.Kind))
	}
	for _, c := range l.Channels {
		fmt.Fprintf(&b, "%d", c.Width)
	}
	if l.Signed {
		b.WriteString("_SNORM")
	}
	if (l.BitDepth == 16 || l.BitDepth == 32) && (l.ByteOrder == codec.BigEndian) {
		b.WriteString("_BE")
	}
	return b.String()
}

type field struct {
	kind  ChannelKind
	shift int
	width int
}

// Encoding is a codec.ColorEncoding for packed direct color values. It is
// safe for concurrent use.
type Encoding struct {
	name   string
	bits   int
	signed bool
	pack   packing
	fields []field

	// hasColor is whether any of R, G, B or L is stored. If not, decoded
	// colors are white.
	hasColor bool
	// hasAlpha is whether A is stored. If not, decoded colors are opaque.
	hasAlpha bool
	hasLuma  bool
}

var _ codec.ColorEncoding = (*Encoding)(nil)

// New returns an Encoding for the given layout.
func New(l Layout) (*Encoding, error) {
	switch l.BitDepth {
	case 4, 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", codec.ErrUnsupportedBitDepth, l.BitDepth)
	}
	pack, _ := makePacking(l.BitDepth, l.ByteOrder, l.NibbleOrder == codec.HighNibbleFirst)

	e := &Encoding{
		name:   l.derivedName(),
		bits:   l.BitDepth,
		signed: l.Signed,
		pack:   pack,
	}
	shift := l.BitDepth
	for _, c := range l.Channels {
		if !c.Kind.valid() {
			return nil, fmt.Errorf("%w: invalid channel %q", codec.ErrBadArgument, rune(c.Kind))
		} else if (c.Width <= 0) || (c.Width > 16) {
			return nil, fmt.Errorf("%w: invalid %c channel width %d", codec.ErrBadArgument, rune(c.Kind), c.Width)
		}
		shift -= c.Width
		if shift < 0 {
			break
		}
		switch c.Kind {
		case ChannelX:
			continue
		case ChannelA:
			e.hasAlpha = true
		case ChannelL:
			e.hasLuma = true
			e.hasColor = true
		default:
			e.hasColor = true
		}
		e.fields = append(e.fields, field{kind: c.Kind, shift: shift, width: c.Width})
	}
	if shift != 0 {
		return nil, fmt.Errorf("%w: channel widths do not sum to %d bits", codec.ErrBadArgument, l.BitDepth)
	}
	return e, nil
}

func (e *Encoding) Name() string        { return e.name }
func (e *Encoding) BitsPerValue() int   { return e.bits }
func (e *Encoding) ColorsPerValue() int { return 1 }

// Load decodes every value in src. A trailing partial value is
// codec.ErrBadArgument.
func (e *Encoding) Load(src []byte, workers int) ([]color.NRGBA, error) {
	if err := e.pack.checkLength(len(src)); err != nil {
		return nil, err
	}
	return parallel.Map(e.pack.count(len(src)), workers, func(i int) (color.NRGBA, error) {
		return e.decode(e.pack.read(src, i)), nil
	})
}

// Save encodes colors into ceil(len(colors)*BitsPerValue/8) bytes.
func (e *Encoding) Save(colors []color.NRGBA, workers int) ([]byte, error) {
	dst := make([]byte, e.pack.size(len(colors)))
	per := e.pack.perUnit()
	units := (len(colors) + per - 1) / per
	err := parallel.For(units, workers, func(u int) error {
		for i := u * per; i < min(len(colors), (u+1)*per); i++ {
			e.pack.write(dst, i, e.encode(colors[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func (e *Encoding) decode(v uint32) color.NRGBA {
	c := color.NRGBA{A: 0xFF}
	if !e.hasColor {
		c.R, c.G, c.B = 0xFF, 0xFF, 0xFF
	}
	for _, f := range e.fields {
		raw := (v >> f.shift) & ((1 << f.width) - 1)
		if e.signed {
			raw ^= 1 << (f.width - 1)
		}
		x := expand(raw, f.width)
		switch f.kind {
		case ChannelR:
			c.R = x
		case ChannelG:
			c.G = x
		case ChannelB:
			c.B = x
		case ChannelA:
			c.A = x
		case ChannelL:
			c.R, c.G, c.B = x, x, x
		}
	}
	return c
}

func (e *Encoding) encode(c color.NRGBA) (v uint32) {
	luma := uint8(0)
	if e.hasLuma {
		luma = Luminance(c)
	}
	for _, f := range e.fields {
		x := uint8(0)
		switch f.kind {
		case ChannelR:
			x = c.R
		case ChannelG:
			x = c.G
		case ChannelB:
			x = c.B
		case ChannelA:
			x = c.A
		case ChannelL:
			x = luma
		}
		raw := compress(x, f.width)
		if e.signed {
			raw ^= 1 << (f.width - 1)
		}
		v |= raw << f.shift
	}
	return v
}

// Luminance returns c's gray level, weighting R, G and B per ITU-R BT.709.
// Gray colors map to themselves.
func Luminance(c color.NRGBA) uint8 {
	y := (212656 * uint32(c.R)) + (715158 * uint32(c.G)) + (72186 * uint32(c.B))
	return uint8((y + 500000) / 1000000)
}
