// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bcn

import (
	"encoding/binary"
	"math"
)

// ScalarBlock is the 8-byte interpolated single channel block used for BC3
// alpha, BC4 and both halves of BC5: two 8-bit endpoints and sixteen 3-bit
// selectors, pixel i in bits 3i to 3i+2 of the remaining 48 bits.
//
// If Value0 > Value1 the selectors choose among 8 evenly spaced values.
// Otherwise they choose among 6 evenly spaced values plus 0 and 255.
type ScalarBlock struct {
	Value0    uint8
	Value1    uint8
	Selectors uint64
}

func ParseScalarBlock(src []byte) ScalarBlock {
	v := binary.LittleEndian.Uint64(src)
	return ScalarBlock{
		Value0:    uint8(v),
		Value1:    uint8(v >> 8),
		Selectors: v >> 16,
	}
}

func (b ScalarBlock) Put(dst []byte) {
	v := uint64(b.Value0) | (uint64(b.Value1) << 8) | ((b.Selectors & (1<<48 - 1)) << 16)
	binary.LittleEndian.PutUint64(dst, v)
}

func (b ScalarBlock) Selector(i int) int {
	return int(b.Selectors>>(3*i)) & 7
}

// Palette returns the 8 values the selectors choose from.
func (b ScalarBlock) Palette() (p [8]uint8) {
	a0, a1 := uint32(b.Value0), uint32(b.Value1)
	p[0], p[1] = b.Value0, b.Value1
	if a0 > a1 {
		for k := uint32(2); k < 8; k++ {
			p[k] = uint8(((((8 - k) * a0) + ((k - 1) * a1)) + 3) / 7)
		}
	} else {
		for k := uint32(2); k < 6; k++ {
			p[k] = uint8(((((6 - k) * a0) + ((k - 1) * a1)) + 2) / 5)
		}
		p[6], p[7] = 0x00, 0xFF
	}
	return p
}

func (b ScalarBlock) Decode(dst *[16]uint8) {
	p := b.Palette()
	for i := range dst {
		dst[i] = p[b.Selector(i)]
	}
}

// EncodeScalarBlock tries both block layouts and returns the one with the
// smaller squared error.
func EncodeScalarBlock(src *[16]uint8) ScalarBlock {
	lo, hi := uint8(0xFF), uint8(0x00)
	inLo, inHi := uint8(0xFF), uint8(0x00)
	for _, v := range src {
		lo, hi = min(lo, v), max(hi, v)
		if (v != 0x00) && (v != 0xFF) {
			inLo, inHi = min(inLo, v), max(inHi, v)
		}
	}
	if lo == hi {
		return ScalarBlock{Value0: lo, Value1: lo}
	}

	best, bestSSE := fitScalar(src, ScalarBlock{Value0: hi, Value1: lo})
	if inLo > inHi {
		// Every value is 0 or 255.
		inLo, inHi = 0xFF, 0xFF
	}
	if b, sse := fitScalar(src, ScalarBlock{Value0: inLo, Value1: inHi}); sse < bestSSE {
		best = b
	}
	return best
}

func fitScalar(src *[16]uint8, b ScalarBlock) (ScalarBlock, int) {
	p := b.Palette()
	total := 0
	for i, v := range src {
		sel, best := 0, math.MaxInt
		for j, q := range p {
			d := int(v) - int(q)
			if d*d < best {
				sel, best = j, d*d
			}
		}
		b.Selectors |= uint64(sel) << (3 * i)
		total += best
	}
	return b, total
}

// ExplicitAlpha is the 8-byte BC2 alpha block: sixteen 4-bit values, pixel i
// in bits 4i to 4i+3.
type ExplicitAlpha uint64

func ParseExplicitAlpha(src []byte) ExplicitAlpha {
	return ExplicitAlpha(binary.LittleEndian.Uint64(src))
}

func (b ExplicitAlpha) Put(dst []byte) {
	binary.LittleEndian.PutUint64(dst, uint64(b))
}

func (b ExplicitAlpha) Decode(dst *[16]uint8) {
	for i := range dst {
		dst[i] = 0x11 * uint8((b>>(4*i))&0x0F)
	}
}

func EncodeExplicitAlpha(src *[16]uint8) (b ExplicitAlpha) {
	for i, v := range src {
		b |= ExplicitAlpha(((uint32(v)*15)+127)/255) << (4 * i)
	}
	return b
}
