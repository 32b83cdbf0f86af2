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

// valueWidth is the closed set of stored value sizes. Everything that depends
// on the size switches on it.
type valueWidth uint8

const (
	width1  = valueWidth(1)
	width2  = valueWidth(2)
	width4  = valueWidth(4)
	width8  = valueWidth(8)
	width16 = valueWidth(16)
	width24 = valueWidth(24)
	width32 = valueWidth(32)
)

// packing reads and writes the i'th stored value of a byte slice.
type packing struct {
	width     valueWidth
	byteOrder codec.ByteOrder

	// firstHigh is whether, for sub-byte widths, the first value of each byte
	// is in its most significant bits.
	firstHigh bool
}

func makePacking(bits int, byteOrder codec.ByteOrder, firstHigh bool) (packing, bool) {
	switch bits {
	case 1, 2, 4, 8, 16, 24, 32:
		return packing{
			width:     valueWidth(bits),
			byteOrder: byteOrder,
			firstHigh: firstHigh,
		}, true
	}
	return packing{}, false
}

// perUnit is the number of values that share one byte (for sub-byte widths)
// and must therefore be written by the same goroutine.
func (p packing) perUnit() int {
	switch p.width {
	case width1:
		return 8
	case width2:
		return 4
	case width4:
		return 2
	}
	return 1
}

// count returns the number of whole values held in n bytes.
func (p packing) count(n int) int {
	return (n * 8) / int(p.width)
}

// checkLength rejects an n byte buffer that ends partway through a value.
// Sub-byte widths are exempt: the last byte's spare bits are padding.
func (p packing) checkLength(n int) error {
	if (p.width >= width8) && ((n*8)%int(p.width) != 0) {
		return fmt.Errorf("%w: %d bytes is not a whole number of %d-bit values",
			codec.ErrBadArgument, n, p.width)
	}
	return nil
}

// size returns the number of bytes needed to hold k values.
func (p packing) size(k int) int {
	return ((k * int(p.width)) + 7) / 8
}

func (p packing) read(src []byte, i int) uint32 {
	switch p.width {
	case width1, width2, width4:
		w := int(p.width)
		perByte := 8 / w
		b := src[i/perByte]
		slot := i % perByte
		shift := w * slot
		if p.firstHigh {
			shift = 8 - (w * (slot + 1))
		}
		return uint32(b>>shift) & ((1 << w) - 1)

	case width8:
		return uint32(src[i])

	case width16:
		s := src[2*i : (2*i)+2]
		if p.byteOrder == codec.BigEndian {
			return (uint32(s[0]) << 8) | uint32(s[1])
		}
		return uint32(s[0]) | (uint32(s[1]) << 8)

	case width24:
		s := src[3*i : (3*i)+3]
		return (uint32(s[0]) << 16) | (uint32(s[1]) << 8) | uint32(s[2])

	case width32:
		s := src[4*i : (4*i)+4]
		if p.byteOrder == codec.BigEndian {
			return (uint32(s[0]) << 24) | (uint32(s[1]) << 16) | (uint32(s[2]) << 8) | uint32(s[3])
		}
		return uint32(s[0]) | (uint32(s[1]) << 8) | (uint32(s[2]) << 16) | (uint32(s[3]) << 24)
	}
	return 0
}

// write stores v as the i'th value. Sub-byte values are ORed in, so dst must
// start zeroed.
func (p packing) write(dst []byte, i int, v uint32) {
	switch p.width {
	case width1, width2, width4:
		w := int(p.width)
		perByte := 8 / w
		slot := i % perByte
		shift := w * slot
		if p.firstHigh {
			shift = 8 - (w * (slot + 1))
		}
		dst[i/perByte] |= uint8((v & ((1 << w) - 1)) << shift)

	case width8:
		dst[i] = uint8(v)

	case width16:
		s := dst[2*i : (2*i)+2]
		if p.byteOrder == codec.BigEndian {
			s[0], s[1] = uint8(v>>8), uint8(v)
		} else {
			s[0], s[1] = uint8(v), uint8(v>>8)
		}

	case width24:
		s := dst[3*i : (3*i)+3]
		s[0], s[1], s[2] = uint8(v>>16), uint8(v>>8), uint8(v)

	case width32:
		s := dst[4*i : (4*i)+4]
		if p.byteOrder == codec.BigEndian {
			s[0], s[1], s[2], s[3] = uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)
		} else {
			s[0], s[1], s[2], s[3] = uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24)
		}
	}
}

// expand scales an n-bit channel value to 8 bits, rounding to nearest.
func expand(v uint32, n int) uint8 {
	switch {
	case n <= 0:
		return 0
	case n == 8:
		return uint8(v)
	}
	m := uint32(1)<<n - 1
	return uint8(((v * 255) + (m / 2)) / m)
}

// compress scales an 8-bit channel value to n bits, rounding to nearest. It
// is the inverse of expand for every value that expand can produce.
func compress(v uint8, n int) uint32 {
	switch {
	case n <= 0:
		return 0
	case n == 8:
		return uint32(v)
	}
	m := uint32(1)<<n - 1
	return ((uint32(v) * m) + 127) / 255
}
