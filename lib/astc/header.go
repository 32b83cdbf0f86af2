// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package astc

import (
	"fmt"
)

// Magic is the byte string prefix of every .astc file.
const Magic = "\x13\xAB\xA1\x5C"

// HeaderSize is the size in bytes of an .astc file header.
const HeaderSize = 16

// Header is the .astc file header: the block footprint and the image size in
// texels. The sizes are stored as 24-bit little-endian values.
type Header struct {
	BlockX uint8
	BlockY uint8
	BlockZ uint8

	SizeX uint32
	SizeY uint32
	SizeZ uint32
}

// BlockCount returns the number of 16-byte blocks that follow the header.
func (h Header) BlockCount() int {
	if (h.BlockX == 0) || (h.BlockY == 0) || (h.BlockZ == 0) {
		return 0
	}
	n := func(size uint32, b uint8) int {
		return int((size + uint32(b) - 1) / uint32(b))
	}
	return n(h.SizeX, h.BlockX) * n(h.SizeY, h.BlockY) * n(h.SizeZ, h.BlockZ)
}

// Marshal returns the 16-byte encoding of h.
func (h Header) Marshal() (buf [HeaderSize]byte) {
	copy(buf[:4], Magic)
	buf[4], buf[5], buf[6] = h.BlockX, h.BlockY, h.BlockZ
	putU24LE(buf[7:], h.SizeX)
	putU24LE(buf[10:], h.SizeY)
	putU24LE(buf[13:], h.SizeZ)
	return buf
}

// ParseHeader parses the first HeaderSize bytes of src.
func ParseHeader(src []byte) (Header, error) {
	if (len(src) < HeaderSize) || (string(src[:4]) != Magic) {
		return Header{}, ErrNotAnASTCFile
	}
	h := Header{
		BlockX: src[4],
		BlockY: src[5],
		BlockZ: src[6],
		SizeX:  u24LE(src[7:]),
		SizeY:  u24LE(src[10:]),
		SizeZ:  u24LE(src[13:]),
	}
	if (h.BlockX == 0) || (h.BlockY == 0) || (h.BlockZ == 0) ||
		(h.SizeX == 0) || (h.SizeY == 0) || (h.SizeZ == 0) {
		return Header{}, fmt.Errorf("%w: zero dimension", ErrNotAnASTCFile)
	}
	return h, nil
}

// ParseFile parses a whole .astc file, returning its header and its block
// data. The block data aliases src.
func ParseFile(src []byte) (Header, []byte, error) {
	h, err := ParseHeader(src)
	if err != nil {
		return Header{}, nil, err
	}
	need := HeaderSize + (16 * h.BlockCount())
	if len(src) < need {
		return Header{}, nil, fmt.Errorf("%w: have %d bytes, want %d", ErrNotAnASTCFile, len(src), need)
	}
	return h, src[HeaderSize:need], nil
}

func u24LE(b []byte) uint32 {
	return uint32(b[0]) | (uint32(b[1]) << 8) | (uint32(b[2]) << 16)
}

func putU24LE(b []byte, v uint32) {
	b[0] = uint8(v >> 0)
	b[1] = uint8(v >> 8)
	b[2] = uint8(v >> 16)
}
