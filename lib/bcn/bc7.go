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
	"image/color"
	"math"
	"math/bits"
)

type bc7Mode struct {
	subsets            int
	partitionBits      int
	rotationBits       int
	indexSelectionBits int
	colorBits          int
	alphaBits          int
	endpointPBits      bool
	sharedPBits        bool
	indexBits          int
	index2Bits         int
}

var bc7Modes = [8]bc7Mode{
	{3, 4, 0, 0, 4, 0, true, false, 3, 0},
	{2, 6, 0, 0, 6, 0, false, true, 3, 0},
	{3, 6, 0, 0, 5, 0, false, false, 2, 0},
	{2, 6, 0, 0, 7, 0, true, false, 2, 0},
	{1, 0, 2, 1, 5, 6, false, false, 2, 3},
	{1, 0, 2, 0, 7, 8, false, false, 2, 2},
	{1, 0, 0, 0, 7, 7, true, false, 4, 0},
	{2, 6, 0, 0, 5, 5, true, false, 2, 0},
}

var (
	bc7Weights2 = [4]uint32{0, 21, 43, 64}
	bc7Weights3 = [8]uint32{0, 9, 18, 27, 37, 46, 55, 64}
	bc7Weights4 = [16]uint32{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}
)

func bc7Weight(indexBits int, i uint32) uint32 {
	switch indexBits {
	case 2:
		return bc7Weights2[i&3]
	case 3:
		return bc7Weights3[i&7]
	}
	return bc7Weights4[i&15]
}

func bc7Interpolate(e0 uint32, e1 uint32, w uint32) uint8 {
	return uint8((((64 - w) * e0) + (w * e1) + 32) >> 6)
}

// bc7Partitions2 holds, for each two subset partition, bit i set if pixel i
// is in subset 1.
var bc7Partitions2 = [64]uint16{
	0xCCCC, 0x8888, 0xEEEE, 0xECC8, 0xC880, 0xFEEC, 0xFEC8, 0xEC80,
	0xC800, 0xFFEC, 0xFE80, 0xE800, 0xFFE8, 0xFF00, 0xFFF0, 0xF000,
	0xF710, 0x008E, 0x7100, 0x08CE, 0x008C, 0x7310, 0x3100, 0x8CCE,
	0x088C, 0x3110, 0x6666, 0x366C, 0x17E8, 0x0FF0, 0x718E, 0x399C,
	0xAAAA, 0xF0F0, 0x5A5A, 0x33CC, 0x3C3C, 0x55AA, 0x9696, 0xA55A,
	0x73CE, 0x13C8, 0x324C, 0x3BDC, 0x6996, 0xC33C, 0x9966, 0x0660,
	0x0272, 0x04E4, 0x4E40, 0x2720, 0xC936, 0x936C, 0x39C6, 0x639C,
	0x9336, 0x9CC6, 0x817E, 0xE718, 0xCCF0, 0x0FCC, 0x7744, 0xEE22,
}

var bc7Partitions3 = [64][16]uint8{
	{0, 0, 1, 1, 0, 0, 1, 1, 0, 2, 2, 1, 2, 2, 2, 2},
	{0, 0, 0, 1, 0, 0, 1, 1, 2, 2, 1, 1, 2, 2, 2, 1},
	{0, 0, 0, 0, 2, 0, 0, 1, 2, 2, 1, 1, 2, 2, 1, 1},
	{0, 2, 2, 2, 0, 0, 2, 2, 0, 0, 1, 1, 0, 1, 1, 1},
	{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 2, 2, 1, 1, 2, 2},
	{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 2, 2, 0, 0, 2, 2},
	{0, 0, 2, 2, 0, 0, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1},
	{0, 0, 1, 1, 0, 0, 1, 1, 2, 2, 1, 1, 2, 2, 1, 1},
	{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
	{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2},
	{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2},
	{0, 0, 1, 2, 0, 0, 1, 2, 0, 0, 1, 2, 0, 0, 1, 2},
	{0, 1, 1, 2, 0, 1, 1, 2, 0, 1, 1, 2, 0, 1, 1, 2},
	{0, 1, 2, 2, 0, 1, 2, 2, 0, 1, 2, 2, 0, 1, 2, 2},
	{0, 0, 1, 1, 0, 1, 1, 2, 1, 1, 2, 2, 1, 2, 2, 2},
	{0, 0, 1, 1, 2, 0, 0, 1, 2, 2, 0, 0, 2, 2, 2, 0},
	{0, 0, 0, 1, 0, 0, 1, 1, 0, 1, 1, 2, 1, 1, 2, 2},
	{0, 1, 1, 1, 0, 0, 1, 1, 2, 0, 0, 1, 2, 2, 0, 0},
	{0, 0, 0, 0, 1, 1, 2, 2, 1, 1, 2, 2, 1, 1, 2, 2},
	{0, 0, 2, 2, 0, 0, 2, 2, 0, 0, 2, 2, 1, 1, 1, 1},
	{0, 1, 1, 1, 0, 1, 1, 1, 0, 2, 2, 2, 0, 2, 2, 2},
	{0, 0, 0, 1, 0, 0, 0, 1, 2, 2, 2, 1, 2, 2, 2, 1},
	{0, 0, 0, 0, 0, 0, 1, 1, 0, 1, 2, 2, 0, 1, 2, 2},
	{0, 0, 0, 0, 1, 1, 0, 0, 2, 2, 1, 0, 2, 2, 1, 0},
	{0, 1, 2, 2, 0, 1, 2, 2, 0, 0, 1, 1, 0, 0, 0, 0},
	{0, 0, 1, 2, 0, 0, 1, 2, 1, 1, 2, 2, 2, 2, 2, 2},
	{0, 1, 1, 0, 1, 2, 2, 1, 1, 2, 2, 1, 0, 1, 1, 0},
	{0, 0, 0, 0, 0, 1, 1, 0, 1, 2, 2, 1, 1, 2, 2, 1},
	{0, 0, 2, 2, 1, 1, 0, 2, 1, 1, 0, 2, 0, 0, 2, 2},
	{0, 1, 1, 0, 0, 1, 1, 0, 2, 0, 0, 2, 2, 2, 2, 2},
	{0, 0, 1, 1, 0, 1, 2, 2, 0, 1, 2, 2, 0, 0, 1, 1},
	{0, 0, 0, 0, 2, 0, 0, 0, 2, 2, 1, 1, 2, 2, 2, 1},
	{0, 0, 0, 0, 0, 0, 0, 2, 1, 1, 2, 2, 1, 2, 2, 2},
	{0, 2, 2, 2, 0, 0, 2, 2, 0, 0, 1, 2, 0, 0, 1, 1},
	{0, 0, 1, 1, 0, 0, 1, 2, 0, 0, 2, 2, 0, 2, 2, 2},
	{0, 1, 2, 0, 0, 1, 2, 0, 0, 1, 2, 0, 0, 1, 2, 0},
	{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0},
	{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0},
	{0, 1, 2, 0, 2, 0, 1, 2, 1, 2, 0, 1, 0, 1, 2, 0},
	{0, 0, 1, 1, 2, 2, 0, 0, 1, 1, 2, 2, 0, 0, 1, 1},
	{0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0, 1, 1},
	{0, 1, 0, 1, 0, 1, 0, 1, 2, 2, 2, 2, 2, 2, 2, 2},
	{0, 0, 0, 0, 0, 0, 0, 0, 2, 1, 2, 1, 2, 1, 2, 1},
	{0, 0, 2, 2, 1, 1, 2, 2, 0, 0, 2, 2, 1, 1, 2, 2},
	{0, 0, 2, 2, 0, 0, 1, 1, 0, 0, 2, 2, 0, 0, 1, 1},
	{0, 2, 2, 0, 1, 2, 2, 1, 0, 2, 2, 0, 1, 2, 2, 1},
	{0, 1, 0, 1, 2, 2, 2, 2, 2, 2, 2, 2, 0, 1, 0, 1},
	{0, 0, 0, 0, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1},
	{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 2, 2, 2, 2},
	{0, 2, 2, 2, 0, 1, 1, 1, 0, 2, 2, 2, 0, 1, 1, 1},
	{0, 0, 0, 2, 1, 1, 1, 2, 0, 0, 0, 2, 1, 1, 1, 2},
	{0, 0, 0, 0, 2, 1, 1, 2, 2, 1, 1, 2, 2, 1, 1, 2},
	{0, 2, 2, 2, 0, 1, 1, 1, 0, 1, 1, 1, 0, 2, 2, 2},
	{0, 0, 0, 2, 1, 1, 1, 2, 1, 1, 1, 2, 0, 0, 0, 2},
	{0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 2, 2, 2, 2},
	{0, 0, 0, 0, 0, 0, 0, 0, 2, 1, 1, 2, 2, 1, 1, 2},
	{0, 1, 1, 0, 0, 1, 1, 0, 2, 2, 2, 2, 2, 2, 2, 2},
	{0, 0, 2, 2, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 2, 2},
	{0, 0, 2, 2, 1, 1, 2, 2, 1, 1, 2, 2, 0, 0, 2, 2},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 1, 1, 2},
	{0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1},
	{0, 2, 2, 2, 1, 2, 2, 2, 0, 2, 2, 2, 1, 2, 2, 2},
	{0, 1, 0, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	{0, 1, 1, 1, 2, 0, 1, 1, 2, 2, 0, 1, 2, 2, 2, 0},
}

// The anchor pixels, other than pixel 0, whose index has an implicit zero
// high bit.
var (
	bc7Anchors2 = [64]uint8{
		15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
		15, 2, 8, 2, 2, 8, 8, 15, 2, 8, 2, 2, 8, 8, 2, 2,
		15, 15, 6, 8, 2, 8, 15, 15, 2, 8, 2, 2, 2, 15, 15, 6,
		6, 2, 6, 8, 15, 15, 2, 2, 15, 15, 15, 15, 15, 2, 2, 15,
	}
	bc7Anchors3a = [64]uint8{
		3, 3, 15, 15, 8, 3, 15, 15, 8, 8, 6, 6, 6, 5, 3, 3,
		3, 3, 8, 15, 3, 3, 6, 10, 5, 8, 8, 6, 8, 5, 15, 15,
		8, 15, 3, 5, 6, 10, 8, 15, 15, 3, 15, 5, 15, 15, 15, 15,
		3, 15, 5, 5, 5, 8, 5, 10, 5, 10, 8, 13, 15, 12, 3, 3,
	}
	bc7Anchors3b = [64]uint8{
		15, 8, 8, 3, 15, 15, 3, 8, 15, 15, 15, 15, 15, 15, 15, 8,
		15, 8, 15, 3, 15, 8, 15, 8, 3, 15, 6, 10, 15, 15, 10, 8,
		15, 3, 15, 10, 10, 8, 9, 10, 6, 15, 8, 15, 3, 6, 6, 8,
		15, 3, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 3, 15, 15, 8,
	}
)

func bc7Subset(subsets int, partition uint32, i int) int {
	switch subsets {
	case 2:
		return int(bc7Partitions2[partition]>>i) & 1
	case 3:
		return int(bc7Partitions3[partition][i])
	}
	return 0
}

func bc7IsAnchor(subsets int, partition uint32, i int) bool {
	switch {
	case i == 0:
		return true
	case subsets == 2:
		return i == int(bc7Anchors2[partition])
	case subsets == 3:
		return (i == int(bc7Anchors3a[partition])) || (i == int(bc7Anchors3b[partition]))
	}
	return false
}

// bitReader reads a 128-bit block least significant bit first.
type bitReader struct {
	lo, hi uint64
	pos    int
}

func (r *bitReader) read(n int) (v uint32) {
	for i := range n {
		p, w := r.pos+i, r.lo
		if p >= 64 {
			p, w = p-64, r.hi
		}
		v |= uint32((w>>p)&1) << i
	}
	r.pos += n
	return v
}

type bitWriter struct {
	lo, hi uint64
	pos    int
}

func (w *bitWriter) write(v uint32, n int) {
	for i := range n {
		b := uint64((v >> i) & 1)
		if p := w.pos + i; p < 64 {
			w.lo |= b << p
		} else {
			w.hi |= b << (p - 64)
		}
	}
	w.pos += n
}

type bc7Transcoder struct{}

func (bc7Transcoder) BlockSize() int                     { return 16 }
func (bc7Transcoder) BlockDims() (width int, height int) { return 4, 4 }

// DecodeBlock decodes all eight modes. Blocks with no mode bit set decode to
// transparent black.
func (bc7Transcoder) DecodeBlock(src []byte, dst []color.NRGBA) {
	mode := bits.TrailingZeros8(src[0])
	if mode >= 8 {
		clear(dst[:16])
		return
	}
	m := &bc7Modes[mode]
	r := bitReader{lo: binary.LittleEndian.Uint64(src), hi: binary.LittleEndian.Uint64(src[8:])}
	r.read(mode + 1)
	partition := r.read(m.partitionBits)
	rotation := r.read(m.rotationBits)
	indexSelection := r.read(m.indexSelectionBits)

	// ends is indexed by subset, endpoint and channel.
	ends := [3][2][4]uint32{}
	for ch := range 4 {
		n := m.colorBits
		if ch == 3 {
			n = m.alphaBits
		}
		for s := range m.subsets {
			ends[s][0][ch] = r.read(n)
			ends[s][1][ch] = r.read(n)
		}
	}

	pbits := [3][2]uint32{}
	if m.endpointPBits {
		for s := range m.subsets {
			pbits[s][0] = r.read(1)
			pbits[s][1] = r.read(1)
		}
	} else if m.sharedPBits {
		for s := range m.subsets {
			p := r.read(1)
			pbits[s][0], pbits[s][1] = p, p
		}
	}

	for s := range m.subsets {
		for e := range 2 {
			for ch := range 4 {
				n := m.colorBits
				if ch == 3 {
					if m.alphaBits == 0 {
						ends[s][e][ch] = 0xFF
						continue
					}
					n = m.alphaBits
				}
				v := ends[s][e][ch]
				if m.endpointPBits || m.sharedPBits {
					v, n = (v<<1)|pbits[s][e], n+1
				}
				v <<= 8 - n
				ends[s][e][ch] = v | (v >> n)
			}
		}
	}

	indexes, indexes2 := [16]uint32{}, [16]uint32{}
	for i := range 16 {
		n := m.indexBits
		if bc7IsAnchor(m.subsets, partition, i) {
			n--
		}
		indexes[i] = r.read(n)
	}
	if m.index2Bits > 0 {
		for i := range 16 {
			n := m.index2Bits
			if i == 0 {
				n--
			}
			indexes2[i] = r.read(n)
		}
	}

	colorIndexes, colorBits := &indexes, m.indexBits
	alphaIndexes, alphaBits := &indexes, m.indexBits
	if m.index2Bits > 0 {
		alphaIndexes, alphaBits = &indexes2, m.index2Bits
		if indexSelection != 0 {
			colorIndexes, colorBits, alphaIndexes, alphaBits = alphaIndexes, alphaBits, colorIndexes, colorBits
		}
	}

	for i := range 16 {
		e := &ends[bc7Subset(m.subsets, partition, i)]
		cw := bc7Weight(colorBits, colorIndexes[i])
		aw := bc7Weight(alphaBits, alphaIndexes[i])
		c := [4]uint8{
			bc7Interpolate(e[0][0], e[1][0], cw),
			bc7Interpolate(e[0][1], e[1][1], cw),
			bc7Interpolate(e[0][2], e[1][2], cw),
			bc7Interpolate(e[0][3], e[1][3], aw),
		}
		switch rotation {
		case 1:
			c[0], c[3] = c[3], c[0]
		case 2:
			c[1], c[3] = c[3], c[1]
		case 3:
			c[2], c[3] = c[3], c[2]
		}
		dst[i] = color.NRGBA{c[0], c[1], c[2], c[3]}
	}
}

type vec4 [4]float64

// bc7Endpoint is a mode 6 endpoint: four 7-bit channels and a p-bit.
type bc7Endpoint struct {
	q [4]uint32
	p uint32
}

func (e bc7Endpoint) expand(ch int) uint32 {
	return (e.q[ch] << 1) | e.p
}

func quantizeBC7Endpoint(v vec4, p uint32) (e bc7Endpoint) {
	e.p = p
	for ch := range 4 {
		x := math.Round((v[ch] - float64(p)) / 2)
		e.q[ch] = uint32(math.Max(0, math.Min(127, x)))
	}
	return e
}

// EncodeBlock always emits mode 6: one subset, RGBA endpoints with 7 bits
// per channel plus a p-bit each, and 4-bit indexes.
func (bc7Transcoder) EncodeBlock(src []color.NRGBA, dst []byte) {
	pts := [16]vec4{}
	for i, c := range src[:16] {
		pts[i] = vec4{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
	}

	var (
		best    [2]bc7Endpoint
		bestIdx [16]uint32
		bestSSE = math.MaxInt
	)
	try := func(v0 vec4, v1 vec4) {
		for p := range uint32(4) {
			e := [2]bc7Endpoint{quantizeBC7Endpoint(v0, p&1), quantizeBC7Endpoint(v1, p>>1)}
			idx, sse := fitBC7Mode6(src, e)
			if sse < bestSSE {
				best, bestIdx, bestSSE = e, idx, sse
			}
		}
	}
	for _, ends := range bc7Candidates(&pts) {
		try(ends[0], ends[1])
	}
	if v0, v1, ok := bc7LeastSquares(&pts, &bestIdx); ok {
		try(v0, v1)
	}

	if bestIdx[0] >= 8 {
		best[0], best[1] = best[1], best[0]
		for i := range bestIdx {
			bestIdx[i] = 15 - bestIdx[i]
		}
	}

	w := bitWriter{}
	w.write(1<<6, 7)
	for ch := range 4 {
		w.write(best[0].q[ch], 7)
		w.write(best[1].q[ch], 7)
	}
	w.write(best[0].p, 1)
	w.write(best[1].p, 1)
	w.write(bestIdx[0], 3)
	for _, idx := range bestIdx[1:] {
		w.write(idx, 4)
	}
	binary.LittleEndian.PutUint64(dst[0:], w.lo)
	binary.LittleEndian.PutUint64(dst[8:], w.hi)
}

func fitBC7Mode6(src []color.NRGBA, e [2]bc7Endpoint) (idx [16]uint32, sse int) {
	palette := [16][4]int{}
	for k := range palette {
		for ch := range 4 {
			palette[k][ch] = int(bc7Interpolate(e[0].expand(ch), e[1].expand(ch), bc7Weights4[k]))
		}
	}
	for i, c := range src[:16] {
		px := [4]int{int(c.R), int(c.G), int(c.B), int(c.A)}
		best := math.MaxInt
		for k, q := range palette {
			d := 0
			for ch := range 4 {
				d += (px[ch] - q[ch]) * (px[ch] - q[ch])
			}
			if d < best {
				idx[i], best = uint32(k), d
			}
		}
		sse += best
	}
	return idx, sse
}

// bc7Candidates returns the RGBA bounding box corners and the extent along
// the principal axis.
func bc7Candidates(pts *[16]vec4) [][2]vec4 {
	lo := vec4{255, 255, 255, 255}
	hi := vec4{}
	mean := vec4{}
	for _, p := range pts {
		for ch := range 4 {
			lo[ch] = math.Min(lo[ch], p[ch])
			hi[ch] = math.Max(hi[ch], p[ch])
			mean[ch] += p[ch] / 16
		}
	}
	ret := [][2]vec4{{lo, hi}}

	cov := [4]vec4{}
	for _, p := range pts {
		for j := range 4 {
			for k := range 4 {
				cov[j][k] += (p[j] - mean[j]) * (p[k] - mean[k])
			}
		}
	}
	axis := vec4{}
	for _, col := range cov {
		if dot4(col, col) > dot4(axis, axis) {
			axis = col
		}
	}
	for range 8 {
		n := math.Sqrt(dot4(axis, axis))
		if n == 0 {
			return ret
		}
		for ch := range 4 {
			axis[ch] /= n
		}
		axis = vec4{dot4(cov[0], axis), dot4(cov[1], axis), dot4(cov[2], axis), dot4(cov[3], axis)}
	}
	n := math.Sqrt(dot4(axis, axis))
	if n == 0 {
		return ret
	}
	tLo, tHi := math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		t := 0.0
		for ch := range 4 {
			t += (p[ch] - mean[ch]) * axis[ch] / n
		}
		tLo, tHi = math.Min(tLo, t), math.Max(tHi, t)
	}
	v0, v1 := vec4{}, vec4{}
	for ch := range 4 {
		v0[ch] = mean[ch] + (axis[ch] / n * tLo)
		v1[ch] = mean[ch] + (axis[ch] / n * tHi)
	}
	return append(ret, [2]vec4{v0, v1})
}

func bc7LeastSquares(pts *[16]vec4, idx *[16]uint32) (v0 vec4, v1 vec4, ok bool) {
	aa, ab, bb := 0.0, 0.0, 0.0
	ax, bx := vec4{}, vec4{}
	for i, p := range pts {
		w := float64(bc7Weights4[idx[i]]) / 64
		aa += (1 - w) * (1 - w)
		ab += (1 - w) * w
		bb += w * w
		for ch := range 4 {
			ax[ch] += (1 - w) * p[ch]
			bx[ch] += w * p[ch]
		}
	}
	det := (aa * bb) - (ab * ab)
	if math.Abs(det) < 1e-9 {
		return vec4{}, vec4{}, false
	}
	for ch := range 4 {
		v0[ch] = ((ax[ch] * bb) - (bx[ch] * ab)) / det
		v1[ch] = ((bx[ch] * aa) - (ax[ch] * ab)) / det
	}
	return v0, v1, true
}

func dot4(a vec4, b vec4) float64 {
	return (a[0] * b[0]) + (a[1] * b[1]) + (a[2] * b[2]) + (a[3] * b[3])
}
