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
	"testing"
)

// Interpolation weights, as published in the BC7 format description.
var testBC7Weights = map[int][]uint32{
	2: {0, 21, 43, 64},
	3: {0, 9, 18, 27, 37, 46, 55, 64},
	4: {0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64},
}

// testBC7Block describes one block field by field. Subset membership and
// anchor pixels are spelled out per test case, copied from the published
// partition tables, rather than taken from this package's tables.
type testBC7Block struct {
	name           string
	mode           int
	partition      uint32
	rotation       uint32
	indexSelection uint32

	// colorBits, alphaBits, pBits ("", "endpoint" or "shared"), indexBits and
	// index2Bits repeat the mode's field widths.
	colorBits, alphaBits  int
	pBits                 string
	indexBits, index2Bits int

	subsetOf [16]int
	anchors  []int
}

func (b *testBC7Block) subsets() int {
	n := 0
	for _, s := range b.subsetOf {
		n = max(n, s+1)
	}
	return n
}

func (b *testBC7Block) isAnchor(i int) bool {
	if i == 0 {
		return true
	}
	for _, a := range b.anchors {
		if a == i {
			return true
		}
	}
	return false
}

// raw returns a varied n bit endpoint value.
func (b *testBC7Block) raw(s int, e int, ch int, n int) uint32 {
	return uint32((s*23)+(e*41)+(ch*13)+5+(e*(1<<n))/2) & (1<<n - 1)
}

func (b *testBC7Block) pbit(s int, e int) uint32 {
	switch b.pBits {
	case "endpoint":
		return uint32((s + e + 1) & 1)
	case "shared":
		return uint32((s + 1) & 1)
	}
	return 0
}

func (b *testBC7Block) index(i int, n int, salt int) uint32 {
	return uint32((i*5)+3+salt) & (1<<n - 1)
}

// pack assembles the block in the published bit order: mode, partition,
// rotation, index selection, endpoints channel by channel, p-bits, primary
// indexes then secondary indexes.
func (b *testBC7Block) pack() []byte {
	w := bitWriter{}
	w.write(1<<b.mode, b.mode+1)
	w.write(b.partition, map[int]int{0: 4, 1: 6, 2: 6, 3: 6, 7: 6}[b.mode])
	if (b.mode == 4) || (b.mode == 5) {
		w.write(b.rotation, 2)
	}
	if b.mode == 4 {
		w.write(b.indexSelection, 1)
	}
	for ch := range 4 {
		n := b.colorBits
		if ch == 3 {
			n = b.alphaBits
		}
		for s := range b.subsets() {
			w.write(b.raw(s, 0, ch, n), n)
			w.write(b.raw(s, 1, ch, n), n)
		}
	}
	for s := range b.subsets() {
		switch b.pBits {
		case "endpoint":
			w.write(b.pbit(s, 0), 1)
			w.write(b.pbit(s, 1), 1)
		case "shared":
			w.write(b.pbit(s, 0), 1)
		}
	}
	for i := range 16 {
		n := b.indexBits
		if b.isAnchor(i) {
			n--
		}
		w.write(b.index(i, n, 0), n)
	}
	if b.index2Bits > 0 {
		for i := range 16 {
			n := b.index2Bits
			if i == 0 {
				n--
			}
			w.write(b.index(i, n, 7), n)
		}
	}
	if w.pos != 128 {
		panic("bc7 test block is not 128 bits")
	}
	dst := make([]byte, 16)
	binary.LittleEndian.PutUint64(dst, w.lo)
	binary.LittleEndian.PutUint64(dst[8:], w.hi)
	return dst
}

func (b *testBC7Block) endpoint(s int, e int, ch int) uint32 {
	n := b.colorBits
	if ch == 3 {
		if b.alphaBits == 0 {
			return 0xFF
		}
		n = b.alphaBits
	}
	v := b.raw(s, e, ch, n)
	if b.pBits != "" {
		v, n = (v<<1)|b.pbit(s, e), n+1
	}
	if n == 8 {
		return v
	}
	return (v << (8 - n)) | (v >> (2*n - 8))
}

func (b *testBC7Block) want() (ret [16]color.NRGBA) {
	for i := range 16 {
		s := b.subsetOf[i]
		n := b.indexBits
		if b.isAnchor(i) {
			n--
		}
		cw := testBC7Weights[b.indexBits][b.index(i, n, 0)]
		aw := cw
		if b.index2Bits > 0 {
			n2 := b.index2Bits
			if i == 0 {
				n2--
			}
			aw = testBC7Weights[b.index2Bits][b.index(i, n2, 7)]
			if b.indexSelection != 0 {
				cw, aw = aw, cw
			}
		}

		c := [4]uint8{}
		for ch := range 4 {
			wt := cw
			if ch == 3 {
				wt = aw
			}
			e0, e1 := b.endpoint(s, 0, ch), b.endpoint(s, 1, ch)
			c[ch] = uint8((((64 - wt) * e0) + (wt * e1) + 32) >> 6)
		}
		if b.rotation != 0 {
			c[b.rotation-1], c[3] = c[3], c[b.rotation-1]
		}
		ret[i] = color.NRGBA{c[0], c[1], c[2], c[3]}
	}
	return ret
}

func TestBC7DecodeModes(tt *testing.T) {
	testCases := []testBC7Block{{
		name:      "mode0-partition13",
		mode:      0,
		partition: 13,
		colorBits: 4, pBits: "endpoint", indexBits: 3,
		subsetOf: [16]int{0, 1, 2, 2, 0, 1, 2, 2, 0, 1, 2, 2, 0, 1, 2, 2},
		anchors:  []int{5, 15},
	}, {
		name:      "mode1-partition17",
		mode:      1,
		partition: 17,
		colorBits: 6, pBits: "shared", indexBits: 3,
		subsetOf: [16]int{0, 1, 1, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		anchors:  []int{2},
	}, {
		name:      "mode1-partition0",
		mode:      1,
		partition: 0,
		colorBits: 6, pBits: "shared", indexBits: 3,
		subsetOf: [16]int{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1},
		anchors:  []int{15},
	}, {
		name:      "mode2-partition26",
		mode:      2,
		partition: 26,
		colorBits: 5, indexBits: 2,
		subsetOf: [16]int{0, 1, 1, 0, 1, 2, 2, 1, 1, 2, 2, 1, 0, 1, 1, 0},
		anchors:  []int{8, 6},
	}, {
		name:      "mode2-partition63",
		mode:      2,
		partition: 63,
		colorBits: 5, indexBits: 2,
		subsetOf: [16]int{0, 1, 1, 1, 2, 0, 1, 1, 2, 2, 0, 1, 2, 2, 2, 0},
		anchors:  []int{3, 8},
	}, {
		name:      "mode3-partition34",
		mode:      3,
		partition: 34,
		colorBits: 7, pBits: "endpoint", indexBits: 2,
		subsetOf: [16]int{0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0},
		anchors:  []int{6},
	}, {
		name:      "mode4-rotation0",
		mode:      4,
		colorBits: 5, alphaBits: 6, indexBits: 2, index2Bits: 3,
	}, {
		name:      "mode4-rotation2-swapped",
		mode:      4,
		rotation:  2, indexSelection: 1,
		colorBits: 5, alphaBits: 6, indexBits: 2, index2Bits: 3,
	}, {
		name:      "mode5-rotation1",
		mode:      5,
		rotation:  1,
		colorBits: 7, alphaBits: 8, indexBits: 2, index2Bits: 2,
	}, {
		name:      "mode5-rotation3",
		mode:      5,
		rotation:  3,
		colorBits: 7, alphaBits: 8, indexBits: 2, index2Bits: 2,
	}, {
		name:      "mode6",
		mode:      6,
		colorBits: 7, alphaBits: 7, pBits: "endpoint", indexBits: 4,
	}, {
		name:      "mode7-partition63",
		mode:      7,
		partition: 63,
		colorBits: 5, alphaBits: 5, pBits: "endpoint", indexBits: 2,
		subsetOf: [16]int{0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1},
		anchors:  []int{15},
	}}

	for _, tc := range testCases {
		src := tc.pack()
		dst := make([]color.NRGBA, 16)
		bc7Transcoder{}.DecodeBlock(src, dst)
		want := tc.want()
		for i := range dst {
			if dst[i] != want[i] {
				tt.Errorf("tc=%q: pixel %d: got %v, want %v", tc.name, i, dst[i], want[i])
				break
			}
		}
	}
}

func TestBC7DecodeLiterals(tt *testing.T) {
	white := color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	testCases := []struct {
		name string
		src  [16]byte
		want color.NRGBA
	}{
		// No mode bit.
		{"all-zero", [16]byte{}, color.NRGBA{}},
		// Mode 6 with every other bit set: endpoints 0x7F with p-bit 1.
		{"mode6-ones", [16]byte{0xC0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, white},
		// Mode 6 with zero endpoints and p-bits.
		{"mode6-zeros", [16]byte{0x40}, color.NRGBA{}},
	}
	for _, tc := range testCases {
		dst := make([]color.NRGBA, 16)
		for i := range dst {
			dst[i] = color.NRGBA{1, 2, 3, 4}
		}
		bc7Transcoder{}.DecodeBlock(tc.src[:], dst)
		for i, c := range dst {
			if c != tc.want {
				tt.Errorf("tc=%q: pixel %d: got %v, want %v", tc.name, i, c, tc.want)
				break
			}
		}
	}
}
