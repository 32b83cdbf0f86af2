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
	"image/color"

	"github.com/nigeltao/texcodec/internal/parallel"
	"github.com/nigeltao/texcodec/lib/codec"
)

// IndexLayout describes how a palette index (and optionally an alpha value)
// is packed into a stored value. The alpha bits, if any, sit above the index
// bits.
type IndexLayout struct {
	// Name is optional. If empty, one is derived from the widths.
	Name string

	IndexBits int
	AlphaBits int

	// BitOrder applies to 1 and 2 bit values.
	BitOrder codec.BitOrder
	// NibbleOrder applies to 4 bit values.
	NibbleOrder codec.NibbleOrder
	// ByteOrder applies to 16 bit values.
	ByteOrder codec.ByteOrder
}

// IndexEncoding is a codec.IndexEncoding for packed palette indexes. It is
// safe for concurrent use.
type IndexEncoding struct {
	name      string
	indexBits int
	alphaBits int
	pack      packing
}

var _ codec.IndexEncoding = (*IndexEncoding)(nil)

// NewIndexed returns an IndexEncoding for the given layout. The total width
// (IndexBits + AlphaBits) must be 1, 2, 4, 8 or 16.
func NewIndexed(l IndexLayout) (*IndexEncoding, error) {
	total := l.IndexBits + l.AlphaBits
	firstHigh := false
	switch total {
	case 1, 2:
		firstHigh = l.BitOrder == codec.MSBFirst
	case 4:
		firstHigh = l.NibbleOrder == codec.HighNibbleFirst
	case 8, 16:
	default:
		return nil, fmt.Errorf("%w: %d bits per index", codec.ErrUnsupportedBitDepth, total)
	}
	if (l.IndexBits <= 0) || (l.AlphaBits < 0) {
		return nil, fmt.Errorf("%w: index bits %d, alpha bits %d", codec.ErrBadArgument, l.IndexBits, l.AlphaBits)
	}
	pack, _ := makePacking(total, l.ByteOrder, firstHigh)

	name := l.Name
	if name == "" {
		name = fmt.Sprintf("I%d", l.IndexBits)
		if l.AlphaBits > 0 {
			name = fmt.Sprintf("A%dI%d", l.AlphaBits, l.IndexBits)
		}
	}
	return &IndexEncoding{
		name:      name,
		indexBits: l.IndexBits,
		alphaBits: l.AlphaBits,
		pack:      pack,
	}, nil
}

func (e *IndexEncoding) Name() string      { return e.name }
func (e *IndexEncoding) BitsPerValue() int { return e.indexBits + e.alphaBits }
func (e *IndexEncoding) MaxColors() int    { return 1 << e.indexBits }

// Load decodes every value in src, resolving indexes through palette. A
// trailing partial value is codec.ErrBadArgument.
func (e *IndexEncoding) Load(src []byte, palette []color.NRGBA, workers int) ([]color.NRGBA, error) {
	if err := e.pack.checkLength(len(src)); err != nil {
		return nil, err
	}
	mask := uint32(1)<<e.indexBits - 1
	return parallel.Map(e.pack.count(len(src)), workers, func(i int) (color.NRGBA, error) {
		v := e.pack.read(src, i)
		idx := int(v & mask)
		if idx >= len(palette) {
			return color.NRGBA{}, fmt.Errorf("%w: index %d, palette has %d colors",
				codec.ErrPaletteIndexOutOfRange, idx, len(palette))
		}
		c := palette[idx]
		if e.alphaBits > 0 {
			c.A = expand(v>>e.indexBits, e.alphaBits)
		}
		return c, nil
	})
}

// Save packs indexes into ceil(len(indexes)*BitsPerValue/8) bytes. Every
// index must be below MaxColors and, when palette is non-nil, address one of
// its entries. Layouts with alpha bits need palette, whose entries provide
// the stored alpha.
func (e *IndexEncoding) Save(indexes []int, palette []color.NRGBA, workers int) ([]byte, error) {
	dst := make([]byte, e.pack.size(len(indexes)))
	per := e.pack.perUnit()
	units := (len(indexes) + per - 1) / per
	err := parallel.For(units, workers, func(u int) error {
		for i := u * per; i < min(len(indexes), (u+1)*per); i++ {
			idx := indexes[i]
			if (idx < 0) || (idx >= e.MaxColors()) {
				return fmt.Errorf("%w: index %d, at most %d colors",
					codec.ErrPaletteIndexOutOfRange, idx, e.MaxColors())
			}
			if ((palette != nil) || (e.alphaBits > 0)) && (idx >= len(palette)) {
				return fmt.Errorf("%w: index %d, palette has %d colors",
					codec.ErrPaletteIndexOutOfRange, idx, len(palette))
			}
			v := uint32(idx)
			if e.alphaBits > 0 {
				v |= compress(palette[idx].A, e.alphaBits) << e.indexBits
			}
			e.pack.write(dst, i, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// The common index layouts.

func I1(bitOrder codec.BitOrder) *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 1, BitOrder: bitOrder}))
}

func I2(bitOrder codec.BitOrder) *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 2, BitOrder: bitOrder}))
}

func I4(nibbleOrder codec.NibbleOrder) *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 4, NibbleOrder: nibbleOrder}))
}

func I8() *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 8}))
}

func I16(byteOrder codec.ByteOrder) *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 16, ByteOrder: byteOrder}))
}

// A3I5 is the Nintendo DS translucent format: a 5-bit index below 3 bits of
// alpha.
func A3I5() *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 5, AlphaBits: 3}))
}

// A5I3 is a 3-bit index below 5 bits of alpha.
func A5I3() *IndexEncoding {
	return mustIndexed(NewIndexed(IndexLayout{IndexBits: 3, AlphaBits: 5}))
}

func mustIndexed(e *IndexEncoding, err error) *IndexEncoding {
	if err != nil {
		panic(err)
	}
	return e
}
