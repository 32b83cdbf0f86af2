// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package astc implements ASTC (Adaptive Scalable Texture Compression) LDR
// 2D textures by delegating to an external codec.
//
// Unlike the other block formats, ASTC blocks are not converted here one at a
// time. The whole image is handed to a Backend, such as a CommandBackend that
// runs ARM's astcenc program.
//
// ASTC is specified at
// https://registry.khronos.org/DataFormat/specs/1.3/dataformat.1.3.html#ASTC
package astc

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/nigeltao/texcodec/internal/parallel"
	"github.com/nigeltao/texcodec/lib/codec"
)

var (
	ErrNotAnASTCFile = errors.New("astc: not an ASTC file")
)

// BlockSize is the number of bytes in every ASTC block, whatever its
// footprint.
const BlockSize = 16

// Quality trades encoding speed for quality. The zero value is QualityMedium.
type Quality uint8

const (
	QualityMedium     = Quality(0)
	QualityFastest    = Quality(1)
	QualityFast       = Quality(2)
	QualityThorough   = Quality(3)
	QualityExhaustive = Quality(4)
)

func (q Quality) String() string {
	switch q {
	case QualityFastest:
		return "fastest"
	case QualityFast:
		return "fast"
	case QualityThorough:
		return "thorough"
	case QualityExhaustive:
		return "exhaustive"
	}
	return "medium"
}

// Backend compresses and decompresses whole .astc files.
type Backend interface {
	// Compress encodes src with the given block footprint, returning a
	// complete .astc file (header and blocks).
	Compress(src *image.NRGBA, blockW int, blockH int, quality Quality) ([]byte, error)

	// Decompress decodes a complete .astc file.
	Decompress(astcFile []byte) (*image.NRGBA, error)
}

// Options are optional arguments to New. The zero value is valid but, with
// no Backend, every Load and Save fails with codec.ErrCodecUnavailable.
type Options struct {
	Backend Backend
	Quality Quality
}

// IsValidFootprint returns whether blockW×blockH is one of the fourteen 2D
// ASTC block footprints.
func IsValidFootprint(blockW int, blockH int) bool {
	switch [2]int{blockW, blockH} {
	case [2]int{4, 4}, [2]int{5, 4}, [2]int{5, 5}, [2]int{6, 5}, [2]int{6, 6},
		[2]int{8, 5}, [2]int{8, 6}, [2]int{8, 8},
		[2]int{10, 5}, [2]int{10, 6}, [2]int{10, 8}, [2]int{10, 10},
		[2]int{12, 10}, [2]int{12, 12}:
		return true
	}
	return false
}

// Encoding is a codec.BlockEncoding for one image size and block footprint.
// ASTC data does not record its own dimensions, so they are fixed up front.
type Encoding struct {
	blockW, blockH int
	width, height  int
	options        Options
}

var _ codec.BlockEncoding = (*Encoding)(nil)

// New returns an Encoding for width×height images made of blockW×blockH
// blocks.
//
// options may be nil, which means to use the default configuration.
func New(blockW int, blockH int, width int, height int, options *Options) (*Encoding, error) {
	if !IsValidFootprint(blockW, blockH) {
		return nil, fmt.Errorf("%w: astc: %dx%d block footprint", codec.ErrUnsupportedFormat, blockW, blockH)
	} else if (width <= 0) || (height <= 0) || (width > 0xFF_FFFF) || (height > 0xFF_FFFF) {
		return nil, fmt.Errorf("%w: astc: %dx%d image", codec.ErrBadArgument, width, height)
	}
	e := &Encoding{blockW: blockW, blockH: blockH, width: width, height: height}
	if options != nil {
		e.options = *options
	}
	return e, nil
}

func (e *Encoding) Name() string        { return fmt.Sprintf("ASTC_%dx%d", e.blockW, e.blockH) }
func (e *Encoding) BitsPerValue() int   { return 8 * BlockSize }
func (e *Encoding) ColorsPerValue() int { return e.blockW * e.blockH }

func (e *Encoding) BlockDims() (width int, height int) { return e.blockW, e.blockH }

func (e *Encoding) blocksAcross() int { return (e.width + e.blockW - 1) / e.blockW }
func (e *Encoding) blocksDown() int   { return (e.height + e.blockH - 1) / e.blockH }

func (e *Encoding) header() Header {
	return Header{
		BlockX: uint8(e.blockW),
		BlockY: uint8(e.blockH),
		BlockZ: 1,
		SizeX:  uint32(e.width),
		SizeY:  uint32(e.height),
		SizeZ:  1,
	}
}

func (e *Encoding) unavailable(err error) error {
	return fmt.Errorf("%w: %s: %w", codec.ErrCodecUnavailable, e.Name(), err)
}

// Load decodes src, the blocks without a header, into colors in block order.
// Texels of edge blocks that lie outside the image repeat the nearest edge
// texel.
func (e *Encoding) Load(src []byte, workers int) ([]color.NRGBA, error) {
	if len(src)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: %s: %d bytes is not a multiple of %d",
			codec.ErrTruncatedBlockData, e.Name(), len(src), BlockSize)
	}
	nBlocks := e.blocksAcross() * e.blocksDown()
	if len(src) != nBlocks*BlockSize {
		return nil, fmt.Errorf("%w: %s: got %d blocks, want %d for %dx%d",
			codec.ErrBadArgument, e.Name(), len(src)/BlockSize, nBlocks, e.width, e.height)
	} else if e.options.Backend == nil {
		return nil, e.unavailable(errors.New("no backend"))
	}

	hdr := e.header().Marshal()
	file := make([]byte, 0, HeaderSize+len(src))
	file = append(append(file, hdr[:]...), src...)
	m, err := e.options.Backend.Decompress(file)
	if err != nil {
		return nil, e.unavailable(err)
	} else if b := m.Bounds(); (b.Dx() != e.width) || (b.Dy() != e.height) {
		return nil, e.unavailable(fmt.Errorf("decoded %dx%d image, want %dx%d", b.Dx(), b.Dy(), e.width, e.height))
	}

	per, across := e.ColorsPerValue(), e.blocksAcross()
	dst := make([]color.NRGBA, nBlocks*per)
	b := m.Bounds()
	err = parallel.ForChunk(nBlocks, workers, 16, func(i int) error {
		bx, by := (i%across)*e.blockW, (i/across)*e.blockH
		for y := range e.blockH {
			sy := min(by+y, e.height-1)
			for x := range e.blockW {
				sx := min(bx+x, e.width-1)
				dst[(i*per)+(y*e.blockW)+x] = m.NRGBAAt(b.Min.X+sx, b.Min.Y+sy)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// Save encodes colors, in block order, and returns the blocks without a
// header. A short final block is padded by repeating its last color.
func (e *Encoding) Save(colors []color.NRGBA, workers int) ([]byte, error) {
	nBlocks, per := e.blocksAcross()*e.blocksDown(), e.ColorsPerValue()
	if (len(colors) == 0) || (len(colors) > nBlocks*per) {
		return nil, fmt.Errorf("%w: %s: got %d colors, want %d for %dx%d",
			codec.ErrBadArgument, e.Name(), len(colors), nBlocks*per, e.width, e.height)
	} else if e.options.Backend == nil {
		return nil, e.unavailable(errors.New("no backend"))
	}

	m, across := image.NewNRGBA(image.Rect(0, 0, e.width, e.height)), e.blocksAcross()
	err := parallel.ForChunk(nBlocks, workers, 16, func(i int) error {
		bx, by := (i%across)*e.blockW, (i/across)*e.blockH
		for y := range e.blockH {
			for x := range e.blockW {
				if ((bx + x) >= e.width) || ((by + y) >= e.height) {
					continue
				}
				j := min((i*per)+(y*e.blockW)+x, len(colors)-1)
				m.SetNRGBA(bx+x, by+y, colors[j])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	file, err := e.options.Backend.Compress(m, e.blockW, e.blockH, e.options.Quality)
	if err != nil {
		return nil, e.unavailable(err)
	}
	h, blocks, err := ParseFile(file)
	if err != nil {
		return nil, e.unavailable(err)
	} else if h != e.header() {
		return nil, e.unavailable(fmt.Errorf("backend wrote %v, want %v", h, e.header()))
	}
	return blocks, nil
}
