// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package block drives fixed-size block compression formats. A Transcoder
// knows how to convert one block; an Encoding applies it across a buffer.
package block

import (
	"fmt"
	"image/color"

	"github.com/nigeltao/texcodec/internal/parallel"
	"github.com/nigeltao/texcodec/lib/codec"
)

// Transcoder converts a single block. Implementations must be safe for
// concurrent use.
type Transcoder interface {
	// BlockSize is the number of bytes in one block.
	BlockSize() int

	// BlockDims is the block footprint in pixels.
	BlockDims() (width int, height int)

	// DecodeBlock decodes src, which is BlockSize bytes long, into dst, which
	// has width*height elements in row-major order.
	DecodeBlock(src []byte, dst []color.NRGBA)

	// EncodeBlock is the inverse of DecodeBlock. dst is zeroed.
	EncodeBlock(src []color.NRGBA, dst []byte)
}

// Encoding is a codec.BlockEncoding built from a Transcoder.
type Encoding struct {
	name string
	t    Transcoder
}

var _ codec.BlockEncoding = (*Encoding)(nil)

// New returns an Encoding that applies t to every block.
func New(name string, t Transcoder) *Encoding {
	return &Encoding{name: name, t: t}
}

func (e *Encoding) Name() string      { return e.name }
func (e *Encoding) BitsPerValue() int { return 8 * e.t.BlockSize() }

func (e *Encoding) ColorsPerValue() int {
	w, h := e.t.BlockDims()
	return w * h
}

func (e *Encoding) BlockDims() (width int, height int) { return e.t.BlockDims() }

// Transcoder returns the per-block converter.
func (e *Encoding) Transcoder() Transcoder { return e.t }

// Load decodes src, whose length must be a multiple of the block size. The
// colors are in block order.
func (e *Encoding) Load(src []byte, workers int) ([]color.NRGBA, error) {
	size := e.t.BlockSize()
	if len(src)%size != 0 {
		return nil, fmt.Errorf("%w: %s: %d bytes is not a multiple of %d",
			codec.ErrTruncatedBlockData, e.name, len(src), size)
	}
	n, per := len(src)/size, e.ColorsPerValue()
	dst := make([]color.NRGBA, n*per)
	err := parallel.ForChunk(n, workers, 16, func(i int) error {
		e.t.DecodeBlock(src[i*size:(i+1)*size], dst[i*per:(i+1)*per])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// Save encodes colors, which are in block order. A final partial block is
// padded by repeating its last color.
func (e *Encoding) Save(colors []color.NRGBA, workers int) ([]byte, error) {
	size, per := e.t.BlockSize(), e.ColorsPerValue()
	n := (len(colors) + per - 1) / per
	dst := make([]byte, n*size)
	err := parallel.ForChunk(n, workers, 4, func(i int) error {
		src := colors[i*per : min(len(colors), (i+1)*per)]
		if len(src) < per {
			src = Pad(src, per)
		}
		e.t.EncodeBlock(src, dst[i*size:(i+1)*size])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// Pad returns src extended to n colors by repeating its last color. An empty
// src is padded with transparent black.
func Pad(src []color.NRGBA, n int) []color.NRGBA {
	ret := make([]color.NRGBA, n)
	copy(ret, src)
	if len(src) > 0 {
		last := src[len(src)-1]
		for i := len(src); i < n; i++ {
			ret[i] = last
		}
	}
	return ret
}
