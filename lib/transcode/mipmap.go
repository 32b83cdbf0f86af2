// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"fmt"
	"image"

	"github.com/KononK/resize"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Filter selects how Mipmaps shrinks each level.
type Filter uint8

const (
	FilterBilinear = Filter(0)
	FilterNearest  = Filter(1)
	FilterLanczos  = Filter(2)
)

func (f Filter) interpolation() resize.InterpolationFunction {
	switch f {
	case FilterNearest:
		return resize.NearestNeighbor
	case FilterLanczos:
		return resize.Lanczos3
	}
	return resize.Bilinear
}

// MipmapCount returns the number of levels in a full chain for a
// width×height image, down to and including 1×1.
func MipmapCount(width int, height int) int {
	n := 1
	for (width > 1) || (height > 1) {
		width, height = max(1, width/2), max(1, height/2)
		n++
	}
	return n
}

// Mipmaps returns src followed by successively halved copies of it, levels
// images in all. Zero or negative levels means the full chain. Each level is
// filtered from the one before.
func Mipmaps(src image.Image, levels int, filter Filter) ([]*image.NRGBA, error) {
	m := NRGBA(src)
	width, height := m.Rect.Dx(), m.Rect.Dy()
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	full := MipmapCount(width, height)
	if levels <= 0 {
		levels = full
	} else if levels > full {
		return nil, fmt.Errorf("%w: transcode: %d mipmap levels for %dx%d",
			codec.ErrBadArgument, levels, width, height)
	}

	ret := []*image.NRGBA{m}
	for len(ret) < levels {
		width, height = max(1, width/2), max(1, height/2)
		next := resize.Resize(uint(width), uint(height), ret[len(ret)-1], filter.interpolation())
		ret = append(ret, NRGBA(next))
	}
	return ret, nil
}

// EncodeMipmaps encodes every level of Mipmaps(src, levels, filter) with
// enc, using the default swizzle for each level's size. options.Swizzle must
// be nil since one swizzle cannot fit every level.
func EncodeMipmaps(src image.Image, levels int, filter Filter, enc codec.ColorEncoding, options *Options) ([][]byte, error) {
	if (options != nil) && (options.Swizzle != nil) {
		return nil, fmt.Errorf("%w: transcode: a swizzle for every mipmap level", codec.ErrBadArgument)
	}
	images, err := Mipmaps(src, levels, filter)
	if err != nil {
		return nil, err
	}
	ret := make([][]byte, 0, len(images))
	for _, m := range images {
		data, err := EncodeColor(m, enc, options)
		if err != nil {
			return nil, err
		}
		ret = append(ret, data)
	}
	return ret, nil
}
