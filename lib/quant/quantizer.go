// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package quant

import (
	"fmt"
	"image/color"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Quantizer reduces an image to at most ColorCount colors.
//
// Nil fields take defaults: WuGenerator, a fresh EuclideanCache per call and
// NoDither. A non-nil Cache is re-cached by every Process call, so such a
// Quantizer must not run Process concurrently.
type Quantizer struct {
	ColorCount int
	Generator  Generator
	Cache      ColorCache
	Ditherer   Ditherer
}

// Process returns the palette and, for each of the width×height colors in
// raster order, its palette index.
func (q *Quantizer) Process(colors []color.NRGBA, width int, height int, workers int) (indexes []int, palette []color.NRGBA, err error) {
	if q.ColorCount <= 0 {
		return nil, nil, fmt.Errorf("%w: %d colors", codec.ErrInvalidPaletteSize, q.ColorCount)
	} else if (width < 0) || (height < 0) || (len(colors) != width*height) {
		return nil, nil, fmt.Errorf("%w: %d colors for %dx%d", codec.ErrBadArgument, len(colors), width, height)
	} else if len(colors) == 0 {
		return []int{}, []color.NRGBA{}, nil
	}

	g := q.Generator
	if g == nil {
		g = WuGenerator{}
	}
	c := q.Cache
	if c == nil {
		c = NewEuclideanCache(CacheOptions{})
	}
	d := q.Ditherer
	if d == nil {
		d = NoDither{}
	}

	palette, err = g.Generate(colors, q.ColorCount)
	if err != nil {
		return nil, nil, err
	} else if len(palette) > q.ColorCount {
		palette = palette[:q.ColorCount]
	}
	if err := c.CachePalette(palette); err != nil {
		return nil, nil, err
	}
	indexes, err = d.Dither(colors, width, height, c, workers)
	if err != nil {
		return nil, nil, err
	}
	return indexes, c.Palette(), nil
}
