// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/nigeltao/texcodec/lib/bcn"
	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/swizzle"
)

// nxBlockHeight is the GOB stacking the Switch uses for textures at least
// 128 rows tall.
const nxBlockHeight = 16

// newSwizzle returns the named swizzle for a width×height image in encoding
// e, a codec.ColorEncoding or a codec.IndexEncodingDefinition. An empty kind
// returns nil, meaning the transcode default.
func newSwizzle(kind string, width int, height int, e any) (swizzle.Swizzle, error) {
	if (kind == "") || (kind == "linear") {
		return nil, nil
	}

	u, bitsPerValue, isBC1 := swizzle.PixelUnit, 0, false
	switch e := e.(type) {
	case codec.BlockEncoding:
		w, h := e.BlockDims()
		u, bitsPerValue = swizzle.Unit{Width: w, Height: h}, e.BitsPerValue()
		isBC1 = (e.Name() == bcn.FormatBC1.String()) || (e.Name() == bcn.FormatBC1A.String())
	case codec.ColorEncoding:
		bitsPerValue = e.BitsPerValue()
	case codec.IndexEncodingDefinition:
		bitsPerValue = e.Encoding.BitsPerValue()
	}

	switch kind {
	case "ctr":
		return swizzle.NewCTR(width, height, u, false)
	case "ctr-transposed":
		return swizzle.NewCTR(width, height, u, true)
	case "wii":
		if isBC1 {
			return swizzle.NewWiiCMPR(width, height), nil
		}
		return swizzle.NewWii(width, height, bitsPerValue)
	case "nx":
		bh := nxBlockHeight
		for (bh > 1) && (8*bh >= 2*((height+u.Height-1)/u.Height)) {
			bh /= 2
		}
		return swizzle.NewNX(width, height, u, bitsPerValue/8, bh)
	case "vita":
		return swizzle.NewVita(width, height, u)
	case "ps4":
		return swizzle.NewPS4(width, height, u)
	}
	return nil, fmt.Errorf("main: unknown -swizzle %q", kind)
}
