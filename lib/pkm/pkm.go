// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package pkm implements the PKM container for ETC1 textures.
//
// A PKM file is a 16 byte header followed by the ETC1 blocks, big-endian, in
// raster order of blocks.
package pkm

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/nigeltao/texcodec/lib/etc"
	"github.com/nigeltao/texcodec/lib/transcode"
)

// Magic is the byte string prefix of every PKM image file.
const Magic = "PKM "

// HeaderSize is the size of a PKM header, in bytes.
const HeaderSize = 16

func init() {
	image.RegisterFormat("pkm", Magic, Decode, DecodeConfig)
}

var (
	ErrBadArgument     = errors.New("pkm: bad argument")
	ErrNotAPKMFile     = errors.New("pkm: not a PKM file")
	ErrImageIsTooLarge = errors.New("pkm: image is too large")
	ErrUnsupportedType = errors.New("pkm: unsupported texture type")
)

// typeETC1 is the only texture type this package handles. Version 2.0 files
// may also carry it.
const typeETC1 = 0x0000

// Header is a parsed PKM header. Width and Height are the image's size; the
// stored data covers them rounded up to multiples of 4.
type Header struct {
	Version uint8
	Type    uint16
	Width   int
	Height  int
}

func roundUp4(n int) int { return (n + 3) &^ 3 }

// Marshal returns h as a PKM header.
func (h Header) Marshal() (ret [HeaderSize]byte) {
	copy(ret[:4], Magic)
	ret[0x04] = 0x30 | (h.Version / 10)
	ret[0x05] = 0x30 | (h.Version % 10)
	ret[0x06] = uint8(h.Type >> 8)
	ret[0x07] = uint8(h.Type >> 0)
	for i, v := range [4]int{roundUp4(h.Width), roundUp4(h.Height), h.Width, h.Height} {
		ret[0x08+(2*i)] = uint8(v >> 8)
		ret[0x09+(2*i)] = uint8(v >> 0)
	}
	return ret
}

// ParseHeader parses the first HeaderSize bytes of src.
func ParseHeader(src []byte) (Header, error) {
	if (len(src) < HeaderSize) || (string(src[:4]) != Magic) {
		return Header{}, ErrNotAPKMFile
	}
	h := Header{Type: (uint16(src[6]) << 8) | uint16(src[7])}
	switch string(src[4:6]) {
	case "10":
		h.Version = 10
	case "20":
		h.Version = 20
	default:
		return Header{}, ErrNotAPKMFile
	}

	u16 := func(i int) int { return (int(src[i]) << 8) | int(src[i+1]) }
	h.Width, h.Height = u16(12), u16(14)
	if (roundUp4(h.Width) != u16(8)) || (roundUp4(h.Height) != u16(10)) {
		return Header{}, ErrNotAPKMFile
	} else if h.Type != typeETC1 {
		return Header{}, fmt.Errorf("%w: 0x%04X", ErrUnsupportedType, h.Type)
	}
	return h, nil
}

func decodeHeader(r io.Reader) (Header, error) {
	buf := [HeaderSize]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	return ParseHeader(buf[:])
}

// DecodeConfig reads a PKM image configuration from r.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      h.Width,
		Height:     h.Height,
	}, nil
}

// Decode reads a PKM image from r. The result is an *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	n := (roundUp4(h.Width) / 4) * (roundUp4(h.Height) / 4) * etc.FormatETC1.BytesPerBlock()
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	if (h.Width == 0) || (h.Height == 0) {
		return image.NewNRGBA(image.Rectangle{}), nil
	}
	return transcode.DecodeColor(data, h.Width, h.Height, etc.ETC1(nil), nil)
}

// EncodeOptions are optional arguments to Encode. The zero value is valid and
// means to use the default configuration.
type EncodeOptions struct {
	// Version is 10 or 20. If zero, the default is 10.
	Version uint8

	// Workers bounds the goroutines used. Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// Encode writes src to w in the PKM format.
//
// options may be nil, which means to use the default configuration.
func Encode(w io.Writer, src image.Image, options *EncodeOptions) error {
	b := src.Bounds()
	if (b.Dx() > 65532) || (b.Dy() > 65532) {
		return ErrImageIsTooLarge
	} else if b.Empty() {
		return ErrBadArgument
	}

	h := Header{Version: 10, Width: b.Dx(), Height: b.Dy()}
	workers := 0
	if options != nil {
		switch options.Version {
		case 0:
			// No-op.
		case 10, 20:
			h.Version = options.Version
		default:
			return ErrBadArgument
		}
		workers = options.Workers
	}

	data, err := transcode.EncodeColor(src, etc.ETC1(nil), &transcode.Options{Workers: workers})
	if err != nil {
		return err
	}
	buf := h.Marshal()
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
