// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package pkm

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestHeader(tt *testing.T) {
	h := Header{Version: 10, Width: 21, Height: 32}
	got := h.Marshal()
	want := [HeaderSize]byte{
		'P', 'K', 'M', ' ', '1', '0', 0x00, 0x00,
		0x00, 0x18, 0x00, 0x20, 0x00, 0x15, 0x00, 0x20,
	}
	if got != want {
		tt.Fatalf("Marshal:\ngot  % 02x\nwant % 02x", got, want)
	}
	parsed, err := ParseHeader(got[:])
	if err != nil {
		tt.Fatalf("ParseHeader: %v", err)
	} else if parsed != h {
		tt.Fatalf("ParseHeader: got %+v, want %+v", parsed, h)
	}

	bad := map[string][]byte{
		"short":   got[:15],
		"magic":   append([]byte("PKN "), got[4:]...),
		"version": append([]byte("PKM 30"), got[6:]...),
		"rounded": append(append([]byte(nil), got[:9]...), append([]byte{0x14}, got[10:]...)...),
	}
	for name, src := range bad {
		if _, err := ParseHeader(src); !errors.Is(err, ErrNotAPKMFile) {
			tt.Errorf("tc=%q: got %v, want %v", name, err, ErrNotAPKMFile)
		}
	}

	etc2 := got
	etc2[5], etc2[4], etc2[7] = '0', '2', 0x01
	if _, err := ParseHeader(etc2[:]); !errors.Is(err, ErrUnsupportedType) {
		tt.Errorf("etc2: got %v, want %v", err, ErrUnsupportedType)
	}
}

func TestRoundTrip(tt *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 21, 10))
	for y := range 10 {
		for x := range 21 {
			src.SetNRGBA(x, y, color.NRGBA{uint8(10 * x), uint8(20 * y), 0x80, 0xFF})
		}
	}

	for _, options := range []*EncodeOptions{nil, {Version: 20, Workers: 2}} {
		buf := &bytes.Buffer{}
		if err := Encode(buf, src, options); err != nil {
			tt.Fatalf("Encode: %v", err)
		}
		if got, want := buf.Len(), HeaderSize+(6*3*8); got != want {
			tt.Errorf("length: got %d, want %d", got, want)
		}

		config, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Fatalf("image.DecodeConfig: %v", err)
		} else if (format != "pkm") || (config.Width != 21) || (config.Height != 10) {
			tt.Errorf("image.DecodeConfig: got %q %dx%d, want \"pkm\" 21x10", format, config.Width, config.Height)
		}

		m, err := Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Fatalf("Decode: %v", err)
		}
		got, ok := m.(*image.NRGBA)
		if !ok {
			tt.Fatalf("Decode: got %T, want *image.NRGBA", m)
		} else if got.Rect != src.Rect {
			tt.Fatalf("bounds: got %v, want %v", got.Rect, src.Rect)
		}
		for i := range got.Pix {
			if d := int(got.Pix[i]) - int(src.Pix[i]); (d < -40) || (d > 40) {
				tt.Fatalf("byte %d: got 0x%02X, want about 0x%02X", i, got.Pix[i], src.Pix[i])
			}
		}
	}
}

func TestEncodeErrors(tt *testing.T) {
	if err := Encode(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 65533, 1)), nil); !errors.Is(err, ErrImageIsTooLarge) {
		tt.Errorf("large: got %v, want %v", err, ErrImageIsTooLarge)
	}
	if err := Encode(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 4, 4)), &EncodeOptions{Version: 11}); !errors.Is(err, ErrBadArgument) {
		tt.Errorf("version: got %v, want %v", err, ErrBadArgument)
	}
	if _, err := Decode(bytes.NewReader([]byte("PKM 10"))); err == nil {
		tt.Errorf("truncated: got nil error")
	}
}
