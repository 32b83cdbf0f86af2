// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"bytes"
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/nigeltao/texcodec/lib/codec"
)

// rawTranscoder stores a 2x2 footprint as 4 RGBA8888 pixels.
type rawTranscoder struct{}

func (rawTranscoder) BlockSize() int                     { return 16 }
func (rawTranscoder) BlockDims() (width int, height int) { return 2, 2 }

func (rawTranscoder) DecodeBlock(src []byte, dst []color.NRGBA) {
	for i := range dst {
		dst[i] = color.NRGBA{src[4*i+0], src[4*i+1], src[4*i+2], src[4*i+3]}
	}
}

func (rawTranscoder) EncodeBlock(src []color.NRGBA, dst []byte) {
	for i, c := range src {
		dst[4*i+0], dst[4*i+1], dst[4*i+2], dst[4*i+3] = c.R, c.G, c.B, c.A
	}
}

func TestTruncated(tt *testing.T) {
	enc := New("raw", rawTranscoder{})
	for _, n := range []int{1, 15, 17, 31} {
		if _, err := enc.Load(make([]byte, n), 0); !errors.Is(err, codec.ErrTruncatedBlockData) {
			tt.Errorf("n=%d: got %v, want %v", n, err, codec.ErrTruncatedBlockData)
		}
	}
	if got, err := enc.Load(nil, 0); (err != nil) || (len(got) != 0) {
		tt.Errorf("empty: got %d colors, %v", len(got), err)
	}
}

func TestPadding(tt *testing.T) {
	enc := New("raw", rawTranscoder{})
	colors := []color.NRGBA{
		{1, 1, 1, 1}, {2, 2, 2, 2}, {3, 3, 3, 3}, {4, 4, 4, 4},
		{5, 5, 5, 5}, {6, 6, 6, 6},
	}
	data, err := enc.Save(colors, 0)
	if err != nil {
		tt.Fatalf("Save: %v", err)
	}
	if len(data) != 32 {
		tt.Fatalf("length: got %d, want 32", len(data))
	}
	got, err := enc.Load(data, 0)
	if err != nil {
		tt.Fatalf("Load: %v", err)
	}
	want := append(slices.Clone(colors), colors[5], colors[5])
	if !slices.Equal(got, want) {
		tt.Fatalf("got %v, want %v", got, want)
	}
}

func TestWorkerCountInvariance(tt *testing.T) {
	colors := make([]color.NRGBA, 4*1000)
	for i := range colors {
		colors[i] = color.NRGBA{uint8(i), uint8(i >> 8), uint8(i * 5), 0xFF}
	}
	enc := New("raw", rawTranscoder{})
	want, err := enc.Save(colors, 1)
	if err != nil {
		tt.Fatalf("Save: %v", err)
	}
	for _, workers := range []int{0, 3, 8} {
		got, err := enc.Save(colors, workers)
		if err != nil {
			tt.Fatalf("workers=%d: Save: %v", workers, err)
		} else if !bytes.Equal(got, want) {
			tt.Fatalf("workers=%d: Save output differs", workers)
		}
		back, err := enc.Load(got, workers)
		if err != nil {
			tt.Fatalf("workers=%d: Load: %v", workers, err)
		} else if !slices.Equal(back, colors) {
			tt.Fatalf("workers=%d: Load output differs", workers)
		}
	}
}

func TestPad(tt *testing.T) {
	if got := Pad(nil, 3); !slices.Equal(got, make([]color.NRGBA, 3)) {
		tt.Errorf("nil: got %v", got)
	}
	c := color.NRGBA{9, 8, 7, 6}
	if got, want := Pad([]color.NRGBA{c}, 2), []color.NRGBA{c, c}; !slices.Equal(got, want) {
		tt.Errorf("one: got %v, want %v", got, want)
	}
}
