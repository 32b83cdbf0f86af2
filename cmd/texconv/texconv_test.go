// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"image"
	"testing"

	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/quant"
)

func TestASTCFootprint(tt *testing.T) {
	testCases := []struct {
		name   string
		bw, bh int
		ok     bool
	}{
		{"astc-4x4", 4, 4, true},
		{"astc-6x5", 6, 5, true},
		{"astc-12x12", 12, 12, true},
		{"astc-7x7", 0, 0, false},
		{"astc", 0, 0, false},
		{"bc1", 0, 0, false},
	}
	for _, tc := range testCases {
		bw, bh, ok := astcFootprint(tc.name)
		if ok != tc.ok {
			tt.Errorf("tc=%q: ok: got %t, want %t", tc.name, ok, tc.ok)
		} else if ok && ((bw != tc.bw) || (bh != tc.bh)) {
			tt.Errorf("tc=%q: got %dx%d, want %dx%d", tc.name, bw, bh, tc.bw, tc.bh)
		}
	}
}

func TestDitherer(tt *testing.T) {
	if d, err := ditherer("floyd-steinberg"); err != nil {
		tt.Errorf("floyd-steinberg: %v", err)
	} else if _, ok := d.(quant.ErrorDiffusion); !ok {
		tt.Errorf("floyd-steinberg: got %T", d)
	}
	if d, err := ditherer(""); err != nil {
		tt.Errorf("empty: %v", err)
	} else if _, ok := d.(quant.NoDither); !ok {
		tt.Errorf("empty: got %T", d)
	}
	if _, err := ditherer("bogus"); err == nil {
		tt.Errorf("bogus: got nil error")
	}
}

func TestNewSwizzle(tt *testing.T) {
	bc1, err := lookup("bc1")
	if err != nil {
		tt.Fatalf("lookup: %v", err)
	}
	i4, err := lookup("i4")
	if err != nil {
		tt.Fatalf("lookup: %v", err)
	} else if _, ok := i4.(codec.IndexEncodingDefinition); !ok {
		tt.Fatalf("lookup: got %T", i4)
	}

	testCases := []struct {
		kind string
		e    any
	}{
		{"ctr", bc1},
		{"ctr-transposed", bc1},
		{"wii", bc1},
		{"wii", i4},
		{"nx", bc1},
		{"vita", bc1},
		{"ps4", bc1},
	}
	for _, tc := range testCases {
		s, err := newSwizzle(tc.kind, 32, 16, tc.e)
		if err != nil {
			tt.Errorf("tc=%q: %v", tc.kind, err)
			continue
		}
		if (s.Width() < 32) || (s.Height() < 16) {
			tt.Errorf("tc=%q: got %dx%d", tc.kind, s.Width(), s.Height())
		}
		if p := s.Transform(image.Point{}); (p.X < 0) || (p.Y < 0) {
			tt.Errorf("tc=%q: Transform(0): got %v", tc.kind, p)
		}
	}

	if s, err := newSwizzle("linear", 32, 16, bc1); (s != nil) || (err != nil) {
		tt.Errorf("linear: got %v, %v", s, err)
	}
	if _, err := newSwizzle("bogus", 32, 16, bc1); err == nil {
		tt.Errorf("bogus: got nil error")
	}
}
