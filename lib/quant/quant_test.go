// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package quant

import (
	"errors"
	"image/color"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/nigeltao/texcodec/lib/codec"
)

var (
	white = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	black = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
)

func gradient(width int, height int) []color.NRGBA {
	ret := make([]color.NRGBA, 0, width*height)
	for y := range height {
		for x := range width {
			ret = append(ret, color.NRGBA{
				R: uint8((255 * x) / max(1, width-1)),
				G: uint8((255 * y) / max(1, height-1)),
				B: uint8((255 * (x + y)) / max(1, width+height-2)),
				A: 0xFF,
			})
		}
	}
	return ret
}

func randomColors(n int, seed uint64) []color.NRGBA {
	rng := rand.New(rand.NewPCG(seed, 2))
	ret := make([]color.NRGBA, n)
	for i := range ret {
		v := rng.Uint32()
		ret[i] = color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), 0xFF}
	}
	return ret
}

type cacheCase struct {
	name  string
	cache ColorCache
}

func makeCacheCases() []cacheCase {
	return []cacheCase{
		{"euclidean", NewEuclideanCache(CacheOptions{})},
		{"octree", NewOctreeCache(CacheOptions{})},
		{"wu", NewWuCache(CacheOptions{})},
		{"lsh", NewLSHCache(CacheOptions{})},
	}
}

func TestAllWhiteOctree(tt *testing.T) {
	q := Quantizer{
		ColorCount: 1,
		Generator:  OctreeGenerator{},
		Cache:      NewOctreeCache(CacheOptions{}),
	}
	colors := slices.Repeat([]color.NRGBA{white}, 16)
	indexes, palette, err := q.Process(colors, 4, 4, 0)
	if err != nil {
		tt.Fatalf("Process: %v", err)
	}
	if !slices.Equal(palette, []color.NRGBA{white}) {
		tt.Errorf("palette: got %v, want [white]", palette)
	}
	if want := make([]int, 16); !slices.Equal(indexes, want) {
		tt.Errorf("indexes: got %v, want %v", indexes, want)
	}
}

func TestInvalidPaletteSize(tt *testing.T) {
	colors := gradient(4, 4)
	for _, n := range []int{0, -1} {
		q := Quantizer{ColorCount: n}
		if _, _, err := q.Process(colors, 4, 4, 0); !errors.Is(err, codec.ErrInvalidPaletteSize) {
			tt.Errorf("n=%d: got %v, want %v", n, err, codec.ErrInvalidPaletteSize)
		}
	}

	for _, tc := range makeCacheCases() {
		if got := tc.cache.GetPaletteIndex(white); got != -1 {
			tt.Errorf("tc=%q: uncached: got %d, want -1", tc.name, got)
		}
		if _, err := (NoDither{}).Dither(colors, 4, 4, tc.cache, 0); !errors.Is(err, codec.ErrInvalidPaletteSize) {
			tt.Errorf("tc=%q: uncached dither: got %v, want %v", tc.name, err, codec.ErrInvalidPaletteSize)
		}
		if err := tc.cache.CachePalette(nil); !errors.Is(err, codec.ErrInvalidPaletteSize) {
			tt.Errorf("tc=%q: empty palette: got %v, want %v", tc.name, err, codec.ErrInvalidPaletteSize)
		}
	}

	if _, err := (WuGenerator{}).Generate(colors, 0); !errors.Is(err, codec.ErrInvalidPaletteSize) {
		tt.Errorf("Generate: got %v, want %v", err, codec.ErrInvalidPaletteSize)
	}
	q := Quantizer{ColorCount: 4}
	if _, _, err := q.Process(colors, 4, 3, 0); !errors.Is(err, codec.ErrBadArgument) {
		tt.Errorf("size mismatch: got %v, want %v", err, codec.ErrBadArgument)
	}
}

func TestCachesFindPaletteColors(tt *testing.T) {
	palette := DistinctGenerator{}
	p, err := palette.Generate(randomColors(100, 1), 64)
	if err != nil {
		tt.Fatalf("Generate: %v", err)
	}
	for _, tc := range makeCacheCases() {
		if err := tc.cache.CachePalette(p); err != nil {
			tt.Fatalf("tc=%q: CachePalette: %v", tc.name, err)
		}
		for i, c := range p {
			if got := tc.cache.GetPaletteIndex(c); got != i {
				tt.Errorf("tc=%q: color %v: got %d, want %d", tc.name, c, got, i)
				break
			}
		}
	}
}

func TestWuCacheIsExact(tt *testing.T) {
	p := randomColors(40, 3)
	exhaustive, wu := NewEuclideanCache(CacheOptions{}), NewWuCache(CacheOptions{})
	if err := exhaustive.CachePalette(p); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	} else if err := wu.CachePalette(p); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	}
	for _, c := range randomColors(2000, 4) {
		if got, want := wu.GetPaletteIndex(c), exhaustive.GetPaletteIndex(c); got != want {
			tt.Fatalf("color %v: got %d, want %d", c, got, want)
		}
	}
}

func TestOctreeCacheIsExact(tt *testing.T) {
	gray := color.NRGBA{0x80, 0x80, 0x80, 0xFF}
	testCases := []struct {
		name    string
		palette []color.NRGBA
		metric  Metric
		queries []color.NRGBA
	}{{
		name:    "top-bit-boundary",
		palette: []color.NRGBA{black, gray},
		queries: []color.NRGBA{{0x7F, 0x7F, 0x7F, 0xFF}, {0x7F, 0x80, 0x7F, 0xFF}, {0x40, 0x40, 0x40, 0xFF}},
	}, {
		name:    "random",
		palette: randomColors(40, 5),
		queries: randomColors(2000, 6),
	}, {
		name:    "random-rgba",
		palette: []color.NRGBA{{0x10, 0x20, 0x30, 0x00}, {0x10, 0x20, 0x30, 0xFF}, {0xF0, 0x80, 0x00, 0x80}, white},
		metric:  MetricRGBA,
		queries: []color.NRGBA{{0x12, 0x22, 0x30, 0x10}, {0x12, 0x22, 0x30, 0xF0}, {0xC0, 0x90, 0x40, 0x70}},
	}, {
		name:    "duplicates",
		palette: []color.NRGBA{gray, black, gray, black},
		queries: []color.NRGBA{{0x7F, 0x7F, 0x7F, 0xFF}, {0x01, 0x01, 0x01, 0xFF}},
	}}

	for _, tc := range testCases {
		exhaustive := NewEuclideanCache(CacheOptions{Metric: tc.metric})
		octree := NewOctreeCache(CacheOptions{Metric: tc.metric})
		if err := exhaustive.CachePalette(tc.palette); err != nil {
			tt.Fatalf("tc=%q: CachePalette: %v", tc.name, err)
		} else if err := octree.CachePalette(tc.palette); err != nil {
			tt.Fatalf("tc=%q: CachePalette: %v", tc.name, err)
		}
		for _, c := range tc.queries {
			if got, want := octree.GetPaletteIndex(c), exhaustive.GetPaletteIndex(c); got != want {
				tt.Errorf("tc=%q: color %v: got %d, want %d", tc.name, c, got, want)
				break
			}
		}
	}

	octree := NewOctreeCache(CacheOptions{})
	if err := octree.CachePalette([]color.NRGBA{black, gray}); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	} else if got := octree.GetPaletteIndex(color.NRGBA{0x7F, 0x7F, 0x7F, 0xFF}); got != 1 {
		tt.Errorf("0x7F gray: got %d, want 1", got)
	}
}

func TestAlphaThreshold(tt *testing.T) {
	p := []color.NRGBA{white, {0x10, 0x10, 0x10, 0x00}, black, {0, 0, 0, 0x00}}
	for _, tc := range []cacheCase{
		{"euclidean", NewEuclideanCache(CacheOptions{AlphaThreshold: 0x80})},
		{"octree", NewOctreeCache(CacheOptions{AlphaThreshold: 0x80})},
		{"wu", NewWuCache(CacheOptions{AlphaThreshold: 0x80})},
		{"lsh", NewLSHCache(CacheOptions{AlphaThreshold: 0x80})},
	} {
		if err := tc.cache.CachePalette(p); err != nil {
			tt.Fatalf("tc=%q: CachePalette: %v", tc.name, err)
		}
		if got := tc.cache.GetPaletteIndex(color.NRGBA{0xF0, 0xF0, 0xF0, 0x7F}); got != 1 {
			tt.Errorf("tc=%q: translucent: got %d, want 1", tc.name, got)
		}
		if got := tc.cache.GetPaletteIndex(color.NRGBA{0xF0, 0xF0, 0xF0, 0x80}); got != 0 {
			tt.Errorf("tc=%q: opaque: got %d, want 0", tc.name, got)
		}
	}
}

func TestGenerators(tt *testing.T) {
	testCases := []struct {
		name string
		g    Generator
	}{
		{"distinct", DistinctGenerator{}},
		{"octree", OctreeGenerator{}},
		{"wu", WuGenerator{}},
		{"mediancut", MedianCutGenerator{}},
		{"colorquant", ColorquantGenerator{}},
	}

	colors := gradient(16, 16)
	for _, tc := range testCases {
		for _, n := range []int{1, 8, 32} {
			p, err := tc.g.Generate(colors, n)
			if err != nil {
				tt.Errorf("tc=%q, n=%d: Generate: %v", tc.name, n, err)
				continue
			}
			if (len(p) == 0) || (len(p) > n) {
				tt.Errorf("tc=%q, n=%d: got %d colors", tc.name, n, len(p))
			}
		}
		if _, err := tc.g.Generate(nil, 4); !errors.Is(err, codec.ErrBadArgument) {
			tt.Errorf("tc=%q: no colors: got %v, want %v", tc.name, err, codec.ErrBadArgument)
		}
	}
}

func TestGeneratorsKeepFewColors(tt *testing.T) {
	want := []color.NRGBA{black, white, {0xFF, 0, 0, 0xFF}, {0, 0, 0xFF, 0xFF}}
	colors := []color.NRGBA(nil)
	for i := range 40 {
		colors = append(colors, want[(i*7)%len(want)])
	}
	sorted := func(p []color.NRGBA) []color.NRGBA {
		p = slices.Clone(p)
		slices.SortFunc(p, func(x color.NRGBA, y color.NRGBA) int {
			return int(packColor(x)>>1) - int(packColor(y)>>1)
		})
		return p
	}

	for _, g := range []Generator{OctreeGenerator{}, WuGenerator{}, DistinctGenerator{}} {
		p, err := g.Generate(colors, 8)
		if err != nil {
			tt.Fatalf("%T: Generate: %v", g, err)
		}
		if got, want := sorted(p), sorted(want); !slices.Equal(got, want) {
			tt.Errorf("%T: got %v, want %v", g, got, want)
		}
	}
}

func TestOctreeGeneratorFolds(tt *testing.T) {
	colors := randomColors(500, 5)
	for _, n := range []int{1, 2, 7, 16, 100} {
		p, err := (OctreeGenerator{}).Generate(colors, n)
		if err != nil {
			tt.Fatalf("n=%d: Generate: %v", n, err)
		}
		if (len(p) == 0) || (len(p) > n) {
			tt.Errorf("n=%d: got %d colors", n, len(p))
		}
	}
}

func makeDitherers() map[string]Ditherer {
	ret := map[string]Ditherer{
		"none":     NoDither{},
		"bayer2x2": Bayer2x2,
		"bayer4x4": Bayer4x4,
		"bayer8x8": Bayer8x8,
	}
	for name, k := range Kernels {
		ret[name] = ErrorDiffusion{Kernel: k}
	}
	return ret
}

func TestDitherDeterminism(tt *testing.T) {
	colors := gradient(16, 16)
	p, err := (WuGenerator{}).Generate(colors, 6)
	if err != nil {
		tt.Fatalf("Generate: %v", err)
	}
	cache := NewEuclideanCache(CacheOptions{})
	if err := cache.CachePalette(p); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	}

	for name, d := range makeDitherers() {
		first, err := d.Dither(colors, 16, 16, cache, 4)
		if err != nil {
			tt.Errorf("tc=%q: Dither: %v", name, err)
			continue
		}
		for _, i := range first {
			if (i < 0) || (i >= len(p)) {
				tt.Errorf("tc=%q: index %d out of range", name, i)
				break
			}
		}
		for _, workers := range []int{4, 1, 3, 16} {
			again, err := d.Dither(colors, 16, 16, cache, workers)
			if err != nil {
				tt.Errorf("tc=%q, workers=%d: Dither: %v", name, workers, err)
			} else if !slices.Equal(again, first) {
				tt.Errorf("tc=%q, workers=%d: output differs", name, workers)
			}
		}
	}
}

func TestDitherExactColors(tt *testing.T) {
	p := []color.NRGBA{black, white, {0x80, 0x40, 0x20, 0xFF}}
	cache := NewEuclideanCache(CacheOptions{})
	if err := cache.CachePalette(p); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	}
	colors, want := []color.NRGBA(nil), []int(nil)
	for i := range 7 * 5 {
		j := (i * i) % len(p)
		colors = append(colors, p[j])
		want = append(want, j)
	}

	for name, k := range Kernels {
		got, err := ErrorDiffusion{Kernel: k}.Dither(colors, 7, 5, cache, 0)
		if err != nil {
			tt.Errorf("tc=%q: Dither: %v", name, err)
		} else if !slices.Equal(got, want) {
			tt.Errorf("tc=%q: got %v, want %v", name, got, want)
		}
	}
}

func TestErrorDiffusionSpreadsError(tt *testing.T) {
	// A flat mid gray between black and white must come out as a mix of
	// both, not all one.
	colors := slices.Repeat([]color.NRGBA{{0x80, 0x80, 0x80, 0xFF}}, 8*8)
	cache := NewEuclideanCache(CacheOptions{})
	if err := cache.CachePalette([]color.NRGBA{black, white}); err != nil {
		tt.Fatalf("CachePalette: %v", err)
	}
	got, err := ErrorDiffusion{Kernel: FloydSteinberg}.Dither(colors, 8, 8, cache, 0)
	if err != nil {
		tt.Fatalf("Dither: %v", err)
	}
	whites := 0
	for _, i := range got {
		whites += i
	}
	if (whites < 24) || (whites > 40) {
		tt.Errorf("whites: got %d of 64, want about 32", whites)
	}
}

func TestQuantizerDefaults(tt *testing.T) {
	colors := gradient(16, 16)
	q := Quantizer{ColorCount: 16, Ditherer: ErrorDiffusion{Kernel: Atkinson}}
	indexes, palette, err := q.Process(colors, 16, 16, 0)
	if err != nil {
		tt.Fatalf("Process: %v", err)
	}
	if (len(palette) == 0) || (len(palette) > 16) {
		tt.Fatalf("palette: got %d colors", len(palette))
	}
	if len(indexes) != len(colors) {
		tt.Fatalf("indexes: got %d, want %d", len(indexes), len(colors))
	}
	for _, i := range indexes {
		if (i < 0) || (i >= len(palette)) {
			tt.Fatalf("index %d out of range", i)
		}
	}
}
