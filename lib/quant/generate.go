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
	"image"
	"image/color"
	"image/color/palette"
	"slices"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/esimov/colorquant"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Generator picks a palette of at most n colors for colors. The palette may
// be shorter than n, but never empty when colors is non-empty.
type Generator interface {
	Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error)
}

func checkGenerate(colors []color.NRGBA, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d colors", codec.ErrInvalidPaletteSize, n)
	} else if len(colors) == 0 {
		return fmt.Errorf("%w: no colors", codec.ErrBadArgument)
	}
	return nil
}

// DistinctGenerator keeps the first n distinct colors, in order of
// appearance.
type DistinctGenerator struct{}

func (DistinctGenerator) Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error) {
	if err := checkGenerate(colors, n); err != nil {
		return nil, err
	}
	return distinct(colors, n), nil
}

func distinct(colors []color.NRGBA, n int) []color.NRGBA {
	seen := map[color.NRGBA]struct{}{}
	ret := []color.NRGBA(nil)
	for _, c := range colors {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		ret = append(ret, c)
		if len(ret) == n {
			break
		}
	}
	return ret
}

// asImage wraps colors as a one row image, for the generators that take an
// image.Image.
func asImage(colors []color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, len(colors), 1))
	for i, c := range colors {
		m.SetNRGBA(i, 0, c)
	}
	return m
}

// MedianCutGenerator splits the color space at the median of its widest
// dimension, using github.com/ericpauley/go-quantize.
type MedianCutGenerator struct {
	// AddTransparent reserves an entry for transparent black.
	AddTransparent bool
}

func (g MedianCutGenerator) Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error) {
	if err := checkGenerate(colors, n); err != nil {
		return nil, err
	}
	q := quantize.MedianCutQuantizer{AddTransparent: g.AddTransparent}
	p := q.Quantize(make(color.Palette, 0, n), asImage(colors))
	ret := make([]color.NRGBA, 0, len(p))
	for _, c := range p {
		ret = append(ret, color.NRGBAModel.Convert(c).(color.NRGBA))
	}
	if len(ret) == 0 {
		return distinct(colors, 1), nil
	}
	return ret, nil
}

// ColorquantGenerator clusters colors with github.com/esimov/colorquant and
// keeps the distinct colors of its output.
type ColorquantGenerator struct{}

func (ColorquantGenerator) Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error) {
	if err := checkGenerate(colors, n); err != nil {
		return nil, err
	}
	src := asImage(colors)
	dst := image.NewPaletted(src.Bounds(), palette.WebSafe)
	out := colorquant.NoDither.Quantize(src, dst, n, false, true)

	b := out.Bounds()
	seen := make([]color.NRGBA, 0, b.Dx())
	for x := b.Min.X; x < b.Max.X; x++ {
		seen = append(seen, color.NRGBAModel.Convert(out.At(x, b.Min.Y)).(color.NRGBA))
	}
	return distinct(seen, n), nil
}

// OctreeGenerator is the classic octree quantizer: every color is filed in
// an eight level octree, then the deepest, least used branches are folded
// into their parents until at most n leaves remain. Each leaf's average is a
// palette entry.
type OctreeGenerator struct{}

type octreeBin struct {
	children   [8]*octreeBin
	leaf       bool
	count      int
	r, g, b, a int
	order      int
}

func (OctreeGenerator) Generate(colors []color.NRGBA, n int) ([]color.NRGBA, error) {
	if err := checkGenerate(colors, n); err != nil {
		return nil, err
	}

	root, leaves, nodes := &octreeBin{}, 0, 0
	levels := [8][]*octreeBin{}
	for _, c := range colors {
		bin := root
		for level := range 8 {
			k := octant(c, level)
			if bin.children[k] == nil {
				nodes++
				bin.children[k] = &octreeBin{order: nodes, leaf: level == 7}
				if level < 7 {
					levels[level+1] = append(levels[level+1], bin.children[k])
				} else {
					leaves++
				}
			}
			bin = bin.children[k]
		}
		bin.count++
		bin.r += int(c.R)
		bin.g += int(c.G)
		bin.b += int(c.B)
		bin.a += int(c.A)
	}

	// Fold the least used branches of the deepest level first.
	for level := 7; (level > 0) && (leaves > n); level-- {
		candidates := levels[level]
		for _, bin := range candidates {
			bin.count, bin.r, bin.g, bin.b, bin.a = 0, 0, 0, 0, 0
			for _, child := range bin.children {
				if child != nil {
					bin.count += child.count
					bin.r += child.r
					bin.g += child.g
					bin.b += child.b
					bin.a += child.a
				}
			}
		}
		slices.SortStableFunc(candidates, func(x *octreeBin, y *octreeBin) int {
			if x.count != y.count {
				return x.count - y.count
			}
			return x.order - y.order
		})
		for _, bin := range candidates {
			if leaves <= n {
				break
			}
			merged := 0
			for k, child := range bin.children {
				if child != nil {
					merged++
					bin.children[k] = nil
				}
			}
			bin.leaf = true
			leaves -= merged - 1
		}
	}

	ret := []color.NRGBA(nil)
	var walk func(bin *octreeBin)
	walk = func(bin *octreeBin) {
		if bin.leaf {
			if bin.count > 0 {
				ret = append(ret, color.NRGBA{
					R: uint8((bin.r + (bin.count / 2)) / bin.count),
					G: uint8((bin.g + (bin.count / 2)) / bin.count),
					B: uint8((bin.b + (bin.count / 2)) / bin.count),
					A: uint8((bin.a + (bin.count / 2)) / bin.count),
				})
			}
			return
		}
		for _, child := range bin.children {
			if child != nil {
				walk(child)
			}
		}
	}
	walk(root)
	if len(ret) > n {
		// Only the eight top level octants remain but n is smaller.
		ret = mergeNearest(ret, n)
	}
	return ret, nil
}

// mergeNearest repeatedly replaces the two closest colors with their
// midpoint until at most n remain.
func mergeNearest(p []color.NRGBA, n int) []color.NRGBA {
	p = slices.Clone(p)
	for len(p) > n {
		bi, bj, best := 0, 1, -1
		for i := range p {
			for j := i + 1; j < len(p); j++ {
				if d := rgbaDistance(p[i], p[j]); (best < 0) || (d < best) {
					bi, bj, best = i, j, d
				}
			}
		}
		p[bi] = color.NRGBA{
			R: uint8((int(p[bi].R) + int(p[bj].R) + 1) / 2),
			G: uint8((int(p[bi].G) + int(p[bj].G) + 1) / 2),
			B: uint8((int(p[bi].B) + int(p[bj].B) + 1) / 2),
			A: uint8((int(p[bi].A) + int(p[bj].A) + 1) / 2),
		}
		p = slices.Delete(p, bj, bj+1)
	}
	return p
}

func rgbaDistance(x color.NRGBA, y color.NRGBA) int {
	dr, dg := int(x.R)-int(y.R), int(x.G)-int(y.G)
	db, da := int(x.B)-int(y.B), int(x.A)-int(y.A)
	return (dr * dr) + (dg * dg) + (db * db) + (da * da)
}
