// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package quant reduces full color images to a bounded palette.
//
// Three pieces cooperate: a Generator picks the palette, a ColorCache finds
// the nearest palette entry for a color and a Ditherer walks the image,
// optionally spreading each pixel's quantization error to its neighbors. A
// Quantizer runs all three.
package quant

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/nigeltao/texcodec/lib/codec"
)

// Metric is the distance used to compare colors.
type Metric uint8

const (
	// MetricRGB is the squared Euclidean distance over red, green and blue.
	MetricRGB = Metric(0)
	// MetricRGBA also counts alpha.
	MetricRGBA = Metric(1)
)

// CacheOptions configure a ColorCache. The zero value is valid: RGB
// distance, no alpha threshold.
type CacheOptions struct {
	Metric Metric

	// Colors whose alpha is below AlphaThreshold map to the palette's first
	// entry with the lowest alpha.
	AlphaThreshold uint8
}

// ColorCache finds the nearest palette entry for a color.
//
// GetPaletteIndex may be called concurrently, but only after CachePalette
// has returned successfully. For a given color it always returns the same
// index. Before CachePalette it returns -1.
type ColorCache interface {
	CachePalette(palette []color.NRGBA) error
	GetPaletteIndex(c color.NRGBA) int
	Palette() []color.NRGBA
}

// cacheBase holds what every ColorCache shares.
type cacheBase struct {
	options     CacheOptions
	palette     []color.NRGBA
	transparent int
}

func (b *cacheBase) Palette() []color.NRGBA { return b.palette }

func (b *cacheBase) setPalette(palette []color.NRGBA) error {
	if len(palette) == 0 {
		return fmt.Errorf("%w: empty palette", codec.ErrInvalidPaletteSize)
	}
	b.palette = append([]color.NRGBA(nil), palette...)
	b.transparent = 0
	for i, c := range b.palette {
		if c.A < b.palette[b.transparent].A {
			b.transparent = i
		}
	}
	return nil
}

// sentinel reports whether c is transparent enough to map straight to the
// transparent entry.
func (b *cacheBase) sentinel(c color.NRGBA) bool {
	return c.A < b.options.AlphaThreshold
}

func (b *cacheBase) distance(c color.NRGBA, p color.NRGBA) int {
	dr := int(c.R) - int(p.R)
	dg := int(c.G) - int(p.G)
	db := int(c.B) - int(p.B)
	d := (dr * dr) + (dg * dg) + (db * db)
	if b.options.Metric == MetricRGBA {
		da := int(c.A) - int(p.A)
		d += da * da
	}
	return d
}

// nearest searches the candidate indexes, or the whole palette if
// candidates is nil. Ties go to the lowest index.
func (b *cacheBase) nearest(c color.NRGBA, candidates []int32) int {
	best, bestDist := -1, math.MaxInt
	if candidates == nil {
		for i, p := range b.palette {
			if d := b.distance(c, p); d < bestDist {
				best, bestDist = i, d
			}
		}
		return best
	}
	for _, i := range candidates {
		if d := b.distance(c, b.palette[i]); (d < bestDist) || ((d == bestDist) && (int(i) < best)) {
			best, bestDist = int(i), d
		}
	}
	return best
}

func packColor(c color.NRGBA) uint32 {
	return (uint32(c.R) << 24) | (uint32(c.G) << 16) | (uint32(c.B) << 8) | uint32(c.A)
}

// EuclideanCache searches the whole palette, remembering each answer.
type EuclideanCache struct {
	cacheBase
	memo sync.Map
}

var _ ColorCache = (*EuclideanCache)(nil)

func NewEuclideanCache(options CacheOptions) *EuclideanCache {
	return &EuclideanCache{cacheBase: cacheBase{options: options}}
}

func (e *EuclideanCache) CachePalette(palette []color.NRGBA) error {
	e.memo.Clear()
	return e.setPalette(palette)
}

func (e *EuclideanCache) GetPaletteIndex(c color.NRGBA) int {
	if len(e.palette) == 0 {
		return -1
	} else if e.sentinel(c) {
		return e.transparent
	}
	key := packColor(c)
	if v, ok := e.memo.Load(key); ok {
		return v.(int)
	}
	i := e.nearest(c, nil)
	e.memo.Store(key, i)
	return i
}

// OctreeCache files palette entries in an octree keyed by RGB bits, most
// significant first, with the entries kept at the leaves. A query walks the
// tree nearest cell first and skips every cell that cannot hold anything
// closer than the best entry so far, so its answer is the exhaustive one.
type OctreeCache struct {
	cacheBase
	root *octreeNode
}

var _ ColorCache = (*OctreeCache)(nil)

type octreeNode struct {
	children [8]*octreeNode
	entries  []int32
}

func NewOctreeCache(options CacheOptions) *OctreeCache {
	return &OctreeCache{cacheBase: cacheBase{options: options}}
}

func octant(c color.NRGBA, level int) int {
	shift := 7 - level
	return (int((c.R>>shift)&1) << 2) | (int((c.G>>shift)&1) << 1) | int((c.B>>shift)&1)
}

func (o *OctreeCache) CachePalette(palette []color.NRGBA) error {
	if err := o.setPalette(palette); err != nil {
		return err
	}
	o.root = &octreeNode{}
	for i, c := range o.palette {
		n := o.root
		for level := range 8 {
			k := octant(c, level)
			if n.children[k] == nil {
				n.children[k] = &octreeNode{}
			}
			n = n.children[k]
		}
		n.entries = append(n.entries, int32(i))
	}
	return nil
}

func (o *OctreeCache) GetPaletteIndex(c color.NRGBA) int {
	if o.root == nil {
		return -1
	} else if o.sentinel(c) {
		return o.transparent
	}
	q := octreeQuery{c: c, best: -1, bestDist: math.MaxInt}
	o.search(&q, o.root, 0, [3]int{})
	return q.best
}

type octreeQuery struct {
	c        color.NRGBA
	best     int
	bestDist int
}

// cellDist is the squared RGB distance from c to the nearest point of the
// cell with lower corner lo and the given side.
func cellDist(c color.NRGBA, lo [3]int, side int) int {
	d := 0
	for i, v := range [3]int{int(c.R), int(c.G), int(c.B)} {
		if v < lo[i] {
			d += (lo[i] - v) * (lo[i] - v)
		} else if hi := lo[i] + side - 1; v > hi {
			d += (v - hi) * (v - hi)
		}
	}
	return d
}

func (o *OctreeCache) search(q *octreeQuery, n *octreeNode, level int, lo [3]int) {
	if level == 8 {
		for _, i := range n.entries {
			d := o.distance(q.c, o.palette[i])
			if (d < q.bestDist) || ((d == q.bestDist) && (int(i) < q.best)) {
				q.best, q.bestDist = int(i), d
			}
		}
		return
	}

	// The query's own octant first, then the rest. A cell is skipped only
	// when it is strictly farther than the best so far, so ties still reach
	// the lowest index.
	side := 128 >> level
	own := octant(q.c, level)
	for j := range 8 {
		k := own ^ j
		child := n.children[k]
		if child == nil {
			continue
		}
		childLo := [3]int{
			lo[0] + ((k>>2)&1)*side,
			lo[1] + ((k>>1)&1)*side,
			lo[2] + ((k>>0)&1)*side,
		}
		if cellDist(q.c, childLo, side) > q.bestDist {
			continue
		}
		o.search(q, child, level+1, childLo)
	}
}

// WuCache divides RGB space into 32×32×32 cells and precomputes, for each
// cell, the palette entries that can be nearest to some color in that cell.
// Lookups are exact for MetricRGB.
type WuCache struct {
	cacheBase
	tags [][]int32
}

var _ ColorCache = (*WuCache)(nil)

func NewWuCache(options CacheOptions) *WuCache {
	return &WuCache{cacheBase: cacheBase{options: options}}
}

func wuCell(c color.NRGBA) int {
	return (int(c.R>>3) << 10) | (int(c.G>>3) << 5) | int(c.B>>3)
}

func (w *WuCache) CachePalette(palette []color.NRGBA) error {
	if err := w.setPalette(palette); err != nil {
		return err
	}

	// A cell spans 8 values per channel. Every color in it is within
	// halfDiagonal of its center, so its nearest entry is within
	// sqrt(dMin)+2*halfDiagonal of the center.
	halfDiagonal := math.Sqrt(3 * 4 * 4)
	w.tags = make([][]int32, 32*32*32)
	dists := make([]float64, len(w.palette))
	for cell := range w.tags {
		cr := float64(((cell>>10)&31)<<3) + 3.5
		cg := float64(((cell>>5)&31)<<3) + 3.5
		cb := float64(((cell>>0)&31)<<3) + 3.5
		dMin := math.MaxFloat64
		for i, p := range w.palette {
			dr, dg, db := float64(p.R)-cr, float64(p.G)-cg, float64(p.B)-cb
			dists[i] = math.Sqrt((dr * dr) + (dg * dg) + (db * db))
			dMin = min(dMin, dists[i])
		}
		limit := dMin + (2 * halfDiagonal)
		for i, d := range dists {
			if d <= limit {
				w.tags[cell] = append(w.tags[cell], int32(i))
			}
		}
	}
	return nil
}

func (w *WuCache) GetPaletteIndex(c color.NRGBA) int {
	if w.tags == nil {
		return -1
	} else if w.sentinel(c) {
		return w.transparent
	}
	return w.nearest(c, w.tags[wuCell(c)])
}

// lshBuckets is the number of LSHCache buckets.
const lshBuckets = 64

// LSHCache hashes colors by their normalized distance from black into
// buckets. A query searches its own bucket and, only if that is empty,
// widens to neighboring buckets until it finds entries.
type LSHCache struct {
	cacheBase
	buckets [lshBuckets][]int32
	ready   bool
	memo    sync.Map
}

var _ ColorCache = (*LSHCache)(nil)

func NewLSHCache(options CacheOptions) *LSHCache {
	return &LSHCache{cacheBase: cacheBase{options: options}}
}

func (l *LSHCache) hash(c color.NRGBA) int {
	maxDist := 3 * 255 * 255
	if l.options.Metric == MetricRGBA {
		maxDist = 4 * 255 * 255
	}
	d := l.distance(c, color.NRGBA{})
	h := int(math.Sqrt(float64(d)/float64(maxDist)) * lshBuckets)
	return min(h, lshBuckets-1)
}

func (l *LSHCache) CachePalette(palette []color.NRGBA) error {
	l.memo.Clear()
	if err := l.setPalette(palette); err != nil {
		return err
	}
	l.buckets = [lshBuckets][]int32{}
	for i, p := range l.palette {
		h := l.hash(p)
		l.buckets[h] = append(l.buckets[h], int32(i))
	}
	l.ready = true
	return nil
}

func (l *LSHCache) GetPaletteIndex(c color.NRGBA) int {
	if !l.ready {
		return -1
	} else if l.sentinel(c) {
		return l.transparent
	}
	key := packColor(c)
	if v, ok := l.memo.Load(key); ok {
		return v.(int)
	}

	h := l.hash(c)
	candidates := l.buckets[h]
	for radius := 1; (len(candidates) == 0) && (radius < lshBuckets); radius++ {
		if h-radius >= 0 {
			candidates = append(candidates, l.buckets[h-radius]...)
		}
		if h+radius < lshBuckets {
			candidates = append(candidates, l.buckets[h+radius]...)
		}
	}
	i := l.nearest(c, candidates)
	l.memo.Store(key, i)
	return i
}
