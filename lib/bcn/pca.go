// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bcn

import (
	"math"
)

type vec3 [3]float64

func (a vec3) add(b vec3) vec3 { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) sub(b vec3) vec3 { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) dot(b vec3) float64 {
	return (a[0] * b[0]) + (a[1] * b[1]) + (a[2] * b[2])
}
func (a vec3) scale(s float64) vec3 { return vec3{a[0] * s, a[1] * s, a[2] * s} }

func (a vec3) normalize() vec3 {
	n := math.Sqrt(a.dot(a))
	if n == 0 {
		return vec3{}
	}
	return a.scale(1 / n)
}

// endpointCandidates returns two endpoint pairs for pts: the extent of pts
// along their principal axis, and their bounding box.
func endpointCandidates(pts []vec3) [][2]vec3 {
	lo := vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	hi := vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64}
	mean := vec3{}
	for _, p := range pts {
		for k := range 3 {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
		mean = mean.add(p)
	}
	mean = mean.scale(1 / float64(len(pts)))
	ret := [][2]vec3{{hi, lo}}

	cov := [3]vec3{}
	for _, p := range pts {
		d := p.sub(mean)
		for j := range 3 {
			for k := range 3 {
				cov[j][k] += d[j] * d[k]
			}
		}
	}
	axis := principalAxis(cov)
	if axis == (vec3{}) {
		return append(ret, [2]vec3{mean, mean})
	}

	lo0, hi0 := math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		t := p.sub(mean).dot(axis)
		lo0 = math.Min(lo0, t)
		hi0 = math.Max(hi0, t)
	}
	return append(ret, [2]vec3{mean.add(axis.scale(hi0)), mean.add(axis.scale(lo0))})
}

// principalAxis estimates the dominant eigenvector of a symmetric 3x3 matrix
// by power iteration, starting from its largest column.
func principalAxis(m [3]vec3) vec3 {
	v := vec3{}
	for _, col := range m {
		if col.dot(col) > v.dot(v) {
			v = col
		}
	}
	v = v.normalize()
	if v == (vec3{}) {
		return v
	}
	for range 8 {
		next := vec3{m[0].dot(v), m[1].dot(v), m[2].dot(v)}.normalize()
		if next == (vec3{}) {
			break
		}
		v = next
	}
	return v
}
