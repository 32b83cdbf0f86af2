// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package parallel runs index-addressed work on a bounded number of
// goroutines.
//
// Callers write each result into a pre-sized slot chosen by its index, so the
// assembled output is the same whatever the worker count.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of indexes handed to one goroutine. Below
// that the scheduling overhead outweighs the work for per-pixel codecs.
const minChunk = 64

// Workers resolves a caller-supplied worker count. Zero or negative means
// runtime.GOMAXPROCS(0).
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// For calls fn(i) for every i in [0, n), using at most workers goroutines.
// It returns the first error (by completion, not by index) and stops handing
// out new chunks once an error has occurred.
func For(n int, workers int, fn func(i int) error) error {
	return ForChunk(n, workers, minChunk, fn)
}

// ForChunk is like For but with an explicit minimum chunk size.
func ForChunk(n int, workers int, chunk int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	workers = Workers(workers)
	chunk = max(1, chunk, (n+(4*workers)-1)/(4*workers))

	if (workers == 1) || (n <= chunk) {
		for i := range n {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g := errgroup.Group{}
	g.SetLimit(workers)
	failed, failOnce := make(chan struct{}), sync.Once{}
	for start := 0; start < n; start += chunk {
		end := min(n, start+chunk)
		select {
		case <-failed:
			return g.Wait()
		default:
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					failOnce.Do(func() { close(failed) })
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Map returns fn(i) for every i in [0, n), in index order.
func Map[T any](n int, workers int, fn func(i int) (T, error)) ([]T, error) {
	ret := make([]T, max(0, n))
	err := For(n, workers, func(i int) error {
		v, err := fn(i)
		if err != nil {
			return err
		}
		ret[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Each calls fn(i) for every i in [0, n) with each call on its own task, at
// most workers at a time, started in index order. Unlike For it never runs
// two indexes on the same goroutine, so fn(i) may block waiting for fn(j)
// with j < i.
func Each(n int, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	g := errgroup.Group{}
	g.SetLimit(Workers(workers))
	for i := range n {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
