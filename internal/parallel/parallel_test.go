// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestMapOrder(tt *testing.T) {
	for _, workers := range []int{0, 1, 3, 16} {
		for _, n := range []int{0, 1, 63, 64, 1000} {
			got, err := Map(n, workers, func(i int) (int, error) { return i * i, nil })
			if err != nil {
				tt.Errorf("workers=%d, n=%d: %v", workers, n, err)
				continue
			} else if len(got) != n {
				tt.Errorf("workers=%d, n=%d: len: got %d", workers, n, len(got))
				continue
			}
			for i, v := range got {
				if v != i*i {
					tt.Errorf("workers=%d, n=%d: [%d]: got %d, want %d", workers, n, i, v, i*i)
					break
				}
			}
		}
	}
}

func TestForError(tt *testing.T) {
	errBoom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		err := For(10000, workers, func(i int) error {
			if i == 5000 {
				return errBoom
			}
			return nil
		})
		if !errors.Is(err, errBoom) {
			tt.Errorf("workers=%d: got %v, want %v", workers, err, errBoom)
		}
		if _, err := Map(100, workers, func(i int) (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
			tt.Errorf("workers=%d: Map: got %v, want %v", workers, err, errBoom)
		}
	}
}

func TestEachWaitsOnEarlierIndexes(tt *testing.T) {
	const n = 32
	for _, workers := range []int{1, 2, 8} {
		done := make([]atomic.Bool, n)
		err := Each(n, workers, func(i int) error {
			if i > 0 {
				for !done[i-1].Load() {
					runtime.Gosched()
				}
			}
			done[i].Store(true)
			return nil
		})
		if err != nil {
			tt.Errorf("workers=%d: %v", workers, err)
		}
		for i := range done {
			if !done[i].Load() {
				tt.Errorf("workers=%d: index %d never ran", workers, i)
				break
			}
		}
	}
}

func TestWorkers(tt *testing.T) {
	if got := Workers(3); got != 3 {
		tt.Errorf("Workers(3): got %d", got)
	}
	if got, want := Workers(0), runtime.GOMAXPROCS(0); got != want {
		tt.Errorf("Workers(0): got %d, want %d", got, want)
	}
}
