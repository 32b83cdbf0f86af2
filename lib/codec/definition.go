// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"slices"
)

// IndexEncodingDefinition pairs an IndexEncoding with the palette format ids
// it may be combined with.
type IndexEncodingDefinition struct {
	Encoding           IndexEncoding
	PaletteEncodingIDs []int
}

// Definition maps integer format ids to codecs. A file format builds one
// while constructing its state and only reads from it afterwards.
//
// The Add methods are append-only: the first codec registered for an id
// wins and later registrations for the same id are ignored. A Definition must
// not be mutated concurrently with lookups.
type Definition struct {
	colors   map[int]ColorEncoding
	indexes  map[int]IndexEncodingDefinition
	palettes map[int]ColorEncoding
}

// NewDefinition returns an empty Definition.
func NewDefinition() *Definition {
	return &Definition{
		colors:   map[int]ColorEncoding{},
		indexes:  map[int]IndexEncodingDefinition{},
		palettes: map[int]ColorEncoding{},
	}
}

func (d *Definition) AddColorEncoding(id int, e ColorEncoding) {
	if _, ok := d.colors[id]; ok || (e == nil) {
		return
	}
	d.colors[id] = e
}

func (d *Definition) AddColorEncodings(m map[int]ColorEncoding) {
	for _, id := range sortedKeys(m) {
		d.AddColorEncoding(id, m[id])
	}
}

func (d *Definition) AddIndexEncoding(id int, e IndexEncodingDefinition) {
	if _, ok := d.indexes[id]; ok || (e.Encoding == nil) {
		return
	}
	e.PaletteEncodingIDs = slices.Clone(e.PaletteEncodingIDs)
	d.indexes[id] = e
}

func (d *Definition) AddIndexEncodings(m map[int]IndexEncodingDefinition) {
	for _, id := range sortedKeys(m) {
		d.AddIndexEncoding(id, m[id])
	}
}

func (d *Definition) AddPaletteEncoding(id int, e ColorEncoding) {
	if _, ok := d.palettes[id]; ok || (e == nil) {
		return
	}
	d.palettes[id] = e
}

func (d *Definition) AddPaletteEncodings(m map[int]ColorEncoding) {
	for _, id := range sortedKeys(m) {
		d.AddPaletteEncoding(id, m[id])
	}
}

// ColorEncoding returns the color codec registered for id.
func (d *Definition) ColorEncoding(id int) (ColorEncoding, error) {
	if e, ok := d.colors[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: no color encoding with id %d", ErrUnsupportedFormat, id)
}

// IndexEncoding returns the index codec registered for id.
func (d *Definition) IndexEncoding(id int) (IndexEncodingDefinition, error) {
	if e, ok := d.indexes[id]; ok {
		return e, nil
	}
	return IndexEncodingDefinition{}, fmt.Errorf("%w: no index encoding with id %d", ErrUnsupportedFormat, id)
}

// PaletteEncoding returns the palette codec registered for id.
func (d *Definition) PaletteEncoding(id int) (ColorEncoding, error) {
	if e, ok := d.palettes[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: no palette encoding with id %d", ErrUnsupportedFormat, id)
}

// Get returns the codec registered for id, looking at color encodings first
// and then index encodings. The result is a ColorEncoding or an
// IndexEncodingDefinition.
func (d *Definition) Get(id int) (any, error) {
	if e, ok := d.colors[id]; ok {
		return e, nil
	}
	if e, ok := d.indexes[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: id %d", ErrUnsupportedFormat, id)
}

// SupportsPaletteFormat reports whether the index encoding indexID may be
// combined with the palette encoding paletteID.
func (d *Definition) SupportsPaletteFormat(indexID int, paletteID int) bool {
	e, ok := d.indexes[indexID]
	if !ok {
		return false
	}
	if _, ok := d.palettes[paletteID]; !ok {
		return false
	}
	return slices.Contains(e.PaletteEncodingIDs, paletteID)
}

// ColorEncodingIDs returns the registered color encoding ids, sorted.
func (d *Definition) ColorEncodingIDs() []int { return sortedKeys(d.colors) }

// IndexEncodingIDs returns the registered index encoding ids, sorted.
func (d *Definition) IndexEncodingIDs() []int { return sortedKeys(d.indexes) }

// PaletteEncodingIDs returns the registered palette encoding ids, sorted.
func (d *Definition) PaletteEncodingIDs() []int { return sortedKeys(d.palettes) }

// IsEmpty reports whether nothing has been registered.
func (d *Definition) IsEmpty() bool {
	return (len(d.colors) == 0) && (len(d.indexes) == 0) && (len(d.palettes) == 0)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
