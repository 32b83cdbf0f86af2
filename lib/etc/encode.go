// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package etc

// encoder holds one 4×4 block of pixels, in row-major RGBA order.
type encoder struct {
	pixels [64]byte
}

// encode returns the 64-bit ETC1 code for e.pixels. It tries, in order, a
// solid color fast path, an exact repack of pixels that an ETC1 decoder
// could have produced and then a general search.
func (e *encoder) encode() uint64 {
	if rgb, ok := e.solidColor(); ok {
		return encodeSolid(rgb)
	}
	if code, ok := e.encodeExact(); ok {
		return code
	}
	bestCode, bestLoss := e.encodeSearch(reduceAverage)
	if code, loss := e.encodeSearch(reduceQuantize); bestLoss > loss {
		bestCode = code
	}
	return bestCode
}

func (e *encoder) solidColor() (rgb [3]int32, ok bool) {
	for i := 4; i < 64; i += 4 {
		if (e.pixels[i+0] != e.pixels[0]) ||
			(e.pixels[i+1] != e.pixels[1]) ||
			(e.pixels[i+2] != e.pixels[2]) {
			return rgb, false
		}
	}
	return [3]int32{int32(e.pixels[0]), int32(e.pixels[1]), int32(e.pixels[2])}, true
}

// halfBlock is one 2×4 or 4×2 half of a block: its 8-bit base color, the
// quantization level that the base color expands from, its modifier table and
// its pixel index bits (already shifted into place).
type halfBlock struct {
	base    [3]int32
	level   [3]int32
	table   uint32
	indexes uint32
}

// pack assembles a code from two halves. A differential code needs levels
// that are 5 bits wide and differ by -4 to +3. Otherwise the levels are 4
// bits wide.
func pack(differential bool, flipped bool, h0 *halfBlock, h1 *halfBlock) (code uint64) {
	if differential {
		code |= 1 << 33
		for c := range 3 {
			d := h1.level[c] - h0.level[c]
			code |= uint64(h0.level[c]) << (59 - (8 * c))
			code |= uint64(d&7) << (56 - (8 * c))
		}
	} else {
		for c := range 3 {
			code |= uint64(h0.level[c]) << (60 - (8 * c))
			code |= uint64(h1.level[c]) << (56 - (8 * c))
		}
	}
	if flipped {
		code |= 1 << 32
	}
	code |= uint64(h0.table) << 37
	code |= uint64(h1.table) << 34
	return code | uint64(h0.indexes) | uint64(h1.indexes)
}

func diffInRange(h0 *halfBlock, h1 *halfBlock) bool {
	for c := range 3 {
		if d := h1.level[c] - h0.level[c]; (d < -4) || (+3 < d) {
			return false
		}
	}
	return true
}

// encodeSolid picks the base level, table and pixel index that come closest to
// a single color, then uses them for all 16 pixels.
func encodeSolid(rgb [3]int32) uint64 {
	best, bestLoss, bestDifferential := halfBlock{}, maxInt32, false
	for _, differential := range [2]bool{true, false} {
		numLevels, expand := int32(16), expand4
		if differential {
			numLevels, expand = 32, expand5
		}

		for table := range uint32(8) {
			for j := range uint32(4) {
				mod := modifiers[table][j]
				h, loss := halfBlock{table: table, indexes: uniformIndexes(j)}, int32(0)
				for c := range 3 {
					bestOneLoss := maxInt32
					for level := range numLevels {
						d := int32(clamp[1023&(expand(level)+mod)]) - rgb[c]
						if oneLoss := weightValuesI32[c] * d * d; bestOneLoss > oneLoss {
							bestOneLoss = oneLoss
							h.level[c], h.base[c] = level, expand(level)
						}
					}
					loss += bestOneLoss
				}
				if bestLoss > loss {
					best, bestLoss, bestDifferential = h, loss, differential
				}
			}
		}
		if bestLoss == 0 {
			break
		}
	}

	other := best
	other.indexes = 0
	return pack(bestDifferential, false, &best, &other)
}

// uniformIndexes returns the index bits that set every pixel to j.
func uniformIndexes(j uint32) uint32 {
	return ((j >> 1) * 0xFFFF_0000) | ((j & 1) * 0x0000_FFFF)
}

// encodeExact looks for a code that reproduces e.pixels exactly. Each half
// of an ETC1 block holds at most four distinct colors, which rules out most
// blocks cheaply.
func (e *encoder) encodeExact() (code uint64, ok bool) {
	for flip := range 2 {
		o0, o1 := (2 * flip), (2*flip)+1
		if (e.countHalfColors(o0) > 4) || (e.countHalfColors(o1) > 4) {
			continue
		}
		flipped := flip != 0

		d0, d1 := e.exactHalves(o0, true), e.exactHalves(o1, true)
		for i := range d0 {
			for j := range d1 {
				if diffInRange(&d0[i], &d1[j]) {
					return pack(true, flipped, &d0[i], &d1[j]), true
				}
			}
		}

		i0, i1 := e.exactHalves(o0, false), e.exactHalves(o1, false)
		if (len(i0) > 0) && (len(i1) > 0) {
			return pack(false, flipped, &i0[0], &i1[0]), true
		}
	}
	return 0, false
}

func (e *encoder) countHalfColors(orientation int) int {
	seen := [8][3]byte{}
	n := 0
loop:
	for _, offset := range halfPixelOffsets[orientation] {
		rgb := [3]byte{e.pixels[offset+0], e.pixels[offset+1], e.pixels[offset+2]}
		for _, s := range seen[:n] {
			if s == rgb {
				continue loop
			}
		}
		seen[n] = rgb
		n++
	}
	return n
}

// maxExactHalves bounds the candidates kept per half. Many candidates only
// arise when clamping hides the base color, such as in all-white halves.
const maxExactHalves = 64

// exactHalves returns the (level, table) choices that reproduce the half
// block's pixels exactly.
func (e *encoder) exactHalves(orientation int, differential bool) (ret []halfBlock) {
	numLevels, expand := int32(16), expand4
	if differential {
		numLevels, expand = 32, expand5
	}

	type candidate struct {
		level int32
		masks [8]uint8
	}

	for table := range uint32(8) {
		channels := [3][]candidate{}
		for c := range 3 {
		levels:
			for level := range numLevels {
				base := expand(level)
				cand := candidate{level: level}
				for i, offset := range halfPixelOffsets[orientation] {
					want := e.pixels[int(offset)+c]
					for j, mod := range modifiers[table] {
						if clamp[1023&(base+mod)] == want {
							cand.masks[i] |= 1 << j
						}
					}
					if cand.masks[i] == 0 {
						continue levels
					}
				}
				channels[c] = append(channels[c], cand)
			}
		}

		for _, r := range channels[0] {
			for _, g := range channels[1] {
			blues:
				for _, b := range channels[2] {
					h := halfBlock{
						base:  [3]int32{expand(r.level), expand(g.level), expand(b.level)},
						level: [3]int32{r.level, g.level, b.level},
						table: table,
					}
					for i := range 8 {
						m := r.masks[i] & g.masks[i] & b.masks[i]
						if m == 0 {
							continue blues
						}
						j := uint32(0)
						for (m & 1) == 0 {
							m, j = m>>1, j+1
						}
						shift := halfIndexShifts[orientation][i]
						h.indexes |= ((j >> 1) << (shift + 16)) | ((j & 1) << shift)
					}
					ret = append(ret, h)
					if len(ret) >= maxExactHalves {
						return ret
					}
				}
			}
		}
	}
	return ret
}

// encodeSearch tries both flips, reducing each half's average color to a base
// color with reduce, and returns the best code and its loss.
func (e *encoder) encodeSearch(reduce reduceFunc) (bestCode uint64, bestLoss int32) {
	bestLoss = maxInt32
	for flip := range 2 {
		o0, o1 := (2 * flip), (2*flip)+1
		avg0, avg1 := e.averageHalf(o0), e.averageHalf(o1)
		flipped := flip != 0

		h0 := halfBlock{base: reduce(avg0, true)}
		h1 := halfBlock{base: reduce(avg1, true)}
		for c := range 3 {
			h0.level[c], h1.level[c] = h0.base[c]>>3, h1.base[c]>>3
		}
		differential := diffInRange(&h0, &h1)

		if !differential {
			h0.base, h1.base = reduce(avg0, false), reduce(avg1, false)
			for c := range 3 {
				h0.level[c], h1.level[c] = h0.base[c]>>4, h1.base[c]>>4
			}
		}

		loss0 := e.fitHalf(o0, &h0)
		loss1 := e.fitHalf(o1, &h1)
		if loss := loss0 + loss1; bestLoss > loss {
			bestLoss = loss
			bestCode = pack(differential, flipped, &h0, &h1)
		}
	}
	return bestCode, bestLoss
}

func (e *encoder) averageHalf(orientation int) [3]float64 {
	sums := [3]int32{}
	for _, offset := range halfPixelOffsets[orientation] {
		sums[0] += int32(e.pixels[offset+0])
		sums[1] += int32(e.pixels[offset+1])
		sums[2] += int32(e.pixels[offset+2])
	}
	return [3]float64{
		float64(sums[0]) / 8,
		float64(sums[1]) / 8,
		float64(sums[2]) / 8,
	}
}

// fitHalf chooses h's table and pixel indexes, given its base color.
func (e *encoder) fitHalf(orientation int, h *halfBlock) (loss int32) {
	loss = maxInt32
	for table := range uint32(8) {
		indexes, tableLoss := e.fitHalfTable(orientation, &h.base, table)
		if loss > tableLoss {
			h.table, h.indexes, loss = table, indexes, tableLoss
		}
	}
	return loss
}

func (e *encoder) fitHalfTable(orientation int, base *[3]int32, table uint32) (indexes uint32, loss int32) {
	for i, offset := range halfPixelOffsets[orientation] {
		orig0 := int32(e.pixels[offset+0])
		orig1 := int32(e.pixels[offset+1])
		orig2 := int32(e.pixels[offset+2])

		bestOneLoss, bestJ := maxInt32, uint32(0)
		for _, j := range searchOrder {
			mod := modifiers[table][j]
			delta0 := int32(clamp[1023&(base[0]+mod)]) - orig0
			delta1 := int32(clamp[1023&(base[1]+mod)]) - orig1
			delta2 := int32(clamp[1023&(base[2]+mod)]) - orig2
			oneLoss := 0 +
				(weightValuesI32[0] * delta0 * delta0) +
				(weightValuesI32[1] * delta1 * delta1) +
				(weightValuesI32[2] * delta2 * delta2)
			if bestOneLoss > oneLoss {
				bestJ, bestOneLoss = j, oneLoss
			}
		}

		shift := halfIndexShifts[orientation][i]
		indexes |= (bestJ >> 1) << (shift + 16)
		indexes |= (bestJ & 1) << shift
		loss += bestOneLoss
	}
	return indexes, loss
}

// reduceFunc converts an average color to a base color that is exactly
// representable with 5 (or 4) bits per channel.
type reduceFunc func(avg [3]float64, fiveBits bool) [3]int32

func reduceAverage(avg [3]float64, fiveBits bool) (ret [3]int32) {
	for c := range 3 {
		if fiveBits {
			ret[c] = expand5(int32(((avg[c] * 31) / 255) + 0.5))
		} else {
			ret[c] = expand4(int32(((avg[c] * 15) / 255) + 0.5))
		}
	}
	return ret
}

// reduceQuantize picks whichever corner of the quantization cell around avg
// best preserves avg's hue: the differences between channels' errors.
func reduceQuantize(avg [3]float64, fiveBits bool) (ret [3]int32) {
	maxLevel, expand := int32(15), expand4
	if fiveBits {
		maxLevel, expand = 31, expand5
	}

	corners := [3][2]int32{}
	deltas := [3][2]float64{}
	for c := range 3 {
		lo := int32((avg[c] * float64(maxLevel)) / 255)
		hi := min(maxLevel, lo+1)
		corners[c] = [2]int32{expand(lo), expand(hi)}
		deltas[c] = [2]float64{float64(corners[c][0]) - avg[c], float64(corners[c][1]) - avg[c]}
	}

	bestLoss := maxFloat64
	for i := range 8 {
		ir := (i >> 0) & 1
		ig := (i >> 1) & 1
		ib := (i >> 2) & 1
		drg := deltas[0][ir] - deltas[1][ig]
		dgb := deltas[1][ig] - deltas[2][ib]
		dbr := deltas[2][ib] - deltas[0][ir]
		loss := 0 +
			(weightValuesF64[0] * weightValuesF64[1] * drg * drg) +
			(weightValuesF64[1] * weightValuesF64[2] * dgb * dgb) +
			(weightValuesF64[2] * weightValuesF64[0] * dbr * dbr)
		if bestLoss > loss {
			bestLoss = loss
			ret = [3]int32{corners[0][ir], corners[1][ig], corners[2][ib]}
		}
	}
	return ret
}

// There are four half-block orientations:
//
//   - 0: 2×4 tall and thin,  not flipped, left side.
//   - 1: 2×4 tall and thin,  not flipped, right side.
//   - 2: 4×2 short and wide, flipped,     top side.
//   - 3: 4×2 short and wide, flipped,     bottom side.
//
// halfPixelOffsets are byte offsets into encoder.pixels. halfIndexShifts are
// the matching bit positions (column-major) of each pixel's index.
var halfPixelOffsets = [4][8]uint8{
	{0x00, 0x10, 0x20, 0x30, 0x04, 0x14, 0x24, 0x34},
	{0x08, 0x18, 0x28, 0x38, 0x0C, 0x1C, 0x2C, 0x3C},
	{0x00, 0x10, 0x04, 0x14, 0x08, 0x18, 0x0C, 0x1C},
	{0x20, 0x30, 0x24, 0x34, 0x28, 0x38, 0x2C, 0x3C},
}

var halfIndexShifts = [4][8]uint8{
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	{0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F},
	{0x00, 0x01, 0x04, 0x05, 0x08, 0x09, 0x0C, 0x0D},
	{0x02, 0x03, 0x06, 0x07, 0x0A, 0x0B, 0x0E, 0x0F},
}

// searchOrder visits the small modifiers first. Ties keep the first found.
var searchOrder = [4]uint32{2, 0, 3, 1}

const (
	maxFloat64 = float64(0x1p1023 * (1 + (1 - 0x1p-52)))
	maxInt32   = int32(0x7FFF_FFFF)
)

// These are the ITU-R BT.601 luma weights, scaled by 1000.
var (
	weightValuesF64 = [3]float64{299, 587, 114}
	weightValuesI32 = [3]int32{299, 587, 114}
)
