// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// texconv decodes and encodes raw GPU texture data.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/nigeltao/texcodec/internal/nie"
	"github.com/nigeltao/texcodec/lib/astc"
	"github.com/nigeltao/texcodec/lib/codec"
	"github.com/nigeltao/texcodec/lib/formats"
	"github.com/nigeltao/texcodec/lib/pkm"
	"github.com/nigeltao/texcodec/lib/quant"
	"github.com/nigeltao/texcodec/lib/transcode"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	decodeFlag = flag.Bool("decode", false, "whether to decode the input")
	encodeFlag = flag.Bool("encode", false, "whether to encode the input")
	outputFlag = flag.String("output", "", "output format")

	formatFlag        = flag.String("format", "", "texture format name")
	widthFlag         = flag.Int("width", 0, "image width, when decoding")
	heightFlag        = flag.Int("height", 0, "image height, when decoding")
	swizzleFlag       = flag.String("swizzle", "", "swizzle kind")
	paletteFlag       = flag.String("palette", "", "palette file, for indexed formats")
	paletteFormatFlag = flag.String("palette-format", "rgba8888", "palette format name")
	workersFlag       = flag.Int("workers", 0, "worker goroutines; 0 means one per CPU")

	colorsFlag  = flag.Int("colors", 0, "palette size when encoding; 0 means the format's maximum")
	ditherFlag  = flag.String("dither", "", "error diffusion kernel or bayer2x2, bayer4x4, bayer8x8")
	mipmapsFlag = flag.Int("mipmaps", 1, "mipmap levels when encoding; 0 means the full chain")

	astcencFlag = flag.String("astcenc", "", "astcenc executable for ASTC formats")
	qualityFlag = flag.String("quality", "medium", "ASTC quality")
	verboseFlag = flag.Bool("v", false, "whether to log progress to stderr")
)

var (
	infolog  = log.New(io.Discard, "[info] ", log.Ltime)
	errorlog = log.New(os.Stderr, "[error] ", 0)
)

const usageStr = `texconv decodes and encodes raw GPU texture data.

Usage: choose one of

    texconv -decode -format=NAME -width=W -height=H [flags] [path]
    texconv -encode -format=NAME [flags] [path]

The path to the input file is optional. If omitted, stdin is read. Output is
written to stdout.

Decode inputs raw texture data and outputs PNG (the default) or NIE:

    -output=png
    -output=nie-bn4
    -output=nie-bn8

Encode inputs BMP, GIF, JPEG, PKM, PNG, TIFF or WEBP and outputs raw texture
data (the default) or, with -format=etc1, PKM:

    -output=raw
    -output=pkm

Formats named astc-WxH (e.g. astc-6x6) read and write .astc files through
ARM's astcenc tool; -width and -height are then taken from the file. Likewise
-decode -format=pkm reads a PKM file.

Indexed formats (i1, i2, i4, i8, i16, a3i5, a5i3) need -palette: the file
the palette is read from when decoding, or written to when encoding.

Other flags:

    -swizzle=linear|ctr|ctr-transposed|wii|nx|vita|ps4
    -palette-format=NAME
    -colors=N -dither=KERNEL
    -mipmaps=N
    -workers=N
    -astcenc=PATH -quality=fastest|fast|medium|thorough|exhaustive
    -v

Format names:

`

var ErrBadOutputFlag = errors.New("main: bad -output flag")

func main() {
	if err := main1(); err != nil {
		errorlog.Println(err)
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() {
		os.Stderr.WriteString(usageStr)
		os.Stderr.WriteString("    " + strings.Join(formats.Names(), " ") + " astc-WxH\n")
	}
	flag.Parse()
	if *verboseFlag {
		infolog.SetOutput(os.Stderr)
	}

	inFile := os.Stdin
	switch flag.NArg() {
	case 0:
		// No-op.
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		inFile = f
	default:
		return errors.New("too many filenames; the maximum is one")
	}

	start := time.Now()
	defer func() { infolog.Printf("done in %v", time.Since(start)) }()

	if *decodeFlag && !*encodeFlag {
		return decode(inFile)
	}
	if !*decodeFlag && *encodeFlag {
		return encode(inFile)
	}
	return errors.New("must specify exactly one of -decode, -encode or -help")
}

func options(width int, height int, e any) (*transcode.Options, error) {
	s, err := newSwizzle(*swizzleFlag, width, height, e)
	if err != nil {
		return nil, err
	}
	return &transcode.Options{Swizzle: s, Workers: *workersFlag}, nil
}

func decode(inFile *os.File) error {
	switch *outputFlag {
	case "", "png", "nie-bn4", "nie-bn8":
		// No-op.
	default:
		return ErrBadOutputFlag
	}

	src, err := io.ReadAll(inFile)
	if err != nil {
		return err
	}
	infolog.Printf("read %d bytes", len(src))

	m, err := decodeImage(src)
	if err != nil {
		return err
	}
	switch *outputFlag {
	case "nie-bn4":
		_, err = os.Stdout.Write(nie.EncodeBN4(m))
		return err
	case "nie-bn8":
		_, err = os.Stdout.Write(nie.EncodeBN8(m))
		return err
	}
	return png.Encode(os.Stdout, m)
}

func decodeImage(src []byte) (image.Image, error) {
	if *formatFlag == "pkm" {
		return pkm.Decode(bytes.NewReader(src))
	}
	if bw, bh, ok := astcFootprint(*formatFlag); ok {
		h, blocks, err := astc.ParseFile(src)
		if err != nil {
			return nil, err
		} else if (int(h.BlockX) != bw) || (int(h.BlockY) != bh) {
			return nil, fmt.Errorf("main: %dx%d blocks in a %s file", h.BlockX, h.BlockY, *formatFlag)
		}
		w, ht := int(h.SizeX), int(h.SizeY)
		e, err := newASTC(bw, bh, w, ht)
		if err != nil {
			return nil, err
		}
		o, err := options(w, ht, e)
		if err != nil {
			return nil, err
		}
		return transcode.DecodeColor(blocks, w, ht, e, o)
	}

	e, err := lookup(*formatFlag)
	if err != nil {
		return nil, err
	}
	w, h := *widthFlag, *heightFlag
	o, err := options(w, h, e)
	if err != nil {
		return nil, err
	}

	switch e := e.(type) {
	case codec.ColorEncoding:
		infolog.Printf("decoding %dx%d %s", w, h, e.Name())
		return transcode.DecodeColor(src, w, h, e, o)
	case codec.IndexEncodingDefinition:
		palEnc, err := paletteEncoding(e)
		if err != nil {
			return nil, err
		}
		palData, err := os.ReadFile(*paletteFlag)
		if err != nil {
			return nil, err
		}
		infolog.Printf("decoding %dx%d %s with a %s palette", w, h, e.Encoding.Name(), palEnc.Name())
		return transcode.DecodeIndexed(src, palData, w, h, e.Encoding, palEnc, o)
	}
	return nil, codec.ErrUnsupportedFormat
}

func encode(inFile *os.File) error {
	switch *outputFlag {
	case "", "raw", "pkm":
		// No-op.
	default:
		return ErrBadOutputFlag
	}

	src, format, err := image.Decode(inFile)
	if err != nil {
		return err
	}
	b := src.Bounds()
	infolog.Printf("read a %dx%d %s image", b.Dx(), b.Dy(), format)

	if *outputFlag == "pkm" {
		if *formatFlag != "etc1" {
			return fmt.Errorf("main: -output=pkm needs -format=etc1")
		}
		return pkm.Encode(os.Stdout, src, &pkm.EncodeOptions{Workers: *workersFlag})
	}

	if bw, bh, ok := astcFootprint(*formatFlag); ok {
		e, err := newASTC(bw, bh, b.Dx(), b.Dy())
		if err != nil {
			return err
		}
		o, err := options(b.Dx(), b.Dy(), e)
		if err != nil {
			return err
		}
		blocks, err := transcode.EncodeColor(src, e, o)
		if err != nil {
			return err
		}
		h := astc.Header{
			BlockX: uint8(bw), BlockY: uint8(bh), BlockZ: 1,
			SizeX: uint32(b.Dx()), SizeY: uint32(b.Dy()), SizeZ: 1,
		}
		hdr := h.Marshal()
		if _, err := os.Stdout.Write(hdr[:]); err != nil {
			return err
		}
		_, err = os.Stdout.Write(blocks)
		return err
	}

	e, err := lookup(*formatFlag)
	if err != nil {
		return err
	}
	switch e := e.(type) {
	case codec.ColorEncoding:
		return encodeColor(src, e)
	case codec.IndexEncodingDefinition:
		return encodeIndexed(src, e)
	}
	return codec.ErrUnsupportedFormat
}

func encodeColor(src image.Image, e codec.ColorEncoding) error {
	levels := []image.Image{src}
	if *mipmapsFlag != 1 {
		m, err := transcode.Mipmaps(src, *mipmapsFlag, transcode.FilterBilinear)
		if err != nil {
			return err
		}
		levels = levels[:0]
		for _, level := range m {
			levels = append(levels, level)
		}
	}

	for i, level := range levels {
		b := level.Bounds()
		o, err := options(b.Dx(), b.Dy(), e)
		if err != nil {
			return err
		}
		data, err := transcode.EncodeColor(level, e, o)
		if err != nil {
			return err
		}
		infolog.Printf("level %d: %dx%d %s, %d bytes", i, b.Dx(), b.Dy(), e.Name(), len(data))
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func encodeIndexed(src image.Image, e codec.IndexEncodingDefinition) error {
	if *paletteFlag == "" {
		return errors.New("main: indexed formats need -palette")
	}
	palEnc, err := paletteEncoding(e)
	if err != nil {
		return err
	}
	d, err := ditherer(*ditherFlag)
	if err != nil {
		return err
	}
	q := &quant.Quantizer{
		ColorCount: *colorsFlag,
		Ditherer:   d,
	}
	if q.ColorCount == 0 {
		q.ColorCount = e.Encoding.MaxColors()
	}

	b := src.Bounds()
	o, err := options(b.Dx(), b.Dy(), e)
	if err != nil {
		return err
	}
	data, palData, err := transcode.EncodeIndexed(src, e.Encoding, palEnc, q, o)
	if err != nil {
		return err
	}
	infolog.Printf("%dx%d %s, %d bytes, %d palette bytes", b.Dx(), b.Dy(), e.Encoding.Name(), len(data), len(palData))
	if err := os.WriteFile(*paletteFlag, palData, 0o644); err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

var standard = formats.Standard()

// lookup returns a codec.ColorEncoding or a codec.IndexEncodingDefinition.
func lookup(name string) (any, error) {
	id, ok := formats.ID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", codec.ErrUnsupportedFormat, name)
	}
	return standard.Get(id)
}

func paletteEncoding(e codec.IndexEncodingDefinition) (codec.ColorEncoding, error) {
	id, ok := formats.ID(*paletteFormatFlag)
	if !ok {
		return nil, fmt.Errorf("%w: palette %q", codec.ErrUnsupportedFormat, *paletteFormatFlag)
	}
	for _, paletteID := range e.PaletteEncodingIDs {
		if paletteID == id {
			return standard.PaletteEncoding(id)
		}
	}
	return nil, fmt.Errorf("%w: %s palette for %s", codec.ErrUnsupportedFormat, *paletteFormatFlag, e.Encoding.Name())
}

func ditherer(name string) (quant.Ditherer, error) {
	switch name {
	case "", "none":
		return quant.NoDither{}, nil
	case "bayer2x2":
		return quant.Bayer2x2, nil
	case "bayer4x4":
		return quant.Bayer4x4, nil
	case "bayer8x8":
		return quant.Bayer8x8, nil
	}
	// Kernel names match case-insensitively, ignoring hyphens.
	squashed := strings.ReplaceAll(name, "-", "")
	for kernelName, k := range quant.Kernels {
		if strings.EqualFold(kernelName, squashed) {
			return quant.ErrorDiffusion{Kernel: k}, nil
		}
	}
	return nil, fmt.Errorf("main: unknown -dither %q", name)
}

// astcFootprint parses names like "astc-6x6".
func astcFootprint(name string) (blockW int, blockH int, ok bool) {
	if _, err := fmt.Sscanf(name, "astc-%dx%d", &blockW, &blockH); err != nil {
		return 0, 0, false
	}
	return blockW, blockH, astc.IsValidFootprint(blockW, blockH)
}

func newASTC(blockW int, blockH int, width int, height int) (*astc.Encoding, error) {
	q := astc.QualityMedium
	switch *qualityFlag {
	case "medium":
		// No-op.
	case "fastest":
		q = astc.QualityFastest
	case "fast":
		q = astc.QualityFast
	case "thorough":
		q = astc.QualityThorough
	case "exhaustive":
		q = astc.QualityExhaustive
	default:
		return nil, fmt.Errorf("main: unknown -quality %q", *qualityFlag)
	}
	backend := &astc.CommandBackend{Path: *astcencFlag}
	if *verboseFlag {
		backend.Logger = infolog
	}
	return astc.New(blockW, blockH, width, height, &astc.Options{Backend: backend, Quality: q})
}
