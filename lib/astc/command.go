// Copyright 2025 The Texcodec Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package astc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/image/draw"
)

// CommandBackend is a Backend that runs ARM's astcenc command line tool,
// exchanging images with it through PNG files in a temporary directory. The
// directory is removed before Compress or Decompress returns.
//
// The zero value is usable if astcenc is on the PATH.
type CommandBackend struct {
	// Path is the astcenc executable. Empty means "astcenc".
	Path string

	// TempDir is where the temporary directory is created. Empty means
	// os.TempDir().
	TempDir string

	// Logger, if non-nil, receives each command line and its output.
	Logger *log.Logger
}

var _ Backend = (*CommandBackend)(nil)

func (c *CommandBackend) path() string {
	if c.Path == "" {
		return "astcenc"
	}
	return c.Path
}

func (c *CommandBackend) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

func (c *CommandBackend) run(args ...string) error {
	cmd := exec.Command(c.path(), args...)
	out, err := cmd.CombinedOutput()
	c.logf("%s: %q", cmd, bytes.TrimSpace(out))
	if err != nil {
		return fmt.Errorf("astc: running %s: %w", c.path(), err)
	}
	return nil
}

// withTempDir calls fn with a fresh temporary directory and removes it
// afterwards, whether or not fn fails.
func (c *CommandBackend) withTempDir(fn func(dir string) error) (retErr error) {
	dir, err := os.MkdirTemp(c.TempDir, "texcodec-astc-")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(dir); (err != nil) && (retErr == nil) {
			retErr = err
		}
	}()
	return fn(dir)
}

func (c *CommandBackend) Compress(src *image.NRGBA, blockW int, blockH int, quality Quality) (ret []byte, retErr error) {
	retErr = c.withTempDir(func(dir string) error {
		in, out := filepath.Join(dir, "in.png"), filepath.Join(dir, "out.astc")
		buf := bytes.Buffer{}
		if err := png.Encode(&buf, src); err != nil {
			return err
		} else if err := os.WriteFile(in, buf.Bytes(), 0o600); err != nil {
			return err
		}

		footprint := fmt.Sprintf("%dx%d", blockW, blockH)
		if err := c.run("-cl", in, out, footprint, "-"+quality.String(), "-silent"); err != nil {
			return err
		}

		data, err := os.ReadFile(out)
		if err != nil {
			return err
		}
		ret = data
		return nil
	})
	if retErr != nil {
		return nil, retErr
	}
	return ret, nil
}

func (c *CommandBackend) Decompress(astcFile []byte) (ret *image.NRGBA, retErr error) {
	retErr = c.withTempDir(func(dir string) error {
		in, out := filepath.Join(dir, "in.astc"), filepath.Join(dir, "out.png")
		if err := os.WriteFile(in, astcFile, 0o600); err != nil {
			return err
		} else if err := c.run("-dl", in, out, "-silent"); err != nil {
			return err
		}

		f, err := os.Open(out)
		if err != nil {
			return err
		}
		defer f.Close()
		m, err := png.Decode(f)
		if err != nil {
			return err
		}

		if n, ok := m.(*image.NRGBA); ok {
			ret = n
			return nil
		}
		b := m.Bounds()
		ret = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(ret, ret.Bounds(), m, b.Min, draw.Src)
		return nil
	})
	if retErr != nil {
		return nil, retErr
	}
	return ret, nil
}
