// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides read-only memory-mapped access to raw
// telemetry files.
package mmap // import "github.com/foxsi/cdte/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// File is a read-only memory-mapped file.
type File struct {
	data   []byte
	closed bool
}

// Open memory-maps the named file.
func Open(fname string) (*File, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not open %q: %w", fname, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmap: could not stat %q: %w", fname, err)
	}

	size := fi.Size()
	if size == 0 {
		return &File{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: file %q too large (size=%d)", fname, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not mmap %q: %w", fname, err)
	}

	mf := &File{data: data}
	runtime.SetFinalizer(mf, (*File).Close)
	return mf, nil
}

// Close unmaps the file.
func (f *File) Close() error {
	if f == nil {
		return os.ErrInvalid
	}

	if f.closed {
		return nil
	}
	f.closed = true
	runtime.SetFinalizer(f, nil)

	data := f.data
	f.data = nil
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}

// Len returns the length of the memory-mapped file.
func (f *File) Len() int {
	return len(f.data)
}

// Bytes returns the content of the file.
// The returned slice is only valid until Close is called.
func (f *File) Bytes() []byte {
	return f.data
}

// ReadAt implements the io.ReaderAt interface.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f == nil {
		return 0, os.ErrInvalid
	}

	if f.closed {
		return 0, errClosed
	}
	if off < 0 || int64(len(f.data)) < off {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*File)(nil)
	_ io.Closer   = (*File)(nil)
)
