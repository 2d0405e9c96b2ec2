// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Words decodes the little-endian 32-bit words of p.
// Trailing bytes not forming a full word are ignored.
func Words(p []byte) []uint32 {
	ws := make([]uint32, len(p)/4)
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint32(p[4*i:])
	}
	return ws
}

// ReadWords reads all the little-endian 32-bit words from r.
func ReadWords(r io.Reader) ([]uint32, error) {
	p, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("frame: could not read raw words: %w", err)
	}
	return Words(p), nil
}

// Bytes encodes words as little-endian bytes.
func Bytes(ws []uint32) []byte {
	p := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(p[4*i:], w)
	}
	return p
}
