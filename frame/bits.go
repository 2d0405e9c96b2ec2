// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"io"
	"math/bits"
)

// bitReader reads bit fields from a sequence of words, flattened most
// significant bit first.
type bitReader struct {
	ws  []uint32
	pos int // bit cursor
	err error
}

func newBitReader(ws []uint32) bitReader {
	return bitReader{ws: ws}
}

func (br *bitReader) len() int { return 32 * len(br.ws) }

func (br *bitReader) bit() uint32 {
	w := br.ws[br.pos>>5]
	v := (w >> (31 - uint(br.pos&31))) & 1
	br.pos++
	return v
}

func (br *bitReader) check(n int) bool {
	if br.err != nil {
		return false
	}
	if br.pos+n > br.len() {
		br.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

// ReadBits reads an n-bit field, most significant bit first.
func (br *bitReader) ReadBits(n int) uint64 {
	if !br.check(n) {
		return 0
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<1 | uint64(br.bit())
	}
	return v
}

// ReadSample reads an n-bit sample, least significant bit first.
func (br *bitReader) ReadSample(n int) uint16 {
	if !br.check(n) {
		return 0
	}
	var v uint16
	for i := 0; i < n; i++ {
		v |= uint16(br.bit()) << uint(i)
	}
	return v
}

func (br *bitReader) align(n int) {
	if r := br.pos % n; r != 0 {
		br.pos += n - r
	}
}

func (br *bitReader) skip(n int) {
	br.pos += n
}

// bitWriter is the mirror of bitReader.
type bitWriter struct {
	ws  []uint32
	pos int
}

func (bw *bitWriter) bit(v uint32) {
	for bw.pos>>5 >= len(bw.ws) {
		bw.ws = append(bw.ws, 0)
	}
	if v&1 != 0 {
		bw.ws[bw.pos>>5] |= 1 << (31 - uint(bw.pos&31))
	}
	bw.pos++
}

func (bw *bitWriter) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bw.bit(uint32(v >> uint(i)))
	}
}

func (bw *bitWriter) WriteSample(v uint16, n int) {
	for i := 0; i < n; i++ {
		bw.bit(uint32(v >> uint(i)))
	}
}

func (bw *bitWriter) align(n int) {
	if r := bw.pos % n; r != 0 {
		bw.skip(n - r)
	}
}

func (bw *bitWriter) skip(n int) {
	for i := 0; i < n; i++ {
		bw.bit(0)
	}
}

func bswap(w uint32) uint32 {
	return bits.ReverseBytes32(w)
}
