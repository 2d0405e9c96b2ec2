// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Encoder writes raw telemetry words to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 4),
	}
}

// EncodeHousekeeping writes a housekeeping frame.
func (enc *Encoder) EncodeHousekeeping(hk Housekeeping) error {
	enc.writeU32(hkType<<24 | syncWord)
	for _, w := range hk.Words {
		v := bswap(w)
		if v == Terminator {
			return xerrors.Errorf("frame: housekeeping payload holds the terminator")
		}
		enc.writeU32(v)
	}
	enc.writeU32(Terminator)
	if enc.err != nil {
		return xerrors.Errorf("frame: could not write housekeeping frame: %w", enc.err)
	}
	return nil
}

// EncodeFrame writes an event frame holding the provided triggers.
// Unused frame words are zero-filled.
func (enc *Encoder) EncodeFrame(unixtime uint32, trgs []Trigger) error {
	ws := make([]uint32, 0, EventFrameLen)
	for i := range trgs {
		raw, err := encodeTrigger(&trgs[i])
		if err != nil {
			return xerrors.Errorf("frame: could not encode trigger %d: %w", i, err)
		}
		if len(raw) >= MaxTriggerLen {
			return xerrors.Errorf("frame: trigger %d too large (words=%d)", i, len(raw))
		}
		for _, w := range raw {
			ws = append(ws, bswap(w))
		}
		ws = append(ws, trigEnd)
	}
	if len(ws) > EventFrameLen-2 {
		return xerrors.Errorf("frame: triggers overflow event frame (words=%d, max=%d)", len(ws), EventFrameLen-2)
	}
	ws = ws[:EventFrameLen]
	ws[EventFrameLen-2] = unixtime
	ws[EventFrameLen-1] = Terminator

	enc.writeU32(evtType<<24 | syncWord)
	for _, w := range ws {
		enc.writeU32(w)
	}
	if enc.err != nil {
		return xerrors.Errorf("frame: could not write event frame: %w", enc.err)
	}
	return nil
}

// WriteWords writes raw words to the stream.
func (enc *Encoder) WriteWords(ws ...uint32) error {
	for _, w := range ws {
		enc.writeU32(w)
	}
	return enc.err
}

func (enc *Encoder) writeU32(v uint32) {
	if enc.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(enc.buf[:4], v)
	_, enc.err = enc.w.Write(enc.buf[:4])
}
