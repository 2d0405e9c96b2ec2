// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"golang.org/x/xerrors"
)

func TestBitReader(t *testing.T) {
	br := newBitReader([]uint32{0xa5000000, 0x80000001})

	if got, want := br.ReadBits(4), uint64(0xa); got != want {
		t.Fatalf("invalid bits: got=0x%x, want=0x%x", got, want)
	}
	// 0x5 = 0b0101, read LSB first.
	if got, want := br.ReadSample(4), uint16(0xa); got != want {
		t.Fatalf("invalid sample: got=0x%x, want=0x%x", got, want)
	}
	br.align(32)
	if got, want := br.pos, 32; got != want {
		t.Fatalf("invalid cursor: got=%d, want=%d", got, want)
	}
	br.align(32)
	if got, want := br.pos, 32; got != want {
		t.Fatalf("invalid aligned cursor: got=%d, want=%d", got, want)
	}
	if got, want := br.ReadBits(32), uint64(0x80000001); got != want {
		t.Fatalf("invalid bits: got=0x%x, want=0x%x", got, want)
	}
	if got := br.ReadBits(1); got != 0 {
		t.Fatalf("invalid overrun value: %d", got)
	}
	if !xerrors.Is(br.err, io.ErrUnexpectedEOF) {
		t.Fatalf("invalid error: %+v", br.err)
	}
}

func TestBitWriter(t *testing.T) {
	var bw bitWriter
	bw.WriteBits(0xa, 4)
	bw.WriteSample(0xa, 4)
	bw.align(32)
	bw.WriteBits(0x80000001, 32)

	if got, want := bw.ws, []uint32{0xa5000000, 0x80000001}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid words:\ngot= %08x\nwant=%08x", got, want)
	}
}

func fullASIC(tag uint8, ref, cmn uint16, hits map[uint8]uint16) ASIC {
	asic := ASIC{
		Tag:    tag,
		Flag:   1,
		Mark:   1,
		Ref:    ref,
		CMN:    cmn,
		Status: 1,
	}
	for ch := uint8(0); ch < ASICChannels; ch++ {
		adc, ok := hits[ch]
		if !ok {
			continue
		}
		asic.Index[asic.Hits] = ch
		asic.ADC[asic.Hits] = adc
		asic.Hits++
		asic.Bitmap |= 1 << uint(ASICChannels-1-int(ch))
	}
	return asic
}

func TestTriggerRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		trg  Trigger
		size int
	}{
		{
			name: "no-hits",
			trg: Trigger{
				TI:       0x12345678,
				Livetime: 42,
				ASICs: [NumASICs]ASIC{
					{Tag: 0x0}, {Tag: 0x8, Flag: 1}, {Tag: 0xb}, {Tag: 0x1, Flag: 1},
				},
			},
			size: headerLen + 4*2,
		},
		{
			name: "full",
			trg: Trigger{
				TI:               0xfffffff0,
				Livetime:         1000,
				IntegralLivetime: 0xbeef,
				Pseudo:           true,
				ForceTrig:        true,
				BGO:              0x9,
				HitPattern:       0x2a5,
				Ext1TI:           [2]uint32{1, 2},
				PseudoCounter:    7,
				ASICs: [NumASICs]ASIC{
					fullASIC(0x4, 100, 50, map[uint8]uint16{3: 300, 10: 512, 63: 1023}),
					fullASIC(0xc, 101, 20, map[uint8]uint16{0: 400}),
					{Tag: 0xb, Flag: 1},
					fullASIC(0x6, 102, 10, map[uint8]uint16{52: 260}),
				},
			},
			// 3 hits: 91+30 bits -> 4 words, plus gap.
			// 1 hit:  91+10 bits -> 4 words, plus gap.
			size: headerLen + 5 + 5 + 2 + 5,
		},
		{
			name: "all-channels",
			trg: func() Trigger {
				hits := make(map[uint8]uint16)
				for i := uint8(0); i < ASICChannels; i++ {
					hits[i] = uint16(i) * 16
				}
				var trg Trigger
				for i := range trg.ASICs {
					trg.ASICs[i] = fullASIC(0x4, 0x3ff, 0x155, hits)
				}
				return trg
			}(),
			// 91+640 bits -> 23 words, plus gap.
			size: headerLen + 4*24,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ws, err := encodeTrigger(&tc.trg)
			if err != nil {
				t.Fatalf("could not encode trigger: %+v", err)
			}
			if got, want := len(ws), tc.size; got != want {
				t.Fatalf("invalid trigger size: got=%d, want=%d", got, want)
			}

			var got Trigger
			err = decodeTrigger(&got, ws)
			if err != nil {
				t.Fatalf("could not decode trigger: %+v", err)
			}

			if !reflect.DeepEqual(got, tc.trg) {
				t.Fatalf("invalid round-trip:\ngot= %+v\nwant=%+v", got, tc.trg)
			}
		})
	}
}

func TestDecodeTriggerErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		ws   []uint32
	}{
		{
			name: "short-header",
			ws:   []uint32{0x3c3c0000, 1, 2},
		},
		{
			name: "bitstream-overrun",
			ws:   []uint32{0x3c3c0000, 1, 2, 3, 4, 5, 6, 0x40000000},
		},
		{
			name: "missing-asic",
			ws:   []uint32{0x3c3c0000, 1, 2, 3, 4, 5, 6, 0, 0, 0, 0, 0, 0},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var trg Trigger
			err := decodeTrigger(&trg, tc.ws)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !xerrors.Is(err, ErrCorruptTrigger) {
				t.Fatalf("invalid error: %+v", err)
			}
		})
	}
}

func TestEncodeTriggerErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		trg  Trigger
	}{
		{
			name: "unordered-channels",
			trg: Trigger{
				ASICs: [NumASICs]ASIC{{
					Tag:   0x4,
					Hits:  2,
					Index: [ASICChannels]uint8{10, 3},
				}},
			},
		},
		{
			name: "invalid-channel",
			trg: Trigger{
				ASICs: [NumASICs]ASIC{{
					Tag:   0x4,
					Hits:  1,
					Index: [ASICChannels]uint8{64},
				}},
			},
		},
		{
			name: "too-many-hits",
			trg: Trigger{
				ASICs: [NumASICs]ASIC{{Tag: 0x4, Hits: 65}},
			},
		},
		{
			name: "end-marker",
			trg:  Trigger{TI: 0x00007777},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := encodeTrigger(&tc.trg)
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestEvent(t *testing.T) {
	trg := Trigger{
		TI:            10,
		Livetime:      20,
		Pseudo:        true,
		PseudoCounter: 3,
		ASICs: [NumASICs]ASIC{
			fullASIC(0x4, 100, 50, map[uint8]uint16{3: 300, 10: 512, 63: 1023}),
			fullASIC(0x4, 101, 20, map[uint8]uint16{0: 400}),
			{Tag: 0xb, Flag: 1},
			fullASIC(0x4, 102, 10, map[uint8]uint16{52: 260}),
		},
	}

	evt := trg.Event(1680000000)
	if evt.TI != 10 || evt.Livetime != 20 || !evt.Pseudo || evt.PseudoCounter != 3 || evt.UnixTime != 1680000000 {
		t.Fatalf("invalid event header: %+v", evt)
	}

	for _, tc := range []struct {
		side  SideID
		index []uint8
		adc   []int32
		cmn   [2]uint16
	}{
		{Pt, []uint8{3, 10, 63, 64}, []int32{250, 462, 973, 380}, [2]uint16{50, 20}},
		{Al, []uint8{116}, []int32{250}, [2]uint16{0, 10}},
	} {
		t.Run(tc.side.String(), func(t *testing.T) {
			s := evt.Side(tc.side)
			if got, want := int(s.Hits), len(tc.index); got != want {
				t.Fatalf("invalid hits: got=%d, want=%d", got, want)
			}
			if got, want := s.Index[:s.Hits], tc.index; !bytes.Equal(got, want) {
				t.Fatalf("invalid strips: got=%v, want=%v", got, want)
			}
			if got, want := s.ADC[:s.Hits], tc.adc; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid adcs: got=%v, want=%v", got, want)
			}
			if s.CMN != tc.cmn {
				t.Fatalf("invalid cmn: got=%v, want=%v", s.CMN, tc.cmn)
			}
			for i := int(s.Hits); i < SideWidth; i++ {
				if s.Index[i] != Sentinel || s.ADC[i] != 0 {
					t.Fatalf("invalid padding at %d: (%d, %d)", i, s.Index[i], s.ADC[i])
				}
			}
		})
	}
}

func TestHousekeeping(t *testing.T) {
	hk := Housekeeping{Words: []uint32{0x01020304, 0x05060708}}
	if got, want := hk.Len(), 8; got != want {
		t.Fatalf("invalid length: got=%d, want=%d", got, want)
	}
	if got, want := hk.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8}; !bytes.Equal(got, want) {
		t.Fatalf("invalid bytes: got=%v, want=%v", got, want)
	}
}

func TestWords(t *testing.T) {
	raw := []byte{0xab, 0xcd, 0xef, 0x02, 0xff, 0xff, 0x01, 0x23, 0x42}
	ws := Words(raw)
	if got, want := ws, []uint32{0x02efcdab, 0x2301ffff}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid words: got=%08x, want=%08x", got, want)
	}
	if got, want := Bytes(ws), raw[:8]; !bytes.Equal(got, want) {
		t.Fatalf("invalid bytes: got=%v, want=%v", got, want)
	}

	got, err := ReadWords(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("could not read words: %+v", err)
	}
	if !reflect.DeepEqual(got, ws) {
		t.Fatalf("invalid words: got=%08x, want=%08x", got, ws)
	}
}
