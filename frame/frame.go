// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame decodes the raw telemetry words of the CdTe strip
// detectors into housekeeping payloads and per-trigger event records.
package frame // import "github.com/foxsi/cdte/frame"

import (
	"encoding/binary"
	"fmt"
)

// ASIC is the readout of one front-end ASIC for one trigger.
type ASIC struct {
	Tag    uint8  // 4-bit block header
	Flag   uint8  // header flag bit
	Bitmap uint64 // channel bitmap, channel 0 in the most significant bit
	Mark   uint8  // flag bit following the channel bitmap
	Ref    uint16 // reference level
	CMN    uint16 // common mode level
	Status uint8  // trailing status bit

	Hits  int                  // number of hit channels
	Index [ASICChannels]uint8  // hit channels, in ascending order
	ADC   [ASICChannels]uint16 // raw samples of the hit channels
}

// Full returns whether the block was read out in full mode.
func (asic *ASIC) Full() bool {
	return asic.Tag&modeMask != 0
}

// Trigger is one detector readout inside an event frame.
type Trigger struct {
	TI               uint32 // trigger clock counter
	Livetime         uint32
	IntegralLivetime uint16
	Pseudo           bool
	ForceTrig        bool
	BGO              uint8  // 4-bit BGO veto pattern
	HitPattern       uint16 // 10-bit trigger hit pattern
	Ext1TI           [2]uint32
	PseudoCounter    uint32

	ASICs [NumASICs]ASIC
}

// SideID identifies a detector side.
type SideID uint8

const (
	Pt SideID = iota // Pt side, read out by ASIC0 and ASIC1
	Al               // Al side, read out by ASIC2 and ASIC3
)

func (id SideID) String() string {
	switch id {
	case Pt:
		return "pt"
	case Al:
		return "al"
	}
	return fmt.Sprintf("side(%d)", uint8(id))
}

// Side holds the strips of one detector side hit during a trigger.
// Entries past Hits are padded with the Sentinel strip index and a
// null ADC value.
type Side struct {
	Index [SideWidth]uint8 // side-local logical strip index
	ADC   [SideWidth]int32 // common-mode subtracted ADC values
	CMN   [2]uint16        // common mode of the two ASICs of the side
	Hits  uint8
}

func (s *Side) fill(asics ...*ASIC) {
	n := 0
	for k, asic := range asics {
		for i := 0; i < asic.Hits; i++ {
			s.Index[n] = asic.Index[i] + uint8(k*ASICChannels)
			s.ADC[n] = int32(asic.ADC[i]) - int32(asic.CMN)
			n++
		}
		s.CMN[k] = asic.CMN
	}
	s.Hits = uint8(n)
	for ; n < SideWidth; n++ {
		s.Index[n] = Sentinel
		s.ADC[n] = 0
	}
}

// Event is one row of an event table.
type Event struct {
	TI            uint32
	UnixTime      uint32 // unix time of the enclosing event frame
	Livetime      uint32
	Pseudo        bool
	PseudoCounter uint32

	Pt Side
	Al Side
}

// Side returns the requested detector side of the event.
func (evt *Event) Side(id SideID) *Side {
	switch id {
	case Pt:
		return &evt.Pt
	case Al:
		return &evt.Al
	}
	panic("frame: invalid side " + id.String())
}

// Event returns the event record of the trigger.
func (trg *Trigger) Event(unixtime uint32) Event {
	evt := Event{
		TI:            trg.TI,
		UnixTime:      unixtime,
		Livetime:      trg.Livetime,
		Pseudo:        trg.Pseudo,
		PseudoCounter: trg.PseudoCounter,
	}
	evt.Pt.fill(&trg.ASICs[0], &trg.ASICs[1])
	evt.Al.fill(&trg.ASICs[2], &trg.ASICs[3])
	return evt
}

// Housekeeping is the byte-swapped payload of a housekeeping frame.
type Housekeeping struct {
	Words []uint32
}

// Len returns the size of the payload in bytes.
func (hk Housekeeping) Len() int {
	return 4 * len(hk.Words)
}

// Bytes returns the payload bytes, in wire order.
func (hk Housekeeping) Bytes() []byte {
	p := make([]byte, hk.Len())
	for i, w := range hk.Words {
		binary.BigEndian.PutUint32(p[4*i:], w)
	}
	return p
}
