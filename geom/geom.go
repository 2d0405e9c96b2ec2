// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom describes the wiring and the physical layout of the
// CdTe double-sided strip detectors.
//
// Strips are addressed in two spaces:
//   - the logical space, in readout (wiring) order: Pt side 0..127
//     (ASIC0 then ASIC1), Al side 128..255 (ASIC2 then ASIC3);
//   - the physical space, in geometric order across the detector face.
package geom // import "github.com/foxsi/cdte/geom"

const (
	NumStrips     = 256 // number of strips of a detector, both sides
	NumSideStrips = 128 // number of strips on one side
	ASICChannels  = 64  // number of strips read out by one ASIC
)

// ChannelMap maps logical strip indices to physical strip indices.
// The map is an involution: it is its own inverse.
type ChannelMap struct {
	phys [NumStrips]uint16
}

// Physical returns the physical strip index of the logical strip i.
func (m *ChannelMap) Physical(i int) int {
	return int(m.phys[i])
}

// Logical returns the logical strip index of the physical strip i.
func (m *ChannelMap) Logical(i int) int {
	return int(m.phys[i]) // involution
}

// PhysicalAl returns the side-local physical index of the side-local
// logical Al strip i (0..127).
func (m *ChannelMap) PhysicalAl(i int) int {
	return m.Physical(i+NumSideStrips) - NumSideStrips
}

// LogicalAl returns the side-local logical index of the side-local
// physical Al strip i (0..127).
func (m *ChannelMap) LogicalAl(i int) int {
	return m.Logical(i+NumSideStrips) - NumSideStrips
}

func newChannelMap() *ChannelMap {
	var m ChannelMap
	for blk := 0; blk < NumStrips/ASICChannels; blk++ {
		src := blk
		switch blk {
		case 2:
			src = 3
		case 3:
			src = 2
		}
		var (
			beg = blk * ASICChannels
			org = src * ASICChannels
		)
		for k := 0; k < ASICChannels; k++ {
			m.phys[beg+k] = uint16(org + ASICChannels - 1 - k)
		}
	}
	return &m
}
