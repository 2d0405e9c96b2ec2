// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grade reduces the strips hit during a trigger to single
// physical counts.
package grade // import "github.com/foxsi/cdte/grade"

import (
	"fmt"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/geom"
)

// Mask lists the physical strips excluded from grading.
// Strip indices are local to their side, in [0, 128).
type Mask struct {
	Pt []int `json:"pt"`
	Al []int `json:"al"`
}

// Decision is the grading outcome of one detector side for one trigger.
type Decision struct {
	OK    bool
	Strip int   // side-local logical strip index
	ADC   int32 // common-mode subtracted ADC value
}

// Count is a trigger accepted on both sides.
type Count struct {
	TI       uint32
	UnixTime uint32
	PtStrip  int // physical Pt strip
	AlStrip  int // physical Al strip, side-local
	PtADC    int32
	AlADC    int32
}

// Grader grades the events of a table.
// A Grader is immutable and safe for concurrent use.
type Grader struct {
	pt    Policy
	al    Policy
	bad   [2][frame.SideWidth]bool // bad logical strips, per side
	chans *geom.ChannelMap
}

// New creates a new grader with the provided per-side policies and
// mask of bad strips.
func New(pt, al Policy, mask Mask) (*Grader, error) {
	for _, p := range []Policy{pt, al} {
		if !p.valid() {
			return nil, fmt.Errorf("grade: invalid policy %d", uint8(p))
		}
	}

	g := &Grader{
		pt:    pt,
		al:    al,
		chans: geom.Channels(),
	}

	for _, strip := range mask.Pt {
		if strip < 0 || strip >= frame.SideWidth {
			return nil, fmt.Errorf("grade: invalid Pt bad strip %d", strip)
		}
		g.bad[frame.Pt][g.chans.Logical(strip)] = true
	}
	for _, strip := range mask.Al {
		if strip < 0 || strip >= frame.SideWidth {
			return nil, fmt.Errorf("grade: invalid Al bad strip %d", strip)
		}
		g.bad[frame.Al][g.chans.LogicalAl(strip)] = true
	}

	return g, nil
}

// candidate returns whether the side-local logical strip idx takes
// part in the grading.
func (g *Grader) candidate(side frame.SideID, idx uint8) bool {
	if idx == frame.Sentinel || int(idx) >= frame.SideWidth {
		return false
	}
	if g.bad[side][idx] {
		return false
	}
	switch side {
	case frame.Pt:
		return idx < 59 || idx > 68
	case frame.Al:
		v := int(idx) + frame.SideWidth
		return 131 < v && v < 252
	}
	return false
}

// Decide grades one side of a trigger.
func (g *Grader) Decide(side frame.SideID, s *frame.Side) Decision {
	var (
		policy = g.policy(side)
		cands  [frame.SideWidth]int // positions of the candidates in s
		n      int
		sum    int64
	)
	for i, idx := range s.Index {
		if !g.candidate(side, idx) {
			continue
		}
		cands[n] = i
		n++
		sum += int64(s.ADC[i])
	}

	pick := func(i int) Decision {
		return Decision{OK: true, Strip: int(s.Index[i]), ADC: s.ADC[i]}
	}

	if policy == MaxADC {
		if n == 0 || sum <= 0 {
			return Decision{}
		}
		best := cands[0]
		for _, i := range cands[1:n] {
			if s.ADC[i] > s.ADC[best] {
				best = i
			}
		}
		return pick(best)
	}

	// single, double and single_or_double share the same decision table.
	switch n {
	case 1:
		return pick(cands[0])
	case 2:
		a, b := cands[0], cands[1]
		if !adjacent(s.Index[a], s.Index[b]) {
			return Decision{}
		}
		if s.ADC[a] > s.ADC[b] {
			return pick(a)
		}
		return pick(b)
	}
	return Decision{}
}

func (g *Grader) policy(side frame.SideID) Policy {
	if side == frame.Al {
		return g.al
	}
	return g.pt
}

func adjacent(a, b uint8) bool {
	return a == b+1 || b == a+1
}

// Grade grades all the events of the table and returns the triggers
// accepted on both sides, in table order.
func (g *Grader) Grade(tbl *frame.Table) []Count {
	counts := make([]Count, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		evt := tbl.At(i)
		pt := g.Decide(frame.Pt, &evt.Pt)
		if !pt.OK {
			continue
		}
		al := g.Decide(frame.Al, &evt.Al)
		if !al.OK {
			continue
		}
		counts = append(counts, Count{
			TI:       evt.TI,
			UnixTime: evt.UnixTime,
			PtStrip:  g.chans.Physical(pt.Strip),
			AlStrip:  g.chans.PhysicalAl(al.Strip),
			PtADC:    pt.ADC,
			AlADC:    al.ADC,
		})
	}
	return counts
}
