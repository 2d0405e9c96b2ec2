// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"math"
	"sort"
)

// Table is an append-only table of events, in stream order.
type Table struct {
	evts []Event
}

// NewTable creates a table from a list of events.
func NewTable(evts ...Event) Table {
	return Table{evts: append([]Event(nil), evts...)}
}

// Append appends an event to the table.
func (tbl *Table) Append(evt Event) {
	tbl.evts = append(tbl.evts, evt)
}

// Len returns the number of events in the table.
func (tbl *Table) Len() int { return len(tbl.evts) }

// At returns the i-th event of the table.
// The event is shared with the table and must be treated as read-only.
// Callers that need to modify it should work on a copy (*tbl.At(i)).
func (tbl *Table) At(i int) *Event { return &tbl.evts[i] }

// LatestTI returns the largest trigger clock counter of the table.
func (tbl *Table) LatestTI() uint32 {
	var v uint32
	for i := range tbl.evts {
		if ti := tbl.evts[i].TI; ti > v {
			v = ti
		}
	}
	return v
}

// MedianUnixTime returns the median of the event unix times.
func (tbl *Table) MedianUnixTime() float64 {
	n := len(tbl.evts)
	if n == 0 {
		return math.NaN()
	}
	vs := make([]uint32, n)
	for i := range tbl.evts {
		vs[i] = tbl.evts[i].UnixTime
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	if n%2 == 1 {
		return float64(vs[n/2])
	}
	return 0.5 * (float64(vs[n/2-1]) + float64(vs[n/2]))
}

// MeanHits returns the mean number of hit strips of the given side.
func (tbl *Table) MeanHits(side SideID) float64 {
	if len(tbl.evts) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range tbl.evts {
		sum += float64(tbl.evts[i].Side(side).Hits)
	}
	return sum / float64(len(tbl.evts))
}

// LiveSeconds returns the accumulated livetime, in seconds.
func (tbl *Table) LiveSeconds() float64 {
	sum := 0.0
	for i := range tbl.evts {
		sum += float64(tbl.evts[i].Livetime)
	}
	return sum * 1e-8
}

// DeltaTime returns the time spanned by the table, in seconds, given
// the period of the trigger clock counter.
//
// Without jump handling, the span is computed from the extremal clock
// values. With jump handling, it is computed from the first and last
// events: a 32-bit counter wrap is unfolded and an implausible jump
// yields NaN.
func (tbl *Table) DeltaTime(clock float64, handleJumps bool) float64 {
	n := len(tbl.evts)
	if n == 0 {
		return 0
	}

	if !handleJumps {
		lo, hi := tbl.evts[0].TI, tbl.evts[0].TI
		for i := range tbl.evts {
			ti := tbl.evts[i].TI
			if ti < lo {
				lo = ti
			}
			if ti > hi {
				hi = ti
			}
		}
		return float64(hi-lo) * clock
	}

	var (
		beg  = float64(tbl.evts[0].TI)
		end  = float64(tbl.evts[n-1].TI)
		diff = end - beg
		dt   float64
	)
	switch {
	case (diff > -4e9 && diff < -2e8) || (diff > 2e8 && diff < 4e9):
		dt = math.NaN()
	case diff < -4e9 || diff > 4e9:
		dt = math.Exp2(32) - math.Max(beg, end) + math.Min(beg, end)
	default:
		dt = math.Abs(diff)
	}
	return dt * clock
}

// CountRate returns the number of events per second.
// The rate is corrected for livetime unless uncorrected is set.
func (tbl *Table) CountRate(clock float64, uncorrected bool) float64 {
	dt := tbl.DeltaTime(clock, true)
	if dt == 0 {
		return math.Inf(+1)
	}
	n := float64(len(tbl.evts))
	if uncorrected {
		return n / dt
	}
	return n / tbl.LiveSeconds()
}

// LiveFraction returns the fraction of the table time span the
// detector was live.
func (tbl *Table) LiveFraction(clock float64) float64 {
	return tbl.LiveSeconds() / tbl.DeltaTime(clock, true)
}

// UnreadCanFrameCount estimates the number of canister frames not read
// out during the table time span.
func (tbl *Table) UnreadCanFrameCount(clock float64) float64 {
	dt := tbl.DeltaTime(clock, true)
	if dt <= 0 || math.IsNaN(dt) {
		return 0
	}
	return 2/(5.62*dt) - 2
}

// AddCMN returns the ADC values of the given side of the i-th event,
// with the common mode of each ASIC added back.
// Padding entries are left at zero.
func (tbl *Table) AddCMN(side SideID, i int) [SideWidth]int32 {
	var (
		s   = tbl.evts[i].Side(side)
		out [SideWidth]int32
	)
	for k := 0; k < int(s.Hits); k++ {
		idx := s.Index[k]
		if idx == Sentinel {
			continue
		}
		cmn := s.CMN[0]
		if idx >= ASICChannels {
			cmn = s.CMN[1]
		}
		out[k] = s.ADC[k] + int32(cmn)
	}
	return out
}
