// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert decoded CdTe events to/from LCIO.
package xcnv // import "github.com/foxsi/cdte/internal/xcnv"

import (
	"fmt"
	"log"

	"github.com/foxsi/cdte/frame"
	"go-hep.org/x/hep/lcio"
)

const (
	// Collection is the name of the LCIO collection holding the raw
	// CdTe event.
	Collection = "CDTE_RAW"

	detector = "FOXSI-CdTe"
	version  = 1

	hdrLen = 12 // number of int32 words before the hit strips
)

// Table2LCIO writes one LCIO event per event of the provided table.
func Table2LCIO(w *lcio.Writer, tbl *frame.Table, run int32, msg *log.Logger) error {
	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  detector,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Version": {version},
			},
			Floats: map[string][]float32{
				"TIClockInterval": {float32(frame.TIClockInterval)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("xcnv: could not write run header: %w", err)
	}

	raw := &lcio.GenericObject{
		Data: []lcio.GenericObjectData{
			{I32s: nil},
		},
	}

	for i := 0; i < tbl.Len(); i++ {
		if i%1000 == 0 {
			msg.Printf("processing evt %d...", i)
		}
		evt := tbl.At(i)
		lev := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(evt.UnixTime) * 1e9,
			Detector:    detector,
		}
		raw.Data[0].I32s = i32sFrom(raw.Data[0].I32s[:0], evt)
		lev.Add(Collection, raw)

		err = w.WriteEvent(&lev)
		if err != nil {
			return fmt.Errorf("xcnv: could not write event %d: %w", i, err)
		}
	}

	return nil
}

// LCIO2Table reads back the events written by Table2LCIO.
func LCIO2Table(r *lcio.Reader) (frame.Table, error) {
	var tbl frame.Table
	for r.Next() {
		evt := r.Event()
		obj, ok := evt.Get(Collection).(*lcio.GenericObject)
		if !ok || len(obj.Data) == 0 {
			return tbl, fmt.Errorf(
				"xcnv: event %d has no %s collection",
				evt.EventNumber, Collection,
			)
		}

		v, err := eventFrom(obj.Data[0].I32s)
		if err != nil {
			return tbl, fmt.Errorf("xcnv: could not decode event %d: %w", evt.EventNumber, err)
		}
		tbl.Append(v)
	}

	err := r.Err()
	if err != nil {
		return tbl, fmt.Errorf("xcnv: could not read LCIO stream: %w", err)
	}

	return tbl, nil
}

func i32sFrom(raw []int32, evt *frame.Event) []int32 {
	raw = append(raw,
		version,
		int32(evt.TI),
		int32(evt.UnixTime),
		int32(evt.Livetime),
		b2i(evt.Pseudo),
		int32(evt.PseudoCounter),
		int32(evt.Pt.CMN[0]), int32(evt.Pt.CMN[1]), int32(evt.Pt.Hits),
		int32(evt.Al.CMN[0]), int32(evt.Al.CMN[1]), int32(evt.Al.Hits),
	)
	for _, s := range []*frame.Side{&evt.Pt, &evt.Al} {
		for i := 0; i < int(s.Hits); i++ {
			raw = append(raw, int32(s.Index[i]), s.ADC[i])
		}
	}
	return raw
}

func eventFrom(raw []int32) (frame.Event, error) {
	var evt frame.Event
	if len(raw) < hdrLen {
		return evt, fmt.Errorf("short event (len=%d)", len(raw))
	}
	if raw[0] != version {
		return evt, fmt.Errorf("invalid version %d", raw[0])
	}

	evt.TI = uint32(raw[1])
	evt.UnixTime = uint32(raw[2])
	evt.Livetime = uint32(raw[3])
	evt.Pseudo = raw[4] != 0
	evt.PseudoCounter = uint32(raw[5])

	var (
		sides = []*frame.Side{&evt.Pt, &evt.Al}
		hits  = []int32{raw[8], raw[11]}
	)
	evt.Pt.CMN = [2]uint16{uint16(raw[6]), uint16(raw[7])}
	evt.Al.CMN = [2]uint16{uint16(raw[9]), uint16(raw[10])}

	if want := hdrLen + 2*int(hits[0]+hits[1]); len(raw) != want {
		return evt, fmt.Errorf("invalid event length (got=%d, want=%d)", len(raw), want)
	}

	cur := raw[hdrLen:]
	for k, s := range sides {
		n := int(hits[k])
		if n < 0 || n > frame.SideWidth {
			return evt, fmt.Errorf("invalid number of %v hits %d", frame.SideID(k), n)
		}
		s.Hits = uint8(n)
		for i := 0; i < frame.SideWidth; i++ {
			if i >= n {
				s.Index[i] = frame.Sentinel
				s.ADC[i] = 0
				continue
			}
			s.Index[i] = uint8(cur[2*i])
			s.ADC[i] = cur[2*i+1]
		}
		cur = cur[2*n:]
	}

	return evt, nil
}

func b2i(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
