// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/xerrors"
)

var (
	// ErrStructure reports an event frame that is too short or whose
	// last word is not the frame terminator.
	ErrStructure = xerrors.New("invalid event frame structure")

	// ErrCorruptTrigger reports a trigger without end marker, or whose
	// content could not be decoded.
	ErrCorruptTrigger = xerrors.New("corrupt trigger")

	// ErrAmbiguousFrames reports a buffer holding both housekeeping
	// and event frames.
	ErrAmbiguousFrames = xerrors.New("housekeeping and event frames in the same buffer")

	// ErrTruncatedHousekeeping reports a housekeeping payload without
	// terminator, or larger than MaxHousekeepingLen words.
	ErrTruncatedHousekeeping = xerrors.New("truncated housekeeping frame")
)

// Flags summarizes the frames found in a buffer.
type Flags struct {
	Housekeeping bool // at least one housekeeping frame was decoded
	Event        bool // at least one event frame was decoded
	Error        bool // a structural error, or both kinds of frames, were found
}

// Result is the outcome of decoding one buffer.
type Result struct {
	Flags        Flags
	Table        Table
	Housekeeping []Housekeeping
	Warnings     []error

	Frames   int // number of decoded frames
	Triggers int // number of decoded triggers
	Corrupt  int // number of corrupt triggers
}

// Option configures a Decoder.
type Option func(*config)

type config struct {
	resync bool
	stopHK bool
	msg    *log.Logger
}

func newConfig() *config {
	return &config{
		msg: log.New(io.Discard, "frame: ", 0),
	}
}

// WithResync configures the decoder to resume the scan one word after
// an invalid event frame sync word, instead of stopping.
// Structural errors are then reported as warnings.
func WithResync() Option {
	return func(cfg *config) {
		cfg.resync = true
	}
}

// WithStopAtHousekeeping configures the decoder to stop as soon as the
// first housekeeping frame has been decoded.
func WithStopAtHousekeeping() Option {
	return func(cfg *config) {
		cfg.stopHK = true
	}
}

// WithLogger sets the logger used to report decoding progress.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// Decoder decodes buffers of raw telemetry words.
//
// A Decoder holds no mutable state: a buffer is decoded in one call,
// and a single Decoder may be used from multiple goroutines.
type Decoder struct {
	cfg config
}

// NewDecoder creates a new decoder.
func NewDecoder(opts ...Option) *Decoder {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.msg == nil {
		cfg.msg = log.New(io.Discard, "", 0)
	}
	return &Decoder{cfg: *cfg}
}

// Decode decodes all the frames of the provided buffer.
//
// The returned error is non-nil only when an event frame is
// structurally invalid and the decoder was not configured with
// WithResync. In all cases, the records decoded so far are returned.
func (dec *Decoder) Decode(ws []uint32) (Result, error) {
	sc := scanner{
		cfg:   &dec.cfg,
		ws:    ws,
		state: seekingSync,
		buf:   make([]uint32, 0, MaxTriggerLen),
	}

	for sc.state != done {
		sc.transition(sc.step())
	}

	if sc.res.Flags.Housekeeping && sc.res.Flags.Event {
		sc.res.Flags.Error = true
		sc.warn(xerrors.Errorf("frame: %w", ErrAmbiguousFrames))
	}

	return sc.res, sc.err
}

type state uint8

const (
	seekingSync state = iota
	readingHousekeeping
	readingEventFrame
	seekingTrigger
	readingTrigger
	done
)

func (st state) String() string {
	switch st {
	case seekingSync:
		return "seeking-sync"
	case readingHousekeeping:
		return "reading-housekeeping"
	case readingEventFrame:
		return "reading-event-frame"
	case seekingTrigger:
		return "seeking-trigger"
	case readingTrigger:
		return "reading-trigger"
	case done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", uint8(st))
}

// transitions lists the allowed state transitions.
var transitions = [...][]state{
	seekingSync:         {readingHousekeeping, readingEventFrame, done},
	readingHousekeeping: {seekingSync, done},
	readingEventFrame:   {seekingTrigger, seekingSync, done},
	seekingTrigger:      {readingTrigger, seekingSync},
	readingTrigger:      {seekingTrigger, seekingSync},
	done:                nil,
}

// scanner holds the state of one Decode call.
type scanner struct {
	cfg *config
	ws  []uint32
	pos int // stream cursor

	state state
	res   Result
	err   error

	sync  int      // stream index of the current sync word
	frame []uint32 // current event frame
	unix  uint32   // unix time of the current event frame
	j     int      // event frame cursor
	buf   []uint32 // current trigger words
}

func (sc *scanner) transition(next state) {
	for _, st := range transitions[sc.state] {
		if st == next {
			sc.state = next
			return
		}
	}
	panic(xerrors.Errorf("frame: invalid transition %v -> %v", sc.state, next))
}

func (sc *scanner) step() state {
	switch sc.state {
	case seekingSync:
		return sc.seekSync()
	case readingHousekeeping:
		return sc.readHousekeeping()
	case readingEventFrame:
		return sc.readEventFrame()
	case seekingTrigger:
		return sc.seekTrigger()
	case readingTrigger:
		return sc.readTrigger()
	}
	panic(xerrors.Errorf("frame: invalid state %v", sc.state))
}

func (sc *scanner) warn(err error) {
	sc.res.Warnings = append(sc.res.Warnings, err)
}

func (sc *scanner) seekSync() state {
	for sc.pos < len(sc.ws) {
		w := sc.ws[sc.pos]
		sc.pos++
		if w&syncMask != syncWord {
			continue
		}
		switch w >> 24 {
		case hkType:
			sc.sync = sc.pos - 1
			return readingHousekeeping
		case evtType:
			sc.sync = sc.pos - 1
			return readingEventFrame
		}
	}
	return done
}

func (sc *scanner) readHousekeeping() state {
	beg := sc.pos
	for i := beg; i < len(sc.ws); i++ {
		if sc.ws[i] != Terminator {
			continue
		}
		sc.pos = i + 1
		n := i - beg
		if n > MaxHousekeepingLen {
			sc.warn(xerrors.Errorf(
				"frame: housekeeping frame at word %d too large (words=%d, max=%d): %w",
				sc.sync, n, MaxHousekeepingLen, ErrTruncatedHousekeeping,
			))
			return seekingSync
		}
		hk := Housekeeping{Words: make([]uint32, n)}
		for k := range hk.Words {
			hk.Words[k] = bswap(sc.ws[beg+k])
		}
		sc.res.Housekeeping = append(sc.res.Housekeeping, hk)
		sc.res.Flags.Housekeeping = true
		sc.res.Frames++
		sc.cfg.msg.Printf("housekeeping frame at word %d: %d bytes", sc.sync, hk.Len())
		if sc.cfg.stopHK {
			return done
		}
		return seekingSync
	}

	sc.pos = len(sc.ws)
	sc.warn(xerrors.Errorf(
		"frame: housekeeping frame at word %d has no terminator: %w",
		sc.sync, ErrTruncatedHousekeeping,
	))
	return done
}

func (sc *scanner) readEventFrame() state {
	if n := len(sc.ws) - sc.pos; n < EventFrameLen {
		return sc.fail(xerrors.Errorf(
			"frame: event frame at word %d too short (words=%d, want=%d): %w",
			sc.sync, n, EventFrameLen, ErrStructure,
		))
	}

	frame := sc.ws[sc.pos : sc.pos+EventFrameLen]
	if v := frame[EventFrameLen-1]; v != Terminator {
		return sc.fail(xerrors.Errorf(
			"frame: event frame at word %d has invalid terminator (got=0x%08x, want=0x%08x): %w",
			sc.sync, v, uint32(Terminator), ErrStructure,
		))
	}

	sc.pos += EventFrameLen
	sc.frame = frame
	sc.unix = frame[EventFrameLen-2]
	sc.j = 0
	sc.res.Frames++
	sc.cfg.msg.Printf("event frame at word %d: unixtime=%d", sc.sync, sc.unix)
	return seekingTrigger
}

// fail records a structural error and either stops the scan or
// resumes it right after the failing sync word.
func (sc *scanner) fail(err error) state {
	sc.res.Flags.Error = true
	sc.cfg.msg.Printf("%+v", err)
	if !sc.cfg.resync {
		if sc.err == nil {
			sc.err = err
		}
		return done
	}
	sc.warn(err)
	sc.pos = sc.sync + 1
	return seekingSync
}

func (sc *scanner) endOfFrame() state {
	sc.res.Flags.Event = true
	sc.frame = nil
	sc.cfg.msg.Printf("event frame end: triggers=%d", sc.res.Triggers)
	return seekingSync
}

func (sc *scanner) seekTrigger() state {
	for sc.j < EventFrameLen && sc.frame[sc.j]&trigStartMask != trigStart {
		sc.j++
	}
	if sc.j >= EventFrameLen {
		return sc.endOfFrame()
	}
	return readingTrigger
}

func (sc *scanner) readTrigger() state {
	start := sc.j
	sc.buf = sc.buf[:0]
	for sc.j < EventFrameLen && len(sc.buf) < MaxTriggerLen && sc.frame[sc.j] != trigEnd {
		sc.buf = append(sc.buf, bswap(sc.frame[sc.j]))
		sc.j++
	}

	switch {
	case sc.j >= EventFrameLen:
		// trigger cut by the end of the frame.
		return sc.endOfFrame()
	case len(sc.buf) >= MaxTriggerLen:
		sc.corrupt(xerrors.Errorf(
			"frame: trigger at frame word %d has no end marker within %d words: %w",
			start, MaxTriggerLen, ErrCorruptTrigger,
		))
		sc.j = start + 1
		return seekingTrigger
	}

	var trg Trigger
	err := decodeTrigger(&trg, sc.buf)
	sc.j++ // skip end marker
	if err != nil {
		sc.corrupt(xerrors.Errorf("frame: trigger at frame word %d: %w", start, err))
		return seekingTrigger
	}

	sc.res.Table.Append(trg.Event(sc.unix))
	sc.res.Triggers++
	return seekingTrigger
}

func (sc *scanner) corrupt(err error) {
	sc.res.Corrupt++
	sc.warn(err)
	sc.cfg.msg.Printf("%+v", err)
}
