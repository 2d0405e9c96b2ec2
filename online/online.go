// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package online runs the CdTe decoding and grading chain as a TDAQ
// process.
//
// Raw telemetry buffers are received on the "/raw" input, decoded,
// graded and the accepted counts are published on the "/counts" output.
package online // import "github.com/foxsi/cdte/online"

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/grade"
	"github.com/foxsi/cdte/internal/cfg"
	"github.com/go-daq/tdaq"
)

// Stats are the running statistics of a server.
type Stats struct {
	Buffers  int // number of processed raw buffers
	Frames   int // number of decoded frames
	Triggers int // number of decoded triggers
	Corrupt  int // number of corrupt triggers
	Counts   int // number of accepted counts
	Errors   int // number of buffers with a decoding error
}

// Server decodes and grades raw telemetry buffers.
type Server struct {
	mu    sync.RWMutex
	cfg   cfg.Config
	dec   *frame.Decoder
	grd   *grade.Grader
	stats Stats

	counts chan []grade.Count
}

// New creates a new server with the provided initial configuration.
func New(conf cfg.Config) *Server {
	return &Server{
		cfg:    conf,
		counts: make(chan []grade.Count, 1024),
	}
}

// Stats returns the running statistics of the server.
func (srv *Server) Stats() Stats {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.stats
}

func (srv *Server) configure(body []byte) error {
	if len(body) == 0 {
		return nil
	}

	conf, err := cfg.Decode(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("online: could not decode configuration: %w", err)
	}

	srv.mu.Lock()
	srv.cfg = conf
	srv.mu.Unlock()
	return nil
}

func (srv *Server) initialize(ctx context.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	grd, err := srv.cfg.Grader(ctx)
	if err != nil {
		return fmt.Errorf("online: could not create grader: %w", err)
	}

	srv.grd = grd
	srv.dec = srv.cfg.Decoder(nil)
	srv.stats = Stats{}
	return nil
}

func (srv *Server) reset() {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.stats = Stats{}
	for {
		select {
		case <-srv.counts:
		default:
			return
		}
	}
}

// process decodes and grades one buffer of little-endian raw words.
func (srv *Server) process(raw []byte) (frame.Result, []grade.Count, error) {
	srv.mu.RLock()
	dec, grd := srv.dec, srv.grd
	srv.mu.RUnlock()

	if dec == nil || grd == nil {
		return frame.Result{}, nil, fmt.Errorf("online: server not initialized")
	}

	res, err := dec.Decode(frame.Words(raw))
	counts := grd.Grade(&res.Table)

	srv.mu.Lock()
	srv.stats.Buffers++
	srv.stats.Frames += res.Frames
	srv.stats.Triggers += res.Triggers
	srv.stats.Corrupt += res.Corrupt
	srv.stats.Counts += len(counts)
	if err != nil {
		srv.stats.Errors++
	}
	srv.mu.Unlock()

	if err != nil {
		return res, counts, fmt.Errorf("online: could not decode raw buffer: %w", err)
	}
	return res, counts, nil
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	err := srv.configure(req.Body)
	if err != nil {
		ctx.Msg.Errorf("could not configure server: %+v", err)
		return err
	}
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	err := srv.initialize(ctx.Ctx)
	if err != nil {
		ctx.Msg.Errorf("could not initialize server: %+v", err)
		return err
	}
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.reset()
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	st := srv.Stats()
	ctx.Msg.Debugf(
		"received /stop command... -> buffers=%d, triggers=%d, corrupt=%d, counts=%d",
		st.Buffers, st.Triggers, st.Corrupt, st.Counts,
	)
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

// Raw handles buffers of raw telemetry words.
func (srv *Server) Raw(ctx tdaq.Context, src tdaq.Frame) error {
	res, counts, err := srv.process(src.Body)
	for _, w := range res.Warnings {
		ctx.Msg.Warnf("%+v", w)
	}
	if err != nil {
		ctx.Msg.Errorf("%+v", err)
	}
	if len(counts) == 0 {
		return nil
	}

	select {
	case <-ctx.Ctx.Done():
	case srv.counts <- counts:
	}
	return nil
}

// Counts publishes the graded counts.
func (srv *Server) Counts(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case counts := <-srv.counts:
		buf := new(bytes.Buffer)
		err := EncodeCounts(buf, counts)
		if err != nil {
			return fmt.Errorf("online: could not encode counts: %w", err)
		}
		dst.Body = buf.Bytes()
	}
	return nil
}

// EncodeCounts encodes a list of graded counts to w.
func EncodeCounts(w io.Writer, counts []grade.Count) error {
	enc := tdaq.NewEncoder(w)
	enc.WriteU32(uint32(len(counts)))
	for _, c := range counts {
		enc.WriteU32(c.TI)
		enc.WriteU32(c.UnixTime)
		enc.WriteU16(uint16(c.PtStrip))
		enc.WriteU16(uint16(c.AlStrip))
		enc.WriteI32(c.PtADC)
		enc.WriteI32(c.AlADC)
	}
	return enc.Err()
}

const maxCountsPrealloc = 1024

// DecodeCounts decodes a list of graded counts from r.
func DecodeCounts(r io.Reader) ([]grade.Count, error) {
	dec := tdaq.NewDecoder(r)
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("online: could not decode number of counts: %w", err)
	}

	// the count prefix is untrusted: let append grow past the first chunk.
	counts := make([]grade.Count, 0, min(n, maxCountsPrealloc))
	for i := 0; i < n; i++ {
		var c grade.Count
		c.TI = dec.ReadU32()
		c.UnixTime = dec.ReadU32()
		c.PtStrip = int(dec.ReadU16())
		c.AlStrip = int(dec.ReadU16())
		c.PtADC = dec.ReadI32()
		c.AlADC = dec.ReadI32()
		if err := dec.Err(); err != nil {
			return counts, fmt.Errorf("online: could not decode count %d: %w", i, err)
		}
		counts = append(counts, c)
	}
	return counts, nil
}
