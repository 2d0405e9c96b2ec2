// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/grade"
	"github.com/foxsi/cdte/internal/cfg"
	"github.com/foxsi/cdte/spectra"
	"go-hep.org/x/hep/groot"
)

func asic(ch uint8, adc, cmn uint16) frame.ASIC {
	a := frame.ASIC{
		Tag:    0x4,
		Flag:   1,
		Mark:   1,
		Ref:    10,
		CMN:    cmn,
		Status: 1,
		Hits:   1,
		Bitmap: 1 << uint(frame.ASICChannels-1-int(ch)),
	}
	a.Index[0] = ch
	a.ADC[0] = adc
	return a
}

func rawFile(t *testing.T, fname string, unixtime uint32, ti uint32) {
	t.Helper()

	buf := new(bytes.Buffer)
	err := frame.NewEncoder(buf).EncodeFrame(unixtime, []frame.Trigger{
		{
			TI:       ti,
			Livetime: 100,
			ASICs: [frame.NumASICs]frame.ASIC{
				asic(40, 350, 50),
				{},
				asic(52, 280, 30),
				{},
			},
		},
		{TI: ti + 1, Livetime: 100},
	})
	if err != nil {
		t.Fatalf("could not encode event frame: %+v", err)
	}

	err = os.WriteFile(fname, buf.Bytes(), 0644)
	if err != nil {
		t.Fatalf("could not write raw file: %+v", err)
	}
}

func TestDecode(t *testing.T) {
	tmp := t.TempDir()

	var fnames []string
	for i := 0; i < 4; i++ {
		fname := filepath.Join(tmp, "cdte_"+string(rune('0'+i))+".raw")
		rawFile(t, fname, uint32(1680000000+i), uint32(10*i))
		fnames = append(fnames, fname)
	}

	conf := cfg.Default()
	grd, err := conf.Grader(context.Background())
	if err != nil {
		t.Fatalf("could not create grader: %+v", err)
	}

	tbl, counts, err := decode(conf, grd, fnames)
	if err != nil {
		t.Fatalf("could not decode files: %+v", err)
	}

	if got, want := tbl.Len(), 8; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	for i := 0; i < tbl.Len(); i++ {
		if got, want := tbl.At(i).TI, uint32(10*(i/2)+i%2); got != want {
			t.Fatalf("invalid event %d order: got TI=%d, want=%d", i, got, want)
		}
	}

	var want []grade.Count
	for i := 0; i < 4; i++ {
		want = append(want, grade.Count{
			TI:       uint32(10 * i),
			UnixTime: uint32(1680000000 + i),
			PtStrip:  23,
			AlStrip:  75,
			PtADC:    300,
			AlADC:    250,
		})
	}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("invalid counts:\ngot= %+v\nwant=%+v", counts, want)
	}

	_, _, err = decode(conf, grd, append(fnames, filepath.Join(tmp, "missing.raw")))
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestDecodeTruncatedTail(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "cdte_000.raw")
	rawFile(t, fname, 1680000000, 5)

	raw, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("could not read raw file: %+v", err)
	}
	for _, w := range []uint32{0x02efcdab, 1, 2, 3} {
		raw = binary.LittleEndian.AppendUint32(raw, w)
	}
	err = os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write raw file: %+v", err)
	}

	conf := cfg.Default()
	conf.Resync = false
	grd, err := conf.Grader(context.Background())
	if err != nil {
		t.Fatalf("could not create grader: %+v", err)
	}

	tbl, counts, err := decode(conf, grd, []string{fname})
	if err != nil {
		t.Fatalf("could not decode file: %+v", err)
	}
	if got, want := tbl.Len(), 2; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	want := []grade.Count{{
		TI:       5,
		UnixTime: 1680000000,
		PtStrip:  23,
		AlStrip:  75,
		PtADC:    300,
		AlADC:    250,
	}}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("invalid counts:\ngot= %+v\nwant=%+v", counts, want)
	}
}

func TestVersion(t *testing.T) {
	xmain([]string{"-version"})
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()

	fname := filepath.Join(tmp, "cdte_001.raw")
	rawFile(t, fname, 1680000000, 1)

	oname := filepath.Join(tmp, "out.root")
	png := filepath.Join(tmp, "image.png")
	err := process(
		context.Background(), oname, png, cfg.Default(),
		spectra.Options{Remap: true, CMNSub: true},
		[]string{fname},
	)
	if err != nil {
		t.Fatalf("could not process files: %+v", err)
	}

	fi, err := os.Stat(png)
	if err != nil {
		t.Fatalf("could not stat PNG image: %+v", err)
	}
	if fi.Size() == 0 {
		t.Fatalf("empty PNG image")
	}

	f, err := groot.Open(oname)
	if err != nil {
		t.Fatalf("could not open ROOT file: %+v", err)
	}
	defer f.Close()

	for _, name := range []string{"spectrogram", "image", "physical_image"} {
		obj, err := f.Get(name)
		if err != nil {
			t.Fatalf("could not retrieve %q: %+v", name, err)
		}
		if got, want := obj.Class(), "TH2D"; got != want {
			t.Fatalf("invalid class for %q: got=%q, want=%q", name, got, want)
		}
	}
}
