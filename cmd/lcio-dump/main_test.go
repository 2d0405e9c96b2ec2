// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func lcioFile(t *testing.T, fname string) {
	t.Helper()

	pt := frame.ASIC{CMN: 50, Hits: 1}
	pt.Index[0] = 40
	pt.ADC[0] = 350

	al := frame.ASIC{CMN: 30, Hits: 1}
	al.Index[0] = 52
	al.ADC[0] = 280

	var tbl frame.Table
	for _, trg := range []frame.Trigger{
		{TI: 1, Livetime: 100, ASICs: [frame.NumASICs]frame.ASIC{pt, {}, al, {}}},
		{TI: 2, Livetime: 200},
	} {
		tbl.Append(trg.Event(1680000000))
	}

	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	err = xcnv.Table2LCIO(w, &tbl, 42, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("could not write LCIO file: %+v", err)
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}
}

func TestDump(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "cdte_042.slcio")
	lcioFile(t, fname)

	xmain(io.Discard, []string{"-n=1", fname})
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "cdte_042.slcio")
	lcioFile(t, fname)

	for _, tc := range []struct {
		name  string
		nevts int
		want  string
	}{
		{
			name:  "all",
			nevts: -1,
			want: `=== file "cdte_042.slcio" ===
events: 2
evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
  pt: hits=1 cmn=[50 0] 40:300
  al: hits=1 cmn=[30 0] 52:250
evt=1 ti=2 unixtime=1680000000 livetime=200 pseudo=false
  pt: hits=0 cmn=[0 0]
  al: hits=0 cmn=[0 0]
`,
		},
		{
			name:  "first",
			nevts: 1,
			want: `=== file "cdte_042.slcio" ===
events: 2
evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
  pt: hits=1 cmn=[50 0] 40:300
  al: hits=1 cmn=[30 0] 52:250
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(strings.Builder)
			err := process(out, fname, tc.nevts)
			if err != nil {
				t.Fatalf("could not dump file: %+v", err)
			}
			if got := out.String(); got != tc.want {
				t.Fatalf("invalid lcio-dump output:\ngot:\n%s\nwant:\n%s\n", got, tc.want)
			}
		})
	}

	err := process(io.Discard, filepath.Join(tmp, "missing.slcio"), -1)
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
