// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump displays the CdTe events embedded in LCIO files.
//
// Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lcio-dump ./testdata/cdte_042.slcio
//	=== file "cdte_042.slcio" ===
//	events: 2
//	evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
//	  pt: hits=1 cmn=[50 0] 40:300
//	  al: hits=1 cmn=[30 0] 52:250
//	[...]
package main // import "github.com/foxsi/cdte/cmd/lcio-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump displays the CdTe events embedded in LCIO files.

Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./testdata/cdte_042.slcio
 === file "cdte_042.slcio" ===
 events: 2
 evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
   pt: hits=1 cmn=[50 0] 40:300
   al: hits=1 cmn=[30 0] 52:250
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("lcio-dump", flag.ExitOnError)

		nevts = fset.Int("n", -1, "number of events to display (default: all)")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *nevts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, nevts int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	tbl, err := xcnv.LCIO2Table(r)
	if err != nil {
		return fmt.Errorf("could not read CdTe events: %w", err)
	}

	n := tbl.Len()
	if nevts >= 0 && nevts < n {
		n = nevts
	}

	fmt.Fprintf(wbuf, "=== file %q ===\n", filepath.Base(fname))
	fmt.Fprintf(wbuf, "events: %d\n", tbl.Len())
	for i := 0; i < n; i++ {
		evt := tbl.At(i)
		fmt.Fprintf(wbuf, "evt=%d ti=%d unixtime=%d livetime=%d pseudo=%v\n",
			i, evt.TI, evt.UnixTime, evt.Livetime, evt.Pseudo,
		)
		for _, id := range []frame.SideID{frame.Pt, frame.Al} {
			side := evt.Side(id)
			fmt.Fprintf(wbuf, "  %v: hits=%d cmn=%v", id, side.Hits, side.CMN)
			for j := 0; j < int(side.Hits); j++ {
				fmt.Fprintf(wbuf, " %d:%d", side.Index[j], side.ADC[j])
			}
			fmt.Fprintf(wbuf, "\n")
		}
	}

	return nil
}
