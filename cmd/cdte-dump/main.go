// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// cdte-dump decodes and displays CdTe raw telemetry files.
//
// Usage: cdte-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> cdte-dump ./testdata/run.raw
//	=== file "run.raw" ===
//	frames:       1
//	triggers:     2
//	corrupt:      0
//	housekeeping: 0
//	evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
//	  pt: hits=1 cmn=[50 0] 40:300
//	  al: hits=1 cmn=[30 0] 52:250
//	[...]
package main // import "github.com/foxsi/cdte/cmd/cdte-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/internal/mmap"
)

const usage = `cdte-dump decodes and displays CdTe raw telemetry files.

Usage: cdte-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> cdte-dump ./testdata/run.raw
 === file "run.raw" ===
 frames:       1
 triggers:     2
 corrupt:      0
 housekeeping: 0
 evt=0 ti=1 unixtime=1680000000 livetime=100 pseudo=false
   pt: hits=1 cmn=[50 0] 40:300
   al: hits=1 cmn=[30 0] 52:250
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("cdte-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("cdte-dump", flag.ExitOnError)

		resync = fset.Bool("resync", false, "resume decoding after invalid event frames")
		hk     = fset.Bool("hk", false, "display housekeeping payloads")
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
		log.Fatalf("missing path to input raw file")
	}

	var opts []frame.Option
	if *resync {
		opts = append(opts, frame.WithResync())
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *hk, opts...)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, hk bool, opts ...frame.Option) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	res, err := frame.NewDecoder(opts...).Decode(frame.Words(f.Bytes()))

	fmt.Fprintf(wbuf, "=== file %q ===\n", filepath.Base(fname))
	fmt.Fprintf(wbuf, "frames:       %d\n", res.Frames)
	fmt.Fprintf(wbuf, "triggers:     %d\n", res.Triggers)
	fmt.Fprintf(wbuf, "corrupt:      %d\n", res.Corrupt)
	fmt.Fprintf(wbuf, "housekeeping: %d\n", len(res.Housekeeping))

	for _, warn := range res.Warnings {
		fmt.Fprintf(wbuf, "warning: %v\n", warn)
	}

	if hk {
		for i, v := range res.Housekeeping {
			fmt.Fprintf(wbuf, "hk=%d len=%d %x\n", i, v.Len(), v.Bytes())
		}
	}

	for i := 0; i < res.Table.Len(); i++ {
		evt := res.Table.At(i)
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

	if err != nil {
		return fmt.Errorf("could not decode raw file: %w", err)
	}

	return nil
}
