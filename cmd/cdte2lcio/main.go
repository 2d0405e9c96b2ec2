// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cdte2lcio converts a CdTe raw telemetry file to an LCIO one.
package main // import "github.com/foxsi/cdte/cmd/cdte2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/internal/mmap"
	"github.com/foxsi/cdte/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "cdte2lcio: ", 0)
)

func main() {
	var (
		oname  = flag.String("o", "out.lcio", "path to output LCIO file")
		compr  = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run    = flag.Int("run", -1, "run number (default: inferred from input file name)")
		resync = flag.Bool("resync", false, "resume decoding after invalid event frames")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: cdte2lcio [OPTIONS] file.raw

ex:
 $> cdte2lcio -o out.lcio -lvl=9 ./cdte_042.raw

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input CdTe raw file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	var opts []frame.Option
	if *resync {
		opts = append(opts, frame.WithResync())
	}

	err := process(*oname, *compr, int32(*run), flag.Arg(0), opts...)
	if err != nil {
		msg.Fatalf("could not convert CdTe file: %+v", err)
	}
}

func process(oname string, lvl int, run int32, fname string, opts ...frame.Option) error {
	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open CdTe file: %w", err)
	}
	defer f.Close()

	if run < 0 {
		run, err = runNbrFrom(fname)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
	}

	opts = append([]frame.Option{frame.WithLogger(msg)}, opts...)
	res, err := frame.NewDecoder(opts...).Decode(frame.Words(f.Bytes()))
	if err != nil {
		// keep the records decoded before the invalid frame.
		msg.Printf("warning: could not decode CdTe file: %v", err)
	}
	for _, warn := range res.Warnings {
		msg.Printf("warning: %v", warn)
	}

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.Table2LCIO(w, &res.Table, run, msg)
	if err != nil {
		return fmt.Errorf("could not convert CdTe to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
	)
	_, err := fmt.Sscanf(name, "cdte_%d.raw", &run)
	return run, err
}
