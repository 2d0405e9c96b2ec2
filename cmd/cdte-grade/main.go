// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cdte-grade decodes and grades CdTe raw telemetry files and
// stores the resulting spectrogram and images in a ROOT file.
//
// Usage: cdte-grade [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> cdte-grade -o out.root -cfg ./cdte.json ./cdte_001.raw ./cdte_002.raw
//	$> cdte-grade -o out.root -png image.png ./cdte_001.raw
package main // import "github.com/foxsi/cdte/cmd/cdte-grade"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/foxsi/cdte"
	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/grade"
	"github.com/foxsi/cdte/internal/cfg"
	"github.com/foxsi/cdte/internal/mmap"
	"github.com/foxsi/cdte/spectra"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
)

var (
	msg = log.New(os.Stdout, "cdte-grade: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("cdte-grade", flag.ExitOnError)

		oname  = fset.String("o", "out.root", "path to output ROOT file")
		fcfg   = fset.String("cfg", "", "path to JSON configuration file")
		remap  = fset.Bool("remap", true, "fill spectrogram at physical strip positions")
		cmnsub = fset.Bool("cmn", true, "use common-mode subtracted ADC values")
		resync = fset.Bool("resync", false, "resume decoding after invalid event frames")
		png    = fset.String("png", "", "path to output PNG image of graded counts")
		vers   = fset.Bool("version", false, "print version and exit")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: cdte-grade [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

ex:
 $> cdte-grade -o out.root -cfg ./cdte.json ./cdte_001.raw ./cdte_002.raw
 $> cdte-grade -o out.root -png image.png ./cdte_001.raw

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		v, sum := cdte.Version()
		msg.Printf("version: %s %s", v, sum)
		return
	}

	if fset.NArg() == 0 {
		fset.Usage()
		msg.Fatalf("missing input CdTe raw file(s)")
	}

	conf := cfg.Default()
	if *fcfg != "" {
		conf, err = cfg.Load(*fcfg)
		if err != nil {
			msg.Fatalf("could not load configuration: %+v", err)
		}
	}
	if *resync {
		conf.Resync = true
	}

	opts := spectra.Options{Remap: *remap, CMNSub: *cmnsub}
	err = process(context.Background(), *oname, *png, conf, opts, fset.Args())
	if err != nil {
		msg.Fatalf("could not grade CdTe files: %+v", err)
	}
}

func process(ctx context.Context, oname, png string, conf cfg.Config, opts spectra.Options, fnames []string) error {
	grd, err := conf.Grader(ctx)
	if err != nil {
		return fmt.Errorf("could not create grader: %w", err)
	}

	tbl, counts, err := decode(conf, grd, fnames)
	if err != nil {
		return err
	}

	clock := conf.TIClockInterval
	msg.Printf("events:       %d", tbl.Len())
	msg.Printf("counts:       %d", len(counts))
	msg.Printf("live time:    %g s", tbl.LiveSeconds())
	msg.Printf("count rate:   %g Hz", tbl.CountRate(clock, false))
	msg.Printf("live fraction: %g", tbl.LiveFraction(clock))

	f, err := groot.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output ROOT file: %w", err)
	}
	defer f.Close()

	for _, v := range []struct {
		name string
		h    *hbook.H2D
	}{
		{"spectrogram", spectra.Spectrogram(&tbl, opts)},
		{"image", spectra.Image(counts)},
		{"physical_image", spectra.PhysicalImage(counts)},
	} {
		err = f.Put(v.name, rhist.NewH2DFrom(v.h))
		if err != nil {
			return fmt.Errorf("could not write %q histogram: %w", v.name, err)
		}
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output ROOT file: %w", err)
	}

	if png != "" {
		err = plotImage(png, spectra.Image(counts))
		if err != nil {
			return fmt.Errorf("could not plot image: %w", err)
		}
	}

	return nil
}

func plotImage(fname string, h *hbook.H2D) error {
	p := hplot.New()
	p.Title.Text = "CdTe image"
	p.X.Label.Text = "Pt strip"
	p.Y.Label.Text = "Al strip"

	cmap := moreland.Kindlmann()
	p.Add(hplot.NewH2D(h, cmap.Palette(255)))
	p.Add(hplot.NewGrid())

	return p.Save(15*vg.Centimeter, 15*vg.Centimeter, fname)
}

type result struct {
	tbl    frame.Table
	counts []grade.Count
}

// decode decodes and grades the provided files concurrently.
// Events and counts are returned in input file order.
func decode(conf cfg.Config, grd *grade.Grader, fnames []string) (frame.Table, []grade.Count, error) {
	var (
		grp  errgroup.Group
		outs = make([]result, len(fnames))
	)

	for i := range fnames {
		i := i
		grp.Go(func() error {
			fname := fnames[i]
			f, err := mmap.Open(fname)
			if err != nil {
				return fmt.Errorf("could not open %q: %w", fname, err)
			}
			defer f.Close()

			res, err := conf.Decoder(nil).Decode(frame.Words(f.Bytes()))
			if err != nil {
				// keep the records decoded before the invalid frame.
				msg.Printf("%s: warning: %v", fname, err)
			}
			for _, warn := range res.Warnings {
				msg.Printf("%s: warning: %v", fname, warn)
			}

			outs[i] = result{
				tbl:    res.Table,
				counts: grd.Grade(&res.Table),
			}
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return frame.Table{}, nil, err
	}

	var (
		tbl    frame.Table
		counts []grade.Count
	)
	for _, out := range outs {
		for i := 0; i < out.tbl.Len(); i++ {
			tbl.Append(*out.tbl.At(i))
		}
		counts = append(counts, out.counts...)
	}

	return tbl, counts, nil
}
