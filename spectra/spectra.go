// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spectra builds the histograms of decoded and graded events:
// strip spectrograms and detector images.
package spectra // import "github.com/foxsi/cdte/spectra"

import (
	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/geom"
	"github.com/foxsi/cdte/grade"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/mat"
)

// NumADCBins is the number of ADC bins of a spectrogram.
const NumADCBins = 1 << 10

// Options configures a spectrogram.
type Options struct {
	Remap  bool // fill strips at their physical position
	CMNSub bool // use common-mode subtracted ADC values
}

// Spectrogram returns the (strip, ADC) histogram of all the hit strips
// of the table. Pt strips are in [0, 128), Al strips in [128, 256).
func Spectrogram(tbl *frame.Table, opts Options) *hbook.H2D {
	var (
		h = hbook.NewH2D(
			geom.NumStrips, -0.5, geom.NumStrips-0.5,
			NumADCBins, -0.5, NumADCBins-0.5,
		)
		chans = geom.Channels()
		sides = []struct {
			id  frame.SideID
			off int
		}{
			{frame.Pt, 0},
			{frame.Al, geom.NumSideStrips},
		}
	)
	h.Ann["name"] = "spectrogram"

	for i := 0; i < tbl.Len(); i++ {
		evt := tbl.At(i)
		for _, side := range sides {
			s := evt.Side(side.id)
			adcs := s.ADC
			if !opts.CMNSub {
				adcs = tbl.AddCMN(side.id, i)
			}
			for k := 0; k < int(s.Hits); k++ {
				idx := s.Index[k]
				if idx == frame.Sentinel {
					continue
				}
				strip := int(idx) + side.off
				if opts.Remap {
					strip = chans.Physical(strip)
				}
				h.Fill(float64(strip), float64(adcs[k]), 1)
			}
		}
	}

	return h
}

// Image returns the (Pt, Al) histogram of graded counts, in physical
// strip units.
func Image(counts []grade.Count) *hbook.H2D {
	const n = geom.NumSideStrips
	h := hbook.NewH2D(n, -0.5, n-0.5, n, -0.5, n-0.5)
	h.Ann["name"] = "image"
	for _, c := range counts {
		h.Fill(float64(c.PtStrip), float64(c.AlStrip), 1)
	}
	return h
}

// PhysicalImage returns the (Pt, Al) histogram of graded counts, binned
// on the physical strip edges, in micrometres.
func PhysicalImage(counts []grade.Count) *hbook.H2D {
	edges := geom.Pixels().Edges()
	h := hbook.NewH2DFromEdges(edges, edges)
	h.Ann["name"] = "physical-image"
	for _, c := range counts {
		var (
			x = 0.5 * (edges[c.PtStrip] + edges[c.PtStrip+1])
			y = 0.5 * (edges[c.AlStrip] + edges[c.AlStrip+1])
		)
		h.Fill(x, y, 1)
	}
	return h
}

// AreaCorrected returns the (Pt, Al) matrix of graded counts per
// square micrometre.
func AreaCorrected(counts []grade.Count) *mat.Dense {
	const n = geom.NumSideStrips
	img := mat.NewDense(n, n, nil)
	for _, c := range counts {
		img.Set(c.PtStrip, c.AlStrip, img.At(c.PtStrip, c.AlStrip)+1)
	}
	img.DivElem(img, geom.Pixels().Area())
	return img
}
