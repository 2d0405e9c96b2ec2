// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"gonum.org/v1/gonum/mat"
)

const (
	// FieldOfView is the angular size of a detector, in arc-minutes.
	FieldOfView = 18.7

	numHalfEdges = 65
	numEdges     = 2*numHalfEdges - 1
)

// pitch regions, from the detector border to its center.
var regions = []struct {
	pitch float64 // strip pitch in micrometres
	n     int     // number of edges in the region
}{
	{100, 29},
	{80, 20},
	{60, 16},
}

// Geometry holds the physical strip edges of a detector.
// Both sides share the same layout.
type Geometry struct {
	half  []float64
	edges []float64
	width []float64
	area  *mat.Dense
	arcm  []float64
}

// HalfEdges returns the 65 strip edges, in micrometres, from the
// detector border up to its center.
func (g *Geometry) HalfEdges() []float64 {
	return append([]float64(nil), g.half...)
}

// Edges returns the 129 strip edges, in micrometres, of the whole
// detector side, mirrored about the detector center.
func (g *Geometry) Edges() []float64 {
	return append([]float64(nil), g.edges...)
}

// Widths returns the 128 strip widths, in micrometres.
func (g *Geometry) Widths() []float64 {
	return append([]float64(nil), g.width...)
}

// Area returns a copy of the 128x128 strip-pixel areas, in square
// micrometres, indexed by (Pt, Al) physical strips.
func (g *Geometry) Area() *mat.Dense {
	return mat.DenseCopyOf(g.area)
}

// PixelArea returns the area of the pixel at the (Pt, Al) physical strips.
func (g *Geometry) PixelArea(pt, al int) float64 {
	return g.area.At(pt, al)
}

// ArcminEdges returns the strip edges in arc-minutes from the
// detector center.
func (g *Geometry) ArcminEdges() []float64 {
	return append([]float64(nil), g.arcm...)
}

func newGeometry() *Geometry {
	half := make([]float64, 0, numHalfEdges)
	prev := 0.0
	for i, r := range regions {
		beg := 0.0
		if i > 0 {
			beg = half[len(half)-1] + 0.5*(prev+r.pitch)
		}
		for k := 0; k < r.n; k++ {
			half = append(half, beg+float64(k)*r.pitch)
		}
		prev = r.pitch
	}

	var (
		center = half[len(half)-1]
		edges  = make([]float64, numEdges)
	)
	copy(edges, half)
	for i := 0; i < numHalfEdges; i++ {
		edges[numEdges-1-i] = 2*center - half[i]
	}

	width := make([]float64, numEdges-1)
	for i := range width {
		width[i] = edges[i+1] - edges[i]
	}

	w := mat.NewVecDense(len(width), width)
	area := mat.NewDense(len(width), len(width), nil)
	area.Outer(1, w, w)

	var (
		arcm = make([]float64, numEdges)
		max  = edges[numEdges-1]
	)
	for i, v := range edges {
		arcm[i] = (v/max - 0.5) * FieldOfView
	}

	return &Geometry{
		half:  half,
		edges: edges,
		width: width,
		area:  area,
		arcm:  arcm,
	}
}
