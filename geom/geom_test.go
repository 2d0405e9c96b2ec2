// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"math"
	"testing"
)

func TestChannelMap(t *testing.T) {
	m := Channels()
	if m != Channels() {
		t.Fatalf("channel map built twice")
	}

	seen := make(map[int]int, NumStrips)
	for i := 0; i < NumStrips; i++ {
		p := m.Physical(i)
		if p < 0 || p >= NumStrips {
			t.Fatalf("invalid physical strip %d for logical %d", p, i)
		}
		if j, dup := seen[p]; dup {
			t.Fatalf("physical strip %d reached from %d and %d", p, j, i)
		}
		seen[p] = i
		if got := m.Logical(p); got != i {
			t.Fatalf("invalid round trip: logical(%d)=%d, want %d", p, got, i)
		}
	}
	if got, want := len(seen), NumStrips; got != want {
		t.Fatalf("invalid image size: got=%d, want=%d", got, want)
	}

	for _, tc := range []struct {
		logical  int
		physical int
	}{
		{0, 63},
		{40, 23},
		{63, 0},
		{64, 127},
		{127, 64},
		{128, 255},
		{180, 203},
		{191, 192},
		{192, 191},
		{255, 128},
	} {
		if got := m.Physical(tc.logical); got != tc.physical {
			t.Errorf("physical(%d): got=%d, want=%d", tc.logical, got, tc.physical)
		}
	}

	if got, want := m.PhysicalAl(52), 75; got != want {
		t.Fatalf("invalid Al strip: got=%d, want=%d", got, want)
	}
	if got, want := m.LogicalAl(75), 52; got != want {
		t.Fatalf("invalid Al strip: got=%d, want=%d", got, want)
	}
}

func TestGeometry(t *testing.T) {
	g := Pixels()
	if g != Pixels() {
		t.Fatalf("geometry built twice")
	}

	half := g.HalfEdges()
	if got, want := len(half), 65; got != want {
		t.Fatalf("invalid number of half edges: got=%d, want=%d", got, want)
	}
	for i := 1; i < len(half); i++ {
		if !(half[i] > half[i-1]) {
			t.Fatalf("half edges not increasing at %d: %v <= %v", i, half[i], half[i-1])
		}
	}
	for _, tc := range []struct {
		i    int
		want float64
	}{
		{0, 0},
		{28, 2800},
		{29, 2890},
		{48, 4410},
		{49, 4480},
		{64, 5380},
	} {
		if got := half[tc.i]; got != tc.want {
			t.Errorf("half-edge[%d]: got=%v, want=%v", tc.i, got, tc.want)
		}
	}

	edges := g.Edges()
	if got, want := len(edges), 129; got != want {
		t.Fatalf("invalid number of edges: got=%d, want=%d", got, want)
	}
	for i := range edges {
		if got, want := edges[i]+edges[len(edges)-1-i], 2*5380.0; got != want {
			t.Fatalf("edges not symmetric at %d: %v", i, got)
		}
	}

	widths := g.Widths()
	if got, want := len(widths), 128; got != want {
		t.Fatalf("invalid number of widths: got=%d, want=%d", got, want)
	}
	for _, tc := range []struct {
		i    int
		want float64
	}{
		{0, 100},
		{28, 90},
		{29, 80},
		{48, 70},
		{49, 60},
		{63, 60},
		{64, 60},
		{127, 100},
	} {
		if got := widths[tc.i]; got != tc.want {
			t.Errorf("width[%d]: got=%v, want=%v", tc.i, got, tc.want)
		}
	}

	area := g.Area()
	r, c := area.Dims()
	if r != 128 || c != 128 {
		t.Fatalf("invalid area dims: (%d,%d)", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := area.At(i, j)
			if !(v > 0) {
				t.Fatalf("invalid area[%d,%d]=%v", i, j, v)
			}
			if want := widths[i] * widths[j]; v != want {
				t.Fatalf("invalid area[%d,%d]: got=%v, want=%v", i, j, v, want)
			}
		}
	}

	// modifying the copy does not alter the geometry.
	area.Set(0, 0, -1)
	if got := g.PixelArea(0, 0); got != 100*100 {
		t.Fatalf("geometry mutated: %v", got)
	}

	arcm := g.ArcminEdges()
	if got, want := arcm[0], -FieldOfView/2; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid first arcmin edge: got=%v, want=%v", got, want)
	}
	if got, want := arcm[64], 0.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid center arcmin edge: got=%v, want=%v", got, want)
	}
	if got, want := arcm[128], FieldOfView/2; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid last arcmin edge: got=%v, want=%v", got, want)
	}
}
