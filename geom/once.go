// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "sync"

var (
	chans = struct {
		once sync.Once
		m    *ChannelMap
	}{}

	pixels = struct {
		once sync.Once
		g    *Geometry
	}{}
)

// Channels returns the detector channel map.
// The map is built on first use and is read-only afterwards.
func Channels() *ChannelMap {
	chans.once.Do(func() { chans.m = newChannelMap() })
	return chans.m
}

// Pixels returns the detector strip geometry.
// The geometry is built on first use and is read-only afterwards.
func Pixels() *Geometry {
	pixels.once.Do(func() { pixels.g = newGeometry() })
	return pixels.g
}
