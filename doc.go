// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cdte holds code to decode and grade the telemetry of the
// FOXSI CdTe strip detectors.
//
// Raw telemetry words are demultiplexed into housekeeping and event
// frames by package frame, whose triggers form an event table.
// Package grade reduces each trigger to at most one (Pt, Al) count,
// package geom maps logical strips to physical ones and package spectra
// histograms the results.
// Package online runs the same chain as a TDAQ process.
package cdte // import "github.com/foxsi/cdte"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of cdte and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/foxsi/cdte"
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
