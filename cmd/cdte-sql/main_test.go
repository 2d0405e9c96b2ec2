// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/foxsi/cdte/frame"
)

func TestParseStrip(t *testing.T) {
	for _, tc := range []struct {
		str   string
		side  frame.SideID
		strip int
		err   bool
	}{
		{str: "pt:53", side: frame.Pt, strip: 53},
		{str: "Al:0", side: frame.Al, strip: 0},
		{str: "al:127", side: frame.Al, strip: 127},
		{str: "al:128", err: true},
		{str: "pt:-1", err: true},
		{str: "cd:12", err: true},
		{str: "pt", err: true},
		{str: "pt:xx", err: true},
	} {
		t.Run(tc.str, func(t *testing.T) {
			side, strip, err := parseStrip(tc.str)
			switch {
			case err != nil && tc.err:
				return
			case err != nil && !tc.err:
				t.Fatalf("could not parse %q: %+v", tc.str, err)
			case err == nil && tc.err:
				t.Fatalf("expected an error")
			}
			if side != tc.side || strip != tc.strip {
				t.Fatalf("invalid bad strip: got=%v:%d, want=%v:%d", side, strip, tc.side, tc.strip)
			}
		})
	}
}
