// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grade

import (
	"fmt"
)

// Policy describes how the candidate strips of one detector side are
// reduced to at most one count.
type Policy uint8

const (
	// Single accepts triggers with one candidate strip, or with two
	// adjacent candidate strips, keeping the one with the highest ADC
	// value (the later one on a tie).
	// Two non-adjacent or more than two candidates are rejected.
	Single Policy = iota + 1

	// Double grades candidates exactly like Single.
	Double

	// SingleOrDouble grades candidates exactly like Single.
	SingleOrDouble

	// MaxADC keeps the candidate with the highest ADC value, whatever
	// the number of candidates, as long as the candidates ADC sum is
	// positive.
	MaxADC
)

var policies = []struct {
	p     Policy
	names []string
}{
	{Single, []string{"single", "1"}},
	{Double, []string{"double", "2"}},
	{SingleOrDouble, []string{"single_or_double", "1and2"}},
	{MaxADC, []string{"max_adc"}},
}

// ParsePolicy parses a grading policy name.
func ParsePolicy(name string) (Policy, error) {
	for _, v := range policies {
		for _, n := range v.names {
			if n == name {
				return v.p, nil
			}
		}
	}
	return 0, fmt.Errorf("grade: invalid policy %q", name)
}

func (p Policy) String() string {
	for _, v := range policies {
		if v.p == p {
			return v.names[0]
		}
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

func (p Policy) valid() bool {
	return Single <= p && p <= MaxADC
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("grade: invalid policy %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
