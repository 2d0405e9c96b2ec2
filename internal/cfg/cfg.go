// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfg holds the configuration of the CdTe decoding tools.
package cfg // import "github.com/foxsi/cdte/internal/cfg"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/foxsi/cdte/conddb"
	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/grade"
)

// Config describes how raw telemetry is decoded and graded.
type Config struct {
	PtGrade grade.Policy `json:"pt_grade"`
	AlGrade grade.Policy `json:"al_grade"`

	// BadStrips, when set, takes precedence over the bad strips of
	// the condition database and over the built-in ones.
	BadStrips *grade.Mask `json:"bad_strips,omitempty"`
	Detector  string      `json:"detector,omitempty"` // detector name (cdte1, ..., cdte4)
	DB        string      `json:"db,omitempty"`       // name of the condition database

	TIClockInterval float64 `json:"ti_clock_interval"` // period of the trigger clock, in seconds
	Resync          bool    `json:"resync"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		PtGrade:         grade.MaxADC,
		AlGrade:         grade.MaxADC,
		TIClockInterval: frame.TIClockInterval,
	}
}

// Load loads the configuration from the named JSON file.
// Fields missing from the file keep their default value.
func Load(fname string) (Config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return Config{}, fmt.Errorf("cfg: could not read configuration file: %w", err)
	}

	cfg, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return cfg, fmt.Errorf("cfg: could not load %q: %w", fname, err)
	}
	return cfg, nil
}

// Decode decodes a JSON configuration from r.
// Fields missing from the input keep their default value.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("cfg: could not decode configuration: %w", err)
	}

	if cfg.TIClockInterval <= 0 {
		return cfg, fmt.Errorf("cfg: invalid TI clock interval %v", cfg.TIClockInterval)
	}
	return cfg, nil
}

// Mask returns the bad strips to use.
// Explicit bad strips come first, then the condition database, then
// the built-in bad strips of the detector.
func (cfg Config) Mask(ctx context.Context) (grade.Mask, error) {
	switch {
	case cfg.BadStrips != nil:
		return *cfg.BadStrips, nil

	case cfg.DB != "":
		if cfg.Detector == "" {
			return grade.Mask{}, fmt.Errorf("cfg: condition database %q requires a detector name", cfg.DB)
		}
		db, err := conddb.Open(cfg.DB)
		if err != nil {
			return grade.Mask{}, fmt.Errorf("cfg: could not open condition database: %w", err)
		}
		defer db.Close()

		mask, err := db.BadStrips(ctx, cfg.Detector)
		if err != nil {
			return mask, fmt.Errorf("cfg: could not retrieve bad strips: %w", err)
		}
		return mask, nil

	case cfg.Detector != "":
		return conddb.DefaultBadStrips(cfg.Detector)
	}

	return grade.Mask{}, nil
}

// Grader creates the grader described by the configuration.
func (cfg Config) Grader(ctx context.Context) (*grade.Grader, error) {
	mask, err := cfg.Mask(ctx)
	if err != nil {
		return nil, err
	}

	g, err := grade.New(cfg.PtGrade, cfg.AlGrade, mask)
	if err != nil {
		return nil, fmt.Errorf("cfg: could not create grader: %w", err)
	}
	return g, nil
}

// Decoder creates the frame decoder described by the configuration.
func (cfg Config) Decoder(msg *log.Logger) *frame.Decoder {
	opts := []frame.Option{frame.WithLogger(msg)}
	if cfg.Resync {
		opts = append(opts, frame.WithResync())
	}
	return frame.NewDecoder(opts...)
}
