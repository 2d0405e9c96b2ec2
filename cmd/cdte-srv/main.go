// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cdte-srv starts a TDAQ server decoding and grading CdTe raw
// telemetry buffers.
//
// Raw buffers are read from the "/raw" input and graded counts are
// published on the "/counts" output.
// The initial configuration is read from the JSON file named by the
// CDTE_CONFIG environment variable, if any.
package main // import "github.com/foxsi/cdte/cmd/cdte-srv"

import (
	"context"
	"log"
	"os"

	"github.com/foxsi/cdte/internal/cfg"
	"github.com/foxsi/cdte/online"
	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
)

func main() {
	cmd := flags.New()

	conf, err := config(os.Getenv("CDTE_CONFIG"))
	if err != nil {
		log.Panicf("could not load configuration: %+v", err)
	}

	dev := online.New(conf)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.InputHandle("/raw", dev.Raw)
	srv.OutputHandle("/counts", dev.Counts)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func config(fname string) (cfg.Config, error) {
	if fname == "" {
		return cfg.Default(), nil
	}
	return cfg.Load(fname)
}
