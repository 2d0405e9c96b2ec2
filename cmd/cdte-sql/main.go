// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cdte-sql inspects and updates the bad strips of the CdTe
// condition database.
//
// Usage: cdte-sql [OPTIONS]
//
// Example:
//
//	$> cdte-sql -det=cdte2
//	$> cdte-sql -det=cdte2 -add=pt:53
package main // import "github.com/foxsi/cdte/cmd/cdte-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/foxsi/cdte/conddb"
	"github.com/foxsi/cdte/frame"
)

func main() {
	log.SetPrefix("cdte-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "foxsi", "name of the condition database")
		det    = flag.String("det", "", "detector to inspect (default: all built-in detectors)")
		add    = flag.String("add", "", "bad strip to add, as side:strip (e.g. pt:53)")
	)

	flag.Parse()

	var (
		side  frame.SideID
		strip = -1
	)
	if *add != "" {
		if *det == "" {
			log.Fatalf("missing detector name for new bad strip")
		}
		var err error
		side, strip, err = parseStrip(*add)
		if err != nil {
			log.Fatalf("could not parse bad strip %q: %+v", *add, err)
		}
	}

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open condition db: %+v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if strip >= 0 {
		err = db.AddBadStrip(ctx, *det, side, strip)
		if err != nil {
			log.Fatalf("could not add bad strip: %+v", err)
		}
	}

	dets := conddb.Detectors()
	if *det != "" {
		dets = []string{*det}
	}

	for _, name := range dets {
		mask, err := db.BadStrips(ctx, name)
		if err != nil {
			log.Fatalf("could not retrieve bad strips of %q: %+v", name, err)
		}
		log.Printf("%s: pt=%v al=%v", name, mask.Pt, mask.Al)
	}
}

func parseStrip(v string) (frame.SideID, int, error) {
	toks := strings.Split(v, ":")
	if len(toks) != 2 {
		return 0, -1, fmt.Errorf("invalid bad strip format %q", v)
	}

	var side frame.SideID
	switch strings.ToLower(toks[0]) {
	case "pt":
		side = frame.Pt
	case "al":
		side = frame.Al
	default:
		return 0, -1, fmt.Errorf("invalid detector side %q", toks[0])
	}

	var strip int
	_, err := fmt.Sscanf(toks[1], "%d", &strip)
	if err != nil {
		return 0, -1, fmt.Errorf("invalid strip %q: %w", toks[1], err)
	}
	if strip < 0 || strip >= frame.SideWidth {
		return 0, -1, fmt.Errorf("strip %d out of range", strip)
	}

	return side, strip, nil
}
