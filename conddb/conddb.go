// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to retrieve the conditions of the CdTe
// detectors, such as their bad strips, from the condition database.
package conddb // import "github.com/foxsi/cdte/conddb"

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/foxsi/cdte/frame"
	"github.com/foxsi/cdte/grade"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve conditions data
// from the CdTe database.
type DB struct {
	db   *sqlx.DB
	name string // name of the CdTe database
}

// Open opens a connection to the CdTe database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sqlx.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sqlx.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

// Close closes the connection to the database.
func (db *DB) Close() error {
	return db.db.Close()
}

type badStrip struct {
	Side  string `db:"side"`
	Strip int    `db:"strip"`
}

// BadStrips returns the physical bad strips of the provided detector.
func (db *DB) BadStrips(ctx context.Context, detector string) (grade.Mask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var mask grade.Mask
	rows, err := db.db.QueryxContext(
		ctx,
		"SELECT side, strip FROM bad_strips WHERE detector=? ORDER BY side, strip",
		detector,
	)
	if err != nil {
		return mask, fmt.Errorf("conddb: could not query bad strips of %q: %w", detector, err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var row badStrip
		err = rows.StructScan(&row)
		if err != nil {
			return mask, fmt.Errorf("conddb: could not scan row %d of bad strips: %w", i, err)
		}
		i++

		if row.Strip < 0 || row.Strip >= frame.SideWidth {
			return mask, fmt.Errorf("conddb: invalid %s bad strip %d for %q", row.Side, row.Strip, detector)
		}

		switch row.Side {
		case frame.Pt.String():
			mask.Pt = append(mask.Pt, row.Strip)
		case frame.Al.String():
			mask.Al = append(mask.Al, row.Strip)
		default:
			return mask, fmt.Errorf("conddb: invalid detector side %q for %q", row.Side, detector)
		}
	}

	if err := rows.Err(); err != nil {
		return mask, fmt.Errorf("conddb: could not scan db for bad strips: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return mask, fmt.Errorf("conddb: context error while retrieving bad strips: %w", err)
	}

	return mask, nil
}

// AddBadStrip records a physical bad strip for the provided detector.
func (db *DB) AddBadStrip(ctx context.Context, detector string, side frame.SideID, strip int) error {
	if strip < 0 || strip >= frame.SideWidth {
		return fmt.Errorf("conddb: invalid %v bad strip %d", side, strip)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO bad_strips (detector, side, strip) VALUES (?, ?, ?)",
		detector, side.String(), strip,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not insert %v bad strip %d for %q: %w", side, strip, detector, err)
	}

	return nil
}

// noisy lists the noisy Pt strips of the flight detectors.
var noisy = map[string][]int{
	"cdte1": {47, 59},
	"cdte2": {53, 55, 60, 63, 65},
	"cdte3": {51, 62, 63, 64, 65},
	"cdte4": {53, 65},
}

// Detectors returns the names of the detectors with built-in bad strips.
func Detectors() []string {
	names := make([]string, 0, len(noisy))
	for k := range noisy {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultBadStrips returns the built-in bad strips of the provided
// detector.
func DefaultBadStrips(detector string) (grade.Mask, error) {
	pt, ok := noisy[detector]
	if !ok {
		return grade.Mask{}, fmt.Errorf("conddb: unknown detector %q", detector)
	}
	return grade.Mask{Pt: append([]int(nil), pt...)}, nil
}
