// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory database/sql driver, serving
// canned rows and recording executed statements.
package fakedb // import "github.com/foxsi/cdte/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var state struct {
	mu    sync.Mutex
	rows  Rows
	execs []Exec
}

// Run runs f with the provided rows served to every query.
// Calls to Run are serialized.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.rows = rows
	state.execs = nil

	return f(ctx)
}

// Execs returns the statements executed during the current Run.
func Execs() []Exec {
	return append([]Exec(nil), state.execs...)
}

// Exec is a recorded statement.
type Exec struct {
	Query string
	Args  []driver.Value
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &conn{}, nil
}

type conn struct{}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{query: query}, nil
}

func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) { return tx{}, nil }

type tx struct{}

func (tx) Commit() error   { return nil }
func (tx) Rollback() error { return nil }

type stmt struct {
	query string
}

func (stmt *stmt) Close() error  { return nil }
func (stmt *stmt) NumInput() int { return -1 }

func (stmt *stmt) Exec(args []driver.Value) (driver.Result, error) {
	state.execs = append(state.execs, Exec{
		Query: stmt.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return driver.RowsAffected(1), nil
}

func (stmt *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &rows{
		names:  state.rows.Names,
		values: state.rows.Values,
	}, nil
}

// Rows holds the column names and the values served by queries.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

type rows struct {
	names  []string
	values [][]driver.Value
}

func (rows *rows) Columns() []string { return rows.names }
func (rows *rows) Close() error      { return nil }

func (rows *rows) Next(dest []driver.Value) error {
	if len(rows.values) == 0 {
		return io.EOF
	}
	copy(dest, rows.values[0])
	rows.values = rows.values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*conn)(nil)
	_ driver.Tx     = (*tx)(nil)
	_ driver.Stmt   = (*stmt)(nil)
	_ driver.Rows   = (*rows)(nil)
)
