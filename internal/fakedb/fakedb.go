// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory SQL driver, named "fakedb", serving
// canned rows.
package fakedb // import "github.com/go-lpc/hgctrg/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

// Query is a statement executed against the fake database.
type Query struct {
	SQL  string
	Args []driver.Value
}

var state struct {
	mu      sync.Mutex
	rows    Rows
	queries []Query
}

// Run serves rows to the queries executed by f.
// Calls to Run are serialized.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.rows = rows
	state.queries = state.queries[:0]

	return f(ctx)
}

// Queries returns the statements executed during the current Run.
// Queries must be called from the function passed to Run.
func Queries() []Query {
	return append([]Query(nil), state.queries...)
}

func init() {
	sql.Register("fakedb", &Driver{})
}

// Driver is the fake SQL driver.
type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

// Conn is a connection to the fake database.
type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return nil
}

// Begin is not supported.
func (c *Conn) Begin() (driver.Tx, error) {
	panic("fakedb: transactions not implemented")
}

// Stmt is a prepared statement.
type Stmt struct {
	query string
}

// Close closes the statement.
func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: placeholders are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec is not supported.
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	panic("fakedb: exec not implemented")
}

// Query records the statement and returns the rows of the current Run.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	state.queries = append(state.queries, Query{
		SQL:  stmt.query,
		Args: append([]driver.Value(nil), args...),
	})
	rows := state.rows
	return &rows, nil
}

// Rows holds the canned result of a query.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
