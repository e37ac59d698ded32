// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to retrieve the trigger-link unpacking
// configuration from the conditions database.
package conddb // import "github.com/go-lpc/hgctrg/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-lpc/hgctrg/trigger"
	_ "github.com/go-sql-driver/mysql"
)

var (
	host = "localhost"
	usr  = "username"
	pwd  = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve conditions data
// from the HGCal trigger database.
type DB struct {
	db   *sql.DB
	name string // name of the conditions database
}

// Open opens a connection to the conditions database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

// Name returns the name of the conditions database.
func (db *DB) Name() string { return db.name }

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastRun returns the number of the most recent run.
func (db *DB) LastRun(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	run := -1
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT run FROM runs ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return run, fmt.Errorf("conddb: could not query last run: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&run)
		if err != nil {
			return run, fmt.Errorf("conddb: could not get last run value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return run, fmt.Errorf("conddb: could not scan db for last run: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("conddb: context error while retrieving last run: %w", err)
	}

	if run < 0 {
		return run, fmt.Errorf("conddb: no run in db %q", db.name)
	}

	return run, nil
}

// TriggerConfig returns the unpacking configuration valid for the provided run.
// The most recent configuration whose run range holds run is selected.
func (db *DB) TriggerConfig(ctx context.Context, run int) (trigger.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cfg trigger.Config
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT variant, trains,
	layer_offset, module_offset,
	max_layer, max_module, max_channel
FROM trigger_configs
WHERE (
	min_run <= ? AND max_run >= ?
)
ORDER BY datetime DESC LIMIT 1
`,
		run, run,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not run trigger cfg query: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(
			&cfg.Variant, &cfg.Trains,
			&cfg.Indexer.LayerOffset, &cfg.Indexer.ModOffset,
			&cfg.Indexer.MaxLayer, &cfg.Indexer.MaxMod, &cfg.Indexer.MaxCh,
		)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not scan trigger cfg for run %d: %w", run, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for trigger cfg: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving trigger cfg: %w", err)
	}

	if n == 0 {
		return cfg, fmt.Errorf("conddb: no trigger cfg for run %d", run)
	}

	return cfg, nil
}

// LoadTriggerConfig connects to the conditions database dbname and
// retrieves the unpacking configuration of the provided run.
// A negative run number selects the most recent run.
// LoadTriggerConfig returns the configuration and the run number it is
// valid for.
func LoadTriggerConfig(ctx context.Context, dbname string, run int) (trigger.Config, int, error) {
	var cfg trigger.Config

	db, err := Open(dbname)
	if err != nil {
		return cfg, run, err
	}
	defer db.Close()

	if run < 0 {
		run, err = db.LastRun(ctx)
		if err != nil {
			return cfg, run, err
		}
	}

	cfg, err = db.TriggerConfig(ctx, run)
	if err != nil {
		return cfg, run, err
	}

	err = db.Close()
	if err != nil {
		return cfg, run, fmt.Errorf("conddb: could not close db %q: %w", dbname, err)
	}

	return cfg, run, nil
}
