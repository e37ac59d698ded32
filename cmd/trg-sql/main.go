// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trg-sql retrieves the unpacking configuration of a run from the
// conditions database and exports it as a JSON file.
package main // import "github.com/go-lpc/hgctrg/cmd/trg-sql"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/hgctrg/conddb"
	"github.com/go-lpc/hgctrg/trigger"
)

func main() {
	log.SetPrefix("trg-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "hgcal", "name of the conditions database")
		run    = flag.Int("run", -1, "run number to inspect (default: last run)")
		oname  = flag.String("o", "", "path to output JSON configuration file (default: stdout)")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open conditions db: %+v", err)
	}
	defer db.Close()

	cfg, err := doQuery(db, *run)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}

	var w io.Writer = os.Stdout
	if *oname != "" {
		f, err := os.Create(*oname)
		if err != nil {
			log.Fatalf("could not create output file: %+v", err)
		}
		defer f.Close()
		w = f
	}

	err = export(w, cfg)
	if err != nil {
		log.Fatalf("could not export configuration: %+v", err)
	}
}

func doQuery(db *conddb.DB, run int) (trigger.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if run < 0 {
		v, err := db.LastRun(ctx)
		if err != nil {
			return trigger.Config{}, fmt.Errorf("could not get last run value: %w", err)
		}
		run = v
	}
	log.Printf("run: %d", run)

	cfg, err := db.TriggerConfig(ctx, run)
	if err != nil {
		return cfg, fmt.Errorf("could not get trigger cfg (run=%d): %w", run, err)
	}
	log.Printf("variant: %q", cfg.Variant)
	log.Printf("trains:  %d", cfg.Trains)

	return cfg, nil
}

func export(w io.Writer, cfg trigger.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("could not encode configuration: %w", err)
	}
	return nil
}
