// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trg2lcio converts an HGCal trigger-link raw data file to an LCIO one.
package main // import "github.com/go-lpc/hgctrg/cmd/trg2lcio"

import (
	"bufio"
	"compress/flate"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/hgctrg/conddb"
	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/internal/xcnv"
	"github.com/go-lpc/hgctrg/trigger"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "trg2lcio: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("trg2lcio", flag.ExitOnError)

		oname = fset.String("o", "out.lcio", "path to output LCIO file")
		compr = fset.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		cfg   = fset.String("cfg", "", "path to a JSON unpacking configuration file")
		db    = fset.String("db", "", "name of the conditions database holding the unpacking configuration")
		run   = fset.Int("run", -1, "run number (default: inferred from the input file name)")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: trg2lcio [OPTIONS] file.raw

ex:
 $> trg2lcio -o out.lcio -lvl=9 -cfg ./trigger.json ./run_001729.raw
 $> trg2lcio -o out.lcio -db hgcal ./run_001729.raw

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input raw file")
	}

	if *oname == "" {
		fset.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	fname := fset.Arg(0)
	if *run < 0 {
		v, err := runNbrFrom(fname)
		if err != nil {
			msg.Fatalf("could not infer run from %q: %+v", fname, err)
		}
		*run = int(v)
	}

	unp, err := newUnpacker(*cfg, *db, *run)
	if err != nil {
		msg.Fatalf("could not create unpacker: %+v", err)
	}

	err = process(*oname, *compr, fname, unp, int32(*run))
	if err != nil {
		msg.Fatalf("could not convert raw file: %+v", err)
	}
}

func newUnpacker(fname, dbname string, run int) (*trigger.Unpacker, error) {
	var (
		cfg trigger.Config
		err error
	)
	switch {
	case fname != "" && dbname != "":
		return nil, fmt.Errorf("-cfg and -db are mutually exclusive")
	case fname != "":
		cfg, err = trigger.LoadConfig(fname)
	case dbname != "":
		cfg, _, err = conddb.LoadTriggerConfig(context.Background(), dbname, run)
	default:
		return nil, fmt.Errorf("missing unpacking configuration (-cfg or -db)")
	}
	if err != nil {
		return nil, err
	}
	return cfg.NewUnpacker(msg)
}

func process(oname string, lvl int, fname string, unp *trigger.Unpacker, run int32) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open raw file: %w", err)
	}
	defer f.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	stats, err := xcnv.Raw2LCIO(w, slink.NewReader(bufio.NewReader(f)), unp, run, msg)
	if err != nil {
		return fmt.Errorf("could not convert raw data to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	msg.Printf(
		"run %d: records=%d, events=%d, rejected=%d",
		run, stats.Records, stats.Events, stats.Rejected,
	)

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
	)
	_, err := fmt.Sscanf(name, "run_%d", &run)
	return run, err
}
