// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio2raw converts a LCIO file into an HGCal trigger-link raw data file.
package main // import "github.com/go-lpc/hgctrg/cmd/lcio2raw"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "lcio2raw: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.raw", "path to output raw file")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio2raw [OPTIONS] file.lcio

ex:
 $> lcio2raw -o out.raw ./input.lcio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input LCIO file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output raw file name")
	}

	n, err := numEvents(flag.Arg(0))
	if err != nil {
		msg.Fatalf("could not assess number of events: %+v", err)
	}
	msg.Printf("input:  %s", flag.Arg(0))
	msg.Printf("events: %d", n)

	err = process(*oname, flag.Arg(0), int(n/10))
	if err != nil {
		msg.Fatalf("could not convert LCIO file: %+v", err)
	}
}

func numEvents(fname string) (int64, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	var n int64
	for r.Next() {
		n++
	}

	err = r.Err()
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("could not assess number of events in %q: %w", fname, err)
	}

	return n, nil
}

func process(oname, fname string, freq int) error {
	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	f, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output raw file: %w", err)
	}
	defer f.Close()

	wbuf := bufio.NewWriter(f)
	stats, err := xcnv.LCIO2Raw(slink.NewWriter(wbuf), r, freq, msg)
	if err != nil {
		return fmt.Errorf("could not convert LCIO to raw data: %w", err)
	}
	msg.Printf("converted %d events", stats.Events)

	err = wbuf.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output raw file: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output raw file: %w", err)
	}
	return nil
}
