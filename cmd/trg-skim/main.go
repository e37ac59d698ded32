// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trg-skim copies the records of an HGCal trigger-link raw file,
// dropping the events that fail to unpack.
package main // import "github.com/go-lpc/hgctrg/cmd/trg-skim"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/internal/xcnv"
	"github.com/go-lpc/hgctrg/trigger"
)

var (
	msg = log.New(os.Stdout, "trg-skim: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("trg-skim", flag.ExitOnError)

		oname = fset.String("o", "out.raw", "path to output raw file")
		bname = fset.String("rejected", "", "path to an output raw file collecting the rejected events")
		cfg   = fset.String("cfg", "trigger.json", "path to a JSON unpacking configuration file")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: trg-skim [OPTIONS] file.raw

ex:
 $> trg-skim -o skim.raw -cfg ./trigger.json ./run_001729.raw
 $> trg-skim -o skim.raw -rejected bad.raw ./run_001729.raw

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

	ucfg, err := trigger.LoadConfig(*cfg)
	if err != nil {
		msg.Fatalf("could not load unpacking configuration: %+v", err)
	}

	unp, err := ucfg.NewUnpacker(msg)
	if err != nil {
		msg.Fatalf("could not create unpacker: %+v", err)
	}

	stats, err := process(*oname, *bname, fset.Arg(0), unp)
	if err != nil {
		msg.Fatalf("could not skim %q: %+v", fset.Arg(0), err)
	}

	msg.Printf(
		"records=%d, events=%d, rejected=%d",
		stats.Records, stats.Events, stats.Rejected,
	)
}

func process(oname, bname, fname string, unp *trigger.Unpacker) (xcnv.Stats, error) {
	var stats xcnv.Stats

	f, err := os.Open(fname)
	if err != nil {
		return stats, fmt.Errorf("could not open input raw file: %w", err)
	}
	defer f.Close()

	o, err := os.Create(oname)
	if err != nil {
		return stats, fmt.Errorf("could not create output raw file: %w", err)
	}
	defer o.Close()

	var (
		obuf = bufio.NewWriter(o)
		good = slink.NewWriter(obuf)
		bad  *slink.Writer
		bbuf *bufio.Writer
	)

	if bname != "" {
		b, err := os.Create(bname)
		if err != nil {
			return stats, fmt.Errorf("could not create rejected raw file: %w", err)
		}
		defer b.Close()
		bbuf = bufio.NewWriter(b)
		bad = slink.NewWriter(bbuf)
	}

	var (
		r   = slink.NewReader(bufio.NewReader(f))
		rec slink.Record
		evt = unp.NewEvent()
	)

	for {
		err := r.Read(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("could not read S-link record: %w", err)
		}
		stats.Records++

		dst := good
		if rec.IsEvent() {
			err = unp.Decode(rec.Bytes(), evt)
			switch err {
			case nil:
				stats.Events++
			default:
				msg.Printf("rejecting record %d: %+v", stats.Records-1, err)
				stats.Rejected++
				dst = bad
			}
		}
		if dst == nil {
			continue
		}

		err = dst.Write(rec)
		if err != nil {
			return stats, fmt.Errorf("could not write record %d: %w", stats.Records-1, err)
		}
	}

	err = obuf.Flush()
	if err != nil {
		return stats, fmt.Errorf("could not flush output raw file: %w", err)
	}

	err = o.Close()
	if err != nil {
		return stats, fmt.Errorf("could not close output raw file: %w", err)
	}

	if bbuf != nil {
		err = bbuf.Flush()
		if err != nil {
			return stats, fmt.Errorf("could not flush rejected raw file: %w", err)
		}
	}

	return stats, nil
}
