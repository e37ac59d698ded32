// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// trg-dump decodes and displays the events of HGCal trigger-link raw files.
//
// Usage: trg-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> trg-dump -cfg ./trigger.json ./run_001729.raw
//	=== event 0 ===
//	BXID:        0x123
//	Orbit:          42
//	Trig time:      48
//	Trig width:     16
//	Trig flags:      0
//	Num BX:          2
//	Digis:          12
//	  idx=    0 L=0 M=0 C=0 algo=BC    loc=[0 0] E=[0 0]
//	[...]
//	  idx=  200 L=0 M=2 C=0 algo=BC    loc=[0 1] E=[35 35]
//	[...]
//	trg-dump: file "./run_001729.raw": records=3, events=1, rejected=1
package main // import "github.com/go-lpc/hgctrg/cmd/trg-dump"

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/hgctrg/conddb"
	"github.com/go-lpc/hgctrg/internal/mmap"
	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/trigger"
)

const usage = `trg-dump decodes and displays the events of HGCal trigger-link raw files.

Usage: trg-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> trg-dump -cfg ./trigger.json ./run_001729.raw
 $> trg-dump -db hgcal -run 1729 -j 4 -n 10 ./run_001729.raw

options:
`

var (
	msg = log.New(os.Stdout, "trg-dump: ", 0)
)

func main() {
	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		msg.Fatalf("%+v", err)
	}
}

type options struct {
	nevts   int  // maximum number of events to display per file
	nwrks   int  // number of concurrent decoders
	modules bool // display the per-module views
}

func xmain(w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("trg-dump", flag.ContinueOnError)

		cfg  = fset.String("cfg", "", "path to a JSON unpacking configuration file")
		db   = fset.String("db", "", "name of the conditions database holding the unpacking configuration")
		run  = fset.Int("run", -1, "run number of the configuration to retrieve from the conditions database (default: last run)")
		nwrk = fset.Int("j", 0, "number of concurrent decoders (default: number of CPUs)")
		nevt = fset.Int("n", 0, "maximum number of events to display per file (0: all)")
		mods = fset.Bool("modules", false, "display the per-module packed and unpacked views")
	)

	fset.Usage = func() {
		fmt.Fprint(fset.Output(), usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing path to input raw file")
	}

	unp, err := newUnpacker(*cfg, *db, *run)
	if err != nil {
		return err
	}

	opts := options{
		nevts:   *nevt,
		nwrks:   *nwrk,
		modules: *mods,
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, unp, opts)
		if err != nil {
			return fmt.Errorf("could not dump file %q: %w", fname, err)
		}
	}

	return nil
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
		if err != nil {
			return nil, fmt.Errorf("could not load unpacking configuration: %w", err)
		}
	case dbname != "":
		cfg, run, err = conddb.LoadTriggerConfig(context.Background(), dbname, run)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve unpacking configuration: %w", err)
		}
		msg.Printf("using unpacking configuration of run %d", run)
	default:
		return nil, fmt.Errorf("missing unpacking configuration (-cfg or -db)")
	}

	unp, err := cfg.NewUnpacker(msg)
	if err != nil {
		return nil, fmt.Errorf("could not create unpacker: %w", err)
	}
	return unp, nil
}

// rawEvent is an event record of a raw file.
type rawEvent struct {
	raw []byte
	eoe slink.EOE
}

func process(w io.Writer, fname string, unp *trigger.Unpacker, opts options) error {
	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open raw file: %w", err)
	}
	defer f.Close()

	var (
		r    = slink.NewReader(io.NewSectionReader(f, 0, int64(f.Len())))
		rec  slink.Record
		evts []rawEvent
		nrec = 0
	)

loop:
	for {
		err := r.Read(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not read S-link record: %w", err)
		}
		nrec++
		if !rec.IsEvent() {
			continue
		}
		eoe, _ := rec.EOE()
		evts = append(evts, rawEvent{raw: rec.Bytes(), eoe: eoe})
		if opts.nevts > 0 && len(evts) >= opts.nevts {
			break loop
		}
	}

	raws := make([][]byte, len(evts))
	for i, evt := range evts {
		raws[i] = evt.raw
	}

	res, err := trigger.DecodeAll(context.Background(), unp, raws, opts.nwrks)
	if err != nil {
		return fmt.Errorf("could not decode events: %w", err)
	}

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	rejected := 0
	for i, out := range res {
		fmt.Fprintf(wbuf, "=== event %d ===\n", i)
		fmt.Fprintf(wbuf, "BXID:       % 6s\n", fmt.Sprintf("0x%x", evts[i].eoe.BXID))
		fmt.Fprintf(wbuf, "Orbit:      % 6d\n", evts[i].eoe.OrbitID)
		if out.Err != nil {
			// framing errors are reported per event.
			fmt.Fprintf(wbuf, "error: %+v\n", out.Err)
			rejected++
			continue
		}
		dump(wbuf, out.Event, opts.modules)
	}

	err = wbuf.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	msg.Printf(
		"file %q: records=%d, events=%d, rejected=%d",
		fname, nrec, len(res)-rejected, rejected,
	)

	return nil
}

func dump(w io.Writer, evt *trigger.Event, modules bool) {
	idx := evt.Available()
	fmt.Fprintf(w, "Trig time:  % 6d\n", evt.Meta.TrigTime)
	fmt.Fprintf(w, "Trig width: % 6d\n", evt.Meta.TrigWidth)
	fmt.Fprintf(w, "Trig flags: % 6d\n", evt.Meta.Flags)
	fmt.Fprintf(w, "Num BX:     % 6d\n", evt.NumBX)
	fmt.Fprintf(w, "Digis:      % 6d\n", len(idx))
	for _, warn := range evt.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warn)
	}

	for _, i := range idx {
		digi := &evt.Digis[i]
		fmt.Fprintf(w,
			"  idx=% 5d L=%d M=%d C=%d algo=%-5v loc=%v E=%v\n",
			i, digi.Layer, digi.Module, digi.Channel, digi.Algo,
			digi.Loc[:evt.NumBX], digi.Energy[:evt.NumBX],
		)
	}

	if !modules {
		return
	}

	for _, mod := range evt.Modules {
		fmt.Fprintf(w, "  module %s (train %d):\n", mod.Module.Name, mod.Train)
		for bx, pck := range mod.Packed {
			fmt.Fprintf(w,
				"    bx=%d packed: sum=0x%02x locs=%v energies=%v\n",
				bx, pck.ModuleSum, pck.Locs, pck.Energies,
			)
		}
		for bx, cells := range mod.Cells {
			fmt.Fprintf(w, "    bx=%d cells:", bx)
			for _, cell := range cells {
				fmt.Fprintf(w, " (%d, %d)", cell.Loc, cell.Energy)
			}
			fmt.Fprintf(w, "\n")
		}
	}
}
