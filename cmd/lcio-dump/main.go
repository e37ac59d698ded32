// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump displays the trigger digis embedded in LCIO files.
//
// Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lcio-dump ./run_001729.lcio
//	=== run 1729, event 0 ===
//	Trig time:         27
//	Trig width:         5
//	Num BX:             1
//	Digis:             12
//	  idx=  200 L=0 M=2 C=0 algo=BC    loc=[0] E=[16]
//	[...]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/hgctrg/internal/xcnv"
	"github.com/go-lpc/hgctrg/trigger"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump displays the trigger digis embedded in LCIO files.

Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./run_001729.lcio
 === run 1729, event 0 ===
 Trig time:         27
 Trig width:         5
 Num BX:             1
 Digis:             12
   idx=  200 L=0 M=2 C=0 algo=BC    loc=[0] E=[16]
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("lcio", flag.ExitOnError)

		nevts = fset.Int("n", 0, "maximum number of events to display per file (0: all)")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *nevts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, nevts int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	size := -1
	for i := 0; r.Next() && (nevts <= 0 || i < nevts); i++ {
		if size < 0 {
			rhdr := r.RunHeader()
			size, err = sizeFrom(&rhdr)
			if err != nil {
				return fmt.Errorf("could not decode run header: %w", err)
			}
		}

		evt := r.Event()
		trg, err := xcnv.EventFrom(&evt, size)
		if err != nil {
			return fmt.Errorf("could not decode event %d: %w", evt.EventNumber, err)
		}

		idx := trg.Available()
		fmt.Fprintf(wbuf, "=== run %d, event %d ===\n", evt.RunNumber, evt.EventNumber)
		fmt.Fprintf(wbuf, "Trig time:  % 10d\n", trg.Meta.TrigTime)
		fmt.Fprintf(wbuf, "Trig width: % 10d\n", trg.Meta.TrigWidth)
		fmt.Fprintf(wbuf, "Num BX:     % 10d\n", trg.NumBX)
		fmt.Fprintf(wbuf, "Digis:      % 10d\n", len(idx))
		for _, i := range idx {
			digi := &trg.Digis[i]
			fmt.Fprintf(wbuf,
				"  idx=% 5d L=%d M=%d C=%d algo=%-5v loc=%v E=%v\n",
				i, digi.Layer, digi.Module, digi.Channel, digi.Algo,
				digi.Loc[:trg.NumBX], digi.Energy[:trg.NumBX],
			)
		}
	}

	err = r.Err()
	if err != nil && err != io.EOF {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	return nil
}

// sizeFrom returns the number of digi records described by the indexer
// configuration of a run header.
func sizeFrom(rhdr *lcio.RunHeader) (int, error) {
	v := rhdr.Params.Ints["Indexer"]
	if len(v) != 5 {
		return 0, fmt.Errorf("invalid indexer parameters (len=%d)", len(v))
	}
	idx, err := trigger.NewIndexer(trigger.IndexerConfig{
		LayerOffset: int(v[0]),
		ModOffset:   int(v[1]),
		MaxLayer:    int(v[2]),
		MaxMod:      int(v[3]),
		MaxCh:       int(v[4]),
	})
	if err != nil {
		return 0, err
	}
	return idx.Size(), nil
}
