// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/internal/trgsim"
	"github.com/go-lpc/hgctrg/internal/xcnv"
	"github.com/go-lpc/hgctrg/trigger"
)

func readAll(t *testing.T, fname string) []slink.Record {
	t.Helper()

	f, err := os.Open(fname)
	if err != nil {
		t.Fatalf("could not open %q: %+v", fname, err)
	}
	defer f.Close()

	var (
		r    = slink.NewReader(f)
		recs []slink.Record
	)
	for {
		var rec slink.Record
		err := r.Read(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("could not read record: %+v", err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestSkim(t *testing.T) {
	msg.SetOutput(io.Discard)
	defer msg.SetOutput(os.Stdout)

	tmp, err := os.MkdirTemp("", "hgctrg-trg-skim-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	sim := trgsim.New(7, 1)
	for i := 0; i < 4; i++ {
		sim.Set(5, 0, 1+i, trgsim.BC(uint64(i), 0x10))
	}

	var (
		state = slink.Record{Header: slink.NewHeader(slink.StateData, 1, 0, 1700000000)}
		good  = sim.Record(1700000001, slink.EOE{BXID: 1})
	)
	sim.Missing[4] = true
	bad := sim.Record(1700000002, slink.EOE{BXID: 2})

	fname := filepath.Join(tmp, "run_000001.raw")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	defer f.Close()

	w := slink.NewWriter(f)
	for i, rec := range []slink.Record{state, good, bad, good} {
		err := w.Write(rec)
		if err != nil {
			t.Fatalf("could not write record %d: %+v", i, err)
		}
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}

	unp, err := trigger.Config{
		Variant: "TBsep24",
		Indexer: trigger.IndexerConfig{
			LayerOffset: 1000, ModOffset: 100,
			MaxLayer: 4, MaxMod: 3, MaxCh: 12,
		},
	}.NewUnpacker(msg)
	if err != nil {
		t.Fatalf("could not create unpacker: %+v", err)
	}

	var (
		oname = filepath.Join(tmp, "skim.raw")
		bname = filepath.Join(tmp, "bad.raw")
	)
	stats, err := process(oname, bname, fname, unp)
	if err != nil {
		t.Fatalf("could not skim file: %+v", err)
	}

	if got, want := stats, (xcnv.Stats{Records: 4, Events: 2, Rejected: 1}); got != want {
		t.Fatalf("invalid stats: got=%+v, want=%+v", got, want)
	}

	skim := readAll(t, oname)
	if got, want := len(skim), 3; got != want {
		t.Fatalf("invalid number of skimmed records: got=%d, want=%d", got, want)
	}
	for i, want := range []slink.Record{state, good, good} {
		got := skim[i]
		if got.Header.UTC() != want.Header.UTC() || !reflect.DeepEqual(got.Payload, want.Payload) {
			t.Fatalf("invalid skimmed record %d", i)
		}
	}

	rejected := readAll(t, bname)
	if got, want := len(rejected), 1; got != want {
		t.Fatalf("invalid number of rejected records: got=%d, want=%d", got, want)
	}
	if got, want := rejected[0].Header.UTC(), uint32(1700000002); got != want {
		t.Fatalf("invalid rejected record: got=%d, want=%d", got, want)
	}
}
