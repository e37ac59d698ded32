// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/internal/trgsim"
)

const cfgJSON = `{
	"variant": "TBsep24",
	"indexer": {
		"layer_offset": 1000,
		"module_offset": 100,
		"max_layer": 4,
		"max_module": 3,
		"max_channel": 12
	}
}`

func writeRaw(t *testing.T, fname string) {
	t.Helper()

	sim := trgsim.New(7, 2)
	for bx := 0; bx < 2; bx++ {
		for i := 0; i < 4; i++ {
			sim.Set(5, bx, 1+i, trgsim.BC(uint64(i+bx), 0x21))
		}
	}
	sim.Set(5, 1, 6, 0x0000ffff)

	good := sim.Record(1700000001, slink.EOE{BXID: 0x123, OrbitID: 42})
	bad := sim.Record(1700000002, slink.EOE{BXID: 0x124, OrbitID: 43})
	bad.Payload = bad.Payload[:40]
	bad.AppendEOE(slink.EOE{BXID: 0x124, OrbitID: 43})

	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	defer f.Close()

	w := slink.NewWriter(f)
	for i, rec := range []slink.Record{
		{Header: slink.NewHeader(slink.StateData, 1, 0, 1700000000)},
		good,
		bad,
	} {
		err := w.Write(rec)
		if err != nil {
			t.Fatalf("could not write record %d: %+v", i, err)
		}
	}

	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}
}

func TestDump(t *testing.T) {
	msg.SetOutput(io.Discard)
	defer msg.SetOutput(os.Stdout)

	tmp, err := os.MkdirTemp("", "hgctrg-trg-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	var (
		cfg   = filepath.Join(tmp, "trigger.json")
		fname = filepath.Join(tmp, "run_001729.raw")
	)
	err = os.WriteFile(cfg, []byte(cfgJSON), 0644)
	if err != nil {
		t.Fatalf("could not write cfg file: %+v", err)
	}
	writeRaw(t, fname)

	for _, tc := range []struct {
		name string
		args []string
		want []string
		skip []string
	}{
		{
			name: "all",
			args: []string{"-cfg", cfg, "-j", "2", fname},
			want: []string{
				"=== event 0 ===\n",
				fmt.Sprintf("Digis:      % 6d\n", 12),
				fmt.Sprintf("Trig time:  % 6d\n", 48),
				fmt.Sprintf("Trig width: % 6d\n", 16),
				"idx=  200 L=0 M=2 C=0 algo=BC    loc=[0 1] E=[35 35]\n",
				"=== event 1 ===\n",
				"error: trigger: framing error on channel",
			},
			skip: []string{"module BC2"},
		},
		{
			name: "first",
			args: []string{"-cfg", cfg, "-n", "1", "-modules", fname},
			want: []string{
				"=== event 0 ===\n",
				"module BC2 (train 0):\n",
				"module BC0 (train 0):\n",
				"    bx=1 cells: (1, 35) (2, 35) (3, 35) (4, 35)\n",
			},
			skip: []string{"=== event 1 ==="},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			err := xmain(out, tc.args)
			if err != nil {
				t.Fatalf("could not dump file: %+v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.String(), want) {
					t.Fatalf("missing %q in output:\n%s", want, out.String())
				}
			}
			for _, skip := range tc.skip {
				if strings.Contains(out.String(), skip) {
					t.Fatalf("unexpected %q in output:\n%s", skip, out.String())
				}
			}
		})
	}
}

func TestInvalidArgs(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "no-file",
			args: []string{"-cfg", "trigger.json"},
			err:  "missing path to input raw file",
		},
		{
			name: "no-cfg",
			args: []string{"file.raw"},
			err:  "missing unpacking configuration (-cfg or -db)",
		},
		{
			name: "both",
			args: []string{"-cfg", "trigger.json", "-db", "hgcal", "file.raw"},
			err:  "-cfg and -db are mutually exclusive",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := xmain(io.Discard, tc.args)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.err; got != want {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
			}
		})
	}
}
