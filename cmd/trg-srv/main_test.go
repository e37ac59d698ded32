// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/hgctrg/internal/trgsim"
	"github.com/go-lpc/hgctrg/trigger"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	tmp := t.TempDir()
	fname := filepath.Join(tmp, "trigger.json")
	err := os.WriteFile(fname, []byte(`{
	"variant": "TBsep24",
	"trains": 1,
	"indexer": {
		"layer_offset": 1000,
		"module_offset": 100,
		"max_layer": 4,
		"max_module": 3,
		"max_channel": 12
	}
}`), 0644)
	if err != nil {
		t.Fatalf("could not write cfg file: %+v", err)
	}

	srv := newServer(fname)
	err = srv.configure(nil)
	if err != nil {
		t.Fatalf("could not configure server: %+v", err)
	}
	srv.reset()
	return srv
}

func TestEncode(t *testing.T) {
	srv := newTestServer(t)

	sim := trgsim.New(7, 1)
	for i := 0; i < 4; i++ {
		sim.Set(5, 0, 1+i, trgsim.BC(uint64(i), 0x10))
	}
	sim.Set(5, 0, 6, 0x1f)

	body, err := srv.encode(sim.Bytes())
	if err != nil {
		t.Fatalf("could not encode event: %+v", err)
	}

	var evt trigger.Event
	err = trigger.NewDecoder(bytes.NewReader(body)).Decode(&evt)
	if err != nil {
		t.Fatalf("could not decode event: %+v", err)
	}

	if got, want := evt.Meta, (trigger.MetaData{TrigTime: 27, TrigWidth: 5}); got != want {
		t.Fatalf("invalid metadata: got=%+v, want=%+v", got, want)
	}
	if got, want := len(evt.Available()), 12; got != want {
		t.Fatalf("invalid number of records: got=%d, want=%d", got, want)
	}

	sim.Missing[3] = true
	_, err = srv.encode(sim.Bytes())
	if !errors.Is(err, trigger.ErrFraming) {
		t.Fatalf("expected a framing error, got %+v", err)
	}
}

func TestConfigure(t *testing.T) {
	srv := newServer(filepath.Join(t.TempDir(), "not-there.json"))
	err := srv.configure(nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestDigis(t *testing.T) {
	srv := newTestServer(t)

	srv.data <- []byte{1, 2, 3}

	var dst tdaq.Frame
	err := srv.digis(tdaq.Context{Ctx: context.Background()}, &dst)
	if err != nil {
		t.Fatalf("could not send digis: %+v", err)
	}
	if got, want := dst.Body, []byte{1, 2, 3}; !bytes.Equal(got, want) {
		t.Fatalf("invalid frame body: got=%v, want=%v", got, want)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst.Body = []byte{4}
	err = srv.digis(tdaq.Context{Ctx: ctx}, &dst)
	if err != nil {
		t.Fatalf("could not send digis: %+v", err)
	}
	if dst.Body != nil {
		t.Fatalf("invalid frame body: got=%v, want=nil", dst.Body)
	}
}
