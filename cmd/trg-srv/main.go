// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trg-srv starts a TDAQ process unpacking HGCal trigger-link events.
//
// Raw trigger-link event buffers are received on the "/raw" input and the
// encoded trigger events are sent on the "/digis" output.
package main // import "github.com/go-lpc/hgctrg/cmd/trg-srv"

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/hgctrg"
	"github.com/go-lpc/hgctrg/trigger"
	"github.com/sbinet/pmon"
)

var (
	cfgName = flag.String("cfg", "trigger.json", "path to a JSON unpacking configuration file")
	doMon   = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq  = flag.Duration("freq", 1*time.Second, "pmon frequency")
	monDir  = flag.String("pmon-dir", ".", "directory holding the pmon log file")
)

func main() {
	cmd := flags.New()

	if *doMon {
		stop, err := monitor(*monDir, *doFreq)
		if err != nil {
			log.Panicf("could not start monitoring: %+v", err)
		}
		defer stop()
	}

	srv := newServer(*cfgName)

	dev := tdaq.New(cmd, os.Stdout)
	dev.CmdHandle("/config", srv.OnConfig)
	dev.CmdHandle("/init", srv.OnInit)
	dev.CmdHandle("/reset", srv.OnReset)
	dev.CmdHandle("/start", srv.OnStart)
	dev.CmdHandle("/stop", srv.OnStop)
	dev.CmdHandle("/quit", srv.OnQuit)

	dev.InputHandle("/raw", srv.raw)
	dev.OutputHandle("/digis", srv.digis)

	err := dev.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func monitor(dir string, freq time.Duration) (func(), error) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("could not monitor pid=%d: %w", os.Getpid(), err)
	}

	f, err := os.Create(filepath.Join(dir, "trg-srv-pmon.log"))
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			log.Printf("could not stop monitoring: %+v", err)
		}
		_ = f.Close()
	}, nil
}

type server struct {
	cfg string // path to the unpacking configuration

	unp *trigger.Unpacker
	evt *trigger.Event

	n    int // number of events received
	nerr int // number of rejected events
	data chan []byte
}

func newServer(cfg string) *server {
	return &server{cfg: cfg}
}

func (srv *server) configure(msg *log.Logger) error {
	cfg, err := trigger.LoadConfig(srv.cfg)
	if err != nil {
		return fmt.Errorf("could not load unpacking configuration: %w", err)
	}

	unp, err := cfg.NewUnpacker(msg)
	if err != nil {
		return fmt.Errorf("could not create unpacker: %w", err)
	}

	srv.unp = unp
	srv.evt = unp.NewEvent()
	return nil
}

func (srv *server) reset() {
	srv.n = 0
	srv.nerr = 0
	srv.data = make(chan []byte, 1024)
}

// encode unpacks the raw event buffer and returns the encoded trigger event.
func (srv *server) encode(raw []byte) ([]byte, error) {
	err := srv.unp.Decode(raw, srv.evt)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	err = trigger.NewEncoder(buf).Encode(srv.evt)
	if err != nil {
		return nil, fmt.Errorf("could not encode trigger event: %w", err)
	}
	return buf.Bytes(), nil
}

func (srv *server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	if v, _ := hgctrg.Version(); v != "" {
		ctx.Msg.Infof("hgctrg version: %s", v)
	}
	err := srv.configure(nil)
	if err != nil {
		ctx.Msg.Errorf("could not configure: %+v", err)
		return err
	}
	ctx.Msg.Infof("unpacking %s events (%d records)", srv.unp.Variant(), srv.unp.Indexer().Size())
	return nil
}

func (srv *server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if srv.unp == nil {
		return fmt.Errorf("trg-srv: /init received before /config")
	}
	srv.reset()
	return nil
}

func (srv *server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.reset()
	return nil
}

func (srv *server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d, rejected=%d", srv.n, srv.nerr)
	return nil
}

func (srv *server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (srv *server) raw(ctx tdaq.Context, src tdaq.Frame) error {
	srv.n++
	body, err := srv.encode(src.Body)
	if err != nil {
		srv.nerr++
		ctx.Msg.Warnf("could not unpack event %d: %+v", srv.n-1, err)
		return nil
	}

	select {
	case <-ctx.Ctx.Done():
	case srv.data <- body:
	}
	return nil
}

func (srv *server) digis(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}
