// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"encoding/json"
	"log"
	"os"

	"golang.org/x/xerrors"
)

// Config is the unpacking configuration of a trigger-link data stream.
type Config struct {
	Variant string        `json:"variant"`
	Trains  int           `json:"trains,omitempty"`
	Indexer IndexerConfig `json:"indexer"`
}

// LoadConfig reads an unpacking configuration from a JSON file.
func LoadConfig(fname string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(fname)
	if err != nil {
		return cfg, xerrors.Errorf("trigger: could not read configuration file: %w", err)
	}
	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("trigger: could not decode configuration file %q: %w", fname, err)
	}
	return cfg, nil
}

// NewUnpacker creates the unpacker described by the configuration.
func (cfg Config) NewUnpacker(msg *log.Logger) (*Unpacker, error) {
	idx, err := NewIndexer(cfg.Indexer)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLogger(msg)}
	if cfg.Trains > 0 {
		opts = append(opts, WithTrains(cfg.Trains))
	}
	return NewUnpacker(cfg.Variant, idx, opts...)
}
