// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"golang.org/x/xerrors"
)

// IndexerConfig describes the geometry of the dense digi container.
type IndexerConfig struct {
	LayerOffset int `json:"layer_offset"`
	ModOffset   int `json:"module_offset"`
	MaxLayer    int `json:"max_layer"`
	MaxMod      int `json:"max_module"`
	MaxCh       int `json:"max_channel"`
}

// Indexer maps (layer, module, channel) triplets to dense indices.
type Indexer struct {
	cfg IndexerConfig
}

// NewIndexer creates a new indexer from the provided geometry.
func NewIndexer(cfg IndexerConfig) (Indexer, error) {
	switch {
	case cfg.LayerOffset <= 0 || cfg.ModOffset <= 0:
		return Indexer{}, xerrors.Errorf(
			"trigger: invalid indexer offsets (layer=%d, module=%d)",
			cfg.LayerOffset, cfg.ModOffset,
		)
	case cfg.MaxLayer <= 0 || cfg.MaxMod <= 0 || cfg.MaxCh <= 0:
		return Indexer{}, xerrors.Errorf(
			"trigger: invalid indexer bounds (layer=%d, module=%d, channel=%d)",
			cfg.MaxLayer, cfg.MaxMod, cfg.MaxCh,
		)
	case cfg.MaxCh > cfg.ModOffset:
		return Indexer{}, xerrors.Errorf(
			"trigger: channel bound %d exceeds module offset %d",
			cfg.MaxCh, cfg.ModOffset,
		)
	case cfg.MaxMod*cfg.ModOffset > cfg.LayerOffset:
		return Indexer{}, xerrors.Errorf(
			"trigger: module range %d*%d exceeds layer offset %d",
			cfg.MaxMod, cfg.ModOffset, cfg.LayerOffset,
		)
	}
	return Indexer{cfg: cfg}, nil
}

// Config returns the geometry of the indexer.
func (idx Indexer) Config() IndexerConfig { return idx.cfg }

// Size returns the number of records of a dense digi container.
func (idx Indexer) Size() int {
	return idx.cfg.MaxLayer * idx.cfg.LayerOffset
}

// Index returns the dense index of the (layer, module, channel) triplet.
func (idx Indexer) Index(layer, mod, ch int) (int, error) {
	if layer < 0 || layer >= idx.cfg.MaxLayer ||
		mod < 0 || mod >= idx.cfg.MaxMod ||
		ch < 0 || ch >= idx.cfg.MaxCh {
		return 0, xerrors.Errorf(
			"trigger: (layer=%d, module=%d, channel=%d) out of indexer bounds (%d, %d, %d)",
			layer, mod, ch, idx.cfg.MaxLayer, idx.cfg.MaxMod, idx.cfg.MaxCh,
		)
	}
	return layer*idx.cfg.LayerOffset + mod*idx.cfg.ModOffset + ch, nil
}

// Decompose returns the (layer, module, channel) triplet of a dense index.
func (idx Indexer) Decompose(i int) (layer, mod, ch int) {
	layer = i / idx.cfg.LayerOffset
	mod = (i % idx.cfg.LayerOffset) / idx.cfg.ModOffset
	ch = i % idx.cfg.ModOffset
	return layer, mod, ch
}
