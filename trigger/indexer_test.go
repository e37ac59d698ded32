// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"testing"
)

var testIndexer = IndexerConfig{
	LayerOffset: 1000,
	ModOffset:   100,
	MaxLayer:    4,
	MaxMod:      3,
	MaxCh:       12,
}

func TestIndexer(t *testing.T) {
	idx, err := NewIndexer(testIndexer)
	if err != nil {
		t.Fatalf("could not create indexer: %+v", err)
	}
	if got, want := idx.Size(), 4000; got != want {
		t.Fatalf("invalid size: got=%d, want=%d", got, want)
	}

	seen := make(map[int]bool)
	for layer := 0; layer < testIndexer.MaxLayer; layer++ {
		for mod := 0; mod < testIndexer.MaxMod; mod++ {
			for ch := 0; ch < testIndexer.MaxCh; ch++ {
				i, err := idx.Index(layer, mod, ch)
				if err != nil {
					t.Fatalf("could not index (%d, %d, %d): %+v", layer, mod, ch, err)
				}
				if i < 0 || i >= idx.Size() {
					t.Fatalf("index %d out of container", i)
				}
				if seen[i] {
					t.Fatalf("index %d assigned twice", i)
				}
				seen[i] = true

				l, m, c := idx.Decompose(i)
				if l != layer || m != mod || c != ch {
					t.Fatalf("invalid decomposition of %d: got=(%d, %d, %d), want=(%d, %d, %d)",
						i, l, m, c, layer, mod, ch,
					)
				}
			}
		}
	}

	if got, _ := idx.Index(2, 1, 3); got != 2103 {
		t.Fatalf("invalid index: got=%d, want=2103", got)
	}

	for _, tc := range []struct {
		layer, mod, ch int
	}{
		{4, 0, 0},
		{0, 3, 0},
		{0, 0, 12},
		{-1, 0, 0},
	} {
		_, err := idx.Index(tc.layer, tc.mod, tc.ch)
		if err == nil {
			t.Fatalf("(%d, %d, %d): expected an error", tc.layer, tc.mod, tc.ch)
		}
	}
}

func TestNewIndexerErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  IndexerConfig
		want string
	}{
		{
			name: "zero",
			want: "trigger: invalid indexer offsets (layer=0, module=0)",
		},
		{
			name: "bounds",
			cfg:  IndexerConfig{LayerOffset: 1000, ModOffset: 100, MaxLayer: 1, MaxMod: 0, MaxCh: 1},
			want: "trigger: invalid indexer bounds (layer=1, module=0, channel=1)",
		},
		{
			name: "channels",
			cfg:  IndexerConfig{LayerOffset: 1000, ModOffset: 10, MaxLayer: 1, MaxMod: 1, MaxCh: 11},
			want: "trigger: channel bound 11 exceeds module offset 10",
		},
		{
			name: "modules",
			cfg:  IndexerConfig{LayerOffset: 100, ModOffset: 50, MaxLayer: 1, MaxMod: 3, MaxCh: 11},
			want: "trigger: module range 3*50 exceeds layer offset 100",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIndexer(tc.cfg)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
			}
		})
	}
}
