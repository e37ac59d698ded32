// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// SyncMarker is the value held by the upper 32 bits of a channel header word.
const SyncMarker = 0xcafecafe

// Words is a read-only view of a trigger-link event as 64-bit words.
type Words struct {
	w []uint64
}

// NewWords creates the word view of a raw event buffer.
// Words are stored little-endian: the low 32-bit half-word comes first.
func NewWords(raw []byte) (Words, error) {
	if len(raw)%8 != 0 {
		return Words{}, xerrors.Errorf("trigger: invalid buffer size %d (not a multiple of 8)", len(raw))
	}
	w := make([]uint64, len(raw)/8)
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(raw[8*i:])
	}
	return Words{w: w}, nil
}

// WordsFrom creates a word view from a copy of the provided words.
func WordsFrom(ws []uint64) Words {
	w := make([]uint64, len(ws))
	copy(w, ws)
	return Words{w: w}
}

// Len returns the number of words in the event.
func (ws Words) Len() int { return len(ws.w) }

// At returns the i-th word of the event.
func (ws Words) At(i int) (uint64, error) {
	if i < 0 || i >= len(ws.w) {
		return 0, xerrors.Errorf("trigger: word index %d out of range [0, %d)", i, len(ws.w))
	}
	return ws.w[i], nil
}

// FindMarker returns the index of the n-th (1-based) word whose upper half
// holds the sync marker.
func (ws Words) FindMarker(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	for i, w := range ws.w {
		if w>>32 != SyncMarker {
			continue
		}
		n--
		if n == 0 {
			return i, true
		}
	}
	return 0, false
}

// Bytes returns the little-endian encoding of the words.
func (ws Words) Bytes() []byte {
	raw := make([]byte, 8*len(ws.w))
	for i, w := range ws.w {
		binary.LittleEndian.PutUint64(raw[8*i:], w)
	}
	return raw
}
