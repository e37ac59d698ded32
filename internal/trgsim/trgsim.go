// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trgsim builds synthetic trigger-link events.
package trgsim // import "github.com/go-lpc/hgctrg/internal/trgsim"

import (
	"encoding/binary"

	"github.com/go-lpc/hgctrg/internal/slink"
)

const (
	nchans = 11
	marker = 0xcafecafe
)

type key struct {
	ch, bx, j int
}

// Event is a synthetic trigger-link event.
type Event struct {
	WordsPerBX int
	NumBX      int
	BufStatus  uint8

	Missing map[int]bool  // channels written without a sync marker
	IDs     map[int]uint8 // channel id overrides

	words map[key]uint64
}

// New creates an empty event with nbx bunch crossings of wpbx words.
func New(wpbx, nbx int) *Event {
	return &Event{
		WordsPerBX: wpbx,
		NumBX:      nbx,
		Missing:    make(map[int]bool),
		IDs:        make(map[int]uint8),
		words:      make(map[key]uint64),
	}
}

// Set sets the j-th payload word of channel ch for bunch crossing bx.
func (evt *Event) Set(ch, bx, j int, v uint64) {
	evt.words[key{ch, bx, j}] = v
}

// Or merges v into the j-th payload word of channel ch for bunch crossing bx.
func (evt *Event) Or(ch, bx, j int, v uint64) {
	evt.words[key{ch, bx, j}] |= v
}

// Header returns the header word of channel ch.
func (evt *Event) Header(ch int) uint64 {
	id := uint8(ch)
	if v, ok := evt.IDs[ch]; ok {
		id = v
	}
	w := uint64(evt.WordsPerBX*evt.NumBX)&0xff |
		uint64(id)<<8 |
		uint64(evt.BufStatus&0xf)<<16 |
		uint64(evt.WordsPerBX&0xf)<<20
	if !evt.Missing[ch] {
		w |= marker << 32
	}
	return w
}

// Words returns the event as a stream of 64-bit words.
func (evt *Event) Words() []uint64 {
	ws := make([]uint64, 0, nchans*(1+evt.WordsPerBX*evt.NumBX))
	for ch := 0; ch < nchans; ch++ {
		ws = append(ws, evt.Header(ch))
		for bx := 0; bx < evt.NumBX; bx++ {
			for j := 0; j < evt.WordsPerBX; j++ {
				ws = append(ws, evt.words[key{ch, bx, j}])
			}
		}
	}
	return ws
}

// Bytes returns the event as a little-endian byte buffer.
func (evt *Event) Bytes() []byte {
	return Encode(evt.Words())
}

// Record returns the event wrapped into an S-link event record.
func (evt *Event) Record(utc uint32, eoe slink.EOE) slink.Record {
	rec := slink.Record{
		Header:  slink.NewHeader(slink.EventData, 0, 0, utc),
		Payload: evt.Words(),
	}
	rec.AppendEOE(eoe)
	return rec
}

// Encode returns the little-endian encoding of words.
func Encode(ws []uint64) []byte {
	raw := make([]byte, 8*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint64(raw[8*i:], w)
	}
	return raw
}

// Put stores the width low bits of v into w, at bit start counted from the
// most significant bit.
func Put(w *uint64, start, width uint, v uint64) {
	m := uint64(1)<<width - 1
	*w |= (v & m) << (64 - start - width)
}

// BC returns the 16-bit unpacked sub-word of a best-choice trigger cell.
func BC(loc, code uint64) uint64 {
	return (code&0x1ff)<<6 | loc&0x3f
}

// STC returns the 16-bit unpacked sub-word of a super trigger cell.
func STC(loc, code uint64) uint64 {
	return (code&0x1ff)<<6 | (loc&0xf)<<2
}

// PackBC2 returns the two packed words of a best-choice module at position 2.
func PackBC2(sum uint64, locs, ens []uint64) (w0, w1 uint64) {
	var lw, ew uint64
	Put(&lw, 4, 8, sum)
	for i, loc := range locs {
		Put(&lw, 12+6*uint(i), 6, loc)
	}
	for i, e := range ens {
		Put(&ew, 7*uint(i), 7, e)
	}
	w0 = lw&^0xffff | ew>>48
	w1 = (ew >> 16 & 0xffffffff) << 32
	return w0, w1
}

// PackSTC returns the two packed words of a super trigger cell module.
func PackSTC(locs, ens []uint64) (w0, w1 uint64) {
	var lw, ew uint64
	for i, loc := range locs {
		Put(&lw, 4+2*uint(i), 2, loc)
	}
	for i, e := range ens {
		Put(&ew, 7*uint(i), 7, e)
	}
	w0 = (lw>>48)<<16 | ew>>48
	w1 = (ew >> 16 & 0xffffffff) << 32
	return w0, w1
}
