// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/hgctrg/internal/crc16"
)

const (
	evHeader  = 0xe4 // decoded event header marker
	evTrailer = 0xe5 // decoded event trailer marker
)

// Encoder writes decoded events to an output stream.
// Only the available records of an event are written.
// Encoder computes the CRC-16 checksum of each event on the fly and appends
// it at the end of the event.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Encode writes the decoded event to the stream.
func (enc *Encoder) Encode(evt *Event) error {
	if evt == nil {
		return nil
	}

	enc.crc.Reset()

	enc.writeU8(evHeader)
	if enc.err != nil {
		return fmt.Errorf("trigger: could not write event header marker: %w", enc.err)
	}

	idx := evt.Available()
	enc.writeU32(uint32(len(evt.Digis)))
	enc.writeU32(evt.Meta.TrigTime)
	enc.writeU32(evt.Meta.TrigWidth)
	enc.writeU32(uint32(evt.Meta.Flags))
	enc.writeU8(uint8(evt.NumBX))
	enc.writeU32(uint32(len(idx)))
	for _, i := range idx {
		digi := &evt.Digis[i]
		enc.writeU32(uint32(i))
		enc.writeU16(uint16(digi.Flags))
		enc.writeU8(digi.Layer)
		enc.writeU8(digi.Module)
		enc.writeU8(digi.Channel)
		enc.writeU8(uint8(digi.Algo))
		enc.writeBool(digi.Valid)
		enc.write(digi.Loc[:])
		for _, e := range digi.Energy {
			enc.writeU32(e)
		}
	}
	enc.writeU8(evTrailer)
	enc.writeU16(enc.crc.Sum16())

	if enc.err != nil {
		return fmt.Errorf("trigger: could not encode event: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	enc.writeU8(b)
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeU16(v uint16) {
	binary.BigEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *Encoder) writeU32(v uint32) {
	binary.BigEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}
