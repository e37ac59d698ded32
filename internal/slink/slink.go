// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slink reads and writes S-link record files.
//
// A record is a 64-bit header word followed by a payload of 64-bit words.
// Words are stored little-endian.
package slink // import "github.com/go-lpc/hgctrg/internal/slink"

import (
	"fmt"
)

// Identifier identifies the kind of a record.
type Identifier uint8

const (
	StateData           Identifier = 0x33
	ConfigurationData   Identifier = 0xcc
	EventData           Identifier = 0xdd
	FileContinuationEOF Identifier = 0xee
	FileContinuationBOF Identifier = 0xbb
)

func (id Identifier) String() string {
	switch id {
	case StateData:
		return "StateData"
	case ConfigurationData:
		return "ConfigurationData"
	case EventData:
		return "EventData"
	case FileContinuationEOF:
		return "FileContinuationEOF"
	case FileContinuationBOF:
		return "FileContinuationBOF"
	}
	return fmt.Sprintf("Identifier(0x%02x)", uint8(id))
}

func (id Identifier) valid() bool {
	switch id {
	case StateData, ConfigurationData, EventData, FileContinuationEOF, FileContinuationBOF:
		return true
	}
	return false
}

// MaxPayload is the largest payload length of a record, in 64-bit words.
const MaxPayload = 0x0fff

// Header is a record header word.
type Header uint64

// NewHeader creates a record header.
func NewHeader(id Identifier, state uint8, n int, utc uint32) Header {
	return Header(uint64(id)<<56 |
		uint64(state&0x7f)<<48 |
		uint64(n&MaxPayload)<<32 |
		uint64(utc))
}

func (h Header) Identifier() Identifier { return Identifier(h >> 56) }
func (h Header) State() uint8           { return uint8(h>>48) & 0x7f }

// PayloadLength returns the number of payload words.
func (h Header) PayloadLength() int { return int(h>>32) & MaxPayload }

// UTC returns the time stamp (or sequence counter) of the record.
func (h Header) UTC() uint32 { return uint32(h) }

func (h Header) String() string {
	return fmt.Sprintf(
		"Header{%v, state=%d, payload=%d, utc=%d}",
		h.Identifier(), h.State(), h.PayloadLength(), h.UTC(),
	)
}

// eoePattern is the marker of an S-link end-of-event trailer.
const eoePattern = 0xaa

// EOE is the S-link end-of-event trailer closing an event payload.
type EOE struct {
	DAQCRC      uint16
	EventLength uint32
	BXID        uint16
	OrbitID     uint32
	CRC         uint16
	Status      uint16
}

func (eoe EOE) words() (w0, w1 uint64) {
	w0 = uint64(eoe.OrbitID)<<32 | uint64(eoe.CRC)<<16 | uint64(eoe.Status)
	w1 = eoePattern<<56 |
		uint64(eoe.DAQCRC)<<40 |
		uint64(eoe.EventLength&0xfffff)<<12 |
		uint64(eoe.BXID&0xfff)
	return w0, w1
}

func decodeEOE(w0, w1 uint64) (EOE, bool) {
	if w1>>56 != eoePattern {
		return EOE{}, false
	}
	return EOE{
		DAQCRC:      uint16(w1 >> 40),
		EventLength: uint32(w1>>12) & 0xfffff,
		BXID:        uint16(w1) & 0xfff,
		OrbitID:     uint32(w0 >> 32),
		CRC:         uint16(w0 >> 16),
		Status:      uint16(w0),
	}, true
}

// Record is an S-link record.
type Record struct {
	Header  Header
	Payload []uint64
}

// EOE returns the end-of-event trailer of the record, if any.
// Only records carrying an event end with such a trailer.
func (rec *Record) EOE() (EOE, bool) {
	n := len(rec.Payload)
	if n < 2 {
		return EOE{}, false
	}
	return decodeEOE(rec.Payload[n-2], rec.Payload[n-1])
}

// IsEvent returns whether the record carries an event.
func (rec *Record) IsEvent() bool {
	_, ok := rec.EOE()
	return ok
}

// AppendEOE appends the end-of-event trailer to the record payload.
func (rec *Record) AppendEOE(eoe EOE) {
	w0, w1 := eoe.words()
	rec.Payload = append(rec.Payload, w0, w1)
}

// Bytes returns the little-endian encoding of the record payload.
func (rec *Record) Bytes() []byte {
	raw := make([]byte, 8*len(rec.Payload))
	for i, w := range rec.Payload {
		putU64(raw[8*i:], w)
	}
	return raw
}
