// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"encoding/binary"
	"io"

	"github.com/go-lpc/hgctrg/internal/crc16"
	"golang.org/x/xerrors"
)

// maxRecords bounds the dense container size accepted by a Decoder.
const maxRecords = 1 << 24

// Decoder reads (and validates) decoded events from an underlying data
// source.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
	crc crc16.Hash16

	recs []record // records of the event being decoded
}

type record struct {
	idx  int
	digi Digi
}

// NewDecoder creates a decoder that reads and validates events from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Decode reads the next event from the stream.
// Decode returns io.EOF when no more event is available.
//
// The records of evt are only filled once the event trailer and checksum
// have been validated: when Decode fails, all the records are left not
// available.
func (dec *Decoder) Decode(evt *Event) error {
	dec.crc.Reset()
	evt.reset(len(evt.Digis))

	v := dec.readU8()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			return io.EOF
		}
		return xerrors.Errorf("trigger: could not read event header marker: %w", dec.err)
	}
	if v != evHeader {
		return xerrors.Errorf("trigger: could not read event header marker (got=0x%x)", v)
	}

	size := int(dec.readU32())
	if dec.err == nil && size > maxRecords {
		return xerrors.Errorf("trigger: invalid event size %d", size)
	}
	meta := MetaData{
		TrigTime:  dec.readU32(),
		TrigWidth: dec.readU32(),
		Flags:     MetaFlag(dec.readU32()),
	}
	nbx := int(dec.readU8())
	n := int(dec.readU32())
	if dec.err != nil {
		return xerrors.Errorf("trigger: could not read event header: %w", dec.unexpected())
	}
	if n > size {
		return xerrors.Errorf("trigger: invalid number of records (n=%d, size=%d)", n, size)
	}

	if size != len(evt.Digis) {
		evt.reset(size)
	}
	dec.recs = dec.recs[:0]
	for j := 0; j < n; j++ {
		i := int(dec.readU32())
		var digi Digi
		digi.Flags = Flag(dec.readU16())
		digi.Layer = dec.readU8()
		digi.Module = dec.readU8()
		digi.Channel = dec.readU8()
		digi.Algo = Algo(dec.readU8())
		digi.Valid = dec.readU8() == 1
		dec.read(digi.Loc[:])
		for k := range digi.Energy {
			digi.Energy[k] = dec.readU32()
		}
		if dec.err != nil {
			return xerrors.Errorf("trigger: could not read record %d: %w", j, dec.unexpected())
		}
		if i < 0 || i >= size {
			return xerrors.Errorf("trigger: invalid record index %d (size=%d)", i, size)
		}
		dec.recs = append(dec.recs, record{idx: i, digi: digi})
	}

	v = dec.readU8()
	if dec.err != nil {
		return xerrors.Errorf("trigger: could not read event trailer marker: %w", dec.unexpected())
	}
	if v != evTrailer {
		return xerrors.Errorf("trigger: could not read event trailer marker (got=0x%x)", v)
	}

	want := dec.crc.Sum16()
	dec.load(2) // the checksum is not part of the checksum.
	if dec.err != nil {
		return xerrors.Errorf("trigger: could not read event checksum: %w", dec.unexpected())
	}
	got := binary.BigEndian.Uint16(dec.buf[:2])
	if got != want {
		return xerrors.Errorf("trigger: inconsistent CRC: recv=0x%04x, comp=0x%04x", got, want)
	}

	evt.Meta = meta
	evt.NumBX = nbx
	for _, rec := range dec.recs {
		evt.Digis[rec.idx] = rec.digi
	}
	return nil
}

func (dec *Decoder) unexpected() error {
	if xerrors.Is(dec.err, io.EOF) {
		dec.err = io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) load(n int) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
	_, _ = dec.crc.Write(p)
}

func (dec *Decoder) readU8() uint8 {
	dec.load(1)
	_, _ = dec.crc.Write(dec.buf[:1])
	return dec.buf[0]
}

func (dec *Decoder) readU16() uint16 {
	dec.load(2)
	_, _ = dec.crc.Write(dec.buf[:2])
	return binary.BigEndian.Uint16(dec.buf[:2])
}

func (dec *Decoder) readU32() uint32 {
	dec.load(4)
	_, _ = dec.crc.Write(dec.buf[:4])
	return binary.BigEndian.Uint32(dec.buf[:4])
}
