// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

func putU64(p []byte, v uint64) { binary.LittleEndian.PutUint64(p, v) }

// Reader reads records from an S-link file.
type Reader struct {
	r   io.Reader
	buf []byte
	n   int // number of records read
}

// NewReader returns a new record reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, buf: make([]byte, 8*(MaxPayload+1))}
}

// Read reads the next record into rec.
// Read returns io.EOF when no more record is available.
// The payload of rec is reused across calls.
func (r *Reader) Read(rec *Record) error {
	_, err := io.ReadFull(r.r, r.buf[:8])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("slink: could not read header of record %d: %w", r.n, err)
	}
	hdr := Header(binary.LittleEndian.Uint64(r.buf[:8]))
	if !hdr.Identifier().valid() {
		return fmt.Errorf("slink: invalid identifier 0x%02x for record %d", uint8(hdr.Identifier()), r.n)
	}

	n := hdr.PayloadLength()
	_, err = io.ReadFull(r.r, r.buf[:8*n])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("slink: could not read payload of record %d: %w", r.n, err)
	}

	rec.Header = hdr
	if cap(rec.Payload) < n {
		rec.Payload = make([]uint64, n)
	}
	rec.Payload = rec.Payload[:n]
	for i := range rec.Payload {
		rec.Payload[i] = binary.LittleEndian.Uint64(r.buf[8*i:])
	}
	r.n++
	return nil
}

// Writer writes records to an S-link file.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a new record writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 8*(MaxPayload+1))}
}

// Write writes the record.
// The payload length of the record header is set from the payload.
func (w *Writer) Write(rec Record) error {
	n := len(rec.Payload)
	if n > MaxPayload {
		return fmt.Errorf("slink: payload too large (%d > %d words)", n, MaxPayload)
	}
	hdr := rec.Header&^(MaxPayload<<32) | Header(n)<<32

	putU64(w.buf, uint64(hdr))
	for i, v := range rec.Payload {
		putU64(w.buf[8*(i+1):], v)
	}
	_, err := w.w.Write(w.buf[:8*(n+1)])
	if err != nil {
		return fmt.Errorf("slink: could not write record: %w", err)
	}
	return nil
}
