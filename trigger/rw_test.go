// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"bytes"
	"io"
	"reflect"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	unp := newTestUnpacker(t)

	var evts []*Event
	for _, meta := range []MetaData{
		{TrigTime: 27, TrigWidth: 5, Flags: MetaValid},
		{Flags: MetaUnknown},
	} {
		evt := unp.NewEvent()
		err := unp.Decode(newTestEvent().Bytes(), evt)
		if err != nil {
			t.Fatalf("could not decode event: %+v", err)
		}
		evt.Meta = meta
		evts = append(evts, evt)
	}

	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)
	for i, evt := range evts {
		err := enc.Encode(evt)
		if err != nil {
			t.Fatalf("could not encode event %d: %+v", i, err)
		}
	}
	if err := enc.Encode(nil); err != nil {
		t.Fatalf("could not encode nil event: %+v", err)
	}

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	for i, want := range evts {
		var got Event
		err := dec.Decode(&got)
		if err != nil {
			t.Fatalf("could not decode event %d: %+v", i, err)
		}
		if got.Meta != want.Meta {
			t.Fatalf("event %d: invalid metadata: got=%+v, want=%+v", i, got.Meta, want.Meta)
		}
		if got.NumBX != want.NumBX {
			t.Fatalf("event %d: invalid number of bx: got=%d, want=%d", i, got.NumBX, want.NumBX)
		}
		if !reflect.DeepEqual(got.Digis, want.Digis) {
			t.Fatalf("event %d: invalid records", i)
		}
	}

	var evt Event
	if err := dec.Decode(&evt); err != io.EOF {
		t.Fatalf("expected io.EOF, got %+v", err)
	}
}

func TestEncodeEmptyEvent(t *testing.T) {
	unp := newTestUnpacker(t)
	evt := unp.NewEvent()
	evt.Meta = MetaData{TrigTime: 27, TrigWidth: 5, Flags: MetaValid}
	evt.NumBX = 1

	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(evt)
	if err != nil {
		t.Fatalf("could not encode event: %+v", err)
	}

	want := []byte{
		evHeader,
		0x00, 0x00, 0x0f, 0xa0, // 4000 records
		0x00, 0x00, 0x00, 0x1b,
		0x00, 0x00, 0x00, 0x05,
		0x00, 0x00, 0x00, 0x00,
		0x01,
		0x00, 0x00, 0x00, 0x00,
		evTrailer,
		0x5c, 0xe2,
	}
	if got := buf.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("invalid encoded event:\ngot= %x\nwant=%x", got, want)
	}
}

func TestDecoderErrors(t *testing.T) {
	unp := newTestUnpacker(t)
	evt := unp.NewEvent()
	err := unp.Decode(newTestEvent().Bytes(), evt)
	if err != nil {
		t.Fatalf("could not decode event: %+v", err)
	}
	buf := new(bytes.Buffer)
	err = NewEncoder(buf).Encode(evt)
	if err != nil {
		t.Fatalf("could not encode event: %+v", err)
	}
	raw := buf.Bytes()

	for _, tc := range []struct {
		name string
		raw  func() []byte
		want string
	}{
		{
			name: "header-marker",
			raw: func() []byte {
				raw := append([]byte(nil), raw...)
				raw[0] = 0xff
				return raw
			},
			want: "trigger: could not read event header marker (got=0xff)",
		},
		{
			name: "short-header",
			raw:  func() []byte { return raw[:10] },
			want: "trigger: could not read event header: unexpected EOF",
		},
		{
			name: "short-record",
			raw:  func() []byte { return raw[:30] },
			want: "trigger: could not read record 0: unexpected EOF",
		},
		{
			name: "trailer-marker",
			raw: func() []byte {
				raw := append([]byte(nil), raw...)
				raw[len(raw)-3] = 0xa0
				return raw
			},
			want: "trigger: could not read event trailer marker (got=0xa0)",
		},
		{
			name: "crc",
			raw: func() []byte {
				raw := append([]byte(nil), raw...)
				raw[len(raw)-1] ^= 0xff
				return raw
			},
			want: "trigger: inconsistent CRC",
		},
		{
			name: "corrupted-payload",
			raw: func() []byte {
				raw := append([]byte(nil), raw...)
				raw[6] ^= 0x01
				return raw
			},
			want: "trigger: inconsistent CRC",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var evt Event
			err := NewDecoder(bytes.NewReader(raw)).Decode(&evt)
			if err != nil {
				t.Fatalf("could not decode event: %+v", err)
			}
			if len(evt.Available()) == 0 {
				t.Fatalf("no available record")
			}

			err = NewDecoder(bytes.NewReader(tc.raw())).Decode(&evt)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; !bytes.HasPrefix([]byte(got), []byte(want)) {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
			}
			if got := len(evt.Available()); got != 0 {
				t.Fatalf("invalid number of available records: %d", got)
			}
			if got, want := evt.Meta.Flags, MetaUnknown; got != want {
				t.Fatalf("invalid metadata flags: got=%d, want=%d", got, want)
			}
		})
	}
}
