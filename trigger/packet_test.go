// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-lpc/hgctrg/internal/trgsim"
)

func TestAssemble(t *testing.T) {
	sim := trgsim.New(3, 2)
	for ch := 0; ch < NumChannels; ch++ {
		for bx := 0; bx < 2; bx++ {
			for j := 0; j < 3; j++ {
				sim.Set(ch, bx, j, uint64(100*ch+10*bx+j))
			}
		}
	}
	ws := WordsFrom(sim.Words())
	orig := ws.Bytes()

	pkts, err := Assemble(ws)
	if err != nil {
		t.Fatalf("could not assemble packets: %+v", err)
	}
	if got, want := pkts.NumBX, 2; got != want {
		t.Fatalf("invalid number of bx: got=%d, want=%d", got, want)
	}
	for ch := 0; ch < NumChannels; ch++ {
		if got, want := pkts.Headers[ch].Loc, 7*ch; got != want {
			t.Fatalf("ch=%d: invalid header location: got=%d, want=%d", ch, got, want)
		}
		for bx := 0; bx < 2; bx++ {
			want := []uint64{uint64(100*ch + 10*bx), uint64(100*ch + 10*bx + 1), uint64(100*ch + 10*bx + 2)}
			if got := pkts.Words(bx, ch); !reflect.DeepEqual(got, want) {
				t.Fatalf("ch=%d, bx=%d: invalid words: got=%v, want=%v", ch, bx, got, want)
			}
		}
	}
	if got := pkts.Words(2, 0); got != nil {
		t.Fatalf("invalid out-of-window words: %v", got)
	}
	if !reflect.DeepEqual(ws.Bytes(), orig) {
		t.Fatalf("word stream was modified")
	}
}

func TestAssembleErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		words func() []uint64
		want  string
		bxid  uint8
	}{
		{
			name: "missing-marker",
			words: func() []uint64 {
				sim := trgsim.New(7, 1)
				sim.Missing[10] = true
				sim.Set(10, 0, 0, 0xf5)
				return sim.Words()
			},
			want: "trigger: framing error on channel 10: missing sync marker (1 channel(s) missing)",
			bxid: 5,
		},
		{
			name: "truncated",
			words: func() []uint64 {
				ws := trgsim.New(7, 1).Words()
				return ws[:len(ws)-1]
			},
			want: "trigger: framing error on channel 10: truncated packet (bx=0, words=[81, 88), event=87 words)",
		},
		{
			name: "zero-words-per-bx",
			words: func() []uint64 {
				sim := trgsim.New(0, 1)
				return sim.Words()
			},
			want: "trigger: framing error on channel 0: header declares zero words per bunch crossing",
		},
		{
			name: "no-complete-bx",
			words: func() []uint64 {
				return trgsim.New(7, 0).Words()
			},
			want: "trigger: framing error on channel 0: header declares no complete bunch crossing (packet=0, words/bx=7)",
		},
		{
			name: "short-packet",
			words: func() []uint64 {
				sim := trgsim.New(7, 1)
				ws := sim.Words()
				// channel 3 declares 6 payload words for 7 words per bx.
				ws[3*8] = ws[3*8]&^0xff | 6
				return ws
			},
			want: "trigger: framing error on channel 3: header declares no complete bunch crossing (packet=6, words/bx=7)",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pkts, err := Assemble(WordsFrom(tc.words()))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrFraming) {
				t.Fatalf("invalid error type: %T", err)
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
			}
			var ferr *FramingError
			if !errors.As(err, &ferr) {
				t.Fatalf("invalid error type: %T", err)
			}
			if got, want := ferr.BXID, tc.bxid; got != want {
				t.Fatalf("invalid bx-id hint: got=%d, want=%d", got, want)
			}
			if pkts == nil {
				t.Fatalf("nil packets")
			}
		})
	}
}

func TestAssembleMismatch(t *testing.T) {
	sim := trgsim.New(7, 1)
	sim.IDs[2] = 7
	pkts, err := Assemble(WordsFrom(sim.Words()))
	if err != nil {
		t.Fatalf("could not assemble packets: %+v", err)
	}
	want := []HeaderWarning{{Channel: 2, ID: 7}}
	if !reflect.DeepEqual(pkts.Warnings, want) {
		t.Fatalf("invalid warnings: got=%v, want=%v", pkts.Warnings, want)
	}
	if got, want := pkts.Headers[2].Loc, 16; got != want {
		t.Fatalf("invalid header location: got=%d, want=%d", got, want)
	}
}
