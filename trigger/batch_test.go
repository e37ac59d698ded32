// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"context"
	"errors"
	"testing"
)

func TestDecodeAll(t *testing.T) {
	unp := newTestUnpacker(t)

	raw := newTestEvent().Bytes()
	raws := make([][]byte, 32)
	for i := range raws {
		raws[i] = raw
	}
	raws[7] = raw[:len(raw)-8]

	for _, n := range []int{0, 1, 4, 64} {
		res, err := DecodeAll(context.Background(), unp, raws, n)
		if err != nil {
			t.Fatalf("n=%d: could not decode batch: %+v", n, err)
		}
		if got, want := len(res), len(raws); got != want {
			t.Fatalf("n=%d: invalid number of results: got=%d, want=%d", n, got, want)
		}
		for i, r := range res {
			switch i {
			case 7:
				if !errors.Is(r.Err, ErrFraming) {
					t.Fatalf("n=%d: event %d: expected a framing error, got %+v", n, i, r.Err)
				}
			default:
				if r.Err != nil {
					t.Fatalf("n=%d: event %d: could not decode: %+v", n, i, r.Err)
				}
				if got, want := len(r.Event.Available()), 12; got != want {
					t.Fatalf("n=%d: event %d: invalid number of records: got=%d, want=%d", n, i, got, want)
				}
			}
		}
	}
}

func TestDecodeAllCanceled(t *testing.T) {
	unp := newTestUnpacker(t)
	raws := [][]byte{newTestEvent().Bytes(), newTestEvent().Bytes()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DecodeAll(ctx, unp, raws, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a canceled context error, got %+v", err)
	}
}
