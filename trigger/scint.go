// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"math/bits"
)

const (
	scintPacket = 6 // sync-marker occurrence of the scintillator packet
	scintOffset = 7 // offset of the first timing word from the header
	scintStep   = 7 // distance between timing words of consecutive bunch crossings
)

// Timing is the scintillator trigger timing, in units of 1/32 of a bunch
// crossing.
type Timing struct {
	Time  uint32 // position of the leading edge
	Width uint32 // length of the signal
}

// DecodeTiming reconstructs the scintillator trigger timing from the 32-bit
// bitmaps of consecutive bunch crossings.
// The leading edge is the first set bit, the signal extends over the
// following contiguous run of set bits.
func DecodeTiming(bitmaps []uint32) Timing {
	var (
		t    Timing
		trig = false
	)
	for _, w := range bitmaps {
		if !trig {
			if w == 0 {
				t.Time += 32
				continue
			}
			lz := uint32(bits.LeadingZeros32(w))
			t.Time += lz
			t.Width = 32 - lz
			trig = true
			continue
		}
		switch w {
		case 0:
			return t
		case 0xffffffff:
			t.Width += 32
		default:
			t.Width += uint32(bits.LeadingZeros32(^w))
		}
	}
	return t
}

// timing extracts the scintillator timing bitmaps of an event and decodes
// them.
func (ws Words) timing() (Timing, bool) {
	loc, ok := ws.FindMarker(scintPacket)
	if !ok {
		return Timing{}, false
	}
	nbx := NumBX
	if hdr, err := ParseHeader(ws.w[loc], loc); err == nil && hdr.NumBX < nbx {
		nbx = hdr.NumBX
	}

	bitmaps := make([]uint32, 0, nbx)
	for bx := 0; bx < nbx; bx++ {
		w, err := ws.At(loc + scintOffset + scintStep*bx)
		if err != nil {
			break
		}
		bitmaps = append(bitmaps, uint32(low32(w)))
	}
	return DecodeTiming(bitmaps), len(bitmaps) > 0
}
