// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"fmt"
)

// Packets holds the channel packets of one event, sliced per bunch crossing.
type Packets struct {
	NumBX    int // number of assembled bunch crossings
	Headers  [NumChannels]ChannelHeader
	Missing  []int // positions of the channels without a sync marker
	BXID     uint8 // bunch-crossing identifier hint, set when a marker is missing
	Warnings []HeaderWarning

	data [NumBX][NumChannels][]uint64
}

// Words returns the payload words of channel ch for bunch crossing bx.
// The returned slice must not be modified.
func (p *Packets) Words(bx, ch int) []uint64 {
	if bx < 0 || bx >= p.NumBX || ch < 0 || ch >= NumChannels {
		return nil
	}
	return p.data[bx][ch]
}

// Assemble locates the channel packets of an event and slices them per
// bunch crossing.
//
// The number of assembled bunch crossings is the smallest of the window
// width and the number of bunch crossings declared by the channel headers.
// Assemble returns a FramingError when a channel header is invalid or
// declares no complete bunch crossing, when a sync marker is missing or when
// a packet runs past the end of the event.
func Assemble(ws Words) (*Packets, error) {
	var (
		p       = &Packets{NumBX: NumBX}
		present [NumChannels]bool
		short   = -1 // first channel declaring less than one bunch crossing
	)

	for ch := 0; ch < NumChannels; ch++ {
		loc, ok := ws.FindMarker(ch + 1)
		if !ok {
			continue
		}
		hdr, err := ParseHeader(ws.w[loc], loc)
		if err != nil {
			err.(*FramingError).Channel = ch
			return p, err
		}
		if int(hdr.ID) != ch {
			p.Warnings = append(p.Warnings, HeaderWarning{Channel: ch, ID: hdr.ID})
		}
		p.Headers[ch] = hdr
		present[ch] = true
		if hdr.NumBX < p.NumBX {
			p.NumBX = hdr.NumBX
		}
		if hdr.NumBX == 0 && short < 0 {
			short = ch
		}
	}

	npass := p.NumBX
	if npass == 0 {
		npass = 1 // still scan for missing channels.
	}

	last := 0
	for bx := 0; bx < npass; bx++ {
		for ch := 0; ch < NumChannels; ch++ {
			if !present[ch] {
				if bx == 0 {
					p.Missing = append(p.Missing, ch)
					if w, err := ws.At(last + 2); err == nil {
						p.BXID = uint8(w & 0x7)
					}
				}
				continue
			}
			if bx >= p.NumBX {
				continue
			}
			var (
				hdr = p.Headers[ch]
				beg = hdr.word(bx, 0)
				end = beg + int(hdr.WordsPerBX)
			)
			if end > ws.Len() {
				return p, &FramingError{
					Channel: ch,
					Reason: fmt.Sprintf(
						"truncated packet (bx=%d, words=[%d, %d), event=%d words)",
						bx, beg, end, ws.Len(),
					),
				}
			}
			p.data[bx][ch] = ws.w[beg:end:end]
			last = end - 1
		}
	}

	if len(p.Missing) > 0 {
		return p, &FramingError{
			Channel: p.Missing[0],
			Reason:  fmt.Sprintf("missing sync marker (%d channel(s) missing)", len(p.Missing)),
			BXID:    p.BXID,
		}
	}

	if p.NumBX == 0 {
		hdr := p.Headers[short]
		return p, &FramingError{
			Channel: short,
			Reason: fmt.Sprintf(
				"header declares no complete bunch crossing (packet=%d, words/bx=%d)",
				hdr.PacketSize, hdr.WordsPerBX,
			),
		}
	}

	return p, nil
}
