// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

// ChannelHeader is the decoded header word of a channel packet.
type ChannelHeader struct {
	Loc          int    // word index of the header
	ID           uint8  // channel id
	BufferStatus uint8  // front-end buffer status
	PacketSize   uint16 // number of payload words
	WordsPerBX   uint8  // number of payload words per bunch crossing
	NumBX        int    // number of bunch crossings in the packet
}

// ParseHeader decodes the channel header word located at index loc.
func ParseHeader(w uint64, loc int) (ChannelHeader, error) {
	hdr := ChannelHeader{
		Loc:          loc,
		PacketSize:   uint16(PickBits(w, 56, 8)),
		ID:           uint8(PickBits(w, 48, 8)),
		BufferStatus: uint8(PickBits(w, 44, 4)),
		WordsPerBX:   uint8(PickBits(w, 40, 4)),
	}
	if hdr.WordsPerBX == 0 {
		return hdr, &FramingError{
			Channel: int(hdr.ID),
			Reason:  "header declares zero words per bunch crossing",
		}
	}
	hdr.NumBX = int(hdr.PacketSize) / int(hdr.WordsPerBX)
	return hdr, nil
}

// word returns the index of the j-th word of bunch crossing bx.
func (hdr ChannelHeader) word(bx, j int) int {
	return hdr.Loc + 1 + int(hdr.WordsPerBX)*bx + j
}
