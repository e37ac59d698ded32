// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

// Flag qualifies a digi record.
type Flag uint16

const (
	Normal       Flag = 0x0000 // decoded trigger cell
	NotAvailable Flag = 0xffff // no data for this record
)

// Digi is the dense trigger record of one trigger-cell slot.
type Digi struct {
	Flags   Flag
	Layer   uint8
	Module  uint8
	Channel uint8 // cell slot of the module
	Algo    Algo
	Valid   bool
	Loc     [NumBX]uint8
	Energy  [NumBX]uint32
}

// MetaFlag qualifies the event metadata.
type MetaFlag uint32

const (
	MetaValid   MetaFlag = 0
	MetaUnknown MetaFlag = 32
)

// MetaData holds the event-level trigger information.
type MetaData struct {
	TrigTime  uint32
	TrigWidth uint32
	Flags     MetaFlag
}

// Event is a decoded trigger-link event.
type Event struct {
	Meta     MetaData
	Digis    []Digi // dense records, indexed by Indexer.Index
	Modules  []ModuleData
	NumBX    int // number of decoded bunch crossings
	Warnings []HeaderWarning
}

// ModuleData holds the per bunch-crossing data of one module of a train.
type ModuleData struct {
	Train  int
	Module Module
	Packed []Packed // packed view, per bunch crossing
	Cells  [][]Cell // unpacked cells, per bunch crossing
}

// Available returns the indices of the records that hold data.
func (evt *Event) Available() []int {
	var idx []int
	for i := range evt.Digis {
		if evt.Digis[i].Flags != NotAvailable {
			idx = append(idx, i)
		}
	}
	return idx
}

func (evt *Event) reset(size int) {
	if cap(evt.Digis) < size {
		evt.Digis = make([]Digi, size)
	}
	evt.Digis = evt.Digis[:size]
	for i := range evt.Digis {
		evt.Digis[i] = Digi{Flags: NotAvailable}
	}
	evt.Meta = MetaData{Flags: MetaUnknown}
	evt.Modules = evt.Modules[:0]
	evt.NumBX = 0
	evt.Warnings = evt.Warnings[:0]
}
