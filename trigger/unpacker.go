// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/xerrors"
)

// Variant identifies a trigger-link data format.
type Variant uint8

const (
	TBsep24 Variant = iota + 1 // test-beam data format of September 2024
)

func (v Variant) String() string {
	switch v {
	case TBsep24:
		return "TBsep24"
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant returns the variant named name.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "TBsep24":
		return TBsep24, nil
	}
	return 0, &UnknownVariantError{Name: name}
}

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithLogger sets the logger used to report header inconsistencies.
func WithLogger(msg *log.Logger) Option {
	return func(unp *Unpacker) {
		if msg != nil {
			unp.msg = msg
		}
	}
}

// WithTrains sets the number of trains to decode.
func WithTrains(n int) Option {
	return func(unp *Unpacker) {
		unp.trains = n
	}
}

// Unpacker decodes trigger-link events into dense digi records.
// An Unpacker is immutable once created and may be shared by goroutines.
type Unpacker struct {
	variant Variant
	idx     Indexer
	trains  int
	msg     *log.Logger
}

// NewUnpacker creates an unpacker for the named variant.
func NewUnpacker(variant string, idx Indexer, opts ...Option) (*Unpacker, error) {
	v, err := ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if idx.Size() <= 0 {
		return nil, xerrors.Errorf("trigger: invalid empty indexer")
	}
	unp := &Unpacker{
		variant: v,
		idx:     idx,
		trains:  1,
		msg:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(unp)
	}
	if unp.trains <= 0 || unp.trains > 4 {
		return nil, xerrors.Errorf("trigger: invalid number of trains %d", unp.trains)
	}
	return unp, nil
}

// Variant returns the data format decoded by the unpacker.
func (unp *Unpacker) Variant() Variant { return unp.variant }

// Indexer returns the indexer of the dense records.
func (unp *Unpacker) Indexer() Indexer { return unp.idx }

// NewEvent returns an event ready to be filled by Decode.
func (unp *Unpacker) NewEvent() *Event {
	evt := &Event{}
	evt.reset(unp.idx.Size())
	return evt
}

// Decode decodes the raw event buffer into evt.
//
// Every record of evt is first marked as not available. Records are only
// filled once the whole event has been decoded: when Decode fails, all the
// records are left not available.
func (unp *Unpacker) Decode(raw []byte, evt *Event) error {
	evt.reset(unp.idx.Size())

	ws, err := NewWords(raw)
	if err != nil {
		return err
	}

	switch unp.variant {
	case TBsep24:
		err = unp.decodeTBsep24(ws, evt)
	default:
		err = &UnknownVariantError{Name: unp.variant.String()}
	}
	if err != nil {
		evt.Modules = evt.Modules[:0]
		evt.NumBX = 0
		return err
	}
	return nil
}

func (unp *Unpacker) decodeTBsep24(ws Words, evt *Event) error {
	if t, ok := ws.timing(); ok {
		evt.Meta = MetaData{
			TrigTime:  t.Time,
			TrigWidth: t.Width,
			Flags:     MetaValid,
		}
	}

	pkts, err := Assemble(ws)
	evt.Warnings = append(evt.Warnings, pkts.Warnings...)
	for _, w := range pkts.Warnings {
		unp.msg.Printf("header mismatch: %v", w)
	}
	if err != nil {
		return err
	}
	evt.NumBX = pkts.NumBX

	type slot struct {
		idx  int
		digi Digi
	}
	var slots []slot

	for train := 0; train < unp.trains; train++ {
		var (
			pchan = train + 1
			cchan = train + 5
		)
		for _, mod := range TrainModules(train) {
			data := ModuleData{
				Train:  train,
				Module: mod,
				Packed: make([]Packed, pkts.NumBX),
				Cells:  make([][]Cell, pkts.NumBX),
			}
			for bx := 0; bx < pkts.NumBX; bx++ {
				data.Packed[bx], err = mod.packed(pkts.Words(bx, pchan))
				if err != nil {
					return &FramingError{Channel: pchan, Reason: err.Error()}
				}
				data.Cells[bx], err = mod.cells(pkts.Words(bx, cchan))
				if err != nil {
					return &FramingError{Channel: cchan, Reason: err.Error()}
				}
			}
			evt.Modules = append(evt.Modules, data)

			if !mod.Valid {
				continue
			}
			for ch := 0; ch < mod.NumCells(); ch++ {
				i, err := unp.idx.Index(train, int(mod.Index), ch)
				if err != nil {
					return xerrors.Errorf("trigger: could not index module %s of train %d: %w", mod.Name, train, err)
				}
				digi := Digi{
					Flags:   Normal,
					Layer:   uint8(train),
					Module:  mod.Index,
					Channel: uint8(ch),
					Algo:    mod.Algo,
					Valid:   true,
				}
				for bx, cells := range data.Cells {
					digi.Loc[bx] = cells[ch].Loc
					digi.Energy[bx] = cells[ch].Energy
				}
				slots = append(slots, slot{idx: i, digi: digi})
			}
		}
	}

	for _, s := range slots {
		evt.Digis[s.idx] = s.digi
	}
	return nil
}
