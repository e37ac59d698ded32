// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/hgctrg/internal/slink"
	"github.com/go-lpc/hgctrg/trigger"
	"go-hep.org/x/hep/lcio"
)

// LCIO2Raw writes the raw trigger-link payloads stored in an LCIO stream
// back as S-link event records.
func LCIO2Raw(w *slink.Writer, r *lcio.Reader, freq int, msg *log.Logger) (Stats, error) {
	var stats Stats
	for r.Next() {
		if freq > 0 && stats.Events%freq == 0 {
			msg.Printf("processing evt %d...", stats.Events)
		}
		evt := r.Event()
		raw, ok := evt.Get(RawCollection).(*lcio.GenericObject)
		if !ok || len(raw.Data) != 1 {
			return stats, fmt.Errorf("could not find raw collection %q in event %d", RawCollection, evt.EventNumber)
		}

		payload, err := wordsFrom(raw.Data[0].I32s)
		if err != nil {
			return stats, fmt.Errorf("could not decode raw payload of event %d: %w", evt.EventNumber, err)
		}
		err = w.Write(slink.Record{
			Header:  slink.NewHeader(slink.EventData, 0, len(payload), uint32(evt.TimeStamp)),
			Payload: payload,
		})
		if err != nil {
			return stats, fmt.Errorf("could not write event %d: %w", evt.EventNumber, err)
		}
		stats.Records++
		stats.Events++
	}

	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return stats, fmt.Errorf("could not read LCIO stream: %w", err)
	}
	return stats, nil
}

func wordsFrom(raw []int32) ([]uint64, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("odd number of int32 (%d)", len(raw))
	}
	ws := make([]uint64, len(raw)/2)
	for i := range ws {
		ws[i] = uint64(uint32(raw[2*i])) | uint64(uint32(raw[2*i+1]))<<32
	}
	return ws, nil
}

// EventFrom reconstructs a decoded event from an LCIO event.
// size is the number of records of the dense digi container.
func EventFrom(evt *lcio.Event, size int) (*trigger.Event, error) {
	coll, ok := evt.Get(DigiCollection).(*lcio.GenericObject)
	if !ok {
		return nil, fmt.Errorf("could not find digi collection %q in event %d", DigiCollection, evt.EventNumber)
	}

	o := &trigger.Event{Digis: make([]trigger.Digi, size)}
	for i := range o.Digis {
		o.Digis[i].Flags = trigger.NotAvailable
	}

	param := func(name string) int32 {
		v := evt.Params.Ints[name]
		if len(v) == 0 {
			return 0
		}
		return v[0]
	}
	o.Meta = trigger.MetaData{
		TrigTime:  uint32(param("TrigTime")),
		TrigWidth: uint32(param("TrigWidth")),
		Flags:     trigger.MetaFlag(param("TrigFlags")),
	}
	o.NumBX = int(param("NumBX"))
	if o.NumBX < 0 || o.NumBX > trigger.NumBX {
		return nil, fmt.Errorf("invalid number of bunch crossings %d in event %d", o.NumBX, evt.EventNumber)
	}

	for j, data := range coll.Data {
		v := data.I32s
		if len(v) != digiWords {
			return nil, fmt.Errorf("invalid digi %d in event %d (len=%d)", j, evt.EventNumber, len(v))
		}
		i := int(v[0])
		if i < 0 || i >= size {
			return nil, fmt.Errorf("invalid digi index %d in event %d (size=%d)", i, evt.EventNumber, size)
		}
		digi := trigger.Digi{
			Flags:   trigger.Flag(v[1]),
			Layer:   uint8(v[2]),
			Module:  uint8(v[3]),
			Channel: uint8(v[4]),
			Algo:    trigger.Algo(v[5]),
			Valid:   v[6] == 1,
		}
		for k := range digi.Loc {
			digi.Loc[k] = uint8(v[7+k])
			digi.Energy[k] = uint32(v[7+trigger.NumBX+k])
		}
		o.Digis[i] = digi
	}
	return o, nil
}
