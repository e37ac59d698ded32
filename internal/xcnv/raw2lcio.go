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

// Raw2LCIO decodes the events of an S-link record stream and writes them,
// with their raw payload, to an LCIO stream.
// Events failing to decode are logged and skipped.
func Raw2LCIO(w *lcio.Writer, r *slink.Reader, unp *trigger.Unpacker, run int32, msg *log.Logger) (Stats, error) {
	var (
		stats Stats
		rec   slink.Record
		evt   = unp.NewEvent()
		geo   = unp.Indexer().Config()
	)

	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  detector,
		Descr:     "HGCal trigger-link data (" + unp.Variant().String() + ")",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Variant": {int32(unp.Variant())},
				"Indexer": {
					int32(geo.LayerOffset), int32(geo.ModOffset),
					int32(geo.MaxLayer), int32(geo.MaxMod), int32(geo.MaxCh),
				},
			},
		},
	})
	if err != nil {
		return stats, fmt.Errorf("could not write run header: %w", err)
	}

	for {
		err := r.Read(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("could not read S-link record: %w", err)
		}
		stats.Records++
		if !rec.IsEvent() {
			continue
		}

		i := stats.Events + stats.Rejected
		if i%100 == 0 {
			msg.Printf("processing evt %d...", i)
		}

		err = unp.Decode(rec.Bytes(), evt)
		if err != nil {
			msg.Printf("could not decode evt %d: %+v", i, err)
			stats.Rejected++
			continue
		}

		eoe, _ := rec.EOE()
		levt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(rec.Header.UTC()),
			Detector:    detector,
			Params: lcio.Params{
				Ints: map[string][]int32{
					"TrigTime":  {int32(evt.Meta.TrigTime)},
					"TrigWidth": {int32(evt.Meta.TrigWidth)},
					"TrigFlags": {int32(evt.Meta.Flags)},
					"NumBX":     {int32(evt.NumBX)},
					"BXID":      {int32(eoe.BXID)},
					"OrbitID":   {int32(eoe.OrbitID)},
				},
			},
		}
		levt.Add(RawCollection, &lcio.GenericObject{
			Data: []lcio.GenericObjectData{{I32s: i32sFrom(rec.Payload)}},
		})
		levt.Add(DigiCollection, digisFrom(evt))

		err = w.WriteEvent(&levt)
		if err != nil {
			return stats, fmt.Errorf("could not write event %d: %w", i, err)
		}
		stats.Events++
	}

	return stats, nil
}

func i32sFrom(ws []uint64) []int32 {
	o := make([]int32, 0, 2*len(ws))
	for _, w := range ws {
		o = append(o, int32(uint32(w)), int32(uint32(w>>32)))
	}
	return o
}

// digiWords is the number of int32 describing one digi.
const digiWords = 7 + 2*trigger.NumBX

func digisFrom(evt *trigger.Event) *lcio.GenericObject {
	var (
		idx  = evt.Available()
		coll = &lcio.GenericObject{
			Data: make([]lcio.GenericObjectData, len(idx)),
		}
	)
	for j, i := range idx {
		digi := &evt.Digis[i]
		valid := int32(0)
		if digi.Valid {
			valid = 1
		}
		data := make([]int32, 0, digiWords)
		data = append(data,
			int32(i), int32(digi.Flags),
			int32(digi.Layer), int32(digi.Module), int32(digi.Channel),
			int32(digi.Algo), valid,
		)
		for _, loc := range digi.Loc {
			data = append(data, int32(loc))
		}
		for _, e := range digi.Energy {
			data = append(data, int32(e))
		}
		coll.Data[j].I32s = data
	}
	return coll
}
