// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"fmt"
	"strconv"
	"strings"
)

// Algo identifies the concentrator algorithm that produced trigger cells.
type Algo uint8

const (
	BestCluster Algo = iota // best-choice trigger cells
	SuperTC4                // super trigger cells of 4 cells
	SuperTC16               // super trigger cells of 16 cells
)

func (a Algo) String() string {
	switch a {
	case BestCluster:
		return "BC"
	case SuperTC4:
		return "STC4"
	case SuperTC16:
		return "STC16"
	}
	return fmt.Sprintf("Algo(%d)", uint8(a))
}

type kind uint8

const (
	kindUnknown kind = iota
	kindBC
	kindSTC4
	kindSTC16
	kindMB
)

// Module is a concentrator module configured on a train.
type Module struct {
	Name  string
	Algo  Algo
	Index uint8 // module index, from the configuration name
	Word  int   // word offset of the module in the packed view
	Valid bool  // whether the name denotes a known algorithm

	kind kind
}

// ParseModule interprets the configuration name of the module located at
// word offset word of a train.
// Unknown names give an invalid module with cleared fields.
func ParseModule(name string, word int) Module {
	mod := Module{Name: name, Word: word}
	suffix := func(prefix string) (uint8, bool) {
		v, err := strconv.ParseUint(strings.TrimPrefix(name, prefix), 10, 8)
		if err != nil || v >= NumModules {
			return 0, false
		}
		return uint8(v), true
	}

	switch {
	case strings.HasPrefix(name, "BC"):
		idx, ok := suffix("BC")
		if !ok {
			return mod
		}
		mod.kind, mod.Algo, mod.Index = kindBC, BestCluster, idx
	case name == "STC16":
		mod.kind, mod.Algo = kindSTC16, SuperTC16
	case strings.HasPrefix(name, "STC4"):
		idx, ok := suffix("STC4")
		if !ok {
			return mod
		}
		mod.kind, mod.Algo, mod.Index = kindSTC4, SuperTC4, idx
	case strings.HasPrefix(name, "MB"):
		mod.kind = kindMB
		return mod
	default:
		return mod
	}
	mod.Valid = true
	return mod
}

// TrainModules returns the modules configured on a train.
func TrainModules(train int) [NumModules]Module {
	names := [NumModules]string{"STC42", "STC41", "STC40"}
	if train == 0 {
		names = [NumModules]string{"BC2", "BC1", "BC0"}
	}
	var mods [NumModules]Module
	for i, name := range names {
		mods[i] = ParseModule(name, i)
	}
	return mods
}

// Cell is a trigger cell of a module, for one bunch crossing.
// Cells of invalid modules are cleared and not valid.
type Cell struct {
	Valid     bool
	Loc       uint8  // location of the cell inside the module
	RawEnergy uint32 // compressed energy code
	Energy    uint32 // decompressed energy
}

// Packed is the packed representation of a module, for one bunch crossing.
type Packed struct {
	ModuleSum uint8
	Locs      []uint8
	Energies  []uint8 // 7-bit energies
}

type layoutKey struct {
	kind  kind
	index uint8
}

// layout describes where a module stores its trigger cells, in the packed
// and the unpacked channel packets.
type layout struct {
	// packed view: two consecutive words starting at the module word offset
	// are recombined into a location word and an energy word.
	compose  func(w0, w1 uint64) (locs, ens uint64)
	sum      bool // module sum in bits [4, 12) of the location word
	locStart uint
	locWidth uint
	npacked  int

	// unpacked view: 16-bit sub-words of payload words 1..words.
	words int
	shift uint // bit shift of the first sub-word
	pair  bool // a second sub-word sits 16 bits above the first one
	bcLoc bool // location in bits [5:0], otherwise bits [5:2]
	cells int  // family cell count
}

func composeBC2(w0, w1 uint64) (uint64, uint64) {
	return w0 &^ 0xffff, low16(w0)<<48 | (w1>>32)<<16
}

func composeBC(w0, w1 uint64) (uint64, uint64) {
	return low32(w0)<<32 | (w1>>60)<<28, (w1 >> 32) << 36
}

func composeSTC(w0, w1 uint64) (uint64, uint64) {
	return PickBits(w0, 32, 16) << 48, PickBits(w0, 48, 16)<<48 | (w1>>32)<<16
}

var layouts = map[layoutKey]layout{
	{kindBC, 2}: {compose: composeBC2, sum: true, locStart: 12, locWidth: 6, npacked: 6, words: 6, shift: 0, bcLoc: true, cells: 4},
	{kindBC, 1}: {compose: composeBC, sum: true, locStart: 12, locWidth: 6, npacked: 4, words: 4, shift: 32, bcLoc: true, cells: 4},
	{kindBC, 0}: {compose: composeBC, sum: true, locStart: 12, locWidth: 6, npacked: 4, words: 4, shift: 48, bcLoc: true, cells: 4},

	{kindSTC4, 2}: {compose: composeSTC, locStart: 4, locWidth: 2, npacked: 6, words: 5, shift: 0, pair: true, cells: 10},
	{kindSTC4, 1}: {compose: composeSTC, locStart: 4, locWidth: 2, npacked: 6, words: 6, shift: 32, cells: 10},
	{kindSTC4, 0}: {compose: composeSTC, locStart: 4, locWidth: 2, npacked: 6, words: 6, shift: 48, cells: 10},

	{kindSTC16, 0}: {compose: composeSTC, locStart: 4, locWidth: 2, npacked: 6, words: 3, shift: 48, cells: 3},

	{kindMB, 0}: {words: 4, shift: 0, pair: true, cells: 6},
}

func (mod Module) layout() (layout, bool) {
	lay, ok := layouts[layoutKey{mod.kind, mod.Index}]
	return lay, ok
}

// NumCells returns the number of trigger cells the module yields per bunch
// crossing.
func (mod Module) NumCells() int {
	lay, ok := mod.layout()
	if !ok {
		return 0
	}
	n := lay.words
	if lay.pair {
		n *= 2
	}
	if lay.cells < n {
		n = lay.cells
	}
	return n
}

// packed decodes the packed view of the module from the payload words of
// its packed channel.
func (mod Module) packed(pkt []uint64) (Packed, error) {
	lay, ok := mod.layout()
	if !ok || lay.compose == nil {
		return Packed{}, nil
	}
	if len(pkt) < mod.Word+2 {
		return Packed{}, fmt.Errorf("packet too short for module %s (%d words)", mod.Name, len(pkt))
	}
	locs, ens := lay.compose(pkt[mod.Word], pkt[mod.Word+1])

	p := Packed{
		Locs:     make([]uint8, lay.npacked),
		Energies: make([]uint8, lay.npacked),
	}
	if lay.sum {
		p.ModuleSum = uint8(PickBits(locs, 4, 8))
	}
	for i := 0; i < lay.npacked; i++ {
		p.Locs[i] = uint8(PickBits(locs, lay.locStart+uint(i)*lay.locWidth, lay.locWidth))
		p.Energies[i] = uint8(PickBits(ens, uint(7*i), 7))
	}
	return p, nil
}

// cells decodes the unpacked trigger cells of the module from the payload
// words of its cells channel.
// Invalid modules give MaxCells cleared cells.
func (mod Module) cells(pkt []uint64) ([]Cell, error) {
	lay, ok := mod.layout()
	if !ok || !mod.Valid {
		return make([]Cell, MaxCells), nil
	}
	if len(pkt) < lay.words+1 {
		return nil, fmt.Errorf("packet too short for module %s (%d words)", mod.Name, len(pkt))
	}

	cells := make([]Cell, mod.NumCells())
	for i := range cells {
		var (
			word  = 1 + i
			shift = lay.shift
		)
		if lay.pair {
			word = 1 + i/2
			shift += 16 * uint(i%2)
		}
		econt := (pkt[word] >> shift) & 0xffff

		cell := Cell{Valid: true}
		switch {
		case lay.bcLoc:
			cell.Loc = uint8(econt & 0x3f)
		default:
			cell.Loc = uint8((econt >> 2) & 0xf)
		}
		cell.RawEnergy = uint32((econt >> 6) & MaxEnergyCode)
		cell.Energy = Decompress(cell.RawEnergy)
		cells[i] = cell
	}
	return cells, nil
}
