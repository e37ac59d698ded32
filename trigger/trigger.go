// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trigger decodes HGCal trigger-link raw data into dense per-channel
// trigger digis.
//
// A trigger-link event is a stream of 64-bit words holding 11 channel
// packets, each introduced by a 0xcafecafe sync marker. The packets carry,
// for a window of up to 7 bunch crossings, the trigger cells computed by the
// front-end concentrator algorithms (best-choice, super trigger cells) in a
// packed and an unpacked representation, plus the scintillator trigger
// timing bitmap.
package trigger // import "github.com/go-lpc/hgctrg/trigger"

const (
	// NumChannels is the number of trigger-link channels in one event.
	NumChannels = 11

	// NumBX is the width of the bunch-crossing window, centered on the
	// triggered bunch crossing.
	NumBX = 7

	// NumModules is the number of concentrator modules sharing a train.
	NumModules = 3

	// MaxCells is the largest number of trigger cells of a module, per
	// bunch crossing.
	MaxCells = 10
)

// BXOffset returns the bunch-crossing offset, relative to the triggered
// bunch crossing, of the i-th slot of the window.
func BXOffset(i int) int { return i - NumBX/2 }
