// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert trigger-link data to/from LCIO.
package xcnv // import "github.com/go-lpc/hgctrg/internal/xcnv"

const (
	detector = "HGCAL-TB"

	// RawCollection holds the raw trigger-link payload of an event, as
	// pairs of int32 (low, high) per 64-bit word.
	RawCollection = "HGCalTriggerRaw"

	// DigiCollection holds the available trigger digis of an event.
	DigiCollection = "HGCalDigiTrigger"
)

// Stats summarizes a conversion.
type Stats struct {
	Records  int // number of S-link records read
	Events   int // number of events written
	Rejected int // number of events rejected with a decoding error
}
