// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import "fmt"

// MaxEnergyCode is the largest 9-bit compressed energy code.
const MaxEnergyCode = 0x1ff

// Decompress expands a 9-bit energy code (5-bit exponent, 4-bit mantissa)
// into its linear value.
// Decompress panics if code does not fit in 9 bits.
// Values of exponents above 28 do not fit in 32 bits and wrap around.
func Decompress(code uint32) uint32 {
	if code > MaxEnergyCode {
		panic(fmt.Errorf("trigger: energy code 0x%x out of range", code))
	}
	var (
		e = (code >> 4) & 0x1f
		m = code & 0xf
	)
	switch e {
	case 0:
		return m
	case 1:
		return 16 + m
	default:
		return (32 + 2*m + 1) << (e - 2)
	}
}

// Compress returns the largest energy code whose decompressed value does
// not exceed v.
func Compress(v uint32) uint32 {
	if v < 32 {
		return v
	}
	e := uint32(2)
	for e < 0x1f && v>>(e-2) >= 64 {
		e++
	}
	// v >> (e-2) lies in [32, 64) unless saturated.
	r := v >> (e - 2)
	if r >= 64 {
		return MaxEnergyCode
	}
	if r < 33 {
		// below the first representable value (33<<(e-2)) of this exponent.
		return (e-1)<<4 | 0xf
	}
	m := (r - 33) / 2
	return e<<4 | m
}
