// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

// PickBits extracts width bits of w, starting at bit start counted from the
// most significant bit.
// PickBits panics if start+width exceeds 64.
func PickBits(w uint64, start, width uint) uint64 {
	if start+width > 64 {
		panic("trigger: bit range out of 64b word")
	}
	if width == 0 {
		return 0
	}
	return (w >> (64 - start - width)) & mask(width)
}

func mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

func low16(w uint64) uint64 { return w & 0xffff }
func low32(w uint64) uint64 { return w & 0xffffffff }
