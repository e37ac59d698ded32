// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"errors"
	"fmt"
)

// ErrFraming is matched, with errors.Is, by every FramingError.
var ErrFraming = errors.New("trigger: framing error")

// FramingError describes an event whose channel packets could not be
// located or assembled.
type FramingError struct {
	Channel int    // channel position (0-based) of the faulty packet
	Reason  string // description of the failure
	BXID    uint8  // bunch-crossing identifier hint, for missing markers
}

func (err *FramingError) Error() string {
	return fmt.Sprintf("trigger: framing error on channel %d: %s", err.Channel, err.Reason)
}

func (err *FramingError) Is(target error) bool { return target == ErrFraming }

// UnknownVariantError is returned when an unpacker is requested for an
// unsupported trigger-link data format.
type UnknownVariantError struct {
	Name string
}

func (err *UnknownVariantError) Error() string {
	return fmt.Sprintf("trigger: unknown unpacker variant %q", err.Name)
}

// HeaderWarning records a channel header whose channel id does not match its
// position in the event.
type HeaderWarning struct {
	Channel int   // expected channel position
	ID      uint8 // channel id found in the header
}

func (w HeaderWarning) String() string {
	return fmt.Sprintf("channel %d: header holds channel id %d", w.Channel, w.ID)
}
