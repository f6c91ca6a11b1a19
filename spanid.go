// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 representing a span.
//
// Each frame sequence run by a [*FrameSequenceHandler] is a span: it
// starts with frameSequenceStart, ends with frameSequenceDone, and either
// completes or fails in a single way. All the events of a run carry the
// same spanID.
//
// The span terminology is borrowed from OTel.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
