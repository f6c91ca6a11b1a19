// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"errors"
	"fmt"
)

var (
	// ErrStepRejected indicates that a receive step got a frame that
	// was not for us or was not of the expected type.
	ErrStepRejected = errors.New("frame sequence step rejected")

	// ErrRxTimeout indicates that no response arrived within the
	// receive step timeout.
	ErrRxTimeout = errors.New("frame sequence receive timeout")

	// ErrInvalidFrame indicates that raw bytes do not decode to an 802.11 frame.
	ErrInvalidFrame = errors.New("invalid 802.11 frame")
)

// FatalError is the value the engine panics with when a caller violates
// its contract (e.g., starting a sequence while another one is running).
//
// These are model bugs, not protocol failures, and are never reported
// through the [Callback] interface.
type FatalError struct {
	Message string
}

// Error implements error.
func (e *FatalError) Error() string {
	return "dot11seq: " + e.Message
}

func fatalf(format string, args ...any) {
	panic(&FatalError{Message: fmt.Sprintf(format, args...)})
}
