// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import "time"

// Default OFDM (802.11a/g) timing parameters.
const (
	DefaultSifs            = 16 * time.Microsecond
	DefaultSlotTime        = 9 * time.Microsecond
	DefaultPhyRxStartDelay = 25 * time.Microsecond
)

// Config holds common configuration for dot11seq operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// PhyRxStartDelay is the PHY delay before a reception is signalled.
	//
	// Set by [NewConfig] to [DefaultPhyRxStartDelay].
	PhyRxStartDelay time.Duration

	// Sifs is the short inter-frame space.
	//
	// Set by [NewConfig] to [DefaultSifs].
	Sifs time.Duration

	// SlotTime is the slot duration.
	//
	// Set by [NewConfig] to [DefaultSlotTime].
	SlotTime time.Duration

	// TimeNow returns the current (simulated) time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier:   DefaultErrClassifier,
		PhyRxStartDelay: DefaultPhyRxStartDelay,
		Sifs:            DefaultSifs,
		SlotTime:        DefaultSlotTime,
		TimeNow:         time.Now,
	}
}

// ResponseTimeout returns SIFS + slot time + PHY RX start delay, which
// is the standard ACK and CTS timeout.
func (c *Config) ResponseTimeout() time.Duration {
	return c.Sifs + c.SlotTime + c.PhyRxStartDelay
}
