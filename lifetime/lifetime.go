// SPDX-License-Identifier: GPL-3.0-or-later

// Package lifetime tracks the transmit lifetime of MSDUs.
//
// The lifetime of an MSDU starts when its first fragment is first
// transmitted, not when it is queued. The MAC asks whether the lifetime
// expired before retrying a failed frame and drops the MSDU if so.
package lifetime

import (
	"fmt"
	"time"

	"github.com/bassosimone/dot11seq"
	"github.com/bassosimone/runtimex"
	"github.com/google/gopacket/layers"
)

// Handler is implemented by [*DcfTransmitLifetimeHandler] and
// [*EdcaTransmitLifetimeHandler].
type Handler interface {
	// FrameGotInProgress is called when the MSDU is queued for transmission.
	FrameGotInProgress(header *layers.Dot11)

	// FrameTransmitted is called each time a fragment is transmitted.
	FrameTransmitted(header *layers.Dot11)

	// IsLifetimeExpired returns whether the MSDU lifetime elapsed.
	IsLifetimeExpired(header *layers.Dot11) bool

	// Forget releases the state of a completed or dropped MSDU.
	Forget(header *layers.Dot11)
}

// NewDcfTransmitLifetimeHandler returns a new [*DcfTransmitLifetimeHandler].
//
// The cfg argument provides the clock.
//
// The maxLifetime argument is dot11MaxTransmitMSDULifetime.
func NewDcfTransmitLifetimeHandler(cfg *dot11seq.Config, maxLifetime time.Duration) *DcfTransmitLifetimeHandler {
	runtimex.Assert(maxLifetime > 0)
	return &DcfTransmitLifetimeHandler{
		MaxLifetime: maxLifetime,
		TimeNow:     cfg.TimeNow,
		starts:      map[uint16]time.Time{},
	}
}

// DcfTransmitLifetimeHandler tracks lifetimes by sequence number.
type DcfTransmitLifetimeHandler struct {
	// MaxLifetime is the maximum transmit lifetime.
	//
	// Set by [NewDcfTransmitLifetimeHandler] to the user-provided value.
	MaxLifetime time.Duration

	// TimeNow returns the current (simulated) time.
	//
	// Set by [NewDcfTransmitLifetimeHandler] from [dot11seq.Config.TimeNow].
	TimeNow func() time.Time

	starts map[uint16]time.Time
}

var _ Handler = &DcfTransmitLifetimeHandler{}

// FrameGotInProgress implements [Handler].
func (h *DcfTransmitLifetimeHandler) FrameGotInProgress(header *layers.Dot11) {
	// nothing
}

// FrameTransmitted implements [Handler].
//
// Only the first transmission of fragment zero starts the lifetime.
func (h *DcfTransmitLifetimeHandler) FrameTransmitted(header *layers.Dot11) {
	if header.FragmentNumber != 0 {
		return
	}
	if _, found := h.starts[header.SequenceNumber]; !found {
		h.starts[header.SequenceNumber] = h.TimeNow()
	}
}

// IsLifetimeExpired implements [Handler].
//
// Panics with [*dot11seq.FatalError] if the MSDU was never transmitted.
func (h *DcfTransmitLifetimeHandler) IsLifetimeExpired(header *layers.Dot11) bool {
	start, found := h.starts[header.SequenceNumber]
	if !found {
		panic(&dot11seq.FatalError{
			Message: fmt.Sprintf("no transmission recorded for sequence number %d", header.SequenceNumber),
		})
	}
	return h.TimeNow().Sub(start) >= h.MaxLifetime
}

// Forget implements [Handler].
func (h *DcfTransmitLifetimeHandler) Forget(header *layers.Dot11) {
	delete(h.starts, header.SequenceNumber)
}
