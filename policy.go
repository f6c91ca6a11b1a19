// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"net"
	"time"
)

// DefaultRtsThreshold is the default dot11RTSThreshold in bytes.
const DefaultRtsThreshold = 2346

// RtsPolicy decides when RTS/CTS protection is needed.
type RtsPolicy interface {
	// IsRtsNeeded returns whether the frame must be protected by RTS/CTS.
	IsRtsNeeded(frame *Frame) bool

	// CtsTimeout returns how long to wait for the CTS answering rts.
	CtsTimeout(rts *Frame) time.Duration
}

// NewThresholdRtsPolicy returns a [*ThresholdRtsPolicy].
func NewThresholdRtsPolicy(cfg *Config, threshold int) *ThresholdRtsPolicy {
	return &ThresholdRtsPolicy{
		Threshold: threshold,
		Timeout:   cfg.ResponseTimeout(),
	}
}

// ThresholdRtsPolicy requires RTS/CTS for individually addressed data and
// management frames longer than a threshold.
type ThresholdRtsPolicy struct {
	// Threshold is the length in bytes above which RTS is needed.
	Threshold int

	// Timeout is the CTS timeout.
	Timeout time.Duration
}

var _ RtsPolicy = &ThresholdRtsPolicy{}

// IsRtsNeeded implements [RtsPolicy].
func (p *ThresholdRtsPolicy) IsRtsNeeded(frame *Frame) bool {
	if !frame.IsDataOrManagement() || frame.IsGroupAddressed() {
		return false
	}
	return frame.Length() > p.Threshold
}

// CtsTimeout implements [RtsPolicy].
func (p *ThresholdRtsPolicy) CtsTimeout(rts *Frame) time.Duration {
	return p.Timeout
}

// RtsProcedure builds the RTS frame protecting a data or management frame.
type RtsProcedure interface {
	BuildRtsFrame(protected *Frame) *Frame
}

// BasicRtsProcedure builds RTS frames transmitted from Address.
type BasicRtsProcedure struct {
	// Address is our own MAC address.
	Address net.HardwareAddr

	// Duration optionally computes the Duration/ID field in microseconds.
	Duration func(protected *Frame) uint16
}

var _ RtsProcedure = &BasicRtsProcedure{}

// BuildRtsFrame implements [RtsProcedure].
func (p *BasicRtsProcedure) BuildRtsFrame(protected *Frame) *Frame {
	var duration uint16
	if p.Duration != nil {
		duration = p.Duration(protected)
	}
	return NewRtsFrame(protected.ReceiverAddress(), p.Address, duration)
}

// OriginatorAckPolicy provides the ACK timeout for a data or management frame.
type OriginatorAckPolicy interface {
	AckTimeout(frame *Frame) time.Duration
}

// NewFixedAckPolicy returns a [*FixedAckPolicy] using [Config.ResponseTimeout].
func NewFixedAckPolicy(cfg *Config) *FixedAckPolicy {
	return &FixedAckPolicy{Timeout: cfg.ResponseTimeout()}
}

// FixedAckPolicy uses the same ACK timeout for every frame.
type FixedAckPolicy struct {
	Timeout time.Duration
}

var _ OriginatorAckPolicy = &FixedAckPolicy{}

// AckTimeout implements [OriginatorAckPolicy].
func (p *FixedAckPolicy) AckTimeout(frame *Frame) time.Duration {
	return p.Timeout
}
