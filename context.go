// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"net"
	"time"

	"github.com/bassosimone/runtimex"
)

// InProgressFrames is the view of the MAC queue the sequences consult.
type InProgressFrames interface {
	// HasInProgressFrames returns whether there is work left for the
	// originator (frames to transmit or frames awaiting a block ack).
	HasInProgressFrames() bool

	// FrameToTransmit returns the next frame to transmit or nil.
	FrameToTransmit() *Frame

	// OutstandingFrames returns the frames transmitted under the
	// block-ack policy that still await a block ack.
	OutstandingFrames() []*Frame
}

// QoSContext groups the collaborators used by the HCF sequences.
type QoSContext struct {
	// AckPolicy decides the ack policy and block-ack request parameters.
	AckPolicy OriginatorQoSAckPolicy

	// TxopProcedure tracks the current transmission opportunity.
	TxopProcedure TxopProcedure

	// BlockAckProcedure builds block-ack request frames.
	BlockAckProcedure BlockAckProcedure

	// BlockAckAgreements looks up originator block-ack agreements.
	//
	// May be nil, in which case no agreement exists.
	BlockAckAgreements BlockAckAgreementHandler
}

// NewContext returns a [*Context] for a single frame-sequence run.
//
// The cfg argument contains the common configuration.
//
// The address argument is our own MAC address.
//
// The frames argument is the in-progress frames view.
//
// The collaborators are set to the defaults documented on each field and
// may be replaced before the context is handed to the handler.
func NewContext(cfg *Config, address net.HardwareAddr, frames InProgressFrames) *Context {
	runtimex.Assert(frames != nil)
	return &Context{
		AckPolicy:    NewFixedAckPolicy(cfg),
		Address:      address,
		Frames:       frames,
		QoS:          nil,
		RtsPolicy:    NewThresholdRtsPolicy(cfg, DefaultRtsThreshold),
		RtsProcedure: &BasicRtsProcedure{Address: address},
		Sifs:         cfg.Sifs,
	}
}

// Context is the state a running frame sequence consults.
//
// A context belongs to exactly one run and must not be reused.
type Context struct {
	// AckPolicy provides the ACK timeout outside of QoS.
	//
	// Set by [NewContext] to [*FixedAckPolicy].
	AckPolicy OriginatorAckPolicy

	// Address is our own MAC address.
	//
	// Set by [NewContext] to the user-provided value.
	Address net.HardwareAddr

	// Frames is the in-progress frames view.
	//
	// Set by [NewContext] to the user-provided value.
	Frames InProgressFrames

	// QoS contains the QoS collaborators, or nil outside of HCF.
	//
	// Set by [NewContext] to nil.
	QoS *QoSContext

	// RtsPolicy decides whether RTS/CTS protection is needed.
	//
	// Set by [NewContext] to [*ThresholdRtsPolicy].
	RtsPolicy RtsPolicy

	// RtsProcedure builds RTS frames.
	//
	// Set by [NewContext] to [*BasicRtsProcedure].
	RtsProcedure RtsProcedure

	// Sifs is the inter-frame space used between the steps of a sequence.
	//
	// Set by [NewContext] from [Config.Sifs].
	Sifs time.Duration

	steps []Step
}

// Ifs returns the inter-frame space to use for transmit steps.
func (c *Context) Ifs() time.Duration {
	return c.Sifs
}

// AckTimeout returns the ACK timeout for the given data or management frame.
func (c *Context) AckTimeout(frame *Frame) time.Duration {
	if c.QoS != nil {
		return c.QoS.AckPolicy.AckTimeout(frame)
	}
	return c.AckPolicy.AckTimeout(frame)
}

// CtsTimeout returns the CTS timeout for the given RTS frame.
func (c *Context) CtsTimeout(rts *Frame) time.Duration {
	return c.RtsPolicy.CtsTimeout(rts)
}

// IsForUs returns whether the frame is addressed to us, or is group
// addressed and was not sent by us.
func (c *Context) IsForUs(frame *Frame) bool {
	ra := frame.ReceiverAddress()
	if sameAddress(ra, c.Address) {
		return true
	}
	return isGroupAddress(ra) && !sameAddress(frame.TransmitterAddress(), c.Address)
}

// AddStep appends a step to the history.
func (c *Context) AddStep(step Step) {
	c.steps = append(c.steps, step)
}

// NumSteps returns the number of steps in the history.
func (c *Context) NumSteps() int {
	return len(c.steps)
}

// Step returns the i-th step of the history.
func (c *Context) Step(i int) Step {
	if i < 0 || i >= len(c.steps) {
		fatalf("step %d out of range [0, %d)", i, len(c.steps))
	}
	return c.steps[i]
}

// LastStep returns the most recent step.
func (c *Context) LastStep() Step {
	return c.Step(len(c.steps) - 1)
}

// StepBeforeLast returns the step preceding the most recent one.
func (c *Context) StepBeforeLast() Step {
	return c.Step(len(c.steps) - 2)
}

// Steps returns a copy of the step history.
func (c *Context) Steps() []Step {
	return append([]Step{}, c.steps...)
}
