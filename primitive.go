// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"strings"
	"time"
)

// exchange is the state machine shared by the primitive frame sequences:
// an optional transmit step followed by an optional receive step.
type exchange struct {
	// txLabel and rxLabel name the steps in the history.
	txLabel, rxLabel string

	// transmit builds the transmit step; nil for receive-only primitives.
	transmit func(ctx *Context) *TransmitStep

	// timeout computes the receive timeout from the frame we sent;
	// nil for transmit-only primitives.
	timeout func(ctx *Context, sent *Frame) time.Duration

	// expect is the kind of the response we accept.
	expect FrameKind

	firstStep int
	step      int
	sent      *Frame
}

const (
	phaseTransmit = iota
	phaseReceive
	phaseDone
)

func (e *exchange) phase() int {
	idx := e.step
	if e.transmit != nil {
		if idx == 0 {
			return phaseTransmit
		}
		idx--
	}
	if e.timeout != nil && idx == 0 {
		return phaseReceive
	}
	return phaseDone
}

// StartSequence implements [FrameSequence].
func (e *exchange) StartSequence(ctx *Context, firstStep int) {
	e.firstStep = firstStep
	e.step = 0
	e.sent = nil
}

// PrepareStep implements [FrameSequence].
func (e *exchange) PrepareStep(ctx *Context) Step {
	switch e.phase() {
	case phaseTransmit:
		step := e.transmit(ctx)
		e.sent = step.Frame
		return step
	case phaseReceive:
		if e.sent == nil {
			e.sent = lastTransmittedFrame(ctx)
		}
		return NewReceiveStep(e.timeout(ctx, e.sent))
	default:
		return nil
	}
}

// CompleteStep implements [FrameSequence].
func (e *exchange) CompleteStep(ctx *Context) bool {
	switch e.phase() {
	case phaseTransmit:
		e.step++
		return true
	case phaseReceive:
		step, ok := ctx.Step(e.firstStep + e.step).(*ReceiveStep)
		if !ok {
			fatalf("step %d is not a receive step", e.firstStep+e.step)
		}
		e.step++
		received := step.ReceivedFrame
		return received != nil && ctx.IsForUs(received) && received.Kind() == e.expect
	default:
		fatalf("primitive frame sequence completed after exhaustion")
		return false
	}
}

// History implements [FrameSequence].
func (e *exchange) History() string {
	var labels []string
	if e.transmit != nil {
		labels = append(labels, e.txLabel)
	}
	if e.timeout != nil {
		labels = append(labels, e.rxLabel)
	}
	return strings.Join(labels[:min(e.step, len(labels))], " ")
}

func lastTransmittedFrame(ctx *Context) *Frame {
	if ctx.NumSteps() <= 0 {
		fatalf("receive-only frame sequence without a preceding transmit step")
	}
	step, ok := ctx.LastStep().(*TransmitStep)
	if !ok {
		fatalf("receive-only frame sequence not preceded by a transmit step")
	}
	return step.Frame
}

func transmitFrameToTransmit(ctx *Context) *TransmitStep {
	frame := ctx.Frames.FrameToTransmit()
	if frame == nil {
		fatalf("no frame to transmit")
	}
	return NewTransmitStep(frame, ctx.Ifs())
}

func transmitRts(ctx *Context) *TransmitStep {
	protected := ctx.Frames.FrameToTransmit()
	if protected == nil {
		fatalf("no frame to protect with RTS")
	}
	rts := ctx.RtsProcedure.BuildRtsFrame(protected)
	return NewRtsTransmitStep(protected, rts, ctx.Ifs())
}

func transmitBlockAckReq(ctx *Context) *TransmitStep {
	qos := requireQoS(ctx)
	receiver, startingSeq, tid := qos.AckPolicy.ComputeBlockAckReqParameters(ctx.Frames, qos.TxopProcedure)
	bar := qos.BlockAckProcedure.BuildBlockAckReqFrame(receiver, tid, startingSeq)
	return NewTransmitStep(bar, ctx.Ifs())
}

func ackTimeout(ctx *Context, sent *Frame) time.Duration {
	return ctx.AckTimeout(sent)
}

func ctsTimeout(ctx *Context, sent *Frame) time.Duration {
	return ctx.CtsTimeout(sent)
}

func blockAckTimeout(ctx *Context, sent *Frame) time.Duration {
	return requireQoS(ctx).AckPolicy.BlockAckTimeout(sent)
}

func requireQoS(ctx *Context) *QoSContext {
	if ctx.QoS == nil {
		fatalf("QoS frame sequence used without a QoS context")
	}
	return ctx.QoS
}

// DataFs transmits the frame to transmit and expects no response.
type DataFs struct{ exchange }

// NewDataFs returns a new [*DataFs].
func NewDataFs() *DataFs {
	return &DataFs{exchange{txLabel: "DATA", transmit: transmitFrameToTransmit}}
}

// ManagementFs transmits the management frame to transmit and expects no response.
type ManagementFs struct{ exchange }

// NewManagementFs returns a new [*ManagementFs].
func NewManagementFs() *ManagementFs {
	return &ManagementFs{exchange{txLabel: "MGMT", transmit: transmitFrameToTransmit}}
}

// ManagementAckFs transmits the management frame to transmit and expects an ACK.
type ManagementAckFs struct{ exchange }

// NewManagementAckFs returns a new [*ManagementAckFs].
func NewManagementAckFs() *ManagementAckFs {
	return &ManagementAckFs{exchange{
		txLabel:  "MGMT",
		rxLabel:  "ACK",
		transmit: transmitFrameToTransmit,
		timeout:  ackTimeout,
		expect:   FrameKindAck,
	}}
}

// RtsFs transmits an RTS protecting the frame to transmit.
type RtsFs struct{ exchange }

// NewRtsFs returns a new [*RtsFs].
func NewRtsFs() *RtsFs {
	return &RtsFs{exchange{txLabel: "RTS", transmit: transmitRts}}
}

// CtsFs waits for the CTS answering the RTS transmitted in the previous step.
type CtsFs struct{ exchange }

// NewCtsFs returns a new [*CtsFs].
func NewCtsFs() *CtsFs {
	return &CtsFs{exchange{rxLabel: "CTS", timeout: ctsTimeout, expect: FrameKindCTS}}
}

// AckFs waits for the ACK answering the frame transmitted in the previous step.
type AckFs struct{ exchange }

// NewAckFs returns a new [*AckFs].
func NewAckFs() *AckFs {
	return &AckFs{exchange{rxLabel: "ACK", timeout: ackTimeout, expect: FrameKindAck}}
}

// RtsCtsFs transmits an RTS and expects a CTS.
type RtsCtsFs struct{ exchange }

// NewRtsCtsFs returns a new [*RtsCtsFs].
func NewRtsCtsFs() *RtsCtsFs {
	return &RtsCtsFs{exchange{
		txLabel:  "RTS",
		rxLabel:  "CTS",
		transmit: transmitRts,
		timeout:  ctsTimeout,
		expect:   FrameKindCTS,
	}}
}

// FragFrameAckFs transmits a non-final fragment and expects an ACK.
type FragFrameAckFs struct{ exchange }

// NewFragFrameAckFs returns a new [*FragFrameAckFs].
func NewFragFrameAckFs() *FragFrameAckFs {
	return &FragFrameAckFs{exchange{
		txLabel:  "FRAG",
		rxLabel:  "ACK",
		transmit: transmitFrameToTransmit,
		timeout:  ackTimeout,
		expect:   FrameKindAck,
	}}
}

// LastFrameAckFs transmits the final (or only) fragment and expects an ACK.
type LastFrameAckFs struct{ exchange }

// NewLastFrameAckFs returns a new [*LastFrameAckFs].
func NewLastFrameAckFs() *LastFrameAckFs {
	return &LastFrameAckFs{exchange{
		txLabel:  "LAST",
		rxLabel:  "ACK",
		transmit: transmitFrameToTransmit,
		timeout:  ackTimeout,
		expect:   FrameKindAck,
	}}
}

// BlockAckReqBlockAckFs transmits a block-ack request and expects a block ack.
type BlockAckReqBlockAckFs struct{ exchange }

// NewBlockAckReqBlockAckFs returns a new [*BlockAckReqBlockAckFs].
func NewBlockAckReqBlockAckFs() *BlockAckReqBlockAckFs {
	return &BlockAckReqBlockAckFs{exchange{
		txLabel:  "BAR",
		rxLabel:  "BA",
		transmit: transmitBlockAckReq,
		timeout:  blockAckTimeout,
		expect:   FrameKindBlockAck,
	}}
}

// SelfCtsFs is CTS-to-self protection.
//
// Not implemented: it produces no step and rejects completion. The
// sequences never select it because isSelfCtsNeeded is always false.
type SelfCtsFs struct{}

var _ FrameSequence = &SelfCtsFs{}

// NewSelfCtsFs returns a new [*SelfCtsFs].
func NewSelfCtsFs() *SelfCtsFs {
	return &SelfCtsFs{}
}

// StartSequence implements [FrameSequence].
func (fs *SelfCtsFs) StartSequence(ctx *Context, firstStep int) {
	// nothing
}

// PrepareStep implements [FrameSequence].
func (fs *SelfCtsFs) PrepareStep(ctx *Context) Step {
	return nil
}

// CompleteStep implements [FrameSequence].
func (fs *SelfCtsFs) CompleteStep(ctx *Context) bool {
	return false
}

// History implements [FrameSequence].
func (fs *SelfCtsFs) History() string {
	return ""
}
