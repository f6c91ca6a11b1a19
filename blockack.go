// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"net"
	"time"

	"github.com/google/gopacket/layers"
)

// BlockAckAgreement is an originator block-ack agreement for a (receiver, TID) pair.
type BlockAckAgreement struct {
	// Receiver is the peer address.
	Receiver net.HardwareAddr

	// TID is the traffic identifier.
	TID uint8

	// StartingSequenceNumber is the first sequence number covered.
	StartingSequenceNumber uint16

	// BufferSize is the number of frames the recipient can buffer.
	BufferSize int

	// AddbaResponseReceived is true once the agreement is established.
	AddbaResponseReceived bool

	// SentBlockAckPolicyFrames counts frames sent under the block-ack
	// policy since the last block ack.
	SentBlockAckPolicyFrames int
}

// BlockAckAgreementHandler looks up originator agreements.
type BlockAckAgreementHandler interface {
	// Agreement returns the agreement or nil.
	Agreement(receiver net.HardwareAddr, tid uint8) *BlockAckAgreement
}

type agreementKey struct {
	receiver string
	tid      uint8
}

// NewBlockAckAgreementTable returns an empty [*BlockAckAgreementTable].
func NewBlockAckAgreementTable() *BlockAckAgreementTable {
	return &BlockAckAgreementTable{agreements: map[agreementKey]*BlockAckAgreement{}}
}

// BlockAckAgreementTable stores agreements keyed by (receiver, TID).
type BlockAckAgreementTable struct {
	agreements map[agreementKey]*BlockAckAgreement
}

var _ BlockAckAgreementHandler = &BlockAckAgreementTable{}

// Add adds or replaces an agreement.
func (t *BlockAckAgreementTable) Add(agreement *BlockAckAgreement) {
	t.agreements[agreementKey{agreement.Receiver.String(), agreement.TID}] = agreement
}

// Remove deletes the agreement, if any.
func (t *BlockAckAgreementTable) Remove(receiver net.HardwareAddr, tid uint8) {
	delete(t.agreements, agreementKey{receiver.String(), tid})
}

// Agreement implements [BlockAckAgreementHandler].
func (t *BlockAckAgreementTable) Agreement(receiver net.HardwareAddr, tid uint8) *BlockAckAgreement {
	return t.agreements[agreementKey{receiver.String(), tid}]
}

// OriginatorQoSAckPolicy decides acknowledgment handling under HCF.
type OriginatorQoSAckPolicy interface {
	OriginatorAckPolicy

	// ComputeAckPolicy returns the ack policy for a QoS data frame given
	// the agreement for its (receiver, TID), which may be nil.
	ComputeAckPolicy(frame *Frame, agreement *BlockAckAgreement) layers.Dot11AckPolicy

	// IsBlockAckReqNeeded returns whether a block-ack request must be sent.
	IsBlockAckReqNeeded(frames InProgressFrames, txop TxopProcedure) bool

	// ComputeBlockAckReqParameters returns the receiver, starting
	// sequence number and TID of the block-ack request to send.
	ComputeBlockAckReqParameters(frames InProgressFrames, txop TxopProcedure) (net.HardwareAddr, uint16, uint8)

	// BlockAckTimeout returns how long to wait for the block ack answering bar.
	BlockAckTimeout(bar *Frame) time.Duration
}

// DefaultBlockAckReqThreshold is the default number of outstanding
// frames that triggers a block-ack request.
const DefaultBlockAckReqThreshold = 5

// DefaultMaxBlockAckPolicyFrameLength is the default maximum frame
// length eligible for the block-ack policy.
const DefaultMaxBlockAckPolicyFrameLength = 1000

// NewQoSAckPolicy returns a [*QoSAckPolicy] with default thresholds.
func NewQoSAckPolicy(cfg *Config) *QoSAckPolicy {
	return &QoSAckPolicy{
		BlockAckReqThreshold:         DefaultBlockAckReqThreshold,
		BlockAckWait:                 cfg.ResponseTimeout(),
		MaxBlockAckPolicyFrameLength: DefaultMaxBlockAckPolicyFrameLength,
		NormalAckWait:                cfg.ResponseTimeout(),
	}
}

// QoSAckPolicy is the default [OriginatorQoSAckPolicy].
//
// A frame uses the block-ack policy when an established agreement exists,
// the agreement buffer is not full, the frame is not a fragment and it is
// not longer than MaxBlockAckPolicyFrameLength. A block-ack request is
// needed when the outstanding frames for a receiver reach the threshold,
// or when frames are outstanding and nothing else is left to transmit.
type QoSAckPolicy struct {
	// BlockAckReqThreshold is the number of outstanding frames per
	// receiver that triggers a block-ack request.
	BlockAckReqThreshold int

	// BlockAckWait is the block-ack timeout.
	BlockAckWait time.Duration

	// MaxBlockAckPolicyFrameLength is the maximum eligible frame length.
	MaxBlockAckPolicyFrameLength int

	// NormalAckWait is the ACK timeout.
	NormalAckWait time.Duration
}

var _ OriginatorQoSAckPolicy = &QoSAckPolicy{}

// AckTimeout implements [OriginatorQoSAckPolicy].
func (p *QoSAckPolicy) AckTimeout(frame *Frame) time.Duration {
	return p.NormalAckWait
}

// BlockAckTimeout implements [OriginatorQoSAckPolicy].
func (p *QoSAckPolicy) BlockAckTimeout(bar *Frame) time.Duration {
	return p.BlockAckWait
}

// ComputeAckPolicy implements [OriginatorQoSAckPolicy].
func (p *QoSAckPolicy) ComputeAckPolicy(frame *Frame, agreement *BlockAckAgreement) layers.Dot11AckPolicy {
	if agreement == nil || !agreement.AddbaResponseReceived {
		return layers.Dot11AckPolicyNormal
	}
	if frame.MoreFragments() || frame.FragmentNumber() != 0 {
		return layers.Dot11AckPolicyNormal
	}
	if frame.Length() > p.MaxBlockAckPolicyFrameLength {
		return layers.Dot11AckPolicyNormal
	}
	if agreement.BufferSize > 0 && agreement.SentBlockAckPolicyFrames >= agreement.BufferSize {
		return layers.Dot11AckPolicyNormal
	}
	return layers.Dot11AckPolicyBlock
}

// IsBlockAckReqNeeded implements [OriginatorQoSAckPolicy].
func (p *QoSAckPolicy) IsBlockAckReqNeeded(frames InProgressFrames, txop TxopProcedure) bool {
	_, ok := p.blockAckReqTarget(frames)
	return ok
}

// ComputeBlockAckReqParameters implements [OriginatorQoSAckPolicy].
func (p *QoSAckPolicy) ComputeBlockAckReqParameters(
	frames InProgressFrames, txop TxopProcedure) (net.HardwareAddr, uint16, uint8) {
	first, ok := p.blockAckReqTarget(frames)
	if !ok {
		fatalf("no block ack request is needed")
	}
	return first.ReceiverAddress(), first.SequenceNumber(), first.TID()
}

// blockAckReqTarget returns the oldest outstanding frame of the first
// receiver that needs a block-ack request.
func (p *QoSAckPolicy) blockAckReqTarget(frames InProgressFrames) (*Frame, bool) {
	outstanding := frames.OutstandingFrames()
	if len(outstanding) <= 0 {
		return nil, false
	}
	if frames.FrameToTransmit() == nil {
		return outstanding[0], true
	}
	counts := map[agreementKey]int{}
	for _, frame := range outstanding {
		key := agreementKey{frame.ReceiverAddress().String(), frame.TID()}
		counts[key]++
	}
	for _, frame := range outstanding {
		key := agreementKey{frame.ReceiverAddress().String(), frame.TID()}
		if counts[key] >= p.BlockAckReqThreshold {
			return frame, true
		}
	}
	return nil, false
}

// BlockAckProcedure builds block-ack request frames.
type BlockAckProcedure interface {
	BuildBlockAckReqFrame(receiver net.HardwareAddr, tid uint8, startingSeq uint16) *Frame
}

// BasicBlockAckProcedure builds basic block-ack requests transmitted from Address.
type BasicBlockAckProcedure struct {
	Address net.HardwareAddr
}

var _ BlockAckProcedure = &BasicBlockAckProcedure{}

// BuildBlockAckReqFrame implements [BlockAckProcedure].
func (p *BasicBlockAckProcedure) BuildBlockAckReqFrame(receiver net.HardwareAddr, tid uint8, startingSeq uint16) *Frame {
	return NewBlockAckReqFrame(receiver, p.Address, tid, startingSeq)
}
