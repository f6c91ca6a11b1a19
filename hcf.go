// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import "github.com/google/gopacket/layers"

// HcfFs is the frame-sequence grammar of the hybrid coordination
// function (802.11-2012 Annex G.3):
//
//	hcf-sequence =
//	  ( [ CTS ] 1{ ( Data + group [+ QoS] ) | Management + broadcast } ) |
//	  ( [ CTS ] 1{ txop-sequence } )
//
// The QoS context of the [*Context] must be set.
type HcfFs struct {
	*AlternativesFs
}

var _ FrameSequence = &HcfFs{}

// NewHcfFs returns a new [*HcfFs].
func NewHcfFs() *HcfFs {
	return &HcfFs{NewAlternativesFs(selectHcfSequence,
		NewSequentialFs(
			NewOptionalFs(NewSelfCtsFs(), isSelfCtsNeeded),
			NewRepeatingFs(
				NewAlternativesFs(selectManagementOrDataSequence, NewManagementFs(), NewDataFs()),
				isGroupAddressedSequenceNeeded,
			),
		),
		NewSequentialFs(
			NewOptionalFs(NewSelfCtsFs(), isSelfCtsNeeded),
			NewRepeatingFs(NewTxOpFs(), hasMoreTxOps),
		),
	)}
}

// selectHcfSequence picks the group-addressed branch (0) or the TXOP
// branch (1). Without a frame to transmit only outstanding frames remain,
// which are handled by the TXOP branch.
func selectHcfSequence(ctx *Context) int {
	frame := ctx.Frames.FrameToTransmit()
	if frame != nil && frame.IsGroupAddressed() {
		return 0
	}
	return 1
}

func isGroupAddressedSequenceNeeded(ctx *Context, count int) bool {
	frame := ctx.Frames.FrameToTransmit()
	return frame != nil && frame.IsGroupAddressed()
}

// hasMoreTxOps continues the TXOP while there is work left and either this
// is the first iteration or the next frame is individually addressed and
// the TXOP has budget left.
func hasMoreTxOps(ctx *Context, count int) bool {
	if !ctx.Frames.HasInProgressFrames() {
		return false
	}
	if count == 0 {
		return true
	}
	frame := ctx.Frames.FrameToTransmit()
	unicast := frame == nil || !frame.IsGroupAddressed()
	return unicast && requireQoS(ctx).TxopProcedure.Remaining() > 0
}

// TxOpFs is the grammar of a single exchange within a TXOP
// (802.11-2012 Annex G.4), restricted to the cases modeled here:
//
//	txop-sequence =
//	  ( [ RTS CTS ] Data + individual + QoS + block-ack-policy ) |
//	  ( [ RTS CTS ] { frag-frame ACK } last-frame ACK ) |
//	  ( [ RTS CTS ] Management + individual ACK ) |
//	  ( BlockAckReq BlockAck )
type TxOpFs struct {
	*AlternativesFs
}

var _ FrameSequence = &TxOpFs{}

// Branches of [TxOpFs].
const (
	txOpBlockAckPolicyData = 0
	txOpNormalAckData      = 1
	txOpManagement         = 2
	txOpBlockAckReq        = 3
)

// NewTxOpFs returns a new [*TxOpFs].
func NewTxOpFs() *TxOpFs {
	return &TxOpFs{NewAlternativesFs(selectTxOpSequence,
		NewSequentialFs(
			NewOptionalFs(NewRtsCtsFs(), isRtsCtsNeeded),
			NewDataFs(),
		),
		NewSequentialFs(
			NewOptionalFs(NewRtsCtsFs(), isRtsCtsNeeded),
			NewRepeatingFs(NewFragFrameAckFs(), hasMoreFragments),
			NewLastFrameAckFs(),
		),
		NewSequentialFs(
			NewOptionalFs(NewRtsCtsFs(), isRtsCtsNeeded),
			NewManagementAckFs(),
		),
		NewBlockAckReqBlockAckFs(),
	)}
}

// selectTxOpSequence picks, in order of precedence: the block-ack
// request branch when one is needed, the management branch, then the
// data branch matching the frame ack policy.
func selectTxOpSequence(ctx *Context) int {
	qos := requireQoS(ctx)
	if qos.AckPolicy.IsBlockAckReqNeeded(ctx.Frames, qos.TxopProcedure) {
		return txOpBlockAckReq
	}
	frame := requireFrameToTransmit(ctx)
	switch frame.Kind() {
	case FrameKindManagement:
		return txOpManagement
	case FrameKindData:
		switch policy := ComputeAckPolicy(ctx, frame); policy {
		case layers.Dot11AckPolicyBlock:
			return txOpBlockAckPolicyData
		case layers.Dot11AckPolicyNormal:
			return txOpNormalAckData
		default:
			fatalf("unsupported ack policy %v", policy)
			return -1
		}
	default:
		fatalf("cannot select a TXOP sequence for %s", frame)
		return -1
	}
}

// ComputeAckPolicy returns the ack policy of a data frame given the
// agreement for its (receiver, TID), if any. The MAC uses this to tell
// which transmitted frames await a block ack.
func ComputeAckPolicy(ctx *Context, frame *Frame) layers.Dot11AckPolicy {
	qos := requireQoS(ctx)
	var agreement *BlockAckAgreement
	if qos.BlockAckAgreements != nil {
		agreement = qos.BlockAckAgreements.Agreement(frame.ReceiverAddress(), frame.TID())
	}
	return qos.AckPolicy.ComputeAckPolicy(frame, agreement)
}
