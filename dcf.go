// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

// DcfFs is the frame-sequence grammar of the distributed coordination
// function (802.11-2012 Annex G.2):
//
//	dcf-frame-sequence =
//	  ( [ CTS ] ( Management + broadcast | Data + group ) ) |
//	  ( [ CTS | RTS CTS ] { frag-frame ACK } last-frame ACK )
type DcfFs struct {
	*AlternativesFs
}

var _ FrameSequence = &DcfFs{}

// NewDcfFs returns a new [*DcfFs].
func NewDcfFs() *DcfFs {
	return &DcfFs{NewAlternativesFs(selectDcfSequence,
		NewSequentialFs(
			NewOptionalFs(NewSelfCtsFs(), isSelfCtsNeeded),
			NewAlternativesFs(selectManagementOrDataSequence, NewManagementFs(), NewDataFs()),
		),
		NewSequentialFs(
			NewOptionalFs(
				NewAlternativesFs(selectSelfCtsOrRtsCts, NewSelfCtsFs(), NewRtsCtsFs()),
				isCtsOrRtsCtsNeeded,
			),
			NewRepeatingFs(NewFragFrameAckFs(), hasMoreFragments),
			NewLastFrameAckFs(),
		),
	)}
}

// selectDcfSequence picks the group-addressed branch (0) or the
// individually addressed exchange (1).
func selectDcfSequence(ctx *Context) int {
	frame := requireFrameToTransmit(ctx)
	switch {
	case frame.IsGroupAddressed():
		return 0
	case frame.IsDataOrManagement():
		return 1
	default:
		fatalf("cannot select a DCF sequence for %s", frame)
		return -1
	}
}

func selectManagementOrDataSequence(ctx *Context) int {
	frame := requireFrameToTransmit(ctx)
	switch frame.Kind() {
	case FrameKindManagement:
		return 0
	case FrameKindData:
		return 1
	default:
		fatalf("frame to transmit is neither management nor data: %s", frame)
		return -1
	}
}

// selectSelfCtsOrRtsCts picks RTS/CTS (1) since CTS-to-self is never needed.
func selectSelfCtsOrRtsCts(ctx *Context) int {
	if isSelfCtsNeeded(ctx) {
		return 0
	}
	return 1
}

// isSelfCtsNeeded is always false: CTS-to-self protection is not modeled.
func isSelfCtsNeeded(ctx *Context) bool {
	return false
}

func isCtsOrRtsCtsNeeded(ctx *Context) bool {
	return isSelfCtsNeeded(ctx) || isRtsCtsNeeded(ctx)
}

func isRtsCtsNeeded(ctx *Context) bool {
	return ctx.RtsPolicy.IsRtsNeeded(requireFrameToTransmit(ctx))
}

// hasMoreFragments returns whether the frame to transmit has the More
// Fragments flag set.
func hasMoreFragments(ctx *Context, count int) bool {
	frame := ctx.Frames.FrameToTransmit()
	return frame != nil && frame.MoreFragments()
}

func requireFrameToTransmit(ctx *Context) *Frame {
	frame := ctx.Frames.FrameToTransmit()
	if frame == nil {
		fatalf("no frame to transmit")
	}
	return frame
}
