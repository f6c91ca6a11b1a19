// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respond prepares the next step, records it and, for receive steps,
// fills in the given response before completing it.
func respond(t *testing.T, fs FrameSequence, ctx *Context, response *Frame) (Step, bool) {
	step := fs.PrepareStep(ctx)
	require.NotNil(t, step)
	ctx.AddStep(step)
	if rx, ok := step.(*ReceiveStep); ok {
		rx.ReceivedFrame = response
	}
	return step, fs.CompleteStep(ctx)
}

func TestPrimitiveExchanges(t *testing.T) {
	tests := []struct {
		name        string
		fs          FrameSequence
		frame       *Frame
		response    *Frame
		wantTx      FrameKind
		wantHistory string
	}{
		{"ManagementAckFs", NewManagementAckFs(), newBeaconFrame(1), NewAckFrame(selfAddr), FrameKindManagement, "MGMT ACK"},
		{"RtsCtsFs", NewRtsCtsFs(), newLargeDataFrame(1), NewCtsFrame(selfAddr, 0), FrameKindRTS, "RTS CTS"},
		{"FragFrameAckFs", NewFragFrameAckFs(), newSmallDataFrame(1).Fragment(0, true), NewAckFrame(selfAddr), FrameKindData, "FRAG ACK"},
		{"LastFrameAckFs", NewLastFrameAckFs(), newSmallDataFrame(1), NewAckFrame(selfAddr), FrameKindData, "LAST ACK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(tt.frame)
			tt.fs.StartSequence(ctx, 0)
			assert.Equal(t, "", tt.fs.History())

			step, ok := respond(t, tt.fs, ctx, nil)
			require.True(t, ok)
			tx, isTx := step.(*TransmitStep)
			require.True(t, isTx)
			assert.Equal(t, tt.wantTx, tx.Frame.Kind())
			assert.Equal(t, DefaultSifs, tx.Ifs)

			step, ok = respond(t, tt.fs, ctx, tt.response)
			require.True(t, ok)
			rx, isRx := step.(*ReceiveStep)
			require.True(t, isRx)
			assert.Equal(t, 50*time.Microsecond, rx.Timeout)

			assert.Nil(t, tt.fs.PrepareStep(ctx))
			assert.Equal(t, tt.wantHistory, tt.fs.History())
			assert.PanicsWithError(t, "dot11seq: primitive frame sequence completed after exhaustion", func() {
				tt.fs.CompleteStep(ctx)
			})
		})
	}
}

func TestPrimitiveRejectsUnexpectedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response *Frame
	}{
		{"no frame", nil},
		{"wrong kind", NewCtsFrame(selfAddr, 0)},
		{"not for us", NewAckFrame(otherAddr)},
		{"our own group frame", NewDataFrame(groupAddr, selfAddr, 1, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(newSmallDataFrame(1))
			fs := NewLastFrameAckFs()
			fs.StartSequence(ctx, 0)
			_, ok := respond(t, fs, ctx, nil)
			require.True(t, ok)
			_, ok = respond(t, fs, ctx, tt.response)
			assert.False(t, ok)
		})
	}
}

func TestTransmitOnlyPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		fs    FrameSequence
		frame *Frame
		want  FrameKind
	}{
		{"DataFs", NewDataFs(), NewDataFrame(groupAddr, selfAddr, 1, nil), FrameKindData},
		{"ManagementFs", NewManagementFs(), newBeaconFrame(1), FrameKindManagement},
		{"RtsFs", NewRtsFs(), newLargeDataFrame(1), FrameKindRTS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(tt.frame)
			tt.fs.StartSequence(ctx, 0)
			step, ok := respond(t, tt.fs, ctx, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, step.(*TransmitStep).Frame.Kind())
			assert.Nil(t, tt.fs.PrepareStep(ctx))
			assert.Equal(t, tt.want.String(), tt.fs.History())
		})
	}
}

func TestReceiveOnlyPrimitives(t *testing.T) {
	t.Run("RtsFs then CtsFs", func(t *testing.T) {
		ctx, _ := newTestContext(newLargeDataFrame(1))
		fs := NewSequentialFs(NewRtsFs(), NewCtsFs())
		fs.StartSequence(ctx, 0)
		_, ok := respond(t, fs, ctx, nil)
		require.True(t, ok)
		_, ok = respond(t, fs, ctx, NewCtsFrame(selfAddr, 0))
		require.True(t, ok)
		assert.Nil(t, fs.PrepareStep(ctx))
		assert.Equal(t, "RTS CTS", fs.History())
	})

	t.Run("DataFs then AckFs", func(t *testing.T) {
		ctx, _ := newTestContext(newSmallDataFrame(1))
		fs := NewSequentialFs(NewDataFs(), NewAckFs())
		fs.StartSequence(ctx, 0)
		_, ok := respond(t, fs, ctx, nil)
		require.True(t, ok)
		_, ok = respond(t, fs, ctx, NewAckFrame(selfAddr))
		require.True(t, ok)
		assert.Equal(t, "DATA ACK", fs.History())
	})

	t.Run("without a preceding transmit step", func(t *testing.T) {
		ctx, _ := newTestContext(newSmallDataFrame(1))
		fs := NewAckFs()
		fs.StartSequence(ctx, 0)
		assert.Panics(t, func() { fs.PrepareStep(ctx) })
	})
}

func TestBlockAckReqBlockAckFs(t *testing.T) {
	data := NewQoSDataFrame(peerAddr, selfAddr, 3, 42, []byte("x"))
	ctx, queue, _ := newTestQoSContext(data)
	queue.MarkOutstanding(data)

	fs := NewBlockAckReqBlockAckFs()
	fs.StartSequence(ctx, 0)
	step, ok := respond(t, fs, ctx, nil)
	require.True(t, ok)
	bar := step.(*TransmitStep).Frame
	assert.Equal(t, FrameKindBlockAckReq, bar.Kind())
	tid, ssn, ok := bar.BlockAckInfo()
	require.True(t, ok)
	assert.Equal(t, uint8(3), tid)
	assert.Equal(t, uint16(42), ssn)

	_, ok = respond(t, fs, ctx, NewBlockAckFrame(selfAddr, peerAddr, 3, 42, 1))
	assert.True(t, ok)
	assert.Equal(t, "BAR BA", fs.History())
}

func TestSelfCtsFs(t *testing.T) {
	ctx, _ := newTestContext(newSmallDataFrame(1))
	fs := NewSelfCtsFs()
	fs.StartSequence(ctx, 0)
	assert.Nil(t, fs.PrepareStep(ctx))
	assert.False(t, fs.CompleteStep(ctx))
	assert.Equal(t, "", fs.History())
}

func TestUnimplementedFs(t *testing.T) {
	for _, fs := range []FrameSequence{NewPcfFs(), NewMcfFs(), NewHtTxOpFs()} {
		ctx, _ := newTestContext(newSmallDataFrame(1))
		assert.Panics(t, func() { fs.StartSequence(ctx, 0) })
		assert.Panics(t, func() { fs.PrepareStep(ctx) })
		assert.Panics(t, func() { fs.CompleteStep(ctx) })
		assert.Equal(t, "", fs.History())
	}
}
