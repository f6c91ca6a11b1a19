// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThresholdRtsPolicy(t *testing.T) {
	policy := NewThresholdRtsPolicy(NewConfig(), DefaultRtsThreshold)

	tests := []struct {
		name  string
		frame *Frame
		want  bool
	}{
		{"small unicast data", newSmallDataFrame(1), false},
		{"large unicast data", newLargeDataFrame(1), true},
		{"large group data", NewDataFrame(groupAddr, selfAddr, 1, make([]byte, 3000)), false},
		{"control frame", NewAckFrame(peerAddr), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsRtsNeeded(tt.frame))
		})
	}

	assert.Equal(t, 50*time.Microsecond, policy.CtsTimeout(NewRtsFrame(peerAddr, selfAddr, 0)))

	policy.Threshold = 0
	assert.True(t, policy.IsRtsNeeded(newSmallDataFrame(1)))
}

func TestBasicRtsProcedure(t *testing.T) {
	protected := newLargeDataFrame(1)

	procedure := &BasicRtsProcedure{Address: selfAddr}
	rts := procedure.BuildRtsFrame(protected)
	assert.Equal(t, FrameKindRTS, rts.Kind())
	assert.Equal(t, peerAddr, rts.ReceiverAddress())
	assert.Equal(t, selfAddr, rts.TransmitterAddress())
	assert.Equal(t, uint16(0), rts.Header.DurationID)

	procedure.Duration = func(*Frame) uint16 { return 314 }
	assert.Equal(t, uint16(314), procedure.BuildRtsFrame(protected).Header.DurationID)
}

func TestFixedAckPolicy(t *testing.T) {
	cfg := NewConfig()
	cfg.Sifs = 10 * time.Microsecond
	policy := NewFixedAckPolicy(cfg)
	assert.Equal(t, 44*time.Microsecond, policy.AckTimeout(newSmallDataFrame(1)))
}

func TestContextTimeouts(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.AckPolicy = &FixedAckPolicy{Timeout: time.Millisecond}
	assert.Equal(t, time.Millisecond, ctx.AckTimeout(newSmallDataFrame(1)))

	ctx.QoS = &QoSContext{AckPolicy: &QoSAckPolicy{NormalAckWait: 2 * time.Millisecond}}
	assert.Equal(t, 2*time.Millisecond, ctx.AckTimeout(newSmallDataFrame(1)))

	assert.Equal(t, 50*time.Microsecond, ctx.CtsTimeout(NewRtsFrame(peerAddr, selfAddr, 0)))
	assert.Equal(t, DefaultSifs, ctx.Ifs())
}
