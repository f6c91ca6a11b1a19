// SPDX-License-Identifier: GPL-3.0-or-later

package lifetime

import (
	"net"
	"testing"
	"time"

	"github.com/bassosimone/dot11seq"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
)

var (
	selfAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	peerAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

// newClock returns a config whose clock is controlled by the returned pointer.
func newClock() (*dot11seq.Config, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := dot11seq.NewConfig()
	cfg.TimeNow = func() time.Time { return now }
	return cfg, &now
}

func header(seq uint16) *layers.Dot11 {
	return &dot11seq.NewDataFrame(peerAddr, selfAddr, seq, nil).Header
}

func TestDcfTransmitLifetimeHandlerExpiry(t *testing.T) {
	const maxLifetime = 10 * time.Millisecond
	cfg, now := newClock()
	h := NewDcfTransmitLifetimeHandler(cfg, maxLifetime)
	start := *now

	h.FrameGotInProgress(header(7))
	h.FrameTransmitted(header(7))

	*now = start.Add(maxLifetime - time.Nanosecond)
	assert.False(t, h.IsLifetimeExpired(header(7)))

	*now = start.Add(maxLifetime)
	assert.True(t, h.IsLifetimeExpired(header(7)))
}

func TestDcfTransmitLifetimeHandlerUnknownFrame(t *testing.T) {
	cfg, _ := newClock()
	h := NewDcfTransmitLifetimeHandler(cfg, time.Millisecond)

	assert.PanicsWithError(t, "dot11seq: no transmission recorded for sequence number 3", func() {
		h.IsLifetimeExpired(header(3))
	})

	// queueing does not start the lifetime
	h.FrameGotInProgress(header(3))
	assert.Panics(t, func() { h.IsLifetimeExpired(header(3)) })
}

func TestDcfTransmitLifetimeHandlerFirstFragmentOnly(t *testing.T) {
	cfg, now := newClock()
	h := NewDcfTransmitLifetimeHandler(cfg, 10*time.Millisecond)
	start := *now

	// a later fragment alone does not start the lifetime
	later := header(5)
	later.FragmentNumber = 1
	h.FrameTransmitted(later)
	assert.Panics(t, func() { h.IsLifetimeExpired(later) })

	h.FrameTransmitted(header(5))

	// retransmissions do not restart the lifetime
	*now = start.Add(8 * time.Millisecond)
	h.FrameTransmitted(header(5))
	h.FrameTransmitted(later)

	*now = start.Add(10 * time.Millisecond)
	assert.True(t, h.IsLifetimeExpired(later))
}

func TestDcfTransmitLifetimeHandlerForget(t *testing.T) {
	cfg, _ := newClock()
	h := NewDcfTransmitLifetimeHandler(cfg, time.Millisecond)
	h.FrameTransmitted(header(1))
	h.Forget(header(1))
	assert.Panics(t, func() { h.IsLifetimeExpired(header(1)) })
}

func TestNewDcfTransmitLifetimeHandlerRequiresPositiveLifetime(t *testing.T) {
	cfg, _ := newClock()
	assert.Panics(t, func() { NewDcfTransmitLifetimeHandler(cfg, 0) })
}

func TestAccessCategoryOf(t *testing.T) {
	tests := []struct {
		tid  uint8
		want AccessCategory
	}{
		{0, AccessCategoryBestEffort},
		{1, AccessCategoryBackground},
		{2, AccessCategoryBackground},
		{3, AccessCategoryBestEffort},
		{4, AccessCategoryVideo},
		{5, AccessCategoryVideo},
		{6, AccessCategoryVoice},
		{7, AccessCategoryVoice},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			frame := dot11seq.NewQoSDataFrame(peerAddr, selfAddr, tt.tid, 1, nil)
			assert.Equal(t, tt.want, AccessCategoryOf(&frame.Header))
		})
	}
	assert.Equal(t, AccessCategoryBestEffort, AccessCategoryOf(header(1)))
}

func TestEdcaTransmitLifetimeHandler(t *testing.T) {
	cfg, now := newClock()
	h := NewEdcaTransmitLifetimeHandler(cfg, map[AccessCategory]time.Duration{
		AccessCategoryBestEffort: 10 * time.Millisecond,
		AccessCategoryBackground: 20 * time.Millisecond,
		AccessCategoryVideo:      5 * time.Millisecond,
		AccessCategoryVoice:      2 * time.Millisecond,
	})
	start := *now

	voice := &dot11seq.NewQoSDataFrame(peerAddr, selfAddr, 6, 1, nil).Header
	video := &dot11seq.NewQoSDataFrame(peerAddr, selfAddr, 4, 1, nil).Header
	h.FrameGotInProgress(voice)
	h.FrameTransmitted(voice)
	h.FrameTransmitted(video)

	*now = start.Add(3 * time.Millisecond)
	assert.True(t, h.IsLifetimeExpired(voice))
	assert.False(t, h.IsLifetimeExpired(video))

	// same sequence number, different access category
	background := &dot11seq.NewQoSDataFrame(peerAddr, selfAddr, 1, 1, nil).Header
	assert.Panics(t, func() { h.IsLifetimeExpired(background) })

	h.Forget(voice)
	assert.Panics(t, func() { h.IsLifetimeExpired(voice) })
	assert.False(t, h.IsLifetimeExpired(video))
}

func TestNewEdcaTransmitLifetimeHandlerRequiresAllCategories(t *testing.T) {
	cfg, _ := newClock()
	assert.Panics(t, func() {
		NewEdcaTransmitLifetimeHandler(cfg, map[AccessCategory]time.Duration{
			AccessCategoryBestEffort: time.Millisecond,
		})
	})
}
