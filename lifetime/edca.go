// SPDX-License-Identifier: GPL-3.0-or-later

package lifetime

import (
	"time"

	"github.com/bassosimone/dot11seq"
	"github.com/google/gopacket/layers"
)

// AccessCategory is an EDCA access category.
type AccessCategory int

const (
	// AccessCategoryBestEffort is AC_BE (TIDs 0 and 3, and non-QoS frames).
	AccessCategoryBestEffort AccessCategory = iota

	// AccessCategoryBackground is AC_BK (TIDs 1 and 2).
	AccessCategoryBackground

	// AccessCategoryVideo is AC_VI (TIDs 4 and 5).
	AccessCategoryVideo

	// AccessCategoryVoice is AC_VO (TIDs 6 and 7).
	AccessCategoryVoice
)

// String implements [fmt.Stringer].
func (ac AccessCategory) String() string {
	switch ac {
	case AccessCategoryBackground:
		return "AC_BK"
	case AccessCategoryVideo:
		return "AC_VI"
	case AccessCategoryVoice:
		return "AC_VO"
	default:
		return "AC_BE"
	}
}

// AccessCategoryOf maps the TID of a QoS frame to its access category
// using the 802.1D user priority mapping. Non-QoS frames are best effort.
func AccessCategoryOf(header *layers.Dot11) AccessCategory {
	if header.QOS == nil {
		return AccessCategoryBestEffort
	}
	switch header.QOS.TID & 0x07 {
	case 1, 2:
		return AccessCategoryBackground
	case 4, 5:
		return AccessCategoryVideo
	case 6, 7:
		return AccessCategoryVoice
	default:
		return AccessCategoryBestEffort
	}
}

// NewEdcaTransmitLifetimeHandler returns a new [*EdcaTransmitLifetimeHandler].
//
// The maxLifetimes argument maps each access category to its maximum
// lifetime. Every access category must be present.
func NewEdcaTransmitLifetimeHandler(
	cfg *dot11seq.Config, maxLifetimes map[AccessCategory]time.Duration) *EdcaTransmitLifetimeHandler {
	handlers := map[AccessCategory]*DcfTransmitLifetimeHandler{}
	for _, ac := range []AccessCategory{
		AccessCategoryBestEffort,
		AccessCategoryBackground,
		AccessCategoryVideo,
		AccessCategoryVoice,
	} {
		handlers[ac] = NewDcfTransmitLifetimeHandler(cfg, maxLifetimes[ac])
	}
	return &EdcaTransmitLifetimeHandler{handlers: handlers}
}

// EdcaTransmitLifetimeHandler tracks lifetimes per access category.
//
// Sequence numbers are independent across access categories, hence
// one [*DcfTransmitLifetimeHandler] per category.
type EdcaTransmitLifetimeHandler struct {
	handlers map[AccessCategory]*DcfTransmitLifetimeHandler
}

var _ Handler = &EdcaTransmitLifetimeHandler{}

func (h *EdcaTransmitLifetimeHandler) handler(header *layers.Dot11) *DcfTransmitLifetimeHandler {
	return h.handlers[AccessCategoryOf(header)]
}

// FrameGotInProgress implements [Handler].
func (h *EdcaTransmitLifetimeHandler) FrameGotInProgress(header *layers.Dot11) {
	h.handler(header).FrameGotInProgress(header)
}

// FrameTransmitted implements [Handler].
func (h *EdcaTransmitLifetimeHandler) FrameTransmitted(header *layers.Dot11) {
	h.handler(header).FrameTransmitted(header)
}

// IsLifetimeExpired implements [Handler].
func (h *EdcaTransmitLifetimeHandler) IsLifetimeExpired(header *layers.Dot11) bool {
	return h.handler(header).IsLifetimeExpired(header)
}

// Forget implements [Handler].
func (h *EdcaTransmitLifetimeHandler) Forget(header *layers.Dot11) {
	h.handler(header).Forget(header)
}
