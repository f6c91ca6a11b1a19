// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	// ErrClassifier should be DefaultErrClassifier
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, ErrClassRejected, cfg.ErrClassifier.Classify(ErrStepRejected))

	assert.Equal(t, DefaultSifs, cfg.Sifs)
	assert.Equal(t, DefaultSlotTime, cfg.SlotTime)
	assert.Equal(t, DefaultPhyRxStartDelay, cfg.PhyRxStartDelay)

	// TimeNow should be set and return a valid time
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}

func TestConfigResponseTimeout(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 50*time.Microsecond, cfg.ResponseTimeout())

	cfg.SlotTime = 20 * time.Microsecond
	assert.Equal(t, 61*time.Microsecond, cfg.ResponseTimeout())
}
