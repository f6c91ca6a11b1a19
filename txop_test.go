// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTxopBudget(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := NewConfig()
	cfg.TimeNow = func() time.Time { return now }
	budget := NewTxopBudget(cfg, 3*time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, budget.Remaining())

	budget.Start()
	now = now.Add(time.Millisecond)
	assert.Equal(t, 2*time.Millisecond, budget.Remaining())

	now = now.Add(5 * time.Millisecond)
	assert.Equal(t, time.Duration(0), budget.Remaining())

	budget.Stop()
	assert.Equal(t, 3*time.Millisecond, budget.Remaining())
}
