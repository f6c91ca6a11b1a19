// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import "time"

// TxopProcedure tracks the transmission opportunity of an access category.
type TxopProcedure interface {
	// Remaining returns the time left in the current TXOP.
	Remaining() time.Duration
}

// NewTxopBudget returns a [*TxopBudget] with the given TXOP limit.
func NewTxopBudget(cfg *Config, limit time.Duration) *TxopBudget {
	return &TxopBudget{Limit: limit, TimeNow: cfg.TimeNow}
}

// TxopBudget is a [TxopProcedure] bounded by a TXOP limit.
//
// A zero limit allows a single frame exchange per TXOP.
type TxopBudget struct {
	// Limit is the TXOP limit.
	Limit time.Duration

	// TimeNow returns the current (simulated) time.
	TimeNow func() time.Time

	start   time.Time
	started bool
}

var _ TxopProcedure = &TxopBudget{}

// Start marks the beginning of a TXOP.
func (t *TxopBudget) Start() {
	t.start = t.TimeNow()
	t.started = true
}

// Stop marks the end of the TXOP.
func (t *TxopBudget) Stop() {
	t.started = false
}

// Remaining implements [TxopProcedure].
func (t *TxopBudget) Remaining() time.Duration {
	if !t.started {
		return t.Limit
	}
	return max(0, t.Limit-t.TimeNow().Sub(t.start))
}
