// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"container/heap"
	"context"
	"time"
)

// simulator is a single-threaded discrete-event loop with a virtual clock.
type simulator struct {
	events eventHeap
	now    time.Time
	serial uint64
}

func newSimulator() *simulator {
	return &simulator{now: time.Unix(0, 0).UTC()}
}

// Now returns the virtual time.
func (s *simulator) Now() time.Time {
	return s.now
}

// Schedule runs fn after delay of virtual time. Events scheduled for the
// same instant run in scheduling order.
func (s *simulator) Schedule(delay time.Duration, fn func()) {
	s.serial++
	heap.Push(&s.events, &event{at: s.now.Add(delay), serial: s.serial, fn: fn})
}

// Run executes events until none is left or ctx is done.
func (s *simulator) Run(ctx context.Context) error {
	for s.events.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := heap.Pop(&s.events).(*event)
		s.now = ev.at
		ev.fn()
	}
	return nil
}

type event struct {
	at     time.Time
	serial uint64
	fn     func()
}

type eventHeap []*event

var _ heap.Interface = &eventHeap{}

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].serial < h[j].serial
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
