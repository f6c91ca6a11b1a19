// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import "net"

// NewFrameQueue returns a [*FrameQueue] holding the given frames in order.
func NewFrameQueue(frames ...*Frame) *FrameQueue {
	return &FrameQueue{pending: append([]*Frame{}, frames...)}
}

// FrameQueue is a FIFO [InProgressFrames] implementation.
//
// Frames are pending until the MAC drops them (acknowledged, delivered to
// a group, or given up) or marks them outstanding (transmitted under the
// block-ack policy). Outstanding frames are released by a block ack.
type FrameQueue struct {
	pending     []*Frame
	outstanding []*Frame
}

var _ InProgressFrames = &FrameQueue{}

// Push appends frames to the queue.
func (q *FrameQueue) Push(frames ...*Frame) {
	q.pending = append(q.pending, frames...)
}

// Len returns the number of pending frames.
func (q *FrameQueue) Len() int {
	return len(q.pending)
}

// HasInProgressFrames implements [InProgressFrames].
func (q *FrameQueue) HasInProgressFrames() bool {
	return len(q.pending) > 0 || len(q.outstanding) > 0
}

// FrameToTransmit implements [InProgressFrames].
func (q *FrameQueue) FrameToTransmit() *Frame {
	if len(q.pending) <= 0 {
		return nil
	}
	return q.pending[0]
}

// OutstandingFrames implements [InProgressFrames].
func (q *FrameQueue) OutstandingFrames() []*Frame {
	return q.outstanding
}

// Drop removes a pending frame and returns whether it was found.
func (q *FrameQueue) Drop(frame *Frame) bool {
	var found bool
	q.pending, found = removeFrame(q.pending, frame)
	return found
}

// MarkOutstanding moves a pending frame to the outstanding set.
func (q *FrameQueue) MarkOutstanding(frame *Frame) {
	var found bool
	if q.pending, found = removeFrame(q.pending, frame); found {
		q.outstanding = append(q.outstanding, frame)
	}
}

// ReleaseOutstanding removes and returns the outstanding frames for the
// given (receiver, TID) pair.
func (q *FrameQueue) ReleaseOutstanding(receiver net.HardwareAddr, tid uint8) []*Frame {
	var released, kept []*Frame
	for _, frame := range q.outstanding {
		if sameAddress(frame.ReceiverAddress(), receiver) && frame.TID() == tid {
			released = append(released, frame)
			continue
		}
		kept = append(kept, frame)
	}
	q.outstanding = kept
	return released
}

func removeFrame(frames []*Frame, frame *Frame) ([]*Frame, bool) {
	for idx, entry := range frames {
		if entry == frame {
			return append(frames[:idx:idx], frames[idx+1:]...), true
		}
	}
	return frames, false
}
