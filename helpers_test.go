// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/slogstub"
	"github.com/google/gopacket/layers"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordAttrs returns the attributes of a record as a map.
func recordAttrs(record slog.Record) map[string]slog.Value {
	attrs := map[string]slog.Value{}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value
		return true
	})
	return attrs
}

// recordMessages returns the messages of the captured records.
func recordMessages(records []slog.Record) []string {
	var messages []string
	for _, record := range records {
		messages = append(messages, record.Message)
	}
	return messages
}

var (
	selfAddr  = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	peerAddr  = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	otherAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x03}
	groupAddr = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// newTestConfig returns a [*Config] whose clock never moves.
func newTestConfig() *Config {
	cfg := NewConfig()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.TimeNow = func() time.Time { return now }
	return cfg
}

// newTestContext returns a DCF [*Context] for selfAddr over the given frames.
func newTestContext(frames ...*Frame) (*Context, *FrameQueue) {
	queue := NewFrameQueue(frames...)
	return NewContext(newTestConfig(), selfAddr, queue), queue
}

// newTestQoSContext returns an HCF [*Context] for selfAddr over the given
// frames with the default QoS collaborators and an empty agreement table.
func newTestQoSContext(frames ...*Frame) (*Context, *FrameQueue, *BlockAckAgreementTable) {
	cfg := newTestConfig()
	queue := NewFrameQueue(frames...)
	table := NewBlockAckAgreementTable()
	ctx := NewContext(cfg, selfAddr, queue)
	ctx.QoS = &QoSContext{
		AckPolicy:          NewQoSAckPolicy(cfg),
		TxopProcedure:      NewTxopBudget(cfg, time.Millisecond),
		BlockAckProcedure:  &BasicBlockAckProcedure{Address: selfAddr},
		BlockAckAgreements: table,
	}
	return ctx, queue, table
}

// newLargeDataFrame returns a unicast data frame above the RTS threshold.
func newLargeDataFrame(seq uint16) *Frame {
	return NewDataFrame(peerAddr, selfAddr, seq, make([]byte, DefaultRtsThreshold+1))
}

func newSmallDataFrame(seq uint16) *Frame {
	return NewDataFrame(peerAddr, selfAddr, seq, []byte("hello"))
}

func newBeaconFrame(seq uint16) *Frame {
	return NewManagementFrame(layers.Dot11TypeMgmtBeacon, groupAddr, selfAddr, seq, nil)
}

// recordingCallback is a [Callback] that records every notification as
// a short event string and updates the queue like a minimal MAC would:
// acknowledged and group-addressed frames are dropped, frames sent under
// the block-ack policy become outstanding, and a block ack releases them.
type recordingCallback struct {
	// ctx is consulted for the ack policy of transmitted QoS frames.
	ctx *Context

	// queue is updated as frames complete, if not nil.
	queue *FrameQueue

	// onFinished is invoked from FrameSequenceFinished, if not nil.
	onFinished func()

	events []string
	failed []*Frame
}

var _ Callback = &recordingCallback{}

func (c *recordingCallback) TransmitFrame(frame *Frame, ifs time.Duration) {
	c.events = append(c.events, "tx "+frame.Kind().String())
}

func (c *recordingCallback) ScheduleStartRxTimer(timeout time.Duration) {
	c.events = append(c.events, fmt.Sprintf("rxTimer %s", timeout))
}

func (c *recordingCallback) OriginatorProcessRtsProtectionFailed(protected *Frame) {
	c.events = append(c.events, "rtsFailed "+protected.Kind().String())
	c.failed = append(c.failed, protected)
}

func (c *recordingCallback) OriginatorProcessTransmittedFrame(frame *Frame) {
	c.events = append(c.events, "transmitted "+frame.Kind().String())
	if c.queue == nil || !frame.IsDataOrManagement() {
		return
	}
	if frame.IsGroupAddressed() {
		c.queue.Drop(frame)
		return
	}
	if c.ctx != nil && c.ctx.QoS != nil && frame.Kind() == FrameKindData &&
		ComputeAckPolicy(c.ctx, frame) == layers.Dot11AckPolicyBlock {
		c.queue.MarkOutstanding(frame)
	}
}

func (c *recordingCallback) OriginatorProcessReceivedFrame(received, lastTransmitted *Frame) {
	c.events = append(c.events, "received "+received.Kind().String())
	if c.queue == nil {
		return
	}
	switch received.Kind() {
	case FrameKindAck:
		c.queue.Drop(lastTransmitted)
	case FrameKindBlockAck:
		tid, _, _ := lastTransmitted.BlockAckInfo()
		c.queue.ReleaseOutstanding(lastTransmitted.ReceiverAddress(), tid)
	}
}

func (c *recordingCallback) OriginatorProcessFailedFrame(frame *Frame) {
	c.events = append(c.events, "failed "+frame.Kind().String())
	c.failed = append(c.failed, frame)
}

func (c *recordingCallback) FrameSequenceFinished() {
	c.events = append(c.events, "finished")
	if c.onFinished != nil {
		c.onFinished()
	}
}

// count returns how many recorded events equal event.
func (c *recordingCallback) count(event string) int {
	var n int
	for _, entry := range c.events {
		if entry == event {
			n++
		}
	}
	return n
}

// stubFs is a [FrameSequence] that replays a fixed list of steps and
// returns the configured completion results in order.
type stubFs struct {
	steps     []Step
	results   []bool
	started   int
	prepared  int
	completed int
}

var _ FrameSequence = &stubFs{}

func (fs *stubFs) StartSequence(ctx *Context, firstStep int) {
	fs.started++
	fs.prepared = 0
	fs.completed = 0
}

func (fs *stubFs) PrepareStep(ctx *Context) Step {
	if fs.prepared >= len(fs.steps) {
		return nil
	}
	step := fs.steps[fs.prepared]
	fs.prepared++
	return step
}

func (fs *stubFs) CompleteStep(ctx *Context) bool {
	result := true
	if fs.completed < len(fs.results) {
		result = fs.results[fs.completed]
	}
	fs.completed++
	return result
}

func (fs *stubFs) History() string {
	return fmt.Sprintf("stub%d", fs.completed)
}
