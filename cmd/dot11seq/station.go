// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/binary"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/dot11seq"
	"github.com/bassosimone/dot11seq/lifetime"
	"github.com/google/gopacket/layers"
)

// result summarizes a scenario replay.
type result struct {
	Delivered int
	Dropped   int
	Failures  int
	Sequences int
	Elapsed   time.Duration
}

// msduKey identifies an MSDU across its fragments and retransmissions.
type msduKey struct {
	receiver string
	tid      uint8
	seq      uint16
}

func keyOf(frame *dot11seq.Frame) msduKey {
	return msduKey{frame.ReceiverAddress().String(), frame.TID(), frame.SequenceNumber()}
}

// station is a minimal originator MAC driving a [*dot11seq.FrameSequenceHandler].
//
// Channel access is a fixed DIFS without backoff. A failed frame is
// retried by starting a new sequence until the retry limit or its
// transmit lifetime is exceeded, in which case the MSDU is dropped.
type station struct {
	address     net.HardwareAddr
	agreements  *dot11seq.BlockAckAgreementTable
	cfg         *dot11seq.Config
	ctx         *dot11seq.Context
	function    string
	handler     *dot11seq.FrameSequenceHandler
	lifetimes   lifetime.Handler
	logger      *slog.Logger
	peer        *peer
	queue       *dot11seq.FrameQueue
	rateMbps    int
	retries     map[msduKey]int
	retryLimit  int
	sc          *scenario
	sim         *simulator
	transmitted map[msduKey]bool
	txop        *dot11seq.TxopBudget
	result      result

	// pendingResponse is the peer answer to the frame whose transmission
	// is completing, consumed by ScheduleStartRxTimer.
	pendingResponse *dot11seq.Frame

	// rxGeneration invalidates stale receive events.
	rxGeneration int
	awaiting     bool
}

var _ dot11seq.Callback = &station{}

func newStation(sc *scenario, sim *simulator, logger *slog.Logger) *station {
	cfg := dot11seq.NewConfig()
	cfg.TimeNow = sim.Now
	st := &station{
		address:     net.HardwareAddr(sc.Address),
		agreements:  dot11seq.NewBlockAckAgreementTable(),
		cfg:         cfg,
		function:    sc.Function,
		handler:     dot11seq.NewFrameSequenceHandler(cfg, logger),
		logger:      logger,
		peer:        newPeer(sc.Peer),
		queue:       dot11seq.NewFrameQueue(),
		rateMbps:    sc.RateMbps,
		retries:     map[msduKey]int{},
		retryLimit:  sc.RetryLimit,
		sc:          sc,
		sim:         sim,
		transmitted: map[msduKey]bool{},
		txop:        dot11seq.NewTxopBudget(cfg, sc.TxopLimit),
	}
	if sc.Function == functionHcf {
		st.lifetimes = lifetime.NewEdcaTransmitLifetimeHandler(cfg, map[lifetime.AccessCategory]time.Duration{
			lifetime.AccessCategoryBestEffort: sc.MaxLifetime,
			lifetime.AccessCategoryBackground: sc.MaxLifetime,
			lifetime.AccessCategoryVideo:      sc.MaxLifetime,
			lifetime.AccessCategoryVoice:      sc.MaxLifetime,
		})
	} else {
		st.lifetimes = lifetime.NewDcfTransmitLifetimeHandler(cfg, sc.MaxLifetime)
	}
	for _, spec := range sc.Agreements {
		st.agreements.Add(&dot11seq.BlockAckAgreement{
			Receiver:              net.HardwareAddr(spec.Peer),
			TID:                   spec.TID,
			BufferSize:            spec.BufferSize,
			AddbaResponseReceived: true,
		})
	}
	for _, frame := range sc.buildFrames() {
		st.queue.Push(frame)
		st.lifetimes.FrameGotInProgress(&frame.Header)
	}
	return st
}

// Start schedules the first channel access.
func (st *station) Start() {
	st.sim.Schedule(st.difs(), st.access)
}

func (st *station) difs() time.Duration {
	return st.cfg.Sifs + 2*st.cfg.SlotTime
}

// airtime returns the time it takes to transmit frame at the station rate.
func (st *station) airtime(frame *dot11seq.Frame) time.Duration {
	bits := int64(frame.Length()) * 8
	return time.Duration(bits) * time.Microsecond / time.Duration(st.rateMbps)
}

func (st *station) access() {
	if st.handler.IsSequenceRunning() || !st.queue.HasInProgressFrames() {
		return
	}
	st.result.Sequences++
	st.ctx = st.newContext()
	var fs dot11seq.FrameSequence = dot11seq.NewDcfFs()
	if st.function == functionHcf {
		st.txop.Start()
		fs = dot11seq.NewHcfFs()
	}
	st.handler.StartFrameSequence(fs, st.ctx, st)
}

func (st *station) newContext() *dot11seq.Context {
	ctx := dot11seq.NewContext(st.cfg, st.address, st.queue)
	ctx.RtsPolicy = dot11seq.NewThresholdRtsPolicy(st.cfg, st.sc.RtsThreshold)
	if st.function == functionHcf {
		policy := dot11seq.NewQoSAckPolicy(st.cfg)
		policy.BlockAckReqThreshold = st.sc.BlockAckReqThreshold
		ctx.QoS = &dot11seq.QoSContext{
			AckPolicy:          policy,
			TxopProcedure:      st.txop,
			BlockAckProcedure:  &dot11seq.BasicBlockAckProcedure{Address: st.address},
			BlockAckAgreements: st.agreements,
		}
	}
	return ctx
}

// TransmitFrame implements [dot11seq.Callback].
func (st *station) TransmitFrame(frame *dot11seq.Frame, ifs time.Duration) {
	if qos := frame.Header.QOS; qos != nil && st.ctx.QoS != nil {
		qos.AckPolicy = dot11seq.ComputeAckPolicy(st.ctx, frame)
	}
	st.sim.Schedule(ifs+st.airtime(frame), func() {
		st.pendingResponse = st.peer.Respond(frame)
		st.handler.TransmissionComplete()
		st.pendingResponse = nil
	})
}

// ScheduleStartRxTimer implements [dot11seq.Callback].
func (st *station) ScheduleStartRxTimer(timeout time.Duration) {
	st.rxGeneration++
	generation := st.rxGeneration
	st.awaiting = true
	if response := st.pendingResponse; response != nil {
		st.pendingResponse = nil
		st.sim.Schedule(st.cfg.Sifs, func() {
			if st.awaiting && st.rxGeneration == generation {
				st.awaiting = false
				st.handler.ProcessResponse(response)
			}
		})
	}
	st.sim.Schedule(timeout, func() {
		if st.awaiting && st.rxGeneration == generation {
			st.awaiting = false
			st.handler.HandleStartRxTimeout()
		}
	})
}

// OriginatorProcessTransmittedFrame implements [dot11seq.Callback].
func (st *station) OriginatorProcessTransmittedFrame(frame *dot11seq.Frame) {
	if !frame.IsDataOrManagement() {
		return
	}
	st.lifetimes.FrameTransmitted(&frame.Header)
	st.transmitted[keyOf(frame)] = true
	if frame.IsGroupAddressed() {
		st.queue.Drop(frame)
		st.delivered(frame)
		return
	}
	if qos := frame.Header.QOS; qos != nil && qos.AckPolicy == layers.Dot11AckPolicyBlock {
		st.queue.MarkOutstanding(frame)
		if agreement := st.agreements.Agreement(frame.ReceiverAddress(), frame.TID()); agreement != nil {
			agreement.SentBlockAckPolicyFrames++
		}
	}
}

// OriginatorProcessReceivedFrame implements [dot11seq.Callback].
func (st *station) OriginatorProcessReceivedFrame(received, lastTransmitted *dot11seq.Frame) {
	switch received.Kind() {
	case dot11seq.FrameKindAck:
		st.queue.Drop(lastTransmitted)
		if !lastTransmitted.MoreFragments() {
			st.delivered(lastTransmitted)
		}
	case dot11seq.FrameKindBlockAck:
		tid, ssn, _ := received.BlockAckInfo()
		ra := lastTransmitted.ReceiverAddress()
		released := st.queue.ReleaseOutstanding(ra, tid)
		for _, frame := range released {
			if st.acknowledged(received, ssn, frame) {
				st.delivered(frame)
				continue
			}
			key := keyOf(frame)
			st.retries[key]++
			if st.retries[key] > st.retryLimit {
				st.drop(frame, "retryLimitExceeded")
				continue
			}
			st.queue.Push(frame)
		}
		delete(st.retries, msduKey{ra.String(), tid, blockAckReqSeq})
		if agreement := st.agreements.Agreement(ra, tid); agreement != nil {
			agreement.SentBlockAckPolicyFrames = 0
		}
	}
}

// blockAckReqSeq is the retry key sequence number for block-ack requests.
const blockAckReqSeq = 0xffff

func (st *station) acknowledged(ba *dot11seq.Frame, ssn uint16, frame *dot11seq.Frame) bool {
	if len(ba.Payload) < 12 {
		return false
	}
	offset := (frame.SequenceNumber() - ssn) & 0x0fff
	if offset >= 64 {
		return false
	}
	return binary.LittleEndian.Uint64(ba.Payload[4:12])&(1<<offset) != 0
}

// OriginatorProcessFailedFrame implements [dot11seq.Callback].
func (st *station) OriginatorProcessFailedFrame(frame *dot11seq.Frame) {
	st.result.Failures++
	if frame.Kind() == dot11seq.FrameKindBlockAckReq {
		st.blockAckReqFailed(frame)
		return
	}
	st.retry(frame)
}

// OriginatorProcessRtsProtectionFailed implements [dot11seq.Callback].
func (st *station) OriginatorProcessRtsProtectionFailed(protected *dot11seq.Frame) {
	st.result.Failures++
	st.retry(protected)
}

// FrameSequenceFinished implements [dot11seq.Callback].
func (st *station) FrameSequenceFinished() {
	st.txop.Stop()
	st.ctx = nil
	st.sim.Schedule(st.difs(), st.access)
}

func (st *station) retry(frame *dot11seq.Frame) {
	key := keyOf(frame)
	st.retries[key]++
	switch {
	case st.transmitted[key] && st.lifetimes.IsLifetimeExpired(&frame.Header):
		st.drop(frame, "lifetimeExpired")
	case st.retries[key] > st.retryLimit:
		st.drop(frame, "retryLimitExceeded")
	}
}

func (st *station) blockAckReqFailed(bar *dot11seq.Frame) {
	tid, _, _ := bar.BlockAckInfo()
	ra := bar.ReceiverAddress()
	key := msduKey{ra.String(), tid, blockAckReqSeq}
	st.retries[key]++
	if st.retries[key] <= st.retryLimit {
		return
	}
	delete(st.retries, key)
	for _, frame := range st.queue.ReleaseOutstanding(ra, tid) {
		st.drop(frame, "blockAckReqFailed")
	}
}

// drop removes every pending fragment of the MSDU of frame.
func (st *station) drop(frame *dot11seq.Frame, reason string) {
	key := keyOf(frame)
	for next := st.queue.FrameToTransmit(); next != nil && keyOf(next) == key; next = st.queue.FrameToTransmit() {
		st.queue.Drop(next)
	}
	st.forget(frame)
	st.result.Dropped++
	st.logger.Info(
		"frameDropped",
		slog.String("frame", frame.String()),
		slog.String("reason", reason),
		slog.Int("retries", st.retries[key]),
		slog.Time("t", st.sim.Now()),
	)
	delete(st.retries, key)
}

func (st *station) delivered(frame *dot11seq.Frame) {
	st.forget(frame)
	delete(st.retries, keyOf(frame))
	st.result.Delivered++
	st.logger.Info(
		"frameDelivered",
		slog.String("frame", frame.String()),
		slog.Time("t", st.sim.Now()),
	)
}

func (st *station) forget(frame *dot11seq.Frame) {
	key := keyOf(frame)
	if st.transmitted[key] {
		st.lifetimes.Forget(&frame.Header)
		delete(st.transmitted, key)
	}
}
