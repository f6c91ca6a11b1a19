// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bassosimone/runtimex"
)

// Callback is implemented by the MAC driving a [*FrameSequenceHandler].
//
// The handler calls exactly one of TransmitFrame or ScheduleStartRxTimer
// per step. The handler never blocks: the MAC reports the outcome of a
// step later through [*FrameSequenceHandler.TransmissionComplete],
// [*FrameSequenceHandler.ProcessResponse] or
// [*FrameSequenceHandler.HandleStartRxTimeout].
type Callback interface {
	// TransmitFrame hands the frame to the PHY after the given IFS.
	TransmitFrame(frame *Frame, ifs time.Duration)

	// ScheduleStartRxTimer arms the receive window timer.
	ScheduleStartRxTimer(timeout time.Duration)

	// OriginatorProcessRtsProtectionFailed reports that the RTS/CTS
	// exchange protecting the given frame failed.
	OriginatorProcessRtsProtectionFailed(protected *Frame)

	// OriginatorProcessTransmittedFrame reports an accepted transmit step.
	OriginatorProcessTransmittedFrame(frame *Frame)

	// OriginatorProcessReceivedFrame reports an accepted receive step
	// along with the frame transmitted in the step before.
	OriginatorProcessReceivedFrame(received, lastTransmitted *Frame)

	// OriginatorProcessFailedFrame reports that the exchange of a data,
	// management or block-ack request frame failed.
	OriginatorProcessFailedFrame(frame *Frame)

	// FrameSequenceFinished reports that the handler is idle again.
	FrameSequenceFinished()
}

// NewFrameSequenceHandler returns a new idle [*FrameSequenceHandler].
//
// The cfg argument contains the common configuration for dot11seq operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewFrameSequenceHandler(cfg *Config, logger SLogger) *FrameSequenceHandler {
	return &FrameSequenceHandler{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// FrameSequenceHandler runs one [FrameSequence] at a time on behalf of a MAC.
//
// The handler is either idle or running. Failures are reported once
// through the [Callback] and are never retried: retrying means starting
// a new sequence with a fresh [*Context].
//
// The handler is not safe for concurrent use and its methods must not be
// called from within [Callback] methods, except that a new sequence may be
// started from FrameSequenceFinished.
type FrameSequenceHandler struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewFrameSequenceHandler] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewFrameSequenceHandler] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewFrameSequenceHandler] from [Config.TimeNow].
	TimeNow func() time.Time

	callback Callback
	context  *Context
	name     string
	sequence FrameSequence
	spanID   string
	t0       time.Time
}

// IsSequenceRunning returns whether a sequence is running.
func (h *FrameSequenceHandler) IsSequenceRunning() bool {
	return h.sequence != nil
}

// StartFrameSequence starts running the given sequence.
//
// Panics with [*FatalError] if a sequence is already running.
func (h *FrameSequenceHandler) StartFrameSequence(sequence FrameSequence, ctx *Context, callback Callback) {
	runtimex.Assert(sequence != nil && ctx != nil && callback != nil)
	if h.IsSequenceRunning() {
		fatalf("a frame sequence is already running")
	}
	h.callback = callback
	h.context = ctx
	h.name = sequenceName(sequence)
	h.sequence = sequence
	h.spanID = NewSpanID()
	h.t0 = h.TimeNow()
	h.logStart()
	sequence.StartSequence(ctx, 0)
	h.startFrameSequenceStep()
}

// TransmissionComplete is called when the frame of a transmit step left
// the air. It is a no-op while idle.
func (h *FrameSequenceHandler) TransmissionComplete() {
	if !h.IsSequenceRunning() {
		return
	}
	if h.finishFrameSequenceStep() {
		h.startFrameSequenceStep()
	}
}

// ProcessResponse is called when a frame is received during a receive
// step. It is a no-op while idle.
//
// Panics with [*FatalError] if the last step is not a receive step.
func (h *FrameSequenceHandler) ProcessResponse(frame *Frame) {
	if !h.IsSequenceRunning() {
		return
	}
	step, ok := h.context.LastStep().(*ReceiveStep)
	if !ok {
		fatalf("received a response while the last step is not a receive step")
	}
	step.ReceivedFrame = frame
	if h.finishFrameSequenceStep() {
		h.startFrameSequenceStep()
	}
}

// HandleStartRxTimeout is called when the receive window elapses and
// aborts the running sequence.
//
// Panics with [*FatalError] if idle or if the last step is not a receive step.
func (h *FrameSequenceHandler) HandleStartRxTimeout() {
	if !h.IsSequenceRunning() {
		fatalf("receive timeout while no frame sequence is running")
	}
	step, ok := h.context.LastStep().(*ReceiveStep)
	if !ok {
		fatalf("receive timeout while the last step is not a receive step")
	}
	step.setCompletion(CompletionExpired)
	h.logStepDone(step)
	h.abortFrameSequence(ErrRxTimeout)
}

func (h *FrameSequenceHandler) startFrameSequenceStep() {
	next := h.sequence.PrepareStep(h.context)
	if next == nil {
		h.finishFrameSequence(nil)
		return
	}
	h.context.AddStep(next)
	h.logStep(next)
	switch step := next.(type) {
	case *TransmitStep:
		h.callback.TransmitFrame(step.Frame, step.Ifs)
	case *ReceiveStep:
		h.callback.ScheduleStartRxTimer(step.Timeout)
	default:
		fatalf("unknown step type %T", next)
	}
}

// finishFrameSequenceStep completes the last step and returns whether the
// run continues. It returns false after an abort, in which case the MAC
// may already have started another sequence from FrameSequenceFinished.
func (h *FrameSequenceHandler) finishFrameSequenceStep() bool {
	last := h.context.LastStep()
	if !h.sequence.CompleteStep(h.context) {
		last.setCompletion(CompletionRejected)
		h.logStepDone(last)
		h.abortFrameSequence(ErrStepRejected)
		return false
	}
	last.setCompletion(CompletionAccepted)
	h.logStepDone(last)
	switch step := last.(type) {
	case *TransmitStep:
		h.callback.OriginatorProcessTransmittedFrame(step.Frame)
	case *ReceiveStep:
		transmitted, ok := h.context.StepBeforeLast().(*TransmitStep)
		if !ok {
			fatalf("receive step not preceded by a transmit step")
		}
		h.callback.OriginatorProcessReceivedFrame(step.ReceivedFrame, transmitted.Frame)
	default:
		fatalf("unknown step type %T", last)
	}
	return true
}

// abortFrameSequence reports the failed transmit step (the last step, or
// the one before a failed receive step) and returns to idle.
func (h *FrameSequenceHandler) abortFrameSequence(err error) {
	failed := h.context.LastStep()
	if _, ok := failed.(*ReceiveStep); ok {
		failed = h.context.StepBeforeLast()
	}
	txStep, ok := failed.(*TransmitStep)
	if !ok {
		fatalf("failed step is not a transmit step")
	}
	switch txStep.Frame.Kind() {
	case FrameKindData, FrameKindManagement, FrameKindBlockAckReq:
		h.callback.OriginatorProcessFailedFrame(txStep.Frame)
	case FrameKindRTS:
		if !txStep.IsRts() {
			fatalf("RTS frame without a protected frame")
		}
		h.callback.OriginatorProcessRtsProtectionFailed(txStep.ProtectedFrame)
	default:
		fatalf("cannot report failure of %s", txStep.Frame)
	}
	h.finishFrameSequence(err)
}

func (h *FrameSequenceHandler) finishFrameSequence(err error) {
	h.logDone(err)
	callback := h.callback
	h.callback = nil
	h.context = nil
	h.sequence = nil
	callback.FrameSequenceFinished()
}

func (h *FrameSequenceHandler) logStart() {
	h.Logger.Info(
		"frameSequenceStart",
		slog.String("spanID", h.spanID),
		slog.String("sequence", h.name),
		slog.Time("t", h.t0),
	)
}

func (h *FrameSequenceHandler) logStep(step Step) {
	index := h.context.NumSteps() - 1
	switch step := step.(type) {
	case *TransmitStep:
		h.Logger.Debug(
			"frameSequenceStep",
			slog.String("spanID", h.spanID),
			slog.Int("step", index),
			slog.String("stepType", "transmit"),
			slog.String("frameKind", step.Frame.Kind().String()),
			slog.String("receiverAddr", step.Frame.ReceiverAddress().String()),
			slog.Duration("ifs", step.Ifs),
			slog.Time("t", h.TimeNow()),
		)
	case *ReceiveStep:
		h.Logger.Debug(
			"frameSequenceStep",
			slog.String("spanID", h.spanID),
			slog.Int("step", index),
			slog.String("stepType", "receive"),
			slog.Duration("timeout", step.Timeout),
			slog.Time("t", h.TimeNow()),
		)
	}
}

func (h *FrameSequenceHandler) logStepDone(step Step) {
	h.Logger.Debug(
		"frameSequenceStepDone",
		slog.String("spanID", h.spanID),
		slog.Int("step", h.context.NumSteps()-1),
		slog.String("completion", step.Completion().String()),
		slog.Time("t", h.TimeNow()),
	)
}

func (h *FrameSequenceHandler) logDone(err error) {
	h.Logger.Info(
		"frameSequenceDone",
		slog.String("spanID", h.spanID),
		slog.String("sequence", h.name),
		slog.Any("err", err),
		slog.String("errClass", h.ErrClassifier.Classify(err)),
		slog.String("history", h.sequence.History()),
		slog.Int("steps", h.context.NumSteps()),
		slog.Time("t0", h.t0),
		slog.Time("t", h.TimeNow()),
	)
}

// sequenceName returns the unqualified type name of the sequence (e.g., "DcfFs").
func sequenceName(sequence FrameSequence) string {
	name := fmt.Sprintf("%T", sequence)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
