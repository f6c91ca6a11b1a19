// SPDX-License-Identifier: GPL-3.0-or-later

// Package dot11seq implements the originator side of 802.11 MAC frame
// exchange sequences as a composable grammar driven by an event loop.
//
// # Core Abstraction
//
// The package is built around a single interface:
//
//	type FrameSequence interface {
//		StartSequence(ctx *Context, firstStep int)
//		PrepareStep(ctx *Context) Step
//		CompleteStep(ctx *Context) bool
//		History() string
//	}
//
// A [FrameSequence] yields one [Step] at a time: either a [*TransmitStep]
// (send a frame after an IFS) or a [*ReceiveStep] (wait for a response
// within a timeout). When a step finishes, the sequence decides whether it
// is acceptable and then yields the next step, or nil when it is done.
// All steps are appended to the [*Context], which also carries the frames
// to transmit and the policies consulted while building steps.
//
// # Available Sequences
//
// Combinators:
//   - [SequentialFs]: runs children one after another
//   - [OptionalFs]: runs its child only if a predicate holds at start
//   - [RepeatingFs]: runs its child while a predicate holds
//   - [AlternativesFs]: runs the child picked by a selector at start
//
// Primitives:
//   - [DataFs], [ManagementFs]: transmit without a response
//   - [ManagementAckFs], [FragFrameAckFs], [LastFrameAckFs]: transmit and wait for an ACK
//   - [RtsFs], [CtsFs], [AckFs], [RtsCtsFs]: RTS/CTS protection building blocks
//   - [BlockAckReqBlockAckFs]: block-ack request and block ack
//
// Protocol grammars:
//   - [DcfFs]: distributed coordination function
//   - [HcfFs] and [TxOpFs]: hybrid coordination function with TXOPs
//
// # Driving Sequences
//
// A [*FrameSequenceHandler] runs one sequence at a time and talks to the
// MAC through the [Callback] interface. The MAC reports PHY events back
// through [*FrameSequenceHandler.TransmissionComplete],
// [*FrameSequenceHandler.ProcessResponse] and
// [*FrameSequenceHandler.HandleStartRxTimeout]. A failure aborts the
// sequence and is reported exactly once; retries are up to the MAC.
//
// Contract violations (e.g., starting a sequence while one is running)
// panic with a [*FatalError].
//
// # Observability
//
// The handler supports structured logging via [SLogger] (compatible with [log/slog]).
//
// By default, logging is disabled. Set the Logger field to a custom [*slog.Logger]
// to enable logging. Error classification is configurable via [ErrClassifier].
//
// Each run is a span identified by [NewSpanID]. The frameSequenceStart and
// frameSequenceDone events are emitted at [slog.LevelInfo]; the latter
// includes t0, err, errClass and the history of the run. The per-step
// frameSequenceStep and frameSequenceStepDone events are emitted at
// [slog.LevelDebug].
//
// # Design Boundaries
//
// Channel access, backoff, retry counting, and frame reception are the
// MAC's job. The cmd/dot11seq simulator shows one way to do that, and
// the lifetime package provides transmit lifetime bookkeeping.
package dot11seq
