// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import "time"

// Completion is the outcome of a [Step].
type Completion int

const (
	// CompletionUndefined means the step has not concluded yet.
	CompletionUndefined Completion = iota

	// CompletionAccepted means the sequence accepted the step.
	CompletionAccepted

	// CompletionRejected means the sequence rejected the step.
	CompletionRejected

	// CompletionExpired means the receive window elapsed without a response.
	CompletionExpired
)

// String implements [fmt.Stringer].
func (c Completion) String() string {
	switch c {
	case CompletionAccepted:
		return "accepted"
	case CompletionRejected:
		return "rejected"
	case CompletionExpired:
		return "expired"
	default:
		return "undefined"
	}
}

// Step is one transmit or receive step of a frame sequence.
//
// The only implementations are [*TransmitStep] and [*ReceiveStep].
type Step interface {
	// Completion returns the step outcome.
	Completion() Completion

	setCompletion(c Completion)
}

type stepCompletion struct {
	completion Completion
}

func (s *stepCompletion) Completion() Completion {
	return s.completion
}

func (s *stepCompletion) setCompletion(c Completion) {
	if s.completion != CompletionUndefined {
		fatalf("step completion already set to %s", s.completion)
	}
	s.completion = c
}

// TransmitStep asks the MAC to transmit a frame after an inter-frame space.
type TransmitStep struct {
	stepCompletion

	// Frame is the frame to transmit.
	//
	// Data and management frames are references into the in-progress
	// frames; control frames (RTS, BAR) are built for this step.
	Frame *Frame

	// Ifs is the inter-frame space to wait before transmitting.
	Ifs time.Duration

	// ProtectedFrame is the frame an RTS protects, or nil.
	ProtectedFrame *Frame
}

var _ Step = &TransmitStep{}

// NewTransmitStep creates a [*TransmitStep].
func NewTransmitStep(frame *Frame, ifs time.Duration) *TransmitStep {
	return &TransmitStep{Frame: frame, Ifs: ifs}
}

// NewRtsTransmitStep creates a [*TransmitStep] for an RTS protecting the given frame.
func NewRtsTransmitStep(protected, rts *Frame, ifs time.Duration) *TransmitStep {
	return &TransmitStep{Frame: rts, Ifs: ifs, ProtectedFrame: protected}
}

// IsRts returns whether this step transmits an RTS.
func (s *TransmitStep) IsRts() bool {
	return s.ProtectedFrame != nil
}

// ReceiveStep asks the MAC to wait for a response.
type ReceiveStep struct {
	stepCompletion

	// Timeout is the receive window.
	Timeout time.Duration

	// ReceivedFrame is filled in by the handler when a response arrives.
	ReceivedFrame *Frame
}

var _ Step = &ReceiveStep{}

// NewReceiveStep creates a [*ReceiveStep].
func NewReceiveStep(timeout time.Duration) *ReceiveStep {
	return &ReceiveStep{Timeout: timeout}
}
