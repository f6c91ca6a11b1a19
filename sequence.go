// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

// FrameSequence is a node of a frame-sequence grammar.
//
// A run starts with [FrameSequence.StartSequence] and then alternates
// [FrameSequence.PrepareStep] and [FrameSequence.CompleteStep] until
// PrepareStep returns nil, which means the sequence is exhausted.
//
// Composite nodes ([*SequentialFs], [*OptionalFs], [*RepeatingFs] and
// [*AlternativesFs]) own their children and only ever forward calls to
// the child that is currently active.
type FrameSequence interface {
	// StartSequence resets the run state. The firstStep argument is the
	// index in the [*Context] step history of the first step this node
	// will produce.
	StartSequence(ctx *Context, firstStep int)

	// PrepareStep returns the next step or nil when the sequence is exhausted.
	PrepareStep(ctx *Context) Step

	// CompleteStep consumes the outcome of the step returned by the last
	// PrepareStep call and returns whether the sequence accepts it.
	CompleteStep(ctx *Context) bool

	// History returns a human readable trace of the completed steps.
	History() string
}

// Predicate decides whether an [*OptionalFs] child applies to this run.
type Predicate func(ctx *Context) bool

// RepeatingPredicate decides whether a [*RepeatingFs] starts another
// repetition. The count argument is the number of completed repetitions.
type RepeatingPredicate func(ctx *Context, count int) bool

// Selector picks the index of the [*AlternativesFs] child for this run.
type Selector func(ctx *Context) int
