// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"strings"

	"github.com/bassosimone/runtimex"
)

// NewSequentialFs runs the given children one after the other.
//
// A child that returns no step from PrepareStep is exhausted and the next
// child is started. The child index only moves forward within a run.
func NewSequentialFs(children ...FrameSequence) *SequentialFs {
	runtimex.Assert(len(children) > 0)
	return &SequentialFs{children: children}
}

// SequentialFs is the frame sequence returned by [NewSequentialFs].
type SequentialFs struct {
	children  []FrameSequence
	firstStep int
	step      int
	index     int
}

var _ FrameSequence = &SequentialFs{}

// StartSequence implements [FrameSequence].
func (fs *SequentialFs) StartSequence(ctx *Context, firstStep int) {
	fs.firstStep = firstStep
	fs.step = 0
	fs.index = 0
	fs.children[0].StartSequence(ctx, firstStep)
}

// PrepareStep implements [FrameSequence].
func (fs *SequentialFs) PrepareStep(ctx *Context) Step {
	for fs.index < len(fs.children) {
		if step := fs.children[fs.index].PrepareStep(ctx); step != nil {
			return step
		}
		fs.index++
		if fs.index < len(fs.children) {
			fs.children[fs.index].StartSequence(ctx, fs.firstStep+fs.step)
		}
	}
	return nil
}

// CompleteStep implements [FrameSequence].
func (fs *SequentialFs) CompleteStep(ctx *Context) bool {
	if fs.index >= len(fs.children) {
		fatalf("sequential frame sequence completed after exhaustion")
	}
	completed := fs.children[fs.index].CompleteStep(ctx)
	fs.step++
	return completed
}

// History implements [FrameSequence].
func (fs *SequentialFs) History() string {
	var parts []string
	for i := 0; i < len(fs.children) && i <= fs.index; i++ {
		if h := fs.children[i].History(); h != "" {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, " ")
}

// NewOptionalFs runs the child only if the predicate holds at start.
func NewOptionalFs(child FrameSequence, predicate Predicate) *OptionalFs {
	runtimex.Assert(child != nil && predicate != nil)
	return &OptionalFs{child: child, predicate: predicate}
}

// OptionalFs is the frame sequence returned by [NewOptionalFs].
type OptionalFs struct {
	child      FrameSequence
	predicate  Predicate
	applicable bool
}

var _ FrameSequence = &OptionalFs{}

// StartSequence implements [FrameSequence].
//
// The predicate is evaluated exactly once per run.
func (fs *OptionalFs) StartSequence(ctx *Context, firstStep int) {
	fs.applicable = fs.predicate(ctx)
	if fs.applicable {
		fs.child.StartSequence(ctx, firstStep)
	}
}

// PrepareStep implements [FrameSequence].
func (fs *OptionalFs) PrepareStep(ctx *Context) Step {
	if !fs.applicable {
		return nil
	}
	return fs.child.PrepareStep(ctx)
}

// CompleteStep implements [FrameSequence].
func (fs *OptionalFs) CompleteStep(ctx *Context) bool {
	if !fs.applicable {
		fatalf("optional frame sequence is not applicable")
	}
	return fs.child.CompleteStep(ctx)
}

// History implements [FrameSequence].
func (fs *OptionalFs) History() string {
	if !fs.applicable {
		return ""
	}
	return "[" + fs.child.History() + "]"
}

// NewRepeatingFs runs the child as long as the predicate holds.
//
// The predicate is evaluated at start and again each time a repetition
// is exhausted. The loop also ends when a new repetition yields no step.
func NewRepeatingFs(child FrameSequence, predicate RepeatingPredicate) *RepeatingFs {
	runtimex.Assert(child != nil && predicate != nil)
	return &RepeatingFs{child: child, predicate: predicate}
}

// RepeatingFs is the frame sequence returned by [NewRepeatingFs].
type RepeatingFs struct {
	child     FrameSequence
	predicate RepeatingPredicate
	firstStep int
	step      int
	count     int
	active    bool
	histories []string
}

var _ FrameSequence = &RepeatingFs{}

// StartSequence implements [FrameSequence].
func (fs *RepeatingFs) StartSequence(ctx *Context, firstStep int) {
	fs.firstStep = firstStep
	fs.step = 0
	fs.count = 0
	fs.histories = nil
	fs.active = fs.predicate(ctx, fs.count)
	if fs.active {
		fs.child.StartSequence(ctx, firstStep)
	}
}

// PrepareStep implements [FrameSequence].
func (fs *RepeatingFs) PrepareStep(ctx *Context) Step {
	if !fs.active {
		return nil
	}
	if step := fs.child.PrepareStep(ctx); step != nil {
		return step
	}
	if h := fs.child.History(); h != "" {
		fs.histories = append(fs.histories, h)
	}
	fs.count++
	fs.active = fs.predicate(ctx, fs.count)
	if !fs.active {
		return nil
	}
	fs.child.StartSequence(ctx, fs.firstStep+fs.step)
	if step := fs.child.PrepareStep(ctx); step != nil {
		return step
	}
	// a fresh repetition that yields nothing ends the loop
	fs.active = false
	return nil
}

// CompleteStep implements [FrameSequence].
func (fs *RepeatingFs) CompleteStep(ctx *Context) bool {
	if !fs.active {
		fatalf("repeating frame sequence completed while inactive")
	}
	completed := fs.child.CompleteStep(ctx)
	fs.step++
	return completed
}

// Count returns the number of completed repetitions.
func (fs *RepeatingFs) Count() int {
	return fs.count
}

// History implements [FrameSequence].
func (fs *RepeatingFs) History() string {
	parts := append([]string{}, fs.histories...)
	if fs.active {
		if h := fs.child.History(); h != "" {
			parts = append(parts, h)
		}
	}
	if len(parts) <= 0 {
		return ""
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// NewAlternativesFs runs exactly one of the children, picked by the selector.
//
// The selector is called once per run. Returning an index out of range
// is a configuration bug and causes a panic with [*FatalError].
func NewAlternativesFs(selector Selector, children ...FrameSequence) *AlternativesFs {
	runtimex.Assert(selector != nil)
	return &AlternativesFs{children: children, selector: selector, index: -1}
}

// AlternativesFs is the frame sequence returned by [NewAlternativesFs].
type AlternativesFs struct {
	children []FrameSequence
	selector Selector
	index    int
}

var _ FrameSequence = &AlternativesFs{}

// StartSequence implements [FrameSequence].
func (fs *AlternativesFs) StartSequence(ctx *Context, firstStep int) {
	index := fs.selector(ctx)
	if index < 0 || index >= len(fs.children) {
		fatalf("selector returned invalid alternative %d of %d", index, len(fs.children))
	}
	fs.index = index
	fs.children[index].StartSequence(ctx, firstStep)
}

// PrepareStep implements [FrameSequence].
func (fs *AlternativesFs) PrepareStep(ctx *Context) Step {
	return fs.selected().PrepareStep(ctx)
}

// CompleteStep implements [FrameSequence].
func (fs *AlternativesFs) CompleteStep(ctx *Context) bool {
	return fs.selected().CompleteStep(ctx)
}

// Selected returns the index picked at start, or -1 before the first run.
func (fs *AlternativesFs) Selected() int {
	return fs.index
}

// History implements [FrameSequence].
func (fs *AlternativesFs) History() string {
	if fs.index < 0 {
		return ""
	}
	return fs.children[fs.index].History()
}

func (fs *AlternativesFs) selected() FrameSequence {
	if fs.index < 0 {
		fatalf("alternatives frame sequence used before start")
	}
	return fs.children[fs.index]
}
