// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

// NewPcfFs returns the point coordination function grammar.
//
// PCF is not modeled: starting the returned sequence panics with [*FatalError].
func NewPcfFs() FrameSequence {
	return &unimplementedFs{name: "PCF"}
}

// NewMcfFs returns the mesh coordination function grammar.
//
// MCF is not modeled: starting the returned sequence panics with [*FatalError].
func NewMcfFs() FrameSequence {
	return &unimplementedFs{name: "MCF"}
}

// NewHtTxOpFs returns the HT TXOP grammar.
//
// HT TXOP sequences are not modeled: starting the returned sequence
// panics with [*FatalError].
func NewHtTxOpFs() FrameSequence {
	return &unimplementedFs{name: "HT TXOP"}
}

type unimplementedFs struct {
	name string
}

func (fs *unimplementedFs) StartSequence(ctx *Context, firstStep int) {
	fatalf("%s frame sequence is not implemented", fs.name)
}

func (fs *unimplementedFs) PrepareStep(ctx *Context) Step {
	fatalf("%s frame sequence is not implemented", fs.name)
	return nil
}

func (fs *unimplementedFs) CompleteStep(ctx *Context) bool {
	fatalf("%s frame sequence is not implemented", fs.name)
	return false
}

func (fs *unimplementedFs) History() string {
	return ""
}
