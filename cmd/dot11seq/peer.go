// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net"

	"github.com/bassosimone/dot11seq"
	"github.com/google/gopacket/layers"
)

// peer is the scripted recipient. It answers frames that elicit a
// response according to its list of actions and then always responds.
type peer struct {
	address net.HardwareAddr
	actions []string

	// received holds the sequence numbers received under the block-ack
	// policy per TID, in arrival order.
	received map[uint8][]uint16
}

func newPeer(spec peerSpec) *peer {
	return &peer{
		address:  net.HardwareAddr(spec.Address),
		actions:  append([]string{}, spec.Responses...),
		received: map[uint8][]uint16{},
	}
}

// Respond returns the frame the peer sends back after receiving frame,
// or nil when it stays silent.
func (p *peer) Respond(frame *dot11seq.Frame) *dot11seq.Frame {
	if frame.IsGroupAddressed() || !sameAddress(frame.ReceiverAddress(), p.address) {
		return nil
	}
	if qos := frame.Header.QOS; frame.Kind() == dot11seq.FrameKindData &&
		qos != nil && qos.AckPolicy == layers.Dot11AckPolicyBlock {
		p.received[qos.TID] = append(p.received[qos.TID], frame.SequenceNumber())
		return nil
	}
	switch p.nextAction() {
	case actionSilent:
		return nil
	case actionWrong:
		return p.wrongResponse(frame)
	default:
		return p.response(frame)
	}
}

func (p *peer) nextAction() string {
	if len(p.actions) <= 0 {
		return actionRespond
	}
	action := p.actions[0]
	p.actions = p.actions[1:]
	return action
}

func (p *peer) response(frame *dot11seq.Frame) *dot11seq.Frame {
	ta := frame.TransmitterAddress()
	switch frame.Kind() {
	case dot11seq.FrameKindRTS:
		return dot11seq.NewCtsFrame(ta, 0)
	case dot11seq.FrameKindBlockAckReq:
		tid, ssn, _ := frame.BlockAckInfo()
		return dot11seq.NewBlockAckFrame(ta, p.address, tid, ssn, p.bitmap(tid, ssn))
	default:
		return dot11seq.NewAckFrame(ta)
	}
}

// wrongResponse answers with a frame of the wrong kind.
func (p *peer) wrongResponse(frame *dot11seq.Frame) *dot11seq.Frame {
	ta := frame.TransmitterAddress()
	if frame.Kind() == dot11seq.FrameKindRTS {
		return dot11seq.NewAckFrame(ta)
	}
	return dot11seq.NewCtsFrame(ta, 0)
}

// bitmap acknowledges the frames received for tid since ssn and forgets them.
func (p *peer) bitmap(tid uint8, ssn uint16) uint64 {
	var bitmap uint64
	for _, seq := range p.received[tid] {
		if offset := (seq - ssn) & 0x0fff; offset < 64 {
			bitmap |= 1 << offset
		}
	}
	delete(p.received, tid)
	return bitmap
}

func sameAddress(a, b net.HardwareAddr) bool {
	return a.String() == b.String()
}
