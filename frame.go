// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/bassosimone/runtimex"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frame is an 802.11 MAC frame handled by the frame-sequence engine.
//
// The header is a [layers.Dot11] so that frames can be decoded with
// gopacket. The payload is opaque to the engine.
type Frame struct {
	// Header is the MAC header.
	Header layers.Dot11

	// Payload is the frame body (without FCS).
	Payload []byte
}

// FrameKind is the closed set of frame kinds the engine distinguishes.
type FrameKind int

const (
	// FrameKindOther is any frame the engine does not act upon.
	FrameKindOther FrameKind = iota

	// FrameKindData is a data frame (any data subtype).
	FrameKindData

	// FrameKindManagement is a management frame.
	FrameKindManagement

	// FrameKindRTS is a request-to-send control frame.
	FrameKindRTS

	// FrameKindCTS is a clear-to-send control frame.
	FrameKindCTS

	// FrameKindAck is an acknowledgment control frame.
	FrameKindAck

	// FrameKindBlockAckReq is a block-ack request control frame.
	FrameKindBlockAckReq

	// FrameKindBlockAck is a block-ack control frame.
	FrameKindBlockAck
)

// String implements [fmt.Stringer].
func (k FrameKind) String() string {
	switch k {
	case FrameKindData:
		return "DATA"
	case FrameKindManagement:
		return "MGMT"
	case FrameKindRTS:
		return "RTS"
	case FrameKindCTS:
		return "CTS"
	case FrameKindAck:
		return "ACK"
	case FrameKindBlockAckReq:
		return "BAR"
	case FrameKindBlockAck:
		return "BA"
	default:
		return "OTHER"
	}
}

// Kind returns the [FrameKind] derived from the header type.
func (f *Frame) Kind() FrameKind {
	switch f.Header.Type.MainType() {
	case layers.Dot11TypeData:
		return FrameKindData
	case layers.Dot11TypeMgmt:
		return FrameKindManagement
	}
	switch f.Header.Type {
	case layers.Dot11TypeCtrlRTS:
		return FrameKindRTS
	case layers.Dot11TypeCtrlCTS:
		return FrameKindCTS
	case layers.Dot11TypeCtrlAck:
		return FrameKindAck
	case layers.Dot11TypeCtrlBlockAckReq:
		return FrameKindBlockAckReq
	case layers.Dot11TypeCtrlBlockAck:
		return FrameKindBlockAck
	default:
		return FrameKindOther
	}
}

// IsDataOrManagement returns whether the frame carries an MSDU or MMPDU.
func (f *Frame) IsDataOrManagement() bool {
	kind := f.Kind()
	return kind == FrameKindData || kind == FrameKindManagement
}

// ReceiverAddress returns the RA field (Address1).
func (f *Frame) ReceiverAddress() net.HardwareAddr {
	return f.Header.Address1
}

// TransmitterAddress returns the TA field (Address2).
func (f *Frame) TransmitterAddress() net.HardwareAddr {
	return f.Header.Address2
}

// IsGroupAddressed returns whether the receiver address has the group bit set.
func (f *Frame) IsGroupAddressed() bool {
	return isGroupAddress(f.Header.Address1)
}

// MoreFragments returns the value of the More Fragments flag.
func (f *Frame) MoreFragments() bool {
	return f.Header.Flags.MF()
}

// SequenceNumber returns the header sequence number.
func (f *Frame) SequenceNumber() uint16 {
	return f.Header.SequenceNumber
}

// FragmentNumber returns the header fragment number.
func (f *Frame) FragmentNumber() uint16 {
	return f.Header.FragmentNumber
}

// TID returns the traffic identifier of a QoS frame, or zero.
func (f *Frame) TID() uint8 {
	if f.Header.QOS == nil {
		return 0
	}
	return f.Header.QOS.TID
}

// Fragment sets the fragment number and the More Fragments flag.
func (f *Frame) Fragment(number uint16, more bool) *Frame {
	f.Header.FragmentNumber = number
	if more {
		f.Header.Flags |= layers.Dot11FlagsMF
	} else {
		f.Header.Flags &^= layers.Dot11FlagsMF
	}
	return f
}

// FCSLength is the length of the frame check sequence.
const FCSLength = 4

// Length returns the on-air length of the frame in bytes: MAC header,
// body and FCS.
func (f *Frame) Length() int {
	return f.HeaderLength() + len(f.Payload) + FCSLength
}

// HeaderLength returns the length of the MAC header, which depends on
// the frame type and on the presence of the QoS control field.
func (f *Frame) HeaderLength() int {
	switch f.Header.Type {
	case layers.Dot11TypeCtrlCTS, layers.Dot11TypeCtrlAck:
		return 10
	}
	if f.Header.Type.MainType() == layers.Dot11TypeCtrl {
		return 16
	}
	length := 24
	if f.Header.Type.MainType() == layers.Dot11TypeData && f.Header.Flags.ToDS() && f.Header.Flags.FromDS() {
		length += 6
	}
	if f.Header.QOS != nil {
		length += 2
	}
	return length
}

// String implements [fmt.Stringer].
func (f *Frame) String() string {
	return fmt.Sprintf("%s ra=%s seq=%d frag=%d", f.Kind(), f.Header.Address1, f.Header.SequenceNumber, f.Header.FragmentNumber)
}

// DecodeFrame decodes a raw 802.11 frame using gopacket.
func DecodeFrame(data []byte) (*Frame, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeDot11, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFrame, errLayer.Error())
	}
	layer, ok := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !ok {
		return nil, ErrInvalidFrame
	}
	return &Frame{Header: *layer, Payload: layer.LayerPayload()}, nil
}

// NewDataFrame creates a non-QoS data frame.
func NewDataFrame(receiver, transmitter net.HardwareAddr, seq uint16, payload []byte) *Frame {
	return &Frame{
		Header: layers.Dot11{
			Type:           layers.Dot11TypeData,
			Address1:       receiver,
			Address2:       transmitter,
			Address3:       transmitter,
			SequenceNumber: seq,
		},
		Payload: payload,
	}
}

// NewQoSDataFrame creates a QoS data frame for the given TID.
func NewQoSDataFrame(receiver, transmitter net.HardwareAddr, tid uint8, seq uint16, payload []byte) *Frame {
	frame := NewDataFrame(receiver, transmitter, seq, payload)
	frame.Header.Type = layers.Dot11TypeDataQOSData
	frame.Header.QOS = &layers.Dot11QOS{TID: tid, AckPolicy: layers.Dot11AckPolicyNormal}
	return frame
}

// NewManagementFrame creates a management frame of the given subtype.
func NewManagementFrame(subtype layers.Dot11Type, receiver, transmitter net.HardwareAddr, seq uint16, payload []byte) *Frame {
	runtimex.Assert(subtype.MainType() == layers.Dot11TypeMgmt)
	return &Frame{
		Header: layers.Dot11{
			Type:           subtype,
			Address1:       receiver,
			Address2:       transmitter,
			Address3:       transmitter,
			SequenceNumber: seq,
		},
		Payload: payload,
	}
}

// NewRtsFrame creates an RTS frame.
func NewRtsFrame(receiver, transmitter net.HardwareAddr, duration uint16) *Frame {
	return &Frame{
		Header: layers.Dot11{
			Type:       layers.Dot11TypeCtrlRTS,
			DurationID: duration,
			Address1:   receiver,
			Address2:   transmitter,
		},
	}
}

// NewCtsFrame creates a CTS frame.
func NewCtsFrame(receiver net.HardwareAddr, duration uint16) *Frame {
	return &Frame{
		Header: layers.Dot11{
			Type:       layers.Dot11TypeCtrlCTS,
			DurationID: duration,
			Address1:   receiver,
		},
	}
}

// NewAckFrame creates an ACK frame.
func NewAckFrame(receiver net.HardwareAddr) *Frame {
	return &Frame{
		Header: layers.Dot11{
			Type:     layers.Dot11TypeCtrlAck,
			Address1: receiver,
		},
	}
}

// NewBlockAckReqFrame creates a basic block-ack request frame.
//
// The body carries the BAR control field (TID in the four most
// significant bits) and the starting sequence control field.
func NewBlockAckReqFrame(receiver, transmitter net.HardwareAddr, tid uint8, startingSeq uint16) *Frame {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], uint16(tid&0x0f)<<12)
	binary.LittleEndian.PutUint16(body[2:4], startingSeq<<4)
	return &Frame{
		Header: layers.Dot11{
			Type:     layers.Dot11TypeCtrlBlockAckReq,
			Address1: receiver,
			Address2: transmitter,
		},
		Payload: body,
	}
}

// NewBlockAckFrame creates a basic block-ack frame with the given bitmap.
func NewBlockAckFrame(receiver, transmitter net.HardwareAddr, tid uint8, startingSeq uint16, bitmap uint64) *Frame {
	body := make([]byte, 12)
	binary.LittleEndian.PutUint16(body[0:2], uint16(tid&0x0f)<<12)
	binary.LittleEndian.PutUint16(body[2:4], startingSeq<<4)
	binary.LittleEndian.PutUint64(body[4:12], bitmap)
	return &Frame{
		Header: layers.Dot11{
			Type:     layers.Dot11TypeCtrlBlockAck,
			Address1: receiver,
			Address2: transmitter,
		},
		Payload: body,
	}
}

// BlockAckInfo returns the TID and starting sequence number carried by
// a BAR or BA frame. The boolean is false for other frames.
func (f *Frame) BlockAckInfo() (tid uint8, startingSeq uint16, ok bool) {
	kind := f.Kind()
	if (kind != FrameKindBlockAckReq && kind != FrameKindBlockAck) || len(f.Payload) < 4 {
		return 0, 0, false
	}
	tid = uint8(binary.LittleEndian.Uint16(f.Payload[0:2]) >> 12)
	startingSeq = binary.LittleEndian.Uint16(f.Payload[2:4]) >> 4
	return tid, startingSeq, true
}

func isGroupAddress(addr net.HardwareAddr) bool {
	return len(addr) > 0 && addr[0]&0x01 != 0
}

func sameAddress(a, b net.HardwareAddr) bool {
	return len(a) == len(b) && string(a) == string(b)
}
