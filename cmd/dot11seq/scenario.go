// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bassosimone/dot11seq"
	"github.com/bassosimone/runtimex"
	"github.com/google/gopacket/layers"
	"gopkg.in/yaml.v3"
)

// hwAddr is a MAC address in YAML form (e.g., "02:00:00:00:00:01").
type hwAddr net.HardwareAddr

// UnmarshalYAML implements [yaml.Unmarshaler].
func (a *hwAddr) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a MAC address", value.Line)
	}
	addr, err := net.ParseMAC(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = hwAddr(addr)
	return nil
}

// Peer actions for frames that elicit a response.
const (
	actionRespond = "respond"
	actionSilent  = "silent"
	actionWrong   = "wrong"
)

// Coordination functions.
const (
	functionDcf = "dcf"
	functionHcf = "hcf"
)

// Frame kinds accepted in scenario files.
const (
	kindData    = "data"
	kindQoSData = "qos-data"
	kindMgmt    = "mgmt"
)

// scenario describes one station, its queue and a scripted peer.
type scenario struct {
	Name                 string          `yaml:"name"`
	Function             string          `yaml:"function"`
	Address              hwAddr          `yaml:"address"`
	RtsThreshold         int             `yaml:"rtsThreshold"`
	RetryLimit           int             `yaml:"retryLimit"`
	MaxLifetime          time.Duration   `yaml:"maxLifetime"`
	TxopLimit            time.Duration   `yaml:"txopLimit"`
	BlockAckReqThreshold int             `yaml:"blockAckReqThreshold"`
	RateMbps             int             `yaml:"rateMbps"`
	Agreements           []agreementSpec `yaml:"agreements"`
	Frames               []frameSpec     `yaml:"frames"`
	Peer                 peerSpec        `yaml:"peer"`
}

type agreementSpec struct {
	Peer       hwAddr `yaml:"peer"`
	TID        uint8  `yaml:"tid"`
	BufferSize int    `yaml:"bufferSize"`
}

// frameSpec describes a frame to queue, either by kind or as the hex
// encoding of a raw 802.11 frame including its FCS.
type frameSpec struct {
	Hex       string `yaml:"hex"`
	Kind      string `yaml:"kind"`
	Receiver  hwAddr `yaml:"receiver"`
	TID       uint8  `yaml:"tid"`
	Size      int    `yaml:"size"`
	Fragments int    `yaml:"fragments"`
}

type peerSpec struct {
	Address   hwAddr   `yaml:"address"`
	Responses []string `yaml:"responses"`
}

// Defaults applied to zero-valued scenario fields.
const (
	defaultRetryLimit = 7
	defaultRateMbps   = 6
)

var errInvalidScenario = errors.New("invalid scenario")

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*scenario, error) {
	sc := &scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidScenario, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidScenario, err)
	}
	if sc.Function == "" {
		sc.Function = functionDcf
	}
	if sc.RtsThreshold <= 0 {
		sc.RtsThreshold = dot11seq.DefaultRtsThreshold
	}
	if sc.RetryLimit <= 0 {
		sc.RetryLimit = defaultRetryLimit
	}
	if sc.BlockAckReqThreshold <= 0 {
		sc.BlockAckReqThreshold = dot11seq.DefaultBlockAckReqThreshold
	}
	if sc.RateMbps <= 0 {
		sc.RateMbps = defaultRateMbps
	}
	return sc, nil
}

func (sc *scenario) validate() error {
	if sc.Name == "" {
		return errors.New("missing name")
	}
	switch sc.Function {
	case "", functionDcf, functionHcf:
	default:
		return fmt.Errorf("unknown function %q", sc.Function)
	}
	if len(sc.Address) == 0 || len(sc.Peer.Address) == 0 {
		return errors.New("missing station or peer address")
	}
	if sc.MaxLifetime <= 0 {
		return errors.New("maxLifetime must be positive")
	}
	for idx, spec := range sc.Frames {
		if spec.Hex != "" {
			if _, err := decodeHexFrame(spec.Hex); err != nil {
				return fmt.Errorf("frame %d: %w", idx, err)
			}
			continue
		}
		switch spec.Kind {
		case kindData, kindMgmt:
		case kindQoSData:
			if sc.Function != functionHcf {
				return fmt.Errorf("frame %d: %s requires the hcf function", idx, spec.Kind)
			}
		default:
			return fmt.Errorf("frame %d: unknown kind %q", idx, spec.Kind)
		}
		if len(spec.Receiver) == 0 {
			return fmt.Errorf("frame %d: missing receiver", idx)
		}
		if spec.Fragments < 0 || spec.Fragments > 16 {
			return fmt.Errorf("frame %d: fragments must be in [0, 16]", idx)
		}
	}
	for idx, action := range sc.Peer.Responses {
		switch action {
		case actionRespond, actionSilent, actionWrong:
		default:
			return fmt.Errorf("response %d: unknown action %q", idx, action)
		}
	}
	return nil
}

// decodeHexFrame decodes a raw data or management frame.
func decodeHexFrame(value string) (*dot11seq.Frame, error) {
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, err
	}
	frame, err := dot11seq.DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	if !frame.IsDataOrManagement() {
		return nil, fmt.Errorf("cannot queue %s", frame.Kind())
	}
	return frame, nil
}

// buildFrames returns the frames to queue, with fragments of the same
// MSDU sharing a sequence number.
func (sc *scenario) buildFrames() []*dot11seq.Frame {
	var frames []*dot11seq.Frame
	ta := net.HardwareAddr(sc.Address)
	for idx, spec := range sc.Frames {
		if spec.Hex != "" {
			frames = append(frames, runtimex.PanicOnError1(decodeHexFrame(spec.Hex)))
			continue
		}
		seq := uint16(idx)
		ra := net.HardwareAddr(spec.Receiver)
		count := max(1, spec.Fragments)
		size := max(1, spec.Size/count)
		for frag := range count {
			payload := make([]byte, size)
			var frame *dot11seq.Frame
			switch spec.Kind {
			case kindMgmt:
				frame = dot11seq.NewManagementFrame(layers.Dot11TypeMgmtAction, ra, ta, seq, payload)
			case kindQoSData:
				frame = dot11seq.NewQoSDataFrame(ra, ta, spec.TID, seq, payload)
			default:
				frame = dot11seq.NewDataFrame(ra, ta, seq, payload)
			}
			if count > 1 {
				frame.Fragment(uint16(frag), frag < count-1)
			}
			frames = append(frames, frame)
		}
	}
	return frames
}
