// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"encoding/binary"
	"unicode/utf8"
)

// DecodeCommand decodes at most one command from the front of window.
//
// Three outcomes, matching the firmware decoder:
//   - (nil, 0, nil): window is a valid prefix of a command but more bytes
//     are needed. An empty window always decodes this way.
//   - (cmd, n, nil): a complete command; exactly n bytes belong to it and
//     trailing bytes are left for the next call.
//   - (nil, 0, err): window cannot begin any command. err is a
//     *MalformedMessageError; no bytes are skipped and no recovery is
//     attempted.
func DecodeCommand(window []byte) (Command, int, error) {
	if len(window) == 0 {
		return nil, 0, nil
	}

	switch window[0] {
	case TagPowerCycler:
		if len(window) < powerCyclerLen {
			return nil, 0, nil
		}
		return PowerCycler{Slot: window[1], State: window[2] != 0}, powerCyclerLen, nil

	case TagBrightness:
		if len(window) < brightnessLen {
			return nil, 0, nil
		}
		return Brightness{Target: window[1], Value: binary.BigEndian.Uint16(window[2:4])}, brightnessLen, nil

	case TagTemperature:
		if len(window) < temperatureLen {
			return nil, 0, nil
		}
		return Temperature{Target: window[1], Value: binary.BigEndian.Uint16(window[2:4])}, temperatureLen, nil

	case TagLed:
		if len(window) < ledLen {
			return nil, 0, nil
		}
		pulse, ok := decodePulseMode(window[4], window[5], window[6])
		if !ok {
			return nil, 0, malformed(window)
		}
		return Led{R: window[1], G: window[2], B: window[3], Pulse: pulse}, ledLen, nil

	case TagBootload:
		return Bootload{}, bootloadLen, nil

	case TagFanSpeed:
		if len(window) < fanSpeedLen {
			return nil, 0, nil
		}
		return FanSpeed{Target: window[1], Value: binary.BigEndian.Uint16(window[2:4])}, fanSpeedLen, nil

	default:
		return nil, 0, malformed(window)
	}
}

// DecodeReport decodes at most one report from the front of window, with
// the same three outcomes as DecodeCommand. For Debug this includes waiting
// out the declared payload: a present length byte with fewer than that many
// payload bytes is incomplete, not invalid.
func DecodeReport(window []byte) (Report, int, error) {
	if len(window) == 0 {
		return nil, 0, nil
	}

	switch window[0] {
	case TagHeartbeat:
		return Heartbeat{}, heartbeatLen, nil

	case TagDialValue:
		if len(window) < dialValueLen {
			return nil, 0, nil
		}
		return DialValue{Diff: int8(window[1])}, dialValueLen, nil

	case TagPress:
		return Press{}, pressLen, nil

	case TagRelease:
		return Release{}, releaseLen, nil

	case TagEmergencyOff:
		return EmergencyOff{}, emergencyOffLen, nil

	case TagError:
		if len(window) < errorLen {
			return nil, 0, nil
		}
		return ErrorReport{Code: binary.BigEndian.Uint16(window[1:3])}, errorLen, nil

	case TagDebug:
		if len(window) < debugHeaderLen {
			return nil, 0, nil
		}
		length := int(window[1])
		if length > MaxDebugTextLen {
			// A frame this long can never fit MaxReportLen, so waiting
			// for more bytes would hang the stream forever.
			return nil, 0, malformed(window)
		}
		total := debugHeaderLen + length
		if len(window) < total {
			return nil, 0, nil
		}
		text := window[debugHeaderLen:total]
		if !utf8.Valid(text) {
			return nil, 0, malformed(window)
		}
		return Debug{text: string(text)}, total, nil

	default:
		return nil, 0, malformed(window)
	}
}

// decodePulseMode interprets the 3-byte pulse field of a Led command.
// The two bytes after the Solid and DialTurn tags are padding and are not
// inspected. A Breathing interval of zero reports false: that byte pattern
// is malformed, never a zero-duration pulse.
func decodePulseMode(tag, msb, lsb byte) (PulseMode, bool) {
	switch tag {
	case TagPulseSolid:
		return Solid(), true
	case TagPulseDialTurn:
		return DialTurn(), true
	case TagPulseBreathing:
		interval := uint16(msb)<<8 | uint16(lsb)
		if interval == 0 {
			return PulseMode{}, false
		}
		return PulseMode{kind: PulseBreathing, intervalMs: interval}, true
	default:
		return PulseMode{}, false
	}
}
