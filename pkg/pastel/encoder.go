// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import "encoding/binary"

// Encoding never fails: values that would not be representable on the wire
// (a zero breathing interval, oversized or non-UTF-8 debug text) are
// rejected at construction, so every Command and Report that exists in
// memory has an exact wire form of WireLen() bytes.

// EncodeCommand returns the wire encoding of c in a fresh slice of exactly
// c.WireLen() bytes.
func EncodeCommand(c Command) []byte {
	return c.appendCommand(make([]byte, 0, c.WireLen()))
}

// AppendCommand appends the wire encoding of c to dst and returns the
// extended slice. With pre-sized dst this path does not allocate, which
// matters to callers that share the firmware's no-allocation constraint.
func AppendCommand(dst []byte, c Command) []byte {
	return c.appendCommand(dst)
}

// EncodeReport returns the wire encoding of r in a fresh slice of exactly
// r.WireLen() bytes.
func EncodeReport(r Report) []byte {
	return r.appendReport(make([]byte, 0, r.WireLen()))
}

// AppendReport appends the wire encoding of r to dst and returns the
// extended slice.
func AppendReport(dst []byte, r Report) []byte {
	return r.appendReport(dst)
}

func (c PowerCycler) appendCommand(dst []byte) []byte {
	state := byte(0)
	if c.State {
		state = 1
	}
	return append(dst, TagPowerCycler, c.Slot, state)
}

func (c Brightness) appendCommand(dst []byte) []byte {
	dst = append(dst, TagBrightness, c.Target)
	return binary.BigEndian.AppendUint16(dst, c.Value)
}

func (c Temperature) appendCommand(dst []byte) []byte {
	dst = append(dst, TagTemperature, c.Target)
	return binary.BigEndian.AppendUint16(dst, c.Value)
}

func (c Led) appendCommand(dst []byte) []byte {
	dst = append(dst, TagLed, c.R, c.G, c.B)
	return appendPulseMode(dst, c.Pulse)
}

func (Bootload) appendCommand(dst []byte) []byte {
	return append(dst, TagBootload)
}

func (c FanSpeed) appendCommand(dst []byte) []byte {
	dst = append(dst, TagFanSpeed, c.Target)
	return binary.BigEndian.AppendUint16(dst, c.Value)
}

// appendPulseMode emits the 3-byte pulse field. The zero value of PulseMode
// is Solid, which keeps Led{} encodable.
func appendPulseMode(dst []byte, p PulseMode) []byte {
	switch p.kind {
	case PulseDialTurn:
		return append(dst, TagPulseDialTurn, 0x00, 0x00)
	case PulseBreathing:
		dst = append(dst, TagPulseBreathing)
		return binary.BigEndian.AppendUint16(dst, p.intervalMs)
	default:
		return append(dst, TagPulseSolid, 0x00, 0x00)
	}
}

func (Heartbeat) appendReport(dst []byte) []byte {
	return append(dst, TagHeartbeat)
}

func (r DialValue) appendReport(dst []byte) []byte {
	return append(dst, TagDialValue, byte(r.Diff))
}

func (Press) appendReport(dst []byte) []byte {
	return append(dst, TagPress)
}

func (Release) appendReport(dst []byte) []byte {
	return append(dst, TagRelease)
}

func (EmergencyOff) appendReport(dst []byte) []byte {
	return append(dst, TagEmergencyOff)
}

func (r ErrorReport) appendReport(dst []byte) []byte {
	dst = append(dst, TagError)
	return binary.BigEndian.AppendUint16(dst, r.Code)
}

func (d Debug) appendReport(dst []byte) []byte {
	dst = append(dst, TagDebug, byte(len(d.text)))
	return append(dst, d.text...)
}
