// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pastel provides a reference Go implementation of the Pastel panel protocol.
//
// Pastel is a byte-oriented protocol between a host and the Tableau bench
// panel over a serial link. Each message is a single ASCII tag byte followed
// by a fixed or tag-determined number of payload bytes; multi-byte integers
// are big-endian. The link carries no framing delimiters, checksums, or
// resynchronization markers, so the stream readers in this package
// reassemble messages incrementally from arbitrarily chunked reads using a
// bounded, pre-allocated buffer.
//
// See the Pastel specification at origin/documentation/source/specifications/pastel/
package pastel

// Command tag bytes (host → panel)
const (
	TagPowerCycler = 'A'
	TagBrightness  = 'B'
	TagTemperature = 'C'
	TagLed         = 'D'
	TagBootload    = 'E'
	TagFanSpeed    = 'F'
)

// Report tag bytes (panel → host). Tag values are direction-scoped, so
// reuse of 'D' and 'E' does not collide with the command tags above.
const (
	TagHeartbeat    = 'H'
	TagDialValue    = 'V'
	TagPress        = 'P'
	TagRelease      = 'R'
	TagEmergencyOff = 'X'
	TagError        = 'E'
	TagDebug        = 'D'
)

// Pulse mode tag bytes (first byte of the 3-byte pulse field in Led)
const (
	TagPulseSolid     = 'S'
	TagPulseDialTurn  = 'D'
	TagPulseBreathing = 'B'
)

// Protocol size limits. These are part of the wire contract and shared with
// the panel firmware.
const (
	MaxCommandLen        = 8                // bounds Led's 7 plus margin
	MaxReportLen         = 256              // bounds Debug's worst case
	MaxDebugTextLen      = MaxReportLen - 2 // tag and length byte excluded
	StreamBufferCapacity = 256              // at least the larger direction maximum
)

// Wire lengths per variant, tag byte included
const (
	powerCyclerLen  = 3
	brightnessLen   = 4
	temperatureLen  = 4
	ledLen          = 7
	bootloadLen     = 1
	fanSpeedLen     = 4
	pulseModeLen    = 3
	heartbeatLen    = 1
	dialValueLen    = 2
	pressLen        = 1
	releaseLen      = 1
	emergencyOffLen = 1
	errorLen        = 3
	debugHeaderLen  = 2 // tag + declared length byte
)

// PulseKind represents the LED pulse behavior variants
type PulseKind int

// Pulse behavior values
const (
	PulseSolid PulseKind = iota
	PulseDialTurn
	PulseBreathing
)
