// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"fmt"
	"unicode/utf8"
)

// Report is a panel → host message. Like Command, the variant set is closed
// to the wire format's fixed list.
type Report interface {
	// Tag returns the wire tag byte identifying the variant.
	Tag() byte
	// WireLen returns the encoded length in bytes, tag included.
	WireLen() int

	appendReport(dst []byte) []byte
}

// Heartbeat is the panel's periodic liveness signal.
type Heartbeat struct{}

// DialValue reports relative dial movement since the previous report.
// Clockwise is positive.
type DialValue struct {
	Diff int8
}

// Press reports the dial button going down.
type Press struct{}

// Release reports the dial button coming back up.
type Release struct{}

// EmergencyOff reports that the panel's emergency stop was thrown.
// The panel cuts its outputs itself; this report is informational.
type EmergencyOff struct{}

// ErrorReport carries a firmware error code. Code values are opaque to the
// host; the firmware owns their meaning.
type ErrorReport struct {
	Code uint16
}

// Debug carries free-form UTF-8 text from the panel firmware. The text is
// bounded by MaxDebugTextLen bytes and must be valid UTF-8, enforced at
// construction so encoding never fails; the decoder applies the same rules
// to incoming bytes.
type Debug struct {
	text string
}

// NewDebug creates a Debug report, validating length and UTF-8 encoding.
func NewDebug(text string) (Debug, error) {
	if len(text) > MaxDebugTextLen {
		return Debug{}, fmt.Errorf("debug text too long: %d bytes (max %d)", len(text), MaxDebugTextLen)
	}
	if !utf8.ValidString(text) {
		return Debug{}, fmt.Errorf("debug text is not valid UTF-8")
	}
	return Debug{text: text}, nil
}

// MustDebug is like NewDebug but panics on invalid text.
// Intended for literals known at compile time.
func MustDebug(text string) Debug {
	d, err := NewDebug(text)
	if err != nil {
		panic(fmt.Sprintf("pastel: %v", err))
	}
	return d
}

// Text returns the debug message text.
func (d Debug) Text() string {
	return d.text
}

// Tag implements Report.
func (Heartbeat) Tag() byte { return TagHeartbeat }

// Tag implements Report.
func (DialValue) Tag() byte { return TagDialValue }

// Tag implements Report.
func (Press) Tag() byte { return TagPress }

// Tag implements Report.
func (Release) Tag() byte { return TagRelease }

// Tag implements Report.
func (EmergencyOff) Tag() byte { return TagEmergencyOff }

// Tag implements Report.
func (ErrorReport) Tag() byte { return TagError }

// Tag implements Report.
func (Debug) Tag() byte { return TagDebug }

// WireLen implements Report.
func (Heartbeat) WireLen() int { return heartbeatLen }

// WireLen implements Report.
func (DialValue) WireLen() int { return dialValueLen }

// WireLen implements Report.
func (Press) WireLen() int { return pressLen }

// WireLen implements Report.
func (Release) WireLen() int { return releaseLen }

// WireLen implements Report.
func (EmergencyOff) WireLen() int { return emergencyOffLen }

// WireLen implements Report.
func (ErrorReport) WireLen() int { return errorLen }

// WireLen implements Report.
func (d Debug) WireLen() int { return debugHeaderLen + len(d.text) }
