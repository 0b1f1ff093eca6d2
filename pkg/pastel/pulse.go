// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import "fmt"

// PulseMode describes how the panel animates its status LED. The zero value
// is Solid. A Breathing interval is strictly nonzero on the wire, so
// Breathing values can only be built through Breathing or MustBreathing;
// this is what lets the encoder guarantee it never fails.
type PulseMode struct {
	kind       PulseKind
	intervalMs uint16
}

// Solid returns the steady-on pulse mode.
func Solid() PulseMode {
	return PulseMode{kind: PulseSolid}
}

// DialTurn returns the pulse mode that flashes the LED on dial movement.
func DialTurn() PulseMode {
	return PulseMode{kind: PulseDialTurn}
}

// Breathing returns a breathing pulse mode with the given period in
// milliseconds. A zero interval is not representable on the wire and is
// rejected here rather than at encode time.
func Breathing(intervalMs uint16) (PulseMode, error) {
	if intervalMs == 0 {
		return PulseMode{}, fmt.Errorf("breathing interval must be nonzero")
	}
	return PulseMode{kind: PulseBreathing, intervalMs: intervalMs}, nil
}

// MustBreathing is like Breathing but panics on a zero interval.
// Intended for fixed intervals known at compile time.
func MustBreathing(intervalMs uint16) PulseMode {
	p, err := Breathing(intervalMs)
	if err != nil {
		panic(fmt.Sprintf("pastel: %v", err))
	}
	return p
}

// Kind returns the pulse behavior variant.
func (p PulseMode) Kind() PulseKind {
	return p.kind
}

// IntervalMs returns the breathing period in milliseconds.
// It is 0 for the Solid and DialTurn variants.
func (p PulseMode) IntervalMs() uint16 {
	return p.intervalMs
}
