// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"strings"
	"testing"
)

// ============================================================
// PulseMode Construction
// ============================================================

func TestBreathing_RejectsZeroInterval(t *testing.T) {
	_, err := Breathing(0)
	if err == nil {
		t.Fatal("Breathing(0) should fail")
	}
}

func TestBreathing_ValidIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval uint16
	}{
		{"minimum", 1},
		{"typical", 4000},
		{"maximum", 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Breathing(tt.interval)
			if err != nil {
				t.Fatalf("Breathing(%d) failed: %v", tt.interval, err)
			}
			if p.Kind() != PulseBreathing {
				t.Errorf("Kind() = %v, want PulseBreathing", p.Kind())
			}
			if p.IntervalMs() != tt.interval {
				t.Errorf("IntervalMs() = %d, want %d", p.IntervalMs(), tt.interval)
			}
		})
	}
}

func TestMustBreathing_PanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBreathing(0) should panic")
		}
	}()
	MustBreathing(0)
}

func TestPulseMode_ZeroValueIsSolid(t *testing.T) {
	var p PulseMode
	if p.Kind() != PulseSolid {
		t.Errorf("zero value Kind() = %v, want PulseSolid", p.Kind())
	}
	if p != Solid() {
		t.Error("zero value != Solid()")
	}
	if p.IntervalMs() != 0 {
		t.Errorf("zero value IntervalMs() = %d, want 0", p.IntervalMs())
	}
}

func TestDialTurn(t *testing.T) {
	p := DialTurn()
	if p.Kind() != PulseDialTurn {
		t.Errorf("Kind() = %v, want PulseDialTurn", p.Kind())
	}
	if p.IntervalMs() != 0 {
		t.Errorf("IntervalMs() = %d, want 0", p.IntervalMs())
	}
}

// ============================================================
// Debug Construction
// ============================================================

func TestNewDebug(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", false},
		{"ascii", "panel ready", false},
		{"multibyte utf8", "25°C ✓", false},
		{"exactly max length", strings.Repeat("x", MaxDebugTextLen), false},
		{"one over max", strings.Repeat("x", MaxDebugTextLen+1), true},
		{"invalid utf8", string([]byte{0xFF, 0xFE}), true},
		{"truncated rune", string([]byte{'o', 'k', 0xC3}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDebug(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewDebug(%q) should fail", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDebug failed: %v", err)
			}
			if d.Text() != tt.text {
				t.Errorf("Text() = %q, want %q", d.Text(), tt.text)
			}
			if d.WireLen() != debugHeaderLen+len(tt.text) {
				t.Errorf("WireLen() = %d, want %d", d.WireLen(), debugHeaderLen+len(tt.text))
			}
		})
	}
}

func TestMustDebug_PanicsOnOversize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustDebug should panic on oversized text")
		}
	}()
	MustDebug(strings.Repeat("x", MaxDebugTextLen+1))
}

// ============================================================
// Wire Metadata
// ============================================================

func TestCommandWireLens(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want int
	}{
		{"power cycler", PowerCycler{}, 3},
		{"brightness", Brightness{}, 4},
		{"temperature", Temperature{}, 4},
		{"led", Led{}, 7},
		{"bootload", Bootload{}, 1},
		{"fan speed", FanSpeed{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.WireLen(); got != tt.want {
				t.Errorf("WireLen() = %d, want %d", got, tt.want)
			}
			if got := len(EncodeCommand(tt.cmd)); got != tt.want {
				t.Errorf("len(EncodeCommand) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandTags(t *testing.T) {
	tests := []struct {
		cmd  Command
		want byte
	}{
		{PowerCycler{}, 'A'},
		{Brightness{}, 'B'},
		{Temperature{}, 'C'},
		{Led{}, 'D'},
		{Bootload{}, 'E'},
		{FanSpeed{}, 'F'},
	}

	for _, tt := range tests {
		if got := tt.cmd.Tag(); got != tt.want {
			t.Errorf("%s Tag() = %c, want %c", CommandName(tt.cmd), got, tt.want)
		}
	}
}

func TestReportTags(t *testing.T) {
	tests := []struct {
		report Report
		want   byte
	}{
		{Heartbeat{}, 'H'},
		{DialValue{}, 'V'},
		{Press{}, 'P'},
		{Release{}, 'R'},
		{EmergencyOff{}, 'X'},
		{ErrorReport{}, 'E'},
		{Debug{}, 'D'},
	}

	for _, tt := range tests {
		if got := tt.report.Tag(); got != tt.want {
			t.Errorf("%s Tag() = %c, want %c", ReportName(tt.report), got, tt.want)
		}
	}
}

func TestConstants(t *testing.T) {
	// These values are shared with the panel firmware and must not drift.
	if MaxCommandLen != 8 {
		t.Errorf("MaxCommandLen = %d, want 8", MaxCommandLen)
	}
	if MaxReportLen != 256 {
		t.Errorf("MaxReportLen = %d, want 256", MaxReportLen)
	}
	if MaxDebugTextLen != 254 {
		t.Errorf("MaxDebugTextLen = %d, want 254", MaxDebugTextLen)
	}
	if StreamBufferCapacity != 256 {
		t.Errorf("StreamBufferCapacity = %d, want 256", StreamBufferCapacity)
	}
}
