// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import "fmt"

// FormatCommand formats a command into a single human-readable line,
// without a trailing newline.
func FormatCommand(c Command) string {
	switch v := c.(type) {
	case PowerCycler:
		return fmt.Sprintf("POWER_CYCLER slot=%d state=%v", v.Slot, v.State)
	case Brightness:
		return fmt.Sprintf("BRIGHTNESS target=%d value=%d", v.Target, v.Value)
	case Temperature:
		return fmt.Sprintf("TEMPERATURE target=%d value=%d", v.Target, v.Value)
	case Led:
		return fmt.Sprintf("LED r=%d g=%d b=%d pulse=%s", v.R, v.G, v.B, FormatPulseMode(v.Pulse))
	case Bootload:
		return "BOOTLOAD"
	case FanSpeed:
		return fmt.Sprintf("FAN_SPEED target=%d value=%d", v.Target, v.Value)
	default:
		return fmt.Sprintf("UNKNOWN_COMMAND (0x%02X)", c.Tag())
	}
}

// FormatReport formats a report into a single human-readable line,
// without a trailing newline.
func FormatReport(r Report) string {
	switch v := r.(type) {
	case Heartbeat:
		return "HEARTBEAT"
	case DialValue:
		return fmt.Sprintf("DIAL_VALUE diff=%+d", v.Diff)
	case Press:
		return "PRESS"
	case Release:
		return "RELEASE"
	case EmergencyOff:
		return "EMERGENCY_OFF"
	case ErrorReport:
		return fmt.Sprintf("ERROR code=0x%04X", v.Code)
	case Debug:
		return fmt.Sprintf("DEBUG %q", v.Text())
	default:
		return fmt.Sprintf("UNKNOWN_REPORT (0x%02X)", r.Tag())
	}
}

// CommandName returns the bare variant name of a command.
func CommandName(c Command) string {
	switch c.(type) {
	case PowerCycler:
		return "POWER_CYCLER"
	case Brightness:
		return "BRIGHTNESS"
	case Temperature:
		return "TEMPERATURE"
	case Led:
		return "LED"
	case Bootload:
		return "BOOTLOAD"
	case FanSpeed:
		return "FAN_SPEED"
	default:
		return "UNKNOWN_COMMAND"
	}
}

// ReportName returns the bare variant name of a report.
func ReportName(r Report) string {
	switch r.(type) {
	case Heartbeat:
		return "HEARTBEAT"
	case DialValue:
		return "DIAL_VALUE"
	case Press:
		return "PRESS"
	case Release:
		return "RELEASE"
	case EmergencyOff:
		return "EMERGENCY_OFF"
	case ErrorReport:
		return "ERROR"
	case Debug:
		return "DEBUG"
	default:
		return "UNKNOWN_REPORT"
	}
}

// FormatPulseMode returns the human-readable form of a pulse mode,
// including the interval for breathing.
func FormatPulseMode(p PulseMode) string {
	switch p.Kind() {
	case PulseDialTurn:
		return "DIAL_TURN"
	case PulseBreathing:
		return fmt.Sprintf("BREATHING(%dms)", p.IntervalMs())
	default:
		return "SOLID"
	}
}
