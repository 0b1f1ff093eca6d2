// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

// Command is a host → panel message. The variant set is fixed by the wire
// format; the unexported encode method keeps the interface closed to this
// package.
type Command interface {
	// Tag returns the wire tag byte identifying the variant.
	Tag() byte
	// WireLen returns the encoded length in bytes, tag included.
	WireLen() int

	appendCommand(dst []byte) []byte
}

// PowerCycler switches one of the panel's relay slots on or off.
type PowerCycler struct {
	Slot  uint8
	State bool
}

// Brightness sets the brightness of a light target (0 front, 1 back).
type Brightness struct {
	Target uint8
	Value  uint16
}

// Temperature sets the color temperature of a light target (0 front, 1 back).
type Temperature struct {
	Target uint8
	Value  uint16
}

// Led sets the color and pulse behavior of the panel's status LED.
type Led struct {
	R, G, B uint8
	Pulse   PulseMode
}

// Bootload drops the panel into its bootloader for firmware flashing.
// The panel stops emitting reports once it acts on this.
type Bootload struct{}

// FanSpeed sets the speed of a fan target.
type FanSpeed struct {
	Target uint8
	Value  uint16
}

// Tag implements Command.
func (PowerCycler) Tag() byte { return TagPowerCycler }

// Tag implements Command.
func (Brightness) Tag() byte { return TagBrightness }

// Tag implements Command.
func (Temperature) Tag() byte { return TagTemperature }

// Tag implements Command.
func (Led) Tag() byte { return TagLed }

// Tag implements Command.
func (Bootload) Tag() byte { return TagBootload }

// Tag implements Command.
func (FanSpeed) Tag() byte { return TagFanSpeed }

// WireLen implements Command.
func (PowerCycler) WireLen() int { return powerCyclerLen }

// WireLen implements Command.
func (Brightness) WireLen() int { return brightnessLen }

// WireLen implements Command.
func (Temperature) WireLen() int { return temperatureLen }

// WireLen implements Command.
func (Led) WireLen() int { return ledLen }

// WireLen implements Command.
func (Bootload) WireLen() int { return bootloadLen }

// WireLen implements Command.
func (FanSpeed) WireLen() int { return fanSpeedLen }
