// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/spf13/cobra"
)

var (
	sendPulse   string
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single command to the panel",
	Long: `Encode and send one Pastel command over the connection, then exit.

Targets accept the names "front" and "rear" (0 and 1) or a raw index.

Examples:
  easel send power 0 on
  easel send brightness front 40000
  easel send temperature rear 17000
  easel send fan 0 1500
  easel send led 255 128 0 --pulse breathing:4000
  easel send bootload`,
}

var sendPowerCmd = &cobra.Command{
	Use:   "power <slot> <on|off>",
	Short: "Switch a power slot on or off",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseUint8(args[0], "slot")
		if err != nil {
			return err
		}
		state, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return sendOne(pastel.PowerCycler{Slot: slot, State: state})
	},
}

var sendBrightnessCmd = &cobra.Command{
	Use:   "brightness <target> <value>",
	Short: "Set a backlight brightness (0-65535)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		value, err := parseUint16(args[1], "brightness")
		if err != nil {
			return err
		}
		return sendOne(pastel.Brightness{Target: target, Value: value})
	},
}

var sendTemperatureCmd = &cobra.Command{
	Use:   "temperature <target> <value>",
	Short: "Set a heater temperature target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		value, err := parseUint16(args[1], "temperature")
		if err != nil {
			return err
		}
		return sendOne(pastel.Temperature{Target: target, Value: value})
	},
}

var sendFanCmd = &cobra.Command{
	Use:   "fan <target> <speed>",
	Short: "Set a fan speed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		speed, err := parseUint16(args[1], "fan speed")
		if err != nil {
			return err
		}
		return sendOne(pastel.FanSpeed{Target: target, Value: speed})
	},
}

var sendLedCmd = &cobra.Command{
	Use:   "led <r> <g> <b>",
	Short: "Set the dial LED color and pulse mode",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseUint8(args[0], "red")
		if err != nil {
			return err
		}
		g, err := parseUint8(args[1], "green")
		if err != nil {
			return err
		}
		b, err := parseUint8(args[2], "blue")
		if err != nil {
			return err
		}
		pulse, err := parsePulseMode(sendPulse)
		if err != nil {
			return err
		}
		return sendOne(pastel.Led{R: r, G: g, B: b, Pulse: pulse})
	},
}

var sendBootloadCmd = &cobra.Command{
	Use:   "bootload",
	Short: "Reboot the panel into its bootloader",
	Long: `Send the BOOTLOAD command, rebooting the panel into its bootloader
for a firmware update. The panel stops reporting until it is reflashed or
power-cycled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendOne(pastel.Bootload{})
	},
}

func init() {
	sendCmd.PersistentFlags().BoolVarP(&sendVerbose, "verbose", "v", false, "Print the encoded wire bytes")
	sendLedCmd.Flags().StringVar(&sendPulse, "pulse", "solid", "Pulse mode: solid, dial_turn, or breathing:<ms>")

	sendCmd.AddCommand(sendPowerCmd)
	sendCmd.AddCommand(sendBrightnessCmd)
	sendCmd.AddCommand(sendTemperatureCmd)
	sendCmd.AddCommand(sendFanCmd)
	sendCmd.AddCommand(sendLedCmd)
	sendCmd.AddCommand(sendBootloadCmd)
	rootCmd.AddCommand(sendCmd)
}

// sendOne opens the connection, writes a single command, and reports it.
func sendOne(c pastel.Command) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := sendCommand(conn, c); err != nil {
		return err
	}

	if sendVerbose {
		fmt.Printf("TX: % X\n", pastel.EncodeCommand(c))
	}
	fmt.Printf("Sent %s via %s\n", pastel.FormatCommand(c), connInfo)
	return nil
}

// parseUint8 parses a 0-255 numeric argument.
func parseUint8(s, what string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q (expected 0-255)", what, s)
	}
	return uint8(v), nil
}

// parseUint16 parses a 0-65535 numeric argument.
func parseUint16(s, what string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q (expected 0-65535)", what, s)
	}
	return uint16(v), nil
}

// parseOnOff parses a power state argument.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "1":
		return true, nil
	case "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q (use on or off)", s)
}

// parseTarget parses a display target: front, rear, or a raw index.
func parseTarget(s string) (uint8, error) {
	switch s {
	case "front":
		return 0, nil
	case "rear":
		return 1, nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid target %q (use front, rear, or 0-255)", s)
	}
	return uint8(v), nil
}

// parsePulseMode parses a pulse mode argument: solid, dial_turn, or
// breathing:<interval-ms>.
func parsePulseMode(s string) (pastel.PulseMode, error) {
	switch {
	case s == "solid":
		return pastel.Solid(), nil
	case s == "dial_turn":
		return pastel.DialTurn(), nil
	case strings.HasPrefix(s, "breathing:"):
		raw := strings.TrimPrefix(s, "breathing:")
		interval, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return pastel.PulseMode{}, fmt.Errorf("invalid breathing interval %q (expected 1-65535 ms)", raw)
		}
		return pastel.Breathing(uint16(interval))
	}
	return pastel.PulseMode{}, fmt.Errorf("unknown pulse mode %q (use solid, dial_turn, or breathing:<ms>)", s)
}
