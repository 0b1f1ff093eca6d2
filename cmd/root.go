// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Tableau Panel Protocol Workbench",
	Long: `Easel - A CLI tool for working with Tableau bench panels over the Pastel protocol.

Provides commands for live report monitoring, command sending, connectivity
probing, session capture and replay, and an interactive control surface. A
panel simulator is included for exercising host software without hardware.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Defaults for the connection flags can be stored in ~/.config/easel/config.yaml.

For WebSocket authentication, the password is read from the EASEL_PASSWORD
environment variable, then the system keyring (see "easel auth"), then
prompted interactively. The --password flag is intentionally not provided to
avoid leaking credentials in shell history.`,
	Version:           "1.2.0",
	PersistentPreRunE: applyConfigDefaults,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
