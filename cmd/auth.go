// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

// keyringService is the service name under which passwords are stored.
const keyringService = "easel"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored WebSocket credentials",
	Long: `Store or remove the WebSocket password in the system keyring.

Passwords are stored per username under the "easel" keyring service and are
used automatically when connecting with --url and --username. The EASEL_PASSWORD
environment variable takes precedence over the keyring when set.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Store a password for a username in the system keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		fmt.Fprintf(os.Stderr, "Password for %s: ", username)
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %v", err)
		}
		if len(passwordBytes) == 0 {
			return fmt.Errorf("empty password not stored")
		}

		if err := keyring.Set(keyringService, username, string(passwordBytes)); err != nil {
			return fmt.Errorf("failed to store password: %v", err)
		}

		fmt.Printf("Password stored for %s\n", username)
		return nil
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear <username>",
	Short: "Remove a stored password from the system keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		err := keyring.Delete(keyringService, username)
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Printf("No password stored for %s\n", username)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to remove password: %v", err)
		}

		fmt.Printf("Password removed for %s\n", username)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authClearCmd)
	rootCmd.AddCommand(authCmd)
}
