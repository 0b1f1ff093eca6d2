// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Easel - Tableau Panel Protocol Workbench
//
// A CLI tool for monitoring, driving, and simulating Tableau bench panels
// speaking the Pastel serial protocol.

package main

import (
	"os"

	"github.com/Thermoquad/easel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
