// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/spf13/cobra"
)

var (
	probeTimeout   int
	probeHeartbeat bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by waiting for a valid panel report",
	Long: `Wait for a valid Pastel report on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any valid
Pastel report. Malformed bytes are skipped while waiting. With --heartbeat,
only a HEARTBEAT report counts, which confirms panel firmware is actually
running rather than some other device chattering on the line.

Exit codes:
  0 - Report received before timeout
  1 - Timeout reached without receiving a valid report
  2 - Connection error

Useful for testing connectivity to a panel or the Slate WebSocket bridge.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a report")
	probeCmd.Flags().BoolVar(&probeHeartbeat, "heartbeat", false, "Require a HEARTBEAT report specifically")
}

func runProbe(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Easel - Panel Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	if probeHeartbeat {
		fmt.Printf("Waiting for HEARTBEAT report...\n\n")
	} else {
		fmt.Printf("Waiting for valid Pastel report...\n\n")
	}

	reader := pastel.NewReportReader()
	buf := make([]byte, 128)

	// Channel for report reception
	reportChan := make(chan pastel.Report, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		invalidBytes := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			poll := pollReports(reader, buf[:n])
			invalidBytes += poll.discarded

			for _, report := range poll.reports {
				if probeHeartbeat {
					if _, ok := report.(pastel.Heartbeat); !ok {
						continue
					}
				}

				// Got a qualifying report!
				if invalidBytes > 0 {
					fmt.Printf("(skipped %d invalid bytes before sync)\n", invalidBytes)
				}
				reportChan <- report
				return
			}
		}
	}()

	// Wait for report or timeout
	select {
	case report := <-reportChan:
		fmt.Printf("SUCCESS: Received valid report\n")
		fmt.Printf("  Report: %s\n", pastel.FormatReport(report))
		fmt.Printf("  Tag: '%c' (0x%02X)\n", report.Tag(), report.Tag())
		fmt.Printf("  Length: %d bytes\n", report.WireLen())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid report received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
