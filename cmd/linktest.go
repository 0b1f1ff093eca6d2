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
	linkTestDuration int
	linkTestShowRaw  bool
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Soak test a connection and verify the report stream decodes cleanly",
	Long: `Runs a timed soak test against a Tableau panel connection.

Every chunk received during the test window is fed through the stream
reader. The test passes when at least one report decoded and the stream
produced no malformed windows or buffer overflows.

Useful for qualifying a new cable, serial adapter, or Slate bridge before
trusting it in a bench setup.

Exit codes:
  0 - test passed
  1 - test failed (no reports, stream errors, or connection lost)
  2 - could not open the connection`,
	Run: runLinkTest,
}

func init() {
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
	linkTestCmd.Flags().BoolVar(&linkTestShowRaw, "show-raw", false, "Log raw chunk bytes as they arrive")
	rootCmd.AddCommand(linkTestCmd)
}

func runLinkTest(cmd *cobra.Command, args []string) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Println("=== LINK TEST ===")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration:   %d seconds\n\n", linkTestDuration)

	reader := pastel.NewReportReader()
	stats := pastel.NewStatistics()

	chunkChan := make(chan []byte, 10)
	closedChan := make(chan struct{})
	go func() {
		defer close(closedChan)
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err != ErrConnectionClosed {
					fmt.Fprintf(os.Stderr, "ERROR: read failed: %v\n", err)
				}
				return
			}
			if n == 0 {
				continue
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunkChan <- chunk
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	deadline := time.After(time.Duration(linkTestDuration) * time.Second)

	totalBytes := 0
	var firstMalformed []byte
	connectionLost := false

loop:
	for {
		select {
		case chunk := <-chunkChan:
			totalBytes += len(chunk)
			if linkTestShowRaw {
				fmt.Printf("[%s] RX % X\n", time.Now().Format("15:04:05.000"), chunk)
			}

			poll := pollReports(reader, chunk)
			for _, report := range poll.reports {
				stats.Record(report)
			}
			for _, malformed := range poll.malformed {
				stats.RecordError(malformed)
				if firstMalformed == nil {
					firstMalformed = malformed.Window
				}
			}
			for i := 0; i < poll.overflows; i++ {
				stats.RecordError(pastel.ErrBufferFull)
			}

		case <-ticker.C:
			fmt.Printf("[%s] still connected, %d reports, %d bytes\n",
				time.Now().Format("15:04:05.000"), stats.TotalReports, totalBytes)

		case <-closedChan:
			connectionLost = true
			break loop

		case <-deadline:
			break loop
		}
	}
	conn.Close()

	fmt.Println("\n=== RESULTS ===")
	fmt.Printf("Bytes received:   %d\n", totalBytes)
	fmt.Printf("Reports decoded:  %d\n", stats.TotalReports)
	fmt.Printf("Malformed:        %d\n", stats.Malformed)
	fmt.Printf("Buffer overflows: %d\n", stats.BufferOverflows)

	failures := []string{}
	if connectionLost {
		failures = append(failures, "connection lost before the test finished")
	}
	if stats.TotalReports == 0 {
		failures = append(failures, "no reports decoded")
	}
	if stats.Malformed > 0 {
		failures = append(failures, fmt.Sprintf("%d malformed windows (first: % X)", stats.Malformed, firstMalformed))
	}
	if stats.BufferOverflows > 0 {
		failures = append(failures, fmt.Sprintf("%d buffer overflows", stats.BufferOverflows))
	}

	if len(failures) == 0 {
		fmt.Println("\nRESULT: PASSED")
		os.Exit(0)
	}

	fmt.Println("\nRESULT: FAILED")
	for _, reason := range failures {
		fmt.Printf("  - %s\n", reason)
	}
	os.Exit(1)
}
