// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	showRaw       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor and decode the panel report stream",
	Long: `Decode and display Tableau panel reports as they arrive, with statistics.

This command tracks the live panel state (dial position, button, heartbeat)
and flags stream problems:
  - Malformed messages (unknown tags, bad pulse modes, invalid debug text)
  - Stream buffer overflows
  - Stale heartbeats

By default heartbeats and dial turns only update the state display. Use
--show-all to log every report, and --show-raw to append the wire bytes.

Statistics summaries are printed at configurable intervals in text mode and
shown continuously in the TUI.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all reports (not just events and errors)")
	monitorCmd.Flags().BoolVar(&showRaw, "show-raw", false, "Show raw wire bytes alongside each report")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runMonitorTUI(conn, connInfo)
	}
	return runMonitorText(conn, connInfo)
}

// printReport prints a decoded report with timestamp
func printReport(report pastel.Report) {
	timestamp := time.Now().Format("15:04:05.000")
	if showRaw {
		fmt.Printf("[%s] %s  <% X>\n", timestamp, pastel.FormatReport(report), pastel.EncodeReport(report))
	} else {
		fmt.Printf("[%s] %s\n", timestamp, pastel.FormatReport(report))
	}
}

// printMalformed prints a rejected window in highlighted format
func printMalformed(window []byte, discarded int) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m % X\n", timestamp, window)
	fmt.Printf("  >>> STREAM RESET (%d bytes dropped) <<<\n\n", discarded)
}

// printOverflow prints a buffer overflow event
func printOverflow(discarded int) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mBUFFER OVERFLOW:\033[0m stream outran the decoder\n", timestamp)
	fmt.Printf("  >>> STREAM RESET (%d bytes dropped) <<<\n\n", discarded)
}

// interestingReport reports whether a report should be logged without
// --show-all. Heartbeats and dial turns arrive constantly and only update
// the state display.
func interestingReport(r pastel.Report) bool {
	switch r.(type) {
	case pastel.Heartbeat, pastel.DialValue:
		return false
	}
	return true
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(conn Connection, connInfo string) error {
	reader := pastel.NewReportReader()
	synchronized := false
	invalidBytesBeforeSync := 0

	// Create TUI program
	m := initialMonitorModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	// Connection reader goroutine
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					p.Send(monitorClosedMsg{})
					return
				}
				time.Sleep(10 * time.Millisecond)
				continue
			}

			poll := pollReports(reader, buf[:n])

			if !synchronized && len(poll.reports) > 0 {
				// First report! We're now synchronized
				synchronized = true
				p.Send(monitorSyncMsg{invalidBytes: invalidBytesBeforeSync})
			}
			if !synchronized {
				// Not synced yet, just count discarded bytes
				invalidBytesBeforeSync += poll.discarded
				continue
			}

			if len(poll.reports) > 0 || len(poll.malformed) > 0 || poll.overflows > 0 {
				p.Send(monitorDataMsg{poll: poll})
			}
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}

// runMonitorText runs the monitor in text mode
func runMonitorText(conn Connection, connInfo string) error {
	fmt.Printf("Easel - Report Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All reports\n")
	} else {
		fmt.Printf("Mode: Events only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reader := pastel.NewReportReader()
	stats := pastel.NewStatistics()
	buf := make([]byte, 128)

	// Sync tracking - ignore malformed input until the first valid report
	synchronized := false
	invalidBytesBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking connection reads
	chunkChan := make(chan []byte, 10)
	go func() {
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					close(chunkChan)
					return
				}
				log.Printf("Read error: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			chunkChan <- data
		}
	}()

	for {
		select {
		case data, ok := <-chunkChan:
			if !ok {
				fmt.Println("Connection closed")
				return nil
			}

			poll := pollReports(reader, data)

			for _, report := range poll.reports {
				if !synchronized {
					// First report! We're now synchronized
					synchronized = true
					if invalidBytesBeforeSync > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", invalidBytesBeforeSync)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}

				stats.Record(report)
				if showAll || interestingReport(report) {
					printReport(report)
				}
			}

			if !synchronized {
				// Not synced yet, just count discarded bytes
				invalidBytesBeforeSync += poll.discarded
				continue
			}

			for _, malformed := range poll.malformed {
				stats.RecordError(malformed)
				printMalformed(malformed.Window, poll.discarded)
			}
			for i := 0; i < poll.overflows; i++ {
				stats.RecordError(pastel.ErrBufferFull)
				printOverflow(poll.discarded)
			}

		case <-statsTicker.C:
			// Print statistics
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
