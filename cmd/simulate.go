// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/spf13/cobra"
)

var (
	simulateScript string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Act as a Tableau panel for testing the host side",
	Long: `Simulates a Tableau panel on the other end of the connection.

The simulator emits a heartbeat every second, decodes and logs every
command it receives, and shuts down when a bootload command arrives.
With --script it also plays back a sequence of report events, which is
useful for exercising host software without real hardware.

Script events are whitespace or comma separated:

  dial:+3       dial turned (signed diff)
  press         button pressed
  release       button released
  emergency     emergency off
  error:0x0102  panel error code
  debug:text    debug message (no spaces)
  wait:500      pause in milliseconds before the next event

Example:
  easel simulate -p /dev/pts/3 --script "wait:1000 press wait:200 release dial:+5"`,
	Run: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateScript, "script", "", "Report events to play back")
	rootCmd.AddCommand(simulateCmd)
}

// scriptEvent is one step of a simulation script. delay is how long to
// wait before emitting report; a nil report is a trailing wait.
type scriptEvent struct {
	delay  time.Duration
	report pastel.Report
}

// parseScript turns a script string into a playable event sequence.
// Waits fold into the delay of the event that follows them.
func parseScript(script string) ([]scriptEvent, error) {
	tokens := strings.FieldsFunc(script, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})

	var events []scriptEvent
	var pendingDelay time.Duration

	for _, token := range tokens {
		name, value, _ := strings.Cut(token, ":")

		var report pastel.Report
		switch name {
		case "wait":
			ms, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid wait %q: %v", token, err)
			}
			pendingDelay += time.Duration(ms) * time.Millisecond
			continue

		case "dial":
			diff, err := strconv.ParseInt(value, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid dial diff %q: %v", token, err)
			}
			report = pastel.DialValue{Diff: int8(diff)}

		case "press":
			report = pastel.Press{}

		case "release":
			report = pastel.Release{}

		case "emergency":
			report = pastel.EmergencyOff{}

		case "error":
			code, err := strconv.ParseUint(value, 0, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid error code %q: %v", token, err)
			}
			report = pastel.ErrorReport{Code: uint16(code)}

		case "debug":
			debug, err := pastel.NewDebug(value)
			if err != nil {
				return nil, fmt.Errorf("invalid debug %q: %v", token, err)
			}
			report = debug

		default:
			return nil, fmt.Errorf("unknown script event %q", token)
		}

		events = append(events, scriptEvent{delay: pendingDelay, report: report})
		pendingDelay = 0
	}

	if pendingDelay > 0 {
		events = append(events, scriptEvent{delay: pendingDelay})
	}

	return events, nil
}

func runSimulate(cmd *cobra.Command, args []string) {
	events, err := parseScript(simulateScript)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Simulating a Tableau panel on %s\n", connInfo)
	if len(events) > 0 {
		fmt.Printf("Script: %d events\n", len(events))
	}
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	reader := pastel.NewCommandReader()
	bootChan := make(chan struct{}, 1)
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

			poll := pollCommands(reader, buf[:n])
			for _, command := range poll.commands {
				fmt.Printf("[%s] <- %s\n", time.Now().Format("15:04:05.000"), pastel.FormatCommand(command))
				if _, ok := command.(pastel.Bootload); ok {
					select {
					case bootChan <- struct{}{}:
					default:
					}
				}
			}
			for _, malformed := range poll.malformed {
				fmt.Printf("[%s] <- MALFORMED: % X\n", time.Now().Format("15:04:05.000"), malformed.Window)
			}
			for i := 0; i < poll.overflows; i++ {
				fmt.Printf("[%s] <- stream buffer overflow, reader reset\n", time.Now().Format("15:04:05.000"))
			}
		}
	}()

	// Announce ourselves the way the firmware does on boot
	greeting := pastel.MustDebug("simulator online")
	if err := sendReport(conn, greeting); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("[%s] -> %s\n", time.Now().Format("15:04:05.000"), pastel.FormatReport(greeting))

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	idx := 0
	var eventTimer *time.Timer
	var eventChan <-chan time.Time
	if len(events) > 0 {
		eventTimer = time.NewTimer(events[0].delay)
		defer eventTimer.Stop()
		eventChan = eventTimer.C
	}

	emit := func(report pastel.Report) bool {
		if report == nil {
			return true
		}
		if err := sendReport(conn, report); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return false
		}
		fmt.Printf("[%s] -> %s\n", time.Now().Format("15:04:05.000"), pastel.FormatReport(report))
		return true
	}

	for {
		select {
		case <-heartbeat.C:
			if err := sendReport(conn, pastel.Heartbeat{}); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
				return
			}

		case <-eventChan:
			if !emit(events[idx].report) {
				return
			}
			idx++
			// Run any immediately following events now
			for idx < len(events) && events[idx].delay == 0 {
				if !emit(events[idx].report) {
					return
				}
				idx++
			}
			if idx < len(events) {
				eventTimer.Reset(events[idx].delay)
			} else {
				eventChan = nil
				fmt.Println("Script finished")
			}

		case <-bootChan:
			fmt.Println("Bootload command received, shutting down")
			return

		case <-closedChan:
			fmt.Println("Connection closed")
			return

		case <-sigChan:
			fmt.Println("\nInterrupted")
			return
		}
	}
}
