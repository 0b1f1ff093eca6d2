// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	captureDuration int
)

const (
	sessionFormat  = "easel-session"
	sessionVersion = 1
)

// sessionHeader opens every session file and identifies the format.
type sessionHeader struct {
	Format      string `cbor:"format"`
	Version     uint8  `cbor:"version"`
	Connection  string `cbor:"connection"`
	StartedUnix int64  `cbor:"started_unix"`
}

// sessionRecord is one captured chunk of the report stream. The cbor
// keys are the session file format; replay depends on them.
type sessionRecord struct {
	OffsetMs uint64 `cbor:"offset_ms"`
	Raw      []byte `cbor:"raw"`
}

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Record the report stream to a session file",
	Long: `Records the raw report stream from a Tableau panel to a session file.

Each chunk read from the connection is stored with its millisecond offset
from the start of the capture, so the session can later be replayed with
the original timing. Reports are decoded and printed while recording.

Use 'easel replay' to play a session file back through the decoder.`,
	Args: cobra.ExactArgs(1),
	Run:  runCapture,
}

func init() {
	captureCmd.Flags().IntVar(&captureDuration, "duration", 0, "Stop after this many seconds (0 = until interrupted)")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) {
	path := args[0]

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	file, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to create %s: %v\n", path, err)
		os.Exit(2)
	}
	defer file.Close()

	encoder := cbor.NewEncoder(file)
	header := sessionHeader{
		Format:      sessionFormat,
		Version:     sessionVersion,
		Connection:  connInfo,
		StartedUnix: time.Now().Unix(),
	}
	if err := encoder.Encode(header); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to write session header: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Capturing from %s to %s\n", connInfo, path)
	if captureDuration > 0 {
		fmt.Printf("Stopping after %d seconds\n\n", captureDuration)
	} else {
		fmt.Printf("Press Ctrl+C to stop\n\n")
	}

	reader := pastel.NewReportReader()
	stats := pastel.NewStatistics()
	start := time.Now()

	chunkChan := make(chan sessionRecord, 16)
	go func() {
		defer close(chunkChan)
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
			raw := make([]byte, n)
			copy(raw, buf[:n])
			chunkChan <- sessionRecord{
				OffsetMs: uint64(time.Since(start).Milliseconds()),
				Raw:      raw,
			}
		}
	}()

	var stopChan <-chan time.Time
	if captureDuration > 0 {
		stopChan = time.After(time.Duration(captureDuration) * time.Second)
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	chunks := 0
	totalBytes := 0

	for {
		select {
		case rec, ok := <-chunkChan:
			if !ok {
				finishCapture(start, chunks, totalBytes, stats)
				return
			}
			if err := encoder.Encode(rec); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: failed to write record: %v\n", err)
				os.Exit(1)
			}
			chunks++
			totalBytes += len(rec.Raw)

			offset := float64(rec.OffsetMs) / 1000.0
			poll := pollReports(reader, rec.Raw)
			for _, report := range poll.reports {
				stats.Record(report)
				fmt.Printf("[+%8.3fs] %s\n", offset, pastel.FormatReport(report))
			}
			for _, malformed := range poll.malformed {
				stats.RecordError(malformed)
				fmt.Printf("[+%8.3fs] MALFORMED: % X\n", offset, malformed.Window)
			}
			for i := 0; i < poll.overflows; i++ {
				stats.RecordError(pastel.ErrBufferFull)
				fmt.Printf("[+%8.3fs] stream buffer overflow, reader reset\n", offset)
			}

		case <-stopChan:
			conn.Close()
			finishCapture(start, chunks, totalBytes, stats)
			return

		case <-sigChan:
			fmt.Println("\nInterrupted")
			conn.Close()
			finishCapture(start, chunks, totalBytes, stats)
			return
		}
	}
}

func finishCapture(start time.Time, chunks, totalBytes int, stats *pastel.Statistics) {
	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Printf("\nCaptured %d chunks (%d bytes) in %s\n\n", chunks, totalBytes, elapsed)
	fmt.Println(stats.String())
}
