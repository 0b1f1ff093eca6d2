// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	replaySpeed   float64
	replayInstant bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a captured session through the decoder",
	Long: `Replays a session file recorded with 'easel capture'.

The recorded chunks are fed through the same stream reader the live tools
use, preserving the original chunk boundaries and (by default) the original
timing. No connection is needed, which makes this useful for reproducing
decode problems from a captured session.

Use --speed to play faster or slower than real time, or --instant to
decode the whole session without sleeping.`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayInstant, "instant", false, "Decode without sleeping between chunks")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	if replaySpeed <= 0 {
		fmt.Fprintf(os.Stderr, "ERROR: --speed must be positive, got %g\n", replaySpeed)
		os.Exit(2)
	}

	file, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	defer file.Close()

	decoder := cbor.NewDecoder(file)

	var header sessionHeader
	if err := decoder.Decode(&header); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s is not a session file: %v\n", args[0], err)
		os.Exit(2)
	}
	if header.Format != sessionFormat {
		fmt.Fprintf(os.Stderr, "ERROR: %s is not a session file\n", args[0])
		os.Exit(2)
	}
	if header.Version != sessionVersion {
		fmt.Fprintf(os.Stderr, "ERROR: unsupported session version %d\n", header.Version)
		os.Exit(2)
	}

	fmt.Printf("Replaying %s", args[0])
	if replayInstant {
		fmt.Printf(" (instant)")
	} else {
		fmt.Printf(" at %gx", replaySpeed)
	}
	fmt.Printf("\nRecorded from %s on %s\n\n",
		header.Connection, time.Unix(header.StartedUnix, 0).Format("01/02/06 15:04:05"))
	reader := pastel.NewReportReader()
	stats := pastel.NewStatistics()
	start := time.Now()

	chunks := 0
	totalBytes := 0

	for {
		var rec sessionRecord
		if err := decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "ERROR: failed to decode record %d: %v\n", chunks, err)
			os.Exit(1)
		}

		if !replayInstant {
			target := time.Duration(float64(rec.OffsetMs)/replaySpeed) * time.Millisecond
			if sleep := target - time.Since(start); sleep > 0 {
				time.Sleep(sleep)
			}
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
	}

	fmt.Printf("\nReplayed %d chunks (%d bytes)\n\n", chunks, totalBytes)
	fmt.Println(stats.String())
}
