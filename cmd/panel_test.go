// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/Thermoquad/easel/pkg/pastel"
)

func TestPollReportsCleanStream(t *testing.T) {
	reader := pastel.NewReportReader()

	var stream []byte
	stream = pastel.AppendReport(stream, pastel.Heartbeat{})
	stream = pastel.AppendReport(stream, pastel.Press{})
	stream = pastel.AppendReport(stream, pastel.Release{})

	poll := pollReports(reader, stream)

	if len(poll.reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(poll.reports))
	}
	if len(poll.malformed) != 0 || poll.overflows != 0 || poll.discarded != 0 {
		t.Errorf("clean stream produced errors: %+v", poll)
	}
	if reader.Buffered() != 0 {
		t.Errorf("expected empty buffer, got %d bytes", reader.Buffered())
	}
}

func TestPollReportsAcrossChunks(t *testing.T) {
	reader := pastel.NewReportReader()
	full := pastel.EncodeReport(pastel.ErrorReport{Code: 0x0102})

	first := pollReports(reader, full[:1])
	if len(first.reports) != 0 {
		t.Fatalf("expected no reports from a partial message, got %d", len(first.reports))
	}
	if reader.Buffered() != 1 {
		t.Fatalf("expected 1 buffered byte, got %d", reader.Buffered())
	}

	second := pollReports(reader, full[1:])
	if len(second.reports) != 1 {
		t.Fatalf("expected 1 report after completion, got %d", len(second.reports))
	}
	errReport, ok := second.reports[0].(pastel.ErrorReport)
	if !ok {
		t.Fatalf("expected ErrorReport, got %T", second.reports[0])
	}
	if errReport.Code != 0x0102 {
		t.Errorf("expected code 0x0102, got 0x%04X", errReport.Code)
	}
}

// A chunk with more complete messages than one reader pass allows must
// still come back in full from a single poll.
func TestPollReportsDrainsQueueFull(t *testing.T) {
	reader := pastel.NewReportReader()

	var stream []byte
	for i := 0; i < 2*pollBatchSize; i++ {
		stream = pastel.AppendReport(stream, pastel.Heartbeat{})
	}

	poll := pollReports(reader, stream)

	if len(poll.reports) != 2*pollBatchSize {
		t.Fatalf("expected %d reports, got %d", 2*pollBatchSize, len(poll.reports))
	}
	if len(poll.malformed) != 0 || poll.overflows != 0 {
		t.Errorf("unexpected errors draining a full queue: %+v", poll)
	}
	if reader.Buffered() != 0 {
		t.Errorf("expected empty buffer, got %d bytes", reader.Buffered())
	}
}

func TestPollReportsMalformedResets(t *testing.T) {
	reader := pastel.NewReportReader()

	var stream []byte
	stream = pastel.AppendReport(stream, pastel.Heartbeat{})
	stream = append(stream, 0xFF) // unknown tag
	stream = pastel.AppendReport(stream, pastel.Press{})

	poll := pollReports(reader, stream)

	if len(poll.reports) != 1 {
		t.Fatalf("expected the report before the bad byte, got %d reports", len(poll.reports))
	}
	if len(poll.malformed) != 1 {
		t.Fatalf("expected 1 malformed window, got %d", len(poll.malformed))
	}
	if poll.malformed[0].Window[0] != 0xFF {
		t.Errorf("expected window to start with the bad byte, got % X", poll.malformed[0].Window)
	}
	// The bad byte and everything buffered behind it drop with the reset
	if poll.discarded != 2 {
		t.Errorf("expected 2 discarded bytes, got %d", poll.discarded)
	}
	if reader.Buffered() != 0 {
		t.Errorf("reader was not reset after malformed input")
	}
}

// A chunk that cannot fit behind a stale partial message should trigger
// one reset and then decode cleanly on the retry.
func TestPollReportsBufferFullRetries(t *testing.T) {
	reader := pastel.NewReportReader()

	// Park a partial debug report that never completes
	partial := []byte{'D', 200}
	if _, err := reader.ProcessBytes(partial, pollBatchSize); err != nil {
		t.Fatalf("unexpected error buffering partial message: %v", err)
	}

	big := make([]byte, pastel.StreamBufferCapacity-1)
	for i := range big {
		big[i] = 'H'
	}

	poll := pollReports(reader, big)

	if poll.overflows != 1 {
		t.Fatalf("expected 1 overflow, got %d", poll.overflows)
	}
	if poll.discarded != len(partial) {
		t.Errorf("expected %d discarded bytes, got %d", len(partial), poll.discarded)
	}
	if len(poll.reports) != len(big) {
		t.Fatalf("expected %d heartbeats after the retry, got %d", len(big), len(poll.reports))
	}
	if reader.Buffered() != 0 {
		t.Errorf("expected empty buffer, got %d bytes", reader.Buffered())
	}
}

// A chunk bigger than the stream buffer can never be absorbed; it must be
// dropped instead of retried forever.
func TestPollReportsOversizedChunkDropped(t *testing.T) {
	reader := pastel.NewReportReader()

	huge := make([]byte, pastel.StreamBufferCapacity+1)
	for i := range huge {
		huge[i] = 'H'
	}

	poll := pollReports(reader, huge)

	if poll.overflows != 1 {
		t.Fatalf("expected 1 overflow, got %d", poll.overflows)
	}
	if len(poll.reports) != 0 {
		t.Errorf("expected no reports from an oversized chunk, got %d", len(poll.reports))
	}
	if poll.discarded != len(huge) {
		t.Errorf("expected the whole chunk discarded (%d bytes), got %d", len(huge), poll.discarded)
	}
}

func TestPollCommandsCleanStream(t *testing.T) {
	reader := pastel.NewCommandReader()

	var stream []byte
	stream = pastel.AppendCommand(stream, pastel.Bootload{})
	stream = pastel.AppendCommand(stream, pastel.PowerCycler{Slot: 1, State: true})

	poll := pollCommands(reader, stream)

	if len(poll.commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(poll.commands))
	}
	if _, ok := poll.commands[0].(pastel.Bootload); !ok {
		t.Errorf("expected Bootload first, got %T", poll.commands[0])
	}
	power, ok := poll.commands[1].(pastel.PowerCycler)
	if !ok {
		t.Fatalf("expected PowerCycler second, got %T", poll.commands[1])
	}
	if power.Slot != 1 || !power.State {
		t.Errorf("expected slot 1 on, got %+v", power)
	}
}

func TestPollCommandsMalformedResets(t *testing.T) {
	reader := pastel.NewCommandReader()

	poll := pollCommands(reader, []byte{0xAA})

	if len(poll.commands) != 0 {
		t.Fatalf("expected no commands, got %d", len(poll.commands))
	}
	if len(poll.malformed) != 1 {
		t.Fatalf("expected 1 malformed window, got %d", len(poll.malformed))
	}
	if reader.Buffered() != 0 {
		t.Errorf("reader was not reset after malformed input")
	}
}
