// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/easel/pkg/pastel"
)

// pollBatchSize bounds how many messages a single poll hands back per
// reader pass. The poll helpers keep draining until the reader goes quiet,
// so the bound never drops data.
const pollBatchSize = 64

// reportPoll is the outcome of feeding one chunk of connection bytes
// through a ReportReader.
type reportPoll struct {
	reports   []pastel.Report
	malformed []*pastel.MalformedMessageError
	overflows int // buffer overflows that forced a resynchronization
	discarded int // buffered bytes dropped while resynchronizing
}

// pollReports feeds one chunk into the reader and decodes until the reader
// goes quiet. Queue-full pauses are drained with empty follow-up calls.
// Malformed input is recorded and the backlog dropped so the stream can
// restart clean on the next chunk.
func pollReports(reader *pastel.ReportReader, chunk []byte) reportPoll {
	var poll reportPoll

	pending := chunk
	retriedOverflow := false
	for {
		batch, err := reader.ProcessBytes(pending, pollBatchSize)
		poll.reports = append(poll.reports, batch...)

		if err == nil {
			return poll
		}

		var window *pastel.MalformedMessageError
		switch {
		case errors.As(err, &window):
			poll.malformed = append(poll.malformed, window)
			poll.discarded += reader.Buffered()
			reader.Reset()
			return poll

		case errors.Is(err, pastel.ErrReportQueueFull):
			// The chunk is already absorbed; keep draining the backlog
			pending = nil

		case errors.Is(err, pastel.ErrBufferFull):
			// The backlog never completed a frame and the chunk no longer
			// fits. Drop the backlog and retry the chunk once against an
			// empty buffer.
			poll.overflows++
			poll.discarded += reader.Buffered()
			reader.Reset()
			if retriedOverflow || len(pending) > pastel.StreamBufferCapacity {
				poll.discarded += len(pending)
				return poll
			}
			retriedOverflow = true

		default:
			poll.discarded += reader.Buffered()
			reader.Reset()
			return poll
		}
	}
}

// commandPoll mirrors reportPoll for the panel side of the link.
type commandPoll struct {
	commands  []pastel.Command
	malformed []*pastel.MalformedMessageError
	overflows int
	discarded int
}

// pollCommands feeds one chunk into a CommandReader with the same recovery
// behavior as pollReports. Only the simulator reads commands.
func pollCommands(reader *pastel.CommandReader, chunk []byte) commandPoll {
	var poll commandPoll

	pending := chunk
	retriedOverflow := false
	for {
		batch, err := reader.ProcessBytes(pending, pollBatchSize)
		poll.commands = append(poll.commands, batch...)

		if err == nil {
			return poll
		}

		var window *pastel.MalformedMessageError
		switch {
		case errors.As(err, &window):
			poll.malformed = append(poll.malformed, window)
			poll.discarded += reader.Buffered()
			reader.Reset()
			return poll

		case errors.Is(err, pastel.ErrCommandQueueFull):
			pending = nil

		case errors.Is(err, pastel.ErrBufferFull):
			poll.overflows++
			poll.discarded += reader.Buffered()
			reader.Reset()
			if retriedOverflow || len(pending) > pastel.StreamBufferCapacity {
				poll.discarded += len(pending)
				return poll
			}
			retriedOverflow = true

		default:
			poll.discarded += reader.Buffered()
			reader.Reset()
			return poll
		}
	}
}

// sendCommand encodes and writes a single command to the panel.
func sendCommand(conn Connection, c pastel.Command) error {
	if _, err := conn.Write(pastel.EncodeCommand(c)); err != nil {
		return fmt.Errorf("failed to send %s: %v", pastel.CommandName(c), err)
	}
	return nil
}

// sendReport encodes and writes a single report toward the host. Only the
// simulator sends reports.
func sendReport(conn Connection, r pastel.Report) error {
	if _, err := conn.Write(pastel.EncodeReport(r)); err != nil {
		return fmt.Errorf("failed to send %s: %v", pastel.ReportName(r), err)
	}
	return nil
}
