// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"bytes"
	"errors"
	"testing"
)

// feedReportBytes feeds data to the reader one byte at a time and collects
// everything decoded along the way.
func feedReportBytes(t *testing.T, r *ReportReader, data []byte, maxBatch int) []Report {
	t.Helper()
	var all []Report
	for i, b := range data {
		batch, err := r.ProcessBytes([]byte{b}, maxBatch)
		if err != nil {
			t.Fatalf("ProcessBytes failed at byte %d (0x%02X): %v", i, b, err)
		}
		all = append(all, batch...)
	}
	return all
}

// ============================================================
// Basic Batching
// ============================================================

func TestReportReader_SingleByteReports(t *testing.T) {
	r := NewReportReader()

	batch, err := r.ProcessBytes([]byte{'H', 'P', 'R'}, 10)
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}

	want := []Report{Heartbeat{}, Press{}, Release{}}
	if len(batch) != len(want) {
		t.Fatalf("batch length = %d, want %d", len(batch), len(want))
	}
	for i := range want {
		if batch[i] != want[i] {
			t.Errorf("batch[%d] = %#v, want %#v", i, batch[i], want[i])
		}
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

func TestReportReader_EmptyChunk(t *testing.T) {
	r := NewReportReader()
	batch, err := r.ProcessBytes(nil, 10)
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("batch length = %d, want 0", len(batch))
	}
}

func TestCommandReader_MixedCommands(t *testing.T) {
	r := NewCommandReader()

	var stream []byte
	sent := []Command{
		PowerCycler{Slot: 1, State: true},
		Led{R: 0, G: 128, B: 255, Pulse: MustBreathing(4000)},
		Bootload{},
		FanSpeed{Target: 0, Value: 900},
	}
	for _, c := range sent {
		stream = AppendCommand(stream, c)
	}

	batch, err := r.ProcessBytes(stream, 10)
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(batch) != len(sent) {
		t.Fatalf("batch length = %d, want %d", len(batch), len(sent))
	}
	for i := range sent {
		if batch[i] != sent[i] {
			t.Errorf("batch[%d] = %#v, want %#v", i, batch[i], sent[i])
		}
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

// ============================================================
// Chunking Invariance
// ============================================================

func TestReportReader_ChunkingInvariance(t *testing.T) {
	reports := []Report{
		Heartbeat{},
		DialValue{Diff: 3},
		MustDebug("panel up"),
		Press{},
		ErrorReport{Code: 0x0001},
		Release{},
		EmergencyOff{},
		MustDebug(""),
	}
	var stream []byte
	for _, r := range reports {
		stream = AppendReport(stream, r)
	}

	// One call with everything
	whole := NewReportReader()
	wholeBatch, err := whole.ProcessBytes(stream, len(reports))
	if err != nil {
		t.Fatalf("whole-stream ProcessBytes failed: %v", err)
	}

	// One byte per call
	drip := NewReportReader()
	dripBatch := feedReportBytes(t, drip, stream, len(reports))

	if len(wholeBatch) != len(reports) || len(dripBatch) != len(reports) {
		t.Fatalf("batch lengths = %d (whole), %d (drip), want %d",
			len(wholeBatch), len(dripBatch), len(reports))
	}
	for i := range reports {
		if wholeBatch[i] != reports[i] {
			t.Errorf("whole[%d] = %#v, want %#v", i, wholeBatch[i], reports[i])
		}
		if dripBatch[i] != reports[i] {
			t.Errorf("drip[%d] = %#v, want %#v", i, dripBatch[i], reports[i])
		}
	}
	if whole.Buffered() != 0 || drip.Buffered() != 0 {
		t.Errorf("Buffered() = %d (whole), %d (drip), want 0", whole.Buffered(), drip.Buffered())
	}
}

// ============================================================
// Partial Frames
// ============================================================

func TestReportReader_PartialFrameStability(t *testing.T) {
	tests := []struct {
		name   string
		report Report
	}{
		{"dial value", DialValue{Diff: -7}},
		{"error report", ErrorReport{Code: 0xBEEF}},
		{"debug text", MustDebug("brownout detected")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeReport(tt.report)
			r := NewReportReader()

			// Everything except the final byte must decode nothing.
			batch, err := r.ProcessBytes(encoded[:len(encoded)-1], 10)
			if err != nil {
				t.Fatalf("partial ProcessBytes failed: %v", err)
			}
			if len(batch) != 0 {
				t.Fatalf("partial frame produced %d reports", len(batch))
			}
			if r.Buffered() != len(encoded)-1 {
				t.Errorf("Buffered() = %d, want %d", r.Buffered(), len(encoded)-1)
			}

			// The final byte completes it.
			batch, err = r.ProcessBytes(encoded[len(encoded)-1:], 10)
			if err != nil {
				t.Fatalf("final-byte ProcessBytes failed: %v", err)
			}
			if len(batch) != 1 || batch[0] != tt.report {
				t.Fatalf("batch = %#v, want [%#v]", batch, tt.report)
			}
			if r.Buffered() != 0 {
				t.Errorf("Buffered() = %d, want 0", r.Buffered())
			}
		})
	}
}

// ============================================================
// Buffer Capacity
// ============================================================

func TestReportReader_BufferFull(t *testing.T) {
	r := NewReportReader()

	// Fill the buffer to capacity with an unfinishable frame: a debug
	// header declaring max length, then padding that never completes it.
	fill := make([]byte, StreamBufferCapacity)
	fill[0] = 'D'
	fill[1] = MaxDebugTextLen
	for i := 2; i < len(fill)-1; i++ {
		fill[i] = 'a'
	}
	// One byte short of the declared payload.
	batch, err := r.ProcessBytes(fill[:len(fill)-1], 10)
	if err != nil {
		t.Fatalf("ProcessBytes failed while filling: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("unexpected reports while filling: %d", len(batch))
	}

	// Two more bytes exceed capacity by one.
	before := r.Buffered()
	_, err = r.ProcessBytes([]byte{'a', 'a'}, 10)
	if err == nil {
		t.Fatal("expected BufferFull, got nil")
	}
	if !errors.Is(err, ErrBufferFull) {
		t.Errorf("error does not unwrap to ErrBufferFull: %v", err)
	}

	var full *BufferFullError
	if !errors.As(err, &full) {
		t.Fatalf("error is not a *BufferFullError: %v", err)
	}
	if full.Buffered != before || full.Chunk != 2 {
		t.Errorf("BufferFullError = {Buffered:%d Chunk:%d}, want {Buffered:%d Chunk:2}",
			full.Buffered, full.Chunk, before)
	}

	// The rejected chunk must not be absorbed, not even partially.
	if r.Buffered() != before {
		t.Errorf("Buffered() = %d after rejection, want %d", r.Buffered(), before)
	}
}

func TestReportReader_ExactCapacityFits(t *testing.T) {
	r := NewReportReader()

	// A maximum-size debug report is exactly StreamBufferCapacity bytes
	// and must pass through a previously empty buffer in one call.
	report := MustDebug(string(bytes.Repeat([]byte{'z'}, MaxDebugTextLen)))
	encoded := EncodeReport(report)
	if len(encoded) != StreamBufferCapacity {
		t.Fatalf("encoded length = %d, want %d", len(encoded), StreamBufferCapacity)
	}

	batch, err := r.ProcessBytes(encoded, 1)
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(batch) != 1 || batch[0] != report {
		t.Fatalf("batch = %d reports, want the max-size debug back", len(batch))
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

// ============================================================
// Malformed Input
// ============================================================

func TestReportReader_MalformedLeavesBytesAtFront(t *testing.T) {
	r := NewReportReader()

	// One good report, then garbage.
	stream := append(EncodeReport(Heartbeat{}), 'Z', 0x01, 0x02)
	batch, err := r.ProcessBytes(stream, 10)
	if err == nil {
		t.Fatal("expected MalformedMessage, got nil")
	}
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("error does not unwrap to ErrMalformedMessage: %v", err)
	}

	// The heartbeat decoded before the garbage is still delivered.
	if len(batch) != 1 || batch[0] != (Heartbeat{}) {
		t.Errorf("batch = %#v, want [Heartbeat]", batch)
	}

	// The offending bytes stay at the buffer front and keep failing until
	// the caller intervenes.
	if r.Buffered() != 3 {
		t.Errorf("Buffered() = %d, want 3", r.Buffered())
	}
	var malformedErr *MalformedMessageError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("error is not a *MalformedMessageError: %v", err)
	}
	if !bytes.Equal(malformedErr.Window, []byte{'Z', 0x01, 0x02}) {
		t.Errorf("error window = % X, want 5A 01 02", malformedErr.Window)
	}

	_, err = r.ProcessBytes(nil, 10)
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("second call error = %v, want MalformedMessage again", err)
	}

	// Reset is the escape hatch.
	r.Reset()
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d after Reset, want 0", r.Buffered())
	}
	batch, err = r.ProcessBytes([]byte{'H'}, 10)
	if err != nil || len(batch) != 1 {
		t.Errorf("reader unusable after Reset: batch=%#v err=%v", batch, err)
	}
}

func TestReportReader_ZeroBreathingIntervalViaLedCommandSide(t *testing.T) {
	// The zero-interval breathing pattern is command-direction traffic;
	// make sure the CommandReader rejects it as malformed.
	r := NewCommandReader()
	_, err := r.ProcessBytes([]byte{'D', 0x01, 0x02, 0x03, 'B', 0x00, 0x00}, 10)
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("zero breathing interval error = %v, want MalformedMessage", err)
	}
	if r.Buffered() != 7 {
		t.Errorf("Buffered() = %d, want 7 (nothing consumed)", r.Buffered())
	}
}

// ============================================================
// Queue Bounds
// ============================================================

func TestReportReader_QueueFull(t *testing.T) {
	r := NewReportReader()

	// Five heartbeats, room for two per call.
	batch, err := r.ProcessBytes([]byte{'H', 'H', 'H', 'H', 'H'}, 2)
	if err == nil {
		t.Fatal("expected ReportQueueFull, got nil")
	}
	if !errors.Is(err, ErrReportQueueFull) {
		t.Errorf("error = %v, want ErrReportQueueFull", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch length = %d, want 2", len(batch))
	}

	// The undelivered messages are still buffered; empty-chunk calls
	// drain them at the caller's pace.
	if r.Buffered() != 3 {
		t.Errorf("Buffered() = %d, want 3", r.Buffered())
	}

	batch, err = r.ProcessBytes(nil, 2)
	if !errors.Is(err, ErrReportQueueFull) {
		t.Errorf("second call error = %v, want ErrReportQueueFull", err)
	}
	if len(batch) != 2 {
		t.Errorf("second batch length = %d, want 2", len(batch))
	}

	batch, err = r.ProcessBytes(nil, 2)
	if err != nil {
		t.Fatalf("final drain failed: %v", err)
	}
	if len(batch) != 1 {
		t.Errorf("final batch length = %d, want 1", len(batch))
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

func TestReportReader_ExactBatchIsNotAnError(t *testing.T) {
	r := NewReportReader()

	// Exactly maxBatch complete messages with nothing left over is a
	// clean return, not a queue-full condition.
	batch, err := r.ProcessBytes([]byte{'H', 'H'}, 2)
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(batch) != 2 {
		t.Errorf("batch length = %d, want 2", len(batch))
	}
}

func TestCommandReader_QueueFull(t *testing.T) {
	r := NewCommandReader()
	stream := append(EncodeCommand(Bootload{}), EncodeCommand(Bootload{})...)

	batch, err := r.ProcessBytes(stream, 1)
	if !errors.Is(err, ErrCommandQueueFull) {
		t.Errorf("error = %v, want ErrCommandQueueFull", err)
	}
	if len(batch) != 1 {
		t.Errorf("batch length = %d, want 1", len(batch))
	}
}

// ============================================================
// Interleaved Traffic
// ============================================================

func TestReportReader_SplitAcrossManyCalls(t *testing.T) {
	r := NewReportReader()

	// A debug report split mid-payload across three calls, with a
	// heartbeat packed into the final chunk.
	full := append(EncodeReport(MustDebug("split across calls")), 'H')

	batch, err := r.ProcessBytes(full[:4], 10)
	if err != nil || len(batch) != 0 {
		t.Fatalf("first chunk: batch=%d err=%v", len(batch), err)
	}
	batch, err = r.ProcessBytes(full[4:9], 10)
	if err != nil || len(batch) != 0 {
		t.Fatalf("second chunk: batch=%d err=%v", len(batch), err)
	}
	batch, err = r.ProcessBytes(full[9:], 10)
	if err != nil {
		t.Fatalf("final chunk failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch length = %d, want 2", len(batch))
	}
	if batch[0] != MustDebug("split across calls") || batch[1] != (Heartbeat{}) {
		t.Errorf("batch = %#v", batch)
	}
}
