// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomCommand builds a random but valid command value.
func randomCommand(rng *rand.Rand) Command {
	switch rng.Intn(6) {
	case 0:
		return PowerCycler{Slot: uint8(rng.Intn(256)), State: rng.Intn(2) == 1}
	case 1:
		return Brightness{Target: uint8(rng.Intn(2)), Value: uint16(rng.Intn(0x10000))}
	case 2:
		return Temperature{Target: uint8(rng.Intn(2)), Value: uint16(rng.Intn(0x10000))}
	case 3:
		var pulse PulseMode
		switch rng.Intn(3) {
		case 0:
			pulse = Solid()
		case 1:
			pulse = DialTurn()
		case 2:
			pulse = MustBreathing(uint16(rng.Intn(0xFFFF)) + 1)
		}
		return Led{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), Pulse: pulse}
	case 4:
		return Bootload{}
	default:
		return FanSpeed{Target: uint8(rng.Intn(4)), Value: uint16(rng.Intn(0x10000))}
	}
}

// randomReport builds a random but valid report value.
func randomReport(rng *rand.Rand) Report {
	switch rng.Intn(7) {
	case 0:
		return Heartbeat{}
	case 1:
		return DialValue{Diff: int8(rng.Intn(256) - 128)}
	case 2:
		return Press{}
	case 3:
		return Release{}
	case 4:
		return EmergencyOff{}
	case 5:
		return ErrorReport{Code: uint16(rng.Intn(0x10000))}
	default:
		// ASCII keeps the byte length equal to the rune count.
		n := rng.Intn(MaxDebugTextLen + 1)
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteByte(byte('a' + rng.Intn(26)))
		}
		return MustDebug(sb.String())
	}
}

// ============================================================
// Round-Trip Fuzz Tests
// ============================================================

// TestFuzzRoundTrip_Commands encodes random commands and verifies they
// decode back to equal values with exact consumption.
func TestFuzzRoundTrip_Commands(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		cmd := randomCommand(rng)
		encoded := EncodeCommand(cmd)

		if len(encoded) != cmd.WireLen() {
			t.Fatalf("round %d: encoded length %d != WireLen %d for %s",
				i, len(encoded), cmd.WireLen(), FormatCommand(cmd))
		}

		decoded, consumed, err := DecodeCommand(encoded)
		if err != nil {
			t.Fatalf("round %d: decode failed for %s: %v", i, FormatCommand(cmd), err)
		}
		if consumed != len(encoded) {
			t.Fatalf("round %d: consumed %d != %d", i, consumed, len(encoded))
		}
		if decoded != cmd {
			t.Fatalf("round %d: %#v != %#v", i, decoded, cmd)
		}
	}
}

// TestFuzzRoundTrip_Reports does the same for reports.
func TestFuzzRoundTrip_Reports(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		report := randomReport(rng)
		encoded := EncodeReport(report)

		decoded, consumed, err := DecodeReport(encoded)
		if err != nil {
			t.Fatalf("round %d: decode failed for %s: %v", i, FormatReport(report), err)
		}
		if consumed != len(encoded) {
			t.Fatalf("round %d: consumed %d != %d", i, consumed, len(encoded))
		}
		if decoded != report {
			t.Fatalf("round %d: %#v != %#v", i, decoded, report)
		}
	}
}

// ============================================================
// Chunking Fuzz Tests
// ============================================================

// TestFuzzChunkingInvariance feeds the same report stream through two
// readers with different random chunk boundaries and requires identical
// decoded sequences.
func TestFuzzChunkingInvariance(t *testing.T) {
	rounds := getFuzzRounds() / 10
	if rounds < 1 {
		rounds = 1
	}
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		// A stream of random reports that fits the buffer comfortably.
		var stream []byte
		var want []Report
		for len(stream) < StreamBufferCapacity/2 {
			r := randomReport(rng)
			if len(stream)+r.WireLen() > StreamBufferCapacity/2 {
				break
			}
			stream = AppendReport(stream, r)
			want = append(want, r)
		}

		whole := NewReportReader()
		wholeBatch, err := whole.ProcessBytes(stream, len(want)+1)
		if err != nil {
			t.Fatalf("round %d: whole-stream processing failed: %v", i, err)
		}

		chunked := NewReportReader()
		var chunkedBatch []Report
		rest := stream
		for len(rest) > 0 {
			n := rng.Intn(len(rest)) + 1
			batch, err := chunked.ProcessBytes(rest[:n], len(want)+1)
			if err != nil {
				t.Fatalf("round %d: chunked processing failed: %v", i, err)
			}
			chunkedBatch = append(chunkedBatch, batch...)
			rest = rest[n:]
		}

		if len(wholeBatch) != len(want) || len(chunkedBatch) != len(want) {
			t.Fatalf("round %d: lengths whole=%d chunked=%d want=%d",
				i, len(wholeBatch), len(chunkedBatch), len(want))
		}
		for j := range want {
			if wholeBatch[j] != want[j] || chunkedBatch[j] != want[j] {
				t.Fatalf("round %d: mismatch at %d: whole=%#v chunked=%#v want=%#v",
					i, j, wholeBatch[j], chunkedBatch[j], want[j])
			}
		}
	}
}

// ============================================================
// Garbage Input Fuzz Tests
// ============================================================

// TestFuzzGarbageInput feeds random bytes to both readers and verifies no
// panic and no undelivered-byte accounting drift: every call either decodes,
// waits, or fails with one of the defined errors.
func TestFuzzGarbageInput(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		reports := NewReportReader()
		commands := NewCommandReader()

		length := rng.Intn(StreamBufferCapacity) + 1
		data := make([]byte, length)
		rng.Read(data)

		if _, err := reports.ProcessBytes(data, 64); err != nil {
			reports.Reset()
		}
		if _, err := commands.ProcessBytes(data, 64); err != nil {
			commands.Reset()
		}

		if reports.Buffered() > StreamBufferCapacity {
			t.Fatalf("round %d: report reader over capacity: %d", i, reports.Buffered())
		}
		if commands.Buffered() > StreamBufferCapacity {
			t.Fatalf("round %d: command reader over capacity: %d", i, commands.Buffered())
		}
	}
}

// TestFuzzDecodeNeverPanics hammers the window decoders directly with
// random windows of every length.
func TestFuzzDecodeNeverPanics(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(MaxReportLen + 8)
		window := make([]byte, length)
		rng.Read(window)

		if _, consumed, err := DecodeCommand(window); err == nil && consumed > len(window) {
			t.Fatalf("round %d: DecodeCommand consumed %d of %d", i, consumed, len(window))
		}
		if _, consumed, err := DecodeReport(window); err == nil && consumed > len(window) {
			t.Fatalf("round %d: DecodeReport consumed %d of %d", i, consumed, len(window))
		}
	}
}
