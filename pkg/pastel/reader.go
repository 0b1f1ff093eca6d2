// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

// streamBuffer is the bounded reassembly window shared by both reader
// directions. Backing storage is allocated once at construction; absorb
// refuses chunks that would exceed StreamBufferCapacity and consume shifts
// decoded bytes off the front.
type streamBuffer struct {
	data []byte
}

func newStreamBuffer() streamBuffer {
	return streamBuffer{data: make([]byte, 0, StreamBufferCapacity)}
}

func (s *streamBuffer) absorb(chunk []byte) error {
	if len(s.data)+len(chunk) > StreamBufferCapacity {
		return &BufferFullError{Buffered: len(s.data), Chunk: len(chunk)}
	}
	s.data = append(s.data, chunk...)
	return nil
}

func (s *streamBuffer) consume(n int) {
	kept := copy(s.data, s.data[n:])
	s.data = s.data[:kept]
}

// drain repeatedly decodes the front of buf until the next message is
// incomplete, invalid, or would exceed maxBatch. Bytes are only consumed
// once their message has a place in the batch, so stopping on queue-full
// loses nothing: the overflowing message stays buffered for the next call.
// Incomplete is signaled by decode consuming zero bytes without error.
func drain[M any](buf *streamBuffer, decode func([]byte) (M, int, error), maxBatch int, queueFull error) ([]M, error) {
	var batch []M
	for {
		msg, n, err := decode(buf.data)
		if err != nil {
			return batch, err
		}
		if n == 0 {
			return batch, nil
		}
		if len(batch) >= maxBatch {
			return batch, queueFull
		}
		buf.consume(n)
		batch = append(batch, msg)
	}
}

// ReportReader reassembles panel reports on the host side of the link. One
// reader lives for the duration of one connection; partial bytes left in
// its buffer die with it.
//
// A ReportReader is not safe for concurrent use. Callers that share a
// connection between goroutines must serialize access externally, either
// with a mutex around the whole panel session or by giving the reader a
// single owning goroutine.
type ReportReader struct {
	buf streamBuffer
}

// NewReportReader creates a reader with an empty, fully pre-allocated
// buffer of StreamBufferCapacity bytes.
func NewReportReader() *ReportReader {
	return &ReportReader{buf: newStreamBuffer()}
}

// ProcessBytes absorbs chunk into the buffer and returns up to maxBatch
// complete reports decoded from the front of the stream. Chunks may be
// sliced anywhere, down to one byte per call; the decoded sequence is
// identical regardless of chunking.
//
// Error semantics, none retried or recovered internally:
//   - ErrBufferFull (as *BufferFullError): chunk was not absorbed at all.
//     The stream is desynchronized; Reset or reconnect.
//   - ErrMalformedMessage (as *MalformedMessageError): the batch holds
//     everything decoded before the bad bytes, which remain at the buffer
//     front untouched.
//   - ErrReportQueueFull: the batch holds exactly maxBatch reports and at
//     least one more complete report is still buffered; a further call
//     (an empty chunk is fine) continues where this one stopped.
func (r *ReportReader) ProcessBytes(chunk []byte, maxBatch int) ([]Report, error) {
	if err := r.buf.absorb(chunk); err != nil {
		return nil, err
	}
	return drain(&r.buf, DecodeReport, maxBatch, ErrReportQueueFull)
}

// Buffered returns the number of unconsumed bytes held between calls.
func (r *ReportReader) Buffered() int {
	return len(r.buf.data)
}

// Reset discards all buffered bytes. This is the resynchronization hook for
// callers that choose to skip malformed input; the reader never drops bytes
// on its own.
func (r *ReportReader) Reset() {
	r.buf.data = r.buf.data[:0]
}

// CommandReader is the mirror of ReportReader for the panel side of the
// link: firmware (or a simulator standing in for it) uses one to parse the
// host's command stream. Same buffering, batching, and error semantics.
type CommandReader struct {
	buf streamBuffer
}

// NewCommandReader creates a reader with an empty, fully pre-allocated
// buffer of StreamBufferCapacity bytes.
func NewCommandReader() *CommandReader {
	return &CommandReader{buf: newStreamBuffer()}
}

// ProcessBytes absorbs chunk and returns up to maxBatch complete commands.
// See ReportReader.ProcessBytes for the full contract; the queue-full
// sentinel here is ErrCommandQueueFull.
func (r *CommandReader) ProcessBytes(chunk []byte, maxBatch int) ([]Command, error) {
	if err := r.buf.absorb(chunk); err != nil {
		return nil, err
	}
	return drain(&r.buf, DecodeCommand, maxBatch, ErrCommandQueueFull)
}

// Buffered returns the number of unconsumed bytes held between calls.
func (r *CommandReader) Buffered() int {
	return len(r.buf.data)
}

// Reset discards all buffered bytes.
func (r *CommandReader) Reset() {
	r.buf.data = r.buf.data[:0]
}
