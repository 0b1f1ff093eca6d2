// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"errors"
	"fmt"
)

// Sentinel errors for stream processing. The typed errors below unwrap to
// these so callers can classify with errors.Is without losing the context
// they carry.
var (
	ErrBufferFull       = errors.New("stream buffer full")
	ErrMalformedMessage = errors.New("malformed message")
	ErrCommandQueueFull = errors.New("command queue full")
	ErrReportQueueFull  = errors.New("report queue full")
)

// BufferFullError reports a chunk that would overflow the bounded stream
// buffer. The chunk is not absorbed, not even partially; the stream is
// desynchronized and the caller should reset the reader or drop the
// connection.
type BufferFullError struct {
	Buffered int // bytes already held between calls
	Chunk    int // size of the rejected chunk
}

// Error implements the error interface.
func (e *BufferFullError) Error() string {
	return fmt.Sprintf("stream buffer full: %d buffered + %d incoming exceeds capacity %d",
		e.Buffered, e.Chunk, StreamBufferCapacity)
}

// Unwrap makes errors.Is(err, ErrBufferFull) hold.
func (e *BufferFullError) Unwrap() error {
	return ErrBufferFull
}

// MalformedMessageError reports bytes that cannot begin any valid message:
// an unknown tag, a zero breathing interval, or debug text that is not
// UTF-8. Window is a copy of the unconsumed bytes at the failure point. The
// reader leaves the original bytes at the buffer front, so parsing cannot
// resume until the caller resets or disconnects.
type MalformedMessageError struct {
	Window []byte
}

// Error implements the error interface.
func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message: % X", e.Window)
}

// Unwrap makes errors.Is(err, ErrMalformedMessage) hold.
func (e *MalformedMessageError) Unwrap() error {
	return ErrMalformedMessage
}

// malformed builds a MalformedMessageError holding a copy of window, so the
// error stays valid after the caller's buffer mutates.
func malformed(window []byte) error {
	w := make([]byte, len(window))
	copy(w, window)
	return &MalformedMessageError{Window: w}
}
