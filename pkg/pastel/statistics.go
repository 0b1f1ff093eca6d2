// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pastel

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks report traffic and stream error rates for one
// connection. Not safe for concurrent use; callers update it from the same
// goroutine that runs the ReportReader.
type Statistics struct {
	StartTime time.Time

	// Counters
	TotalReports  uint64
	Heartbeats    uint64
	DialValues    uint64
	Presses       uint64
	Releases      uint64
	EmergencyOffs uint64
	ErrorReports  uint64
	DebugReports  uint64

	Malformed       uint64
	BufferOverflows uint64
	QueueOverruns   uint64

	// Rates (calculated)
	ReportRate float64 // reports/sec
	ErrorRate  float64 // stream errors/sec
}

// NewStatistics creates a statistics tracker starting now.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Record counts one decoded report.
func (s *Statistics) Record(r Report) {
	s.TotalReports++
	switch r.(type) {
	case Heartbeat:
		s.Heartbeats++
	case DialValue:
		s.DialValues++
	case Press:
		s.Presses++
	case Release:
		s.Releases++
	case EmergencyOff:
		s.EmergencyOffs++
	case ErrorReport:
		s.ErrorReports++
	case Debug:
		s.DebugReports++
	}
}

// RecordError counts one stream processing error by its sentinel class.
func (s *Statistics) RecordError(err error) {
	switch {
	case errors.Is(err, ErrMalformedMessage):
		s.Malformed++
	case errors.Is(err, ErrBufferFull):
		s.BufferOverflows++
	case errors.Is(err, ErrReportQueueFull), errors.Is(err, ErrCommandQueueFull):
		s.QueueOverruns++
	}
}

// CalculateRates recomputes ReportRate and ErrorRate from the elapsed time.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ReportRate = float64(s.TotalReports) / elapsed
		s.ErrorRate = float64(s.Malformed+s.BufferOverflows+s.QueueOverruns) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Reports:   %8d\n", s.TotalReports)
	if s.Heartbeats > 0 {
		result += fmt.Sprintf("  Heartbeats:     %7d\n", s.Heartbeats)
	}
	if s.DialValues > 0 {
		result += fmt.Sprintf("  Dial Values:    %7d\n", s.DialValues)
	}
	if s.Presses > 0 || s.Releases > 0 {
		result += fmt.Sprintf("  Press/Release:  %7d/%d\n", s.Presses, s.Releases)
	}
	if s.EmergencyOffs > 0 {
		result += fmt.Sprintf("  Emergency Offs: %7d\n", s.EmergencyOffs)
	}
	if s.ErrorReports > 0 {
		result += fmt.Sprintf("  Error Reports:  %7d\n", s.ErrorReports)
	}
	if s.DebugReports > 0 {
		result += fmt.Sprintf("  Debug Reports:  %7d\n", s.DebugReports)
	}
	if s.Malformed > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.Malformed)
	}
	if s.BufferOverflows > 0 {
		result += fmt.Sprintf("Buffer Overflows:%8d\n", s.BufferOverflows)
	}
	if s.QueueOverruns > 0 {
		result += fmt.Sprintf("Queue Overruns:  %8d\n", s.QueueOverruns)
	}
	result += fmt.Sprintf("Report Rate:     %8.1f reports/sec\n", s.ReportRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset zeroes all counters and restarts the clock.
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
