// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational events
}

// heartbeatStaleAfter is how long without a heartbeat before the panel is
// flagged as silent.
const heartbeatStaleAfter = 5 * time.Second

// panelState is the live picture of the panel assembled from its reports.
type panelState struct {
	dialPosition   int  // running sum of dial diffs since connect
	lastDialDiff   int8 // most recent diff
	buttonDown     bool
	pressCount     uint64
	emergency      bool
	lastErrorCode  uint16
	hasError       bool
	lastDebug      string
	hasDebug       bool
	heartbeatCount uint64
	lastHeartbeat  time.Time
}

// apply folds a report into the panel state. It returns a log line for
// event-worthy reports ("" for reports that only update the display) and
// whether that event is an error.
func (ps *panelState) apply(r pastel.Report) (string, bool) {
	switch report := r.(type) {
	case pastel.Heartbeat:
		ps.heartbeatCount++
		ps.lastHeartbeat = time.Now()
		return "", false

	case pastel.DialValue:
		ps.dialPosition += int(report.Diff)
		ps.lastDialDiff = report.Diff
		return "", false

	case pastel.Press:
		ps.buttonDown = true
		ps.pressCount++
		return "Button pressed", false

	case pastel.Release:
		ps.buttonDown = false
		return "Button released", false

	case pastel.EmergencyOff:
		ps.emergency = true
		return "EMERGENCY OFF reported by panel", true

	case pastel.ErrorReport:
		ps.lastErrorCode = report.Code
		ps.hasError = true
		return fmt.Sprintf("Panel error 0x%04X", report.Code), true

	case pastel.Debug:
		ps.lastDebug = report.Text()
		ps.hasDebug = true
		return fmt.Sprintf("DEBUG %q", report.Text()), false
	}

	return "", false
}

// formatAge formats an elapsed duration as a human-friendly string
func formatAge(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}

	seconds := uint64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	if days > 0 {
		if days == 1 {
			parts = append(parts, "1 day")
		} else {
			parts = append(parts, fmt.Sprintf("%d days", days))
		}
	}
	if hours > 0 {
		if hours == 1 {
			parts = append(parts, "1 hour")
		} else {
			parts = append(parts, fmt.Sprintf("%d hours", hours))
		}
	}
	if minutes > 0 {
		if minutes == 1 {
			parts = append(parts, "1 minute")
		} else {
			parts = append(parts, fmt.Sprintf("%d minutes", minutes))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

// Monitor TUI model
type monitorModel struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *pastel.Statistics
	panel         panelState
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	invalidBytes  int
	closed        bool
	width         int
	height        int
	quitting      bool
}

// Messages
type monitorTickMsg time.Time
type monitorDataMsg struct {
	poll reportPoll
}
type monitorSyncMsg struct {
	invalidBytes int
}
type monitorClosedMsg struct{}

func initialMonitorModel(connInfo string, statsInterval int, showAll bool) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         pastel.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		synchronized:  false,
		invalidBytes:  0,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case monitorSyncMsg:
		m.synchronized = true
		m.invalidBytes = msg.invalidBytes
		if msg.invalidBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.invalidBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case monitorDataMsg:
		m.processPoll(msg.poll)

	case monitorClosedMsg:
		m.closed = true
		m.addLogEntry("Connection closed", true)
	}

	return m, nil
}

func (m *monitorModel) processPoll(poll reportPoll) {
	for _, report := range poll.reports {
		m.stats.Record(report)

		line, isError := m.panel.apply(report)
		if line != "" {
			m.addLogEntry(line, isError)
		} else if m.showAll {
			m.addLogEntry(pastel.FormatReport(report), false)
		}
	}

	for _, malformed := range poll.malformed {
		m.stats.RecordError(malformed)
		m.addLogEntry(fmt.Sprintf("MALFORMED: % X", malformed.Window), true)
	}
	for i := 0; i < poll.overflows; i++ {
		m.stats.RecordError(pastel.ErrBufferFull)
		m.addLogEntry(fmt.Sprintf("Buffer overflow: %d bytes dropped", poll.discarded), true)
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("EASEL - REPORT MONITOR"))
	s.WriteString("\n")
	connStatus := m.connInfo
	if m.closed {
		connStatus = "CLOSED"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Mode: %s | Press 'q' to quit",
		connStatus, func() string {
			if m.showAll {
				return "All reports"
			}
			return "Events only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.invalidBytes)))
		}
		s.WriteString("\n\n")
	}

	// Emergency banner takes precedence over everything below it
	if m.panel.emergency {
		s.WriteString(errorStyle.Render("!! EMERGENCY OFF !!  panel cut power to its slots"))
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	streamErrors := m.stats.Malformed + m.stats.BufferOverflows + m.stats.QueueOverruns

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Reports:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalReports)),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f rpt/s", m.stats.ReportRate)),
		statsLabelStyle.Render("Stream errors:"), func() string {
			if streamErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", streamErrors))
			}
			return statsValueStyle.Render("0")
		}(),
	))

	statsContent.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d   %s %d",
		statsLabelStyle.Render("Heartbeats:"), m.stats.Heartbeats,
		statsLabelStyle.Render("Dial:"), m.stats.DialValues,
		statsLabelStyle.Render("Press:"), m.stats.Presses,
		statsLabelStyle.Render("Release:"), m.stats.Releases,
	))

	if m.stats.ErrorReports > 0 || m.stats.DebugReports > 0 || m.stats.EmergencyOffs > 0 {
		statsContent.WriteString(fmt.Sprintf("\n%s %d   %s %d   %s %d",
			statsLabelStyle.Render("Errors:"), m.stats.ErrorReports,
			statsLabelStyle.Render("Debug:"), m.stats.DebugReports,
			statsLabelStyle.Render("E-Off:"), m.stats.EmergencyOffs,
		))
	}

	if streamErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("\n%s %s",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.Malformed)),
		))
		if m.stats.BufferOverflows > 0 {
			statsContent.WriteString(fmt.Sprintf("   %s %s",
				statsLabelStyle.Render("Overflows:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.BufferOverflows)),
			))
		}
	}

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Panel state
	s.WriteString(statsLabelStyle.Render("Panel State:"))
	s.WriteString("\n")

	stateContent := strings.Builder{}

	button := "UP"
	if m.panel.buttonDown {
		button = "DOWN"
	}
	stateContent.WriteString(fmt.Sprintf("%s %s   %s %s (%d presses)\n",
		statsLabelStyle.Render("Dial:"), statsValueStyle.Render(fmt.Sprintf("%+d (last %+d)", m.panel.dialPosition, m.panel.lastDialDiff)),
		statsLabelStyle.Render("Button:"), statsValueStyle.Render(button), m.panel.pressCount,
	))

	if m.panel.lastHeartbeat.IsZero() {
		stateContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Heartbeat:"), warningStyle.Render("none yet"),
		))
	} else {
		age := time.Since(m.panel.lastHeartbeat)
		ageStr := fmt.Sprintf("%s ago", formatAge(age))
		if age > heartbeatStaleAfter {
			stateContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Heartbeat:"), errorStyle.Render(ageStr+" (STALE)"),
			))
		} else {
			stateContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Heartbeat:"), statsValueStyle.Render(ageStr),
			))
		}
	}

	if m.panel.hasError {
		stateContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Last error:"), errorStyle.Render(fmt.Sprintf("0x%04X", m.panel.lastErrorCode)),
		))
	}
	if m.panel.hasDebug {
		stateContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Last debug:"), statsValueStyle.Render(fmt.Sprintf("%q", m.panel.lastDebug)),
		))
	}

	s.WriteString(boxStyle.Render(stateContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 18 // Reserve space for header, stats, and panel state
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
