// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/easel/pkg/pastel"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusPalette = iota
	focusValueInput
)

// Palette entries
const (
	ctlBacklightFront = iota
	ctlBacklightRear
	ctlHeatFront
	ctlHeatRear
	ctlFan
	ctlLed
	ctlPower
	ctlBootload
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// paletteEntry is one command in the palette.
type paletteEntry struct {
	kind        int
	name        string
	desc        string
	placeholder string // suggested input value; empty means no input needed
}

// Implement list.Item interface
func (e paletteEntry) Title() string       { return e.name }
func (e paletteEntry) Description() string { return e.desc }
func (e paletteEntry) FilterValue() string { return e.name }

// paletteEntries builds the command palette. Placeholders double as the
// default value when the input is applied empty.
func paletteEntries() []paletteEntry {
	return []paletteEntry{
		{ctlBacklightFront, "Backlight front", "brightness 0-65535", "40000"},
		{ctlBacklightRear, "Backlight rear", "brightness 0-65535", "40000"},
		{ctlHeatFront, "Heat front", "temperature target", "17000"},
		{ctlHeatRear, "Heat rear", "temperature target", "17000"},
		{ctlFan, "Fan", "speed 0-65535", "1500"},
		{ctlLed, "Dial LED", "r g b [pulse]", "255 255 255 solid"},
		{ctlPower, "Power slot", "slot on|off", "0 on"},
		{ctlBootload, "Bootload", "reboot panel into bootloader", ""},
	}
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for sending commands and reconnection)
	connMgr  *connectionManager
	connInfo string

	// Command palette
	entries     []paletteEntry
	paletteList list.Model
	lastApplied map[int]string // last applied input per palette kind

	// Monitoring
	stats         *pastel.Statistics
	panel         panelState
	eventLog      []eventLogEntry
	maxLogEntries int

	// Input
	valueInput   textinput.Model
	focusedField int
	editingKind  int // palette kind the input currently edits

	// UI state
	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlDataMsg struct {
	poll reportPoll
}

type controlSyncMsg struct {
	invalidBytes int
}

type controlBatchMsg struct {
	messages []controlDataMsg
	syncMsg  *controlSyncMsg
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(connMgr *connectionManager, connInfo string) controlModel {
	// Initialize the value input
	ti := textinput.New()
	ti.CharLimit = 32
	ti.Width = 24

	// Initialize the palette list
	entries := paletteEntries()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	paletteList := list.New(items, delegate, 30, 16)
	paletteList.Title = "Commands"
	paletteList.SetShowStatusBar(false)
	paletteList.SetShowHelp(false)
	paletteList.SetFilteringEnabled(false)

	return controlModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		entries:       entries,
		paletteList:   paletteList,
		lastApplied:   make(map[int]string),
		stats:         pastel.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		valueInput:    ti,
		focusedField:  focusPalette,
		width:         80,
		height:        24,
		synchronized:  false,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats.CalculateRates()
		return m, controlTickCmd()

	case controlSyncMsg:
		m.markSynchronized(msg.invalidBytes)

	case controlBatchMsg:
		if msg.syncMsg != nil {
			m.markSynchronized(msg.syncMsg.invalidBytes)
		}
		for _, data := range msg.messages {
			m.processPoll(data.poll)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.synchronized = false
		m.addLogEntry("Reconnected - waiting for reports", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusValueInput {
		m.valueInput, cmd = m.valueInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusPalette {
		m.paletteList, cmd = m.paletteList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) markSynchronized(invalidBytes int) {
	m.synchronized = true
	if invalidBytes > 0 {
		m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", invalidBytes), false)
	} else {
		m.addLogEntry("Synchronized", false)
	}
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// Only quit from the palette; "q" is never part of an input value
		// but swallowing it there would be surprising.
		if m.focusedField == focusPalette {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		return m.toggleFocus(), nil

	case "esc":
		if m.focusedField == focusValueInput {
			m.valueInput.Blur()
			m.focusedField = focusPalette
		}
		return m, nil

	case "enter":
		return m.handleEnter()

	case "up", "k", "down", "j":
		if m.focusedField == focusPalette {
			m.paletteList, _ = m.paletteList.Update(msg)
			return m, nil
		}
	}

	// Pass through to the focused input
	if m.focusedField == focusValueInput {
		var cmd tea.Cmd
		m.valueInput, cmd = m.valueInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// For now, pass mouse events to the palette list
	m.paletteList, _ = m.paletteList.Update(msg)

	return m, nil
}

func (m *controlModel) toggleFocus() *controlModel {
	if m.focusedField == focusPalette {
		m.beginEditing()
	} else {
		m.valueInput.Blur()
		m.focusedField = focusPalette
	}
	return m
}

// beginEditing focuses the value input for the selected palette entry.
func (m *controlModel) beginEditing() {
	selected := m.selectedEntry()
	if selected == nil || selected.placeholder == "" {
		return
	}

	m.editingKind = selected.kind
	m.valueInput.Placeholder = selected.placeholder
	if last, ok := m.lastApplied[selected.kind]; ok {
		m.valueInput.SetValue(last)
	} else {
		m.valueInput.SetValue("")
	}
	m.valueInput.Focus()
	m.focusedField = focusValueInput
}

func (m *controlModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.focusedField == focusValueInput {
		value := m.valueInput.Value()
		if value == "" {
			value = m.valueInput.Placeholder
		}
		m.applyEntry(m.editingKind, value)
		m.valueInput.Blur()
		m.focusedField = focusPalette
		return m, nil
	}

	selected := m.selectedEntry()
	if selected == nil {
		return m, nil
	}

	if selected.placeholder == "" {
		// No input needed, apply immediately
		m.applyEntry(selected.kind, "")
		return m, nil
	}

	m.beginEditing()
	return m, nil
}

//////////////////////////////////////////////////////////////
// Command Building
//////////////////////////////////////////////////////////////

// buildEntryCommand turns a palette entry plus its input value into a
// Pastel command.
func buildEntryCommand(kind int, value string) (pastel.Command, error) {
	switch kind {
	case ctlBacklightFront, ctlBacklightRear:
		target := uint8(0)
		if kind == ctlBacklightRear {
			target = 1
		}
		v, err := parseUint16(value, "brightness")
		if err != nil {
			return nil, err
		}
		return pastel.Brightness{Target: target, Value: v}, nil

	case ctlHeatFront, ctlHeatRear:
		target := uint8(0)
		if kind == ctlHeatRear {
			target = 1
		}
		v, err := parseUint16(value, "temperature")
		if err != nil {
			return nil, err
		}
		return pastel.Temperature{Target: target, Value: v}, nil

	case ctlFan:
		v, err := parseUint16(value, "fan speed")
		if err != nil {
			return nil, err
		}
		return pastel.FanSpeed{Target: 0, Value: v}, nil

	case ctlLed:
		fields := strings.Fields(value)
		if len(fields) != 3 && len(fields) != 4 {
			return nil, fmt.Errorf("expected \"r g b [pulse]\", got %q", value)
		}
		r, err := parseUint8(fields[0], "red")
		if err != nil {
			return nil, err
		}
		g, err := parseUint8(fields[1], "green")
		if err != nil {
			return nil, err
		}
		b, err := parseUint8(fields[2], "blue")
		if err != nil {
			return nil, err
		}
		pulse := pastel.Solid()
		if len(fields) == 4 {
			pulse, err = parsePulseMode(fields[3])
			if err != nil {
				return nil, err
			}
		}
		return pastel.Led{R: r, G: g, B: b, Pulse: pulse}, nil

	case ctlPower:
		fields := strings.Fields(value)
		if len(fields) != 2 {
			return nil, fmt.Errorf("expected \"slot on|off\", got %q", value)
		}
		slot, err := parseUint8(fields[0], "slot")
		if err != nil {
			return nil, err
		}
		state, err := parseOnOff(fields[1])
		if err != nil {
			return nil, err
		}
		return pastel.PowerCycler{Slot: slot, State: state}, nil

	case ctlBootload:
		return pastel.Bootload{}, nil
	}

	return nil, fmt.Errorf("unknown palette entry %d", kind)
}

// applyEntry builds and sends the command for a palette entry.
func (m *controlModel) applyEntry(kind int, value string) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return
	}

	command, err := buildEntryCommand(kind, value)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return
	}

	conn := m.connMgr.getConn()
	if conn == nil {
		m.addLogEntry("Cannot send command: connection lost", true)
		return
	}
	if err := sendCommand(conn, command); err != nil {
		m.addLogEntry(err.Error(), true)
		return
	}

	if value != "" {
		m.lastApplied[kind] = value
	}
	m.addLogEntry(fmt.Sprintf("Sent %s", pastel.FormatCommand(command)), false)
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processPoll(poll reportPoll) {
	for _, report := range poll.reports {
		m.stats.Record(report)

		line, isError := m.panel.apply(report)
		if line != "" {
			m.addLogEntry(line, isError)
		}
	}

	for _, malformed := range poll.malformed {
		m.stats.RecordError(malformed)
		m.addLogEntry(fmt.Sprintf("MALFORMED: % X", malformed.Window), true)
	}
	for i := 0; i < poll.overflows; i++ {
		m.stats.RecordError(pastel.ErrBufferFull)
		m.addLogEntry("Stream buffer overflow - reset", true)
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("EASEL CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=apply", connStatus)))
	s.WriteString("\n")

	// Sync status (below header)
	if m.synchronized {
		s.WriteString(fmt.Sprintf(" %s %s",
			statsLabelStyle.Render("Stream:"),
			statsValueStyle.Render("synchronized")))
	} else {
		s.WriteString(fmt.Sprintf(" %s %s",
			statsLabelStyle.Render("Stream:"),
			warningStyle.Render("waiting for reports...")))
	}
	s.WriteString("\n")

	// Emergency banner
	if m.panel.emergency {
		s.WriteString(errorStyle.Render(" !! EMERGENCY OFF !!  panel cut power to its slots"))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	// Layout: left panel (palette) | right panel (detail)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	paletteStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusPalette {
		paletteStyle = focusedBoxStyle.Width(leftWidth)
	}
	palettePanel := paletteStyle.Render(m.paletteList.View())

	detailContent := m.renderDetailPanel(statsLabelStyle, statsValueStyle, headerStyle)
	detailStyle := boxStyle.Width(rightWidth)
	if m.focusedField == focusValueInput {
		detailStyle = focusedBoxStyle.Width(rightWidth)
	}
	detailPanel := detailStyle.Render(detailContent)

	// Join panels horizontally
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, palettePanel, " ", detailPanel))
	s.WriteString("\n\n")

	// Panel state bar
	s.WriteString(m.renderPanelStateBar(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, boxStyle))
	s.WriteString("\n\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderDetailPanel(statsLabelStyle, statsValueStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.selectedEntry()
	if selected == nil {
		s.WriteString(headerStyle.Render("No command selected"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Command:"), statsValueStyle.Render(selected.name)))
	s.WriteString(fmt.Sprintf("%s %s\n\n", statsLabelStyle.Render("Value:"), headerStyle.Render(selected.desc)))

	if selected.placeholder == "" {
		s.WriteString(headerStyle.Render("Press Enter to send"))
		return s.String()
	}

	if m.focusedField == focusValueInput && m.editingKind == selected.kind {
		s.WriteString(m.valueInput.View())
		s.WriteString("\n\n")
		s.WriteString(headerStyle.Render("Enter=send  Esc=cancel"))
	} else {
		if last, ok := m.lastApplied[selected.kind]; ok {
			s.WriteString(fmt.Sprintf("%s %s\n\n", statsLabelStyle.Render("Last applied:"), statsValueStyle.Render(last)))
		} else {
			s.WriteString(fmt.Sprintf("%s %s\n\n", statsLabelStyle.Render("Suggested:"), headerStyle.Render(selected.placeholder)))
		}
		s.WriteString(headerStyle.Render("Press Enter to edit"))
	}

	return s.String()
}

func (m controlModel) renderPanelStateBar(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, boxStyle lipgloss.Style) string {
	button := "UP"
	if m.panel.buttonDown {
		button = "DOWN"
	}

	heartbeat := warningStyle.Render("none yet")
	if !m.panel.lastHeartbeat.IsZero() {
		age := time.Since(m.panel.lastHeartbeat)
		if age > heartbeatStaleAfter {
			heartbeat = errorStyle.Render(fmt.Sprintf("%s ago (STALE)", formatAge(age)))
		} else {
			heartbeat = statsValueStyle.Render(fmt.Sprintf("%s ago", formatAge(age)))
		}
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s",
		statsLabelStyle.Render("Dial:"), statsValueStyle.Render(fmt.Sprintf("%+d", m.panel.dialPosition)),
		statsLabelStyle.Render("Button:"), statsValueStyle.Render(fmt.Sprintf("%s (%d presses)", button, m.panel.pressCount)),
		statsLabelStyle.Render("Heartbeat:"), heartbeat,
	)

	if m.panel.hasError {
		content += fmt.Sprintf("  %s %s",
			statsLabelStyle.Render("Error:"), errorStyle.Render(fmt.Sprintf("0x%04X", m.panel.lastErrorCode)))
	}

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	streamErrors := m.stats.Malformed + m.stats.BufferOverflows + m.stats.QueueOverruns

	content := fmt.Sprintf("%s %s  %s %s  %s %s",
		statsLabelStyle.Render("Reports:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalReports)),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f rpt/s", m.stats.ReportRate)),
		statsLabelStyle.Render("Stream errors:"), func() string {
			if streamErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", streamErrors))
			}
			return statsValueStyle.Render("0")
		}(),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	// Calculate available height for log
	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) selectedEntry() *paletteEntry {
	if len(m.entries) == 0 {
		return nil
	}

	idx := m.paletteList.Index()
	if idx < 0 || idx >= len(m.entries) {
		return nil
	}

	return &m.entries[idx]
}

func (m *controlModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 2
	if listHeight < 8 {
		listHeight = 8
	}
	m.paletteList.SetSize(28, listHeight)
}
