// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Benchline Systems

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/benchline/benchscope/pkg/esplink"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// benchState tracks the latest decoded input state from the controllers
type benchState struct {
	lastWheel     *esplink.WheelTurnData
	lastWheelAt   time.Time
	lastJack      *esplink.JackStateData
	repairTotal   uint64
	lastImu       [2]*esplink.WeaponImuData // indexed by side
	lastTagUID    uint32
	lastTagAt     time.Time
	lastReloadUID uint32
	lastReloadAt  time.Time
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *esplink.Statistics
	bench         benchState
	eventLog      []eventLogEntry
	maxLogEntries int
	logView       viewport.Model
	synchronized  bool
	droppedBytes  int
	width         int
	height        int
	quitting      bool
	connClosed    bool
}

// Messages
type tickMsg time.Time
type packetMsg struct {
	packet           *esplink.Packet
	validationErrors []esplink.ValidationError
}
type framingErrorMsg struct {
	result esplink.ParseResult
}
type syncMsg struct {
	droppedBytes int
}
type connClosedMsg struct{}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	vp := viewport.New(76, 10)
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         esplink.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 200,
		logView:       vp,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		default:
			// Scrolling keys go to the event log viewport
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogView()

	case tickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.droppedBytes = msg.droppedBytes
		if msg.droppedBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d bytes", msg.droppedBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case framingErrorMsg:
		m.stats.RecordResult(msg.result)
		res := msg.result
		if res.BadEndFrames > 0 {
			m.addLogEntry(fmt.Sprintf("FRAMING: %d bad end marker(s), %d byte(s) dropped", res.BadEndFrames, res.BytesDropped), true)
		} else if res.CrcMismatches > 0 {
			m.addLogEntry(fmt.Sprintf("FRAMING: %d CRC mismatch(es), %d byte(s) dropped", res.CrcMismatches, res.BytesDropped), true)
		} else if res.BytesDropped > 0 {
			m.addLogEntry(fmt.Sprintf("FRAMING: %d byte(s) dropped", res.BytesDropped), true)
		}

	case packetMsg:
		m.stats.RecordPacket(msg.packet, msg.validationErrors)
		m.updateBenchState(msg.packet)

		if len(msg.validationErrors) > 0 {
			msgType := esplink.FormatMessageType(msg.packet.Type())
			for _, err := range msg.validationErrors {
				m.addLogEntry(fmt.Sprintf("%s: %s", msgType, err.Message), true)
			}
		} else if m.showAll {
			msgType := esplink.FormatMessageType(msg.packet.Type())
			m.addLogEntry(fmt.Sprintf("%s src=%d seq=%d (valid)", msgType, msg.packet.Source(), msg.packet.Seq()), false)
		}

	case connClosedMsg:
		m.connClosed = true
		m.addLogEntry("Connection closed", true)
	}

	return m, nil
}

func (m *model) resizeLogView() {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	h := m.height - 18
	if h < 5 {
		h = 5
	}
	m.logView.Width = w
	m.logView.Height = h
	m.renderLog()
}

func (m *model) addLogEntry(message string, isError bool) {
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

	atBottom := m.logView.AtBottom()
	m.renderLog()
	if atBottom {
		m.logView.GotoBottom()
	}
}

func (m *model) renderLog() {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	if len(m.eventLog) == 0 {
		m.logView.SetContent(headerStyle.Render("  (no events yet)"))
		return
	}

	var content strings.Builder
	for _, entry := range m.eventLog {
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			content.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				errorStyle.Render("✗ "+entry.message),
			))
		} else {
			content.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				infoStyle.Render("ℹ "+entry.message),
			))
		}
	}
	m.logView.SetContent(content.String())
}

// updateBenchState extracts input state from decoded packets
func (m *model) updateBenchState(packet *esplink.Packet) {
	switch packet.Type() {
	case esplink.MsgWheelTurn:
		if data, err := esplink.ParseWheelTurn(packet.Payload()); err == nil {
			m.bench.lastWheel = &data
			m.bench.lastWheelAt = packet.Timestamp()
		}

	case esplink.MsgRepairProgress:
		if data, err := esplink.ParseRepairProgress(packet.Payload()); err == nil {
			m.bench.repairTotal += uint64(data.Amount)
		}

	case esplink.MsgJackState:
		if data, err := esplink.ParseJackState(packet.Payload()); err == nil {
			m.bench.lastJack = &data
		}

	case esplink.MsgWeaponTag:
		if data, err := esplink.ParseWeaponTag(packet.Payload()); err == nil {
			m.bench.lastTagUID = data.UID
			m.bench.lastTagAt = packet.Timestamp()
		}

	case esplink.MsgReloadTag:
		if data, err := esplink.ParseReloadTag(packet.Payload()); err == nil {
			m.bench.lastReloadUID = data.UID
			m.bench.lastReloadAt = packet.Timestamp()
		}

	case esplink.MsgWeaponImu:
		if data, err := esplink.ParseWeaponImu(packet.Payload()); err == nil && data.Side <= 1 {
			m.bench.lastImu[data.Side] = &data
		}
	}
}

func (m model) View() string {
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
	s.WriteString(titleStyle.Render("BENCHSCOPE - LINK STATISTICS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit, 'r' to reset",
		m.connInfo, func() string {
			if m.showAll {
				return "All packets"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	if m.connClosed {
		s.WriteString(errorStyle.Render("✗ Connection closed"))
		s.WriteString("\n\n")
	} else if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.droppedBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d bytes)", m.droppedBytes)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	totalErrors := m.stats.BadEndFrames + m.stats.CrcMismatches +
		m.stats.LengthMismatches + m.stats.UnknownTypes + m.stats.AnomalousValues
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalPackets)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	if m.stats.BadEndFrames > 0 || m.stats.CrcMismatches > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Bad Ends:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.BadEndFrames)),
			statsLabelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CrcMismatches)),
			statsLabelStyle.Render("Dropped:"), errorStyle.Render(fmt.Sprintf("%d bytes", m.stats.BytesDropped)),
		))
	}

	if m.stats.LengthMismatches > 0 || m.stats.UnknownTypes > 0 || m.stats.AnomalousValues > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Malformed:"),
			warningStyle.Render(fmt.Sprintf("%d", m.stats.LengthMismatches+m.stats.UnknownTypes+m.stats.AnomalousValues)),
			headerStyle.Render("length"), m.stats.LengthMismatches,
			headerStyle.Render("unknown type"), m.stats.UnknownTypes,
			headerStyle.Render("anomalous"), m.stats.AnomalousValues,
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Packet Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
		statsLabelStyle.Render("Drop Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f B/s", m.stats.DropRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Latest input state (only shown once packets arrive)
	if m.bench.lastWheel != nil || m.bench.lastJack != nil || m.bench.repairTotal > 0 ||
		m.bench.lastImu[0] != nil || m.bench.lastImu[1] != nil {
		s.WriteString(statsLabelStyle.Render("Latest Inputs:"))
		s.WriteString("\n")

		benchContent := strings.Builder{}

		if m.bench.lastWheel != nil {
			dir := "left"
			if m.bench.lastWheel.Right {
				dir = "right"
			}
			benchContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Wheel:"),
				statsValueStyle.Render(fmt.Sprintf("wheel %d turned %s at %s",
					m.bench.lastWheel.WheelIndex, dir, m.bench.lastWheelAt.Format("15:04:05"))),
			))
		}
		if m.bench.lastJack != nil {
			benchContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Jack:"),
				statsValueStyle.Render(fmt.Sprintf("state %d", m.bench.lastJack.State)),
			))
		}
		if m.bench.repairTotal > 0 {
			benchContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Repair:"),
				statsValueStyle.Render(fmt.Sprintf("%d total", m.bench.repairTotal)),
			))
		}
		for side := 0; side <= 1; side++ {
			if imu := m.bench.lastImu[side]; imu != nil {
				name := "Left IMU:"
				if side == 1 {
					name = "Right IMU:"
				}
				benchContent.WriteString(fmt.Sprintf("%s %s\n",
					statsLabelStyle.Render(name),
					statsValueStyle.Render(fmt.Sprintf("pitch %.1f° yaw %.1f° buttons 0x%02X",
						float64(imu.Pitch)/10.0, float64(imu.Yaw)/10.0, imu.Buttons)),
				))
			}
		}
		if !m.bench.lastTagAt.IsZero() {
			benchContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Weapon Tag:"),
				statsValueStyle.Render(fmt.Sprintf("0x%08X at %s", m.bench.lastTagUID, m.bench.lastTagAt.Format("15:04:05"))),
			))
		}
		if !m.bench.lastReloadAt.IsZero() {
			benchContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Reload Tag:"),
				statsValueStyle.Render(fmt.Sprintf("0x%08X at %s", m.bench.lastReloadUID, m.bench.lastReloadAt.Format("15:04:05"))),
			))
		}

		s.WriteString(boxStyle.Render(strings.TrimRight(benchContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))

	return s.String()
}
