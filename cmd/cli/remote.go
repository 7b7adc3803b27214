// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"regza/internal/device"
	"regza/internal/logger"
	"regza/internal/regza"
)

// LogEntry represents a log entry for display
type LogEntry struct {
	Timestamp time.Time
	Level     string // INF, DBG, ERR
	Message   string
	Action    string
}

// actionResultMsg carries the outcome of a button press
type actionResultMsg struct {
	button   remoteButton
	action   string
	response *device.ActionResponse
}

// stateMsg carries a refreshed television state
type stateMsg struct {
	state regza.State
	err   error
}

// RemoteModel handles the remote control screen
type RemoteModel struct {
	remote *regza.RegzaRemote
	info   device.DeviceInfo
	state  regza.State

	selectedButton  remoteButton
	lastButtonPress time.Time
	pending         int

	lastResponse  *device.ActionResponse
	actionHistory []actionHistoryEntry

	debugMode bool
	testMode  bool

	width  int
	height int

	logBuffer []LogEntry
}

// NewRemoteModel creates the remote control screen for a connected television
func NewRemoteModel(remote *regza.RegzaRemote, state regza.State, debug, test bool) RemoteModel {
	return RemoteModel{
		remote:    remote,
		info:      remote.GetDeviceInfo(),
		state:     state,
		debugMode: debug,
		testMode:  test,
	}
}

// Update handles remote control screen messages
func (m RemoteModel) Update(msg tea.Msg) (RemoteModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionResultMsg:
		m.pending--
		return m.recordResult(msg), refreshStateCmd(m.remote)

	case stateMsg:
		if msg.err != nil {
			m.addLogEntry("ERR", "state refresh failed: "+msg.err.Error(), "state")
			return m, nil
		}
		m.state = msg.state
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			return m.press(buttonUp)
		case "down":
			return m.press(buttonDown)
		case "left":
			return m.press(buttonLeft)
		case "right":
			return m.press(buttonRight)
		case "enter":
			return m.press(buttonOK)
		case "p":
			return m.press(buttonPower)
		case "+", "=":
			return m.press(buttonVolumeUp)
		case "-":
			return m.press(buttonVolumeDown)
		case "m":
			return m.press(buttonMute)
		case "backspace":
			return m.press(buttonBack)
		case " ":
			return m.press(buttonPlayPause)
		case "r":
			return m.press(buttonRewind)
		case "f":
			return m.press(buttonFastForward)
		case "x":
			return m.press(buttonExit)
		case "i":
			return m.press(buttonInfo)
		case "s":
			return m, refreshStateCmd(m.remote)
		}
	}

	return m, nil
}

// View renders the remote control screen
func (m RemoteModel) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("REGZA Remote"))

	header := successStyle.Render("📺 " + m.info.Name + " (" + m.info.Model + ") at " + m.info.Address)
	if m.testMode {
		header += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Render("(Test)")
	}
	sections = append(sections, header)
	sections = append(sections, m.renderState())
	sections = append(sections, m.renderLayout())

	if m.lastResponse != nil {
		sections = append(sections, m.renderStatusBar())
	}

	if m.debugMode || m.testMode {
		if logDisplay := m.renderLogDisplay(); logDisplay != "" {
			sections = append(sections, logDisplay)
		}
	}

	sections = append(sections, m.renderHelpText())

	return strings.Join(sections, "\n\n")
}

func (m RemoteModel) renderState() string {
	power := errorStyle.Render("OFF")
	if m.state.Active {
		power = successStyle.Render("ON")
	}
	mute := "no"
	if m.state.Muted {
		mute = "yes"
	}
	line := fmt.Sprintf("Power: %s   Muted: %s (%s)", power, mute, m.remote.Controller().MuteSource())
	if m.pending > 0 {
		line += helpStyle.Render("   sending...")
	}
	return line
}

func (m RemoteModel) renderLayout() string {
	buttonStyleFor := func(btn remoteButton) lipgloss.Style {
		base := remoteButtonStyle
		if m.selectedButton == btn && time.Since(m.lastButtonPress) < 200*time.Millisecond {
			base = remoteButtonActiveStyle
		}
		if _, supported := regza.Resolve(buttonIntents[btn]); !supported {
			base = base.Foreground(lipgloss.Color("#6272A4"))
		}
		return base
	}

	navColumn := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Render("Power & Navigation:"),
		buttonStyleFor(buttonPower).Render(" PWR  "),
		"",
		buttonStyleFor(buttonUp).Render("  ↑   "),
		lipgloss.JoinHorizontal(lipgloss.Center,
			buttonStyleFor(buttonLeft).Render("  ←   "),
			buttonStyleFor(buttonOK).Render(" OK   "),
			buttonStyleFor(buttonRight).Render("  →   ")),
		buttonStyleFor(buttonDown).Render("  ↓   "),
	)

	volumeColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Render("Volume:"),
		buttonStyleFor(buttonVolumeUp).Render("VOL + "),
		buttonStyleFor(buttonVolumeDown).Render("VOL - "),
		buttonStyleFor(buttonMute).Render("MUTE  "),
	)

	playbackColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Render("Playback:"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			buttonStyleFor(buttonRewind).Render(" ◀◀   "),
			buttonStyleFor(buttonPlayPause).Render(" ▶/❚❚ "),
			buttonStyleFor(buttonFastForward).Render(" ▶▶   ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			buttonStyleFor(buttonBack).Render("BACK  "),
			buttonStyleFor(buttonExit).Render("EXIT  "),
			buttonStyleFor(buttonInfo).Render("INFO  ")),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		navColumn,
		strings.Repeat(" ", 6),
		volumeColumn,
		strings.Repeat(" ", 6),
		playbackColumn,
	)
}

func (m RemoteModel) renderStatusBar() string {
	if m.lastResponse.Success {
		status := successStyle.Render("✓ Action successful")
		if data, ok := m.lastResponse.Data.(map[string]interface{}); ok && data["sent"] == false {
			status = helpStyle.Render("○ No REGZA key for this button")
		}
		return status
	}
	return errorStyle.Render("✗ " + m.lastResponse.Error)
}

// renderLogDisplay shows the last three log entries
func (m RemoteModel) renderLogDisplay() string {
	if len(m.logBuffer) == 0 {
		return ""
	}

	maxLines := 3
	start := 0
	if len(m.logBuffer) > maxLines {
		start = len(m.logBuffer) - maxLines
	}

	autoScrollIcon := ""
	if len(m.logBuffer) > maxLines {
		autoScrollIcon = " ↓"
	}

	logLines := []string{lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4")).
		Render(fmt.Sprintf("─── LOGS%s ───", autoScrollIcon))}

	for i := 0; i < maxLines; i++ {
		if start+i >= len(m.logBuffer) {
			logLines = append(logLines, "")
			continue
		}
		entry := m.logBuffer[start+i]

		var levelStyle lipgloss.Style
		switch entry.Level {
		case "ERR":
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
		case "DBG":
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
		default:
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		}

		message := entry.Message
		if len(message) > 60 {
			message = message[:57] + "..."
		}
		logLines = append(logLines, fmt.Sprintf("%s [%s] %s",
			entry.Timestamp.Format("15:04:05"),
			levelStyle.Render(entry.Level),
			message))
	}

	return strings.Join(logLines, "\n")
}

func (m *RemoteModel) addLogEntry(level, message, action string) {
	m.logBuffer = append(m.logBuffer, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Action:    action,
	})
	if len(m.logBuffer) > 20 {
		m.logBuffer = m.logBuffer[1:]
	}
}

func (m RemoteModel) renderHelpText() string {
	help := "Arrows: Navigate • Enter: OK • P: Power • +/-: Volume • M: Mute • Backspace: Back"
	if m.width > 100 {
		help += " • Space: Play/Pause • R/F: Rewind/Forward • X: Exit • I: Info • S: Refresh • q: Disconnect"
	} else {
		help += " • S: Refresh • q: Disconnect"
	}
	return "\n" + helpStyle.Render(help)
}

// press sends the button's intent in the background
func (m RemoteModel) press(button remoteButton) (RemoteModel, tea.Cmd) {
	intent, ok := buttonIntents[button]
	if !ok || m.remote == nil {
		return m, nil
	}

	m.selectedButton = button
	m.lastButtonPress = time.Now()
	m.pending++

	remote := m.remote
	return m, func() tea.Msg {
		actionJSON, err := device.NewActionJSON(device.ActionTypeRemote, string(intent), nil)
		if err != nil {
			return actionResultMsg{button: button, action: string(intent), response: &device.ActionResponse{Error: err.Error()}}
		}
		response, err := remote.Process(context.Background(), actionJSON)
		if err != nil {
			response = &device.ActionResponse{Error: err.Error()}
		}
		return actionResultMsg{button: button, action: string(intent), response: response}
	}
}

func (m RemoteModel) recordResult(msg actionResultMsg) RemoteModel {
	response := msg.response
	m.lastResponse = response

	if m.debugMode || m.testMode {
		if response.Success {
			message := msg.action + " sent"
			if m.testMode {
				message = "Test mode: " + msg.action + " simulated"
			}
			m.addLogEntry("INF", message, msg.action)
		} else {
			m.addLogEntry("ERR", msg.action+" failed: "+response.Error, msg.action)
		}
	}

	m.actionHistory = append([]actionHistoryEntry{{
		Timestamp: time.Now(),
		Action:    msg.action,
		Success:   response.Success,
		Error:     response.Error,
	}}, m.actionHistory...)
	if len(m.actionHistory) > 50 {
		m.actionHistory = m.actionHistory[:50]
	}

	log := logger.New()
	log.Info().
		Str("intent", msg.action).
		Bool("success", response.Success).
		Msg("Remote button pressed")

	return m
}

func refreshStateCmd(remote *regza.RegzaRemote) tea.Cmd {
	if remote == nil {
		return nil
	}
	return func() tea.Msg {
		state, err := remote.State(context.Background())
		return stateMsg{state: state, err: err}
	}
}
