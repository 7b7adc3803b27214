package cli

import (
	"context"
	"net"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"regza/internal"
	"regza/internal/logger"
	"regza/internal/regza"
)

// Setup screen input fields
type setupField int

const (
	setupFieldHost setupField = iota
	setupFieldUser
	setupFieldPass
	setupFieldMuteSource
	setupFieldConnect
)

var setupFields = []setupField{setupFieldHost, setupFieldUser, setupFieldPass, setupFieldMuteSource, setupFieldConnect}

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// connectedMsg reports the result of the first status read after Connect
type connectedMsg struct {
	remote *regza.RegzaRemote
	state  regza.State
	err    error
}

// SetupModel handles the connection screen
type SetupModel struct {
	focusedField setupField

	// Input fields, indexed by setupField
	values  [3]string
	cursors [3]int

	muteSources    []regza.MuteSource
	selectedSource int

	connecting      bool
	connectionError string

	remote *regza.RegzaRemote
	state  regza.State

	options *internal.FnModeOptions
}

// NewSetupModel creates a setup screen model
func NewSetupModel(options *internal.FnModeOptions) SetupModel {
	if options == nil {
		options = internal.NewModeOptions()
	}
	return SetupModel{
		focusedField: setupFieldHost,
		muteSources:  []regza.MuteSource{regza.MuteSourceFixed, regza.MuteSourceLive},
		options:      options,
	}
}

// Update handles setup screen messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.connectionError = msg.err.Error()
			return m, nil
		}
		m.remote = msg.remote
		m.state = msg.state
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "enter":
			if m.focusedField == setupFieldConnect {
				return m.handleConnect()
			}
			return m.moveFocus(1), nil
		case "left":
			return m.handleLeft(), nil
		case "right":
			return m.handleRight(), nil
		case "backspace":
			return m.handleBackspace(), nil
		case "delete":
			return m.handleDelete(), nil
		case "home":
			if m.isTextField() {
				m.cursors[m.focusedField] = 0
			}
			return m, nil
		case "end":
			if m.isTextField() {
				m.cursors[m.focusedField] = len(m.values[m.focusedField])
			}
			return m, nil
		default:
			return m.handleTextInput(msg.String()), nil
		}
	}

	return m, nil
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("REGZA Remote - Connect"))
	b.WriteString("\n\n")

	labels := []string{"Host Address:", "Status API User:", "Status API Password:"}
	for i, label := range labels {
		field := setupField(i)
		b.WriteString(subtitleStyle.Render(label))
		b.WriteString("\n")

		style := inputStyle
		focused := m.focusedField == field
		if focused {
			style = inputFocusedStyle
		}
		text := m.values[field]
		if field == setupFieldPass {
			text = strings.Repeat("*", len(text))
		}
		b.WriteString(style.Render(renderTextWithCursor(text, m.cursors[field], focused)))
		b.WriteString("\n\n")
	}

	b.WriteString(subtitleStyle.Render("Mute Source:"))
	b.WriteString("\n")
	for i, source := range m.muteSources {
		cursor := "  "
		if i == m.selectedSource {
			cursor = "> "
		}
		line := cursor + string(source)
		if m.focusedField == setupFieldMuteSource && i == m.selectedSource {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B57")).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	connectStyle := buttonStyle
	if m.focusedField == setupFieldConnect {
		connectStyle = buttonActiveStyle
	}
	connectText := "Connect"
	if m.connecting {
		connectText = "Connecting..."
	}
	b.WriteString(connectStyle.Render(connectText))
	b.WriteString("\n\n")

	if m.connectionError != "" {
		b.WriteString(errorStyle.Render("Error: " + m.connectionError))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("Tab/↑/↓: Navigate • Enter: Next/Connect • ←/→: Move cursor or choose mute source • Esc: Quit"))

	return b.String()
}

func (m SetupModel) isTextField() bool {
	return m.focusedField <= setupFieldPass
}

func (m SetupModel) moveFocus(step int) SetupModel {
	index := 0
	for i, field := range setupFields {
		if field == m.focusedField {
			index = i
			break
		}
	}
	index = (index + step + len(setupFields)) % len(setupFields)
	m.focusedField = setupFields[index]
	if m.isTextField() && m.cursors[m.focusedField] > len(m.values[m.focusedField]) {
		m.cursors[m.focusedField] = len(m.values[m.focusedField])
	}
	return m
}

// handleConnect builds the device and reads its state once
func (m SetupModel) handleConnect() (SetupModel, tea.Cmd) {
	if m.connecting {
		return m, nil
	}

	host := strings.TrimSpace(m.values[setupFieldHost])
	if host == "" {
		m.connectionError = "Host address is required"
		return m, nil
	}
	if !IsValidHost(host) {
		m.connectionError = "Invalid host address format"
		return m, nil
	}
	if m.values[setupFieldUser] == "" {
		m.connectionError = "User is required"
		return m, nil
	}

	m.connecting = true
	m.connectionError = ""

	remote := regza.NewRegzaRemote("cli", regza.ControllerConfig{
		Endpoint: regza.Endpoint{
			Host: host,
			User: m.values[setupFieldUser],
			Pass: m.values[setupFieldPass],
		},
		MuteSource: m.muteSources[m.selectedSource],
	}, m.options)

	return m, ConnectCmd(remote)
}

// ConnectCmd reads the state of remote in the background
func ConnectCmd(remote *regza.RegzaRemote) tea.Cmd {
	return func() tea.Msg {
		state, err := remote.State(context.Background())
		if err != nil {
			return connectedMsg{err: err}
		}

		log := logger.New()
		log.Info().
			Str("host", remote.Controller().Host()).
			Bool("active", state.Active).
			Msg("Television connected")

		return connectedMsg{remote: remote, state: state}
	}
}

func (m SetupModel) handleLeft() SetupModel {
	if m.focusedField == setupFieldMuteSource {
		if m.selectedSource > 0 {
			m.selectedSource--
		}
		return m
	}
	if m.isTextField() && m.cursors[m.focusedField] > 0 {
		m.cursors[m.focusedField]--
	}
	return m
}

func (m SetupModel) handleRight() SetupModel {
	if m.focusedField == setupFieldMuteSource {
		if m.selectedSource < len(m.muteSources)-1 {
			m.selectedSource++
		}
		return m
	}
	if m.isTextField() && m.cursors[m.focusedField] < len(m.values[m.focusedField]) {
		m.cursors[m.focusedField]++
	}
	return m
}

func (m SetupModel) handleBackspace() SetupModel {
	if !m.isTextField() {
		return m
	}
	f := m.focusedField
	if m.cursors[f] > 0 {
		m.values[f] = deleteCharAt(m.values[f], m.cursors[f]-1)
		m.cursors[f]--
	}
	return m
}

func (m SetupModel) handleDelete() SetupModel {
	if !m.isTextField() {
		return m
	}
	f := m.focusedField
	if m.cursors[f] < len(m.values[f]) {
		m.values[f] = deleteCharAt(m.values[f], m.cursors[f])
	}
	return m
}

// handleTextInput inserts printable characters at the cursor
func (m SetupModel) handleTextInput(input string) SetupModel {
	if !m.isTextField() || len(input) == 0 {
		return m
	}

	printable := ""
	for _, r := range input {
		if r >= 32 && r != 127 {
			printable += string(r)
		}
	}
	if printable == "" {
		return m
	}

	f := m.focusedField
	m.values[f] = insertText(m.values[f], m.cursors[f], printable)
	m.cursors[f] += len(printable)
	return m
}

// IsValidHost accepts an IP address or a hostname
func IsValidHost(address string) bool {
	if net.ParseIP(address) != nil {
		return true
	}
	return hostnamePattern.MatchString(address)
}

// IsConnected returns true once the television answered
func (m SetupModel) IsConnected() bool {
	return m.remote != nil
}

// Remote returns the connected device
func (m SetupModel) Remote() *regza.RegzaRemote {
	return m.remote
}

// State returns the state read while connecting
func (m SetupModel) State() regza.State {
	return m.state
}
