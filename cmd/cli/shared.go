package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"regza/internal/regza"
)

// Screen types
type screen int

const (
	screenDeviceSetup screen = iota
	screenRemoteControl
)

// Common styles
var (
	titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#E60012")).
		Padding(0, 1).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E60012")).
		Bold(true)

	inputStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#E60012")).
		Padding(0, 1).
		Width(50)

	inputFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FF6B57")).
		Padding(0, 1).
		Width(50)

	buttonStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("#E60012")).
		Foreground(lipgloss.Color("#FAFAFA")).
		Padding(0, 2).
		Margin(0, 1)

	buttonActiveStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("#FF6B57")).
		Foreground(lipgloss.Color("#FAFAFA")).
		Padding(0, 2).
		Margin(0, 1)

	remoteButtonStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Margin(0, 1).
		Background(lipgloss.Color("#44475A")).
		Foreground(lipgloss.Color("#F8F8F2"))

	remoteButtonActiveStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Margin(0, 1).
		Background(lipgloss.Color("#FF6B57")).
		Foreground(lipgloss.Color("#FAFAFA"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5555")).
		Bold(true)

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#50FA7B")).
		Bold(true)

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4"))
)

// Remote button types
type remoteButton int

const (
	buttonPower remoteButton = iota
	buttonVolumeUp
	buttonVolumeDown
	buttonMute
	buttonUp
	buttonDown
	buttonLeft
	buttonRight
	buttonOK
	buttonBack
	buttonPlayPause
	buttonRewind
	buttonFastForward
	buttonExit
	buttonInfo
)

// buttonIntents maps every button to the intent it sends
var buttonIntents = map[remoteButton]regza.Intent{
	buttonPower:       regza.IntentPowerToggle,
	buttonVolumeUp:    regza.IntentVolumeUp,
	buttonVolumeDown:  regza.IntentVolumeDown,
	buttonMute:        regza.IntentMuteToggle,
	buttonUp:          regza.IntentNavUp,
	buttonDown:        regza.IntentNavDown,
	buttonLeft:        regza.IntentNavLeft,
	buttonRight:       regza.IntentNavRight,
	buttonOK:          regza.IntentSelect,
	buttonBack:        regza.IntentBack,
	buttonPlayPause:   regza.IntentPlayPause,
	buttonRewind:      regza.IntentRewind,
	buttonFastForward: regza.IntentFastForward,
	buttonExit:        regza.IntentExit,
	buttonInfo:        regza.IntentInformation,
}

// Action history entry
type actionHistoryEntry struct {
	Timestamp time.Time
	Action    string
	Success   bool
	Error     string
}

// Utility functions

// insertText inserts text at the specified position in a string
func insertText(text string, pos int, insert string) string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(text) {
		pos = len(text)
	}
	return text[:pos] + insert + text[pos:]
}

// deleteCharAt deletes the character at the specified position
func deleteCharAt(text string, pos int) string {
	if pos < 0 || pos >= len(text) {
		return text
	}
	return text[:pos] + text[pos+1:]
}

// renderTextWithCursor renders text with a cursor indicator at the specified position
func renderTextWithCursor(text string, cursorPos int, showCursor bool) string {
	if !showCursor || cursorPos < 0 {
		return text
	}

	if cursorPos > len(text) {
		cursorPos = len(text)
	}

	if cursorPos == len(text) {
		// Cursor at end - add a visible cursor character
		return text + "│"
	} else {
		// Cursor in middle - highlight the character at cursor position
		before := text[:cursorPos]
		atCursor := string(text[cursorPos])
		after := text[cursorPos+1:]

		// Highlight the character under cursor
		highlightedChar := lipgloss.NewStyle().
			Background(lipgloss.Color("#FF6B57")).
			Foreground(lipgloss.Color("#FAFAFA")).
			Render(atCursor)

		return before + highlightedChar + after
	}
}
