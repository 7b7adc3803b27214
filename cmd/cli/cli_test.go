package cli

import (
	"testing"

	"github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal"
	"regza/internal/regza"
)

func testRemote() *regza.RegzaRemote {
	return regza.NewRegzaRemote("tv", regza.ControllerConfig{
		Endpoint: regza.Endpoint{Host: "192.168.1.20", User: "admin", Pass: "secret"},
	}, internal.NewModeOptions(internal.WithTest(true)))
}

func typeText(m SetupModel, text string) SetupModel {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestIsValidHost(t *testing.T) {
	assert.True(t, IsValidHost("192.168.1.20"))
	assert.True(t, IsValidHost("regza.local"))
	assert.False(t, IsValidHost("bad host"))
	assert.False(t, IsValidHost("http://tv"))
}

func TestSetupRequiresHostAndUser(t *testing.T) {
	m := NewSetupModel(internal.NewModeOptions(internal.WithTest(true)))
	m.focusedField = setupFieldConnect

	m, cmd := m.handleConnect()
	assert.Nil(t, cmd)
	assert.Equal(t, "Host address is required", m.connectionError)

	m.values[setupFieldHost] = "192.168.1.20"
	m, cmd = m.handleConnect()
	assert.Nil(t, cmd)
	assert.Equal(t, "User is required", m.connectionError)
}

func TestSetupTextEditing(t *testing.T) {
	m := NewSetupModel(nil)
	m = typeText(m, "10.0.0.9")
	assert.Equal(t, "10.0.0.9", m.values[setupFieldHost])

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "10.0.0.", m.values[setupFieldHost])

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "admin")
	assert.Equal(t, "admin", m.values[setupFieldUser])

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "pw")
	assert.Equal(t, "pw", m.values[setupFieldPass])
	assert.NotContains(t, m.View(), "pw")
}

func TestSetupConnectsToSimulator(t *testing.T) {
	m := NewSetupModel(internal.NewModeOptions(internal.WithTest(true)))
	m = typeText(m, "192.168.1.20")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "admin")
	m.focusedField = setupFieldConnect

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.connecting)

	m, _ = m.Update(cmd())
	assert.False(t, m.connecting)
	assert.Empty(t, m.connectionError)
	require.True(t, m.IsConnected())
	assert.False(t, m.State().Active)
}

func TestRemotePressSendsIntent(t *testing.T) {
	remote := testRemote()
	m := NewRemoteModel(remote, regza.State{}, false, true)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.pending)

	msg := cmd()
	result, ok := msg.(actionResultMsg)
	require.True(t, ok)
	assert.True(t, result.response.Success)
	assert.Equal(t, []regza.RemoteKeyCode{regza.PowerToggleCode}, remote.Simulator().KeyPresses())

	m, refresh := m.Update(result)
	assert.Equal(t, 0, m.pending)
	require.Len(t, m.actionHistory, 1)
	assert.Equal(t, "power-toggle", m.actionHistory[0].Action)
	require.NotNil(t, refresh)

	m, _ = m.Update(refresh())
	assert.True(t, m.state.Active)
	assert.Contains(t, m.View(), "ON")
}

func TestRemoteUnsupportedButton(t *testing.T) {
	remote := testRemote()
	m := NewRemoteModel(remote, regza.State{}, false, false)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())
	assert.Empty(t, remote.Simulator().KeyPresses())
	assert.Contains(t, m.renderStatusBar(), "No REGZA key")
}
