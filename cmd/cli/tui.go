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
	"github.com/charmbracelet/bubbletea"
	"regza/internal"
	"regza/internal/regza"
)

// Main TUI model that routes between screens
type model struct {
	currentScreen screen
	width         int
	height        int
	quitting      bool

	options *internal.FnModeOptions
	preset  *regza.RegzaRemote

	setupModel  SetupModel
	remoteModel RemoteModel
}

func newModel(options *internal.FnModeOptions, remote *regza.RegzaRemote) model {
	m := model{
		currentScreen: screenDeviceSetup,
		options:       options,
		preset:        remote,
		setupModel:    NewSetupModel(options),
	}
	if remote != nil {
		m.setupModel.connecting = true
		m.setupModel.values[setupFieldHost] = remote.Controller().Host()
		m.setupModel.cursors[setupFieldHost] = len(remote.Controller().Host())
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.preset != nil {
		return ConnectCmd(m.preset)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.remoteModel, cmd = m.remoteModel.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "q":
			if m.currentScreen == screenRemoteControl {
				// back to the connection screen
				m.currentScreen = screenDeviceSetup
				m.setupModel = NewSetupModel(m.options)
				return m, nil
			}
		}
	}

	switch m.currentScreen {
	case screenDeviceSetup:
		var cmd tea.Cmd
		m.setupModel, cmd = m.setupModel.Update(msg)
		if m.setupModel.IsConnected() {
			m.remoteModel = NewRemoteModel(m.setupModel.Remote(), m.setupModel.State(), m.options.Debug, m.options.Test)
			m.remoteModel.width = m.width
			m.remoteModel.height = m.height
			m.currentScreen = screenRemoteControl
		}
		return m, cmd

	case screenRemoteControl:
		var cmd tea.Cmd
		m.remoteModel, cmd = m.remoteModel.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return successStyle.Render("Bye from REGZA Remote!") + "\n"
	}

	switch m.currentScreen {
	case screenDeviceSetup:
		return m.setupModel.View()
	case screenRemoteControl:
		return m.remoteModel.View()
	default:
		return "Unknown screen"
	}
}

// StartTUI runs the terminal remote. When remote is non-nil the connection
// screen is skipped.
func StartTUI(options *internal.FnModeOptions, remote *regza.RegzaRemote) error {
	if options == nil {
		options = internal.NewModeOptions()
	}
	p := tea.NewProgram(
		newModel(options, remote),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	defer func() {
		if r := recover(); r != nil {
			p.Kill()
		}
	}()

	_, err := p.Run()
	return err
}
