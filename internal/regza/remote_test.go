package regza_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal"
	"regza/internal/device"
	"regza/internal/regza"
)

func newTestRemote(source regza.MuteSource) *regza.RegzaRemote {
	return regza.NewRegzaRemote("living_room_tv", regza.ControllerConfig{
		Name:       "Living Room",
		Endpoint:   regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"},
		MuteSource: source,
	}, internal.NewModeOptions(internal.WithTest(true)))
}

func process(t *testing.T, remote *regza.RegzaRemote, actionType device.ActionType, action string, params map[string]interface{}) *device.ActionResponse {
	t.Helper()
	actionJSON, err := device.NewActionJSON(actionType, action, params)
	require.NoError(t, err)
	resp, err := remote.Process(context.Background(), actionJSON)
	require.NoError(t, err)
	return resp
}

func TestNewRegzaRemote(t *testing.T) {
	remote := newTestRemote("")

	info := remote.GetDeviceInfo()
	assert.Equal(t, "living_room_tv", info.ID)
	assert.Equal(t, "Living Room", info.Name)
	assert.Equal(t, "regza_tv", info.Type)
	assert.Equal(t, "TOSHIBA", info.Manufacturer)
	assert.Equal(t, "Z720X", info.Model)
	assert.Equal(t, "tv.local", info.Address)
	assert.Contains(t, info.Capabilities, "remote_keys")
	assert.NotNil(t, remote.Simulator())
	assert.NotNil(t, remote.Controller())
}

func TestRegzaRemote_Process(t *testing.T) {
	t.Run("remote key", func(t *testing.T) {
		remote := newTestRemote("")
		resp := process(t, remote, device.ActionTypeRemote, "nav-up", nil)

		assert.True(t, resp.Success)
		assert.Equal(t, map[string]interface{}{"intent": "nav-up", "sent": true}, resp.Data)
		assert.Equal(t, []regza.RemoteKeyCode{regza.NavUpCode}, remote.Simulator().KeyPresses())
	})

	t.Run("unsupported remote key succeeds without sending", func(t *testing.T) {
		remote := newTestRemote("")
		resp := process(t, remote, device.ActionTypeRemote, "rewind", nil)

		assert.True(t, resp.Success)
		assert.Equal(t, map[string]interface{}{"intent": "rewind", "sent": false}, resp.Data)
		assert.Equal(t, 0, remote.Simulator().RequestCount())
	})

	t.Run("unknown remote key fails", func(t *testing.T) {
		resp := process(t, newTestRemote(""), device.ActionTypeRemote, "hdmi9", nil)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "unknown intent")
	})

	t.Run("set power then read it", func(t *testing.T) {
		remote := newTestRemote("")

		resp := process(t, remote, device.ActionTypeControl, "set_power", map[string]interface{}{"on": true})
		require.True(t, resp.Success, resp.Error)

		resp = process(t, remote, device.ActionTypeControl, "power_status", nil)
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, map[string]interface{}{"active": true}, resp.Data)
	})

	t.Run("set power requires parameter", func(t *testing.T) {
		resp := process(t, newTestRemote(""), device.ActionTypeControl, "set_power", nil)
		assert.False(t, resp.Success)
	})

	t.Run("fixed mute source", func(t *testing.T) {
		remote := newTestRemote(regza.MuteSourceFixed)
		resp := process(t, remote, device.ActionTypeControl, "mute_status", nil)

		require.True(t, resp.Success)
		assert.Equal(t, map[string]interface{}{"mute": true, "source": "fixed"}, resp.Data)
		assert.Equal(t, 0, remote.Simulator().RequestCount())
	})

	t.Run("live mute source", func(t *testing.T) {
		remote := newTestRemote(regza.MuteSourceLive)
		resp := process(t, remote, device.ActionTypeControl, "mute_status", nil)

		require.True(t, resp.Success)
		assert.Equal(t, map[string]interface{}{"mute": false, "source": "live"}, resp.Data)
	})

	t.Run("volume", func(t *testing.T) {
		remote := newTestRemote("")
		resp := process(t, remote, device.ActionTypeControl, "volume", map[string]interface{}{"direction": "down"})

		require.True(t, resp.Success)
		assert.Equal(t, 19, remote.Simulator().Volume())
	})

	t.Run("set input is accepted", func(t *testing.T) {
		remote := newTestRemote("")
		resp := process(t, remote, device.ActionTypeControl, "set_input", map[string]interface{}{"id": 2})

		assert.True(t, resp.Success)
		assert.Equal(t, 0, remote.Simulator().RequestCount())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		resp, err := newTestRemote("").Process(context.Background(), []byte(`{`))
		require.NoError(t, err)
		assert.False(t, resp.Success)
	})

	t.Run("unknown action type", func(t *testing.T) {
		resp := process(t, newTestRemote(""), "macro", "x", nil)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "unsupported action type")
	})
}

func TestRegzaRemoteState(t *testing.T) {
	cfg := regza.ControllerConfig{
		Endpoint:   regza.Endpoint{Host: "10.0.0.8", User: "admin", Pass: "pass"},
		MuteSource: regza.MuteSourceLive,
	}
	remote := regza.NewRegzaRemote("tv", cfg, internal.NewModeOptions(internal.WithTest(true)))
	remote.Simulator().SetPower(true)
	remote.Simulator().SetMuted(true)

	state, err := remote.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, regza.State{Active: true, Muted: true}, state)
	assert.Equal(t, 4, remote.Simulator().RequestCount())
}
