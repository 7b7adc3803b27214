package hub_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal/hub"
	"regza/internal/regza"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
devices:
  - id: lounge
    host: 192.168.1.20
    user: admin
    pass: secret
`)

	config, err := hub.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "REGZA Bridge", config.Hub.Name)
	assert.Equal(t, 30*24*time.Hour, config.Hub.JournalRetention)
	assert.Equal(t, "regza", config.MQTT.TopicPrefix)
	assert.Equal(t, 30*time.Second, config.MQTT.PollInterval)

	device := config.Devices[0]
	assert.Equal(t, "fixed", device.MuteSource)
	assert.Equal(t, regza.DefaultTimeout, device.Timeout)
}

func TestLoadConfigDurations(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  enabled: true
  broker: tcp://broker:1883
  poll_interval: 5s
devices:
  - id: lounge
    host: 192.168.1.20
    user: admin
    pass: secret
    mute_source: live
    timeout: 3s
`)

	config, err := hub.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, config.MQTT.PollInterval)
	assert.Equal(t, 3*time.Second, config.Devices[0].Timeout)

	cc := config.Devices[0].ControllerConfig()
	assert.Equal(t, regza.MuteSourceLive, cc.MuteSource)
	assert.Equal(t, regza.Endpoint{Host: "192.168.1.20", User: "admin", Pass: "secret"}, cc.Endpoint)
}

func TestValidate(t *testing.T) {
	valid := func() *hub.Config {
		c := hub.NewDefaultConfig()
		c.HomeKit.Enabled = false
		return c
	}

	tests := []struct {
		name   string
		mutate func(*hub.Config)
		errMsg string
	}{
		{"default template", func(c *hub.Config) {}, ""},
		{"no devices", func(c *hub.Config) { c.Devices = nil }, "at least one device"},
		{"missing id", func(c *hub.Config) { c.Devices[0].ID = "" }, "id is required"},
		{"missing host", func(c *hub.Config) { c.Devices[0].Host = "" }, "host is required"},
		{"missing user", func(c *hub.Config) { c.Devices[0].User = "" }, "user is required"},
		{"bad mute source", func(c *hub.Config) { c.Devices[0].MuteSource = "sometimes" }, "mute_source"},
		{"duplicate id", func(c *hub.Config) { c.Devices = append(c.Devices, c.Devices[0]) }, "duplicate device ID"},
		{"short pin", func(c *hub.Config) { c.HomeKit.Enabled = true; c.HomeKit.Pin = "123" }, "homekit.pin"},
		{"api without secret", func(c *hub.Config) { c.API.Enabled = true; c.API.JWTSecret = "" }, "jwt_secret"},
		{"mqtt without broker", func(c *hub.Config) { c.MQTT.Enabled = true; c.MQTT.Broker = "" }, "mqtt.broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.yml")
	original := hub.NewDefaultConfig()
	require.NoError(t, original.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := hub.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestGetDevice(t *testing.T) {
	config := hub.NewDefaultConfig()

	device, err := config.GetDevice("living_room_tv")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", device.Host)

	_, err = config.GetDevice("garage")
	assert.Error(t, err)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := hub.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = hub.LoadConfig(writeConfig(t, "devices: [unclosed"))
	assert.Error(t, err)

	_, err = hub.LoadConfig(writeConfig(t, "hub:\n  name: empty\n"))
	assert.ErrorContains(t, err, "validation failed")
}
