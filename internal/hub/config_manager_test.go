package hub_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal/hub"
	"regza/internal/regza"
)

func TestConfigManagerCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.yml")
	cm := hub.NewConfigManager(path)

	devices, err := cm.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "living_room_tv", devices[0].ID)
	assert.FileExists(t, path)
}

func TestConfigManagerAddUpdateRemove(t *testing.T) {
	cm := hub.NewConfigManager(filepath.Join(t.TempDir(), "hub.yml"))

	require.NoError(t, cm.AddDevice(hub.DeviceConfig{ID: "bedroom_tv", Host: "192.168.1.21", User: "admin"}))

	devices, err := cm.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, regza.DefaultModel, devices[1].Model)
	assert.Equal(t, string(regza.MuteSourceFixed), devices[1].MuteSource)

	err = cm.AddDevice(hub.DeviceConfig{ID: "bedroom_tv", Host: "192.168.1.22", User: "admin"})
	assert.Error(t, err)

	require.NoError(t, cm.UpdateDevice("bedroom_tv", hub.DeviceConfig{Host: "192.168.1.22", User: "admin", MuteSource: "live"}))
	devices, err = cm.ListDevices()
	require.NoError(t, err)
	assert.Equal(t, "bedroom_tv", devices[1].ID)
	assert.Equal(t, "192.168.1.22", devices[1].Host)
	assert.Equal(t, "live", devices[1].MuteSource)

	require.NoError(t, cm.RemoveDevice("living_room_tv"))
	assert.Error(t, cm.RemoveDevice("living_room_tv"))

	// the last device cannot go
	assert.Error(t, cm.RemoveDevice("bedroom_tv"))
}

func TestConfigManagerRejectsInvalidDevice(t *testing.T) {
	cm := hub.NewConfigManager(filepath.Join(t.TempDir(), "hub.yml"))
	err := cm.AddDevice(hub.DeviceConfig{ID: "den_tv", Host: "192.168.1.23", User: "admin", MuteSource: "sometimes"})
	assert.Error(t, err)
}

func TestConfigManagerBackupRestore(t *testing.T) {
	cm := hub.NewConfigManager(filepath.Join(t.TempDir(), "hub.yml"))
	assert.Error(t, cm.RestoreFromBackup())

	require.NoError(t, cm.BackupConfig())
	require.NoError(t, cm.AddDevice(hub.DeviceConfig{ID: "bedroom_tv", Host: "192.168.1.21", User: "admin"}))
	require.NoError(t, cm.RestoreFromBackup())

	devices, err := cm.ListDevices()
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}
