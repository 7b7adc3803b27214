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

package hub

import (
	"fmt"
	"os"

	"regza/internal/regza"
)

// ConfigManager edits the device list of a hub configuration file
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration, creating the default file when missing
func (cm *ConfigManager) Load() (*Config, error) {
	if _, err := os.Stat(cm.configPath); os.IsNotExist(err) {
		defaultConfig := NewDefaultConfig()
		if err := cm.Save(defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	config, err := LoadConfig(cm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// Save validates and writes the configuration
func (cm *ConfigManager) Save(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	if err := SaveConfig(config, cm.configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// AddDevice appends a television to the configuration
func (cm *ConfigManager) AddDevice(device DeviceConfig) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	for _, existing := range config.Devices {
		if existing.ID == device.ID {
			return fmt.Errorf("device with ID '%s' already exists", device.ID)
		}
	}

	config.Devices = append(config.Devices, NewDeviceTemplate(device))
	return cm.Save(config)
}

// UpdateDevice replaces the entry for deviceID, keeping its ID
func (cm *ConfigManager) UpdateDevice(deviceID string, updated DeviceConfig) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	for i, device := range config.Devices {
		if device.ID == deviceID {
			updated.ID = deviceID
			config.Devices[i] = NewDeviceTemplate(updated)
			return cm.Save(config)
		}
	}

	return fmt.Errorf("device with ID '%s' not found", deviceID)
}

// RemoveDevice removes a television. The last device cannot be removed.
func (cm *ConfigManager) RemoveDevice(deviceID string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	for i, device := range config.Devices {
		if device.ID == deviceID {
			config.Devices = append(config.Devices[:i], config.Devices[i+1:]...)
			return cm.Save(config)
		}
	}

	return fmt.Errorf("device with ID '%s' not found", deviceID)
}

// ListDevices returns all devices from the configuration
func (cm *ConfigManager) ListDevices() ([]DeviceConfig, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}
	return config.Devices, nil
}

// BackupConfig copies the current configuration next to itself
func (cm *ConfigManager) BackupConfig() error {
	config, err := cm.Load()
	if err != nil {
		return err
	}
	return SaveConfig(config, cm.backupPath())
}

// RestoreFromBackup replaces the configuration with its backup
func (cm *ConfigManager) RestoreFromBackup() error {
	if _, err := os.Stat(cm.backupPath()); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", cm.backupPath())
	}

	config, err := LoadConfig(cm.backupPath())
	if err != nil {
		return fmt.Errorf("failed to load backup: %w", err)
	}
	return cm.Save(config)
}

func (cm *ConfigManager) backupPath() string {
	return cm.configPath + ".backup"
}

// NewDeviceTemplate fills the unset fields of a device entry
func NewDeviceTemplate(device DeviceConfig) DeviceConfig {
	if device.Name == "" {
		device.Name = regza.DefaultName
	}
	if device.Model == "" {
		device.Model = regza.DefaultModel
	}
	if device.MuteSource == "" {
		device.MuteSource = string(regza.MuteSourceFixed)
	}
	if device.Timeout == 0 {
		device.Timeout = regza.DefaultTimeout
	}
	return device
}
