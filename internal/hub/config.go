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
	"time"

	"gopkg.in/yaml.v3"
	"regza/internal/regza"
)

// Config represents the hub configuration structure
type Config struct {
	Hub     HubConfig      `yaml:"hub"`
	HomeKit HomeKitConfig  `yaml:"homekit"`
	API     APIConfig      `yaml:"api"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Devices []DeviceConfig `yaml:"devices"`
}

// HubConfig contains hub identity and shared settings
type HubConfig struct {
	Name     string `yaml:"name"`
	StateDir string `yaml:"state_dir"`
	Journal  string `yaml:"journal"` // sqlite path, empty disables the action journal

	// JournalRetention bounds the age of journal entries
	JournalRetention time.Duration `yaml:"journal_retention"`
}

// HomeKitConfig controls the HomeKit accessory server
type HomeKitConfig struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`
	Address string `yaml:"address"`
}

// APIConfig controls the REST API
type APIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Address      string `yaml:"address"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
	TokenHours   int    `yaml:"token_hours"`
}

// MQTTConfig controls the MQTT state bridge
type MQTTConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Broker       string        `yaml:"broker"`
	TopicPrefix  string        `yaml:"topic_prefix"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DeviceConfig represents a single television
type DeviceConfig struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Model      string        `yaml:"model"`
	Host       string        `yaml:"host"`
	User       string        `yaml:"user"`
	Pass       string        `yaml:"pass"`
	MuteSource string        `yaml:"mute_source"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ControllerConfig converts the device entry for the regza package
func (d DeviceConfig) ControllerConfig() regza.ControllerConfig {
	return regza.ControllerConfig{
		Name:  d.Name,
		Model: d.Model,
		Endpoint: regza.Endpoint{
			Host: d.Host,
			User: d.User,
			Pass: d.Pass,
		},
		Timeout:    d.Timeout,
		MuteSource: regza.MuteSource(d.MuteSource),
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Hub.Name == "" {
		c.Hub.Name = "REGZA Bridge"
	}
	if c.Hub.StateDir == "" {
		c.Hub.StateDir = "./state"
	}
	if c.Hub.JournalRetention <= 0 {
		c.Hub.JournalRetention = 30 * 24 * time.Hour
	}
	if c.HomeKit.Address == "" {
		c.HomeKit.Address = ":51826"
	}
	if c.API.Address == "" {
		c.API.Address = ":8080"
	}
	if c.API.TokenHours <= 0 {
		c.API.TokenHours = 24
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "regza"
	}
	if c.MQTT.PollInterval <= 0 {
		c.MQTT.PollInterval = 30 * time.Second
	}
	for i := range c.Devices {
		if c.Devices[i].MuteSource == "" {
			c.Devices[i].MuteSource = string(regza.MuteSourceFixed)
		}
		if c.Devices[i].Timeout <= 0 {
			c.Devices[i].Timeout = regza.DefaultTimeout
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("at least one device must be configured")
	}

	deviceIDs := make(map[string]bool)
	for i, device := range c.Devices {
		if device.ID == "" {
			return fmt.Errorf("device[%d].id is required", i)
		}
		if deviceIDs[device.ID] {
			return fmt.Errorf("duplicate device ID: %s", device.ID)
		}
		deviceIDs[device.ID] = true

		if device.Host == "" {
			return fmt.Errorf("device[%d].host is required", i)
		}
		if device.User == "" {
			return fmt.Errorf("device[%d].user is required", i)
		}
		switch regza.MuteSource(device.MuteSource) {
		case "", regza.MuteSourceFixed, regza.MuteSourceLive:
		default:
			return fmt.Errorf("device[%d].mute_source must be fixed or live", i)
		}
	}

	if c.HomeKit.Enabled && len(c.HomeKit.Pin) != 8 {
		return fmt.Errorf("homekit.pin must be 8 digits")
	}
	if c.API.Enabled {
		if c.API.JWTSecret == "" {
			return fmt.Errorf("api.jwt_secret is required")
		}
		if c.API.Username == "" || c.API.PasswordHash == "" {
			return fmt.Errorf("api.username and api.password_hash are required")
		}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	return nil
}

// GetDevice returns a device configuration by ID
func (c *Config) GetDevice(id string) (*DeviceConfig, error) {
	for _, device := range c.Devices {
		if device.ID == id {
			return &device, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", id)
}

// Save saves the configuration to a YAML file
func (c *Config) Save(filepath string) error {
	return SaveConfig(c, filepath)
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filepath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewDefaultConfig creates a default configuration template
func NewDefaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			Name:     "REGZA Bridge",
			StateDir: "./state",
			Journal:  "regza.db",

			JournalRetention: 30 * 24 * time.Hour,
		},
		HomeKit: HomeKitConfig{
			Enabled: true,
			Pin:     "00102003",
			Address: ":51826",
		},
		API: APIConfig{
			Enabled:      false,
			Address:      ":8080",
			Username:     "admin",
			PasswordHash: "password_hash_here",
			JWTSecret:    "jwt_secret_here",
			TokenHours:   24,
		},
		MQTT: MQTTConfig{
			Enabled:      false,
			Broker:       "tcp://localhost:1883",
			TopicPrefix:  "regza",
			PollInterval: 30 * time.Second,
		},
		Devices: []DeviceConfig{
			{
				ID:         "living_room_tv",
				Name:       regza.DefaultName,
				Model:      regza.DefaultModel,
				Host:       "192.168.1.20",
				User:       "user_here",
				Pass:       "pass_here",
				MuteSource: string(regza.MuteSourceFixed),
				Timeout:    regza.DefaultTimeout,
			},
		},
	}
}
