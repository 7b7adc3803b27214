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
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"regza/internal"
	"regza/internal/gateway"
	"regza/internal/homekit"
	"regza/internal/journal"
	"regza/internal/logger"
	"regza/internal/mqtt"
)

// Daemon represents the hub daemon
type Daemon struct {
	config        *Config
	configPath    string
	options       *internal.FnModeOptions
	deviceManager *DeviceManager
	journal       *journal.Journal
	logger        zerolog.Logger
	running       bool
	mutex         sync.RWMutex
	started       time.Time
}

// NewDaemon loads the configuration and prepares devices
func NewDaemon(configPath string, options *internal.FnModeOptions) (*Daemon, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newDaemon(config, configPath, options)
}

func newDaemon(config *Config, configPath string, options *internal.FnModeOptions) (*Daemon, error) {
	if options == nil {
		options = internal.NewModeOptions()
	}

	d := &Daemon{
		config:     config,
		configPath: configPath,
		options:    options,
		logger:     logger.Component("hub"),
	}

	if config.Hub.Journal != "" {
		j, err := journal.Open(config.Hub.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		d.journal = j
	}

	d.deviceManager = NewDeviceManager(config, d.journal)
	if err := d.deviceManager.Initialize(options); err != nil {
		d.closeJournal()
		return nil, fmt.Errorf("failed to initialize devices: %w", err)
	}

	return d, nil
}

// DeviceManager exposes the managed devices
func (d *Daemon) DeviceManager() *DeviceManager {
	return d.deviceManager
}

// Start runs until SIGINT or SIGTERM
func (d *Daemon) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}

// Run starts every enabled component and blocks until ctx is done or a
// component fails
func (d *Daemon) Run(ctx context.Context) error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.started = time.Now()
	d.mutex.Unlock()

	defer func() {
		d.mutex.Lock()
		d.running = false
		d.mutex.Unlock()
		d.deviceManager.Shutdown()
		d.closeJournal()
		d.logger.Info().Msg("Hub daemon stopped")
	}()

	d.logger.Info().
		Bool("debug", d.options.Debug).
		Bool("test_mode", d.options.Test).
		Int("device_count", d.deviceManager.GetDeviceCount()).
		Msg("Starting REGZA hub daemon")

	// build everything first so a setup error leaves nothing running
	var (
		hk     *homekit.Server
		api    *gateway.APIServer
		bridge *mqtt.Bridge
	)
	if d.config.HomeKit.Enabled {
		server, err := d.homekitServer()
		if err != nil {
			return err
		}
		hk = server
	}
	if d.config.API.Enabled {
		api = gateway.NewAPIServer(d.deviceManager, gateway.Config{
			Address:      d.config.API.Address,
			Username:     d.config.API.Username,
			PasswordHash: d.config.API.PasswordHash,
			JWTSecret:    d.config.API.JWTSecret,
			TokenHours:   d.config.API.TokenHours,
		})
	}
	if d.config.MQTT.Enabled {
		client, err := mqtt.Connect(d.config.MQTT.Broker, mqtt.WillTopic(d.config.MQTT.TopicPrefix))
		if err != nil {
			return err
		}
		defer client.Disconnect()
		bridge = mqtt.NewBridge(client, d.deviceManager, d.config.MQTT.TopicPrefix, d.config.MQTT.PollInterval)
	}

	g, ctx := errgroup.WithContext(ctx)

	if hk != nil {
		g.Go(func() error { return hk.ListenAndServe(ctx) })
	}
	if api != nil {
		g.Go(api.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return api.Stop(shutdownCtx)
		})
	}
	if bridge != nil {
		g.Go(func() error { return bridge.Run(ctx) })
	}

	g.Go(func() error {
		d.maintenance(ctx)
		return nil
	})

	err := g.Wait()
	if err != nil {
		d.logger.Error().Err(err).Msg("Hub component failed")
	}
	return err
}

func (d *Daemon) homekitServer() (*homekit.Server, error) {
	remotes := d.deviceManager.Devices()
	televisions := make([]*homekit.Television, 0, len(remotes))
	for _, remote := range remotes {
		id := remote.GetDeviceInfo().ID
		cfg, err := d.config.GetDevice(id)
		if err != nil {
			return nil, err
		}
		controller, err := NewRecordingController(d.deviceManager, id, SourceHomeKit)
		if err != nil {
			return nil, err
		}
		televisions = append(televisions, homekit.NewTelevision(id, controller, cfg.Timeout))
	}

	return homekit.NewServer(homekit.ServerConfig{
		Name:     d.config.Hub.Name,
		Pin:      d.config.HomeKit.Pin,
		Address:  d.config.HomeKit.Address,
		StateDir: filepath.Join(d.config.Hub.StateDir, "homekit"),
	}, televisions)
}

// maintenance logs health and prunes the journal
func (d *Daemon) maintenance(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.performHealthCheck(ctx)
		}
	}
}

func (d *Daemon) performHealthCheck(ctx context.Context) {
	if d.journal != nil {
		removed, err := d.journal.Prune(ctx, time.Now().Add(-d.config.Hub.JournalRetention))
		if err != nil {
			d.logger.Warn().Err(err).Msg("Journal prune failed")
		} else if removed > 0 {
			d.logger.Info().Int64("removed", removed).Msg("Pruned journal")
		}
	}

	d.logger.Info().
		Int("device_count", d.deviceManager.GetDeviceCount()).
		Interface("nonces", d.deviceManager.GetNonceStats()).
		Msg("Health check completed")
}

func (d *Daemon) closeJournal() {
	if d.journal == nil {
		return
	}
	if err := d.journal.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close journal")
	}
	d.journal = nil
}

// IsRunning returns whether the daemon is currently running
func (d *Daemon) IsRunning() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.running
}

// GetStatus returns the current status of the daemon
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	status := map[string]interface{}{
		"running":      d.running,
		"config_path":  d.configPath,
		"device_count": d.deviceManager.GetDeviceCount(),
		"homekit":      d.config.HomeKit.Enabled,
		"api":          d.config.API.Enabled,
		"mqtt":         d.config.MQTT.Enabled,
		"journal":      d.config.Hub.Journal != "",
	}
	if d.running {
		status["uptime"] = time.Since(d.started).Round(time.Second).String()
	}
	return status
}
