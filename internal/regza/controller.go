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

package regza

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"regza/internal/logger"
)

// StateReader reads television state
type StateReader interface {
	PowerState(ctx context.Context, ep Endpoint) (bool, error)
	MuteState(ctx context.Context, ep Endpoint) (bool, error)
}

// KeyPresser sends one remote key
type KeyPresser interface {
	SendKey(ctx context.Context, ep Endpoint, code RemoteKeyCode) error
}

// ControllerConfig describes one television
type ControllerConfig struct {
	Name       string
	Model      string
	Endpoint   Endpoint
	Timeout    time.Duration
	MuteSource MuteSource
}

// ControllerOption customises a Controller at construction
type ControllerOption func(*Controller)

// WithStateReader replaces the status API reader
func WithStateReader(reader StateReader) ControllerOption {
	return func(c *Controller) {
		c.state = reader
	}
}

// WithKeyPresser replaces the key command sender
func WithKeyPresser(presser KeyPresser) ControllerOption {
	return func(c *Controller) {
		c.keys = presser
	}
}

// WithTransports builds the default reader and sender on the given
// transports instead of real network clients
func WithTransports(secure, plain Doer) ControllerOption {
	return func(c *Controller) {
		c.state = NewStateQuery(NewDigestAuthClient(secure, MD5Hex))
		c.keys = NewKeySender(plain)
	}
}

// Controller maps accessory get/set requests onto status queries and key
// presses. It keeps no state of its own besides the immutable endpoint.
type Controller struct {
	name       string
	model      string
	endpoint   Endpoint
	muteSource MuteSource
	state      StateReader
	keys       KeyPresser
	logger     zerolog.Logger
}

// NewController creates a controller for one television
func NewController(cfg ControllerConfig, opts ...ControllerOption) *Controller {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MuteSource == "" {
		cfg.MuteSource = MuteSourceFixed
	}

	c := &Controller{
		name:       cfg.Name,
		model:      cfg.Model,
		endpoint:   cfg.Endpoint,
		muteSource: cfg.MuteSource,
		logger:     logger.New().With().Str("device", cfg.Name).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.state == nil {
		c.state = NewStateQuery(NewDigestAuthClient(NewSecureTransport(cfg.Timeout), MD5Hex))
	}
	if c.keys == nil {
		c.keys = NewKeySender(NewPlainTransport(cfg.Timeout))
	}
	return c
}

func (c *Controller) Name() string           { return c.name }
func (c *Controller) Model() string          { return c.model }
func (c *Controller) Host() string           { return c.endpoint.Host }
func (c *Controller) MuteSource() MuteSource { return c.muteSource }

// GetActive reads the power state from the television
func (c *Controller) GetActive(ctx context.Context) (bool, error) {
	c.logger.Debug().Msg("Getting power status")
	return c.state.PowerState(ctx, c.endpoint)
}

// SetActive toggles power only when the television is not already in the
// desired state. The remote has a single power key.
func (c *Controller) SetActive(ctx context.Context, desired bool) error {
	c.logger.Info().Bool("desired", desired).Msg("Setting power")

	current, err := c.state.PowerState(ctx, c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to read power state: %w", err)
	}
	if current == desired {
		c.logger.Info().Bool("current", current).Msg("Already in the desired state, skipping")
		return nil
	}
	return c.keys.SendKey(ctx, c.endpoint, PowerToggleCode)
}

// GetMute always reports muted. Use GetMuteLive for the status API value.
func (c *Controller) GetMute(ctx context.Context) (bool, error) {
	return true, nil
}

// GetMuteLive reads the mute state from the television
func (c *Controller) GetMuteLive(ctx context.Context) (bool, error) {
	c.logger.Debug().Msg("Getting mute status")
	return c.state.MuteState(ctx, c.endpoint)
}

// SetMute presses the mute key regardless of desired or current state.
// TODO: read-before-write like SetActive once the mute status endpoint is
// confirmed reliable across firmware versions.
func (c *Controller) SetMute(ctx context.Context, desired bool) error {
	c.logger.Info().Bool("desired", desired).Msg("Toggling mute")
	return c.keys.SendKey(ctx, c.endpoint, MuteToggleCode)
}

// SetVolume presses the volume key for dir
func (c *Controller) SetVolume(ctx context.Context, dir VolumeDirection) error {
	switch dir {
	case VolumeUp:
		return c.keys.SendKey(ctx, c.endpoint, VolumeUpCode)
	case VolumeDown:
		return c.keys.SendKey(ctx, c.endpoint, VolumeDownCode)
	default:
		return fmt.Errorf("invalid volume direction: %q", dir)
	}
}

// SendRemoteKey presses the key for intent. Intents without a key are
// logged and ignored.
func (c *Controller) SendRemoteKey(ctx context.Context, intent Intent) error {
	code, ok := Resolve(intent)
	if !ok {
		c.logger.Info().Str("intent", string(intent)).Msg("Remote key not supported, ignoring")
		return nil
	}
	c.logger.Debug().Str("intent", string(intent)).Str("code", string(code)).Msg("Remote key")
	return c.keys.SendKey(ctx, c.endpoint, code)
}

// SetActiveIdentifier accepts an input source selection. REGZA key codes
// have no direct input keys, so nothing is sent.
func (c *Controller) SetActiveIdentifier(ctx context.Context, id int) error {
	c.logger.Debug().Int("identifier", id).Msg("Input selection ignored")
	return nil
}
