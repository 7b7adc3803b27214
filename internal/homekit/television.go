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

package homekit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	"github.com/rs/zerolog"
	"regza/internal/logger"
	"regza/internal/regza"
)

// statusCommunicationFailure is the HAP status for an unreachable device
const statusCommunicationFailure = -70402

// Active characteristic values
const (
	activeInactive = 0
	activeActive   = 1
)

// RemoteKey values sent by the iOS remote
const (
	KeyRewind        = 0
	KeyFastForward   = 1
	KeyNextTrack     = 2
	KeyPreviousTrack = 3
	KeyArrowUp       = 4
	KeyArrowDown     = 5
	KeyArrowLeft     = 6
	KeyArrowRight    = 7
	KeySelect        = 8
	KeyBack          = 9
	KeyExit          = 10
	KeyPlayPause     = 11
	KeyInformation   = 15
)

var remoteKeyIntents = map[int]regza.Intent{
	KeyRewind:        regza.IntentRewind,
	KeyFastForward:   regza.IntentFastForward,
	KeyNextTrack:     regza.IntentNextTrack,
	KeyPreviousTrack: regza.IntentPreviousTrack,
	KeyArrowUp:       regza.IntentNavUp,
	KeyArrowDown:     regza.IntentNavDown,
	KeyArrowLeft:     regza.IntentNavLeft,
	KeyArrowRight:    regza.IntentNavRight,
	KeySelect:        regza.IntentSelect,
	KeyBack:          regza.IntentBack,
	KeyExit:          regza.IntentExit,
	KeyPlayPause:     regza.IntentPlayPause,
	KeyInformation:   regza.IntentInformation,
}

// IntentForRemoteKey maps a RemoteKey characteristic value to an intent
func IntentForRemoteKey(key int) (regza.Intent, bool) {
	intent, ok := remoteKeyIntents[key]
	return intent, ok
}

// VolumeDirectionForSelector maps VolumeSelector (0 increment, 1 decrement)
func VolumeDirectionForSelector(v int) (regza.VolumeDirection, error) {
	switch v {
	case 0:
		return regza.VolumeUp, nil
	case 1:
		return regza.VolumeDown, nil
	}
	return "", fmt.Errorf("invalid volume selector: %d", v)
}

// Controller is the call surface the accessory drives
type Controller interface {
	Name() string
	Model() string
	Host() string
	MuteSource() regza.MuteSource
	GetActive(ctx context.Context) (bool, error)
	SetActive(ctx context.Context, desired bool) error
	GetMute(ctx context.Context) (bool, error)
	GetMuteLive(ctx context.Context) (bool, error)
	SetMute(ctx context.Context, desired bool) error
	SetVolume(ctx context.Context, dir regza.VolumeDirection) error
	SendRemoteKey(ctx context.Context, intent regza.Intent) error
	SetActiveIdentifier(ctx context.Context, id int) error
}

// Television is a HomeKit Television accessory with its speaker
type Television struct {
	A          *accessory.A
	Television *service.Television
	Speaker    *service.Speaker

	RemoteKey         *characteristic.RemoteKey
	VolumeSelector    *characteristic.VolumeSelector
	VolumeControlType *characteristic.VolumeControlType

	controller Controller
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewTelevision builds the accessory and binds every characteristic to controller
func NewTelevision(deviceID string, controller Controller, timeout time.Duration) *Television {
	if timeout <= 0 {
		timeout = regza.DefaultTimeout
	}

	tv := &Television{
		A: accessory.New(accessory.Info{
			Name:         controller.Name(),
			SerialNumber: deviceID,
			Manufacturer: regza.DefaultManufacturer,
			Model:        controller.Model(),
		}, accessory.TypeTelevision),
		Television:        service.NewTelevision(),
		Speaker:           service.NewSpeaker(),
		RemoteKey:         characteristic.NewRemoteKey(),
		VolumeSelector:    characteristic.NewVolumeSelector(),
		VolumeControlType: characteristic.NewVolumeControlType(),
		controller:        controller,
		timeout:           timeout,
		logger: logger.Component("homekit").With().
			Str("device_id", deviceID).
			Str("host", controller.Host()).
			Logger(),
	}

	tv.Television.Primary = true
	tv.Television.ConfiguredName.SetValue(controller.Name())
	tv.Television.SleepDiscoveryMode.SetValue(1) // always discoverable
	tv.Television.AddC(tv.RemoteKey.C)
	tv.A.AddS(tv.Television.S)

	tv.VolumeControlType.SetValue(1) // relative
	tv.Speaker.AddC(tv.VolumeControlType.C)
	tv.Speaker.AddC(tv.VolumeSelector.C)
	tv.A.AddS(tv.Speaker.S)
	tv.Television.AddS(tv.Speaker.S)

	tv.Television.Active.ValueRequestFunc = tv.readActive
	tv.Television.Active.OnSetRemoteValue(tv.writeActive)
	tv.Television.ActiveIdentifier.OnSetRemoteValue(tv.writeActiveIdentifier)
	tv.RemoteKey.OnSetRemoteValue(tv.writeRemoteKey)
	tv.Speaker.Mute.ValueRequestFunc = tv.readMute
	tv.Speaker.Mute.OnSetRemoteValue(tv.writeMute)
	tv.VolumeSelector.OnSetRemoteValue(tv.writeVolumeSelector)

	return tv
}

func (tv *Television) context(r *http.Request) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if r != nil {
		parent = r.Context()
	}
	return context.WithTimeout(parent, tv.timeout)
}

func (tv *Television) readActive(r *http.Request) (interface{}, int) {
	ctx, cancel := tv.context(r)
	defer cancel()

	on, err := tv.controller.GetActive(ctx)
	if err != nil {
		tv.logger.Warn().Err(err).Msg("Active read failed")
		return nil, statusCommunicationFailure
	}
	if on {
		return activeActive, 0
	}
	return activeInactive, 0
}

func (tv *Television) writeActive(v int) error {
	ctx, cancel := tv.context(nil)
	defer cancel()

	tv.logger.Debug().Int("value", v).Msg("Active set")
	return tv.controller.SetActive(ctx, v == activeActive)
}

func (tv *Television) writeActiveIdentifier(v int) error {
	ctx, cancel := tv.context(nil)
	defer cancel()
	return tv.controller.SetActiveIdentifier(ctx, v)
}

func (tv *Television) writeRemoteKey(v int) error {
	intent, ok := IntentForRemoteKey(v)
	if !ok {
		tv.logger.Warn().Int("remote_key", v).Msg("Unknown remote key")
		return nil
	}

	ctx, cancel := tv.context(nil)
	defer cancel()
	return tv.controller.SendRemoteKey(ctx, intent)
}

func (tv *Television) readMute(r *http.Request) (interface{}, int) {
	ctx, cancel := tv.context(r)
	defer cancel()

	var (
		muted bool
		err   error
	)
	if tv.controller.MuteSource() == regza.MuteSourceLive {
		muted, err = tv.controller.GetMuteLive(ctx)
	} else {
		muted, err = tv.controller.GetMute(ctx)
	}
	if err != nil {
		tv.logger.Warn().Err(err).Msg("Mute read failed")
		return nil, statusCommunicationFailure
	}
	return muted, 0
}

func (tv *Television) writeMute(v bool) error {
	ctx, cancel := tv.context(nil)
	defer cancel()
	return tv.controller.SetMute(ctx, v)
}

func (tv *Television) writeVolumeSelector(v int) error {
	dir, err := VolumeDirectionForSelector(v)
	if err != nil {
		return err
	}

	ctx, cancel := tv.context(nil)
	defer cancel()
	return tv.controller.SetVolume(ctx, dir)
}
