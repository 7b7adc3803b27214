package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"regza/internal/device"
	"regza/internal/logger"
	"regza/internal/regza"
)

// DeviceSource is the part of the hub the bridge needs
type DeviceSource interface {
	Devices() []*regza.RegzaRemote
	ProcessDeviceAction(ctx context.Context, deviceID, source string, actionJSON []byte) (*device.ActionResponse, error)
}

// StateMessage is the retained payload on <prefix>/<device>/state
type StateMessage struct {
	Active    bool   `json:"active"`
	Muted     bool   `json:"muted"`
	UpdatedAt string `json:"updated_at"`
}

// Bridge mirrors television state to MQTT and accepts commands
//
//	<prefix>/<device>/state         retained StateMessage
//	<prefix>/<device>/availability  retained online|offline
//	<prefix>/<device>/set           action JSON in
//	<prefix>/<device>/result        ActionResponse out
//	<prefix>/bridge/availability    retained online|offline (last will)
type Bridge struct {
	client   ClientAPI
	devices  DeviceSource
	prefix   string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewBridge creates a bridge publishing under prefix every interval
func NewBridge(client ClientAPI, devices DeviceSource, prefix string, interval time.Duration) *Bridge {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Bridge{
		client:   client,
		devices:  devices,
		prefix:   strings.TrimSuffix(prefix, "/"),
		interval: interval,
		timeout:  regza.DefaultTimeout,
		logger:   logger.Component("mqtt_bridge"),
	}
}

// WillTopic is the bridge availability topic for a prefix
func WillTopic(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/bridge/availability"
}

func (b *Bridge) topic(deviceID, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", b.prefix, deviceID, leaf)
}

// Run subscribes to command topics and polls state until ctx is cancelled
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.client.Publish(WillTopic(b.prefix), []byte("online"), true); err != nil {
		return fmt.Errorf("publish availability: %w", err)
	}
	// Commands publish their result, which must not wait on the client's
	// message router.
	if err := b.client.Subscribe(b.prefix+"/+/set", func(topic string, payload []byte) {
		go b.HandleCommand(ctx, topic, payload)
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	b.PollOnce(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := b.client.Publish(WillTopic(b.prefix), []byte("offline"), true); err != nil {
				b.logger.Warn().Err(err).Msg("Failed to publish offline")
			}
			return nil
		case <-ticker.C:
			b.PollOnce(ctx)
		}
	}
}

// PollOnce publishes the state of every device
func (b *Bridge) PollOnce(ctx context.Context) {
	for _, remote := range b.devices.Devices() {
		b.publishState(ctx, remote)
	}
}

func (b *Bridge) publishState(ctx context.Context, remote *regza.RegzaRemote) {
	deviceID := remote.GetDeviceInfo().ID
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	state, err := remote.State(ctx)
	if err != nil {
		b.logger.Warn().Str("device_id", deviceID).Err(err).Msg("State poll failed")
		b.publish(b.topic(deviceID, "availability"), []byte("offline"), true)
		return
	}

	payload, err := json.Marshal(StateMessage{
		Active:    state.Active,
		Muted:     state.Muted,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to encode state")
		return
	}
	b.publish(b.topic(deviceID, "availability"), []byte("online"), true)
	b.publish(b.topic(deviceID, "state"), payload, true)
}

// HandleCommand runs the action JSON received on <prefix>/<device>/set
func (b *Bridge) HandleCommand(ctx context.Context, topic string, payload []byte) {
	deviceID, ok := b.deviceFromTopic(topic)
	if !ok {
		b.logger.Warn().Str("topic", topic).Msg("Ignoring command on unexpected topic")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	response, err := b.devices.ProcessDeviceAction(ctx, deviceID, "mqtt", payload)
	if err != nil {
		response = &device.ActionResponse{Success: false, Error: err.Error()}
	}

	out, err := json.Marshal(response)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to encode result")
		return
	}
	b.publish(b.topic(deviceID, "result"), out, false)

	if response.Success {
		for _, remote := range b.devices.Devices() {
			if remote.GetDeviceInfo().ID == deviceID {
				b.publishState(ctx, remote)
			}
		}
	}
}

func (b *Bridge) deviceFromTopic(topic string) (string, bool) {
	rest, found := strings.CutPrefix(topic, b.prefix+"/")
	if !found {
		return "", false
	}
	deviceID, leaf, found := strings.Cut(rest, "/")
	if !found || leaf != "set" || deviceID == "" {
		return "", false
	}
	return deviceID, true
}

func (b *Bridge) publish(topic string, payload []byte, retain bool) {
	if err := b.client.Publish(topic, payload, retain); err != nil {
		b.logger.Warn().Str("topic", topic).Err(err).Msg("MQTT publish failed")
	}
}
