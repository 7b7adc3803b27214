package hub

import (
	"context"
	"errors"

	"regza/internal/device"
	"regza/internal/regza"
)

// RecordingController drives a television through the DeviceManager so that
// writes from an integration layer are journaled and counted like API and
// MQTT actions. Reads go straight to the controller.
type RecordingController struct {
	*regza.Controller

	deviceID string
	source   string
	manager  *DeviceManager
}

// NewRecordingController wraps the controller of deviceID
func NewRecordingController(manager *DeviceManager, deviceID, source string) (*RecordingController, error) {
	remote, err := manager.GetDevice(deviceID)
	if err != nil {
		return nil, err
	}
	return &RecordingController{
		Controller: remote.Controller(),
		deviceID:   deviceID,
		source:     source,
		manager:    manager,
	}, nil
}

func (c *RecordingController) SetActive(ctx context.Context, desired bool) error {
	return c.run(ctx, device.ActionTypeControl, string(device.ControlActionSetPower), map[string]interface{}{"on": desired})
}

func (c *RecordingController) SetMute(ctx context.Context, desired bool) error {
	return c.run(ctx, device.ActionTypeControl, string(device.ControlActionSetMute), map[string]interface{}{"mute": desired})
}

func (c *RecordingController) SetVolume(ctx context.Context, dir regza.VolumeDirection) error {
	return c.run(ctx, device.ActionTypeControl, string(device.ControlActionVolume), map[string]interface{}{"direction": string(dir)})
}

func (c *RecordingController) SendRemoteKey(ctx context.Context, intent regza.Intent) error {
	return c.run(ctx, device.ActionTypeRemote, string(intent), nil)
}

func (c *RecordingController) SetActiveIdentifier(ctx context.Context, id int) error {
	return c.run(ctx, device.ActionTypeControl, string(device.ControlActionSetInput), map[string]interface{}{"id": id})
}

func (c *RecordingController) run(ctx context.Context, actionType device.ActionType, action string, params map[string]interface{}) error {
	actionJSON, err := device.NewActionJSON(actionType, action, params)
	if err != nil {
		return err
	}

	response, err := c.manager.ProcessDeviceAction(ctx, c.deviceID, c.source, actionJSON)
	if err != nil {
		return err
	}
	if !response.Success {
		return errors.New(response.Error)
	}
	return nil
}
