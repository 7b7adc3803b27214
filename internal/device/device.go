package device

import (
	"context"
	"encoding/json"
	"fmt"
)

// Device represents a controllable device that accepts JSON actions
type Device interface {
	// Process decodes a JSON action and runs it against the device
	Process(ctx context.Context, actionJSON []byte) (*ActionResponse, error)

	// GetDeviceInfo returns basic information about the device
	GetDeviceInfo() DeviceInfo
}

// DeviceInfo contains basic information about a device
type DeviceInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Address      string   `json:"address"`
	Capabilities []string `json:"capabilities"`
}

// ActionType represents the type of action to perform
type ActionType string

const (
	ActionTypeRemote  ActionType = "remote"
	ActionTypeControl ActionType = "control"
)

// ActionRequest represents a JSON action request
type ActionRequest struct {
	Type       ActionType             `json:"type"`       // "remote" or "control"
	Action     string                 `json:"action"`     // intent or control action name
	Parameters map[string]interface{} `json:"parameters"` // optional parameters
}

// ActionResponse represents the response from processing an action
type ActionResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ControlAction represents state-aware control actions
type ControlAction string

const (
	ControlActionPowerStatus ControlAction = "power_status"
	ControlActionMuteStatus  ControlAction = "mute_status"
	ControlActionSetPower    ControlAction = "set_power"
	ControlActionSetMute     ControlAction = "set_mute"
	ControlActionVolume      ControlAction = "volume"
	ControlActionSetInput    ControlAction = "set_input"
)

// ParseActionRequest parses JSON input into ActionRequest
func ParseActionRequest(actionJSON []byte) (*ActionRequest, error) {
	var request ActionRequest
	if err := json.Unmarshal(actionJSON, &request); err != nil {
		return nil, fmt.Errorf("failed to parse action request: %w", err)
	}

	if request.Type == "" {
		return nil, fmt.Errorf("action type is required")
	}

	if request.Action == "" {
		return nil, fmt.Errorf("action is required")
	}

	return &request, nil
}

// NewActionJSON builds the JSON for an action request
func NewActionJSON(actionType ActionType, action string, parameters map[string]interface{}) ([]byte, error) {
	return json.Marshal(ActionRequest{
		Type:       actionType,
		Action:     action,
		Parameters: parameters,
	})
}
