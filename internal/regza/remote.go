package regza

import (
	"context"
	"fmt"

	"regza/internal"
	"regza/internal/device"
)

// RegzaRemote implements the Device interface for REGZA televisions
type RegzaRemote struct {
	controller *Controller
	simulator  *Simulator
	info       device.DeviceInfo
}

// NewRegzaRemote creates a device for the television described by cfg. In
// test mode every request is answered by a Simulator.
func NewRegzaRemote(id string, cfg ControllerConfig, options *internal.FnModeOptions) *RegzaRemote {
	if options == nil {
		options = internal.NewModeOptions()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = options.Timeout
	}

	var opts []ControllerOption
	var sim *Simulator
	if options.Test {
		sim = NewSimulator(cfg.Endpoint)
		opts = append(opts, WithTransports(sim, sim))
	}
	controller := NewController(cfg, opts...)

	return &RegzaRemote{
		controller: controller,
		simulator:  sim,
		info: device.DeviceInfo{
			ID:           id,
			Name:         controller.Name(),
			Type:         "regza_tv",
			Manufacturer: DefaultManufacturer,
			Model:        controller.Model(),
			Address:      cfg.Endpoint.Host,
			Capabilities: []string{
				"power",
				"mute",
				"volume",
				"remote_keys",
			},
		},
	}
}

// Controller returns the accessory controller behind this device
func (r *RegzaRemote) Controller() *Controller {
	return r.controller
}

// Simulator returns the simulated television in test mode, nil otherwise
func (r *RegzaRemote) Simulator() *Simulator {
	return r.simulator
}

// GetDeviceInfo returns information about this television
func (r *RegzaRemote) GetDeviceInfo() device.DeviceInfo {
	return r.info
}

// Process handles JSON action requests and routes them to the controller
func (r *RegzaRemote) Process(ctx context.Context, actionJSON []byte) (*device.ActionResponse, error) {
	request, err := device.ParseActionRequest(actionJSON)
	if err != nil {
		return failure(err.Error()), nil
	}

	switch request.Type {
	case device.ActionTypeRemote:
		return r.processRemoteAction(ctx, request)
	case device.ActionTypeControl:
		return r.processControlAction(ctx, request)
	default:
		return failure(fmt.Sprintf("unsupported action type: %s", request.Type)), nil
	}
}

func (r *RegzaRemote) processRemoteAction(ctx context.Context, request *device.ActionRequest) (*device.ActionResponse, error) {
	intent, err := ParseIntent(request.Action)
	if err != nil {
		return failure(err.Error()), nil
	}

	if err := r.controller.SendRemoteKey(ctx, intent); err != nil {
		return failure(fmt.Sprintf("remote key failed: %v", err)), nil
	}

	_, supported := Resolve(intent)
	return &device.ActionResponse{
		Success: true,
		Data: map[string]interface{}{
			"intent": string(intent),
			"sent":   supported,
		},
	}, nil
}

func (r *RegzaRemote) processControlAction(ctx context.Context, request *device.ActionRequest) (*device.ActionResponse, error) {
	switch device.ControlAction(request.Action) {
	case device.ControlActionPowerStatus:
		active, err := r.controller.GetActive(ctx)
		if err != nil {
			return failure(fmt.Sprintf("power status failed: %v", err)), nil
		}
		return success(map[string]interface{}{"active": active}), nil

	case device.ControlActionMuteStatus:
		mute, err := r.muteStatus(ctx)
		if err != nil {
			return failure(fmt.Sprintf("mute status failed: %v", err)), nil
		}
		return success(map[string]interface{}{"mute": mute, "source": string(r.controller.MuteSource())}), nil

	case device.ControlActionSetPower:
		on, err := boolParameter(request.Parameters, "on")
		if err != nil {
			return failure(err.Error()), nil
		}
		if err := r.controller.SetActive(ctx, on); err != nil {
			return failure(fmt.Sprintf("set power failed: %v", err)), nil
		}
		return success(map[string]interface{}{"active": on}), nil

	case device.ControlActionSetMute:
		mute, err := boolParameter(request.Parameters, "mute")
		if err != nil {
			return failure(err.Error()), nil
		}
		if err := r.controller.SetMute(ctx, mute); err != nil {
			return failure(fmt.Sprintf("set mute failed: %v", err)), nil
		}
		return success(map[string]interface{}{"mute": mute}), nil

	case device.ControlActionVolume:
		direction, ok := request.Parameters["direction"].(string)
		if !ok {
			return failure("direction parameter is required for volume action"), nil
		}
		if err := r.controller.SetVolume(ctx, VolumeDirection(direction)); err != nil {
			return failure(fmt.Sprintf("volume failed: %v", err)), nil
		}
		return success(map[string]interface{}{"direction": direction}), nil

	case device.ControlActionSetInput:
		id, ok := request.Parameters["id"].(float64)
		if !ok {
			return failure("id parameter is required for set_input action"), nil
		}
		if err := r.controller.SetActiveIdentifier(ctx, int(id)); err != nil {
			return failure(fmt.Sprintf("set input failed: %v", err)), nil
		}
		return success(map[string]interface{}{"id": int(id)}), nil

	default:
		return failure(fmt.Sprintf("unsupported control action: %s", request.Action)), nil
	}
}

// State is a snapshot of the television
type State struct {
	Active bool `json:"active"`
	Muted  bool `json:"muted"`
}

// State reads power and mute in sequence
func (r *RegzaRemote) State(ctx context.Context) (State, error) {
	active, err := r.controller.GetActive(ctx)
	if err != nil {
		return State{}, fmt.Errorf("power state: %w", err)
	}
	muted, err := r.muteStatus(ctx)
	if err != nil {
		return State{}, fmt.Errorf("mute state: %w", err)
	}
	return State{Active: active, Muted: muted}, nil
}

// muteStatus picks the getter configured for this television
func (r *RegzaRemote) muteStatus(ctx context.Context) (bool, error) {
	if r.controller.MuteSource() == MuteSourceLive {
		return r.controller.GetMuteLive(ctx)
	}
	return r.controller.GetMute(ctx)
}

func boolParameter(params map[string]interface{}, name string) (bool, error) {
	if params == nil {
		return false, fmt.Errorf("parameters are required")
	}
	value, exists := params[name]
	if !exists {
		return false, fmt.Errorf("%s parameter is required", name)
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true", "on", "1":
			return true, nil
		case "false", "off", "0":
			return false, nil
		}
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("invalid %s parameter type", name)
}

func success(data interface{}) *device.ActionResponse {
	return &device.ActionResponse{Success: true, Data: data}
}

func failure(message string) *device.ActionResponse {
	return &device.ActionResponse{Success: false, Error: message}
}
