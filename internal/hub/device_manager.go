package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"regza/internal"
	"regza/internal/device"
	"regza/internal/journal"
	"regza/internal/logger"
	"regza/internal/metrics"
	"regza/internal/regza"
)

// Action sources recorded in the journal
const (
	SourceAPI     = "api"
	SourceHomeKit = "homekit"
	SourceMQTT    = "mqtt"
	SourceCLI     = "cli"
)

// DeviceManager manages the lifecycle and access to devices
type DeviceManager struct {
	devices    map[string]*regza.RegzaRemote
	order      []string
	config     *Config
	mutex      sync.RWMutex
	logger     zerolog.Logger
	nonceCache *NonceCache
	inflight   singleflight.Group
	journal    *journal.Journal
}

// NewDeviceManager creates a new device manager. journal may be nil.
func NewDeviceManager(config *Config, j *journal.Journal) *DeviceManager {
	return &DeviceManager{
		devices:    make(map[string]*regza.RegzaRemote),
		config:     config,
		logger:     logger.Component("device_manager"),
		nonceCache: NewNonceCache(50, time.Hour),
		journal:    j,
	}
}

// Initialize builds one controller per configured device
func (dm *DeviceManager) Initialize(options *internal.FnModeOptions) error {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.logger.Info().
		Int("device_count", len(dm.config.Devices)).
		Msg("Initializing devices")

	for _, deviceConfig := range dm.config.Devices {
		if _, exists := dm.devices[deviceConfig.ID]; exists {
			return fmt.Errorf("duplicate device ID: %s", deviceConfig.ID)
		}

		remote := regza.NewRegzaRemote(deviceConfig.ID, deviceConfig.ControllerConfig(), options)
		dm.devices[deviceConfig.ID] = remote
		dm.order = append(dm.order, deviceConfig.ID)

		dm.logger.Info().
			Str("device_id", deviceConfig.ID).
			Str("host", deviceConfig.Host).
			Str("mute_source", deviceConfig.MuteSource).
			Msg("Device initialized")
	}

	return nil
}

// GetDevice returns a device by ID
func (dm *DeviceManager) GetDevice(id string) (*regza.RegzaRemote, error) {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	remote, exists := dm.devices[id]
	if !exists {
		return nil, fmt.Errorf("device not found: %s", id)
	}
	return remote, nil
}

// Devices returns every device in configuration order
func (dm *DeviceManager) Devices() []*regza.RegzaRemote {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	remotes := make([]*regza.RegzaRemote, 0, len(dm.order))
	for _, id := range dm.order {
		remotes = append(remotes, dm.devices[id])
	}
	return remotes
}

// GetAllDeviceInfo returns information for all devices in configuration order
func (dm *DeviceManager) GetAllDeviceInfo() []device.DeviceInfo {
	remotes := dm.Devices()
	infos := make([]device.DeviceInfo, 0, len(remotes))
	for _, remote := range remotes {
		infos = append(infos, remote.GetDeviceInfo())
	}
	return infos
}

// ProcessDeviceAction runs an action, records it in the journal and in metrics
func (dm *DeviceManager) ProcessDeviceAction(ctx context.Context, deviceID, source string, actionJSON []byte) (*device.ActionResponse, error) {
	return dm.process(ctx, deviceID, source, "", actionJSON)
}

// ProcessDeviceActionWithNonce is ProcessDeviceAction with nonce-based deduplication.
// A repeated nonce returns the first response without touching the television.
// Concurrent calls with the same nonce wait for the one in flight.
func (dm *DeviceManager) ProcessDeviceActionWithNonce(ctx context.Context, deviceID, source, nonce string, actionJSON []byte) (*device.ActionResponse, error) {
	if nonce == "" {
		return dm.process(ctx, deviceID, source, "", actionJSON)
	}

	if !ValidateNonce(nonce) {
		dm.logger.Warn().
			Str("device_id", deviceID).
			Str("nonce", nonce).
			Msg("Invalid nonce format")
		return &device.ActionResponse{Success: false, Error: "invalid nonce format"}, nil
	}

	executed := false
	result, err, _ := dm.inflight.Do(deviceID+"/"+nonce, func() (interface{}, error) {
		if cachedResponse, found := dm.nonceCache.CheckNonce(deviceID, nonce); found {
			return cachedResponse, nil
		}

		executed = true
		response, err := dm.process(ctx, deviceID, source, nonce, actionJSON)
		if err != nil {
			return response, err
		}
		dm.nonceCache.StoreResponse(deviceID, nonce, response)
		return response, nil
	})

	if !executed {
		dm.logger.Info().
			Str("device_id", deviceID).
			Str("nonce", nonce).
			Msg("Returning cached response for duplicate nonce")
		metrics.DuplicateCounter.WithLabelValues(deviceID).Inc()
	}

	response, _ := result.(*device.ActionResponse)
	return response, err
}

func (dm *DeviceManager) process(ctx context.Context, deviceID, source, nonce string, actionJSON []byte) (*device.ActionResponse, error) {
	remote, err := dm.GetDevice(deviceID)
	if err != nil {
		return &device.ActionResponse{Success: false, Error: err.Error()}, nil
	}

	actionType, action := "unknown", "unknown"
	if request, err := device.ParseActionRequest(actionJSON); err == nil {
		actionType, action = string(request.Type), request.Action
	}

	dm.logger.Debug().
		Str("device_id", deviceID).
		Str("source", source).
		RawJSON("action", actionJSON).
		Msg("Processing device action")

	started := time.Now()
	response, err := remote.Process(ctx, actionJSON)
	elapsed := time.Since(started)
	if err != nil {
		dm.logger.Error().
			Str("device_id", deviceID).
			Err(err).
			Msg("Device action processing failed")
		response = &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("action processing failed: %v", err),
		}
	}

	metrics.ObserveAction(deviceID, action, response.Success, elapsed)
	dm.record(ctx, &journal.Entry{
		DeviceID:   deviceID,
		Source:     source,
		ActionType: actionType,
		Action:     action,
		Nonce:      nonce,
		Success:    response.Success,
		Error:      response.Error,
		DurationMs: elapsed.Milliseconds(),
	})

	dm.logger.Info().
		Str("device_id", deviceID).
		Str("action", action).
		Bool("success", response.Success).
		Msg("Device action processed")

	return response, nil
}

func (dm *DeviceManager) record(ctx context.Context, entry *journal.Entry) {
	if dm.journal == nil {
		return
	}
	// the action already happened; a journal failure must not turn it into an error
	if err := dm.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		dm.logger.Warn().Err(err).Str("device_id", entry.DeviceID).Msg("Failed to journal action")
	}
}

// History returns recent journal entries for a device
func (dm *DeviceManager) History(ctx context.Context, deviceID string, limit int) ([]journal.Entry, error) {
	if _, err := dm.GetDevice(deviceID); err != nil {
		return nil, err
	}
	if dm.journal == nil {
		return []journal.Entry{}, nil
	}
	return dm.journal.Recent(ctx, deviceID, limit)
}

// GetDeviceCount returns the number of managed devices
func (dm *DeviceManager) GetDeviceCount() int {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()
	return len(dm.devices)
}

// GetNonceStats returns nonce cache statistics
func (dm *DeviceManager) GetNonceStats() map[string]interface{} {
	return dm.nonceCache.Stats()
}

// ClearDeviceNonces clears all cached nonces for a specific device
func (dm *DeviceManager) ClearDeviceNonces(deviceID string) {
	dm.nonceCache.ClearDevice(deviceID)
	dm.logger.Info().
		Str("device_id", deviceID).
		Msg("Cleared device nonce cache")
}

// Shutdown releases devices and cached responses
func (dm *DeviceManager) Shutdown() {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.logger.Info().
		Int("device_count", len(dm.devices)).
		Msg("Shutting down device manager")

	dm.nonceCache.Shutdown()
	dm.devices = make(map[string]*regza.RegzaRemote)
	dm.order = nil
}
