package hub_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"regza/internal/device"
	"regza/internal/hub"
)

func TestGenerateNonce(t *testing.T) {
	t.Run("generates unique nonces", func(t *testing.T) {
		assert.NotEqual(t, hub.GenerateNonce(), hub.GenerateNonce())
	})

	t.Run("validates generated nonce format", func(t *testing.T) {
		nonce := hub.GenerateNonce()
		assert.True(t, hub.ValidateNonce(nonce), nonce)
	})
}

func TestValidateNonce(t *testing.T) {
	tests := []struct {
		name     string
		nonce    string
		expected bool
	}{
		{"empty nonce", "", false},
		{"too short", "123", false},
		{"valid nonce", "1691234567890-a1b2c3d4", true},
		{"uppercase hex", "1691234567890-A1B2C3D4", true},
		{"no dash", "1691234567890a1b2c3d4", false},
		{"two dashes", "1691234567890-a1b2-c3d4", false},
		{"short timestamp", "169123456-a1b2c3d4", false},
		{"non numeric timestamp", "16912345678x0-a1b2c3d4", false},
		{"short random", "1691234567890-a1b2c3", false},
		{"non hex random", "1691234567890-a1b2c3g4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hub.ValidateNonce(tt.nonce))
		})
	}
}

func TestNonceCacheBasicOperations(t *testing.T) {
	cache := hub.NewNonceCache(0, 0)
	defer cache.Shutdown()

	response := &device.ActionResponse{Success: true, Data: "toggled"}

	t.Run("empty nonce is never cached", func(t *testing.T) {
		cache.StoreResponse("tv", "", response)
		_, found := cache.CheckNonce("tv", "")
		assert.False(t, found)
	})

	t.Run("stored nonce is returned", func(t *testing.T) {
		nonce := hub.GenerateNonce()
		cache.StoreResponse("tv", nonce, response)

		cached, found := cache.CheckNonce("tv", nonce)
		assert.True(t, found)
		assert.Same(t, response, cached)
	})

	t.Run("nonces are scoped per device", func(t *testing.T) {
		nonce := hub.GenerateNonce()
		cache.StoreResponse("tv", nonce, response)

		_, found := cache.CheckNonce("bedroom", nonce)
		assert.False(t, found)
	})
}

func TestNonceCacheExpiration(t *testing.T) {
	cache := hub.NewNonceCache(10, 50*time.Millisecond)
	defer cache.Shutdown()

	nonce := hub.GenerateNonce()
	cache.StoreResponse("tv", nonce, &device.ActionResponse{Success: true})

	_, found := cache.CheckNonce("tv", nonce)
	assert.True(t, found)

	time.Sleep(120 * time.Millisecond)
	_, found = cache.CheckNonce("tv", nonce)
	assert.False(t, found)
}

func TestNonceCacheEviction(t *testing.T) {
	cache := hub.NewNonceCache(2, time.Hour)
	defer cache.Shutdown()

	cache.StoreResponse("tv", "1691234567890-00000001", &device.ActionResponse{})
	cache.StoreResponse("tv", "1691234567890-00000002", &device.ActionResponse{})
	cache.StoreResponse("tv", "1691234567890-00000003", &device.ActionResponse{})

	assert.Equal(t, 2, cache.DeviceNonceCount("tv"))
	_, found := cache.CheckNonce("tv", "1691234567890-00000001")
	assert.False(t, found)
}

func TestNonceCacheDeviceOperations(t *testing.T) {
	cache := hub.NewNonceCache(10, time.Hour)
	defer cache.Shutdown()

	cache.StoreResponse("tv", hub.GenerateNonce(), &device.ActionResponse{})
	cache.StoreResponse("bedroom", hub.GenerateNonce(), &device.ActionResponse{})

	stats := cache.Stats()
	assert.Equal(t, 2, stats["total_devices"])
	assert.Equal(t, 2, stats["total_nonces"])

	cache.ClearDevice("tv")
	assert.Equal(t, 0, cache.DeviceNonceCount("tv"))
	assert.Equal(t, 1, cache.DeviceNonceCount("bedroom"))

	cache.Shutdown()
	assert.Equal(t, 0, cache.DeviceNonceCount("bedroom"))
}
