package hub

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"regza/internal/device"
)

var noncePattern = regexp.MustCompile(`^[0-9]{13,}-[0-9a-fA-F]{8}$`)

// NonceCache remembers the response of each action nonce per device so that
// a retried request does not press a toggle key twice.
type NonceCache struct {
	mutex        sync.Mutex
	deviceCaches map[string]*expirable.LRU[string, *device.ActionResponse]
	maxSize      int
	expiration   time.Duration
}

// NewNonceCache creates a cache holding maxSize nonces per device
func NewNonceCache(maxSize int, expiration time.Duration) *NonceCache {
	if maxSize <= 0 {
		maxSize = 50
	}
	if expiration <= 0 {
		expiration = time.Hour
	}

	return &NonceCache{
		deviceCaches: make(map[string]*expirable.LRU[string, *device.ActionResponse]),
		maxSize:      maxSize,
		expiration:   expiration,
	}
}

// GenerateNonce returns "<unix millis>-<8 hex>"
func GenerateNonce() string {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		nanos := time.Now().UnixNano()
		randomBytes = []byte{byte(nanos >> 24), byte(nanos >> 16), byte(nanos >> 8), byte(nanos)}
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(randomBytes))
}

// ValidateNonce reports whether nonce has the GenerateNonce shape
func ValidateNonce(nonce string) bool {
	return noncePattern.MatchString(nonce)
}

func (nc *NonceCache) deviceCache(deviceID string) *expirable.LRU[string, *device.ActionResponse] {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	cache, exists := nc.deviceCaches[deviceID]
	if !exists {
		cache = expirable.NewLRU[string, *device.ActionResponse](nc.maxSize, nil, nc.expiration)
		nc.deviceCaches[deviceID] = cache
	}
	return cache
}

// CheckNonce returns the cached response for a nonce already seen on deviceID
func (nc *NonceCache) CheckNonce(deviceID, nonce string) (*device.ActionResponse, bool) {
	if nonce == "" {
		return nil, false
	}
	return nc.deviceCache(deviceID).Get(nonce)
}

// StoreResponse caches response under nonce
func (nc *NonceCache) StoreResponse(deviceID, nonce string, response *device.ActionResponse) {
	if nonce == "" {
		return
	}
	nc.deviceCache(deviceID).Add(nonce, response)
}

// ClearDevice forgets every nonce of a device
func (nc *NonceCache) ClearDevice(deviceID string) {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	if cache, exists := nc.deviceCaches[deviceID]; exists {
		cache.Purge()
		delete(nc.deviceCaches, deviceID)
	}
}

// DeviceNonceCount returns the number of live nonces for a device
func (nc *NonceCache) DeviceNonceCount(deviceID string) int {
	nc.mutex.Lock()
	cache, exists := nc.deviceCaches[deviceID]
	nc.mutex.Unlock()

	if !exists {
		return 0
	}
	return cache.Len()
}

// Stats returns cache statistics
func (nc *NonceCache) Stats() map[string]interface{} {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	total := 0
	perDevice := make(map[string]int, len(nc.deviceCaches))
	for deviceID, cache := range nc.deviceCaches {
		perDevice[deviceID] = cache.Len()
		total += cache.Len()
	}

	return map[string]interface{}{
		"total_devices": len(nc.deviceCaches),
		"total_nonces":  total,
		"max_size":      nc.maxSize,
		"expiration":    nc.expiration.String(),
		"device_stats":  perDevice,
	}
}

// Shutdown drops every cached response
func (nc *NonceCache) Shutdown() {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	for _, cache := range nc.deviceCaches {
		cache.Purge()
	}
	nc.deviceCaches = make(map[string]*expirable.LRU[string, *device.ActionResponse])
}
