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

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"regza/internal/device"
	"regza/internal/journal"
	"regza/internal/logger"
	"regza/internal/metrics"
	"regza/internal/regza"
)

// NonceHeader carries the idempotency nonce of an action request
const NonceHeader = "X-Request-Nonce"

const maxActionBody = 64 << 10

// DeviceService is the part of the hub the API needs
type DeviceService interface {
	GetAllDeviceInfo() []device.DeviceInfo
	GetDevice(id string) (*regza.RegzaRemote, error)
	ProcessDeviceActionWithNonce(ctx context.Context, deviceID, source, nonce string, actionJSON []byte) (*device.ActionResponse, error)
	History(ctx context.Context, deviceID string, limit int) ([]journal.Entry, error)
	GetNonceStats() map[string]interface{}
}

// Config holds the API settings
type Config struct {
	Address      string
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenHours   int
}

// APIServer handles REST API requests
type APIServer struct {
	devices         DeviceService
	config          Config
	logger          zerolog.Logger
	server          *http.Server
	jwtService      *JWTService
	passwordService *PasswordService
	authMiddleware  *AuthMiddleware
	started         time.Time
}

// NewAPIServer creates a new API server
func NewAPIServer(devices DeviceService, config Config) *APIServer {
	jwtService := NewJWTService(config.JWTSecret, "regza-hub", config.TokenHours)

	api := &APIServer{
		devices:         devices,
		config:          config,
		logger:          logger.Component("api"),
		jwtService:      jwtService,
		passwordService: NewPasswordService(),
		authMiddleware:  NewAuthMiddleware(jwtService),
		started:         time.Now(),
	}
	api.server = &http.Server{
		Addr:         config.Address,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return api
}

// Handler builds the router
func (api *APIServer) Handler() http.Handler {
	router := mux.NewRouter()

	router.Use(api.loggingMiddleware)
	router.Use(api.corsMiddleware)
	router.Use(metrics.Middleware(routeTemplate))

	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/health", api.handleHealth).Methods("GET")
	apiRouter.HandleFunc("/auth/login", api.handleLogin).Methods("POST")

	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(api.authMiddleware.RequireAuth)
	protected.HandleFunc("/intents", api.handleIntents).Methods("GET")
	protected.HandleFunc("/devices", api.handleListDevices).Methods("GET")
	protected.HandleFunc("/devices/{device_id}", api.handleGetDevice).Methods("GET")
	protected.HandleFunc("/devices/{device_id}/state", api.handleDeviceState).Methods("GET")
	protected.HandleFunc("/devices/{device_id}/action", api.handleDeviceAction).Methods("POST")
	protected.HandleFunc("/devices/{device_id}/history", api.handleDeviceHistory).Methods("GET")
	protected.HandleFunc("/hub/nonces", api.handleNonceStats).Methods("GET")

	return router
}

// Start serves until Stop is called
func (api *APIServer) Start() error {
	api.logger.Info().
		Str("address", api.config.Address).
		Msg("Starting API server")

	if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends
func (api *APIServer) Stop(ctx context.Context) error {
	return api.server.Shutdown(ctx)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (api *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		api.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

func (api *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+NonceHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Response helpers
func (api *APIServer) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		api.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (api *APIServer) sendError(w http.ResponseWriter, status int, message string) {
	api.sendJSON(w, status, map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"devices":   len(api.devices.GetAllDeviceInfo()),
		"uptime":    time.Since(api.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.sendError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		api.sendError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if req.Username != api.config.Username {
		api.logger.Debug().Str("username", req.Username).Msg("Unknown user during login attempt")
		api.sendError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	valid, err := api.passwordService.VerifyPassword(req.Password, api.config.PasswordHash)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to verify password")
		api.sendError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if !valid {
		api.logger.Debug().Str("username", req.Username).Msg("Invalid password during login attempt")
		api.sendError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expires, err := api.jwtService.GenerateToken(req.Username)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to generate token")
		api.sendError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	api.logger.Info().Str("username", req.Username).Msg("User logged in")
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (api *APIServer) handleIntents(w http.ResponseWriter, r *http.Request) {
	intents := make([]map[string]interface{}, 0, len(regza.Intents()))
	for _, intent := range regza.Intents() {
		code, supported := regza.Resolve(intent)
		intents = append(intents, map[string]interface{}{
			"intent":    intent,
			"code":      code,
			"supported": supported,
		})
	}
	api.sendJSON(w, http.StatusOK, map[string]interface{}{"intents": intents})
}

func (api *APIServer) handleListDevices(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"devices": api.devices.GetAllDeviceInfo(),
	})
}

func (api *APIServer) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	remote, err := api.devices.GetDevice(mux.Vars(r)["device_id"])
	if err != nil {
		api.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	api.sendJSON(w, http.StatusOK, remote.GetDeviceInfo())
}

func (api *APIServer) handleDeviceState(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	remote, err := api.devices.GetDevice(deviceID)
	if err != nil {
		api.sendError(w, http.StatusNotFound, err.Error())
		return
	}

	state, err := remote.State(r.Context())
	if err != nil {
		api.logger.Warn().Str("device_id", deviceID).Err(err).Msg("State query failed")
		api.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"device_id":   deviceID,
		"active":      state.Active,
		"muted":       state.Muted,
		"mute_source": remote.Controller().MuteSource(),
	})
}

func (api *APIServer) handleDeviceAction(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	if _, err := api.devices.GetDevice(deviceID); err != nil {
		api.sendError(w, http.StatusNotFound, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody))
	if err != nil {
		api.sendError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if !json.Valid(body) {
		api.sendError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	response, err := api.devices.ProcessDeviceActionWithNonce(r.Context(), deviceID, "api", r.Header.Get(NonceHeader), body)
	if err != nil {
		api.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !response.Success {
		status = http.StatusUnprocessableEntity
	}
	api.sendJSON(w, status, response)
}

func (api *APIServer) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := api.devices.History(r.Context(), deviceID, limit)
	if err != nil {
		api.sendError(w, http.StatusNotFound, err.Error())
		return
	}

	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"device_id": deviceID,
		"entries":   entries,
	})
}

func (api *APIServer) handleNonceStats(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, http.StatusOK, api.devices.GetNonceStats())
}
