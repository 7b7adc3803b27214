package homekit

import (
	"context"
	"fmt"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/rs/zerolog"
	"regza/internal/logger"
	"regza/internal/regza"
)

// ServerConfig configures the HAP server
type ServerConfig struct {
	Name     string
	Pin      string
	Address  string
	StateDir string
}

// Server publishes televisions behind a bridge accessory
type Server struct {
	server *hap.Server
	config ServerConfig
	logger zerolog.Logger
}

// NewServer creates a HAP server. Pairing data lives in cfg.StateDir.
func NewServer(cfg ServerConfig, televisions []*Television) (*Server, error) {
	if len(televisions) == 0 {
		return nil, fmt.Errorf("no televisions to publish")
	}

	bridge := accessory.NewBridge(accessory.Info{
		Name:         cfg.Name,
		Manufacturer: regza.DefaultManufacturer,
	})
	// ID 1 is the bridge, televisions follow in configuration order
	bridge.A.Id = 1
	accessories := make([]*accessory.A, 0, len(televisions))
	for i, tv := range televisions {
		tv.A.Id = uint64(i + 2)
		accessories = append(accessories, tv.A)
	}

	server, err := hap.NewServer(hap.NewFsStore(cfg.StateDir), bridge.A, accessories...)
	if err != nil {
		return nil, fmt.Errorf("failed to create hap server: %w", err)
	}
	server.Pin = cfg.Pin
	server.Addr = cfg.Address

	return &Server{
		server: server,
		config: cfg,
		logger: logger.Component("homekit"),
	}, nil
}

// ListenAndServe blocks until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info().
		Str("address", s.config.Address).
		Str("state_dir", s.config.StateDir).
		Msg("Starting HomeKit server")

	if err := s.server.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("homekit server: %w", err)
	}
	return nil
}
