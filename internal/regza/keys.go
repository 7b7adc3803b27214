package regza

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"regza/internal/logger"
)

// KeySender presses remote keys through the unauthenticated HTTP endpoint
type KeySender struct {
	transport Doer
	logger    zerolog.Logger
}

// NewKeySender creates a key sender on top of transport
func NewKeySender(transport Doer) *KeySender {
	return &KeySender{
		transport: transport,
		logger:    logger.New(),
	}
}

// KeyURL returns the remote.htm URL that presses code on host
func KeyURL(host string, code RemoteKeyCode) string {
	return fmt.Sprintf("http://%s%s?key=%s", host, RemoteKeyPath, url.QueryEscape(string(code)))
}

// SendKey issues one GET for code. The television's answer is not inspected.
func (s *KeySender) SendKey(ctx context.Context, ep Endpoint, code RemoteKeyCode) error {
	keyURL := KeyURL(ep.Host, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keyURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create key request: %w", err)
	}

	s.logger.Debug().
		Str("url", keyURL).
		Str("code", string(code)).
		Msg("Sending remote key")

	resp, err := s.transport.Do(req)
	if err != nil {
		return &TransportError{Op: "key GET", URL: keyURL, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	s.logger.Debug().
		Str("code", string(code)).
		Int("status", resp.StatusCode).
		Msg("Remote key sent")

	return nil
}
