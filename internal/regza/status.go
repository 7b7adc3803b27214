package regza

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StateQuery derives power and mute state from the status API
type StateQuery struct {
	auth *DigestAuthClient
}

// NewStateQuery creates a state query on top of an authenticated client
func NewStateQuery(auth *DigestAuthClient) *StateQuery {
	return &StateQuery{auth: auth}
}

// PowerState reports whether the television is showing content
func (q *StateQuery) PowerState(ctx context.Context, ep Endpoint) (bool, error) {
	var body playStatus
	if err := q.fetch(ctx, ep, PowerStatusPath, &body); err != nil {
		return false, err
	}
	return powerFromStatus(body), nil
}

// MuteState reports whether the television's audio is muted
func (q *StateQuery) MuteState(ctx context.Context, ep Endpoint) (bool, error) {
	var body muteStatus
	if err := q.fetch(ctx, ep, MuteStatusPath, &body); err != nil {
		return false, err
	}
	return muteFromStatus(body), nil
}

func (q *StateQuery) fetch(ctx context.Context, ep Endpoint, path string, out interface{}) error {
	resp, err := q.auth.AuthenticatedGet(ctx, ep, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read body", URL: SecureURL(ep.Host, path), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &ProtocolError{
			Op:  "status " + path,
			Err: fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ProtocolError{Op: "decode " + path, Err: err}
	}
	return nil
}

// powerFromStatus maps content_type to power: absent, empty or "other"
// mean off.
func powerFromStatus(s playStatus) bool {
	if s.ContentType == nil || *s.ContentType == "" {
		return false
	}
	return *s.ContentType != "other"
}

// muteFromStatus needs status == 0 and mute == "on"
func muteFromStatus(s muteStatus) bool {
	status, ok := s.Status.(float64)
	if !ok || status != 0 {
		return false
	}
	mute, ok := s.Mute.(string)
	return ok && mute == "on"
}
