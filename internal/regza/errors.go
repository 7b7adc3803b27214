package regza

import (
	"errors"
	"fmt"
)

var (
	ErrMissingChallenge = errors.New("missing WWW-Authenticate header")
	ErrMissingRealm     = errors.New("challenge has no realm")
	ErrMissingNonce     = errors.New("challenge has no nonce")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// TransportError reports that the television could not be reached:
// dial failures, resets and timeouts.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response the protocol layer cannot use:
// a missing or malformed digest challenge or an unusable status body.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsTransportError reports whether err carries a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err carries a ProtocolError
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
