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

package regza

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"
	"regza/internal/logger"
)

var (
	realmPattern = regexp.MustCompile(`realm="([^"]+)"`)
	noncePattern = regexp.MustCompile(`nonce="([^"]+)"`)
)

// DigestAuthClient performs the challenge/response exchange against the
// status API. Nothing is cached between calls.
type DigestAuthClient struct {
	transport Doer
	hash      HashFunc
	logger    zerolog.Logger
}

// NewDigestAuthClient creates a client. A nil hash defaults to MD5Hex.
func NewDigestAuthClient(transport Doer, hash HashFunc) *DigestAuthClient {
	if hash == nil {
		hash = MD5Hex
	}
	return &DigestAuthClient{
		transport: transport,
		hash:      hash,
		logger:    logger.New(),
	}
}

// SecureURL returns the status API URL for path on host
func SecureURL(host, path string) string {
	return fmt.Sprintf("https://%s:%d%s", host, SecurePort, path)
}

// AuthenticatedGet probes path for a challenge and repeats the GET with
// digest credentials. The second response is returned untouched; the caller
// owns its body.
func (c *DigestAuthClient) AuthenticatedGet(ctx context.Context, ep Endpoint, path string) (*http.Response, error) {
	url := SecureURL(ep.Host, path)

	challenge, err := c.probe(ctx, url)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated request: %w", err)
	}
	req.Header.Set("Authorization", challenge.Authorization(ep.User, ep.Pass, http.MethodGet, path, c.hash))

	c.logger.Debug().
		Str("url", url).
		Str("realm", challenge.Realm).
		Msg("Sending authenticated request")

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "authenticated GET", URL: url, Err: err}
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Msg("Authenticated request completed")

	return resp, nil
}

// probe issues the unauthenticated GET and extracts the challenge. Only a
// 401 answer is accepted.
func (c *DigestAuthClient) probe(ctx context.Context, url string) (Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to create probe request: %w", err)
	}

	c.logger.Debug().Str("url", url).Msg("Probing for digest challenge")

	resp, err := c.transport.Do(req)
	if err != nil {
		return Challenge{}, &TransportError{Op: "probe GET", URL: url, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return Challenge{}, &ProtocolError{
			Op:  "probe " + url,
			Err: fmt.Errorf("%w: expected 401, got %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}

	challenge, err := ParseChallenge(resp.Header.Get("WWW-Authenticate"))
	if err != nil {
		return Challenge{}, &ProtocolError{Op: "probe " + url, Err: err}
	}
	return challenge, nil
}

// ParseChallenge extracts realm and nonce from a WWW-Authenticate value
func ParseChallenge(header string) (Challenge, error) {
	if header == "" {
		return Challenge{}, ErrMissingChallenge
	}
	realm := realmPattern.FindStringSubmatch(header)
	if realm == nil {
		return Challenge{}, ErrMissingRealm
	}
	nonce := noncePattern.FindStringSubmatch(header)
	if nonce == nil {
		return Challenge{}, ErrMissingNonce
	}
	return Challenge{Realm: realm[1], Nonce: nonce[1]}, nil
}

// Response computes the qop=auth digest response for one request
func (ch Challenge) Response(user, pass, method, path string, hash HashFunc) string {
	a1 := hash(user + ":" + ch.Realm + ":" + pass)
	a2 := hash(method + ":" + path)
	return hash(a1 + ":" + ch.Nonce + ":" + DigestNonceCount + ":" + DigestClientNonce + ":" + DigestQOP + ":" + a2)
}

// Authorization renders the Authorization header value for one request
func (ch Challenge) Authorization(user, pass, method, path string, hash HashFunc) string {
	return fmt.Sprintf(`Digest username="%s", realm="%s", nonce="%s", uri="%s", qop=%s, nc=%s, cnonce="%s", response="%s"`,
		user, ch.Realm, ch.Nonce, path, DigestQOP, DigestNonceCount, DigestClientNonce,
		ch.Response(user, pass, method, path, hash))
}
