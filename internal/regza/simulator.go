package regza

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

const simulatorRealm = "TVRemote"

var authFieldPattern = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|([^,\s]+))`)

// Simulator is an in-memory television used by test mode. It answers both
// the status API, including digest verification, and remote.htm.
type Simulator struct {
	mu       sync.Mutex
	endpoint Endpoint
	power    bool
	muted    bool
	volume   int
	nonceSeq int
	issued   map[string]bool
	keys     []RemoteKeyCode
	requests int
}

// NewSimulator creates a powered-off simulated television accepting the
// credentials of ep
func NewSimulator(ep Endpoint) *Simulator {
	return &Simulator{
		endpoint: ep,
		volume:   20,
		issued:   make(map[string]bool),
	}
}

// Do implements Doer
func (s *Simulator) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if req.URL.Hostname() != s.endpoint.Host {
		return nil, fmt.Errorf("dial tcp %s: no such host", req.URL.Host)
	}

	switch {
	case req.URL.Scheme == "https" && req.URL.Port() == fmt.Sprint(SecurePort):
		return s.serveStatus(req), nil
	case req.URL.Scheme == "http" && req.URL.Path == RemoteKeyPath:
		return s.serveKey(req), nil
	default:
		return simulatorResponse(req, http.StatusNotFound, nil, "not found"), nil
	}
}

func (s *Simulator) serveStatus(req *http.Request) *http.Response {
	auth := req.Header.Get("Authorization")
	if auth == "" || !s.verify(req, auth) {
		return s.challenge(req)
	}

	var body interface{}
	switch req.URL.Path {
	case PowerStatusPath:
		if s.power {
			body = map[string]string{"content_type": "tv"}
		} else {
			body = map[string]string{"content_type": "other"}
		}
	case MuteStatusPath:
		mute := "off"
		if s.muted {
			mute = "on"
		}
		body = map[string]interface{}{"status": 0, "mute": mute}
	default:
		return simulatorResponse(req, http.StatusNotFound, nil, "not found")
	}

	data, _ := json.Marshal(body)
	header := http.Header{"Content-Type": []string{"application/json"}}
	return simulatorResponse(req, http.StatusOK, header, string(data))
}

func (s *Simulator) challenge(req *http.Request) *http.Response {
	s.nonceSeq++
	nonce := fmt.Sprintf("%08x", uint32(s.nonceSeq)*2654435761)
	s.issued[nonce] = false

	header := http.Header{}
	header.Set("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s", qop="auth"`, simulatorRealm, nonce))
	return simulatorResponse(req, http.StatusUnauthorized, header, "unauthorized")
}

// verify checks the digest response and burns the nonce
func (s *Simulator) verify(req *http.Request, auth string) bool {
	if !strings.HasPrefix(auth, "Digest ") {
		return false
	}
	fields := make(map[string]string)
	for _, m := range authFieldPattern.FindAllStringSubmatch(auth[len("Digest "):], -1) {
		if m[2] != "" {
			fields[m[1]] = m[2]
		} else {
			fields[m[1]] = m[3]
		}
	}

	used, known := s.issued[fields["nonce"]]
	if !known || used {
		return false
	}
	s.issued[fields["nonce"]] = true

	if fields["username"] != s.endpoint.User || fields["realm"] != simulatorRealm || fields["uri"] != req.URL.RequestURI() {
		return false
	}
	ch := Challenge{Realm: simulatorRealm, Nonce: fields["nonce"]}
	return fields["response"] == ch.Response(s.endpoint.User, s.endpoint.Pass, req.Method, fields["uri"], MD5Hex)
}

func (s *Simulator) serveKey(req *http.Request) *http.Response {
	code := RemoteKeyCode(req.URL.Query().Get("key"))
	s.keys = append(s.keys, code)

	switch code {
	case PowerToggleCode:
		s.power = !s.power
	case MuteToggleCode:
		s.muted = !s.muted
	case VolumeUpCode:
		if s.volume < 100 {
			s.volume++
		}
	case VolumeDownCode:
		if s.volume > 0 {
			s.volume--
		}
	}
	return simulatorResponse(req, http.StatusOK, nil, "OK")
}

// SetPower forces the simulated power state
func (s *Simulator) SetPower(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = on
}

// SetMuted forces the simulated mute state
func (s *Simulator) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

func (s *Simulator) Power() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power
}

func (s *Simulator) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Simulator) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// KeyPresses returns the key codes received so far
func (s *Simulator) KeyPresses() []RemoteKeyCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RemoteKeyCode, len(s.keys))
	copy(out, s.keys)
	return out
}

// RequestCount returns the number of requests served
func (s *Simulator) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func simulatorResponse(req *http.Request, status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
