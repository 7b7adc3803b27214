package regza_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// fakeDoer answers requests through handler and records them
type fakeDoer struct {
	mu       sync.Mutex
	handler  func(req *http.Request) (*http.Response, error)
	requests []*http.Request
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeDoer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeDoer) request(i int) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func response(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func challengeResponse(value string) *http.Response {
	header := http.Header{}
	if value != "" {
		header.Set("WWW-Authenticate", value)
	}
	return response(http.StatusUnauthorized, header, "")
}

// statusDoer challenges unauthenticated requests and returns body otherwise
func statusDoer(body string) *fakeDoer {
	return &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") == "" {
			return challengeResponse(`Digest realm="TVRemote", nonce="n0nce", qop="auth"`), nil
		}
		return response(http.StatusOK, nil, body), nil
	}}
}

var errConnRefused = errors.New("connect: connection refused")

// rewriteTransport sends every request to target while keeping the
// original URL host visible to the code under test
type rewriteTransport struct {
	target string
	base   http.RoundTripper
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Host = rt.target
	return rt.base.RoundTrip(clone)
}
