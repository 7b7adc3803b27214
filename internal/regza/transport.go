package regza

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewSecureTransport returns the client used for the status API. The
// television serves a self-signed certificate, so verification is off.
func NewSecureTransport(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	transport.DisableKeepAlives = true

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewPlainTransport returns the client used for key commands
func NewPlainTransport(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
