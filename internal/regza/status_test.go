package regza_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal/regza"
)

func TestPowerState(t *testing.T) {
	ep := regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"}

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"content type absent", `{}`, false},
		{"content type null", `{"content_type":null}`, false},
		{"content type empty", `{"content_type":""}`, false},
		{"content type other", `{"content_type":"other"}`, false},
		{"broadcast content", `{"content_type":"tv"}`, true},
		{"external input", `{"content_type":"hdmi"}`, true},
		{"extra fields ignored", `{"content_type":"bd","title":"x"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := statusDoer(tt.body)
			query := regza.NewStateQuery(regza.NewDigestAuthClient(doer, regza.MD5Hex))

			got, err := query.PowerState(context.Background(), ep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "/v2/remote/play/status", doer.request(1).URL.Path)
		})
	}
}

func TestMuteState(t *testing.T) {
	ep := regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"}

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"muted", `{"status":0,"mute":"on"}`, true},
		{"unmuted", `{"status":0,"mute":"off"}`, false},
		{"error status", `{"status":1,"mute":"on"}`, false},
		{"status missing", `{"mute":"on"}`, false},
		{"status as string", `{"status":"0","mute":"on"}`, false},
		{"mute missing", `{"status":0}`, false},
		{"mute as bool", `{"status":0,"mute":true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := statusDoer(tt.body)
			query := regza.NewStateQuery(regza.NewDigestAuthClient(doer, regza.MD5Hex))

			got, err := query.MuteState(context.Background(), ep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "/v2/remote/status/mute", doer.request(1).URL.Path)
		})
	}
}

func TestStateQueryErrors(t *testing.T) {
	ep := regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"}

	t.Run("non JSON body", func(t *testing.T) {
		query := regza.NewStateQuery(regza.NewDigestAuthClient(statusDoer(`<html>`), regza.MD5Hex))
		_, err := query.PowerState(context.Background(), ep)
		assert.True(t, regza.IsProtocolError(err))
	})

	t.Run("wrong shape body", func(t *testing.T) {
		query := regza.NewStateQuery(regza.NewDigestAuthClient(statusDoer(`{"content_type":5}`), regza.MD5Hex))
		_, err := query.PowerState(context.Background(), ep)
		assert.True(t, regza.IsProtocolError(err))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		doer := &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
			return challengeResponse(`Digest realm="TVRemote", nonce="n0nce"`), nil
		}}
		query := regza.NewStateQuery(regza.NewDigestAuthClient(doer, regza.MD5Hex))
		_, err := query.MuteState(context.Background(), ep)
		assert.True(t, regza.IsProtocolError(err))
		assert.ErrorIs(t, err, regza.ErrUnexpectedStatus)
	})

	t.Run("transport errors propagate", func(t *testing.T) {
		doer := &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
			return nil, errConnRefused
		}}
		query := regza.NewStateQuery(regza.NewDigestAuthClient(doer, regza.MD5Hex))
		_, err := query.PowerState(context.Background(), ep)
		assert.True(t, regza.IsTransportError(err))
	})
}
