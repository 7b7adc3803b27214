package regza_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal/regza"
)

type stubState struct {
	power     bool
	mute      bool
	err       error
	powerRead int
	muteRead  int
}

func (s *stubState) PowerState(ctx context.Context, ep regza.Endpoint) (bool, error) {
	s.powerRead++
	return s.power, s.err
}

func (s *stubState) MuteState(ctx context.Context, ep regza.Endpoint) (bool, error) {
	s.muteRead++
	return s.mute, s.err
}

type recordingKeys struct {
	mu    sync.Mutex
	codes []regza.RemoteKeyCode
	hosts []string
	err   error
}

func (r *recordingKeys) SendKey(ctx context.Context, ep regza.Endpoint, code regza.RemoteKeyCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	r.hosts = append(r.hosts, ep.Host)
	return r.err
}

func newStubController(state *stubState, keys *recordingKeys) *regza.Controller {
	return regza.NewController(regza.ControllerConfig{
		Endpoint: regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"},
	}, regza.WithStateReader(state), regza.WithKeyPresser(keys))
}

func TestControllerDefaults(t *testing.T) {
	c := regza.NewController(regza.ControllerConfig{Endpoint: regza.Endpoint{Host: "tv.local"}})
	assert.Equal(t, "REGZA", c.Name())
	assert.Equal(t, "Z720X", c.Model())
	assert.Equal(t, "tv.local", c.Host())
	assert.Equal(t, regza.MuteSourceFixed, c.MuteSource())
}

func TestGetActive(t *testing.T) {
	state := &stubState{power: true}
	c := newStubController(state, &recordingKeys{})

	for i := 0; i < 2; i++ {
		active, err := c.GetActive(context.Background())
		require.NoError(t, err)
		assert.True(t, active)
	}
	assert.Equal(t, 2, state.powerRead, "power state must not be cached")
}

func TestSetActive(t *testing.T) {
	for _, current := range []bool{true, false} {
		t.Run("same state is a no-op", func(t *testing.T) {
			keys := &recordingKeys{}
			c := newStubController(&stubState{power: current}, keys)

			require.NoError(t, c.SetActive(context.Background(), current))
			assert.Empty(t, keys.codes)
		})

		t.Run("different state sends one toggle", func(t *testing.T) {
			keys := &recordingKeys{}
			c := newStubController(&stubState{power: current}, keys)

			require.NoError(t, c.SetActive(context.Background(), !current))
			assert.Equal(t, []regza.RemoteKeyCode{regza.PowerToggleCode}, keys.codes)
			assert.Equal(t, []string{"tv.local"}, keys.hosts)
		})
	}

	t.Run("read failure sends nothing", func(t *testing.T) {
		keys := &recordingKeys{}
		state := &stubState{err: &regza.TransportError{Op: "probe GET", URL: "https://tv.local:4430", Err: errConnRefused}}
		c := newStubController(state, keys)

		err := c.SetActive(context.Background(), true)
		assert.True(t, regza.IsTransportError(err))
		assert.Empty(t, keys.codes)
	})
}

func TestMute(t *testing.T) {
	t.Run("fixed getter reports muted without a request", func(t *testing.T) {
		state := &stubState{mute: false}
		c := newStubController(state, &recordingKeys{})

		mute, err := c.GetMute(context.Background())
		require.NoError(t, err)
		assert.True(t, mute)
		assert.Equal(t, 0, state.muteRead)
	})

	t.Run("live getter queries the television", func(t *testing.T) {
		state := &stubState{mute: false}
		c := newStubController(state, &recordingKeys{})

		mute, err := c.GetMuteLive(context.Background())
		require.NoError(t, err)
		assert.False(t, mute)
		assert.Equal(t, 1, state.muteRead)
	})

	t.Run("set mute always toggles", func(t *testing.T) {
		keys := &recordingKeys{}
		state := &stubState{mute: true}
		c := newStubController(state, keys)

		require.NoError(t, c.SetMute(context.Background(), true))
		require.NoError(t, c.SetMute(context.Background(), false))
		assert.Equal(t, []regza.RemoteKeyCode{regza.MuteToggleCode, regza.MuteToggleCode}, keys.codes)
		assert.Equal(t, 0, state.muteRead)
	})
}

func TestSetVolume(t *testing.T) {
	keys := &recordingKeys{}
	c := newStubController(&stubState{}, keys)

	require.NoError(t, c.SetVolume(context.Background(), regza.VolumeUp))
	require.NoError(t, c.SetVolume(context.Background(), regza.VolumeDown))
	assert.Error(t, c.SetVolume(context.Background(), "sideways"))

	assert.Equal(t, []regza.RemoteKeyCode{regza.VolumeUpCode, regza.VolumeDownCode}, keys.codes)
}

func TestSendRemoteKey(t *testing.T) {
	t.Run("supported intent sends its code", func(t *testing.T) {
		keys := &recordingKeys{}
		c := newStubController(&stubState{}, keys)

		require.NoError(t, c.SendRemoteKey(context.Background(), regza.IntentSelect))
		assert.Equal(t, []regza.RemoteKeyCode{regza.SelectCode}, keys.codes)
	})

	t.Run("unsupported intent is a silent no-op", func(t *testing.T) {
		keys := &recordingKeys{}
		c := newStubController(&stubState{}, keys)

		for _, intent := range []regza.Intent{regza.IntentRewind, regza.IntentExit, regza.IntentInformation} {
			assert.NoError(t, c.SendRemoteKey(context.Background(), intent))
		}
		assert.Empty(t, keys.codes)
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		keys := &recordingKeys{err: &regza.TransportError{Op: "key GET", Err: errConnRefused}}
		c := newStubController(&stubState{}, keys)

		err := c.SendRemoteKey(context.Background(), regza.IntentBack)
		assert.True(t, regza.IsTransportError(err))
	})
}

func TestSetActiveIdentifier(t *testing.T) {
	keys := &recordingKeys{}
	state := &stubState{}
	c := newStubController(state, keys)

	assert.NoError(t, c.SetActiveIdentifier(context.Background(), 3))
	assert.Empty(t, keys.codes)
	assert.Equal(t, 0, state.powerRead)
}

func TestControllerAgainstSimulator(t *testing.T) {
	ep := regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"}
	sim := regza.NewSimulator(ep)
	c := regza.NewController(regza.ControllerConfig{Endpoint: ep}, regza.WithTransports(sim, sim))
	ctx := context.Background()

	active, err := c.GetActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, 2, sim.RequestCount())

	require.NoError(t, c.SetActive(ctx, true))
	assert.True(t, sim.Power())
	assert.Equal(t, 5, sim.RequestCount())

	require.NoError(t, c.SetActive(ctx, true))
	assert.True(t, sim.Power())
	assert.Equal(t, []regza.RemoteKeyCode{regza.PowerToggleCode}, sim.KeyPresses())

	require.NoError(t, c.SetMute(ctx, true))
	muted, err := c.GetMuteLive(ctx)
	require.NoError(t, err)
	assert.True(t, muted)

	require.NoError(t, c.SetVolume(ctx, regza.VolumeUp))
	assert.Equal(t, 21, sim.Volume())
}

func TestControllerWrongPassword(t *testing.T) {
	sim := regza.NewSimulator(regza.Endpoint{Host: "tv.local", User: "admin", Pass: "secret"})
	c := regza.NewController(regza.ControllerConfig{
		Endpoint: regza.Endpoint{Host: "tv.local", User: "admin", Pass: "wrong"},
	}, regza.WithTransports(sim, sim))

	_, err := c.GetActive(context.Background())
	assert.True(t, regza.IsProtocolError(err))
}
