package mqtt_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regza/internal"
	"regza/internal/device"
	"regza/internal/mqtt"
	"regza/internal/regza"
)

type published struct {
	payload string
	retain  bool
}

type fakeClient struct {
	mu        sync.Mutex
	messages  map[string][]published
	handlers  map[string]mqtt.MessageHandler
	subscribe chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		messages:  make(map[string][]published),
		handlers:  make(map[string]mqtt.MessageHandler),
		subscribe: make(chan struct{}, 1),
	}
}

func (f *fakeClient) Subscribe(topic string, cb mqtt.MessageHandler) error {
	f.mu.Lock()
	f.handlers[topic] = cb
	f.mu.Unlock()
	f.subscribe <- struct{}{}
	return nil
}

func (f *fakeClient) Publish(topic string, payload []byte, retain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[topic] = append(f.messages[topic], published{string(payload), retain})
	return nil
}

func (f *fakeClient) Disconnect() {}

func (f *fakeClient) last(topic string) (published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[topic]
	if len(msgs) == 0 {
		return published{}, false
	}
	return msgs[len(msgs)-1], true
}

type remoteSource struct {
	remotes []*regza.RegzaRemote
}

func (s *remoteSource) Devices() []*regza.RegzaRemote { return s.remotes }

func (s *remoteSource) ProcessDeviceAction(ctx context.Context, deviceID, source string, actionJSON []byte) (*device.ActionResponse, error) {
	for _, r := range s.remotes {
		if r.GetDeviceInfo().ID == deviceID {
			return r.Process(ctx, actionJSON)
		}
	}
	return &device.ActionResponse{Success: false, Error: "device not found: " + deviceID}, nil
}

func newSource(host string) (*remoteSource, *regza.Simulator) {
	remote := regza.NewRegzaRemote("tv", regza.ControllerConfig{
		Endpoint:   regza.Endpoint{Host: host, User: "admin", Pass: "pass"},
		MuteSource: regza.MuteSourceLive,
	}, internal.NewModeOptions(internal.WithTest(true)))
	return &remoteSource{remotes: []*regza.RegzaRemote{remote}}, remote.Simulator()
}

func TestPollOncePublishesRetainedState(t *testing.T) {
	source, sim := newSource("10.0.0.8")
	sim.SetPower(true)
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, source, "regza/", time.Minute)

	bridge.PollOnce(context.Background())

	msg, ok := client.last("regza/tv/state")
	require.True(t, ok)
	assert.True(t, msg.retain)

	var state mqtt.StateMessage
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &state))
	assert.True(t, state.Active)
	assert.False(t, state.Muted)

	avail, _ := client.last("regza/tv/availability")
	assert.Equal(t, "online", avail.payload)
}

// nothing listens on 127.0.0.1:4430, so the status probe is refused
func unreachableRemote() *regza.RegzaRemote {
	return regza.NewRegzaRemote("tv", regza.ControllerConfig{
		Endpoint: regza.Endpoint{Host: "127.0.0.1", User: "admin", Pass: "pass"},
		Timeout:  time.Second,
	}, internal.NewModeOptions())
}

func TestPollOnceMarksUnreachableOffline(t *testing.T) {
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, &remoteSource{remotes: []*regza.RegzaRemote{unreachableRemote()}}, "regza", time.Minute)

	bridge.PollOnce(context.Background())

	avail, ok := client.last("regza/tv/availability")
	require.True(t, ok)
	assert.Equal(t, "offline", avail.payload)
	_, ok = client.last("regza/tv/state")
	assert.False(t, ok)
}

func TestHandleCommand(t *testing.T) {
	source, sim := newSource("10.0.0.8")
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, source, "regza", time.Minute)

	bridge.HandleCommand(context.Background(), "regza/tv/set", []byte(`{"type":"control","action":"set_power","parameters":{"on":true}}`))

	assert.True(t, sim.Power())
	result, ok := client.last("regza/tv/result")
	require.True(t, ok)
	assert.False(t, result.retain)
	assert.Contains(t, result.payload, `"success":true`)

	state, ok := client.last("regza/tv/state")
	require.True(t, ok)
	assert.Contains(t, state.payload, `"active":true`)
}

func TestHandleCommandIgnoresForeignTopics(t *testing.T) {
	source, sim := newSource("10.0.0.8")
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, source, "regza", time.Minute)

	for _, topic := range []string{"other/tv/set", "regza/tv/state", "regza//set", "regza/tv"} {
		bridge.HandleCommand(context.Background(), topic, []byte(`{"type":"remote","action":"power-toggle"}`))
	}

	assert.Zero(t, sim.RequestCount())
}

func TestRunSubscribesAndStops(t *testing.T) {
	source, _ := newSource("10.0.0.8")
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, source, "regza", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	select {
	case <-client.subscribe:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not subscribe")
	}
	cancel()
	require.NoError(t, <-done)

	client.mu.Lock()
	_, subscribed := client.handlers["regza/+/set"]
	client.mu.Unlock()
	assert.True(t, subscribed)

	avail, ok := client.last(mqtt.WillTopic("regza"))
	require.True(t, ok)
	assert.Equal(t, "offline", avail.payload)
	assert.True(t, avail.retain)
}

type blockingSource struct {
	*remoteSource
	release chan struct{}
}

func (s *blockingSource) ProcessDeviceAction(ctx context.Context, deviceID, source string, actionJSON []byte) (*device.ActionResponse, error) {
	<-s.release
	return s.remoteSource.ProcessDeviceAction(ctx, deviceID, source, actionJSON)
}

func TestRunDispatchesCommandsWithoutBlocking(t *testing.T) {
	inner, sim := newSource("10.0.0.8")
	source := &blockingSource{remoteSource: inner, release: make(chan struct{})}
	client := newFakeClient()
	bridge := mqtt.NewBridge(client, source, "regza", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	select {
	case <-client.subscribe:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not subscribe")
	}

	client.mu.Lock()
	handler := client.handlers["regza/+/set"]
	client.mu.Unlock()
	require.NotNil(t, handler)

	returned := make(chan struct{})
	go func() {
		handler("regza/tv/set", []byte(`{"type":"control","action":"set_power","parameters":{"on":true}}`))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("message handler blocked on the action")
	}
	_, ok := client.last("regza/tv/result")
	assert.False(t, ok)

	close(source.release)
	assert.Eventually(t, func() bool {
		result, ok := client.last("regza/tv/result")
		return ok && strings.Contains(result.payload, `"success":true`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, sim.Power())
}
