package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"regza/internal/logger"
)

// MessageHandler receives the topic and payload of an inbound message
type MessageHandler func(topic string, payload []byte)

// ClientAPI is the broker surface the bridge needs
type ClientAPI interface {
	Subscribe(topic string, cb MessageHandler) error
	Publish(topic string, payload []byte, retain bool) error
	Disconnect()
}

// Client wraps a paho client
type Client struct {
	cli    paho.Client
	logger zerolog.Logger
}

// Connect dials brokerURL (tcp://, mqtt://, ssl://, tls://, ws://, wss://).
// willTopic, when set, receives a retained "offline" if the connection drops.
func Connect(brokerURL, willTopic string) (*Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}

	log := logger.Component("mqtt")
	opts := paho.NewClientOptions()
	switch u.Scheme {
	case "mqtt", "tcp":
		opts.AddBroker("tcp://" + u.Host)
	case "ssl", "tls", "mqtts":
		opts.AddBroker("ssl://" + u.Host)
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	case "ws", "wss":
		opts.AddBroker(u.Scheme + "://" + u.Host + u.Path)
	default:
		return nil, fmt.Errorf("unsupported broker scheme: %q", u.Scheme)
	}

	opts.SetClientID("regza-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(paho.Client) { log.Info().Str("broker", u.Host).Msg("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Error().Err(err).Msg("MQTT connection lost") }
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}
	if willTopic != "" {
		opts.SetWill(willTopic, "offline", 1, true)
	}

	cli := paho.NewClient(opts)
	if t := cli.Connect(); t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", t.Error())
	}
	return &Client{cli: cli, logger: log}, nil
}

// Subscribe registers cb for topic at QoS 1
func (c *Client) Subscribe(topic string, cb MessageHandler) error {
	t := c.cli.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		cb(m.Topic(), m.Payload())
	})
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	c.logger.Info().Str("topic", topic).Msg("MQTT subscribed")
	return nil
}

// Publish sends payload at QoS 1
func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 1, retain, payload)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

// Disconnect waits up to 250ms for in-flight work
func (c *Client) Disconnect() {
	c.cli.Disconnect(250)
}
