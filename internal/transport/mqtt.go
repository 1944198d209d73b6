package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// MQTTConfig configures the dashboard platform broker (ThingsBoard-style).
type MQTTConfig struct {
	BrokerURL string `yaml:"brokerUrl" default:"mqtt://localhost:1883" env:"MQTT_BROKER_URL"`
	ClientID  string `yaml:"clientId" default:"turbsim-sensor"`
	Topic     string `yaml:"topic" default:"v1/devices/me/telemetry"`

	// DeviceToken is sent as the MQTT username when set; ThingsBoard
	// authenticates devices by access token.
	DeviceToken string `yaml:"deviceToken" env:"MQTT_DEVICE_TOKEN"`

	KeepAlive uint16 `yaml:"keepAlive" default:"60"`
}

// MQTTPublisher publishes readings at QoS 1 through a self-reconnecting
// session. Messages queue while the broker is unreachable.
type MQTTPublisher struct {
	cm    *autopaho.ConnectionManager
	topic string
}

// NewMQTTPublisher establishes a managed connection to the broker.
func NewMQTTPublisher(ctx context.Context, cfg MQTTConfig, logger *slog.Logger) (*MQTTPublisher, error) {
	u, err := url.Parse(cfg.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT broker URL %q: %w", cfg.BrokerURL, err)
	}

	clientCfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{u},
		KeepAlive:  cfg.KeepAlive,
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			logger.Info("mqtt broker connected", "broker", cfg.BrokerURL)
		},
		OnConnectError: func(err error) {
			logger.Warn("mqtt connect error, retrying in background",
				"broker", cfg.BrokerURL, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			OnClientError: func(err error) {
				logger.Warn("mqtt client error", "error", err)
			},
		},
	}
	if cfg.DeviceToken != "" {
		clientCfg.ConnectUsername = cfg.DeviceToken
	}

	cm, err := autopaho.NewConnection(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start MQTT connection manager: %w", err)
	}

	return &MQTTPublisher{cm: cm, topic: cfg.Topic}, nil
}

// Publish enqueues the payload at QoS 1 without waiting for the broker ack.
func (p *MQTTPublisher) Publish(ctx context.Context, payload []byte) error {
	err := p.cm.PublishViaQueue(ctx, &autopaho.QueuePublish{
		Publish: &paho.Publish{
			QoS:     1,
			Topic:   p.topic,
			Payload: payload,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to queue publish on %s: %w", p.topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close(ctx context.Context) error {
	if err := p.cm.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MQTT client: %w", err)
	}

	return nil
}
