package transport

import (
	"context"
	"fmt"
	"log/slog"

	otxnats "github.com/arloliu/otx/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig configures the internal JetStream telemetry transport.
type NATSConfig struct {
	URL     string `yaml:"url" default:"nats://localhost:4222" env:"NATS_URL"`
	Stream  string `yaml:"stream" default:"TELEMETRY"`
	Subject string `yaml:"subject" default:"telemetry.sensors"`
}

// NATSPublisher publishes readings to a JetStream stream asynchronously.
// Ack outcomes are observed in the background and only logged; a missed ack
// never reaches the tick loop.
type NATSPublisher struct {
	nc      *nats.Conn
	pub     *otxnats.Publisher
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to the broker and ensures the telemetry stream
// exists.
func NewNATSPublisher(ctx context.Context, cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("turbsim-sensor"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	return &NATSPublisher{
		nc:      nc,
		pub:     otxnats.NewPublisher(js, otxnats.WithStream(cfg.Stream)),
		subject: cfg.Subject,
		logger:  logger,
	}, nil
}

// Publish queues the payload for async delivery and returns immediately.
func (p *NATSPublisher) Publish(_ context.Context, payload []byte) error {
	future, err := p.pub.PublishAsync(p.subject, payload)
	if err != nil {
		return fmt.Errorf("failed to queue publish on %s: %w", p.subject, err)
	}

	go func() {
		select {
		case <-future.Ok():
		case err := <-future.Err():
			p.logger.Warn("telemetry publish not acknowledged",
				"subject", p.subject, "error", err)
		}
	}()

	return nil
}

// Close drains the connection, letting queued publishes flush.
func (p *NATSPublisher) Close(_ context.Context) error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}
