// Package main provides the edge-sim service that consumes telemetry from
// JetStream, applies gross anomaly detection and escalates new anomaly
// episodes to the diagnosis agent.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	otxnats "github.com/arloliu/otx/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/turbsim/internal/config"
	"github.com/arloliu/turbsim/internal/edge"
	"github.com/arloliu/turbsim/internal/opsramp"
	"github.com/arloliu/turbsim/internal/telemetry"
)

func main() {
	var configFile string
	fs := flag.NewFlagSet("edge-sim", flag.ExitOnError)
	fs.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, configFile); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	shutdownTracing, err := config.SetupTracing(ctx, cfg.Telemetry, "edge-sim")
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	events := opsramp.New(cfg.OpsRamp)
	processor := edge.NewProcessor(cfg.Edge, events, logger)

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("edge-sim"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.NATS.Stream, jetstream.ConsumerConfig{
		Durable:       "edge-sim",
		FilterSubject: cfg.NATS.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer on stream %s: %w", cfg.NATS.Stream, err)
	}

	cc, err := consumer.Consume(otxnats.MessageHandlerWithTracing(func(msg *otxnats.TracedMsg) {
		var reading telemetry.Reading
		if err := json.Unmarshal(msg.Data(), &reading); err != nil {
			logger.Error("dropping undecodable reading", "error", err)
			_ = msg.Ack()
			return
		}

		processor.Process(msg.Context(), reading)
		_ = msg.Ack()
	}))
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	logger.Info("edge simulator started",
		"device", cfg.Edge.DeviceID, "stream", cfg.NATS.Stream, "subject", cfg.NATS.Subject,
		"agent_url", cfg.Edge.AgentURL)

	<-ctx.Done()
	logger.Info("edge simulator stopped")

	return nil
}
