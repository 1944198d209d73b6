// Package main provides the sensor-sim CLI tool that emits simulated turbine
// telemetry to the message brokers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/turbsim/internal/config"
	"github.com/arloliu/turbsim/internal/profile"
	"github.com/arloliu/turbsim/internal/telemetry"
	"github.com/arloliu/turbsim/internal/transport"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	mode := os.Args[1]
	switch mode {
	case "run":
		runContinuousMode(os.Args[2:])
	case "once":
		runOnceMode(os.Args[2:])
	case "list":
		listProfiles()
	case "-h", "--help", "help":
		printUsage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sensor-sim - turbine sensor telemetry simulator

Usage:
  sensor-sim <mode> [flags]

Modes:
  run     Emit readings continuously to the configured brokers
  once    Print a batch of readings to stdout and exit
  list    List embedded sensor profiles

Common Flags:
  --config        Path to YAML configuration file
  --profile       Embedded sensor profile name (default: grx2-turbine)
  --profile-file  Custom YAML profile file
  --seed          RNG seed (0 = derive from clock)
  --interval      Override emission interval

Run Mode Flags:
  --mqtt          Also publish to the MQTT dashboard broker

Once Mode Flags:
  --count         Number of readings to print (default: 10)

Environment Variables:
  NATS_URL           NATS broker URL
  MQTT_BROKER_URL    MQTT broker URL
  MQTT_DEVICE_TOKEN  MQTT device access token
  SENSOR_PROFILE     Embedded profile name
  SENSOR_SEED        RNG seed

Examples:
  sensor-sim run --profile grx2-turbine
  sensor-sim once --profile bench-demo --count 30 --seed 7
  sensor-sim list`)
}

func runContinuousMode(args []string) {
	var flags cliFlags
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	bindCommonFlags(fs, &flags)
	fs.BoolVar(&flags.MQTT, "mqtt", false, "Also publish to the MQTT dashboard broker")

	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := executeContinuous(ctx, &flags); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOnceMode(args []string) {
	var flags cliFlags
	fs := flag.NewFlagSet("once", flag.ExitOnError)
	bindCommonFlags(fs, &flags)
	fs.IntVar(&flags.Count, "count", 10, "Number of readings to print")

	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return
	}

	if err := executeOnce(&flags); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listProfiles() {
	fmt.Println("Available profiles:")
	for _, name := range profile.List() {
		p, _ := profile.Get(name)
		fmt.Printf("  %-14s %s (asset %s, every %v)\n", p.Name, p.Description, p.AssetID(), p.Interval)
	}
}

// setup resolves configuration, profile and generator shared by both modes.
func setup(flags *cliFlags) (*config.App, *profile.Profile, *telemetry.Generator, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if flags.Profile != "" {
		cfg.Profile = flags.Profile
	}
	if flags.ProfileFile != "" {
		cfg.ProfileFile = flags.ProfileFile
	}
	if flags.Seed != 0 {
		cfg.Seed = flags.Seed
	}

	var p *profile.Profile
	if cfg.ProfileFile != "" {
		p, err = profile.LoadFromFile(cfg.ProfileFile)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		var ok bool
		p, ok = profile.Get(cfg.Profile)
		if !ok {
			return nil, nil, nil, fmt.Errorf("unknown profile %q, run \"sensor-sim list\"", cfg.Profile)
		}
	}
	if flags.Interval > 0 {
		// Copy before overriding so registry entries stay pristine.
		override := *p
		override.Interval = flags.Interval
		p = &override
	}

	genCfg, err := telemetry.Configure(p.Params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid profile %s: %w", p.Name, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // wraparound is harmless for a seed
	}
	rng := rand.New(rand.NewPCG(seed, seed+1)) //nolint:gosec // weak rand is fine for simulation

	return cfg, p, telemetry.New(genCfg, p.AssetID(), rng), nil
}

func executeContinuous(ctx context.Context, flags *cliFlags) error {
	cfg, p, gen, err := setup(flags)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	shutdownTracing, err := config.SetupTracing(ctx, cfg.Telemetry, "sensor-sim")
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	natsPub, err := transport.NewNATSPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		return err
	}

	pubs := []transport.Publisher{natsPub}
	if flags.MQTT || cfg.MQTTEnabled {
		mqttPub, err := transport.NewMQTTPublisher(ctx, cfg.MQTT, logger)
		if err != nil {
			return err
		}
		pubs = append(pubs, mqttPub)
	}
	pub := transport.NewMulti(pubs...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Close(closeCtx); err != nil {
			logger.Warn("publisher shutdown incomplete", "error", err)
		}
	}()

	logger.Info("sensor simulation started",
		"profile", p.Name, "asset", gen.AssetID(), "interval", p.Interval, "publishers", len(pubs))

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sensor simulation stopped")
			return nil
		case <-ticker.C:
			reading := gen.Tick()
			payload, err := json.Marshal(reading)
			if err != nil {
				logger.Error("failed to encode reading", "error", err)
				continue
			}

			// Delivery failures never stall the tick loop.
			if err := pub.Publish(ctx, payload); err != nil {
				logger.Warn("publish failed", "asset", reading.AssetID, "error", err)
			}

			logger.Debug("reading emitted",
				"asset", reading.AssetID, "status", reading.Status,
				"vibration_g", reading.VibrationG, "temperature_c", reading.TemperatureC)
		}
	}
}

func executeOnce(flags *cliFlags) error {
	_, _, gen, err := setup(flags)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for range flags.Count {
		if err := enc.Encode(gen.Tick()); err != nil {
			return fmt.Errorf("failed to encode reading: %w", err)
		}
	}

	return nil
}
