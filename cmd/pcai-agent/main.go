// Package main provides the pcai-agent service: the HTTP diagnosis endpoint
// that turns edge anomaly triggers into AI-backed maintenance verdicts and
// work orders.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/turbsim/internal/agent"
	"github.com/arloliu/turbsim/internal/config"
	"github.com/arloliu/turbsim/internal/kb"
	"github.com/arloliu/turbsim/internal/llm"
	"github.com/arloliu/turbsim/internal/opsramp"
	"github.com/arloliu/turbsim/internal/ticket"
)

func main() {
	var configFile string
	fs := flag.NewFlagSet("pcai-agent", flag.ExitOnError)
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

	shutdownTracing, err := config.SetupTracing(ctx, cfg.Telemetry, "pcai-agent")
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	store, err := kb.Load(cfg.Agent.KnowledgeBaseDir, logger)
	if err != nil {
		return err
	}

	diagnoser := llm.New(cfg.LLM)
	ticketer := ticket.New(cfg.ServiceNow)
	events := opsramp.New(cfg.OpsRamp)

	if !ticketer.Enabled() {
		logger.Warn("servicenow is not configured, work orders will not be created")
	}
	if !events.Enabled() {
		logger.Warn("event log endpoint is not configured, events will be dropped")
	}

	svc := agent.NewService(cfg.Agent, store, diagnoser, ticketer, events, logger)

	srv := &http.Server{
		Addr:              cfg.Agent.ListenAddr,
		Handler:           agent.NewHandler(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("diagnosis agent listening",
			"addr", cfg.Agent.ListenAddr, "model", diagnoser.Model(),
			"kb_dir", cfg.Agent.KnowledgeBaseDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("diagnosis agent stopped")

	return nil
}
