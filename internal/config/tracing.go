package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/otx"
)

// SetupTracing installs the global tracer provider when telemetry is enabled
// and returns a shutdown function. When telemetry is disabled it returns a
// no-op shutdown and no error.
func SetupTracing(ctx context.Context, cfg *otx.TelemetryConfig, serviceName string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if cfg == nil {
		return noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}

	tp, err := otx.NewTracerProvider(ctx, cfg)
	if err != nil {
		if errors.Is(err, otx.ErrDisabled) {
			return noop, nil
		}

		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	otx.InitTracing(tp.Tracer(cfg.ServiceName), nil)

	return tp.Shutdown, nil
}
