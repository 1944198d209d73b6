// Package transport provides fire-and-forget publishers for telemetry
// readings. The simulator loop never blocks on or branches on delivery
// results; broker availability must not affect generation liveness.
package transport

import (
	"context"
	"errors"
)

// Publisher delivers one serialized reading per tick. The destination
// (subject or topic) and delivery guarantee are bound at construction.
type Publisher interface {
	// Publish hands the payload to the broker client without waiting for
	// acknowledgement. Returned errors are local failures only (e.g. a
	// closed client); callers log and continue.
	Publish(ctx context.Context, payload []byte) error

	// Close flushes and shuts down the underlying client.
	Close(ctx context.Context) error
}

// Multi fans one payload out to several publishers, e.g. the internal
// broker and the dashboard platform broker.
type Multi struct {
	pubs []Publisher
}

// NewMulti creates a fan-out publisher.
func NewMulti(pubs ...Publisher) *Multi {
	return &Multi{pubs: pubs}
}

// Publish sends the payload to every publisher. Failures do not stop the
// fan-out; all errors are joined.
func (m *Multi) Publish(ctx context.Context, payload []byte) error {
	var errs []error
	for _, p := range m.pubs {
		if err := p.Publish(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every publisher.
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, p := range m.pubs {
		if err := p.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
