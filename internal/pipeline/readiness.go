package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/storm-flood-risk/internal/domain"
)

// CheckReadiness returns nil once the elevation provider has answered a probe,
// or an error describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("elevation provider has not answered a probe yet")
	}
	return nil
}

// Probe looks up the elevation at the centre of the study area. A successful
// answer, including a no-data answer, marks the engine ready.
func (e *Engine) Probe(ctx context.Context) error {
	lat, lon := e.options.Bounds.Center()
	if _, err := e.elevation.ElevationAt(ctx, lat, lon); err != nil && !errors.Is(err, domain.ErrNoData) {
		return fmt.Errorf("probe elevation provider: %w", err)
	}
	e.ready.Store(true)
	e.metrics.ProviderReady.Set(1)
	return nil
}

// WaitReady probes until the provider answers or the context is cancelled.
func (e *Engine) WaitReady(ctx context.Context) error {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		err := e.Probe(ctx)
		if err == nil {
			e.logger.Info("elevation provider ready")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Warn("elevation provider probe failed", "error", err, "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
