package tak

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/time/rate"

	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/pkg/logger"
)

// EventSource is the outbound event queue as seen by the transmitter
type EventSource interface {
	Get(ctx context.Context) (*cot.Event, error)
}

// EventRecorder persists transmitted events; implementations may be no-ops
type EventRecorder interface {
	RecordEvent(event *cot.Event) error
}

// Transmitter drains the outbound event queue onto the wire. Events are
// newline-delimited XML documents. A write error terminates the worker,
// which the orchestrator treats as a pipeline failure.
type Transmitter struct {
	events   EventSource
	conn     net.Conn
	limiter  *rate.Limiter
	recorder EventRecorder
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewTransmitter creates a transmitter for a connected destination
func NewTransmitter(events EventSource, conn net.Conn, cfg config.CoTConfig, recorder EventRecorder, m *metrics.Metrics, logger *logger.Logger) *Transmitter {
	var limiter *rate.Limiter
	if cfg.MaxEventsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxEventsPerSec), cfg.MaxEventsPerSec)
	}

	return &Transmitter{
		events:   events,
		conn:     conn,
		limiter:  limiter,
		recorder: recorder,
		metrics:  m,
		logger:   logger.Named("transmitter"),
	}
}

// Name identifies the worker in shutdown reports
func (t *Transmitter) Name() string {
	return "transmitter"
}

// Run drains events until the context is cancelled or a write fails
func (t *Transmitter) Run(ctx context.Context) error {
	t.logger.Info("Transmitter started",
		logger.String("remote_addr", t.conn.RemoteAddr().String()),
	)

	for {
		event, err := t.events.Get(ctx)
		if err != nil {
			return err
		}

		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		data, err := event.Marshal()
		if err != nil {
			// Serialization failures are per-event: drop and continue
			t.logger.Error("Failed to serialize event",
				logger.String("uid", event.UID),
				logger.Error(err),
			)
			continue
		}

		if _, err := t.conn.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write event to destination: %w", err)
		}
		t.metrics.EventsSent.Inc()

		if t.recorder != nil {
			if err := t.recorder.RecordEvent(event); err != nil {
				t.logger.Warn("Failed to record transmitted event",
					logger.String("uid", event.UID),
					logger.Error(err),
				)
			}
		}

		t.logger.Debug("Event sent",
			logger.String("uid", event.UID),
			logger.String("type", event.Type),
		)
	}
}
