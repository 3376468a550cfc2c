package gateway

import (
	"context"
	"time"

	"github.com/skysift/cotbridge/internal/adsb"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/pkg/logger"
)

// PollWorker periodically pulls a full aircraft snapshot from an HTTP JSON
// endpoint, filters the observations, builds CoT events and enqueues them.
// A failed cycle is logged and skipped; only cancellation ends the worker.
type PollWorker struct {
	client   *adsb.Client
	filters  *adsb.FilterSet
	builder  *cot.Builder
	changes  *adsb.ChangeDetector
	out      *Queue[*cot.Event]
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewPollWorker creates a poll-variant source worker. A nil change detector
// sends every observation every cycle.
func NewPollWorker(client *adsb.Client, filters *adsb.FilterSet, builder *cot.Builder, changes *adsb.ChangeDetector, out *Queue[*cot.Event], interval time.Duration, m *metrics.Metrics, logger *logger.Logger) *PollWorker {
	return &PollWorker{
		client:   client,
		filters:  filters,
		builder:  builder,
		changes:  changes,
		out:      out,
		interval: interval,
		metrics:  m,
		logger:   logger.Named("poll-worker"),
	}
}

// Name identifies the worker in shutdown reports
func (w *PollWorker) Name() string {
	return "poll-worker"
}

// Run polls the source every interval until the context is cancelled
func (w *PollWorker) Run(ctx context.Context) error {
	w.logger.Info("Poll worker started",
		logger.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll runs one cycle. Fetch and parse errors skip the cycle without
// terminating the worker.
func (w *PollWorker) poll(ctx context.Context) {
	data, err := w.client.FetchData(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("Skipping poll cycle", logger.Error(err))
		w.metrics.PollErrors.Inc()
		return
	}
	w.metrics.PollCycles.Inc()

	now := time.Now().UTC()
	observations := make([]*adsb.Observation, 0, len(data.Aircraft))
	for i := range data.Aircraft {
		if obs := data.Aircraft[i].Observation(now); obs != nil {
			observations = append(observations, obs)
		}
	}

	if w.changes != nil {
		observations = w.changes.Changed(observations)
	}

	enqueued := 0
	for _, obs := range observations {
		if !w.filters.Keep(obs) {
			w.metrics.FilterDrops.Inc()
			continue
		}

		event, err := w.builder.Build(obs)
		if err != nil {
			w.logger.Debug("Skipping observation",
				logger.String("hex", obs.Hex),
				logger.Error(err),
			)
			continue
		}

		w.out.Put(event)
		w.metrics.EventsBuilt.Inc()
		enqueued++
	}
	w.metrics.OutboundQueueDepth.Set(float64(w.out.Len()))

	w.logger.Debug("Poll cycle complete",
		logger.Int("aircraft", len(data.Aircraft)),
		logger.Int("events", enqueued),
	)
}
