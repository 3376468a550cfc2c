package gateway

import (
	"context"

	"github.com/skysift/cotbridge/internal/adsb"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/internal/modes"
	"github.com/skysift/cotbridge/pkg/logger"
)

// StreamWorker consumes raw frames from the internal queue, decodes them
// into observations, filters, builds CoT events and enqueues them. Decode
// failures are per-frame: the frame is skipped and the loop continues.
type StreamWorker struct {
	frames  *Queue[[]byte]
	decoder *modes.Decoder
	filters *adsb.FilterSet
	builder *cot.Builder
	out     *Queue[*cot.Event]
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewStreamWorker creates a stream-variant source worker
func NewStreamWorker(frames *Queue[[]byte], decoder *modes.Decoder, filters *adsb.FilterSet, builder *cot.Builder, out *Queue[*cot.Event], m *metrics.Metrics, logger *logger.Logger) *StreamWorker {
	return &StreamWorker{
		frames:  frames,
		decoder: decoder,
		filters: filters,
		builder: builder,
		out:     out,
		metrics: m,
		logger:  logger.Named("stream-worker"),
	}
}

// Name identifies the worker in shutdown reports
func (w *StreamWorker) Name() string {
	return "stream-worker"
}

// Run processes frames until the context is cancelled
func (w *StreamWorker) Run(ctx context.Context) error {
	w.logger.Info("Stream worker started")

	for {
		frame, err := w.frames.Get(ctx)
		if err != nil {
			return err
		}

		obs, err := w.decoder.Decode(frame)
		if err != nil {
			w.logger.Debug("Skipping undecodable frame", logger.Error(err))
			w.metrics.DecodeErrors.Inc()
			continue
		}
		if obs == nil {
			// Valid frame that yields no decodable aircraft state
			continue
		}

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
		w.metrics.OutboundQueueDepth.Set(float64(w.out.Len()))
	}
}
