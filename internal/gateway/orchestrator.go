package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/skysift/cotbridge/internal/adsb"
	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/internal/modes"
	"github.com/skysift/cotbridge/internal/tak"
	"github.com/skysift/cotbridge/pkg/logger"
)

// Worker is one independently scheduled pipeline task. The orchestrator
// starts every worker concurrently and treats the first one to return as the
// end of the pipeline.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// sourceKind is the closed set of ingestion strategies
type sourceKind int

const (
	sourcePoll sourceKind = iota
	sourceStream
)

// resolveSource maps an ADS-B source URL onto an ingestion strategy and, for
// stream sources, the feed sub-format (default "raw")
func resolveSource(rawURL string) (sourceKind, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, "", fmt.Errorf("invalid ADS-B source URL: %w", err)
	}

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		return sourcePoll, "", nil
	case u.Scheme == "tcp":
		return sourceStream, modes.FormatRaw, nil
	case strings.HasPrefix(u.Scheme, "tcp+"):
		return sourceStream, strings.TrimPrefix(u.Scheme, "tcp+"), nil
	}

	return 0, "", fmt.Errorf("unsupported ADS-B source scheme %q", u.Scheme)
}

// Orchestrator wires queues to workers and owns the shutdown policy: any
// single worker terminating ends the whole pipeline. There is no restart and
// no partial-degradation mode.
type Orchestrator struct {
	cfg      *config.Config
	recorder tak.EventRecorder
	metrics  *metrics.Metrics
	logger   *logger.Logger
	extra    []Worker
}

// NewOrchestrator creates an orchestrator. The recorder may be nil; extra
// workers (such as the status API server) join the fail-fast group.
func NewOrchestrator(cfg *config.Config, recorder tak.EventRecorder, m *metrics.Metrics, logger *logger.Logger, extra ...Worker) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		recorder: recorder,
		metrics:  m,
		logger:   logger.Named("orchestrator"),
		extra:    extra,
	}
}

// Run builds and starts the pipeline, then blocks until the first worker
// returns. The remaining workers are cancelled and the completed worker is
// reported.
func (o *Orchestrator) Run(ctx context.Context) error {
	// Resolve the ingestion strategy first: the decoder gate is a startup
	// precondition and must fail before anything dials out
	kind, format, err := resolveSource(o.cfg.Source.URL)
	if err != nil {
		return err
	}

	var decoder *modes.Decoder
	if kind == sourceStream {
		if !modes.Supported(format) {
			return fmt.Errorf("%w: %q (supported: raw, beast)", modes.ErrUnsupportedFormat, format)
		}
		decoder, err = modes.NewDecoder(format, o.logger)
		if err != nil {
			return err
		}
	}

	conn, err := tak.Connect(ctx, o.cfg.CoT.URL, o.cfg.CoT, o.logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	outbound := NewQueue[*cot.Event]()
	inbound := NewQueue[[]byte]()

	// Announce the gateway before ingestion starts, so the destination
	// learns of it even when no aircraft are observed yet
	outbound.Put(cot.HelloEvent(o.helloUID(), time.Now().UTC()))

	filters := adsb.NewFilterSet(o.cfg.Filters)
	builder := cot.NewBuilder(o.cfg.CoT)

	workers := make([]Worker, 0, 4+len(o.extra))

	switch kind {
	case sourcePoll:
		client := adsb.NewClient(o.cfg.Source.URL, o.cfg.Source.Timeout(), o.logger)
		var changes *adsb.ChangeDetector
		if o.cfg.Source.OnlyChanges {
			changes = adsb.NewChangeDetector(o.logger)
		}
		workers = append(workers, NewPollWorker(client, filters, builder, changes, outbound, o.cfg.Source.PollInterval(), o.metrics, o.logger))

	case sourceStream:
		u, err := url.Parse(o.cfg.Source.URL)
		if err != nil {
			return fmt.Errorf("invalid ADS-B source URL: %w", err)
		}
		frames := NewQueue[[]byte]()
		netReceiver, err := NewNetReceiver(u.Host, format, frames, o.cfg.Source.Timeout(), o.metrics, o.logger)
		if err != nil {
			return err
		}
		workers = append(workers,
			netReceiver,
			NewStreamWorker(frames, decoder, filters, builder, outbound, o.metrics, o.logger),
		)
	}

	workers = append(workers,
		tak.NewTransmitter(outbound, conn, o.cfg.CoT, o.recorder, o.metrics, o.logger),
		tak.NewReceiver(inbound, conn, o.metrics, o.logger),
	)
	workers = append(workers, o.extra...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(workers))

	for _, w := range workers {
		w := w
		o.logger.Info("Starting worker", logger.String("worker", w.Name()))
		go func() {
			results <- result{name: w.Name(), err: w.Run(runCtx)}
		}()
	}

	// Fail fast: the first worker to return, for any reason, ends the
	// pipeline. The rest are cancelled, not restarted.
	first := <-results
	cancel()

	if first.err != nil && !errors.Is(first.err, context.Canceled) {
		o.logger.Error("Worker terminated, shutting down pipeline",
			logger.String("worker", first.name),
			logger.Error(first.err),
		)
		return fmt.Errorf("worker %s terminated: %w", first.name, first.err)
	}

	o.logger.Info("Worker finished, shutting down pipeline",
		logger.String("worker", first.name),
	)
	return first.err
}

// helloUID derives the announcement event identifier
func (o *Orchestrator) helloUID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("cotbridge@%s", host)
}
