package gateway

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/pkg/logger"
)

// NetReceiver owns one persistent TCP connection to a streaming ADS-B source.
// It reassembles the byte stream into discrete raw frames using the feed
// sub-format's framing rule and pushes them onto the internal frame queue.
// A closed or failing socket terminates the worker; the orchestrator treats
// that as a pipeline failure.
type NetReceiver struct {
	addr        string
	format      string
	frames      *Queue[[]byte]
	dialTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewNetReceiver creates a receiver for a streaming source address
func NewNetReceiver(addr, format string, frames *Queue[[]byte], dialTimeout time.Duration, m *metrics.Metrics, logger *logger.Logger) (*NetReceiver, error) {
	if _, err := newFramer(format); err != nil {
		return nil, err
	}
	return &NetReceiver{
		addr:        addr,
		format:      format,
		frames:      frames,
		dialTimeout: dialTimeout,
		metrics:     m,
		logger:      logger.Named("net-receiver"),
	}, nil
}

// Name identifies the worker in shutdown reports
func (r *NetReceiver) Name() string {
	return "net-receiver"
}

// Run connects to the source and reads frames until the socket fails or the
// context is cancelled
func (r *NetReceiver) Run(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: r.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to stream source %s: %w", r.addr, err)
	}
	defer conn.Close()

	// Unblock the read below when the pipeline shuts down
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	r.logger.Info("Connected to stream source",
		logger.String("addr", r.addr),
		logger.String("format", r.format),
	)

	fr, err := newFramer(r.format)
	if err != nil {
		return err
	}

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream source connection lost: %w", err)
		}

		for _, frame := range fr.Feed(buf[:n]) {
			r.frames.Put(frame)
			r.metrics.FramesReceived.Inc()
		}
	}
}
