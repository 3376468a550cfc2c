package tak

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/pkg/logger"
)

// eventTerminator delimits CoT documents on the inbound wire
var eventTerminator = []byte("</event>")

// PayloadSink is the inbound queue as seen by the receiver
type PayloadSink interface {
	Put(payload []byte)
}

// Receiver populates the inbound queue from the wire. Nothing consumes the
// inbound queue yet; the wiring exists for future bidirectional CoT handling.
type Receiver struct {
	inbound PayloadSink
	conn    net.Conn
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewReceiver creates a receiver for a connected destination
func NewReceiver(inbound PayloadSink, conn net.Conn, m *metrics.Metrics, logger *logger.Logger) *Receiver {
	return &Receiver{
		inbound: inbound,
		conn:    conn,
		metrics: m,
		logger:  logger.Named("receiver"),
	}
}

// Name identifies the worker in shutdown reports
func (r *Receiver) Name() string {
	return "receiver"
}

// Run reads the wire until the connection fails or the context is cancelled.
// Inbound data is split on event boundaries and queued as raw payloads.
func (r *Receiver) Run(ctx context.Context) error {
	r.logger.Info("Receiver started",
		logger.String("remote_addr", r.conn.RemoteAddr().String()),
	)

	buf := make([]byte, 4096)
	var pending []byte

	for {
		n, err := r.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from destination: %w", err)
		}

		pending = append(pending, buf[:n]...)
		for {
			idx := bytes.Index(pending, eventTerminator)
			if idx < 0 {
				break
			}
			end := idx + len(eventTerminator)
			payload := append([]byte(nil), pending[:end]...)
			pending = append(pending[:0:0], pending[end:]...)

			r.inbound.Put(payload)
			r.metrics.EventsReceived.Inc()
			r.logger.Debug("Inbound event queued", logger.Int("bytes", len(payload)))
		}
	}
}
