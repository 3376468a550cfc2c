package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus instruments
type Metrics struct {
	registry prometheus.Registerer
	gatherer prometheus.Gatherer

	EventsBuilt    prometheus.Counter
	EventsSent     prometheus.Counter
	EventsReceived prometheus.Counter
	FramesReceived prometheus.Counter
	DecodeErrors   prometheus.Counter
	PollCycles     prometheus.Counter
	PollErrors     prometheus.Counter
	FilterDrops    prometheus.Counter

	OutboundQueueDepth prometheus.Gauge
}

// New creates and registers the gateway metrics. A nil registerer uses the
// process-wide default registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		registry: reg,
		gatherer: gatherer,
		EventsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_events_built_total",
			Help: "CoT events built from observations.",
		}),
		EventsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_events_sent_total",
			Help: "CoT events written to the destination.",
		}),
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_events_received_total",
			Help: "Inbound CoT payloads read from the destination.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_frames_received_total",
			Help: "Raw frames reassembled from the stream source.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_decode_errors_total",
			Help: "Raw frames the decoder rejected.",
		}),
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_poll_cycles_total",
			Help: "Completed poll cycles against the JSON source.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_poll_errors_total",
			Help: "Poll cycles skipped due to fetch or parse errors.",
		}),
		FilterDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotbridge_filter_drops_total",
			Help: "Observations dropped by the filter set.",
		}),
		OutboundQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cotbridge_outbound_queue_depth",
			Help: "Events waiting in the outbound queue.",
		}),
	}

	collectors := []prometheus.Collector{
		m.EventsBuilt,
		m.EventsSent,
		m.EventsReceived,
		m.FramesReceived,
		m.DecodeErrors,
		m.PollCycles,
		m.PollErrors,
		m.FilterDrops,
		m.OutboundQueueDepth,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler exposes the metrics for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
