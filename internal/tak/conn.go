package tak

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/pkg/logger"
)

// Connect resolves the CoT destination URL scheme and returns a connected
// transport. Supported schemes are tcp://, tls:// (alias ssl://) and udp://.
// Failure here is fatal: the gateway cannot run without a destination.
func Connect(ctx context.Context, rawURL string, cfg config.CoTConfig, lg *logger.Logger) (net.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CoT destination URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("CoT destination URL %q has no host", rawURL)
	}

	log := lg.Named("tak-connect")
	log.Info("Connecting to CoT destination",
		logger.String("scheme", u.Scheme),
		logger.String("host", u.Host),
	)

	dialer := &net.Dialer{Timeout: cfg.DialTimeout()}

	switch u.Scheme {
	case "tcp":
		conn, err := dialer.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", u.Host, err)
		}
		return conn, nil

	case "udp":
		conn, err := dialer.DialContext(ctx, "udp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", u.Host, err)
		}
		return conn, nil

	case "tls", "ssl":
		tlsConfig := &tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: cfg.TLSSkipVerify,
		}
		if cfg.TLSSkipVerify {
			log.Warn("TLS certificate verification is disabled")
		}
		conn, err := tls.DialWithDialer(dialer, "tcp", u.Host, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s over TLS: %w", u.Host, err)
		}
		return conn, nil
	}

	return nil, fmt.Errorf("unsupported CoT destination scheme %q (use tcp, tls or udp)", u.Scheme)
}
