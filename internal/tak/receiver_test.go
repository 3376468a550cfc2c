package tak

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/pkg/logger"
)

func configWithTimeout() config.CoTConfig {
	return config.CoTConfig{DialTimeoutSecs: 2}
}

type stubSink struct {
	payloads chan []byte
}

func (s *stubSink) Put(payload []byte) {
	s.payloads <- payload
}

func TestReceiverSplitsInboundEvents(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sink := &stubSink{payloads: make(chan []byte, 4)}
	rx := NewReceiver(sink, client, testMetrics(t), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rx.Run(ctx)

	// Two events arriving in one read plus a partial third
	doc := `<event uid="a"><point/></event><event uid="b"><point/></event><event uid="c">`
	if _, err := server.Write([]byte(doc)); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	for _, wantUID := range []string{`uid="a"`, `uid="b"`} {
		select {
		case payload := <-sink.payloads:
			if !strings.Contains(string(payload), wantUID) {
				t.Errorf("expected payload with %s, got %q", wantUID, payload)
			}
			if !strings.HasSuffix(string(payload), "</event>") {
				t.Errorf("expected payload to end at the event boundary, got %q", payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("no payload with %s arrived", wantUID)
		}
	}

	// Completing the third event later must still produce it whole
	if _, err := server.Write([]byte(`<point/></event>`)); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	select {
	case payload := <-sink.payloads:
		if !strings.Contains(string(payload), `uid="c"`) {
			t.Errorf("expected third event, got %q", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("partial event was never completed")
	}
}

func TestReceiverStopsOnConnectionClose(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	sink := &stubSink{payloads: make(chan []byte, 1)}
	rx := NewReceiver(sink, client, testMetrics(t), logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- rx.Run(context.Background()) }()

	server.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected read error after connection close")
		}
	case <-time.After(time.Second):
		t.Fatal("receiver did not stop after connection close")
	}
}

func TestConnectRejectsUnsupportedScheme(t *testing.T) {
	cfg := configWithTimeout()
	if _, err := Connect(context.Background(), "ftp://takserver:21", cfg, logger.NewNop()); err == nil {
		t.Error("expected error for unsupported scheme")
	}
	if _, err := Connect(context.Background(), "tcp://", cfg, logger.NewNop()); err == nil {
		t.Error("expected error for missing host")
	}
}

func TestConnectTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	conn, err := Connect(context.Background(), "tcp://"+ln.Addr().String(), configWithTimeout(), logger.NewNop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	conn.Close()
}
