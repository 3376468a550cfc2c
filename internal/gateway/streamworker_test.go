package gateway

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/modes"
	"github.com/skysift/cotbridge/pkg/logger"
)

func TestStreamWorkerPipeline(t *testing.T) {
	log := logger.NewNop()
	decoder, err := modes.NewDecoder(modes.FormatRaw, log)
	if err != nil {
		t.Fatalf("failed to build decoder: %v", err)
	}

	frames := NewQueue[[]byte]()
	out := NewQueue[*cot.Event]()
	w := NewStreamWorker(
		frames,
		decoder,
		nil,
		cot.NewBuilder(config.CoTConfig{StaleSeconds: 120}),
		out,
		testMetrics(t),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Even and odd position frames complete a fix; the malformed frame is
	// skipped; the identification frame updates the positioned aircraft again
	frames.Put([]byte("*8D40621D58C382D690C8AC2863A7;")) // even position
	frames.Put([]byte("*8D40621D58C386435CC412692AD6;")) // odd position
	frames.Put([]byte("*not-a-frame;"))
	frames.Put([]byte("*8D40621D202CC371C32CE0576098;")) // identification

	first := waitForEvent(t, ctx, out)
	if first.UID != "ICAO-40621D" {
		t.Errorf("expected UID ICAO-40621D, got %q", first.UID)
	}
	lat, _ := strconv.ParseFloat(first.Point.Lat, 64)
	lon, _ := strconv.ParseFloat(first.Point.Lon, 64)
	if math.Abs(lat-52.2657) > 0.01 || math.Abs(lon-3.9389) > 0.01 {
		t.Errorf("unexpected position fix: lat=%f lon=%f", lat, lon)
	}

	second := waitForEvent(t, ctx, out)
	if second.Detail == nil || second.Detail.Contact == nil {
		t.Fatal("expected contact detail on identification event")
	}
	if second.Detail.Contact.Callsign != "KLM1023" {
		t.Errorf("expected callsign KLM1023, got %q", second.Detail.Contact.Callsign)
	}

	if out.Len() != 0 {
		t.Errorf("expected exactly 2 events, found %d more", out.Len())
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func waitForEvent(t *testing.T, ctx context.Context, out *Queue[*cot.Event]) *cot.Event {
	t.Helper()
	getCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	event, err := out.Get(getCtx)
	if err != nil {
		t.Fatalf("no event arrived: %v", err)
	}
	return event
}
