package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/ceb-go/messaging"
	"github.com/ggoodman/ceb-go/messaging/memory"
	"github.com/ggoodman/ceb-go/messaging/messagingtest"
)

func TestRelayRoundTrip(t *testing.T) {
	// Skip if Redis is not available
	probe := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := probe.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer probe.Close()

	stream := "test:ceb:" + uuid.NewString()
	t.Cleanup(func() { _ = probe.Del(context.Background(), stream).Err() })

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	busA, busB := memory.New(), memory.New()
	relayA := newRelay(t, busA, stream)
	relayB := newRelay(t, busB, stream)
	RegisterEvent[messagingtest.EventA](relayA, "EventA")
	RegisterEvent[messagingtest.EventA](relayB, "EventA")

	if err := relayA.Forward("EventA"); err != nil {
		t.Fatal(err)
	}
	if err := relayB.Forward("EventA"); err != nil {
		t.Fatal(err)
	}

	received := make(chan *messagingtest.EventA, 4)
	if _, err := messaging.SubscribeFunc(busB, "EventA", func(_ context.Context, evt *messagingtest.EventA) error {
		select {
		case received <- evt:
		default:
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, r := range []*Relay{relayA, relayB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Run(ctx)
		}()
	}
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	evt := messagingtest.NewEventA("over the wire")
	// XREAD from "$" only sees entries appended after the read starts, so
	// publish until the other side has caught up.
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := busA.Publish(ctx, evt); err != nil {
			t.Fatal(err)
		}
		select {
		case got := <-received:
			if got.Body != evt.Body || got.Headers != evt.Headers {
				t.Fatalf("relayed event = %+v, want %+v", got, evt)
			}
			if n, err := probe.XLen(ctx, stream).Result(); err != nil || n == 0 {
				t.Fatalf("stream length = %d, %v", n, err)
			}
			return
		case <-tick.C:
		case <-ctx.Done():
			t.Fatal("event was not relayed")
		}
	}
}

func newRelay(t *testing.T, bus messaging.Bus, stream string) *Relay {
	t.Helper()
	r, err := New(bus, Config{Addr: "localhost:6379", Stream: stream, MaxLen: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewFromEnvFailsWithoutRedis(t *testing.T) {
	t.Setenv("CEB_REDIS_ADDR", "127.0.0.1:1")
	if _, err := NewFromEnv(memory.New()); err == nil {
		t.Fatal("expected ping failure")
	}
}
