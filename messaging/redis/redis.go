// Package redis relays events between buses of different processes through a
// Redis stream. Each Relay mirrors selected local events to the stream and
// republishes events appended by other relays on its local bus.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/ceb-go"
	"github.com/ggoodman/ceb-go/internal/logctx"
	"github.com/ggoodman/ceb-go/messaging"
)

// Config for a Relay. Defaults can be loaded via envdecode.
type Config struct {
	// Addr like "localhost:6379". ENV: CEB_REDIS_ADDR
	Addr string `env:"CEB_REDIS_ADDR,default=localhost:6379"`
	// Stream is the key of the shared stream. ENV: CEB_RELAY_STREAM
	Stream string `env:"CEB_RELAY_STREAM,default=ceb:events"`
	// MaxLen approximately caps the stream length; 0 disables trimming.
	// ENV: CEB_RELAY_MAXLEN
	MaxLen int64 `env:"CEB_RELAY_MAXLEN,default=10000"`
}

// Decoder turns the JSON form of an event back into a typed event.
type Decoder func(data []byte) (messaging.AnyEvent, error)

// Option configures a Relay.
type Option func(*Relay)

// WithLogHandler sets the handler for relay logs. Logs are discarded by default.
func WithLogHandler(h slog.Handler) Option {
	return func(r *Relay) { r.log = slog.New(logctx.Wrap(h)) }
}

// WithClient uses an existing client instead of dialing Config.Addr. The
// relay does not close clients it did not create.
func WithClient(c redis.UniversalClient) Option {
	return func(r *Relay) { r.client = c }
}

// Relay connects one local bus to a Redis stream.
type Relay struct {
	client     redis.UniversalClient
	ownsClient bool
	stream     string
	maxLen     int64
	node       string
	bus        messaging.Bus
	log        *slog.Logger

	mu       sync.RWMutex
	decoders map[string]Decoder
	regs     []messaging.Registration
	inbound  map[string]struct{}
}

// New returns a relay for bus. The connection is verified with PING.
func New(bus messaging.Bus, cfg Config, opts ...Option) (*Relay, error) {
	r := &Relay{
		stream:   cfg.Stream,
		maxLen:   cfg.MaxLen,
		node:     uuid.NewString(),
		bus:      bus,
		log:      slog.New(slog.DiscardHandler),
		decoders: make(map[string]Decoder),
		inbound:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.stream == "" {
		r.stream = "ceb:events"
	}
	if r.client == nil {
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		r.client = redis.NewClient(&redis.Options{Addr: addr})
		r.ownsClient = true
	}
	if err := r.client.Ping(context.Background()).Err(); err != nil {
		if r.ownsClient {
			_ = r.client.Close()
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	r.log = r.log.With(slog.String("stream", r.stream), slog.String("node", r.node))
	return r, nil
}

// NewFromEnv builds a Relay using envdecode to populate Config.
func NewFromEnv(bus messaging.Bus, opts ...Option) (*Relay, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	return New(bus, cfg, opts...)
}

// Node identifies this relay in stream entries.
func (r *Relay) Node() string { return r.node }

// Register installs the decoder for events of eventType received from the
// stream. Events without decoder are skipped.
func (r *Relay) Register(eventType string, decode Decoder) {
	r.mu.Lock()
	r.decoders[eventType] = decode
	r.mu.Unlock()
}

// RegisterEvent registers a JSON decoder producing *E for eventType.
func RegisterEvent[E any, P interface {
	*E
	messaging.AnyEvent
}](r *Relay, eventType string) {
	r.Register(eventType, func(data []byte) (messaging.AnyEvent, error) {
		var e E
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return P(&e), nil
	})
}

// Forward mirrors local events of the given types to the stream. Events that
// arrived from the stream are not mirrored back.
func (r *Relay) Forward(eventTypes ...string) error {
	for _, eventType := range eventTypes {
		if eventType == "" {
			return ceb.Configurationf("relay", "empty event type")
		}
		reg, err := r.bus.Subscribe(eventType, r.forward)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.regs = append(r.regs, reg)
		r.mu.Unlock()
	}
	return nil
}

func (r *Relay) forward(ctx context.Context, event messaging.AnyEvent) error {
	h := event.MessageHeaders()

	r.mu.Lock()
	_, relayed := r.inbound[h.MessageID]
	delete(r.inbound, h.MessageID)
	r.mu.Unlock()
	if relayed {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", h.MessageType, err)
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"origin": r.node,
			"type":   h.MessageType,
			"data":   data,
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event to stream %s: %w", r.stream, err)
	}
	r.log.DebugContext(ctx, "event forwarded", slog.String("type", h.MessageType), slog.String("entry", id))
	return nil
}

// Run reads the stream from its current end and publishes remote events on
// the local bus until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	start := "$"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, start},
			Count:   16,
			Block:   500 * time.Millisecond,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from stream %s: %w", r.stream, err)
		}

		for _, stream := range res {
			for _, m := range stream.Messages {
				start = m.ID
				r.deliver(ctx, m)
			}
		}
	}
}

func (r *Relay) deliver(ctx context.Context, m redis.XMessage) {
	origin, _ := m.Values["origin"].(string)
	if origin == r.node {
		return
	}
	eventType, _ := m.Values["type"].(string)

	r.mu.RLock()
	decode, ok := r.decoders[eventType]
	r.mu.RUnlock()
	if !ok {
		r.log.DebugContext(ctx, "skipping event without decoder", slog.String("type", eventType), slog.String("entry", m.ID))
		return
	}

	event, err := decode(payload(m.Values["data"]))
	if err != nil {
		r.log.WarnContext(ctx, "failed to decode relayed event", slog.String("type", eventType), slog.String("entry", m.ID), slog.String("err", err.Error()))
		return
	}

	id := event.MessageHeaders().MessageID
	r.mu.Lock()
	r.inbound[id] = struct{}{}
	r.mu.Unlock()

	if err := r.bus.Publish(ctx, event); err != nil {
		r.log.WarnContext(ctx, "failed to publish relayed event", slog.String("type", eventType), slog.String("err", err.Error()))
	}

	r.mu.Lock()
	delete(r.inbound, id)
	r.mu.Unlock()
}

func payload(v any) []byte {
	switch v := v.(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return []byte(fmt.Sprintf("%v", v))
	}
}

// Close detaches the forwarders and closes the client when the relay created it.
func (r *Relay) Close() error {
	r.mu.Lock()
	regs := r.regs
	r.regs = nil
	r.mu.Unlock()

	for _, reg := range regs {
		reg.Remove()
	}
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
