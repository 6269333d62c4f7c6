package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/graphbench/pkg/logging"
)

// ErrClosed is returned after the broker has been closed.
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the channel size per subscriber. Publishing never
// blocks; events beyond it are dropped for that subscriber.
const subscriberBuffer = 64

// TopicConfig configures replay for late subscribers.
type TopicConfig struct {
	BufferSize int  // events kept per topic, 0 disables replay
	ReplayAll  bool // replay the whole buffer instead of only the latest event
}

type topic struct {
	cfg     TopicConfig
	version int
	history []Event
	subs    map[*sseSubscription]struct{}
}

// Broker is an in-memory Publisher whose events are streamed as
// Server-Sent Events.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{topics: make(map[string]*topic)}
}

func (b *Broker) topic(name string) *topic {
	t, ok := b.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		b.topics[name] = t
	}
	return t
}

// ConfigureTopic sets the replay policy for name.
func (b *Broker) ConfigureTopic(name string, cfg TopicConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.topic(name)
	t.cfg = cfg
	if cfg.BufferSize < len(t.history) {
		t.history = t.history[len(t.history)-cfg.BufferSize:]
	}
}

// Subscribe registers a subscriber and replays buffered events to it.
func (b *Broker) Subscribe(ctx context.Context, name string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	t := b.topic(name)
	sub := &sseSubscription{
		topic:  name,
		events: make(chan Event, subscriberBuffer),
		broker: b,
	}
	t.subs[sub] = struct{}{}

	replay := t.history
	if !t.cfg.ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	if len(replay) > subscriberBuffer {
		replay = replay[len(replay)-subscriberBuffer:]
	}
	for _, ev := range replay {
		sub.events <- ev
	}
	if len(replay) > 0 {
		logging.Debug("replayed events", "topic", name, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	return sub, nil
}

// Publish marshals data and delivers it without blocking.
func (b *Broker) Publish(name string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	t := b.topic(name)
	t.version++
	ev := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}

	if t.cfg.BufferSize > 0 {
		t.history = append(t.history, ev)
		if len(t.history) > t.cfg.BufferSize {
			t.history = t.history[len(t.history)-t.cfg.BufferSize:]
		}
	}

	for sub := range t.subs {
		select {
		case sub.events <- ev:
		default:
			logging.Warn("subscriber too slow, dropping event", "topic", name, "version", ev.Version)
		}
	}
	return nil
}

// Close ends every subscription. Further calls are no-ops.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, t := range b.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = nil
	}
	return nil
}

func (b *Broker) remove(sub *sseSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[sub.topic]; ok && t.subs != nil {
		delete(t.subs, sub)
	}
}

type sseSubscription struct {
	topic  string
	events chan Event
	broker *Broker
	once   sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.broker.remove(s) })
	return nil
}

// WriteSSE writes ev as one "data: {json}\n\n" frame.
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
