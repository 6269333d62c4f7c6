// Package pubsub fans out benchmark progress to HTTP subscribers.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the benchmark server.
const (
	TopicStatus = "run_status"
	TopicReport = "report"
)

// Event is one message on a topic.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "loading", "running", "ready"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic, increasing
}

// Subscription receives the events of one topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event publishing.
type Publisher interface {
	// Subscribe registers for topic. Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends data, marshalled to JSON, to every subscriber of topic.
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// RunStatus is the payload of TopicStatus events.
type RunStatus struct {
	RunID   string `json:"runId,omitempty"`
	State   string `json:"state"` // idle, loading, running, ready, error
	Message string `json:"message"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
}

// ReportSummary is the payload of TopicReport events. The full report is
// served separately.
type ReportSummary struct {
	RunID       string `json:"runId"`
	Vertices    int    `json:"vertices"`
	Algorithms  int    `json:"algorithms"`
	Mismatching int    `json:"mismatching"`
	Failed      int    `json:"failed"`
}
