// Package events emits pipeline run lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Event is a single run state change.
type Event struct {
	RunID    string    `json:"run_id"`
	Trigger  string    `json:"trigger"`
	State    string    `json:"state"`
	Time     time.Time `json:"time"`
	Error    string    `json:"error,omitempty"`
	Digest   string    `json:"digest,omitempty"`
	Location string    `json:"location,omitempty"`
}

// Marshal encodes the event as it goes over the wire.
func (e Event) Marshal() ([]byte, error) { return json.Marshal(e) }

// Notifier publishes run events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
func (Noop) Close() error                        { return nil }

// Memory keeps events in memory; useful for tests and the build command.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Notify(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// States returns the recorded states in order.
func (m *Memory) States() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.State
	}
	return out
}
