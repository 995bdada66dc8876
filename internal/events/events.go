// Package events publishes idea lifecycle events to an external broker.
//
// Publishing is best effort: services log and count failures but never fail
// the request that produced the event.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brainvault/brainvault-server/internal/id"
)

// Type names an event.
type Type string

// Idea lifecycle events.
const (
	TypeIdeaCreated     Type = "idea.created"
	TypeIdeaUpdated     Type = "idea.updated"
	TypeIdeaClassified  Type = "idea.classified"
	TypeIdeaTransformed Type = "idea.transformed"
	TypeIdeaDeleted     Type = "idea.deleted"
	TypeUserDeleted     Type = "user.deleted"
)

// Event is the payload written to the broker.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	OwnerID    string         `json:"owner_id"`
	IdeaID     string         `json:"idea_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(t Type, ownerID, ideaID string, data map[string]any) Event {
	return Event{
		ID:         id.MustGenerate(id.PrefixEvent),
		Type:       t,
		OwnerID:    ownerID,
		IdeaID:     ideaID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// Fanout publishes every event to each publisher in order. A failing
// publisher does not stop delivery to the rest; errors are joined.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryPublisher keeps events in memory. Used in tests and local development.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish records event.
func (m *MemoryPublisher) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Close does nothing.
func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the recorded event types in publish order.
func (m *MemoryPublisher) Types() []Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
