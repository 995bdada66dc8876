// Package sse streams idea lifecycle events to connected browsers using
// Server-Sent Events. Each client only receives events for its own user.
package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/id"
)

// ErrShutdown is returned by Connect once the manager is shutting down.
var ErrShutdown = errors.New("sse manager shut down")

// heartbeatType is the event name of keepalive frames.
const heartbeatType = "heartbeat"

// Client represents a connected SSE client.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan events.Event
	Done        chan struct{}
	ID          string
	UserID      string
}

// Manager tracks SSE connections and routes events to their owners.
// It implements events.Publisher so it can sit next to the broker publisher.
type Manager struct {
	clients map[string]*Client
	events  chan events.Event
	logger  *slog.Logger
	stopped chan struct{} // closed when Start returns
	mu      sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		clients: make(map[string]*Client),
		events:  make(chan events.Event, 1000),
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Start runs the broadcast loop until ctx is done or Shutdown is called.
// This should be called once at server startup in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	defer close(m.stopped)

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.broadcast(event)
		case <-ctx.Done():
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, waits for Start to drain the queue and
// return, and disconnects every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	// Mark as shutdown AND close channel atomically while holding lock.
	// This prevents race with Publish() which holds read lock during send.
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	select {
	case <-m.stopped:
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
	}

	m.closeAllClients()
	return nil
}

// Publish implements events.Publisher. Events are queued and delivered
// asynchronously; a full queue drops the event.
func (m *Manager) Publish(_ context.Context, event events.Event) error {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return nil
	}

	select {
	case m.events <- event:
	default:
		m.logger.Error("SSE event queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
	return nil
}

// Close implements events.Publisher. The manager's lifecycle is owned by
// Shutdown, so Close does nothing.
func (m *Manager) Close() error { return nil }

// broadcast delivers an event to every client of the event's owner.
func (m *Manager) broadcast(event events.Event) {
	var delivered, dropped int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if client.UserID != event.OwnerID {
			continue
		}

		// Non-blocking send (drop if client is slow/stuck).
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	m.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// Connect registers a client that receives userID's events.
func (m *Manager) Connect(userID string) (*Client, error) {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()
	if m.shutdown {
		return nil, ErrShutdown
	}

	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		UserID:      userID,
		EventChan:   make(chan events.Event, 100),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("user_id", userID),
		slog.Int("total_clients", total))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	total := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// closeAllClients closes all client connections (used during shutdown).
func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	m.clients = make(map[string]*Client)
}
