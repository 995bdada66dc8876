package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Handler streams events to one authenticated user per connection.
type Handler struct {
	manager           *Manager
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		manager:           manager,
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// ClientCount reports how many streams are open.
func (h *Handler) ClientCount() int {
	return h.manager.ClientCount()
}

// ServeUser streams userID's events until the client disconnects or the
// manager shuts down. Authentication is the caller's job.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	// Check if request context is already canceled (early client disconnect).
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(userID)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		return
	}
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := h.sendEvent(w, rc, "connected", map[string]string{"client_id": client.ID}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.sendEvent(w, rc, string(event.Type), event); err != nil {
				// Client disconnect is normal, not an error condition.
				clientLogger.Debug("client disconnected during send")
				return
			}

		case t := <-heartbeat.C:
			if err := h.sendEvent(w, rc, heartbeatType, map[string]time.Time{"timestamp": t.UTC()}); err != nil {
				clientLogger.Debug("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			return

		case <-ctx.Done():
			return
		}
	}
}

// sendEvent writes one "event:/data:" frame and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write so stalled connections are dropped.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeatInterval)); err != nil {
		// SetWriteDeadline may not be supported by all ResponseWriters.
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
