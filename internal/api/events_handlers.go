package api

import (
	"net/http"

	"github.com/brainvault/brainvault-server/internal/http/response"
)

// registerEventRoutes mounts the live idea feed. It is a plain chi route
// because huma buffers responses and cannot stream.
func (s *Server) registerEventRoutes() {
	if s.events == nil {
		return
	}
	s.router.Get("/api/v1/events/stream", s.handleEventStream)
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	user, err := GetUser(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}
	s.events.ServeUser(w, r, user.ID)
}
