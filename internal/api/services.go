package api

import (
	"context"

	"github.com/brainvault/brainvault-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Ideas     *service.IdeaService
	Search    *service.SearchService
	Stats     *service.StatsService
	Transform *service.TransformService
	Voice     *service.VoiceService
	Users     *service.UserService
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
