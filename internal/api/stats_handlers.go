package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getIdeaStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/ideas/stats/summary",
		Summary:     "Idea statistics",
		Description: "Returns totals, label counts, and the most recent ideas for the dashboard",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIdeaStats)
}

// IdeaStatsResponse contains the dashboard summary.
type IdeaStatsResponse struct {
	TotalIdeas     int            `json:"total_ideas" doc:"Number of ideas owned by the caller"`
	IdeasThisMonth int            `json:"ideas_this_month" doc:"Ideas created since the start of the current month"`
	Projects       map[string]int `json:"projects" doc:"Idea count per project label"`
	Themes         map[string]int `json:"themes" doc:"Idea count per theme label"`
	Emotions       map[string]int `json:"emotions" doc:"Idea count per emotion label"`
	RecentIdeas    []IdeaResponse `json:"recent_ideas" doc:"Most recently created ideas"`
}

// IdeaStatsOutput wraps the stats response for Huma.
type IdeaStatsOutput struct {
	Body IdeaStatsResponse
}

func (s *Server) handleGetIdeaStats(ctx context.Context, _ *struct{}) (*IdeaStatsOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetSummary(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &IdeaStatsOutput{
		Body: IdeaStatsResponse{
			TotalIdeas:     stats.TotalIdeas,
			IdeasThisMonth: stats.IdeasThisMonth,
			Projects:       stats.Projects,
			Themes:         stats.Themes,
			Emotions:       stats.Emotions,
			RecentIdeas:    toIdeaResponses(stats.RecentIdeas),
		},
	}, nil
}
