package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/store"
)

// StatsService computes the dashboard summary for one user.
type StatsService struct {
	store       store.IdeaStore
	location    *time.Location
	recentCount int
	logger      *slog.Logger
	now         func() time.Time
}

// NewStatsService creates a stats service. loc defines the calendar month
// used for "ideas this month".
func NewStatsService(store store.IdeaStore, loc *time.Location, recentCount int, logger *slog.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	if recentCount < 1 {
		recentCount = 5
	}
	return &StatsService{
		store:       store,
		location:    loc,
		recentCount: recentCount,
		logger:      logger,
		now:         time.Now,
	}
}

// GetSummary aggregates every idea the user owns.
func (s *StatsService) GetSummary(ctx context.Context, ownerID string) (*domain.IdeaStats, error) {
	ideas, err := s.store.AllIdeas(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats := Summarize(ideas, s.now(), s.location, s.recentCount)
	return &stats, nil
}

// Summarize is the pure aggregation behind GetSummary.
//
// IdeasThisMonth counts ideas created at or after the first instant of now's
// month in loc. RecentIdeas holds the recentN newest ideas, ties broken by ID
// ascending. The input slice is not modified.
func Summarize(ideas []*domain.Idea, now time.Time, loc *time.Location, recentN int) domain.IdeaStats {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)

	stats := domain.IdeaStats{
		TotalIdeas: len(ideas),
		Projects:   make(map[string]int),
		Themes:     make(map[string]int),
		Emotions:   make(map[string]int),
	}

	for _, idea := range ideas {
		if !idea.CreatedAt.Before(monthStart) {
			stats.IdeasThisMonth++
		}
		if idea.Project != "" {
			stats.Projects[idea.Project]++
		}
		if idea.Theme != "" {
			stats.Themes[idea.Theme]++
		}
		if idea.Emotion != "" {
			stats.Emotions[idea.Emotion]++
		}
	}

	recent := slices.Clone(ideas)
	slices.SortFunc(recent, func(a, b *domain.Idea) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if recentN >= 0 && len(recent) > recentN {
		recent = recent[:recentN]
	}
	if recent == nil {
		recent = []*domain.Idea{}
	}
	stats.RecentIdeas = recent

	return stats
}
