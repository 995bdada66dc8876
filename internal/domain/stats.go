package domain

// IdeaStats is the dashboard summary for one user's ideas.
type IdeaStats struct {
	TotalIdeas     int            `json:"total_ideas"`
	IdeasThisMonth int            `json:"ideas_this_month"`
	Projects       map[string]int `json:"projects"`
	Themes         map[string]int `json:"themes"`
	Emotions       map[string]int `json:"emotions"`
	RecentIdeas    []*Idea        `json:"recent_ideas"`
}
