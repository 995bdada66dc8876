// Package search provides owner-scoped full-text search over idea content
// using Bleve.
package search

import (
	"github.com/brainvault/brainvault-server/internal/domain"
)

// IdeaDocument is the indexed projection of an idea.
type IdeaDocument struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Content   string `json:"content"`
	Project   string `json:"project,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// NewIdeaDocument projects an idea into its index document.
func NewIdeaDocument(idea *domain.Idea) *IdeaDocument {
	return &IdeaDocument{
		ID:        idea.ID,
		OwnerID:   idea.OwnerID,
		Content:   idea.Content,
		Project:   idea.Project,
		Theme:     idea.Theme,
		Emotion:   idea.Emotion,
		CreatedAt: idea.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field map Bleve indexes, so field
// names always match the mapping.
func (d *IdeaDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"content":    d.Content,
		"created_at": float64(d.CreatedAt),
	}
	if d.Project != "" {
		m["project"] = d.Project
	}
	if d.Theme != "" {
		m["theme"] = d.Theme
	}
	if d.Emotion != "" {
		m["emotion"] = d.Emotion
	}
	return m
}
