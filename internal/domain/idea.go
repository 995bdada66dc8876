package domain

import (
	"strings"
	"time"
)

// Content length bounds for an idea, in characters.
const (
	MaxContentLength = 10000
	MaxProjectLength = 100
	MaxThemeLength   = 100
	MaxEmotionLength = 50
)

// Source identifies where an idea was captured.
type Source string

// Recognized idea sources.
const (
	SourceManual  Source = "manual"
	SourceWebForm Source = "web-form"
	SourceVoice   Source = "voice"
	SourceAPI     Source = "api"
)

// Sources lists every accepted source in display order.
var Sources = []Source{SourceManual, SourceWebForm, SourceVoice, SourceAPI}

// Valid reports whether s is a recognized source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceWebForm, SourceVoice, SourceAPI:
		return true
	default:
		return false
	}
}

// Idea is a captured thought owned by a single user.
//
// Labels and TransformedOutput are empty until the classifier or a
// transformation sets them. An empty string always means "unset".
type Idea struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Content           string    `json:"content"`
	Source            Source    `json:"source"`
	Project           string    `json:"project,omitempty"`
	Theme             string    `json:"theme,omitempty"`
	Emotion           string    `json:"emotion,omitempty"`
	TransformedOutput string    `json:"transformed_output,omitempty"`
	TransformedKind   string    `json:"transformed_kind,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Classification returns the idea's current label triple.
func (i *Idea) Classification() Classification {
	return Classification{Project: i.Project, Theme: i.Theme, Emotion: i.Emotion}
}

// Classification is the {project, theme, emotion} label triple. Any field may be empty.
type Classification struct {
	Project string `json:"project,omitempty"`
	Theme   string `json:"theme,omitempty"`
	Emotion string `json:"emotion,omitempty"`
}

// IsEmpty reports whether no label is set.
func (c Classification) IsEmpty() bool {
	return c.Project == "" && c.Theme == "" && c.Emotion == ""
}

// Normalize trims whitespace and truncates labels to their column limits.
func (c Classification) Normalize() Classification {
	return Classification{
		Project: truncate(strings.TrimSpace(c.Project), MaxProjectLength),
		Theme:   truncate(strings.TrimSpace(c.Theme), MaxThemeLength),
		Emotion: truncate(strings.TrimSpace(c.Emotion), MaxEmotionLength),
	}
}

// Patch returns an IdeaPatch that sets only the non-empty labels.
func (c Classification) Patch() IdeaPatch {
	var p IdeaPatch
	if c.Project != "" {
		p.Project = &c.Project
	}
	if c.Theme != "" {
		p.Theme = &c.Theme
	}
	if c.Emotion != "" {
		p.Emotion = &c.Emotion
	}
	return p
}

// IdeaPatch is a partial update. Nil fields are left untouched; a pointer to
// the empty string clears the field.
type IdeaPatch struct {
	Content           *string
	Project           *string
	Theme             *string
	Emotion           *string
	TransformedOutput *string
	TransformedKind   *string
}

// TouchesSearchFields reports whether the patch changes a field the full-text
// index stores.
func (p IdeaPatch) TouchesSearchFields() bool {
	return p.Content != nil || p.Project != nil || p.Theme != nil || p.Emotion != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p IdeaPatch) IsEmpty() bool {
	return p.Content == nil && p.Project == nil && p.Theme == nil &&
		p.Emotion == nil && p.TransformedOutput == nil && p.TransformedKind == nil
}

// Apply copies the patch onto idea and bumps UpdatedAt.
func (p IdeaPatch) Apply(idea *Idea, now time.Time) {
	if p.Content != nil {
		idea.Content = *p.Content
	}
	if p.Project != nil {
		idea.Project = strings.TrimSpace(*p.Project)
	}
	if p.Theme != nil {
		idea.Theme = strings.TrimSpace(*p.Theme)
	}
	if p.Emotion != nil {
		idea.Emotion = strings.TrimSpace(*p.Emotion)
	}
	if p.TransformedOutput != nil {
		idea.TransformedOutput = *p.TransformedOutput
	}
	if p.TransformedKind != nil {
		idea.TransformedKind = *p.TransformedKind
	}
	idea.UpdatedAt = now
}

// IdeaFilter holds optional exact-match label predicates for listing.
// Empty fields impose no constraint.
type IdeaFilter struct {
	Project string
	Theme   string
	Emotion string
}

// Matches reports whether idea satisfies every set predicate.
func (f IdeaFilter) Matches(idea *Idea) bool {
	return (f.Project == "" || f.Project == idea.Project) &&
		(f.Theme == "" || f.Theme == idea.Theme) &&
		(f.Emotion == "" || f.Emotion == idea.Emotion)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
