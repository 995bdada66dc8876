package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSource_Valid(t *testing.T) {
	for _, s := range Sources {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Source("fax").Valid())
	assert.False(t, Source("").Valid())
}

func TestSubscriptionTier_Valid(t *testing.T) {
	assert.True(t, TierFree.Valid())
	assert.True(t, TierEnterprise.Valid())
	assert.False(t, SubscriptionTier("gold").Valid())
}

func TestClassification_Normalize(t *testing.T) {
	c := Classification{
		Project: "  Garden  ",
		Theme:   strings.Repeat("t", MaxThemeLength+20),
		Emotion: strings.Repeat("é", MaxEmotionLength+1),
	}.Normalize()

	assert.Equal(t, "Garden", c.Project)
	assert.Len(t, []rune(c.Theme), MaxThemeLength)
	assert.Len(t, []rune(c.Emotion), MaxEmotionLength)
}

func TestClassification_PatchSkipsEmpty(t *testing.T) {
	p := Classification{Emotion: "curious"}.Patch()

	assert.Nil(t, p.Project)
	assert.Nil(t, p.Theme)
	if assert.NotNil(t, p.Emotion) {
		assert.Equal(t, "curious", *p.Emotion)
	}
	assert.True(t, Classification{}.Patch().IsEmpty())
}

func TestIdeaPatch_Apply(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	idea := &Idea{ID: "idea-1", Content: "old", Project: "Alpha", CreatedAt: created, UpdatedAt: created}

	content := "new"
	empty := ""
	output := "1. Do it"
	kind := "tasks"
	now := created.Add(time.Hour)

	IdeaPatch{Content: &content, Project: &empty, TransformedOutput: &output, TransformedKind: &kind}.Apply(idea, now)

	assert.Equal(t, "new", idea.Content)
	assert.Empty(t, idea.Project)
	assert.Equal(t, "1. Do it", idea.TransformedOutput)
	assert.Equal(t, "tasks", idea.TransformedKind)
	assert.Equal(t, created, idea.CreatedAt)
	assert.Equal(t, now, idea.UpdatedAt)
}

func TestIdeaFilter_Matches(t *testing.T) {
	idea := &Idea{Project: "Garden", Theme: "Health", Emotion: "happy"}

	assert.True(t, IdeaFilter{}.Matches(idea))
	assert.True(t, IdeaFilter{Project: "Garden", Emotion: "happy"}.Matches(idea))
	assert.False(t, IdeaFilter{Project: "garden"}.Matches(idea))
	assert.False(t, IdeaFilter{Theme: "Work"}.Matches(idea))
}
