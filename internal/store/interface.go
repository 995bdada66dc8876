// Package store defines the persistence interface for the Brain Vault server.
package store

import (
	"context"

	"github.com/brainvault/brainvault-server/internal/domain"
)

// Store defines every persistence operation the services rely on.
type Store interface {
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	IdeaStore
	UserStore
}

// IdeaStore persists ideas. Every method is scoped to ownerID; a row owned by
// someone else is reported as ErrNotFound.
type IdeaStore interface {
	CreateIdea(ctx context.Context, idea *domain.Idea) error
	GetIdea(ctx context.Context, id, ownerID string) (*domain.Idea, error)
	GetIdeasByIDs(ctx context.Context, ownerID string, ids []string) ([]*domain.Idea, error)
	UpdateIdea(ctx context.Context, id, ownerID string, patch domain.IdeaPatch) (*domain.Idea, error)
	DeleteIdea(ctx context.Context, id, ownerID string) error
	ListIdeas(ctx context.Context, ownerID string, filter domain.IdeaFilter, page Page) ([]*domain.Idea, error)
	CountIdeas(ctx context.Context, ownerID string, filter domain.IdeaFilter) (int, error)
	AllIdeas(ctx context.Context, ownerID string) ([]*domain.Idea, error)
	SearchIdeasText(ctx context.Context, ownerID, query string, page Page) ([]*domain.Idea, error)
	// EachIdea visits every idea of every owner. Used for index rebuilds.
	EachIdea(ctx context.Context, fn func(*domain.Idea) error) error
}

// UserStore persists user accounts.
type UserStore interface {
	GetOrCreateUserByExternalID(ctx context.Context, externalID, email string) (*domain.User, bool, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	// DeleteUser removes the user and every idea they own.
	DeleteUser(ctx context.Context, id string) error
}

// SearchIndexer keeps the full-text index in step with committed writes.
// Index failures are logged by the store and never fail the write.
type SearchIndexer interface {
	IndexIdea(ctx context.Context, idea *domain.Idea) error
	DeleteIdea(ctx context.Context, ideaID string) error
	DeleteOwner(ctx context.Context, ownerID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexIdea is a no-op.
func (NoopSearchIndexer) IndexIdea(context.Context, *domain.Idea) error { return nil }

// DeleteIdea is a no-op.
func (NoopSearchIndexer) DeleteIdea(context.Context, string) error { return nil }

// DeleteOwner is a no-op.
func (NoopSearchIndexer) DeleteOwner(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
