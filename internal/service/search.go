package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/search"
	"github.com/brainvault/brainvault-server/internal/store"
)

// SearchService bridges the bleve idea index with the store. Hits come from
// the index in relevance order and are hydrated from the store, so results
// never show content the index has not caught up with.
type SearchService struct {
	index  *search.IdeaIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a search service. A nil index makes every search
// fall back to the store's substring scan.
func NewSearchService(index *search.IdeaIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether a full-text index is attached.
func (s *SearchService) Enabled() bool {
	return s.index != nil
}

// Search returns the owner's ideas matching q, best match first.
func (s *SearchService) Search(ctx context.Context, ownerID, q string, page store.Page) ([]*domain.Idea, error) {
	page = page.Normalize()

	if s.index == nil {
		return s.store.SearchIdeasText(ctx, ownerID, q, page)
	}

	result, err := s.index.SearchIdeas(ctx, ownerID, q, page.Skip, page.Limit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Warn("search index query failed, falling back to text scan", "error", err)
		return s.store.SearchIdeasText(ctx, ownerID, q, page)
	}

	return s.store.GetIdeasByIDs(ctx, ownerID, result.IDs())
}

// DocumentCount reports how many ideas the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, errors.New("search index disabled")
	}
	return s.index.DocumentCount()
}

// ReindexIfFresh rebuilds the index from the store when it was just created,
// either on first start or after a mapping change.
func (s *SearchService) ReindexIfFresh(ctx context.Context) error {
	if s.index == nil || !s.index.Fresh() {
		return nil
	}
	return s.ReindexAll(ctx)
}

// Rebuild drops the index and reindexes every idea from the store. Searches
// fall back to the database until it completes.
func (s *SearchService) Rebuild(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	if err := s.index.Rebuild(); err != nil {
		return err
	}
	return s.ReindexAll(ctx)
}

// ReindexAll streams every idea from the store into the index.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	const batchSize = 500
	start := time.Now()
	batch := make([]*domain.Idea, 0, batchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.index.IndexIdeas(batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.store.EachIdea(ctx, func(idea *domain.Idea) error {
		batch = append(batch, idea)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return err
	}

	s.logger.Info("search index rebuilt", "ideas", total, "duration", time.Since(start))
	return nil
}
