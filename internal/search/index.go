package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/brainvault/brainvault-server/internal/domain"
)

// IdeaIndex wraps a Bleve index of idea content.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type IdeaIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	fresh  bool
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup drops the index so it is rebuilt from the store.
const mappingVersion = "1"

// ownerDeleteBatch bounds how many documents DeleteOwner removes per round.
const ownerDeleteBatch = 500

// NewIdeaIndex creates or opens the idea index under opts.DataPath.
// A corrupted index or one built with an older mapping is removed and recreated;
// Fresh reports true in that case so the caller can repopulate it.
func NewIdeaIndex(opts Options) (*IdeaIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if err := os.MkdirAll(opts.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "ideas.bleve")
	versionPath := filepath.Join(opts.DataPath, "ideas.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath) //#nosec G304 -- path under configured data dir
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	fresh := false
	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		fresh = true
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &IdeaIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
		fresh:  fresh,
	}, nil
}

// Fresh reports whether the index was created empty on open.
func (s *IdeaIndex) Fresh() bool {
	return s.fresh
}

// Close closes the index and releases resources.
func (s *IdeaIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexIdea adds or replaces an idea's document.
func (s *IdeaIndex) IndexIdea(_ context.Context, idea *domain.Idea) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(idea.ID, NewIdeaDocument(idea).ToMap())
}

// IndexIdeas indexes ideas in chunked batches.
func (s *IdeaIndex) IndexIdeas(ideas []*domain.Idea) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(ideas); i += batchSize {
		end := min(i+batchSize, len(ideas))

		batch := s.index.NewBatch()
		for _, idea := range ideas[i:end] {
			if err := batch.Index(idea.ID, NewIdeaDocument(idea).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", idea.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteIdea removes an idea's document. Deleting a missing ID is not an error.
func (s *IdeaIndex) DeleteIdea(_ context.Context, ideaID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(ideaID)
}

// DeleteOwner removes every document belonging to ownerID.
func (s *IdeaIndex) DeleteOwner(ctx context.Context, ownerID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		req := bleve.NewSearchRequestOptions(ownerQuery(ownerID), ownerDeleteBatch, 0, false)
		result, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("find owner documents: %w", err)
		}
		if len(result.Hits) == 0 {
			return nil
		}

		batch := s.index.NewBatch()
		for _, hit := range result.Hits {
			batch.Delete(hit.ID)
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("delete owner documents: %w", err)
		}
	}
}

// DocumentCount returns the total number of indexed documents.
func (s *IdeaIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one.
//
// IMPORTANT: This acquires an exclusive lock and blocks all other operations.
func (s *IdeaIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.fresh = true
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
