package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/search"
	"github.com/brainvault/brainvault-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// IdeaIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.IdeaIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.IdeaIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled, using database search")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewIdeaIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.Path, "documents", docCount)

	return &SearchIndexHandle{IdeaIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.IdeaIndex, storeHandle.Store, log.Logger)

	// Wire to store for automatic indexing
	if indexHandle.IdeaIndex != nil {
		storeHandle.SetSearchIndexer(indexHandle.IdeaIndex)
	}

	return svc, nil
}

// TriggerSearchReindexIfNeeded rebuilds a freshly created index from the
// store in the background, or drops and rebuilds any index when
// search.rebuild_on_start is set. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	reindex := searchService.ReindexIfFresh
	if cfg.Search.RebuildOnStart {
		log.Info("Rebuilding search index")
		reindex = searchService.Rebuild
	}

	go func() {
		if err := reindex(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		if count, err := searchService.DocumentCount(); err == nil && count > 0 {
			log.Info("Search index ready", "documents", count)
		}
	}()
}
