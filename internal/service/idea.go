package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/id"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/store"
	"github.com/brainvault/brainvault-server/internal/validation"
)

// CreateIdeaRequest holds the fields a client may set on a new idea.
type CreateIdeaRequest struct {
	Content string        `json:"content" validate:"required,notblank,max=10000"`
	Source  domain.Source `json:"source,omitempty" validate:"omitempty,oneof=manual web-form voice api"`
}

// UpdateIdeaRequest is a partial update. Nil fields are left untouched and an
// empty label clears it.
type UpdateIdeaRequest struct {
	Content *string `json:"content,omitempty" validate:"omitnil,notblank,max=10000"`
	Project *string `json:"project,omitempty" validate:"omitempty,max=100"`
	Theme   *string `json:"theme,omitempty" validate:"omitempty,max=100"`
	Emotion *string `json:"emotion,omitempty" validate:"omitempty,max=50"`
}

// ListIdeasRequest holds the optional list filters and pagination.
type ListIdeasRequest struct {
	Filter domain.IdeaFilter
	Page   store.Page
}

// IdeaService orchestrates idea CRUD, classification, and search.
type IdeaService struct {
	store      store.Store
	search     *SearchService
	classifier classify.Classifier
	validator  *validation.Validator
	events     *events.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewIdeaService creates an idea service. classifier may be nil, in which
// case ideas are stored unclassified.
func NewIdeaService(
	store store.Store,
	search *SearchService,
	classifier classify.Classifier,
	emitter *events.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *IdeaService {
	return &IdeaService{
		store:      store,
		search:     search,
		classifier: classifier,
		validator:  validation.New(),
		events:     emitter,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateIdea validates and stores a new idea owned by ownerID.
//
// Classification runs before the insert so the row is written once. A failed
// or timed-out classifier never fails creation; the idea is stored without
// labels.
func (s *IdeaService) CreateIdea(ctx context.Context, ownerID string, req CreateIdeaRequest) (*domain.Idea, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Source == "" {
		req.Source = domain.SourceManual
	}

	ideaID, err := id.Generate(id.PrefixIdea)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	idea := &domain.Idea{
		ID:        ideaID,
		OwnerID:   ownerID,
		Content:   strings.TrimSpace(req.Content),
		Source:    req.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	labels := s.classify(ctx, idea.ID, idea.Content)
	idea.Project = labels.Project
	idea.Theme = labels.Theme
	idea.Emotion = labels.Emotion

	if err := s.store.CreateIdea(ctx, idea); err != nil {
		return nil, mapStoreError(err, ErrUserNotFound)
	}

	s.metrics.RecordIdeaCreated(string(idea.Source))
	s.events.Emit(ctx, events.New(events.TypeIdeaCreated, ownerID, idea.ID, map[string]any{
		"source":     idea.Source,
		"classified": !labels.IsEmpty(),
	}))

	s.logger.Info("idea created",
		"idea_id", idea.ID,
		"user_id", ownerID,
		"source", idea.Source,
		"classified", !labels.IsEmpty(),
	)

	return idea, nil
}

// classify asks the classifier for labels, swallowing any failure.
func (s *IdeaService) classify(ctx context.Context, ideaID, content string) domain.Classification {
	if s.classifier == nil {
		return domain.Classification{}
	}
	labels, err := s.classifier.Classify(ctx, content)
	if err != nil {
		s.logger.Warn("classification failed, storing idea unclassified",
			"idea_id", ideaID,
			"error", err,
		)
		return domain.Classification{}
	}
	return labels.Normalize()
}

// GetIdea returns one idea. Ideas owned by someone else are reported as not found.
func (s *IdeaService) GetIdea(ctx context.Context, ownerID, ideaID string) (*domain.Idea, error) {
	idea, err := s.store.GetIdea(ctx, ideaID, ownerID)
	if err != nil {
		return nil, mapStoreError(err, ErrIdeaNotFound)
	}
	return idea, nil
}

// UpdateIdea applies a partial update in a single statement.
func (s *IdeaService) UpdateIdea(ctx context.Context, ownerID, ideaID string, req UpdateIdeaRequest) (*domain.Idea, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := domain.IdeaPatch{
		Project: req.Project,
		Theme:   req.Theme,
		Emotion: req.Emotion,
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		patch.Content = &content
	}

	idea, err := s.store.UpdateIdea(ctx, ideaID, ownerID, patch)
	if err != nil {
		return nil, mapStoreError(err, ErrIdeaNotFound)
	}

	if !patch.IsEmpty() {
		s.events.Emit(ctx, events.New(events.TypeIdeaUpdated, ownerID, idea.ID, nil))
	}
	return idea, nil
}

// DeleteIdea removes an idea.
func (s *IdeaService) DeleteIdea(ctx context.Context, ownerID, ideaID string) error {
	if err := s.store.DeleteIdea(ctx, ideaID, ownerID); err != nil {
		return mapStoreError(err, ErrIdeaNotFound)
	}

	s.metrics.RecordIdeaDeleted()
	s.events.Emit(ctx, events.New(events.TypeIdeaDeleted, ownerID, ideaID, nil))
	s.logger.Info("idea deleted", "idea_id", ideaID, "user_id", ownerID)
	return nil
}

// ListIdeas returns one page of the owner's ideas, newest first, plus the
// total number matching the filter.
func (s *IdeaService) ListIdeas(ctx context.Context, ownerID string, req ListIdeasRequest) ([]*domain.Idea, int, error) {
	page := req.Page.Normalize()

	ideas, err := s.store.ListIdeas(ctx, ownerID, req.Filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountIdeas(ctx, ownerID, req.Filter)
	if err != nil {
		return nil, 0, err
	}
	return ideas, total, nil
}

// SearchIdeas ranks the owner's ideas against a free-text query.
func (s *IdeaService) SearchIdeas(ctx context.Context, ownerID, q string, page store.Page) ([]*domain.Idea, error) {
	if err := s.validator.Var("q", q, "required,notblank,max=500"); err != nil {
		return nil, err
	}
	return s.search.Search(ctx, ownerID, strings.TrimSpace(q), page)
}

// ReclassifyIdea runs the classifier again and stores whatever labels it
// returns. Labels it leaves empty keep their current value.
func (s *IdeaService) ReclassifyIdea(ctx context.Context, ownerID, ideaID string) (*domain.Idea, error) {
	idea, err := s.GetIdea(ctx, ownerID, ideaID)
	if err != nil {
		return nil, err
	}

	labels := s.classify(ctx, idea.ID, idea.Content)
	if labels.IsEmpty() {
		return idea, nil
	}

	idea, err = s.store.UpdateIdea(ctx, ideaID, ownerID, labels.Patch())
	if err != nil {
		return nil, mapStoreError(err, ErrIdeaNotFound)
	}

	s.events.Emit(ctx, events.New(events.TypeIdeaClassified, ownerID, idea.ID, map[string]any{
		"project": idea.Project,
		"theme":   idea.Theme,
		"emotion": idea.Emotion,
	}))
	return idea, nil
}
