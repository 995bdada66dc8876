package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/store"
	"github.com/brainvault/brainvault-server/internal/transform"
	"github.com/brainvault/brainvault-server/internal/validation"
)

// TransformRequest asks for derived text from one idea.
type TransformRequest struct {
	IdeaID     string         `json:"idea_id" validate:"required,notblank"`
	OutputKind transform.Kind `json:"output_kind" validate:"required,oneof=content ip tasks"`
}

// TransformResult is the generated text and which generator produced it.
type TransformResult struct {
	IdeaID             string         `json:"idea_id"`
	OutputKind         transform.Kind `json:"output_kind"`
	TransformedContent string         `json:"transformed_content"`
	Generator          string         `json:"generator"`
}

// TransformService derives text from ideas and stores it on the idea.
type TransformService struct {
	store     store.IdeaStore
	strategy  transform.Strategy
	validator *validation.Validator
	events    *events.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewTransformService creates a transform service.
func NewTransformService(
	store store.IdeaStore,
	strategy transform.Strategy,
	emitter *events.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *TransformService {
	return &TransformService{
		store:     store,
		strategy:  strategy,
		validator: validation.New(),
		events:    emitter,
		metrics:   m,
		logger:    logger,
	}
}

// Transform generates text of the requested kind and overwrites the idea's
// previous transformation. Output and kind are written in one statement, so
// concurrent transformations resolve last writer wins.
func (s *TransformService) Transform(ctx context.Context, ownerID string, req TransformRequest) (*TransformResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	idea, err := s.store.GetIdea(ctx, req.IdeaID, ownerID)
	if err != nil {
		return nil, mapStoreError(err, ErrIdeaNotFound)
	}

	output, generator, err := s.strategy.Generate(ctx, req.OutputKind, idea.Content)
	if err != nil {
		return nil, s.mapGenerateError(err, idea.ID)
	}

	kind := string(req.OutputKind)
	idea, err = s.store.UpdateIdea(ctx, idea.ID, ownerID, transformPatch(output, kind))
	if err != nil {
		return nil, mapStoreError(err, ErrIdeaNotFound)
	}

	s.metrics.RecordTransformation(kind, generator)
	s.events.Emit(ctx, events.New(events.TypeIdeaTransformed, ownerID, idea.ID, map[string]any{
		"output_kind": kind,
		"generator":   generator,
	}))

	s.logger.Info("idea transformed",
		"idea_id", idea.ID,
		"user_id", ownerID,
		"output_kind", kind,
		"generator", generator,
	)

	return &TransformResult{
		IdeaID:             idea.ID,
		OutputKind:         req.OutputKind,
		TransformedContent: idea.TransformedOutput,
		Generator:          generator,
	}, nil
}

func (s *TransformService) mapGenerateError(err error, ideaID string) error {
	var unavailable *transform.UnavailableError
	switch {
	case errors.Is(err, transform.ErrUnknownKind):
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"output_kind": "must be one of: content ip tasks",
		})
	case errors.Is(err, transform.ErrEmptyContent):
		return domainerrors.Validation("idea has no content to transform")
	case errors.As(err, &unavailable):
		s.logger.Error("every generator failed", "idea_id", ideaID, "error", err)
		return domainerrors.Upstream("transformation service unavailable", err)
	default:
		return err
	}
}

func transformPatch(output, kind string) domain.IdeaPatch {
	return domain.IdeaPatch{TransformedOutput: &output, TransformedKind: &kind}
}
