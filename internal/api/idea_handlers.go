package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/store"
)

func (s *Server) registerIdeaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createIdea",
		Method:        http.MethodPost,
		Path:          "/api/v1/ideas",
		Summary:       "Create idea",
		Description:   "Stores a new idea and classifies it when a classifier is available",
		Tags:          []string{"Ideas"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateIdea)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIdeas",
		Method:      http.MethodGet,
		Path:        "/api/v1/ideas",
		Summary:     "List ideas",
		Description: "Returns the caller's ideas, newest first, optionally filtered by label",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIdeas)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchIdeas",
		Method:      http.MethodGet,
		Path:        "/api/v1/ideas/search",
		Summary:     "Search ideas",
		Description: "Full-text search over the caller's ideas",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchIdeas)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIdea",
		Method:      http.MethodGet,
		Path:        "/api/v1/ideas/{id}",
		Summary:     "Get idea",
		Description: "Returns an idea by ID",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIdea)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIdea",
		Method:      http.MethodPut,
		Path:        "/api/v1/ideas/{id}",
		Summary:     "Update idea",
		Description: "Updates the content or labels of an idea. Omitted fields are unchanged",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIdea)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteIdea",
		Method:        http.MethodDelete,
		Path:          "/api/v1/ideas/{id}",
		Summary:       "Delete idea",
		Description:   "Deletes an idea",
		Tags:          []string{"Ideas"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteIdea)

	huma.Register(s.api, huma.Operation{
		OperationID: "classifyIdea",
		Method:      http.MethodPost,
		Path:        "/api/v1/ideas/{id}/classify",
		Summary:     "Classify idea",
		Description: "Runs classification again and stores any labels found",
		Tags:        []string{"Ideas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClassifyIdea)
}

// === DTOs ===

// IdeaResponse contains idea data in API responses.
type IdeaResponse struct {
	ID                string    `json:"id" doc:"Idea ID"`
	Content           string    `json:"content" doc:"Idea text"`
	Source            string    `json:"source" doc:"Where the idea came from"`
	Project           string    `json:"project,omitempty" doc:"Project label"`
	Theme             string    `json:"theme,omitempty" doc:"Theme label"`
	Emotion           string    `json:"emotion,omitempty" doc:"Emotion label"`
	TransformedOutput string    `json:"transformed_output,omitempty" doc:"Most recent transformation output"`
	TransformedKind   string    `json:"transformed_kind,omitempty" doc:"Kind of the most recent transformation"`
	CreatedAt         time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt         time.Time `json:"updated_at" doc:"Last update time"`
}

// IdeaOutput wraps a single idea for Huma.
type IdeaOutput struct {
	Body IdeaResponse
}

// IdeaListOutput wraps a page of ideas for Huma.
type IdeaListOutput struct {
	TotalCount int `header:"X-Total-Count" doc:"Number of ideas matching the filter"`
	Body       []IdeaResponse
}

// IdeaSearchOutput wraps search results for Huma.
type IdeaSearchOutput struct {
	Body []IdeaResponse
}

// CreateIdeaRequest is the request body for creating an idea.
type CreateIdeaRequest struct {
	Content string `json:"content" maxLength:"10000" doc:"Idea text"`
	Source  string `json:"source,omitempty" enum:"manual,web-form,voice,api" doc:"Origin of the idea, defaults to manual"`
}

// CreateIdeaInput wraps the create idea request for Huma.
type CreateIdeaInput struct {
	Body CreateIdeaRequest
}

// ListIdeasInput contains filters and pagination for listing ideas.
type ListIdeasInput struct {
	Project string `query:"project" doc:"Exact project label"`
	Theme   string `query:"theme" doc:"Exact theme label"`
	Emotion string `query:"emotion" doc:"Exact emotion label"`
	Skip    int    `query:"skip" minimum:"0" default:"0" doc:"Number of ideas to skip"`
	Limit   int    `query:"limit" minimum:"1" maximum:"100" default:"10" doc:"Maximum ideas to return"`
}

// SearchIdeasInput contains the search query and pagination.
type SearchIdeasInput struct {
	Query string `query:"q" maxLength:"500" doc:"Search text"`
	Skip  int    `query:"skip" minimum:"0" default:"0" doc:"Number of results to skip"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"10" doc:"Maximum results to return"`
}

// IdeaIDInput identifies one idea.
type IdeaIDInput struct {
	ID string `path:"id" doc:"Idea ID"`
}

// UpdateIdeaRequest is the request body for updating an idea.
type UpdateIdeaRequest struct {
	Content *string `json:"content,omitempty" maxLength:"10000" doc:"New idea text"`
	Project *string `json:"project,omitempty" maxLength:"100" doc:"Project label, empty to clear"`
	Theme   *string `json:"theme,omitempty" maxLength:"100" doc:"Theme label, empty to clear"`
	Emotion *string `json:"emotion,omitempty" maxLength:"50" doc:"Emotion label, empty to clear"`
}

// UpdateIdeaInput wraps the update idea request for Huma.
type UpdateIdeaInput struct {
	ID   string `path:"id" doc:"Idea ID"`
	Body UpdateIdeaRequest
}

// === Handlers ===

func (s *Server) handleCreateIdea(ctx context.Context, input *CreateIdeaInput) (*IdeaOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	idea, err := s.services.Ideas.CreateIdea(ctx, user.ID, service.CreateIdeaRequest{
		Content: input.Body.Content,
		Source:  domain.Source(input.Body.Source),
	})
	if err != nil {
		return nil, err
	}

	return &IdeaOutput{Body: toIdeaResponse(idea)}, nil
}

func (s *Server) handleListIdeas(ctx context.Context, input *ListIdeasInput) (*IdeaListOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	ideas, total, err := s.services.Ideas.ListIdeas(ctx, user.ID, service.ListIdeasRequest{
		Filter: domain.IdeaFilter{
			Project: input.Project,
			Theme:   input.Theme,
			Emotion: input.Emotion,
		},
		Page: store.Page{Skip: input.Skip, Limit: input.Limit},
	})
	if err != nil {
		return nil, err
	}

	return &IdeaListOutput{TotalCount: total, Body: toIdeaResponses(ideas)}, nil
}

func (s *Server) handleSearchIdeas(ctx context.Context, input *SearchIdeasInput) (*IdeaSearchOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	ideas, err := s.services.Ideas.SearchIdeas(ctx, user.ID, input.Query, store.Page{Skip: input.Skip, Limit: input.Limit})
	if err != nil {
		return nil, err
	}

	return &IdeaSearchOutput{Body: toIdeaResponses(ideas)}, nil
}

func (s *Server) handleGetIdea(ctx context.Context, input *IdeaIDInput) (*IdeaOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	idea, err := s.services.Ideas.GetIdea(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &IdeaOutput{Body: toIdeaResponse(idea)}, nil
}

func (s *Server) handleUpdateIdea(ctx context.Context, input *UpdateIdeaInput) (*IdeaOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	idea, err := s.services.Ideas.UpdateIdea(ctx, user.ID, input.ID, service.UpdateIdeaRequest{
		Content: input.Body.Content,
		Project: input.Body.Project,
		Theme:   input.Body.Theme,
		Emotion: input.Body.Emotion,
	})
	if err != nil {
		return nil, err
	}

	return &IdeaOutput{Body: toIdeaResponse(idea)}, nil
}

func (s *Server) handleDeleteIdea(ctx context.Context, input *IdeaIDInput) (*struct{}, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ideas.DeleteIdea(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleClassifyIdea(ctx context.Context, input *IdeaIDInput) (*IdeaOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	idea, err := s.services.Ideas.ReclassifyIdea(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &IdeaOutput{Body: toIdeaResponse(idea)}, nil
}

func toIdeaResponse(idea *domain.Idea) IdeaResponse {
	return IdeaResponse{
		ID:                idea.ID,
		Content:           idea.Content,
		Source:            string(idea.Source),
		Project:           idea.Project,
		Theme:             idea.Theme,
		Emotion:           idea.Emotion,
		TransformedOutput: idea.TransformedOutput,
		TransformedKind:   idea.TransformedKind,
		CreatedAt:         idea.CreatedAt,
		UpdatedAt:         idea.UpdatedAt,
	}
}

func toIdeaResponses(ideas []*domain.Idea) []IdeaResponse {
	resp := make([]IdeaResponse, len(ideas))
	for i, idea := range ideas {
		resp[i] = toIdeaResponse(idea)
	}
	return resp
}
